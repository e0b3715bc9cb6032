package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/grouprank/go-rank-backend/internal/domain"
	"github.com/grouprank/go-rank-backend/internal/notify"
	"github.com/grouprank/go-rank-backend/internal/services"
)

//
// Stubs
//

type stubIngest struct {
	lastEvent services.IngestEvent
	res       *services.IngestResult
	err       error
}

func (s *stubIngest) Ingest(_ context.Context, ev services.IngestEvent) (*services.IngestResult, error) {
	s.lastEvent = ev
	return s.res, s.err
}

type stubStats struct {
	members []services.MemberStats
	total   int64
	err     error
}

func (s *stubStats) GroupStats(context.Context, int64, int, int) ([]services.MemberStats, int64, error) {
	return s.members, s.total, s.err
}

type stubRanks struct {
	ranks   []domain.Rank
	points  []domain.MessageTypePoints
	updated int
	err     error
}

func (s *stubRanks) Ranks(context.Context) ([]domain.Rank, error) { return s.ranks, s.err }
func (s *stubRanks) Points(context.Context) ([]domain.MessageTypePoints, error) {
	return s.points, s.err
}
func (s *stubRanks) RestoreRanks(context.Context) (int, error) { return s.updated, s.err }

type stubNotifier struct {
	calls []notify.RankNotification
	err   error
}

func (s *stubNotifier) NotifyRankChange(_ context.Context, n notify.RankNotification) error {
	s.calls = append(s.calls, n)
	return s.err
}

const testToken = "sekret"

func newIngestRouter(ing IngestService, n notify.Notifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(ing, &stubStats{}, &stubRanks{}, n, testToken)
	r.POST("/ingest", h.Ingest)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validIngestBody() map[string]any {
	return map[string]any{
		"auth_token":   testToken,
		"message_id":   101,
		"timestamp":    "2025-03-01T10:15:00Z",
		"user_id":      7,
		"first_name":   "Ada",
		"username":     "ada",
		"chat_id":      -100,
		"chat_title":   "Engine Room",
		"message_type": "text",
		"text":         "hello",
	}
}

//
// Tests
//

func TestIngest_Unauthorized(t *testing.T) {
	ing := &stubIngest{res: &services.IngestResult{}}
	r := newIngestRouter(ing, nil)

	body := validIngestBody()
	body["auth_token"] = "wrong"
	w := postJSON(t, r, "/ingest", body, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	delete(body, "auth_token")
	w = postJSON(t, r, "/ingest", body, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status=%d", w.Code)
	}

	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != ErrCodeUnauthorized {
		t.Fatalf("unexpected envelope: %s", w.Body.String())
	}
}

func TestIngest_HeaderTokenAccepted(t *testing.T) {
	ing := &stubIngest{res: &services.IngestResult{Points: 2, Rating: 2}}
	r := newIngestRouter(ing, nil)

	body := validIngestBody()
	delete(body, "auth_token")
	w := postJSON(t, r, "/ingest", body, map[string]string{HeaderIngestToken: testToken})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestIngest_EmptyConfiguredTokenRejectsEverything(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(&stubIngest{res: &services.IngestResult{}}, &stubStats{}, &stubRanks{}, nil, "")
	r.POST("/ingest", h.Ingest)

	w := postJSON(t, r, "/ingest", validIngestBody(), nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("empty configured token must close the endpoint, got %d", w.Code)
	}
}

func TestIngest_ValidationFailures(t *testing.T) {
	ing := &stubIngest{res: &services.IngestResult{}}
	r := newIngestRouter(ing, nil)

	body := validIngestBody()
	delete(body, "message_id")
	if w := postJSON(t, r, "/ingest", body, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing message_id: status=%d", w.Code)
	}

	body = validIngestBody()
	body["timestamp"] = "yesterday"
	if w := postJSON(t, r, "/ingest", body, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad timestamp: status=%d", w.Code)
	}
}

func TestIngest_ServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrUnknownMessageType, http.StatusBadRequest},
		{services.ErrInvalidEvent, http.StatusBadRequest},
		{services.ErrStaleTimestamp, http.StatusBadRequest},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		r := newIngestRouter(&stubIngest{err: c.err}, nil)
		w := postJSON(t, r, "/ingest", validIngestBody(), nil)
		if w.Code != c.want {
			t.Fatalf("%v: status=%d want %d", c.err, w.Code, c.want)
		}
	}
}

func TestIngest_SuccessEnvelope(t *testing.T) {
	ing := &stubIngest{res: &services.IngestResult{
		Points: 2,
		Rating: 12,
	}}
	r := newIngestRouter(ing, nil)

	w := postJSON(t, r, "/ingest", validIngestBody(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp IngestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Status != "ok" || resp.Points != 2 || resp.Rating != 12 || resp.Duplicate || resp.RankChanged {
		t.Fatalf("unexpected response: %+v", resp)
	}

	// Event fields forwarded to the service.
	if ing.lastEvent.MessageID != 101 || ing.lastEvent.GroupID != -100 || ing.lastEvent.MessageType != "text" {
		t.Fatalf("event not forwarded: %+v", ing.lastEvent)
	}
}

func TestIngest_RankChangeTriggersNotification(t *testing.T) {
	oldRank := &domain.Rank{ID: 1, Name: "Newcomer"}
	newRank := &domain.Rank{ID: 2, Name: "Passerby"}
	ing := &stubIngest{res: &services.IngestResult{
		Points:      2,
		Rating:      51,
		RankChanged: true,
		OldRank:     oldRank,
		NewRank:     newRank,
	}}
	n := &stubNotifier{}
	r := newIngestRouter(ing, n)

	w := postJSON(t, r, "/ingest", validIngestBody(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if len(n.calls) != 1 {
		t.Fatalf("expected one notification, got %d", len(n.calls))
	}
	got := n.calls[0]
	if got.GroupTelegramID != -100 || got.DisplayName != "@ada" ||
		got.OldRankName != "Newcomer" || got.NewRankName != "Passerby" {
		t.Fatalf("unexpected notification: %+v", got)
	}
}

func TestIngest_NotifierFailureDoesNotFailRequest(t *testing.T) {
	ing := &stubIngest{res: &services.IngestResult{
		RankChanged: true,
		NewRank:     &domain.Rank{ID: 1, Name: "Newcomer"},
	}}
	n := &stubNotifier{err: errors.New("telegram down")}
	r := newIngestRouter(ing, n)

	w := postJSON(t, r, "/ingest", validIngestBody(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("notification failures must not fail ingestion, got %d", w.Code)
	}
}
