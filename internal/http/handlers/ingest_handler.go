// Ingestion HTTP handler.
//
// This file exposes the single write endpoint of the engine:
//   - POST /ingest   (score one observed message event)
//
// Handlers are transport-thin: they authenticate the shared token, validate
// and normalize the payload, delegate to the ingestion service, and translate
// the result into HTTP responses. Rank-change notifications fire here, after
// the scoring transaction has committed, so a slow or failing notifier can
// never roll back scoring state.
package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grouprank/go-rank-backend/internal/domain"
	"github.com/grouprank/go-rank-backend/internal/http/middleware"
	"github.com/grouprank/go-rank-backend/internal/notify"
	"github.com/grouprank/go-rank-backend/internal/services"
)

// HeaderIngestToken is the alternative carrier for the shared secret; bodies
// may also include it as auth_token.
const HeaderIngestToken = "X-Ingest-Token"

//
// Service contracts (context-aware)
//

// IngestService scores one observed message event. Implementations must be
// safe for concurrent use and honor the provided context.
type IngestService interface {
	Ingest(ctx context.Context, ev services.IngestEvent) (*services.IngestResult, error)
}

// StatsService serves group leaderboards.
type StatsService interface {
	GroupStats(ctx context.Context, groupTelegramID int64, page, pageSize int) ([]services.MemberStats, int64, error)
}

// RankService serves the scoring reference tables and the rank backfill.
type RankService interface {
	Ranks(ctx context.Context) ([]domain.Rank, error)
	Points(ctx context.Context) ([]domain.MessageTypePoints, error)
	RestoreRanks(ctx context.Context) (int, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for ingestion, statistics, and the
// reference tables. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	ingestSvc IngestService
	statsSvc  StatsService
	rankSvc   RankService
	notifier  notify.Notifier

	// token is the shared ingest secret; empty disables all token-guarded
	// endpoints (they answer 401).
	token string
}

// New constructs a Handlers instance bound to the given services. A nil
// notifier is replaced with the no-op implementation.
func New(ingestSvc IngestService, statsSvc StatsService, rankSvc RankService, notifier notify.Notifier, token string) *Handlers {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Handlers{
		ingestSvc: ingestSvc,
		statsSvc:  statsSvc,
		rankSvc:   rankSvc,
		notifier:  notifier,
		token:     token,
	}
}

// authorized compares the presented token (body field or X-Ingest-Token
// header) against the configured secret in constant time.
func (h *Handlers) authorized(c *gin.Context, bodyToken string) bool {
	if h.token == "" {
		return false
	}
	presented := strings.TrimSpace(bodyToken)
	if presented == "" {
		presented = strings.TrimSpace(c.GetHeader(HeaderIngestToken))
	}
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(h.token)) == 1
}

//
// DTOs
//

// IngestRequest is the JSON payload for one observed message event.
//
// Identifiers come from the source platform; timestamp is the instant the
// message was sent, RFC 3339. Name fields are optional and refresh stored
// identity when present.
type IngestRequest struct {
	AuthToken        string `json:"auth_token"`
	MessageID        int64  `json:"message_id" binding:"required"`
	Timestamp        string `json:"timestamp" binding:"required" example:"2025-03-01T10:15:00Z"`
	UserID           int64  `json:"user_id" binding:"required"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Username         string `json:"username"`
	ChatID           int64  `json:"chat_id" binding:"required"`
	ChatTitle        string `json:"chat_title"`
	MessageType      string `json:"message_type" binding:"required" example:"text"`
	Text             string `json:"text"`
	RelatedMessageID *int64 `json:"related_message_id"`
}

// IngestResponse reports what the event did to the membership.
type IngestResponse struct {
	Status      string `json:"status" example:"ok"`
	Duplicate   bool   `json:"duplicate"`
	Points      int    `json:"points"`
	Rating      int    `json:"rating"`
	RankChanged bool   `json:"rank_changed"`
}

// Ingest godoc
// @ID          ingestMessage
// @Summary     Ingest one message event
// @Description Scores one observed message exactly once. Re-delivered events
// @Description are detected by the (message_id, chat_id) fence and answered
// @Description with duplicate=true without touching scoring state.
// @Tags        Ingest
// @Accept      json
// @Produce     json
//
// @Param       X-Ingest-Token  header  string                  false "Shared ingest token (alternative to body auth_token)"
// @Param       body            body    handlers.IngestRequest  true  "Message event"
//
// @Success     200  {object}  handlers.IngestResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ingest [post]
func (h *Handlers) Ingest(c *gin.Context) {
	ctx := c.Request.Context()

	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message_id, timestamp, user_id, chat_id and message_type are required")
		return
	}
	if !h.authorized(c, req.AuthToken) {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid ingest token")
		return
	}

	ts, err := time.Parse(time.RFC3339, req.Timestamp)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "timestamp must be RFC 3339")
		return
	}

	res, err := h.ingestSvc.Ingest(ctx, services.IngestEvent{
		MessageID:        req.MessageID,
		Timestamp:        ts,
		UserID:           req.UserID,
		FirstName:        strings.TrimSpace(req.FirstName),
		LastName:         strings.TrimSpace(req.LastName),
		Username:         strings.TrimSpace(req.Username),
		GroupID:          req.ChatID,
		GroupTitle:       strings.TrimSpace(req.ChatTitle),
		MessageType:      req.MessageType,
		Text:             req.Text,
		RelatedMessageID: req.RelatedMessageID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEvent):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid event")
		case errors.Is(err, services.ErrUnknownMessageType):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown message type")
		case errors.Is(err, services.ErrStaleTimestamp):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "event timestamp predates last checkin")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeIngestFailed, err.Error())
		}
		return
	}

	// Scoring is committed; announce the transition best effort.
	if res.RankChanged && res.NewRank != nil {
		n := notify.RankNotification{
			GroupTelegramID: req.ChatID,
			DisplayName:     services.DisplayName(req.FirstName, req.LastName, req.Username),
			NewRankName:     res.NewRank.Name,
		}
		if res.OldRank != nil {
			n.OldRankName = res.OldRank.Name
		}
		if nerr := h.notifier.NotifyRankChange(ctx, n); nerr != nil {
			lg := middleware.LoggerFrom(c)
			lg.Warn().Err(nerr).
				Int64("chat_id", req.ChatID).
				Str("new_rank", res.NewRank.Name).
				Msg("rank notification failed")
		}
	}

	ok(c, http.StatusOK, IngestResponse{
		Status:      "ok",
		Duplicate:   res.Duplicate,
		Points:      res.Points,
		Rating:      res.Rating,
		RankChanged: res.RankChanged,
	})
}
