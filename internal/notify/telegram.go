// Package notify delivers rank-change announcements to the chat the member
// earned them in. Delivery is best effort: the scoring transaction has
// already committed by the time a notifier runs, and a failed send is only
// logged by the caller.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"

	"github.com/grouprank/go-rank-backend/internal/config"
)

// maxMessageRunes clamps outbound text to Telegram's message limit.
const maxMessageRunes = 4000

// RankNotification describes one rank change to announce.
type RankNotification struct {
	GroupTelegramID int64
	DisplayName     string
	OldRankName     string // empty when the member had no rank before
	NewRankName     string
}

// Notifier announces rank changes. Implementations must be safe for
// concurrent use.
type Notifier interface {
	NotifyRankChange(ctx context.Context, n RankNotification) error
}

// NopNotifier discards every notification. Used when no bot token is
// configured.
type NopNotifier struct{}

func (NopNotifier) NotifyRankChange(context.Context, RankNotification) error { return nil }

// TelegramNotifier sends announcements through the Telegram Bot API.
type TelegramNotifier struct {
	apiBase string
	token   string
	client  *http.Client
}

// NewTelegramNotifier builds a notifier from config. The HTTP client carries
// the configured timeout so a slow API cannot stall request handlers.
func NewTelegramNotifier(cfg config.NotifyConfig) *TelegramNotifier {
	return &TelegramNotifier{
		apiBase: cfg.APIBase,
		token:   cfg.BotToken,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// sendMessageRequest is the Bot API sendMessage payload.
type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// apiResponse is the Bot API envelope; only the fields we check.
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// NotifyRankChange posts the announcement to the group chat.
func (t *TelegramNotifier) NotifyRankChange(ctx context.Context, n RankNotification) error {
	text := renderRankMessage(n)
	if r := []rune(text); len(r) > maxMessageRunes {
		text = string(r[:maxMessageRunes])
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:                n.GroupTelegramID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("notify: marshal sendMessage: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("notify: decode response: %w", err)
	}
	if !out.OK {
		return fmt.Errorf("notify: telegram api error %d: %s", out.ErrorCode, out.Description)
	}
	return nil
}

// renderRankMessage picks the first-rank or promotion template. Member names
// come from user input, so they are escaped before going into HTML markup.
func renderRankMessage(n RankNotification) string {
	name := html.EscapeString(n.DisplayName)
	newRank := html.EscapeString(n.NewRankName)
	if n.OldRankName == "" {
		return fmt.Sprintf("%s earned their first rank: <b>%s</b> 🎉", name, newRank)
	}
	oldRank := html.EscapeString(n.OldRankName)
	return fmt.Sprintf("%s advanced from <b>%s</b> to <b>%s</b> 🎉", name, oldRank, newRank)
}

var (
	_ Notifier = (*TelegramNotifier)(nil)
	_ Notifier = NopNotifier{}
)
