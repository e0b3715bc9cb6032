// Package services – StatsService
//
// This file implements the group statistics read model: the leaderboard of
// members ordered by rating. Pages can be served from the optional Redis
// snapshot cache; the ingestion pipeline invalidates a group's snapshots
// whenever scoring state moves.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/grouprank/go-rank-backend/internal/repo"
)

// DefaultStatsPageSize bounds a leaderboard page when the caller does not
// specify one.
const DefaultStatsPageSize = 20

// StatsCacheStore is the snapshot cache consumed by StatsService. A nil
// store disables caching entirely.
type StatsCacheStore interface {
	GetPage(ctx context.Context, groupTelegramID int64, page, pageSize int, dest any) error
	SetPage(ctx context.Context, groupTelegramID int64, page, pageSize int, value any) error
}

// MemberStats is one leaderboard row as served to clients.
type MemberStats struct {
	DisplayName     string    `json:"display_name"`
	RankName        string    `json:"rank_name,omitempty"`
	Rating          int       `json:"rating"`
	MessageCount    int       `json:"message_count"`
	ConsecutiveDays int       `json:"consecutive_days"`
	LastActivity    time.Time `json:"last_activity"`
}

// statsPage is the cached unit: one page of rows plus the group total.
type statsPage struct {
	Rows  []MemberStats `json:"rows"`
	Total int64         `json:"total"`
}

// StatsService serves group leaderboards.
type StatsService struct {
	DB    *gorm.DB
	Cache StatsCacheStore
}

// GroupStats returns one page of the leaderboard for the group with the
// given external id, plus the total member count. Unknown groups yield
// ErrGroupNotFound. Cache failures fall through to the database.
func (s *StatsService) GroupStats(ctx context.Context, groupTelegramID int64, page, pageSize int) ([]MemberStats, int64, error) {
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "GroupStats",
		trace.WithAttributes(
			attribute.Int64("group.id", groupTelegramID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultStatsPageSize
	}

	group, err := repo.GetGroupByTelegramID(ctx, s.DB, groupTelegramID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, 0, ErrGroupNotFound
		}
		return nil, 0, err
	}

	if s.Cache != nil {
		var cached statsPage
		if err := s.Cache.GetPage(ctx, groupTelegramID, page, pageSize, &cached); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached.Rows, cached.Total, nil
		}
	}

	offset := (page - 1) * pageSize
	rows, err := repo.GroupMemberStats(ctx, s.DB, group.ID, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	total, err := repo.CountGroupMembers(ctx, s.DB, group.ID)
	if err != nil {
		return nil, 0, err
	}

	out := make([]MemberStats, 0, len(rows))
	for _, r := range rows {
		ms := MemberStats{
			DisplayName:     DisplayName(r.FirstName, r.LastName, r.Username),
			Rating:          r.Rating,
			MessageCount:    r.MessageCount,
			ConsecutiveDays: r.ConsecutiveDays,
			LastActivity:    r.LastActivity,
		}
		if r.RankName != nil {
			ms.RankName = *r.RankName
		}
		out = append(out, ms)
	}

	if s.Cache != nil {
		// Best effort; a failed write only costs the next reader a query.
		_ = s.Cache.SetPage(ctx, groupTelegramID, page, pageSize, statsPage{Rows: out, Total: total})
	}
	return out, total, nil
}

// displayCaser title-cases name parts for members without a username.
var displayCaser = cases.Title(language.English)

// DisplayName renders a member's public name: "@username" when available,
// otherwise the title-cased "First Last" pair, or "Anonymous" when the
// source gave us nothing at all.
func DisplayName(firstName, lastName, username string) string {
	if u := strings.TrimSpace(username); u != "" {
		return "@" + u
	}
	parts := make([]string, 0, 2)
	if f := strings.TrimSpace(firstName); f != "" {
		parts = append(parts, displayCaser.String(f))
	}
	if l := strings.TrimSpace(lastName); l != "" {
		parts = append(parts, displayCaser.String(l))
	}
	if len(parts) == 0 {
		return "Anonymous"
	}
	return strings.Join(parts, " ")
}
