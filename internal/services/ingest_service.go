// Package services – IngestService
//
// This file implements the ingestion coordinator, the single write path of
// the engagement pipeline. One call resolves identities, fences duplicates,
// advances the streak, applies points, and resolves the rank, all inside one
// database transaction. Re-delivered events converge on the duplicate path
// and leave scoring state untouched.
//
// Observability: Ingest is OpenTelemetry-instrumented; spans carry the
// external user/group identifiers and the duplicate flag.
package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/grouprank/go-rank-backend/internal/domain"
	"github.com/grouprank/go-rank-backend/internal/repo"
)

// StatsInvalidator drops cached statistics for a group after its state
// changed. Implementations must be safe for concurrent use.
type StatsInvalidator interface {
	InvalidateGroup(ctx context.Context, groupTelegramID int64) error
}

// IngestEvent is one observed message, already validated at the transport
// layer. External identifiers come from the source platform; Timestamp is
// the instant the message was sent.
type IngestEvent struct {
	MessageID         int64
	Timestamp         time.Time
	UserID            int64
	FirstName         string
	LastName          string
	Username          string
	GroupID           int64
	GroupTitle        string
	MessageType       string
	Text              string
	RelatedMessageID  *int64
}

// IngestResult describes what one event did to the membership.
type IngestResult struct {
	Duplicate       bool
	Points          int
	Rating          int
	MessageCount    int
	ConsecutiveDays int
	Coefficient     float64

	// RankChanged is true only when scoring moved the membership to a new
	// rank. The duplicate-path backfill assigns silently.
	RankChanged bool
	OldRank     *domain.Rank
	NewRank     *domain.Rank

	User  *domain.User
	Group *domain.Group
}

// IngestService coordinates the scoring pipeline.
type IngestService struct {
	DB                *gorm.DB
	Streaks           *StreakTracker
	DefaultBasePoints int

	// Cache is optional; nil disables stats invalidation.
	Cache StatsInvalidator
}

// Ingest processes one event. The returned result is valid whenever err is
// nil, including the duplicate case. Callers decide about notifications
// based on RankChanged; this method never performs outbound I/O itself.
func (s *IngestService) Ingest(ctx context.Context, ev IngestEvent) (*IngestResult, error) {
	tr := otel.Tracer("services/IngestService")
	ctx, span := tr.Start(ctx, "Ingest",
		trace.WithAttributes(
			attribute.Int64("event.message_id", ev.MessageID),
			attribute.Int64("event.user_id", ev.UserID),
			attribute.Int64("event.group_id", ev.GroupID),
			attribute.String("event.type", ev.MessageType),
		),
	)
	defer span.End()

	if ev.MessageID == 0 || ev.UserID == 0 || ev.GroupID == 0 || ev.Timestamp.IsZero() {
		return nil, ErrInvalidEvent
	}
	if !domain.ValidMessageType(ev.MessageType) {
		return nil, ErrUnknownMessageType
	}

	res := &IngestResult{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) Identities. Get-or-create keeps identity fields fresh.
		user, err := repo.GetOrCreateUser(ctx, tx, ev.UserID, ev.FirstName, ev.LastName, ev.Username)
		if err != nil {
			return err
		}
		group, err := repo.GetOrCreateGroup(ctx, tx, ev.GroupID, ev.GroupTitle)
		if err != nil {
			return err
		}
		m, err := repo.GetOrCreateMembership(ctx, tx, user.ID, group.ID)
		if err != nil {
			return err
		}
		res.User, res.Group = user, group

		// Reference tables are read once per transaction so every decision
		// in this event sees the same ladder and point table.
		ladder, err := repo.ListRanksAscending(ctx, tx)
		if err != nil {
			return err
		}
		points, err := repo.LoadPointTable(ctx, tx)
		if err != nil {
			return err
		}

		// 2) Idempotency fence.
		rec := &domain.MessageRecord{
			TelegramID:        ev.MessageID,
			GroupID:           group.ID,
			UserID:            user.ID,
			Date:              ev.Timestamp,
			MessageType:       ev.MessageType,
			Text:              ev.Text,
			RelatedTelegramID: ev.RelatedMessageID,
		}
		if err := repo.CreateMessageRecord(ctx, tx, rec); err != nil {
			if !errors.Is(err, repo.ErrDuplicate) {
				return err
			}
			return s.onDuplicate(ctx, tx, ev, m, ladder, res)
		}

		// 3) Streak, then points: the coefficient the event earns applies
		// to the event itself.
		streak, err := s.Streaks.Update(ctx, tx, user.ID, group.ID, ev.Timestamp)
		if err != nil {
			return err
		}

		base := BasePoints(points, ev.MessageType, s.DefaultBasePoints)
		pts := AppliedPoints(base, streak.Coefficient)
		// last_activity records when the event was scored, not when it was
		// sent, so a late re-delivery never backdates member activity.
		if err := repo.ApplyScore(ctx, tx, m.ID, pts, streak.Coefficient, time.Now().UTC()); err != nil {
			return err
		}
		m, err = repo.GetMembership(ctx, tx, m.ID)
		if err != nil {
			return err
		}

		// 4) Rank resolution on the post-update rating.
		oldRank := rankByID(ladder, m.RankID)
		newRank := ResolveRank(m.Rating, ladder)
		if newRank != nil && (m.RankID == nil || *m.RankID != newRank.ID) {
			if err := repo.SetMembershipRank(ctx, tx, m.ID, newRank.ID); err != nil {
				return err
			}
			res.RankChanged = true
		}
		res.OldRank, res.NewRank = oldRank, newRank

		res.Points = pts
		res.Rating = m.Rating
		res.MessageCount = m.MessageCount
		res.ConsecutiveDays = streak.ConsecutiveDays
		res.Coefficient = streak.Coefficient
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Bool("event.duplicate", res.Duplicate))
	messagesIngested.WithLabelValues(ev.MessageType, strconv.FormatBool(res.Duplicate)).Inc()
	if res.RankChanged {
		rankChanges.Inc()
	}

	// Cached leaderboards go stale only when scoring state moved.
	if s.Cache != nil && !res.Duplicate {
		if cerr := s.Cache.InvalidateGroup(ctx, ev.GroupID); cerr != nil {
			log.Warn().Err(cerr).Int64("group_id", ev.GroupID).Msg("stats cache invalidation failed")
		}
	}
	return res, nil
}

// onDuplicate handles a re-delivered event: content fields refresh, scoring
// state stays untouched, and a missing rank is backfilled without raising
// the rank-changed flag.
func (s *IngestService) onDuplicate(ctx context.Context, tx *gorm.DB, ev IngestEvent, m *domain.Membership, ladder []domain.Rank, res *IngestResult) error {
	res.Duplicate = true

	existing, err := repo.GetMessageRecord(ctx, tx, ev.MessageID, m.GroupID)
	if err != nil {
		return err
	}
	if existing.MessageType != ev.MessageType || existing.Text != ev.Text {
		if err := repo.UpdateMessageRecordContent(ctx, tx, existing.ID, ev.MessageType, ev.Text); err != nil {
			return err
		}
	}

	if m.RankID == nil {
		if r := ResolveRank(m.Rating, ladder); r != nil {
			if err := repo.SetMembershipRank(ctx, tx, m.ID, r.ID); err != nil {
				return err
			}
			res.NewRank = r
		}
	} else {
		res.NewRank = rankByID(ladder, m.RankID)
	}

	res.Points = 0
	res.Rating = m.Rating
	res.MessageCount = m.MessageCount
	res.Coefficient = m.Coefficient
	if c, err := repo.GetCheckin(ctx, tx, m.UserID, m.GroupID); err == nil {
		res.ConsecutiveDays = c.ConsecutiveDays
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	return nil
}

// rankByID finds a ladder row by primary key.
func rankByID(ladder []domain.Rank, id *uint) *domain.Rank {
	if id == nil {
		return nil
	}
	for i := range ladder {
		if ladder[i].ID == *id {
			return &ladder[i]
		}
	}
	return nil
}
