// Package services – StreakTracker
//
// This file implements the daily streak state machine. All day arithmetic
// happens in one configured reference timezone so that every member of every
// group shares the same day boundary. The tracker only ever runs inside the
// ingestion transaction; it never opens its own.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/grouprank/go-rank-backend/internal/domain"
	"github.com/grouprank/go-rank-backend/internal/repo"
)

// StreakTracker advances or resets the per-membership daily streak.
type StreakTracker struct {
	// Loc is the reference timezone for day boundaries.
	Loc *time.Location

	// StrictSkew rejects events whose day predates the stored checkin.
	// When false (default), such events are logged and ignored.
	StrictSkew bool
}

// StreakState is the tracker's answer for one event: the streak length after
// the event and the coefficient derived from it.
type StreakState struct {
	ConsecutiveDays int
	Coefficient     float64
	First           bool // true when this event created the checkin row
}

// Update applies one event timestamp to the membership's streak row inside
// the caller's transaction.
//
// Day-diff semantics (computed on calendar days in the reference timezone):
//   - no row yet: create with 0 days; the first message opens no streak.
//   - diff == 0: same day, streak unchanged, last checkin moves to eventTime.
//   - diff == 1: streak extends by one, last checkin moves to eventTime.
//   - diff  > 1: streak resets to 0, last checkin moves to eventTime.
//   - diff  < 0: clock skew; row untouched (or ErrStaleTimestamp in strict mode).
func (st *StreakTracker) Update(ctx context.Context, tx *gorm.DB, userID, groupID uint, eventTime time.Time) (StreakState, error) {
	c, err := repo.GetCheckin(ctx, tx, userID, groupID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return StreakState{}, err
		}
		c = &domain.Checkin{UserID: userID, GroupID: groupID, LastCheckin: eventTime}
		if err := repo.CreateCheckin(ctx, tx, c); err != nil {
			return StreakState{}, err
		}
		return StreakState{ConsecutiveDays: 0, Coefficient: Coefficient(0), First: true}, nil
	}

	diff := daysBetween(c.LastCheckin, eventTime, st.loc())
	switch {
	case diff == 0:
		// Same reference day: the streak holds but the checkin instant
		// still advances with every non-stale event.
		c.LastCheckin = eventTime
		if err := repo.SaveCheckin(ctx, tx, c); err != nil {
			return StreakState{}, err
		}
	case diff == 1:
		c.ConsecutiveDays++
		c.LastCheckin = eventTime
		if err := repo.SaveCheckin(ctx, tx, c); err != nil {
			return StreakState{}, err
		}
	case diff > 1:
		c.ConsecutiveDays = 0
		c.LastCheckin = eventTime
		if err := repo.SaveCheckin(ctx, tx, c); err != nil {
			return StreakState{}, err
		}
	default: // diff < 0
		if st.StrictSkew {
			return StreakState{}, ErrStaleTimestamp
		}
		log.Warn().
			Uint("user_id", userID).
			Uint("group_id", groupID).
			Time("event_time", eventTime).
			Time("last_checkin", c.LastCheckin).
			Msg("event predates last checkin; streak untouched")
	}

	return StreakState{ConsecutiveDays: c.ConsecutiveDays, Coefficient: Coefficient(c.ConsecutiveDays)}, nil
}

func (st *StreakTracker) loc() *time.Location {
	if st.Loc != nil {
		return st.Loc
	}
	return time.UTC
}

// daysBetween returns the number of calendar days from a to b as observed in
// loc. Both instants are collapsed to their civil date before subtracting,
// which keeps the result DST-proof.
func daysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}
