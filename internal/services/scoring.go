// Package services – scoring primitives
//
// This file holds the pure scoring math: the streak coefficient table, base
// point lookup, floor truncation of applied points, and rank resolution over
// the ascending ladder. Everything here is side-effect free so the rules can
// be tested without a database.
package services

import (
	"math"

	"github.com/grouprank/go-rank-backend/internal/domain"
)

// Coefficient maps a consecutive-day streak to the point multiplier.
//
//	0 days  -> 0.5 (no streak yet; also the defensive value for negatives)
//	1 day   -> 1.0
//	n > 1   -> 1.0 + (n-1) * 0.1
func Coefficient(consecutiveDays int) float64 {
	switch {
	case consecutiveDays <= 0:
		return 0.5
	case consecutiveDays == 1:
		return 1.0
	default:
		return 1.0 + float64(consecutiveDays-1)*0.1
	}
}

// BasePoints returns the configured base for a message type, falling back to
// def for types without a table row.
func BasePoints(table map[string]int, messageType string, def int) int {
	if pts, ok := table[messageType]; ok {
		return pts
	}
	return def
}

// AppliedPoints truncates base * coefficient toward zero, so fractional
// points are never awarded (5 * 1.1 = 5, not 6).
func AppliedPoints(base int, coefficient float64) int {
	return int(math.Floor(float64(base) * coefficient))
}

// ResolveRank scans the ladder (ordered by required rating ascending) and
// returns the last rank whose threshold does not exceed rating, or nil when
// no rank qualifies. Equal thresholds resolve to the row scanned last.
func ResolveRank(rating int, ladder []domain.Rank) *domain.Rank {
	var best *domain.Rank
	for i := range ladder {
		if ladder[i].RequiredRating <= rating {
			best = &ladder[i]
		} else {
			break
		}
	}
	return best
}
