// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the mutation helpers for Membership
// rows used by the scoring pipeline.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/grouprank/go-rank-backend/internal/domain"
)

// ApplyScore adds points to a membership and bumps its message counters in
// a single UPDATE with SQL-side increments, so concurrent scorers of the
// same row serialize on the row write instead of losing updates. The at
// argument becomes last_activity and should be the processing instant.
// Returns ErrNotFound when no row matches.
func ApplyScore(ctx context.Context, db *gorm.DB, id uint, points int, coefficient float64, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Membership{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"rating":        gorm.Expr("rating + ?", points),
			"message_count": gorm.Expr("message_count + 1"),
			"coefficient":   coefficient,
			"last_activity": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetMembership reloads a membership by primary key, or ErrNotFound.
func GetMembership(ctx context.Context, db *gorm.DB, id uint) (*domain.Membership, error) {
	var m domain.Membership
	if err := db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// SetMembershipRank assigns a rank to a membership.
// Returns ErrNotFound when no row matches.
func SetMembershipRank(ctx context.Context, db *gorm.DB, id uint, rankID uint) error {
	res := db.WithContext(ctx).
		Model(&domain.Membership{}).
		Where("id = ?", id).
		Update("rank_id", rankID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListMemberships returns all membership rows in primary-key order. Used by
// the rank backfill, which recomputes every row against the current ladder.
func ListMemberships(ctx context.Context, db *gorm.DB) ([]domain.Membership, error) {
	var out []domain.Membership
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}
