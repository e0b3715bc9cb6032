// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Checkin
// model that backs the daily streak tracker.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/grouprank/go-rank-backend/internal/domain"
)

// GetCheckin fetches the streak row for a membership, or ErrNotFound.
func GetCheckin(ctx context.Context, db *gorm.DB, userID, groupID uint) (*domain.Checkin, error) {
	var c domain.Checkin
	err := db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCheckin inserts the first streak row for a membership with zero
// consecutive days. The first message never counts as a streak day.
func CreateCheckin(ctx context.Context, db *gorm.DB, c *domain.Checkin) error {
	c.ConsecutiveDays = 0
	return db.WithContext(ctx).Create(c).Error
}

// SaveCheckin persists the streak counters of an existing row.
func SaveCheckin(ctx context.Context, db *gorm.DB, c *domain.Checkin) error {
	return db.WithContext(ctx).
		Model(&domain.Checkin{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"consecutive_days": c.ConsecutiveDays,
			"last_checkin":     c.LastCheckin,
		}).Error
}
