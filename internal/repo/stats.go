// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the statistics query behind the group
// leaderboard: member rows joined with identity, rank, and streak data,
// ordered by rating descending.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// MemberStatsRow is one row of the group leaderboard query.
type MemberStatsRow struct {
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Username        string    `json:"username"`
	RankName        *string   `json:"rank_name"`
	Rating          int       `json:"rating"`
	MessageCount    int       `json:"message_count"`
	ConsecutiveDays int       `json:"consecutive_days"`
	LastActivity    time.Time `json:"last_activity"`
}

// GroupMemberStats returns a page of active members of a group ordered by
// rating descending. Rank and checkin data are left-joined so members
// without a rank or streak row still appear.
func GroupMemberStats(ctx context.Context, db *gorm.DB, groupID uint, offset, limit int) ([]MemberStatsRow, error) {
	var out []MemberStatsRow
	err := db.WithContext(ctx).
		Table("memberships").
		Select(`users.first_name, users.last_name, users.username,
			ranks.name AS rank_name,
			memberships.rating, memberships.message_count, memberships.last_activity,
			COALESCE(checkins.consecutive_days, 0) AS consecutive_days`).
		Joins("JOIN users ON users.id = memberships.user_id").
		Joins("LEFT JOIN ranks ON ranks.id = memberships.rank_id").
		Joins("LEFT JOIN checkins ON checkins.user_id = memberships.user_id AND checkins.group_id = memberships.group_id").
		Where("memberships.group_id = ? AND memberships.is_active = ?", groupID, true).
		Order("memberships.rating DESC, memberships.id ASC").
		Offset(offset).
		Limit(limit).
		Scan(&out).Error
	return out, err
}

// CountGroupMembers returns the number of active members in a group.
func CountGroupMembers(ctx context.Context, db *gorm.DB, groupID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Table("memberships").
		Where("group_id = ? AND is_active = ?", groupID, true).
		Count(&total).Error
	return total, err
}
