// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides get-or-create repository functions for
// users, groups, and memberships.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a record is not found, lookup functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/grouprank/go-rank-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetOrCreateUser fetches the user with the given external id, creating it
// if missing. Non-empty identity fields that differ from the stored values
// overwrite them (last write wins); empty fields are treated as absent.
func GetOrCreateUser(ctx context.Context, db *gorm.DB, telegramID int64, firstName, lastName, username string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&u).Error
	switch {
	case err == nil:
		updates := map[string]any{}
		if firstName != "" && firstName != u.FirstName {
			updates["first_name"] = firstName
			u.FirstName = firstName
		}
		if lastName != "" && lastName != u.LastName {
			updates["last_name"] = lastName
			u.LastName = lastName
		}
		if username != "" && username != u.Username {
			updates["username"] = username
			u.Username = username
		}
		if len(updates) > 0 {
			if err := db.WithContext(ctx).Model(&u).Updates(updates).Error; err != nil {
				return nil, err
			}
		}
		return &u, nil
	case err == gorm.ErrRecordNotFound:
		u = domain.User{
			TelegramID: telegramID,
			FirstName:  firstName,
			LastName:   lastName,
			Username:   username,
			IsActive:   true,
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			return nil, err
		}
		return &u, nil
	default:
		return nil, err
	}
}

// GetOrCreateGroup fetches the group with the given external id, creating it
// if missing. A non-empty title that differs from the stored one overwrites
// it; creation without a title falls back to "Group <id>".
func GetOrCreateGroup(ctx context.Context, db *gorm.DB, telegramID int64, title string) (*domain.Group, error) {
	var g domain.Group
	err := db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&g).Error
	switch {
	case err == nil:
		if title != "" && title != g.Title {
			if err := db.WithContext(ctx).Model(&g).Update("title", title).Error; err != nil {
				return nil, err
			}
			g.Title = title
		}
		return &g, nil
	case err == gorm.ErrRecordNotFound:
		if title == "" {
			title = fmt.Sprintf("Group %d", telegramID)
		}
		g = domain.Group{TelegramID: telegramID, Title: title, IsActive: true}
		if err := db.WithContext(ctx).Create(&g).Error; err != nil {
			return nil, err
		}
		return &g, nil
	default:
		return nil, err
	}
}

// GetOrCreateMembership fetches the (userID, groupID) membership, creating
// it with zero rating and the base coefficient if missing.
func GetOrCreateMembership(ctx context.Context, db *gorm.DB, userID, groupID uint) (*domain.Membership, error) {
	var m domain.Membership
	err := db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		First(&m).Error
	switch {
	case err == nil:
		return &m, nil
	case err == gorm.ErrRecordNotFound:
		now := time.Now().UTC()
		m = domain.Membership{
			UserID:       userID,
			GroupID:      groupID,
			Rating:       0,
			MessageCount: 0,
			Coefficient:  0.5,
			IsActive:     true,
			JoinedAt:     now,
			LastActivity: now,
		}
		if err := db.WithContext(ctx).Create(&m).Error; err != nil {
			return nil, err
		}
		return &m, nil
	default:
		return nil, err
	}
}

// GetGroupByTelegramID returns the group with the given external id,
// or ErrNotFound if it does not exist.
func GetGroupByTelegramID(ctx context.Context, db *gorm.DB, telegramID int64) (*domain.Group, error) {
	var g domain.Group
	err := db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}
