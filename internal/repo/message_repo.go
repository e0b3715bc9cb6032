// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// MessageRecord model, the durable idempotency fence for ingested events.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/grouprank/go-rank-backend/internal/domain"
)

// ErrDuplicate indicates that a message record already exists for the
// given (telegram_id, group_id) pair.
var ErrDuplicate = errors.New("duplicate")

// CreateMessageRecord inserts a record and returns ErrDuplicate when the
// (telegram_id, group_id) pair already exists. The insert uses
// ON CONFLICT DO NOTHING rather than mapping the unique-violation error:
// a failed statement would abort the surrounding transaction on Postgres,
// and the duplicate branch still has reads and writes to run inside it.
func CreateMessageRecord(ctx context.Context, db *gorm.DB, rec *domain.MessageRecord) error {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "telegram_id"}, {Name: "group_id"}},
			DoNothing: true,
		}).
		Create(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

// GetMessageRecord fetches the record for an external message id within a
// group, or ErrNotFound.
func GetMessageRecord(ctx context.Context, db *gorm.DB, telegramID int64, groupID uint) (*domain.MessageRecord, error) {
	var rec domain.MessageRecord
	err := db.WithContext(ctx).
		Where("telegram_id = ? AND group_id = ?", telegramID, groupID).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateMessageRecordContent refreshes the mutable fields of an existing
// record (message type and text). Returns ErrNotFound when no row matches.
func UpdateMessageRecordContent(ctx context.Context, db *gorm.DB, id uint, messageType, text string) error {
	res := db.WithContext(ctx).
		Model(&domain.MessageRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{"message_type": messageType, "text": text})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountMessageRecords returns the number of recorded events for a group.
func CountMessageRecords(ctx context.Context, db *gorm.DB, groupID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.MessageRecord{}).
		Where("group_id = ?", groupID).
		Count(&total).Error
	return total, err
}
