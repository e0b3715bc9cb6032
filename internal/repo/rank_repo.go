// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the scoring
// reference tables (ranks and message type points) and their seed data.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/grouprank/go-rank-backend/internal/domain"
)

// ListRanksAscending returns the full rank ladder ordered by required
// rating ascending (ties broken by sort order). Rank resolution scans this
// slice front to back and keeps the last qualifying row.
func ListRanksAscending(ctx context.Context, db *gorm.DB) ([]domain.Rank, error) {
	var out []domain.Rank
	err := db.WithContext(ctx).
		Order("required_rating asc, sort_order asc").
		Find(&out).Error
	return out, err
}

// ListMessageTypePoints returns the point table ordered by message type.
func ListMessageTypePoints(ctx context.Context, db *gorm.DB) ([]domain.MessageTypePoints, error) {
	var out []domain.MessageTypePoints
	err := db.WithContext(ctx).
		Order("message_type asc").
		Find(&out).Error
	return out, err
}

// LoadPointTable returns the message-type point table as a lookup map.
func LoadPointTable(ctx context.Context, db *gorm.DB) (map[string]int, error) {
	rows, err := ListMessageTypePoints(ctx, db)
	if err != nil {
		return nil, err
	}
	table := make(map[string]int, len(rows))
	for _, r := range rows {
		table[r.MessageType] = r.Points
	}
	return table, nil
}

// defaultPointRows is the seed point table for known message types.
var defaultPointRows = []domain.MessageTypePoints{
	{MessageType: domain.MessageTypeText, Points: 2, Description: "Text message"},
	{MessageType: domain.MessageTypeVoice, Points: 1, Description: "Voice message"},
	{MessageType: domain.MessageTypePhoto, Points: 3, Description: "Photo"},
	{MessageType: domain.MessageTypeVideo, Points: 3, Description: "Video"},
	{MessageType: domain.MessageTypeSticker, Points: 1, Description: "Sticker"},
	{MessageType: domain.MessageTypeDocument, Points: 1, Description: "Document"},
	{MessageType: domain.MessageTypeAudio, Points: 2, Description: "Audio"},
	{MessageType: domain.MessageTypeVideoNote, Points: 3, Description: "Video note"},
	{MessageType: domain.MessageTypeForward, Points: 1, Description: "Forwarded message"},
	{MessageType: domain.MessageTypeOther, Points: 1, Description: "Anything else"},
}

// defaultRankRows is the starter rank ladder.
var defaultRankRows = []domain.Rank{
	{SortOrder: 1, Name: "Newcomer", RequiredRating: 0},
	{SortOrder: 2, Name: "Passerby", RequiredRating: 50},
	{SortOrder: 3, Name: "Lurker", RequiredRating: 150},
	{SortOrder: 4, Name: "Regular", RequiredRating: 400},
	{SortOrder: 5, Name: "Chatterbox", RequiredRating: 800},
	{SortOrder: 6, Name: "Local", RequiredRating: 1500},
	{SortOrder: 7, Name: "Insider", RequiredRating: 2500},
	{SortOrder: 8, Name: "Veteran", RequiredRating: 4000},
	{SortOrder: 9, Name: "Elder", RequiredRating: 6500},
	{SortOrder: 10, Name: "Sage", RequiredRating: 10000},
	{SortOrder: 11, Name: "Luminary", RequiredRating: 15000},
	{SortOrder: 12, Name: "Icon", RequiredRating: 22000},
	{SortOrder: 13, Name: "Living Legend", RequiredRating: 32000},
	{SortOrder: 14, Name: "Myth", RequiredRating: 45000},
	{SortOrder: 15, Name: "Chat Deity", RequiredRating: 60000},
}

// SeedDefaults populates the reference tables when they are empty. Existing
// rows are never touched, so the call is safe to repeat at every startup.
func SeedDefaults(ctx context.Context, db *gorm.DB) error {
	var cnt int64
	if err := db.WithContext(ctx).Model(&domain.MessageTypePoints{}).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt == 0 {
		rows := make([]domain.MessageTypePoints, len(defaultPointRows))
		copy(rows, defaultPointRows)
		if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
			return err
		}
	}

	if err := db.WithContext(ctx).Model(&domain.Rank{}).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt == 0 {
		rows := make([]domain.Rank, len(defaultRankRows))
		copy(rows, defaultRankRows)
		if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}
