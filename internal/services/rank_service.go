// Package services – RankService
//
// This file exposes the scoring reference tables (the rank ladder and the
// message-type point table) and the administrative rank backfill that
// recomputes every membership against the current ladder.
package services

import (
	"context"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/grouprank/go-rank-backend/internal/domain"
	"github.com/grouprank/go-rank-backend/internal/repo"
)

// RankService serves the scoring reference tables.
type RankService struct {
	DB *gorm.DB
}

// Ranks returns the rank ladder ordered by required rating ascending.
func (s *RankService) Ranks(ctx context.Context) ([]domain.Rank, error) {
	return repo.ListRanksAscending(ctx, s.DB)
}

// Points returns the message-type point table ordered by message type.
func (s *RankService) Points(ctx context.Context) ([]domain.MessageTypePoints, error) {
	return repo.ListMessageTypePoints(ctx, s.DB)
}

// RestoreRanks recomputes the rank of every membership from its current
// rating and the current ladder, in one transaction. It returns the number
// of rows whose rank actually changed. Intended for use after the ladder is
// edited or after imports that bypassed the scoring pipeline.
func (s *RankService) RestoreRanks(ctx context.Context) (int, error) {
	tr := otel.Tracer("services/RankService")
	ctx, span := tr.Start(ctx, "RestoreRanks")
	defer span.End()

	updated := 0
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ladder, err := repo.ListRanksAscending(ctx, tx)
		if err != nil {
			return err
		}
		memberships, err := repo.ListMemberships(ctx, tx)
		if err != nil {
			return err
		}
		for i := range memberships {
			m := &memberships[i]
			r := ResolveRank(m.Rating, ladder)
			if r == nil {
				continue
			}
			if m.RankID != nil && *m.RankID == r.ID {
				continue
			}
			if err := repo.SetMembershipRank(ctx, tx, m.ID, r.ID); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.Int("ranks.updated", updated))
	return updated, nil
}
