package postgres

import (
	"context"
	"time"

	"github.com/dom/pixelcart/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type statsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *statsRepository {
	return &statsRepository{db: db}
}

// Ensure creates the singleton row if it does not exist yet.
func (r *statsRepository) Ensure(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.CommunityStats{ID: domain.CommunityStatsID, UpdatedAt: time.Now()}).Error
}

func (r *statsRepository) Get(ctx context.Context) (*domain.CommunityStats, error) {
	var stats domain.CommunityStats
	err := r.db.WithContext(ctx).First(&stats, "id = ?", domain.CommunityStatsID).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *statsRepository) IncrementLobbiesCreated(ctx context.Context) error {
	return r.increment(ctx, "lobbies_created")
}

func (r *statsRepository) IncrementMatchesPlayed(ctx context.Context) error {
	return r.increment(ctx, "matches_played")
}

// increment upserts so a missing singleton row is created on first use.
func (r *statsRepository) increment(ctx context.Context, column string) error {
	now := time.Now()
	row := &domain.CommunityStats{ID: domain.CommunityStatsID, UpdatedAt: now}
	switch column {
	case "lobbies_created":
		row.LobbiesCreated = 1
	case "matches_played":
		row.MatchesPlayed = 1
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				column:       gorm.Expr("community_stats." + column + " + 1"),
				"updated_at": now,
			}),
		}).
		Create(row).Error
}
