package postgres

import (
	"context"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type matchResultRepository struct {
	db *gorm.DB
}

func NewMatchResultRepository(db *gorm.DB) *matchResultRepository {
	return &matchResultRepository{db: db}
}

func (r *matchResultRepository) Create(ctx context.Context, result *domain.MatchResult) error {
	return translateError(r.db.WithContext(ctx).Create(result).Error)
}

func (r *matchResultRepository) GetByGameInstanceID(ctx context.Context, gameInstanceID uuid.UUID) (*domain.MatchResult, error) {
	var result domain.MatchResult
	err := r.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("placement, player_id") }).
		First(&result, "game_instance_id = ?", gameInstanceID).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Leaderboard ranks individual results for a cart by score, earliest
// result first on ties.
func (r *matchResultRepository) Leaderboard(ctx context.Context, cartID uuid.UUID, limit int) ([]domain.LeaderboardEntry, error) {
	var entries []domain.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Table("match_result_players AS mrp").
		Select("mrp.user_id, u.username, mrp.score, mrp.placement, mr.id AS match_result_id, mr.created_at").
		Joins("JOIN match_results mr ON mr.id = mrp.match_result_id").
		Joins("JOIN users u ON u.id = mrp.user_id").
		Where("mr.cart_id = ?", cartID).
		Order("mrp.score DESC, mr.created_at ASC, mrp.player_id ASC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
