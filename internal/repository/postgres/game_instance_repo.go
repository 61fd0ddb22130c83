package postgres

import (
	"context"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gameInstanceRepository struct {
	db *gorm.DB
}

func NewGameInstanceRepository(db *gorm.DB) *gameInstanceRepository {
	return &gameInstanceRepository{db: db}
}

// Create inserts the instance together with its players.
func (r *gameInstanceRepository) Create(ctx context.Context, game *domain.GameInstance) error {
	return translateError(r.db.WithContext(ctx).Create(game).Error)
}

func (r *gameInstanceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.GameInstance, error) {
	var game domain.GameInstance
	err := r.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("player_id") }).
		First(&game, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameInstanceRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.GameInstance, error) {
	var game domain.GameInstance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&game, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Where("game_instance_id = ?", id).
		Order("player_id").
		Find(&game.Players).Error
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameInstanceRepository) Update(ctx context.Context, game *domain.GameInstance) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(game).Error
}
