package postgres

import (
	"context"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type lobbyPlayerRepository struct {
	db *gorm.DB
}

func NewLobbyPlayerRepository(db *gorm.DB) *lobbyPlayerRepository {
	return &lobbyPlayerRepository{db: db}
}

func (r *lobbyPlayerRepository) Create(ctx context.Context, player *domain.LobbyPlayer) error {
	return translateError(r.db.WithContext(ctx).Create(player).Error)
}

func (r *lobbyPlayerRepository) Update(ctx context.Context, player *domain.LobbyPlayer) error {
	return r.db.WithContext(ctx).Save(player).Error
}

func (r *lobbyPlayerRepository) Delete(ctx context.Context, lobbyID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("lobby_id = ? AND user_id = ?", lobbyID, userID).
		Delete(&domain.LobbyPlayer{}).Error
}
