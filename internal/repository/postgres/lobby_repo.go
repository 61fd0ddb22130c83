package postgres

import (
	"context"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type lobbyRepository struct {
	db *gorm.DB
}

func NewLobbyRepository(db *gorm.DB) *lobbyRepository {
	return &lobbyRepository{db: db}
}

func orderedPlayers(db *gorm.DB) *gorm.DB {
	return db.Order("join_order")
}

func (r *lobbyRepository) Create(ctx context.Context, lobby *domain.Lobby) error {
	return translateError(r.db.WithContext(ctx).Create(lobby).Error)
}

func (r *lobbyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lobby, error) {
	var lobby domain.Lobby
	err := r.db.WithContext(ctx).
		Preload("Players", orderedPlayers).
		First(&lobby, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lobby, nil
}

func (r *lobbyRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Lobby, error) {
	var lobby domain.Lobby
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&lobby, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Where("lobby_id = ?", id).
		Order("join_order").
		Find(&lobby.Players).Error
	if err != nil {
		return nil, err
	}
	return &lobby, nil
}

func (r *lobbyRepository) Update(ctx context.Context, lobby *domain.Lobby) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(lobby).Error
}

func (r *lobbyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&domain.LobbyPlayer{}, "lobby_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&domain.Lobby{}, "id = ?", id).Error
}

// List returns lobbies newest first, resuming strictly after filter.After.
func (r *lobbyRepository) List(ctx context.Context, filter repository.LobbyFilter) ([]*domain.Lobby, error) {
	q := r.db.WithContext(ctx).
		Preload("Players", orderedPlayers).
		Where("status = ?", filter.Status)
	if filter.CartID != nil {
		q = q.Where("cart_id = ?", *filter.CartID)
	}
	if filter.After != nil {
		q = q.Where("(created_at, id) < (?, ?)", filter.After.CreatedAt, filter.After.ID)
	}

	var lobbies []*domain.Lobby
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Find(&lobbies).Error
	if err != nil {
		return nil, err
	}
	return lobbies, nil
}
