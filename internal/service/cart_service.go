package service

import (
	"context"
	"strings"
	"time"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

type CartService struct {
	repos *repository.Repositories
}

func NewCartService(repos *repository.Repositories) *CartService {
	return &CartService{repos: repos}
}

type CartInput struct {
	Name       string
	IsPublic   bool
	MaxPlayers int
	Code       string
	Manifest   datatypes.JSON
}

func (in CartInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.InvalidArgument("cart name is required")
	}
	if !domain.ValidCartMaxPlayers(in.MaxPlayers) {
		return domain.ErrInvalidCartPlayers
	}
	return nil
}

func (s *CartService) CreateCart(ctx context.Context, ownerID uuid.UUID, input CartInput) (*domain.Cart, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	cart := &domain.Cart{
		ID:         uuid.New(),
		OwnerID:    &ownerID,
		Name:       strings.TrimSpace(input.Name),
		IsPublic:   input.IsPublic,
		MaxPlayers: input.MaxPlayers,
		Code:       input.Code,
		Manifest:   input.Manifest,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repos.Cart.Create(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) getCart(ctx context.Context, cartID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.repos.Cart.GetByID(ctx, cartID)
	if err != nil {
		return nil, notFound(err, domain.ErrCartNotFound)
	}
	return cart, nil
}

func (s *CartService) GetCart(ctx context.Context, callerID, cartID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.getCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !domain.IsCartReadable(cart, callerID) {
		return nil, domain.ErrCartNotReadable
	}
	return cart, nil
}

func (s *CartService) UpdateCart(ctx context.Context, callerID, cartID uuid.UUID, input CartInput) (*domain.Cart, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	cart, err := s.getCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !domain.CanMutateCart(cart, callerID) {
		return nil, domain.ErrCartNotMutable
	}

	cart.Name = strings.TrimSpace(input.Name)
	cart.IsPublic = input.IsPublic
	cart.MaxPlayers = input.MaxPlayers
	cart.Code = input.Code
	cart.Manifest = input.Manifest
	cart.UpdatedAt = time.Now()
	if err := s.repos.Cart.Update(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// ForkCart copies a readable cart into a new private cart owned by the caller.
func (s *CartService) ForkCart(ctx context.Context, callerID, cartID uuid.UUID) (*domain.Cart, error) {
	src, err := s.GetCart(ctx, callerID, cartID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	fork := &domain.Cart{
		ID:           uuid.New(),
		OwnerID:      &callerID,
		Name:         src.Name,
		MaxPlayers:   src.MaxPlayers,
		Code:         src.Code,
		Manifest:     src.Manifest,
		ForkedFromID: &src.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repos.Cart.Create(ctx, fork); err != nil {
		return nil, err
	}
	return fork, nil
}

func (s *CartService) Leaderboard(ctx context.Context, callerID, cartID uuid.UUID, limit int) ([]domain.LeaderboardEntry, error) {
	if _, err := s.GetCart(ctx, callerID, cartID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}
	return s.repos.MatchResult.Leaderboard(ctx, cartID, limit)
}
