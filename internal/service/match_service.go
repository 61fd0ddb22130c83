package service

import (
	"context"
	"errors"
	"time"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/events"
	"github.com/dom/pixelcart/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MatchService struct {
	repos *repository.Repositories
	pub   publisher
}

func NewMatchService(repos *repository.Repositories, bus events.Publisher, logger *logrus.Logger) *MatchService {
	return &MatchService{
		repos: repos,
		pub:   publisher{bus: bus, logger: logger},
	}
}

func (s *MatchService) GetGameInstance(ctx context.Context, gameID uuid.UUID) (*domain.GameInstance, error) {
	game, err := s.repos.GameInstance.GetByID(ctx, gameID)
	if err != nil {
		return nil, notFound(err, domain.ErrGameNotFound)
	}
	return game, nil
}

func lockGame(ctx context.Context, r *repository.Repositories, gameID uuid.UUID) (*domain.GameInstance, error) {
	game, err := r.GameInstance.GetByIDForUpdate(ctx, gameID)
	if err != nil {
		return nil, notFound(err, domain.ErrGameNotFound)
	}
	return game, nil
}

// ReportRunning is called by the host once its peers are connected. A game
// that is already running is left unchanged.
func (s *MatchService) ReportRunning(ctx context.Context, gameID, callerID uuid.UUID) (*domain.GameInstance, error) {
	changed := false
	err := s.repos.Tx.WithinTx(ctx, func(r *repository.Repositories) error {
		changed = false
		game, err := lockGame(ctx, r, gameID)
		if err != nil {
			return err
		}
		if !game.IsHost(callerID) {
			return domain.ErrNotGameHost
		}

		switch game.Status {
		case domain.GameStatusRunning:
			return nil
		case domain.GameStatusEnded:
			return domain.ErrInvalidGameState
		}

		game.Status = domain.GameStatusRunning
		if err := r.GameInstance.Update(ctx, game); err != nil {
			return err
		}
		changed = true

		if game.LobbyID == nil {
			return nil
		}
		lobby, err := r.Lobby.GetByIDForUpdate(ctx, *game.LobbyID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if lobby.Status != domain.LobbyStatusStarting {
			return nil
		}
		lobby.Status = domain.LobbyStatusInProgress
		return r.Lobby.Update(ctx, lobby)
	})
	if err != nil {
		return nil, err
	}

	game, err := s.GetGameInstance(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if changed {
		s.notifyGameStatus(ctx, game)
	}
	return game, nil
}

type MatchPlayerInput struct {
	PlayerID  int
	Score     int64
	Placement int
	Stats     datatypes.JSON
}

type SaveMatchResultInput struct {
	CartID     uuid.UUID
	Players    []MatchPlayerInput
	DurationMs int64
}

func validateMatchResult(game *domain.GameInstance, input SaveMatchResultInput) error {
	if len(input.Players) == 0 {
		return domain.InvalidArgument("match result needs at least one player")
	}
	if input.DurationMs < 0 {
		return domain.InvalidArgument("duration cannot be negative")
	}
	if input.CartID != uuid.Nil && input.CartID != game.CartID {
		return domain.InvalidArgument("cartId does not match the game instance")
	}

	seen := make(map[int]bool, len(input.Players))
	for _, p := range input.Players {
		if game.PlayerByID(p.PlayerID) == nil {
			return domain.InvalidArgument("playerId is not part of this game")
		}
		if seen[p.PlayerID] {
			return domain.InvalidArgument("playerId appears more than once")
		}
		seen[p.PlayerID] = true
		if p.Placement < 1 {
			return domain.InvalidArgument("placement must be 1 or greater")
		}
	}
	return nil
}

// SaveMatchResult records the outcome of a game and closes it. The call is
// idempotent per game instance: once a result exists it is returned as-is.
func (s *MatchService) SaveMatchResult(ctx context.Context, callerID, gameID uuid.UUID, input SaveMatchResultInput) (*domain.MatchResult, error) {
	var created bool
	var lobbyID *uuid.UUID
	err := s.repos.Tx.WithinTx(ctx, func(r *repository.Repositories) error {
		created = false
		game, err := lockGame(ctx, r, gameID)
		if err != nil {
			return err
		}
		if !game.IsHost(callerID) {
			return domain.ErrNotGameHost
		}

		_, err = r.MatchResult.GetByGameInstanceID(ctx, gameID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := validateMatchResult(game, input); err != nil {
			return err
		}

		now := time.Now()
		result := &domain.MatchResult{
			ID:             uuid.New(),
			GameInstanceID: game.ID,
			CartID:         game.CartID,
			DurationMs:     input.DurationMs,
			CreatedAt:      now,
		}
		for _, p := range input.Players {
			result.Players = append(result.Players, domain.MatchResultPlayer{
				ID:            uuid.New(),
				MatchResultID: result.ID,
				UserID:        game.PlayerByID(p.PlayerID).UserID,
				PlayerID:      p.PlayerID,
				Score:         p.Score,
				Placement:     p.Placement,
				Stats:         p.Stats,
			})
		}
		if err := r.MatchResult.Create(ctx, result); err != nil {
			return err
		}

		game.Status = domain.GameStatusEnded
		game.EndedAt = &now
		if err := r.GameInstance.Update(ctx, game); err != nil {
			return err
		}

		if game.LobbyID != nil {
			lobby, err := r.Lobby.GetByIDForUpdate(ctx, *game.LobbyID)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				// lobby was deleted after the game started
			case err != nil:
				return err
			default:
				lobby.Status = domain.LobbyStatusCompleted
				if err := r.Lobby.Update(ctx, lobby); err != nil {
					return err
				}
				lobbyID = &lobby.ID
			}
		}

		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := s.GetMatchResult(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if created {
		s.pub.countStat(ctx, "matches_played", s.repos.Stats.IncrementMatchesPlayed)
		if game, err := s.repos.GameInstance.GetByID(ctx, gameID); err == nil {
			s.notifyGameStatus(ctx, game)
		}
		if lobbyID != nil {
			if lobby, err := s.repos.Lobby.GetByID(ctx, *lobbyID); err == nil {
				s.pub.publish(ctx, events.LobbyTopic(lobby.ID), events.TypeLobbyUpdated, lobby)
			}
		}
	}
	return result, nil
}

func (s *MatchService) GetMatchResult(ctx context.Context, gameID uuid.UUID) (*domain.MatchResult, error) {
	result, err := s.repos.MatchResult.GetByGameInstanceID(ctx, gameID)
	if err != nil {
		return nil, notFound(err, domain.ErrMatchResultMissing)
	}
	return result, nil
}

func (s *MatchService) notifyGameStatus(ctx context.Context, game *domain.GameInstance) {
	payload := map[string]interface{}{"gameInstanceId": game.ID, "status": game.Status}
	s.pub.publish(ctx, events.GameTopic(game.ID), events.TypeGameStatusChanged, payload)
	if game.LobbyID != nil {
		s.pub.publish(ctx, events.LobbyTopic(*game.LobbyID), events.TypeGameStatusChanged, payload)
	}
}
