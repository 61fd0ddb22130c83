package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/events"
	"github.com/dom/pixelcart/internal/pagination"
	"github.com/dom/pixelcart/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxLobbyNameLength = 64

type LobbyService struct {
	repos *repository.Repositories
	pub   publisher
}

func NewLobbyService(repos *repository.Repositories, bus events.Publisher, logger *logrus.Logger) *LobbyService {
	return &LobbyService{
		repos: repos,
		pub:   publisher{bus: bus, logger: logger},
	}
}

type CreateLobbyInput struct {
	CartID     uuid.UUID
	Name       string
	MaxPlayers int
}

func (s *LobbyService) CreateLobby(ctx context.Context, hostID uuid.UUID, input CreateLobbyInput) (*domain.Lobby, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > maxLobbyNameLength {
		return nil, domain.InvalidArgument("lobby name must be between 1 and 64 characters")
	}
	if input.MaxPlayers < 0 {
		return nil, domain.InvalidArgument("maxPlayers cannot be negative")
	}

	host, err := s.repos.User.GetByID(ctx, hostID)
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}

	cart, err := s.repos.Cart.GetByID(ctx, input.CartID)
	if err != nil {
		return nil, notFound(err, domain.ErrCartNotFound)
	}
	if !domain.IsCartReadable(cart, hostID) {
		return nil, domain.ErrCartNotReadable
	}

	now := time.Now()
	lobbyID := uuid.New()
	lobby := &domain.Lobby{
		ID:         lobbyID,
		HostID:     hostID,
		CartID:     cart.ID,
		Name:       name,
		MaxPlayers: domain.ClampMaxPlayers(input.MaxPlayers, cart.MaxPlayers),
		Status:     domain.LobbyStatusWaiting,
		CreatedAt:  now,
		Players: []domain.LobbyPlayer{{
			ID:       uuid.New(),
			LobbyID:  lobbyID,
			UserID:   hostID,
			Username: host.Username,
			JoinedAt: now,
		}},
	}

	if err := s.repos.Lobby.Create(ctx, lobby); err != nil {
		return nil, err
	}
	s.pub.countStat(ctx, "lobbies_created", s.repos.Stats.IncrementLobbiesCreated)

	return s.GetLobby(ctx, lobbyID)
}

func (s *LobbyService) GetLobby(ctx context.Context, lobbyID uuid.UUID) (*domain.Lobby, error) {
	lobby, err := s.repos.Lobby.GetByID(ctx, lobbyID)
	if err != nil {
		return nil, notFound(err, domain.ErrLobbyNotFound)
	}
	return lobby, nil
}

func lockLobby(ctx context.Context, r *repository.Repositories, lobbyID uuid.UUID) (*domain.Lobby, error) {
	lobby, err := r.Lobby.GetByIDForUpdate(ctx, lobbyID)
	if err != nil {
		return nil, notFound(err, domain.ErrLobbyNotFound)
	}
	return lobby, nil
}

func (s *LobbyService) JoinLobby(ctx context.Context, lobbyID, userID uuid.UUID) (*domain.Lobby, error) {
	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}

	err = s.repos.Tx.WithinTx(ctx, func(r *repository.Repositories) error {
		lobby, err := lockLobby(ctx, r, lobbyID)
		if err != nil {
			return err
		}
		if err := lobby.CheckJoin(userID); err != nil {
			return err
		}

		joinOrder := 0
		if n := len(lobby.Players); n > 0 {
			joinOrder = lobby.Players[n-1].JoinOrder + 1
		}

		err = r.LobbyPlayer.Create(ctx, &domain.LobbyPlayer{
			ID:        uuid.New(),
			LobbyID:   lobbyID,
			UserID:    userID,
			Username:  user.Username,
			JoinOrder: joinOrder,
			JoinedAt:  time.Now(),
		})
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.ErrAlreadyInLobby
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.afterChange(ctx, lobbyID)
}

// LeaveLobby removes userID. When the host leaves, or the last player
// leaves, the lobby is deleted and nil is returned.
func (s *LobbyService) LeaveLobby(ctx context.Context, lobbyID, userID uuid.UUID) (*domain.Lobby, error) {
	var deleted bool
	err := s.repos.Tx.WithinTx(ctx, func(r *repository.Repositories) error {
		lobby, err := lockLobby(ctx, r, lobbyID)
		if err != nil {
			return err
		}
		deleted, err = lobby.LeaveDeletesLobby(userID)
		if err != nil {
			return err
		}
		if deleted {
			return r.Lobby.Delete(ctx, lobbyID)
		}
		return r.LobbyPlayer.Delete(ctx, lobbyID, userID)
	})
	if err != nil {
		return nil, err
	}

	if deleted {
		s.pub.publish(ctx, events.LobbyTopic(lobbyID), events.TypeLobbyDeleted, map[string]uuid.UUID{"lobbyId": lobbyID})
		return nil, nil
	}
	return s.afterChange(ctx, lobbyID)
}

func (s *LobbyService) SetReady(ctx context.Context, lobbyID, userID uuid.UUID, ready bool) (*domain.Lobby, error) {
	err := s.repos.Tx.WithinTx(ctx, func(r *repository.Repositories) error {
		lobby, err := lockLobby(ctx, r, lobbyID)
		if err != nil {
			return err
		}
		if err := lobby.CheckSetReady(userID); err != nil {
			return err
		}

		player := lobby.Players[lobby.PlayerIndex(userID)]
		if player.IsReady == ready {
			return nil
		}
		player.IsReady = ready
		return r.LobbyPlayer.Update(ctx, &player)
	})
	if err != nil {
		return nil, err
	}

	return s.afterChange(ctx, lobbyID)
}

// StartGame creates the game instance and moves the lobby to starting in
// one transaction.
func (s *LobbyService) StartGame(ctx context.Context, lobbyID, hostID uuid.UUID) (*domain.GameInstance, error) {
	var game *domain.GameInstance
	err := s.repos.Tx.WithinTx(ctx, func(r *repository.Repositories) error {
		lobby, err := lockLobby(ctx, r, lobbyID)
		if err != nil {
			return err
		}
		if err := lobby.CheckStart(hostID); err != nil {
			return err
		}

		now := time.Now()
		gameID := uuid.New()
		game = &domain.GameInstance{
			ID:        gameID,
			LobbyID:   &lobby.ID,
			CartID:    lobby.CartID,
			Status:    domain.GameStatusInitializing,
			CreatedAt: now,
			Players:   domain.AssignGamePlayers(gameID, lobby.Players),
		}
		if err := r.GameInstance.Create(ctx, game); err != nil {
			return err
		}

		lobby.Status = domain.LobbyStatusStarting
		lobby.StartedAt = &now
		return r.Lobby.Update(ctx, lobby)
	})
	if err != nil {
		return nil, err
	}

	s.pub.publish(ctx, events.LobbyTopic(lobbyID), events.TypeGameStarted, map[string]uuid.UUID{
		"lobbyId":        lobbyID,
		"gameInstanceId": game.ID,
	})
	if lobby, err := s.repos.Lobby.GetByID(ctx, lobbyID); err == nil {
		s.pub.publish(ctx, events.LobbyTopic(lobbyID), events.TypeLobbyUpdated, lobby)
	}
	return game, nil
}

type ListLobbiesInput struct {
	CartID    *uuid.UUID
	Status    domain.LobbyStatus
	PageSize  int
	PageToken string
}

type LobbyPage struct {
	Lobbies       []*domain.Lobby
	NextPageToken string
}

// ListLobbies returns lobbies newest first. Status defaults to waiting.
func (s *LobbyService) ListLobbies(ctx context.Context, input ListLobbiesInput) (*LobbyPage, error) {
	status := input.Status
	if status == "" {
		status = domain.LobbyStatusWaiting
	}
	if !status.Valid() {
		return nil, domain.InvalidArgument("unknown lobby status")
	}

	cursor, err := pagination.DecodeToken(input.PageToken)
	if err != nil {
		return nil, domain.InvalidArgument("invalid page token")
	}

	filter := repository.LobbyFilter{
		Status: status,
		CartID: input.CartID,
		Limit:  pagination.ClampPageSize(input.PageSize),
	}
	if cursor != nil {
		filter.After = &repository.LobbyCursor{CreatedAt: cursor.CreatedAt, ID: cursor.ID}
	}

	// One extra row tells us whether another page exists.
	pageSize := filter.Limit
	filter.Limit++
	lobbies, err := s.repos.Lobby.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := &LobbyPage{Lobbies: lobbies}
	if len(lobbies) > pageSize {
		page.Lobbies = lobbies[:pageSize]
		last := page.Lobbies[pageSize-1]
		page.NextPageToken = pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}
	return page, nil
}

// afterChange re-reads the committed lobby and notifies watchers.
func (s *LobbyService) afterChange(ctx context.Context, lobbyID uuid.UUID) (*domain.Lobby, error) {
	lobby, err := s.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	s.pub.publish(ctx, events.LobbyTopic(lobbyID), events.TypeLobbyUpdated, lobby)
	return lobby, nil
}
