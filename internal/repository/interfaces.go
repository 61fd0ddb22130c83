package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/google/uuid"
)

// ErrDuplicate is returned when an insert collides with a unique index.
var ErrDuplicate = errors.New("duplicate record")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.UserSession) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type CartRepository interface {
	Create(ctx context.Context, cart *domain.Cart) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error)
	Update(ctx context.Context, cart *domain.Cart) error
}

// LobbyCursor is the keyset position of the last lobby on a page.
type LobbyCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

type LobbyFilter struct {
	Status domain.LobbyStatus
	CartID *uuid.UUID
	After  *LobbyCursor
	Limit  int
}

type LobbyRepository interface {
	Create(ctx context.Context, lobby *domain.Lobby) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lobby, error)
	// GetByIDForUpdate locks the lobby row until the surrounding
	// transaction ends, then loads its players.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Lobby, error)
	Update(ctx context.Context, lobby *domain.Lobby) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter LobbyFilter) ([]*domain.Lobby, error)
}

type LobbyPlayerRepository interface {
	Create(ctx context.Context, player *domain.LobbyPlayer) error
	Update(ctx context.Context, player *domain.LobbyPlayer) error
	Delete(ctx context.Context, lobbyID, userID uuid.UUID) error
}

type GameInstanceRepository interface {
	Create(ctx context.Context, game *domain.GameInstance) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GameInstance, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.GameInstance, error)
	Update(ctx context.Context, game *domain.GameInstance) error
}

type SignalRepository interface {
	Create(ctx context.Context, msg *domain.SignalingMessage) error
	// ClaimPending atomically marks every unprocessed message for the
	// receiver as processed and returns them in creation order.
	ClaimPending(ctx context.Context, gameInstanceID uuid.UUID, toPlayerID int) ([]*domain.SignalingMessage, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type MatchResultRepository interface {
	Create(ctx context.Context, result *domain.MatchResult) error
	GetByGameInstanceID(ctx context.Context, gameInstanceID uuid.UUID) (*domain.MatchResult, error)
	Leaderboard(ctx context.Context, cartID uuid.UUID, limit int) ([]domain.LeaderboardEntry, error)
}

type StatsRepository interface {
	Ensure(ctx context.Context) error
	Get(ctx context.Context) (*domain.CommunityStats, error)
	IncrementLobbiesCreated(ctx context.Context) error
	IncrementMatchesPlayed(ctx context.Context) error
}

// Transactor runs fn against repositories bound to a single transaction.
// Returning an error from fn rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repos *Repositories) error) error
}

type Repositories struct {
	User         UserRepository
	Session      SessionRepository
	Cart         CartRepository
	Lobby        LobbyRepository
	LobbyPlayer  LobbyPlayerRepository
	GameInstance GameInstanceRepository
	Signal       SignalRepository
	MatchResult  MatchResultRepository
	Stats        StatsRepository
	Tx           Transactor
}
