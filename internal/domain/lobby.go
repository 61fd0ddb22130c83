package domain

import (
	"time"

	"github.com/google/uuid"
)

// LobbyStatus represents the current state of a lobby
type LobbyStatus string

const (
	LobbyStatusWaiting    LobbyStatus = "waiting"
	LobbyStatusStarting   LobbyStatus = "starting"
	LobbyStatusInProgress LobbyStatus = "in_progress"
	LobbyStatusCompleted  LobbyStatus = "completed"
)

// Valid reports whether s is a known lobby status.
func (s LobbyStatus) Valid() bool {
	switch s {
	case LobbyStatusWaiting, LobbyStatusStarting, LobbyStatusInProgress, LobbyStatusCompleted:
		return true
	}
	return false
}

// Lobby is a waiting room for one game session
type Lobby struct {
	ID         uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	HostID     uuid.UUID   `json:"hostId" gorm:"type:uuid;not null;index"`
	CartID     uuid.UUID   `json:"cartId" gorm:"type:uuid;not null;index"`
	Name       string      `json:"name" gorm:"not null"`
	MaxPlayers int         `json:"maxPlayers" gorm:"not null"`
	Status     LobbyStatus `json:"status" gorm:"type:varchar(20);not null;default:'waiting';index"`
	CreatedAt  time.Time   `json:"createdAt" gorm:"index"`
	StartedAt  *time.Time  `json:"startedAt"`

	// Relations
	Players []LobbyPlayer `json:"players" gorm:"foreignKey:LobbyID"`
}

// TableName returns the table name for GORM
func (Lobby) TableName() string {
	return "lobbies"
}

// IsFull returns true if the lobby has reached maxPlayers
func (l *Lobby) IsFull() bool {
	return len(l.Players) >= l.MaxPlayers
}

// PlayerIndex returns the position of userID in the player list, or -1.
func (l *Lobby) PlayerIndex(userID uuid.UUID) int {
	for i := range l.Players {
		if l.Players[i].UserID == userID {
			return i
		}
	}
	return -1
}

// AllReady returns true if every player has readied up
func (l *Lobby) AllReady() bool {
	if len(l.Players) == 0 {
		return false
	}
	for _, p := range l.Players {
		if !p.IsReady {
			return false
		}
	}
	return true
}

// CheckJoin validates that userID may join the lobby.
func (l *Lobby) CheckJoin(userID uuid.UUID) error {
	if l.Status != LobbyStatusWaiting {
		return ErrInvalidLobbyState
	}
	if l.PlayerIndex(userID) >= 0 {
		return ErrAlreadyInLobby
	}
	if l.IsFull() {
		return ErrLobbyFull
	}
	return nil
}

// CheckSetReady validates a ready toggle for userID.
func (l *Lobby) CheckSetReady(userID uuid.UUID) error {
	if l.PlayerIndex(userID) < 0 {
		return ErrNotInLobby
	}
	if l.Status != LobbyStatusWaiting {
		return ErrInvalidLobbyState
	}
	return nil
}

// CheckStart validates that hostID may start the game now.
func (l *Lobby) CheckStart(hostID uuid.UUID) error {
	if l.HostID != hostID {
		return ErrNotLobbyHost
	}
	if l.Status != LobbyStatusWaiting {
		return ErrInvalidLobbyState
	}
	if !l.AllReady() {
		return ErrPlayersNotReady
	}
	return nil
}

// LeaveDeletesLobby reports whether userID leaving removes the whole lobby:
// the host leaving, or the last player leaving, deletes it. There is no host
// handoff.
func (l *Lobby) LeaveDeletesLobby(userID uuid.UUID) (bool, error) {
	if l.PlayerIndex(userID) < 0 {
		return false, ErrNotInLobby
	}
	return userID == l.HostID || len(l.Players) <= 1, nil
}

// LobbyPlayer is one seat in a lobby, ordered by JoinOrder
type LobbyPlayer struct {
	ID        uuid.UUID `json:"-" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	LobbyID   uuid.UUID `json:"-" gorm:"type:uuid;not null;uniqueIndex:idx_lobby_player"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_lobby_player"`
	Username  string    `json:"username" gorm:"not null"`
	IsReady   bool      `json:"isReady" gorm:"not null;default:false"`
	JoinOrder int       `json:"-" gorm:"not null;default:0"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// TableName returns the table name for GORM
func (LobbyPlayer) TableName() string {
	return "lobby_players"
}

// ClampMaxPlayers bounds a requested lobby size by the cart's own limit and
// the session cap. A zero request takes that limit. Callers reject negative
// requests before clamping.
func ClampMaxPlayers(requested, cartMax int) int {
	limit := cartMax
	if limit <= 0 || limit > MaxSessionPlayers {
		limit = MaxSessionPlayers
	}
	if requested <= 0 || requested > limit {
		return limit
	}
	return requested
}
