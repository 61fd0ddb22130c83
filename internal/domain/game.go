package domain

import (
	"time"

	"github.com/google/uuid"
)

type GameStatus string

const (
	GameStatusInitializing GameStatus = "initializing"
	GameStatusRunning      GameStatus = "running"
	GameStatusEnded        GameStatus = "ended"
)

// HostPlayerID is the fixed player id of the session host.
const HostPlayerID = 1

// GameInstance is a running match derived from a started lobby. LobbyID is a
// back-reference only; the lobby may be deleted while the game lives on.
type GameInstance struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	LobbyID   *uuid.UUID `json:"lobbyId" gorm:"type:uuid;uniqueIndex"`
	CartID    uuid.UUID  `json:"cartId" gorm:"type:uuid;not null"`
	Status    GameStatus `json:"status" gorm:"type:varchar(20);not null;default:'initializing';index"`
	CreatedAt time.Time  `json:"createdAt"`
	EndedAt   *time.Time `json:"endedAt"`

	// Relations
	Players []GamePlayer `json:"players" gorm:"foreignKey:GameInstanceID"`
}

// TableName returns the table name for GORM
func (GameInstance) TableName() string {
	return "game_instances"
}

// PlayerByID returns the player with the given session id, or nil.
func (g *GameInstance) PlayerByID(playerID int) *GamePlayer {
	for i := range g.Players {
		if g.Players[i].PlayerID == playerID {
			return &g.Players[i]
		}
	}
	return nil
}

// PlayerByUser returns the player entry for userID, or nil.
func (g *GameInstance) PlayerByUser(userID uuid.UUID) *GamePlayer {
	for i := range g.Players {
		if g.Players[i].UserID == userID {
			return &g.Players[i]
		}
	}
	return nil
}

// IsHost reports whether userID is the host of this game.
func (g *GameInstance) IsHost(userID uuid.UUID) bool {
	p := g.PlayerByUser(userID)
	return p != nil && p.IsHost
}

// GamePlayer fixes a user's numeric id for the duration of a match.
type GamePlayer struct {
	ID             uuid.UUID `json:"-" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	GameInstanceID uuid.UUID `json:"-" gorm:"type:uuid;not null;uniqueIndex:idx_game_player"`
	UserID         uuid.UUID `json:"userId" gorm:"type:uuid;not null"`
	PlayerID       int       `json:"playerId" gorm:"not null;uniqueIndex:idx_game_player"`
	IsHost         bool      `json:"isHost" gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (GamePlayer) TableName() string {
	return "game_players"
}

// AssignGamePlayers numbers lobby players 1..N in lobby order; the first
// player (the host) becomes player 1.
func AssignGamePlayers(gameID uuid.UUID, players []LobbyPlayer) []GamePlayer {
	out := make([]GamePlayer, len(players))
	for i, p := range players {
		out[i] = GamePlayer{
			ID:             uuid.New(),
			GameInstanceID: gameID,
			UserID:         p.UserID,
			PlayerID:       i + 1,
			IsHost:         i == 0,
		}
	}
	return out
}
