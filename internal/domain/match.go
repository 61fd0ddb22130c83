package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MatchResult is the terminal, read-only record of a finished game.
type MatchResult struct {
	ID             uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	GameInstanceID uuid.UUID           `json:"gameInstanceId" gorm:"type:uuid;not null;uniqueIndex"`
	CartID         uuid.UUID           `json:"cartId" gorm:"type:uuid;not null;index"`
	DurationMs     int64               `json:"duration" gorm:"not null"`
	CreatedAt      time.Time           `json:"createdAt"`
	Players        []MatchResultPlayer `json:"players" gorm:"foreignKey:MatchResultID"`
}

// TableName returns the table name for GORM
func (MatchResult) TableName() string {
	return "match_results"
}

// MatchResultPlayer is one player's outcome. Placement is caller-assigned
// (1 = best).
type MatchResultPlayer struct {
	ID            uuid.UUID      `json:"-" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MatchResultID uuid.UUID      `json:"-" gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID      `json:"userId" gorm:"type:uuid;not null;index"`
	PlayerID      int            `json:"playerId" gorm:"not null"`
	Score         int64          `json:"score" gorm:"not null;default:0"`
	Placement     int            `json:"placement" gorm:"not null"`
	Stats         datatypes.JSON `json:"stats,omitempty"`
}

// TableName returns the table name for GORM
func (MatchResultPlayer) TableName() string {
	return "match_result_players"
}

// LeaderboardEntry is one row of a cart's high-score table.
type LeaderboardEntry struct {
	UserID        uuid.UUID `json:"userId"`
	Username      string    `json:"username"`
	Score         int64     `json:"score"`
	Placement     int       `json:"placement"`
	MatchResultID uuid.UUID `json:"matchResultId"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CommunityStatsID is the reserved key of the community stats singleton.
const CommunityStatsID = "global"

// CommunityStats aggregates platform-wide counters in one reserved row.
type CommunityStats struct {
	ID             string    `json:"-" gorm:"primaryKey;size:32"`
	LobbiesCreated int64     `json:"lobbiesCreated" gorm:"not null;default:0"`
	MatchesPlayed  int64     `json:"matchesPlayed" gorm:"not null;default:0"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName returns the table name for GORM
func (CommunityStats) TableName() string {
	return "community_stats"
}
