package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MaxSessionPlayers is the hard cap for a multiplayer session: the host plus
// five peers in a star topology.
const MaxSessionPlayers = 6

// Cart is a user-authored game package. Example carts are system-owned and
// have no OwnerID.
type Cart struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OwnerID      *uuid.UUID     `json:"ownerId" gorm:"type:uuid;index"`
	Name         string         `json:"name" gorm:"not null"`
	IsPublic     bool           `json:"isPublic" gorm:"not null;default:false"`
	IsExample    bool           `json:"isExample" gorm:"not null;default:false"`
	MaxPlayers   int            `json:"maxPlayers" gorm:"not null;default:1"`
	Code         string         `json:"code" gorm:"type:text"`
	Manifest     datatypes.JSON `json:"manifest"`
	ForkedFromID *uuid.UUID     `json:"forkedFromId" gorm:"type:uuid"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// TableName returns the table name for GORM
func (Cart) TableName() string {
	return "carts"
}

// IsCartReadable reports whether callerID may see the cart.
func IsCartReadable(cart *Cart, callerID uuid.UUID) bool {
	if cart == nil {
		return false
	}
	if cart.IsPublic || cart.IsExample {
		return true
	}
	return cart.OwnerID != nil && *cart.OwnerID == callerID
}

// CanMutateCart reports whether callerID may change the cart. Example carts
// are never mutable through the API.
func CanMutateCart(cart *Cart, callerID uuid.UUID) bool {
	if cart == nil || cart.IsExample || cart.OwnerID == nil {
		return false
	}
	return *cart.OwnerID == callerID
}

// ValidCartMaxPlayers reports whether n is an allowed player count for a cart.
func ValidCartMaxPlayers(n int) bool {
	return n >= 1 && n <= MaxSessionPlayers
}
