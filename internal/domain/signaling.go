package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SignalType string

const (
	SignalTypeOffer        SignalType = "offer"
	SignalTypeAnswer       SignalType = "answer"
	SignalTypeICECandidate SignalType = "ice-candidate"
)

// Valid reports whether t is a known WebRTC negotiation message type.
func (t SignalType) Valid() bool {
	switch t {
	case SignalTypeOffer, SignalTypeAnswer, SignalTypeICECandidate:
		return true
	}
	return false
}

// SignalingMessage is one relayed negotiation message. The payload is opaque
// and never changes after insert; only Processed flips, once.
type SignalingMessage struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Seq            int64          `json:"seq" gorm:"autoIncrement;not null;uniqueIndex"`
	GameInstanceID uuid.UUID      `json:"gameInstanceId" gorm:"type:uuid;not null;index:idx_signal_mailbox,priority:1"`
	FromPlayerID   int            `json:"fromPlayerId" gorm:"not null"`
	ToPlayerID     int            `json:"toPlayerId" gorm:"not null;index:idx_signal_mailbox,priority:2"`
	SignalType     SignalType     `json:"signalType" gorm:"type:varchar(20);not null"`
	SignalData     datatypes.JSON `json:"signalData" gorm:"not null"`
	Processed      bool           `json:"processed" gorm:"not null;default:false;index:idx_signal_mailbox,priority:3"`
	CreatedAt      time.Time      `json:"createdAt" gorm:"index"`
}

// TableName returns the table name for GORM
func (SignalingMessage) TableName() string {
	return "signaling_messages"
}

// Signal is the delivered form of a SignalingMessage.
type Signal struct {
	Type         SignalType     `json:"type"`
	Data         datatypes.JSON `json:"data"`
	FromPlayerID int            `json:"fromPlayerId"`
	ToPlayerID   int            `json:"toPlayerId"`
}

// ToSignal converts a stored message into its delivered form.
func (m *SignalingMessage) ToSignal() Signal {
	return Signal{
		Type:         m.SignalType,
		Data:         m.SignalData,
		FromPlayerID: m.FromPlayerID,
		ToPlayerID:   m.ToPlayerID,
	}
}

// CheckSignalRoute enforces the star topology: every message has exactly one
// endpoint that is the host, and never targets its own sender.
func CheckSignalRoute(fromPlayerID, toPlayerID int) error {
	if fromPlayerID == toPlayerID {
		return InvalidArgument("a player cannot signal itself")
	}
	if fromPlayerID != HostPlayerID && toPlayerID != HostPlayerID {
		return InvalidArgument("peers may only signal the host")
	}
	return nil
}
