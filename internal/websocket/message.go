package websocket

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type MessageType string

const (
	// Client to Server
	MessageTypeSubscribeLobby   MessageType = "subscribe_lobby"
	MessageTypeUnsubscribeLobby MessageType = "unsubscribe_lobby"
	MessageTypeSubscribeSignals MessageType = "subscribe_signals"

	// Server to Client
	MessageTypeLobbyUpdated      MessageType = "lobby_updated"
	MessageTypeLobbyDeleted      MessageType = "lobby_deleted"
	MessageTypeGameStarted       MessageType = "game_started"
	MessageTypeGameStatusChanged MessageType = "game_status_changed"
	MessageTypeSignals           MessageType = "signals"
	MessageTypeError             MessageType = "error"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Client to Server payloads

type LobbySubscriptionPayload struct {
	LobbyID uuid.UUID `json:"lobbyId"`
}

type SignalSubscriptionPayload struct {
	GameInstanceID uuid.UUID `json:"gameInstanceId"`
	PlayerID       int       `json:"playerId"`
}

// Server to Client payloads

type SignalsPayload struct {
	GameInstanceID uuid.UUID   `json:"gameInstanceId"`
	PlayerID       int         `json:"playerId"`
	Signals        interface{} `json:"signals"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
