// Package events carries post-commit change notifications from services
// to the WebSocket hub of every server instance.
package events

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	TypeLobbyUpdated      = "lobby_updated"
	TypeLobbyDeleted      = "lobby_deleted"
	TypeGameStarted       = "game_started"
	TypeGameStatusChanged = "game_status_changed"
	TypeSignalPending     = "signal_pending"
)

type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Bus interface {
	Publisher
	// Run delivers events to handle until ctx is cancelled.
	Run(ctx context.Context, handle func(Event)) error
}

func New(topic, eventType string, payload interface{}) (Event, error) {
	e := Event{Topic: topic, Type: eventType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		e.Payload = data
	}
	return e, nil
}

func LobbyTopic(lobbyID uuid.UUID) string {
	return "lobby:" + lobbyID.String()
}

func GameTopic(gameID uuid.UUID) string {
	return "game:" + gameID.String()
}

func PlayerTopic(gameID uuid.UUID, playerID int) string {
	return fmt.Sprintf("game:%s:player:%d", gameID, playerID)
}
