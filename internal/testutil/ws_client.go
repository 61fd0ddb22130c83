package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/websocket"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
)

// WSClient is a test WebSocket client
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *websocket.Message
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// NewWSClient creates a new WebSocket test client
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *websocket.Message, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			}
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			select {
			case c.errors <- err:
			default:
			}
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

func (c *WSClient) send(msgType websocket.MessageType, payload interface{}) {
	c.t.Helper()

	msg, err := websocket.NewMessage(msgType, payload)
	if err != nil {
		c.t.Fatalf("failed to build message: %v", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		c.t.Fatalf("failed to marshal message: %v", err)
	}

	c.mu.Lock()
	err = c.conn.WriteMessage(gorillaWS.TextMessage, data)
	c.mu.Unlock()

	if err != nil {
		c.t.Fatalf("failed to send %s: %v", msgType, err)
	}
}

// SubscribeLobby asks for lobby updates; the server answers with a snapshot
func (c *WSClient) SubscribeLobby(lobbyID uuid.UUID) {
	c.send(websocket.MessageTypeSubscribeLobby, websocket.LobbySubscriptionPayload{LobbyID: lobbyID})
}

func (c *WSClient) UnsubscribeLobby(lobbyID uuid.UUID) {
	c.send(websocket.MessageTypeUnsubscribeLobby, websocket.LobbySubscriptionPayload{LobbyID: lobbyID})
}

// SubscribeSignals asks for pushed signals addressed to playerID
func (c *WSClient) SubscribeSignals(gameID uuid.UUID, playerID int) {
	c.send(websocket.MessageTypeSubscribeSignals, websocket.SignalSubscriptionPayload{
		GameInstanceID: gameID,
		PlayerID:       playerID,
	})
}

// SendRaw writes an arbitrary message type with an empty payload
func (c *WSClient) SendRaw(msgType websocket.MessageType) {
	c.send(msgType, struct{}{})
}

// ExpectMessage waits for a message of the specified type, skipping others
func (c *WSClient) ExpectMessage(msgType websocket.MessageType, timeout time.Duration) *websocket.Message {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", msgType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for message type %s", msgType)
		}
	}
}

// ExpectLobbyUpdated waits for and decodes a lobby snapshot
func (c *WSClient) ExpectLobbyUpdated(timeout time.Duration) *domain.Lobby {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.MessageTypeLobbyUpdated, timeout)

	var lobby domain.Lobby
	if err := json.Unmarshal(msg.Payload, &lobby); err != nil {
		c.t.Fatalf("failed to decode lobby payload: %v", err)
	}
	return &lobby
}

// SignalsPayload is the decoded form of a pushed signals batch
type SignalsPayload struct {
	GameInstanceID uuid.UUID       `json:"gameInstanceId"`
	PlayerID       int             `json:"playerId"`
	Signals        []domain.Signal `json:"signals"`
}

// ExpectSignals waits for and decodes a signals batch
func (c *WSClient) ExpectSignals(timeout time.Duration) *SignalsPayload {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.MessageTypeSignals, timeout)

	var payload SignalsPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode signals payload: %v", err)
	}
	return &payload
}

// ExpectError waits for and decodes an ERROR message
func (c *WSClient) ExpectError(timeout time.Duration) *websocket.ErrorPayload {
	c.t.Helper()

	msg := c.ExpectMessage(websocket.MessageTypeError, timeout)

	var payload websocket.ErrorPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode error payload: %v", err)
	}
	return &payload
}

// ExpectNoMessage fails if any message arrives within timeout
func (c *WSClient) ExpectNoMessage(timeout time.Duration) {
	c.t.Helper()

	select {
	case msg := <-c.messages:
		if msg != nil {
			c.t.Fatalf("unexpected message: %s", msg.Type)
		}
	case <-time.After(timeout):
	}
}

// DrainMessages discards everything currently buffered
func (c *WSClient) DrainMessages() {
	for {
		select {
		case <-c.messages:
		default:
			return
		}
	}
}
