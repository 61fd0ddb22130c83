package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/events"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	drainTimeout   = 5 * time.Second
)

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uuid.UUID

	mu     sync.RWMutex
	closed bool

	// mailboxes waiting to be drained by WritePump; true means an empty
	// result is still reported
	drains map[signalKey]bool
	wake   chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
		drains: make(map[signalKey]bool),
		wake:   make(chan struct{}, 1),
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).WithField("user_id", c.userID).Warn("websocket read error")
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("INVALID_MESSAGE", "Malformed message")
			continue
		}

		c.handleMessage(&msg)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(message); err != nil {
				return
			}
		case <-c.wake:
			if !c.writeDrains() {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	w.Write(data)
	return w.Close()
}

func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeSubscribeLobby:
		var payload LobbySubscriptionPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.LobbyID == uuid.Nil {
			c.sendError("INVALID_PAYLOAD", "Invalid subscribe lobby payload")
			return
		}
		c.subscribeLobby(payload.LobbyID)

	case MessageTypeUnsubscribeLobby:
		var payload LobbySubscriptionPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendError("INVALID_PAYLOAD", "Invalid unsubscribe lobby payload")
			return
		}
		c.hub.Unsubscribe(c, events.LobbyTopic(payload.LobbyID))

	case MessageTypeSubscribeSignals:
		var payload SignalSubscriptionPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.GameInstanceID == uuid.Nil {
			c.sendError("INVALID_PAYLOAD", "Invalid subscribe signals payload")
			return
		}
		c.subscribeSignals(payload.GameInstanceID, payload.PlayerID)

	default:
		c.sendError("UNKNOWN_MESSAGE", "Unknown message type")
	}
}

func (c *Client) subscribeLobby(lobbyID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	lobby, err := c.hub.lobbies.GetLobby(ctx, lobbyID)
	if err != nil {
		c.sendDomainError(err)
		return
	}

	c.hub.Subscribe(c, events.LobbyTopic(lobbyID))
	c.sendMessage(MessageTypeLobbyUpdated, lobby)
}

// subscribeSignals registers for push nudges first, then asks for a drain
// of anything already waiting, so no message slips between the two.
func (c *Client) subscribeSignals(gameID uuid.UUID, playerID int) {
	c.hub.subscribeSignals(c, gameID, playerID)
	c.requestDrain(signalKey{gameID: gameID, playerID: playerID}, true)
}

// requestDrain queues a mailbox pull for WritePump. Mailboxes are claimed
// only on WritePump, which writes the frame straight to the connection.
func (c *Client) requestDrain(key signalKey, always bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.drains[key] = c.drains[key] || always
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Client) takeDrains() (map[signalKey]bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false
	}
	pending := c.drains
	c.drains = make(map[signalKey]bool)
	return pending, true
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// writeDrains claims every requested mailbox and writes the signals to the
// connection. It returns false once the client is closed or a write fails;
// nothing is claimed after that point.
func (c *Client) writeDrains() bool {
	pending, ok := c.takeDrains()
	if !ok {
		return false
	}
	for key, always := range pending {
		if c.isClosed() {
			return false
		}
		if !c.drainSignals(key, always) {
			return false
		}
	}
	return true
}

// drainSignals claims one mailbox and writes the result. Empty drains are
// only written when always is set. A failed first drain drops the
// subscription and reports the error to the client.
func (c *Client) drainSignals(key signalKey, always bool) bool {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	signals, err := c.hub.signals.GetSignals(ctx, c.userID, key.gameID, key.playerID)
	if err != nil {
		if always {
			c.hub.Unsubscribe(c, events.PlayerTopic(key.gameID, key.playerID))
			return c.writeMessage(MessageTypeError, c.errorPayload(err))
		}
		c.hub.logger.WithError(err).
			WithFields(logrus.Fields{"user_id": c.userID, "game_id": key.gameID, "player_id": key.playerID}).
			Warn("signal push failed")
		return true
	}
	if len(signals) == 0 && !always {
		return true
	}
	if signals == nil {
		signals = []domain.Signal{}
	}

	return c.writeMessage(MessageTypeSignals, SignalsPayload{
		GameInstanceID: key.gameID,
		PlayerID:       key.playerID,
		Signals:        signals,
	})
}

// writeMessage writes a frame directly from WritePump, bypassing the send
// buffer.
func (c *Client) writeMessage(msgType MessageType, payload interface{}) bool {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		c.hub.logger.WithError(err).Error("failed to build message")
		return true
	}
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.WithError(err).Error("failed to marshal message")
		return true
	}
	return c.write(data) == nil
}

func (c *Client) errorPayload(err error) ErrorPayload {
	kind := domain.KindOf(err)
	if kind == "" {
		c.hub.logger.WithError(err).WithField("user_id", c.userID).Error("websocket request failed")
		return ErrorPayload{Code: "INTERNAL", Message: "Internal error"}
	}
	return ErrorPayload{Code: string(kind), Message: err.Error()}
}

func (c *Client) sendDomainError(err error) {
	p := c.errorPayload(err)
	c.sendError(p.Code, p.Message)
}

func (c *Client) sendError(code, message string) {
	c.sendMessage(MessageTypeError, ErrorPayload{
		Code:    code,
		Message: message,
	})
}

func (c *Client) sendMessage(msgType MessageType, payload interface{}) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		c.hub.logger.WithError(err).Error("failed to build message")
		return
	}
	c.Send(msg)
}

func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.WithError(err).Error("failed to marshal message")
		return
	}
	c.trySend(data)
}

// trySend drops the frame when the client's buffer is full or it is closed.
func (c *Client) trySend(data []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
	}
}

// Close marks the client as closed and closes its send channel
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) UserID() uuid.UUID {
	return c.userID
}
