package websocket

import (
	"context"
	"sync"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/events"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SignalSource drains a player's signaling mailbox on behalf of a user.
type SignalSource interface {
	GetSignals(ctx context.Context, callerID, gameID uuid.UUID, forPlayerID int) ([]domain.Signal, error)
}

// LobbyReader loads the lobby snapshot sent on subscription.
type LobbyReader interface {
	GetLobby(ctx context.Context, lobbyID uuid.UUID) (*domain.Lobby, error)
}

type signalKey struct {
	gameID   uuid.UUID
	playerID int
}

// Hub fans bus events out to the WebSocket clients subscribed to their
// topic. Signal nudges queue a mailbox drain on each subscriber's write pump
// instead of being forwarded.
type Hub struct {
	clients    map[*Client]bool
	topics     map[string]map[*Client]bool
	signalKeys map[string]signalKey
	register   chan *Client
	unregister chan *Client
	deliver    chan events.Event
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	stopOnce   sync.Once
	signals    SignalSource
	lobbies    LobbyReader
	logger     *logrus.Logger
	mu         sync.RWMutex
}

func NewHub(signals SignalSource, lobbies LobbyReader, logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		topics:     make(map[string]map[*Client]bool),
		signalKeys: make(map[string]signalKey),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan events.Event, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		signals:    signals,
		lobbies:    lobbies,
		logger:     logger,
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.topics = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				h.clients[client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.removeFromTopics(client)
				client.Close()
			}
			h.mu.Unlock()

		case e := <-h.deliver:
			h.dispatch(e)
		}
	}
}

// Stop shuts down the hub and closes every client. It blocks until Run exits.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// HandleEvent is the event bus callback.
func (h *Hub) HandleEvent(e events.Event) {
	select {
	case h.deliver <- e:
	case <-h.done:
	}
}

func (h *Hub) Subscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}

	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Client]bool)
		h.topics[topic] = subs
	}
	subs[client] = true
}

func (h *Hub) subscribeSignals(client *Client, gameID uuid.UUID, playerID int) string {
	topic := events.PlayerTopic(gameID, playerID)
	h.mu.Lock()
	h.signalKeys[topic] = signalKey{gameID: gameID, playerID: playerID}
	h.mu.Unlock()

	h.Subscribe(client, topic)
	return topic
}

func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribeLocked(client, topic)
}

func (h *Hub) unsubscribeLocked(client *Client, topic string) {
	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.topics, topic)
		delete(h.signalKeys, topic)
	}
}

func (h *Hub) removeFromTopics(client *Client) {
	for topic, subs := range h.topics {
		if subs[client] {
			h.unsubscribeLocked(client, topic)
		}
	}
}

// SubscriberCount returns the number of clients watching topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) dispatch(e events.Event) {
	h.mu.RLock()
	subs := make([]*Client, 0, len(h.topics[e.Topic]))
	for c := range h.topics[e.Topic] {
		subs = append(subs, c)
	}
	key, isSignal := h.signalKeys[e.Topic]
	h.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	if e.Type == events.TypeSignalPending {
		if !isSignal {
			return
		}
		for _, c := range subs {
			c.requestDrain(key, false)
		}
		return
	}

	msg := &Message{Type: MessageType(e.Type), Payload: e.Payload, Timestamp: nowMillis()}
	for _, c := range subs {
		c.Send(msg)
	}
}
