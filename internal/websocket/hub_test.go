package websocket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/events"
	"github.com/dom/pixelcart/internal/logging"
	"github.com/dom/pixelcart/internal/websocket"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

const defaultTimeout = 3 * time.Second

type fakeMailbox struct {
	mu      sync.Mutex
	owner   uuid.UUID
	pending []domain.Signal
}

func (m *fakeMailbox) GetSignals(ctx context.Context, callerID, gameID uuid.UUID, forPlayerID int) ([]domain.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if callerID != m.owner {
		return nil, domain.ErrNotYourPlayer
	}
	out := m.pending
	m.pending = nil
	return out, nil
}

func (m *fakeMailbox) push(s domain.Signal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, s)
}

type fakeLobbies map[uuid.UUID]*domain.Lobby

func (f fakeLobbies) GetLobby(ctx context.Context, id uuid.UUID) (*domain.Lobby, error) {
	if l, ok := f[id]; ok {
		return l, nil
	}
	return nil, domain.ErrLobbyNotFound
}

type hubFixture struct {
	hub    *websocket.Hub
	server *httptest.Server
}

func newHubFixture(t *testing.T, mailbox *fakeMailbox, lobbies fakeLobbies) *hubFixture {
	t.Helper()

	hub := websocket.NewHub(mailbox, lobbies, logging.Discard())
	go hub.Run()

	upgrader := gorillaWS.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.URL.Query().Get("user"))
		if err != nil {
			http.Error(w, "bad user", http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := websocket.NewClient(hub, conn, userID)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})
	return &hubFixture{hub: hub, server: server}
}

func (f *hubFixture) dial(t *testing.T, userID uuid.UUID) *gorillaWS.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "?user=" + userID.String()
	conn, _, err := gorillaWS.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *gorillaWS.Conn, msgType websocket.MessageType, payload interface{}) {
	t.Helper()
	msg, err := websocket.NewMessage(msgType, payload)
	require.NoError(t, err)
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(gorillaWS.TextMessage, data))
}

func expect(t *testing.T, conn *gorillaWS.Conn, msgType websocket.MessageType) *websocket.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(defaultTimeout))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", msgType)
		var msg websocket.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == msgType {
			return &msg
		}
	}
}

func TestHub_LobbySubscription(t *testing.T) {
	userID := uuid.New()
	lobby := &domain.Lobby{ID: uuid.New(), Name: "Arcade night", Status: domain.LobbyStatusWaiting, MaxPlayers: 4}
	f := newHubFixture(t, &fakeMailbox{owner: userID}, fakeLobbies{lobby.ID: lobby})
	conn := f.dial(t, userID)

	send(t, conn, websocket.MessageTypeSubscribeLobby, websocket.LobbySubscriptionPayload{LobbyID: lobby.ID})

	snapshot := expect(t, conn, websocket.MessageTypeLobbyUpdated)
	var got domain.Lobby
	require.NoError(t, json.Unmarshal(snapshot.Payload, &got))
	assert.Equal(t, lobby.ID, got.ID)
	assert.Equal(t, 1, f.hub.SubscriberCount(events.LobbyTopic(lobby.ID)))

	e, err := events.New(events.LobbyTopic(lobby.ID), events.TypeLobbyDeleted, map[string]uuid.UUID{"lobbyId": lobby.ID})
	require.NoError(t, err)
	f.hub.HandleEvent(e)

	deleted := expect(t, conn, websocket.MessageTypeLobbyDeleted)
	assert.Contains(t, string(deleted.Payload), lobby.ID.String())

	send(t, conn, websocket.MessageTypeUnsubscribeLobby, websocket.LobbySubscriptionPayload{LobbyID: lobby.ID})
	assert.Eventually(t, func() bool {
		return f.hub.SubscriberCount(events.LobbyTopic(lobby.ID)) == 0
	}, defaultTimeout, 10*time.Millisecond)
}

func TestHub_LobbySubscriptionNotFound(t *testing.T) {
	userID := uuid.New()
	f := newHubFixture(t, &fakeMailbox{owner: userID}, fakeLobbies{})
	conn := f.dial(t, userID)

	send(t, conn, websocket.MessageTypeSubscribeLobby, websocket.LobbySubscriptionPayload{LobbyID: uuid.New()})

	msg := expect(t, conn, websocket.MessageTypeError)
	var payload websocket.ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, string(domain.KindNotFound), payload.Code)
}

func TestHub_SignalPush(t *testing.T) {
	userID := uuid.New()
	gameID := uuid.New()
	mailbox := &fakeMailbox{owner: userID}
	mailbox.push(domain.Signal{Type: domain.SignalTypeOffer, Data: datatypes.JSON(`{"sdp":"a"}`), FromPlayerID: 2, ToPlayerID: 1})

	f := newHubFixture(t, mailbox, fakeLobbies{})
	conn := f.dial(t, userID)

	send(t, conn, websocket.MessageTypeSubscribeSignals, websocket.SignalSubscriptionPayload{GameInstanceID: gameID, PlayerID: 1})

	var first struct {
		PlayerID int             `json:"playerId"`
		Signals  []domain.Signal `json:"signals"`
	}
	require.NoError(t, json.Unmarshal(expect(t, conn, websocket.MessageTypeSignals).Payload, &first))
	assert.Equal(t, 1, first.PlayerID)
	require.Len(t, first.Signals, 1)
	assert.Equal(t, domain.SignalTypeOffer, first.Signals[0].Type)

	mailbox.push(domain.Signal{Type: domain.SignalTypeICECandidate, Data: datatypes.JSON(`{"candidate":"c"}`), FromPlayerID: 3, ToPlayerID: 1})
	e, err := events.New(events.PlayerTopic(gameID, 1), events.TypeSignalPending, nil)
	require.NoError(t, err)
	f.hub.HandleEvent(e)

	var second struct {
		Signals []domain.Signal `json:"signals"`
	}
	require.NoError(t, json.Unmarshal(expect(t, conn, websocket.MessageTypeSignals).Payload, &second))
	require.Len(t, second.Signals, 1)
	assert.Equal(t, 3, second.Signals[0].FromPlayerID)
}

func TestHub_SignalSubscriptionForbidden(t *testing.T) {
	gameID := uuid.New()
	f := newHubFixture(t, &fakeMailbox{owner: uuid.New()}, fakeLobbies{})
	conn := f.dial(t, uuid.New())

	send(t, conn, websocket.MessageTypeSubscribeSignals, websocket.SignalSubscriptionPayload{GameInstanceID: gameID, PlayerID: 1})

	msg := expect(t, conn, websocket.MessageTypeError)
	var payload websocket.ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, string(domain.KindForbidden), payload.Code)
	assert.Equal(t, 0, f.hub.SubscriberCount(events.PlayerTopic(gameID, 1)))
}

func TestHub_UnknownMessage(t *testing.T) {
	userID := uuid.New()
	f := newHubFixture(t, &fakeMailbox{owner: userID}, fakeLobbies{})
	conn := f.dial(t, userID)

	send(t, conn, websocket.MessageType("dance"), nil)

	msg := expect(t, conn, websocket.MessageTypeError)
	assert.Contains(t, string(msg.Payload), "UNKNOWN_MESSAGE")
}
