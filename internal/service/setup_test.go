package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/events"
	"github.com/dom/pixelcart/internal/logging"
	"github.com/dom/pixelcart/internal/repository"
	"github.com/dom/pixelcart/internal/repository/postgres"
	"github.com/dom/pixelcart/internal/service"
	"github.com/dom/pixelcart/internal/testutil"
	"github.com/stretchr/testify/require"
)

// recordingBus captures published events for assertions.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, e events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return nil
}

func (b *recordingBus) count(topic, eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.Topic == topic && e.Type == eventType {
			n++
		}
	}
	return n
}

type testEnv struct {
	db    *testutil.TestDB
	repos *repository.Repositories
	svc   *service.Services
	bus   *recordingBus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB, 3)
	bus := &recordingBus{}
	svc := service.NewServices(repos, bus, logging.Discard(), testutil.TestConfig())

	return &testEnv{db: testDB, repos: repos, svc: svc, bus: bus}
}

func (e *testEnv) user(t *testing.T) *domain.User {
	t.Helper()
	u, _ := testutil.NewUserBuilder().Build(t, e.db.DB)
	return u
}

func (e *testEnv) exampleCart(t *testing.T, maxPlayers int) *domain.Cart {
	t.Helper()
	return testutil.NewCartBuilder().Example().WithMaxPlayers(maxPlayers).Build(t, e.db.DB)
}

// readyLobby creates a lobby hosted by players[0], joins the rest and
// readies everyone.
func (e *testEnv) readyLobby(t *testing.T, cart *domain.Cart, players ...*domain.User) *domain.Lobby {
	t.Helper()
	ctx := context.Background()

	lobby, err := e.svc.Lobby.CreateLobby(ctx, players[0].ID, service.CreateLobbyInput{
		CartID: cart.ID,
		Name:   "Test",
	})
	require.NoError(t, err)

	for _, p := range players[1:] {
		_, err := e.svc.Lobby.JoinLobby(ctx, lobby.ID, p.ID)
		require.NoError(t, err)
	}
	for _, p := range players {
		lobby, err = e.svc.Lobby.SetReady(ctx, lobby.ID, p.ID, true)
		require.NoError(t, err)
	}
	return lobby
}

// startedGame runs a lobby through to a fresh game instance.
func (e *testEnv) startedGame(t *testing.T, players ...*domain.User) *domain.GameInstance {
	t.Helper()

	cart := e.exampleCart(t, len(players))
	lobby := e.readyLobby(t, cart, players...)
	game, err := e.svc.Lobby.StartGame(context.Background(), lobby.ID, players[0].ID)
	require.NoError(t, err)
	return game
}
