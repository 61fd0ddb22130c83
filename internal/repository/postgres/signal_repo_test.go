package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/repository/postgres"
	"github.com/dom/pixelcart/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newSignal(gameID uuid.UUID, from, to int, data string) *domain.SignalingMessage {
	return &domain.SignalingMessage{
		GameInstanceID: gameID,
		FromPlayerID:   from,
		ToPlayerID:     to,
		SignalType:     domain.SignalTypeICECandidate,
		SignalData:     datatypes.JSON(data),
	}
}

func TestSignalRepository_ClaimPendingInOrder(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSignalRepository(testDB.DB)
	ctx := context.Background()
	gameID := uuid.New()

	require.NoError(t, repo.Create(ctx, newSignal(gameID, 2, 1, `{"n":1}`)))
	require.NoError(t, repo.Create(ctx, newSignal(gameID, 3, 1, `{"n":2}`)))
	require.NoError(t, repo.Create(ctx, newSignal(gameID, 1, 2, `{"n":3}`)))
	require.NoError(t, repo.Create(ctx, newSignal(uuid.New(), 2, 1, `{"n":4}`)))

	got, err := repo.ClaimPending(ctx, gameID, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.JSONEq(t, `{"n":1}`, string(got[0].SignalData))
	assert.JSONEq(t, `{"n":2}`, string(got[1].SignalData))
	assert.Less(t, got[0].Seq, got[1].Seq)
	assert.True(t, got[0].Processed)

	again, err := repo.ClaimPending(ctx, gameID, 1)
	require.NoError(t, err)
	assert.Empty(t, again)

	forPeer, err := repo.ClaimPending(ctx, gameID, 2)
	require.NoError(t, err)
	assert.Len(t, forPeer, 1)
}

func TestSignalRepository_ConcurrentClaimsDeliverOnce(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSignalRepository(testDB.DB)
	ctx := context.Background()
	gameID := uuid.New()

	const total = 50
	for i := 0; i < total; i++ {
		require.NoError(t, repo.Create(ctx, newSignal(gameID, 2, 1, `{}`)))
	}

	var (
		mu   sync.Mutex
		seen = make(map[uuid.UUID]int)
		wg   sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				msgs, err := repo.ClaimPending(ctx, gameID, 1)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				for _, m := range msgs {
					seen[m.ID]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	rest, err := repo.ClaimPending(ctx, gameID, 1)
	require.NoError(t, err)
	for _, m := range rest {
		seen[m.ID]++
	}

	assert.Len(t, seen, total)
	for id, n := range seen {
		assert.Equal(t, 1, n, "message %s delivered %d times", id, n)
	}
}

func TestSignalRepository_DeleteOlderThan(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSignalRepository(testDB.DB)
	ctx := context.Background()
	gameID := uuid.New()

	old := newSignal(gameID, 2, 1, `{}`)
	old.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, newSignal(gameID, 2, 1, `{}`)))

	n, err := repo.DeleteOlderThan(ctx, time.Now().Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := repo.ClaimPending(ctx, gameID, 1)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}
