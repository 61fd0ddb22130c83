package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/repository"
	"github.com/dom/pixelcart/internal/repository/postgres"
	"github.com/dom/pixelcart/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedLobby(t *testing.T, db *gorm.DB, cartID uuid.UUID, status domain.LobbyStatus, createdAt time.Time, players ...*domain.User) *domain.Lobby {
	t.Helper()

	lobby := &domain.Lobby{
		ID:         uuid.New(),
		HostID:     players[0].ID,
		CartID:     cartID,
		Name:       "lobby",
		MaxPlayers: 4,
		Status:     status,
		CreatedAt:  createdAt,
	}
	require.NoError(t, db.Omit("Players").Create(lobby).Error)

	for i, p := range players {
		lp := domain.LobbyPlayer{
			LobbyID:   lobby.ID,
			UserID:    p.ID,
			Username:  p.Username,
			JoinOrder: i,
			JoinedAt:  createdAt.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, db.Create(&lp).Error)
		lobby.Players = append(lobby.Players, lp)
	}
	return lobby
}

func TestLobbyRepository_PlayersInJoinOrder(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewLobbyRepository(testDB.DB)
	ctx := context.Background()

	a, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	b, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	c, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	lobby := seedLobby(t, testDB.DB, uuid.New(), domain.LobbyStatusWaiting, time.Now(), a, b, c)

	got, err := repo.GetByID(ctx, lobby.ID)
	require.NoError(t, err)
	require.Len(t, got.Players, 3)
	assert.Equal(t, a.ID, got.Players[0].UserID)
	assert.Equal(t, b.ID, got.Players[1].UserID)
	assert.Equal(t, c.ID, got.Players[2].UserID)

	err = testDB.DB.Transaction(func(tx *gorm.DB) error {
		locked, err := postgres.NewLobbyRepository(tx).GetByIDForUpdate(ctx, lobby.ID)
		if err != nil {
			return err
		}
		assert.Len(t, locked.Players, 3)
		assert.Equal(t, a.ID, locked.Players[0].UserID)
		return nil
	})
	require.NoError(t, err)
}

func TestLobbyRepository_DeleteRemovesPlayers(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewLobbyRepository(testDB.DB)
	ctx := context.Background()

	a, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	b, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	lobby := seedLobby(t, testDB.DB, uuid.New(), domain.LobbyStatusWaiting, time.Now(), a, b)

	require.NoError(t, repo.Delete(ctx, lobby.ID))

	_, err := repo.GetByID(ctx, lobby.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, testDB.DB.Model(&domain.LobbyPlayer{}).Where("lobby_id = ?", lobby.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLobbyPlayerRepository_UniqueSeat(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewLobbyPlayerRepository(testDB.DB)
	ctx := context.Background()

	a, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	lobby := seedLobby(t, testDB.DB, uuid.New(), domain.LobbyStatusWaiting, time.Now(), a)

	err := repo.Create(ctx, &domain.LobbyPlayer{
		LobbyID:  lobby.ID,
		UserID:   a.ID,
		Username: a.Username,
		JoinedAt: time.Now(),
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestLobbyRepository_ListPages(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewLobbyRepository(testDB.DB)
	ctx := context.Background()

	host, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	cartA := uuid.New()
	cartB := uuid.New()
	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)

	var waitingA []*domain.Lobby
	for i := 0; i < 5; i++ {
		waitingA = append(waitingA, seedLobby(t, testDB.DB, cartA, domain.LobbyStatusWaiting, base.Add(time.Duration(i)*time.Minute), host))
	}
	seedLobby(t, testDB.DB, cartB, domain.LobbyStatusWaiting, base.Add(10*time.Minute), host)
	seedLobby(t, testDB.DB, cartA, domain.LobbyStatusInProgress, base.Add(11*time.Minute), host)

	t.Run("status filter", func(t *testing.T) {
		got, err := repo.List(ctx, repository.LobbyFilter{Status: domain.LobbyStatusWaiting, Limit: 100})
		require.NoError(t, err)
		assert.Len(t, got, 6)
	})

	t.Run("cart filter pages newest first", func(t *testing.T) {
		filter := repository.LobbyFilter{Status: domain.LobbyStatusWaiting, CartID: &cartA, Limit: 2}

		var seen []uuid.UUID
		for {
			page, err := repo.List(ctx, filter)
			require.NoError(t, err)
			if len(page) == 0 {
				break
			}
			for _, l := range page {
				seen = append(seen, l.ID)
				assert.Len(t, l.Players, 1)
			}
			last := page[len(page)-1]
			filter.After = &repository.LobbyCursor{CreatedAt: last.CreatedAt, ID: last.ID}
		}

		require.Len(t, seen, 5)
		for i, id := range seen {
			assert.Equal(t, waitingA[4-i].ID, id)
		}
	})
}
