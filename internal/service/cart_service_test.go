package service_test

import (
	"context"
	"testing"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/service"
	"github.com/dom/pixelcart/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestCartService_Permissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner, stranger := env.user(t), env.user(t)

	cart, err := env.svc.Cart.CreateCart(ctx, owner.ID, service.CartInput{
		Name:       "Racer",
		MaxPlayers: 4,
		Code:       "print('hi')",
		Manifest:   datatypes.JSON(`{"title":"Racer"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, *cart.OwnerID)
	assert.False(t, cart.IsPublic)

	_, err = env.svc.Cart.GetCart(ctx, stranger.ID, cart.ID)
	assert.ErrorIs(t, err, domain.ErrCartNotReadable)

	_, err = env.svc.Cart.UpdateCart(ctx, stranger.ID, cart.ID, service.CartInput{Name: "Stolen", MaxPlayers: 1})
	assert.ErrorIs(t, err, domain.ErrCartNotMutable)

	updated, err := env.svc.Cart.UpdateCart(ctx, owner.ID, cart.ID, service.CartInput{Name: "Racer 2", IsPublic: true, MaxPlayers: 2})
	require.NoError(t, err)
	assert.True(t, updated.IsPublic)

	got, err := env.svc.Cart.GetCart(ctx, stranger.ID, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, "Racer 2", got.Name)

	_, err = env.svc.Cart.GetCart(ctx, owner.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
}

func TestCartService_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t)

	_, err := env.svc.Cart.CreateCart(ctx, owner.ID, service.CartInput{Name: "", MaxPlayers: 1})
	assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))

	_, err = env.svc.Cart.CreateCart(ctx, owner.ID, service.CartInput{Name: "Big", MaxPlayers: domain.MaxSessionPlayers + 1})
	assert.ErrorIs(t, err, domain.ErrInvalidCartPlayers)

	_, err = env.svc.Cart.CreateCart(ctx, owner.ID, service.CartInput{Name: "None", MaxPlayers: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidCartPlayers)
}

func TestCartService_ExampleCartsAreReadOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.user(t)
	example := testutil.NewCartBuilder().Example().WithName("Snake").WithMaxPlayers(2).Build(t, env.db.DB)

	got, err := env.svc.Cart.GetCart(ctx, user.ID, example.ID)
	require.NoError(t, err)
	assert.True(t, got.IsExample)

	_, err = env.svc.Cart.UpdateCart(ctx, user.ID, example.ID, service.CartInput{Name: "Mine", MaxPlayers: 2})
	assert.ErrorIs(t, err, domain.ErrCartNotMutable)

	fork, err := env.svc.Cart.ForkCart(ctx, user.ID, example.ID)
	require.NoError(t, err)
	assert.NotEqual(t, example.ID, fork.ID)
	assert.Equal(t, user.ID, *fork.OwnerID)
	assert.Equal(t, example.ID, *fork.ForkedFromID)
	assert.False(t, fork.IsExample)
	assert.False(t, fork.IsPublic)
	assert.Equal(t, "Snake", fork.Name)

	_, err = env.svc.Cart.UpdateCart(ctx, user.ID, fork.ID, service.CartInput{Name: "My Snake", MaxPlayers: 2})
	require.NoError(t, err)
}

func TestCartService_ForkPrivateCartDenied(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner, stranger := env.user(t), env.user(t)
	private := testutil.NewCartBuilder().WithOwner(owner).Build(t, env.db.DB)

	_, err := env.svc.Cart.ForkCart(ctx, stranger.ID, private.ID)
	assert.ErrorIs(t, err, domain.ErrCartNotReadable)
}

func TestCartService_Leaderboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	host, peer := env.user(t), env.user(t)
	game := env.startedGame(t, host, peer)

	_, err := env.svc.Match.SaveMatchResult(ctx, host.ID, game.ID, service.SaveMatchResultInput{
		Players: []service.MatchPlayerInput{
			{PlayerID: 1, Score: 300, Placement: 2},
			{PlayerID: 2, Score: 900, Placement: 1},
		},
	})
	require.NoError(t, err)

	entries, err := env.svc.Cart.Leaderboard(ctx, host.ID, game.CartID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, peer.ID, entries[0].UserID)
	assert.Equal(t, peer.Username, entries[0].Username)
	assert.Equal(t, int64(900), entries[0].Score)
	assert.Equal(t, host.ID, entries[1].UserID)

	top, err := env.svc.Cart.Leaderboard(ctx, host.ID, game.CartID, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}
