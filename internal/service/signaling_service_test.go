package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/events"
	"github.com/dom/pixelcart/internal/logging"
	"github.com/dom/pixelcart/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalingService_OfferIsDeliveredOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	host, peer := env.user(t), env.user(t)
	game := env.startedGame(t, host, peer)

	_, err := env.svc.Signaling.SendSignal(ctx, peer.ID, service.SendSignalInput{
		GameInstanceID: game.ID,
		FromPlayerID:   2,
		ToPlayerID:     1,
		SignalType:     domain.SignalTypeOffer,
		SignalData:     []byte(`{"sdp":"v=0"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, env.bus.count(events.PlayerTopic(game.ID, 1), events.TypeSignalPending))

	signals, err := env.svc.Signaling.GetSignals(ctx, host.ID, game.ID, 1)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, domain.SignalTypeOffer, signals[0].Type)
	assert.Equal(t, 2, signals[0].FromPlayerID)
	assert.Equal(t, 1, signals[0].ToPlayerID)
	assert.JSONEq(t, `{"sdp":"v=0"}`, string(signals[0].Data))

	signals, err = env.svc.Signaling.GetSignals(ctx, host.ID, game.ID, 1)
	require.NoError(t, err)
	assert.NotNil(t, signals)
	assert.Empty(t, signals)
}

func TestSignalingService_PreservesOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	host, p2, p3 := env.user(t), env.user(t), env.user(t)
	game := env.startedGame(t, host, p2, p3)

	send := func(caller uuid.UUID, from, to int, typ domain.SignalType, data string) {
		t.Helper()
		_, err := env.svc.Signaling.SendSignal(ctx, caller, service.SendSignalInput{
			GameInstanceID: game.ID, FromPlayerID: from, ToPlayerID: to, SignalType: typ, SignalData: []byte(data),
		})
		require.NoError(t, err)
	}
	send(p2.ID, 2, 1, domain.SignalTypeOffer, `{"n":1}`)
	send(p3.ID, 3, 1, domain.SignalTypeOffer, `{"n":2}`)
	send(p2.ID, 2, 1, domain.SignalTypeICECandidate, `{"n":3}`)
	send(host.ID, 1, 2, domain.SignalTypeAnswer, `{"n":4}`)

	signals, err := env.svc.Signaling.GetSignals(ctx, host.ID, game.ID, 1)
	require.NoError(t, err)
	require.Len(t, signals, 3)
	for i, s := range signals {
		assert.JSONEq(t, `{"n":`+string(rune('1'+i))+`}`, string(s.Data))
	}

	forPeer, err := env.svc.Signaling.GetSignals(ctx, p2.ID, game.ID, 2)
	require.NoError(t, err)
	require.Len(t, forPeer, 1)
	assert.Equal(t, domain.SignalTypeAnswer, forPeer[0].Type)
}

func TestSignalingService_SendValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	host, p2, p3 := env.user(t), env.user(t), env.user(t)
	game := env.startedGame(t, host, p2, p3)
	valid := []byte(`{"candidate":"x"}`)

	tests := []struct {
		name     string
		caller   uuid.UUID
		input    service.SendSignalInput
		wantErr  error
		wantKind domain.ErrorKind
	}{
		{
			name:     "unknown type",
			caller:   p2.ID,
			input:    service.SendSignalInput{FromPlayerID: 2, ToPlayerID: 1, SignalType: "hello", SignalData: valid},
			wantKind: domain.KindInvalidArgument,
		},
		{
			name:     "data not json",
			caller:   p2.ID,
			input:    service.SendSignalInput{FromPlayerID: 2, ToPlayerID: 1, SignalType: domain.SignalTypeOffer, SignalData: []byte("{oops")},
			wantKind: domain.KindInvalidArgument,
		},
		{
			name:     "data too large",
			caller:   p2.ID,
			input:    service.SendSignalInput{FromPlayerID: 2, ToPlayerID: 1, SignalType: domain.SignalTypeOffer, SignalData: []byte(`"` + strings.Repeat("a", 70000) + `"`)},
			wantKind: domain.KindInvalidArgument,
		},
		{
			name:     "peer to peer",
			caller:   p2.ID,
			input:    service.SendSignalInput{FromPlayerID: 2, ToPlayerID: 3, SignalType: domain.SignalTypeOffer, SignalData: valid},
			wantKind: domain.KindInvalidArgument,
		},
		{
			name:     "to self",
			caller:   host.ID,
			input:    service.SendSignalInput{FromPlayerID: 1, ToPlayerID: 1, SignalType: domain.SignalTypeOffer, SignalData: valid},
			wantKind: domain.KindInvalidArgument,
		},
		{
			name:    "spoofed sender",
			caller:  p3.ID,
			input:   service.SendSignalInput{FromPlayerID: 2, ToPlayerID: 1, SignalType: domain.SignalTypeOffer, SignalData: valid},
			wantErr: domain.ErrNotYourPlayer,
		},
		{
			name:    "receiver not in game",
			caller:  host.ID,
			input:   service.SendSignalInput{FromPlayerID: 1, ToPlayerID: 5, SignalType: domain.SignalTypeAnswer, SignalData: valid},
			wantErr: domain.ErrPlayerNotInGame,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.GameInstanceID = game.ID
			_, err := env.svc.Signaling.SendSignal(ctx, tt.caller, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.Equal(t, tt.wantKind, domain.KindOf(err))
		})
	}

	_, err := env.svc.Signaling.SendSignal(ctx, host.ID, service.SendSignalInput{
		GameInstanceID: uuid.New(), FromPlayerID: 1, ToPlayerID: 2, SignalType: domain.SignalTypeOffer, SignalData: valid,
	})
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
}

func TestSignalingService_GetSignalsOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	host, peer := env.user(t), env.user(t)
	game := env.startedGame(t, host, peer)

	_, err := env.svc.Signaling.GetSignals(ctx, peer.ID, game.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotYourPlayer)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = env.svc.Signaling.GetSignals(ctx, peer.ID, game.ID, 4)
	assert.ErrorIs(t, err, domain.ErrPlayerNotInGame)

	_, err = env.svc.Signaling.GetSignals(ctx, peer.ID, uuid.New(), 2)
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
}

func TestSignalingService_EndedGameRejectsSignals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	host, peer := env.user(t), env.user(t)
	game := env.startedGame(t, host, peer)
	_, err := env.svc.Match.SaveMatchResult(ctx, host.ID, game.ID, twoPlayerResult())
	require.NoError(t, err)

	_, err = env.svc.Signaling.SendSignal(ctx, peer.ID, service.SendSignalInput{
		GameInstanceID: game.ID, FromPlayerID: 2, ToPlayerID: 1, SignalType: domain.SignalTypeOffer, SignalData: []byte(`{}`),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidGameState)
}

func TestSignalSweeper_RemovesExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	host, peer := env.user(t), env.user(t)
	game := env.startedGame(t, host, peer)

	_, err := env.svc.Signaling.SendSignal(ctx, peer.ID, service.SendSignalInput{
		GameInstanceID: game.ID, FromPlayerID: 2, ToPlayerID: 1, SignalType: domain.SignalTypeOffer, SignalData: []byte(`{}`),
	})
	require.NoError(t, err)

	sweeper := service.NewSignalSweeper(env.repos.Signal, time.Minute, time.Minute, logging.Discard())

	n, err := sweeper.Sweep(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = sweeper.Sweep(ctx, time.Now().Add(2*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	signals, err := env.svc.Signaling.GetSignals(ctx, host.ID, game.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, signals)
}
