package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignGamePlayers(t *testing.T) {
	lobbyPlayers := []domain.LobbyPlayer{player(true), player(true), player(true)}
	gameID := uuid.New()

	got := domain.AssignGamePlayers(gameID, lobbyPlayers)
	require.Len(t, got, 3)

	hosts := 0
	for i, p := range got {
		assert.Equal(t, i+1, p.PlayerID)
		assert.Equal(t, lobbyPlayers[i].UserID, p.UserID)
		assert.Equal(t, gameID, p.GameInstanceID)
		if p.IsHost {
			hosts++
			assert.Equal(t, domain.HostPlayerID, p.PlayerID)
		}
	}
	assert.Equal(t, 1, hosts)

	game := &domain.GameInstance{ID: gameID, Players: got}
	assert.True(t, game.IsHost(lobbyPlayers[0].UserID))
	assert.False(t, game.IsHost(lobbyPlayers[1].UserID))
	assert.Nil(t, game.PlayerByID(4))
	assert.Equal(t, lobbyPlayers[2].UserID, game.PlayerByID(3).UserID)
}

func TestCheckSignalRoute(t *testing.T) {
	tests := []struct {
		name    string
		from    int
		to      int
		wantErr bool
	}{
		{"peer to host", 2, 1, false},
		{"host to peer", 1, 5, false},
		{"peer to peer", 2, 3, true},
		{"self", 1, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.CheckSignalRoute(tt.from, tt.to)
			if tt.wantErr {
				assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestErrorKindMatching(t *testing.T) {
	wrapped := fmt.Errorf("join: %w", domain.ErrLobbyFull)

	assert.True(t, errors.Is(wrapped, domain.ErrLobbyFull))
	assert.False(t, errors.Is(wrapped, domain.ErrAlreadyInLobby))
	assert.Equal(t, domain.KindFull, domain.KindOf(wrapped))
	assert.True(t, domain.IsKind(domain.ErrNotInLobby, domain.KindNotFound))
	assert.Equal(t, domain.ErrorKind(""), domain.KindOf(errors.New("boom")))
}
