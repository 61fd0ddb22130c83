package pagination_test

import (
	"testing"
	"time"

	"github.com/dom/pixelcart/internal/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampPageSize(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, pagination.DefaultPageSize},
		{-3, pagination.DefaultPageSize},
		{7, 7},
		{pagination.MaxPageSize + 1, pagination.MaxPageSize},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pagination.ClampPageSize(tt.in))
	}
}

func TestCursorToken(t *testing.T) {
	c := pagination.Cursor{CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 123000, time.UTC), ID: uuid.New()}

	got, err := pagination.DecodeToken(c.Encode())
	require.NoError(t, err)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, c.ID, got.ID)
}

func TestDecodeToken_Invalid(t *testing.T) {
	got, err := pagination.DecodeToken("")
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, token := range []string{"%%%", "bm90IGpzb24", "e30"} {
		_, err := pagination.DecodeToken(token)
		assert.Error(t, err, token)
	}
}
