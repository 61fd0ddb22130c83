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

func TestUserRepository_Create(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	first := &domain.User{
		ID:           uuid.New(),
		Username:     "testuser",
		PasswordHash: "hashedpassword",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, repo.Create(ctx, first))

	dup := &domain.User{
		ID:           uuid.New(),
		Username:     "testuser",
		PasswordHash: "hashedpassword2",
	}
	err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUserRepository_Lookup(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().WithUsername("lookup_user").Build(t, testDB.DB)

	tests := []struct {
		name    string
		lookup  func() (*domain.User, error)
		wantErr bool
	}{
		{
			name:   "by id",
			lookup: func() (*domain.User, error) { return repo.GetByID(ctx, user.ID) },
		},
		{
			name:   "by username",
			lookup: func() (*domain.User, error) { return repo.GetByUsername(ctx, "lookup_user") },
		},
		{
			name:    "unknown id",
			lookup:  func() (*domain.User, error) { return repo.GetByID(ctx, uuid.New()) },
			wantErr: true,
		},
		{
			name:    "unknown username",
			lookup:  func() (*domain.User, error) { return repo.GetByUsername(ctx, "nobody") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.lookup()
			if tt.wantErr {
				assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
			assert.Equal(t, user.Username, got.Username)
		})
	}
}

func TestUserRepository_Update(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().WithUsername("update_user").Build(t, testDB.DB)
	other, _ := testutil.NewUserBuilder().WithUsername("taken_name").Build(t, testDB.DB)

	user.Username = "updated_user"
	require.NoError(t, repo.Update(ctx, user))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated_user", got.Username)

	user.Username = other.Username
	assert.ErrorIs(t, repo.Update(ctx, user), repository.ErrDuplicate)
}
