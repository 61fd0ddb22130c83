package postgres

import (
	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.UserSession{},
		&domain.Cart{},
		&domain.Lobby{},
		&domain.LobbyPlayer{},
		&domain.GameInstance{},
		&domain.GamePlayer{},
		&domain.SignalingMessage{},
		&domain.MatchResult{},
		&domain.MatchResultPlayer{},
		&domain.CommunityStats{},
	)
}

// NewRepositories wires every repository to db. The returned Tx retries
// transient transaction failures up to retryAttempts times.
func NewRepositories(db *gorm.DB, retryAttempts int) *repository.Repositories {
	repos := newRepositories(db)
	repos.Tx = NewTransactor(db, retryAttempts)
	return repos
}

func newRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:         NewUserRepository(db),
		Session:      NewSessionRepository(db),
		Cart:         NewCartRepository(db),
		Lobby:        NewLobbyRepository(db),
		LobbyPlayer:  NewLobbyPlayerRepository(db),
		GameInstance: NewGameInstanceRepository(db),
		Signal:       NewSignalRepository(db),
		MatchResult:  NewMatchResultRepository(db),
		Stats:        NewStatsRepository(db),
	}
}
