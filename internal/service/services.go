package service

import (
	"context"
	"errors"

	"github.com/dom/pixelcart/internal/config"
	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/events"
	"github.com/dom/pixelcart/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Services struct {
	Auth      *AuthService
	Cart      *CartService
	Lobby     *LobbyService
	Match     *MatchService
	Signaling *SignalingService
	Stats     *StatsService
}

func NewServices(repos *repository.Repositories, bus events.Publisher, logger *logrus.Logger, cfg *config.Config) *Services {
	return &Services{
		Auth:      NewAuthService(repos.User, repos.Session, cfg),
		Cart:      NewCartService(repos),
		Lobby:     NewLobbyService(repos, bus, logger),
		Match:     NewMatchService(repos, bus, logger),
		Signaling: NewSignalingService(repos, bus, logger),
		Stats:     NewStatsService(repos.Stats),
	}
}

// notFound maps gorm's missing-row error to the given domain error.
func notFound(err error, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}

// publisher sends post-commit notifications. Delivery is best-effort: the
// store is authoritative and clients can always re-read.
type publisher struct {
	bus    events.Publisher
	logger *logrus.Logger
}

func (p publisher) publish(ctx context.Context, topic, eventType string, payload interface{}) {
	if p.bus == nil {
		return
	}
	e, err := events.New(topic, eventType, payload)
	if err == nil {
		err = p.bus.Publish(ctx, e)
	}
	if err != nil {
		p.logger.WithError(err).
			WithFields(logrus.Fields{"topic": topic, "type": eventType}).
			Warn("event publish failed")
	}
}

// countStat bumps a community counter outside the caller's transaction so
// the singleton row is never held for the length of a lobby or match write.
// The counters are advisory; a failed bump is logged.
func (p publisher) countStat(ctx context.Context, counter string, increment func(context.Context) error) {
	if err := increment(ctx); err != nil {
		p.logger.WithError(err).WithField("counter", counter).Warn("stats increment failed")
	}
}

type StatsService struct {
	statsRepo repository.StatsRepository
}

func NewStatsService(statsRepo repository.StatsRepository) *StatsService {
	return &StatsService{statsRepo: statsRepo}
}

// EnsureCommunityStats creates the singleton stats row. Called at bootstrap.
func (s *StatsService) EnsureCommunityStats(ctx context.Context) error {
	return s.statsRepo.Ensure(ctx)
}

func (s *StatsService) Get(ctx context.Context) (*domain.CommunityStats, error) {
	stats, err := s.statsRepo.Get(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.CommunityStats{ID: domain.CommunityStatsID}, nil
	}
	return stats, err
}
