package service

import (
	"context"
	"time"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/dom/pixelcart/internal/events"
	"github.com/dom/pixelcart/internal/repository"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const maxSignalDataBytes = 64 * 1024

type SignalingService struct {
	repos *repository.Repositories
	pub   publisher
}

func NewSignalingService(repos *repository.Repositories, bus events.Publisher, logger *logrus.Logger) *SignalingService {
	return &SignalingService{
		repos: repos,
		pub:   publisher{bus: bus, logger: logger},
	}
}

type SendSignalInput struct {
	GameInstanceID uuid.UUID
	FromPlayerID   int
	ToPlayerID     int
	SignalType     domain.SignalType
	SignalData     []byte
}

func validateSignal(input SendSignalInput) error {
	if !input.SignalType.Valid() {
		return domain.InvalidArgument("signalType must be offer, answer or ice-candidate")
	}
	if len(input.SignalData) == 0 || !json.Valid(input.SignalData) {
		return domain.InvalidArgument("signalData must be a JSON value")
	}
	if len(input.SignalData) > maxSignalDataBytes {
		return domain.InvalidArgument("signalData is too large")
	}
	return domain.CheckSignalRoute(input.FromPlayerID, input.ToPlayerID)
}

// SendSignal stores a negotiation message in the receiver's mailbox. The
// sender must own fromPlayerId, and one side of the route must be the host.
func (s *SignalingService) SendSignal(ctx context.Context, callerID uuid.UUID, input SendSignalInput) (*domain.SignalingMessage, error) {
	game, err := s.repos.GameInstance.GetByID(ctx, input.GameInstanceID)
	if err != nil {
		return nil, notFound(err, domain.ErrGameNotFound)
	}
	if game.Status == domain.GameStatusEnded {
		return nil, domain.ErrInvalidGameState
	}
	if err := validateSignal(input); err != nil {
		return nil, err
	}

	from := game.PlayerByID(input.FromPlayerID)
	if from == nil || from.UserID != callerID {
		return nil, domain.ErrNotYourPlayer
	}
	if game.PlayerByID(input.ToPlayerID) == nil {
		return nil, domain.ErrPlayerNotInGame
	}

	msg := &domain.SignalingMessage{
		ID:             uuid.New(),
		GameInstanceID: game.ID,
		FromPlayerID:   input.FromPlayerID,
		ToPlayerID:     input.ToPlayerID,
		SignalType:     input.SignalType,
		SignalData:     datatypes.JSON(input.SignalData),
		CreatedAt:      time.Now(),
	}
	if err := s.repos.Signal.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.pub.publish(ctx, events.PlayerTopic(game.ID, input.ToPlayerID), events.TypeSignalPending, nil)
	return msg, nil
}

// GetSignals drains the caller's mailbox. Every returned message is marked
// processed in the same statement, so it is never delivered twice.
func (s *SignalingService) GetSignals(ctx context.Context, callerID, gameID uuid.UUID, forPlayerID int) ([]domain.Signal, error) {
	game, err := s.repos.GameInstance.GetByID(ctx, gameID)
	if err != nil {
		return nil, notFound(err, domain.ErrGameNotFound)
	}
	player := game.PlayerByID(forPlayerID)
	if player == nil {
		return nil, domain.ErrPlayerNotInGame
	}
	if player.UserID != callerID {
		return nil, domain.ErrNotYourPlayer
	}

	msgs, err := s.repos.Signal.ClaimPending(ctx, gameID, forPlayerID)
	if err != nil {
		return nil, err
	}

	signals := make([]domain.Signal, 0, len(msgs))
	for _, m := range msgs {
		signals = append(signals, m.ToSignal())
	}
	return signals, nil
}

// SignalSweeper deletes mailbox rows older than the TTL.
type SignalSweeper struct {
	signalRepo repository.SignalRepository
	ttl        time.Duration
	interval   time.Duration
	logger     *logrus.Logger
}

func NewSignalSweeper(signalRepo repository.SignalRepository, ttl, interval time.Duration, logger *logrus.Logger) *SignalSweeper {
	return &SignalSweeper{
		signalRepo: signalRepo,
		ttl:        ttl,
		interval:   interval,
		logger:     logger,
	}
}

func (s *SignalSweeper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	return s.signalRepo.DeleteOlderThan(ctx, now.Add(-s.ttl))
}

// Run sweeps every interval until ctx is cancelled.
func (s *SignalSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := s.Sweep(ctx, now)
			if err != nil {
				s.logger.WithError(err).Error("signal sweep failed")
				continue
			}
			if n > 0 {
				s.logger.WithField("deleted", n).Debug("expired signals removed")
			}
		}
	}
}
