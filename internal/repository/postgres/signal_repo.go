package postgres

import (
	"context"
	"sort"
	"time"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The outer processed check keeps a row claimed by a concurrent poller
// between our subselect and its commit from being returned twice.
const claimPendingSQL = `
UPDATE signaling_messages SET processed = true
WHERE id IN (
	SELECT id FROM signaling_messages
	WHERE game_instance_id = ? AND to_player_id = ? AND processed = false
	ORDER BY seq
	FOR UPDATE SKIP LOCKED
) AND processed = false
RETURNING id, seq, game_instance_id, from_player_id, to_player_id, signal_type, signal_data, processed, created_at`

type signalRepository struct {
	db *gorm.DB
}

func NewSignalRepository(db *gorm.DB) *signalRepository {
	return &signalRepository{db: db}
}

func (r *signalRepository) Create(ctx context.Context, msg *domain.SignalingMessage) error {
	return r.db.WithContext(ctx).Omit("Seq").Create(msg).Error
}

func (r *signalRepository) ClaimPending(ctx context.Context, gameInstanceID uuid.UUID, toPlayerID int) ([]*domain.SignalingMessage, error) {
	var msgs []*domain.SignalingMessage
	err := r.db.WithContext(ctx).
		Raw(claimPendingSQL, gameInstanceID, toPlayerID).
		Scan(&msgs).Error
	if err != nil {
		return nil, err
	}

	// RETURNING does not preserve the subselect order.
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Seq < msgs[j].Seq })
	return msgs, nil
}

func (r *signalRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.SignalingMessage{})
	return res.RowsAffected, res.Error
}
