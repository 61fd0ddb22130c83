package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dom/pixelcart/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

type transactor struct {
	db       *gorm.DB
	attempts int
}

func NewTransactor(db *gorm.DB, attempts int) *transactor {
	if attempts < 1 {
		attempts = 1
	}
	return &transactor{db: db, attempts: attempts}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond

	op := func() error {
		err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repos := newRepositories(tx)
			// nested calls become savepoints and are not retried on their own
			repos.Tx = &transactor{db: tx, attempts: 1}
			return fn(repos)
		})
		if err == nil || isRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(t.attempts-1)), ctx))
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}
