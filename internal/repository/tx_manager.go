package repository

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

type contextKey string

const txKey contextKey = "gorm_tx"

const (
	maxTxAttempts = 3
	txRetryDelay  = 20 * time.Millisecond
)

// TransactionManager runs a unit of work atomically. Repositories called with
// the txCtx handed to fn take part in the same transaction.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewTransactionManager(db *gorm.DB, logger *slog.Logger) TransactionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &transactionManager{db: db, logger: logger}
}

// RunInTx joins an enclosing transaction when ctx already carries one.
// Otherwise it opens a new one and reruns fn after a serialization failure
// or deadlock, so fn must not have side effects outside the database.
func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(context.WithValue(ctx, txKey, tx))
		})
		if err == nil || !retryable(err) {
			return err
		}
		t.logger.WarnContext(ctx, "transaction aborted, retrying",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * txRetryDelay):
		}
	}
	return err
}

// GetDB returns the transaction bound to ctx, or rootDB when there is none.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}
