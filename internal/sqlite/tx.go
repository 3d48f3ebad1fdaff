package sqlite

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// Transaction retry parameters. Retries apply only to transient lock
// conflicts surfaced before the unit of work observed any state.
const (
	txMaxAttempts   = 5
	txRetryBaseWait = 10 * time.Millisecond
)

// runTx executes fn inside a transaction, retrying the whole unit of work
// on transient lock conflicts. The readOnly flag documents intent and
// keeps readers off the write path; SQLite serializes writers regardless.
func (b *Backend) runTx(ctx context.Context, readOnly bool, fn func(tx *sql.Tx) error) error {
	db, err := b.handle()
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		lastErr = runTxOnce(ctx, db, readOnly, fn)
		if lastErr == nil || !isBusy(lastErr) {
			return lastErr
		}

		b.log.Debug("transaction busy, retrying",
			zap.Int("attempt", attempt),
			zap.Error(lastErr))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(txRetryBaseWait * time.Duration(attempt)):
		}
	}
	return lastErr
}

func runTxOnce(ctx context.Context, db *sql.DB, readOnly bool, fn func(tx *sql.Tx) error) error {
	// The driver treats every transaction the same; readOnly is not
	// passed down because the unit of work already never writes on the
	// read paths. WAL keeps readers from blocking the single writer.
	_ = readOnly
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
