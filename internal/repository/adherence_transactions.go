package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	repoerrors "restwell/internal/infrastructure/errors"
	"restwell/internal/infrastructure/logging"
)

// WithTransaction executes a function within a database transaction with
// retry logic. The repository handed to fn runs its statements on the open
// transaction; nested WithTransaction calls are not supported.
func (r *SQLiteRepository) WithTransaction(ctx context.Context, fn func(repo AdherenceRepository) error) error {
	start := time.Now()

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return r.wrapQueryError("WithTransaction.Begin", err, nil)
		}

		var originalErr error
		var committed bool
		defer func() {
			if !committed && tx != nil {
				if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
					r.logger.Debug("Failed to rollback transaction",
						"rollback_error", rollbackErr,
						"original_error", originalErr)
				}
			}
		}()

		txRepo := &SQLiteRepository{
			db:          r.db,
			q:           tx,
			dbService:   r.dbService,
			retryConfig: r.retryConfig,
			logger:      r.logger,
		}

		if err := fn(txRepo); err != nil {
			// The function returns typed store errors already; pass through
			originalErr = err
			r.logger.Debug("Transaction function failed", "error", err)
			return err
		}

		if err := tx.Commit(); err != nil {
			originalErr = err
			return r.wrapQueryError("WithTransaction.Commit", err, nil)
		}
		committed = true

		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "WithTransaction", time.Since(start), nil)
	}

	return err
}
