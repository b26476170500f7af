package repository

import (
	"time"

	repoerrors "restwell/internal/infrastructure/errors"
	"restwell/internal/infrastructure/logging"
)

// dateKey is the canonical storage key for a calendar day. Dates are keyed
// in the local timezone because rollover follows the user's wall clock.
const dateKeyLayout = "2006-01-02"

func dateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// normalizeDate truncates a timestamp to the start of its local day
func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// wrapQueryError classifies a raw database error, logs it through the
// retryable-at-debug convention, and returns the typed store error.
func (r *SQLiteRepository) wrapQueryError(op string, err error, context map[string]string) *repoerrors.StoreError {
	storeErr := repoerrors.NewWithContext(op, err, r.classifyError(err), context)

	if storeErr.IsRetryable() {
		r.logger.Debug("Retryable error in "+op, "error", err)
	} else {
		logCtx := make(map[string]interface{}, len(context))
		for k, v := range context {
			logCtx[k] = v
		}
		logging.LogStoreError(r.logger, storeErr, op, logCtx)
	}

	return storeErr
}
