package thumbnail

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/slidecast/slidecast/internal/db"
	"github.com/slidecast/slidecast/internal/logger"
)

// Failure classification stored in the log and used for alert grouping.
const (
	ErrorTypeSubmission = "external-submission-error"
	ErrorTypeConversion = "external-conversion-error"
)

// FailureWindow is the trailing window the notification check counts over.
const FailureWindow = 24 * time.Hour

// NotifyThreshold is the failure count at which operators get paged.
const NotifyThreshold = 3

type FailureStore interface {
	InsertFailureLog(ctx context.Context, arg db.InsertFailureLogParams) error
	CountFailuresSince(ctx context.Context, arg db.CountFailuresSinceParams) (int64, error)
}

// Recorder appends failure log entries and answers the rolling count the
// alerting path uses. Recording never fails the caller.
type Recorder struct {
	store FailureStore
	now   func() time.Time
}

func NewRecorder(store FailureStore) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record appends a failure entry. A write error is logged and swallowed;
// the primary flow must not abort because bookkeeping did.
func (r *Recorder) Record(ctx context.Context, tenantID, eventID, slideID pgtype.UUID, errorType, message string) {
	err := r.store.InsertFailureLog(ctx, db.InsertFailureLogParams{
		TenantID:     tenantID,
		EventID:      eventID,
		SlideID:      slideID,
		ErrorType:    errorType,
		ErrorMessage: message,
	})
	if err != nil {
		logger.FromContext(ctx).Error("failed to record failure log entry",
			"error", err,
			"error_type", errorType,
		)
	}
}

// ConsecutiveFailureCount counts entries for the event inside the window.
func (r *Recorder) ConsecutiveFailureCount(ctx context.Context, eventID pgtype.UUID) (int64, error) {
	since := r.now().Add(-FailureWindow)
	return r.store.CountFailuresSince(ctx, db.CountFailuresSinceParams{
		EventID: eventID,
		Since:   pgtype.Timestamptz{Time: since, Valid: true},
	})
}

// ShouldNotify reports whether a failure count warrants escalation.
func ShouldNotify(count int64) bool {
	return count >= NotifyThreshold
}
