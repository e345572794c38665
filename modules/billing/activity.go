package billing

import (
	"context"
	"log/slog"
	"time"
)

// Suspicious-activity thresholds over a rolling window. Crossing one flags
// the user in logs for operator review; it never blocks the request, since
// throttling is the rate limiter's job and a false positive here must not
// lock a paying customer out of checkout.
const (
	activityWindow     = time.Hour
	maxOrdersPerWindow = 5
	maxFailuresPerWin  = 3
)

// activityTracker watches per-user order and failure volume.
type activityTracker struct {
	orders   OrderStore
	payments PaymentStore
	log      *slog.Logger
	now      func() time.Time
}

func newActivityTracker(orders OrderStore, payments PaymentStore, log *slog.Logger, now func() time.Time) *activityTracker {
	return &activityTracker{orders: orders, payments: payments, log: log, now: now}
}

// noteOrderCreated checks order volume after a new order is recorded.
func (t *activityTracker) noteOrderCreated(ctx context.Context, userID string) {
	since := t.now().Add(-activityWindow)
	n, err := t.orders.CountRecentOrders(ctx, userID, since)
	if err != nil {
		t.log.WarnContext(ctx, "activity check failed", slog.Any("error", err))
		return
	}
	if n > maxOrdersPerWindow {
		t.log.WarnContext(ctx, "suspicious activity: excessive order creation",
			slog.String("user_id", userID),
			slog.Int("orders_last_hour", n))
	}
}

// noteFailure checks failed-payment volume after a failure is recorded.
func (t *activityTracker) noteFailure(ctx context.Context, userID string) {
	since := t.now().Add(-activityWindow)
	n, err := t.payments.CountRecentFailures(ctx, userID, since)
	if err != nil {
		t.log.WarnContext(ctx, "activity check failed", slog.Any("error", err))
		return
	}
	if n > maxFailuresPerWin {
		t.log.WarnContext(ctx, "suspicious activity: repeated payment failures",
			slog.String("user_id", userID),
			slog.Int("failures_last_hour", n))
	}
}
