package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"muscleup/internal/amqp"
	"muscleup/internal/services"
)

// ResyncWorker re-runs cut synchronization for dates announced on the
// expense.changed queue. Synchronization is a full recompute, so
// duplicate or out-of-order messages are harmless.
type ResyncWorker struct {
	sync *services.CutSynchronizer
}

func NewResyncWorker(sync *services.CutSynchronizer) *ResyncWorker {
	return &ResyncWorker{sync: sync}
}

// HandleExpenseChanged processes a single expense mutation event.
func (w *ResyncWorker) HandleExpenseChanged(ctx context.Context, msg *amqp.ExpenseChangedMessage) error {
	slog.InfoContext(ctx, "Processing expense changed message",
		"expense_id", msg.ExpenseID,
		"date", msg.Date,
		"action", msg.Action)

	info := w.sync.SyncDate(ctx, msg.Date, msg.Actor)
	if info.Error != "" {
		return fmt.Errorf("resync date %s: %s", msg.Date, info.Error)
	}

	if !info.Synchronized {
		slog.InfoContext(ctx, "No cut to resynchronize", "date", msg.Date, "reason", info.Reason)
		return nil
	}

	slog.InfoContext(ctx, "Cut resynchronized",
		"date", msg.Date,
		"cut_number", info.CutNumber,
		"expenses_amount_cents", info.NewAmount.Cents,
		"final_balance_cents", info.NewBalance.Cents)

	return nil
}

// RunPeriodicResync synchronizes today's cut on a fixed interval as a
// backstop for lost messages. Blocks until ctx is cancelled.
func (w *ResyncWorker) RunPeriodicResync(ctx context.Context, interval time.Duration, zone *time.Location) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping periodic resync", "reason", ctx.Err())
			return
		case <-ticker.C:
			today := time.Now().In(zone).Format("2006-01-02")
			info := w.sync.SyncDate(ctx, today, "resync-worker")
			if info.Error != "" {
				slog.ErrorContext(ctx, "Periodic resync failed", "date", today, "error", info.Error)
			}
		}
	}
}
