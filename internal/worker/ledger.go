// Package worker holds the background side of nutrihelper: the consumer
// that mirrors logged entries into the local ledger and the periodic job
// that turns the ledger into monthly snapshots.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nutrihelper/internal/amqp"
	"nutrihelper/internal/storage"
)

// LedgerAppender stores entry events idempotently.
type LedgerAppender interface {
	AppendLedgerEntry(ctx context.Context, le storage.LedgerEntry) (bool, error)
}

type LedgerWorker struct {
	ledger LedgerAppender
	now    func() time.Time
	logger *slog.Logger
}

func NewLedgerWorker(ledger LedgerAppender, logger *slog.Logger) *LedgerWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerWorker{ledger: ledger, now: time.Now, logger: logger}
}

// HandleEntryLogged appends the message's entry to the ledger. Redelivered
// messages are acknowledged without a second row.
func (w *LedgerWorker) HandleEntryLogged(ctx context.Context, msg *amqp.EntryLoggedMessage) error {
	entry := msg.FoodEntry()
	if err := entry.Validate(); err != nil {
		// retrying cannot fix a bad payload
		w.logger.WarnContext(ctx, "Dropping invalid entry event",
			"event_id", msg.EventID,
			"user", msg.User,
			"error", err)
		return nil
	}

	inserted, err := w.ledger.AppendLedgerEntry(ctx, storage.LedgerEntry{
		EventID:    msg.EventID,
		User:       msg.User,
		Entry:      entry,
		ReceivedAt: w.now(),
	})
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}

	if !inserted {
		w.logger.InfoContext(ctx, "Duplicate entry event ignored", "event_id", msg.EventID)
		return nil
	}
	w.logger.InfoContext(ctx, "Entry added to ledger",
		"event_id", msg.EventID,
		"user", msg.User,
		"consumed_at", entry.ConsumedAt)
	return nil
}
