package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finanse/internal/amqp"
	"finanse/internal/services"
	"finanse/internal/sheets"
	"finanse/internal/storage"
)

// NotifyWorker reacts to ledger changes: it regenerates the owner's
// notifications at most once per minInterval and, when an exporter is
// configured, mirrors the owner's transactions to a spreadsheet.
type NotifyWorker struct {
	ledger        *services.LedgerService
	notifications *services.NotificationService
	exporter      sheets.TransactionExporter
	minInterval   time.Duration
	now           func() time.Time

	mu      sync.Mutex
	lastRun map[string]time.Time
}

func NewNotifyWorker(ledger *services.LedgerService, notifications *services.NotificationService, exporter sheets.TransactionExporter, minInterval time.Duration) *NotifyWorker {
	return &NotifyWorker{
		ledger:        ledger,
		notifications: notifications,
		exporter:      exporter,
		minInterval:   minInterval,
		now:           time.Now,
		lastRun:       make(map[string]time.Time),
	}
}

// WithClock replaces the clock used for throttling.
func (w *NotifyWorker) WithClock(now func() time.Time) *NotifyWorker {
	w.now = now
	return w
}

// HandleLedgerChanged processes one ledger change message from AMQP.
// Returning an error requeues the message.
func (w *NotifyWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	slog.InfoContext(ctx, "Processing ledger change",
		"owner", msg.OwnerID,
		"collection", msg.Collection,
		"timestamp", msg.Timestamp)

	if msg.Collection == storage.Notifications {
		return nil
	}

	if w.shouldGenerate(msg.OwnerID) {
		created, err := w.notifications.Generate(ctx, msg.OwnerID)
		if err != nil {
			w.forget(msg.OwnerID)
			return fmt.Errorf("generate notifications: %w", err)
		}
		slog.InfoContext(ctx, "Generated notifications", "owner", msg.OwnerID, "count", len(created))
	} else {
		slog.DebugContext(ctx, "Skipping generation, ran recently", "owner", msg.OwnerID)
	}

	if msg.Collection == storage.Transactions || msg.Collection == storage.Categories {
		if err := w.export(ctx, msg.OwnerID); err != nil {
			return err
		}
	}
	return nil
}

func (w *NotifyWorker) export(ctx context.Context, owner string) error {
	if w.exporter == nil {
		return nil
	}
	in, err := w.ledger.Inputs(ctx, owner)
	if err != nil {
		return fmt.Errorf("load ledger for export: %w", err)
	}
	ref, err := w.exporter.Export(ctx, owner, sheets.Rows(in.Transactions, in.Categories))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to export transactions", "owner", owner, "error", err)
		return fmt.Errorf("export transactions: %w", err)
	}
	slog.InfoContext(ctx, "Exported transactions",
		"owner", owner,
		"rows", len(in.Transactions),
		"sheets_ref", ref)
	return nil
}

// shouldGenerate records a run for owner unless one happened within
// minInterval.
func (w *NotifyWorker) shouldGenerate(owner string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	if last, ok := w.lastRun[owner]; ok && now.Sub(last) < w.minInterval {
		return false
	}
	w.lastRun[owner] = now
	return true
}

func (w *NotifyWorker) forget(owner string) {
	w.mu.Lock()
	delete(w.lastRun, owner)
	w.mu.Unlock()
}
