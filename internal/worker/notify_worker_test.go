package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"finanse/internal/amqp"
	"finanse/internal/core"
	"finanse/internal/notify"
	"finanse/internal/services"
	sheetsmem "finanse/internal/sheets/memory"
	"finanse/internal/storage"
	"finanse/internal/storage/memory"
)

type harness struct {
	mem      *memory.Store
	ledger   *services.LedgerService
	notes    *services.NotificationService
	exporter *sheetsmem.Store
	worker   *NotifyWorker
	clock    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		mem:      memory.New(),
		exporter: sheetsmem.New(),
		clock:    time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return h.clock }
	repo := storage.NewRepository(h.mem, nil)
	h.ledger = services.NewLedgerService(repo, nil, services.DefaultLedgerOptions())
	h.notes = services.NewNotificationService(repo, h.ledger, notify.NewGenerator(repo, notify.WithClock(now)), nil)
	h.worker = NewNotifyWorker(h.ledger, h.notes, h.exporter, time.Hour).WithClock(now)
	return h
}

func TestHandleLedgerChangedThrottlesGeneration(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	msg := amqp.NewLedgerChangedMessage("u1", storage.Budgets)

	if err := h.worker.HandleLedgerChanged(ctx, msg); err != nil {
		t.Fatal(err)
	}
	first := len(h.notes.List(ctx, "u1"))
	if first == 0 {
		t.Fatal("expected notifications after the first change")
	}

	h.clock = h.clock.Add(10 * time.Minute)
	if err := h.worker.HandleLedgerChanged(ctx, msg); err != nil {
		t.Fatal(err)
	}
	if got := len(h.notes.List(ctx, "u1")); got != first {
		t.Fatalf("generation within the interval should be skipped, got %d want %d", got, first)
	}

	h.clock = h.clock.Add(time.Hour)
	if err := h.worker.HandleLedgerChanged(ctx, msg); err != nil {
		t.Fatal(err)
	}
	if got := len(h.notes.List(ctx, "u1")); got <= first {
		t.Fatalf("generation should run again after the interval, got %d", got)
	}
}

func TestHandleLedgerChangedExportsTransactions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cat, err := h.ledger.AddCategory(ctx, "u1", core.Category{Name: "Food", Kind: core.Expense})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.ledger.AddTransaction(ctx, "u1", core.Transaction{
		Amount:      core.MustMoney("42"),
		Description: "market",
		CategoryID:  cat.ID,
		Kind:        core.Expense,
		Date:        core.NewDate(2025, 3, 19),
	}); err != nil {
		t.Fatal(err)
	}

	if err := h.worker.HandleLedgerChanged(ctx, amqp.NewLedgerChangedMessage("u1", storage.Transactions)); err != nil {
		t.Fatal(err)
	}
	rows := h.exporter.Rows("u1")
	if len(rows) != 1 || rows[0].Category != "Food" || rows[0].Amount.String() != "42.00" {
		t.Fatalf("unexpected export %+v", rows)
	}

	// Budget changes do not touch the export.
	if err := h.worker.HandleLedgerChanged(ctx, amqp.NewLedgerChangedMessage("u1", storage.Budgets)); err != nil {
		t.Fatal(err)
	}
	if h.exporter.Exports() != 1 {
		t.Fatalf("expected one export, got %d", h.exporter.Exports())
	}
}

func TestHandleLedgerChangedIgnoresNotifications(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.worker.HandleLedgerChanged(ctx, amqp.NewLedgerChangedMessage("u1", storage.Notifications)); err != nil {
		t.Fatal(err)
	}
	if got := h.notes.List(ctx, "u1"); len(got) != 0 {
		t.Fatalf("expected no notifications, got %d", len(got))
	}
}

func TestHandleLedgerChangedStorageFailureRequeues(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mem.FailWith(errors.New("offline"))

	msg := amqp.NewLedgerChangedMessage("u1", storage.Transactions)
	if err := h.worker.HandleLedgerChanged(ctx, msg); err == nil {
		t.Fatal("expected an error so the message is requeued")
	}

	// A failed run must not count against the throttle.
	h.mem.FailWith(nil)
	if err := h.worker.HandleLedgerChanged(ctx, msg); err != nil {
		t.Fatal(err)
	}
	if got := h.notes.List(ctx, "u1"); len(got) == 0 {
		t.Fatal("expected notifications after recovery")
	}
}
