package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finanse/internal/core"
)

func newSQLite(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "finanse.db")
	s, err := NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestSQLiteMigrationsApplied(t *testing.T) {
	_, path := newSQLite(t)
	version, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatal(err)
	}
	if version != 2 || dirty {
		t.Fatalf("unexpected schema version %d dirty=%v", version, dirty)
	}
	// Re-running is a no-op.
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second migration run: %v", err)
	}
}

func TestSQLiteDocuments(t *testing.T) {
	s, _ := newSQLite(t)
	ctx := context.Background()

	if err := s.Put(ctx, "u1", Categories, "a", core.Document{"id": "a", "name": "Food"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "u1", Categories, "b", core.Document{"id": "b", "name": "Rent"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "u1", Categories, "a", core.Document{"id": "a", "name": "Groceries"}); err != nil {
		t.Fatal(err)
	}

	docs, err := s.List(ctx, "u1", Categories)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].String("name") != "Groceries" || docs[1].String("name") != "Rent" {
		t.Fatalf("unexpected docs %v", docs)
	}

	if _, ok, _ := s.Get(ctx, "u2", Categories, "a"); ok {
		t.Fatalf("documents must be scoped by owner")
	}

	if err := s.Delete(ctx, "u1", Categories, "a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "u1", Categories, "a"); err != nil {
		t.Fatalf("deleting twice should not fail: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "u1", Categories, "a"); ok {
		t.Fatalf("document should be gone")
	}
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	s, _ := newSQLite(t)
	repo := NewRepository(s, nil)
	ctx := context.Background()

	b, err := repo.AddBudget(ctx, "u1", core.Budget{
		CategoryID: "c1",
		Amount:     core.MustMoney("1000"),
		Period:     core.Monthly,
		StartDate:  core.NewDate(2025, 1, 1),
		EndDate:    core.NewDate(2025, 1, 31),
	})
	if err != nil {
		t.Fatal(err)
	}
	budgets, err := repo.ListBudgets(ctx, "u1")
	if err != nil || len(budgets) != 1 {
		t.Fatalf("unexpected budgets %v err=%v", budgets, err)
	}
	got := budgets[0]
	if got.ID != b.ID || got.Amount.String() != "1000.00" || got.EndDate.String() != "2025-01-31" {
		t.Fatalf("unexpected budget %+v", got)
	}

	n, err := repo.AddNotification(ctx, "u1", core.Notification{
		Title: "t", Type: core.BudgetAlert, Link: "/budget",
		Data: map[string]any{"budgetId": b.ID, "percentage": 95.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	ns, _ := repo.ListNotifications(ctx, "u1", 50)
	if len(ns) != 1 || ns[0].ID != n.ID || ns[0].Data["percentage"] != 95.5 {
		t.Fatalf("unexpected notifications %+v", ns)
	}
}

func TestSQLiteUsers(t *testing.T) {
	s, _ := newSQLite(t)
	ctx := context.Background()

	u := core.User{ID: "u1", Email: "Ann@Example.com ", PasswordHash: "h", CreatedAt: time.Now()}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateUser(ctx, core.User{ID: "u2", Email: "ann@example.com", PasswordHash: "h"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	got, err := s.UserByEmail(ctx, "ANN@example.com")
	if err != nil || got.ID != "u1" {
		t.Fatalf("lookup by email: %+v err=%v", got, err)
	}

	got.DarkMode = true
	got.DisplayName = "Ann"
	if err := s.UpdateUser(ctx, got); err != nil {
		t.Fatal(err)
	}
	got, _ = s.UserByID(ctx, "u1")
	if !got.DarkMode || got.DisplayName != "Ann" {
		t.Fatalf("update not persisted: %+v", got)
	}

	if _, err := s.UserByID(ctx, "nobody"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
