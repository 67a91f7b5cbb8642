package services

import (
	"context"
	"testing"
	"time"

	"finanse/internal/core"
)

func TestDashboardLoad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	notifications := newNotifications(f, now)
	dash := NewDashboardService(f.ledger, notifications).WithClock(func() time.Time { return now })

	food := f.category(t, "u1", "Food", core.Expense)
	salary := f.category(t, "u1", "Salary", core.Income)

	for _, tr := range []core.Transaction{
		tx("3000", salary.ID, core.Income, core.NewDate(2025, 3, 1)),
		tx("120.50", food.ID, core.Expense, core.NewDate(2025, 3, 19)),
		tx("30", food.ID, core.Expense, core.NewDate(2025, 3, 20)),
		tx("15", "deleted-category", core.Expense, core.NewDate(2025, 3, 18)),
	} {
		if _, err := f.ledger.AddTransaction(ctx, "u1", tr); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := notifications.Add(ctx, "u1", core.Notification{Title: "hi", Type: core.Update}); err != nil {
		t.Fatal(err)
	}

	d, err := dash.Load(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if d.Summary.Income.String() != "3000.00" || d.Summary.Expense.String() != "165.50" || d.Summary.Balance.String() != "2834.50" {
		t.Fatalf("unexpected summary %+v", d.Summary)
	}
	if len(d.ExpenseByCategory) != 2 {
		t.Fatalf("expected two expense slices, got %+v", d.ExpenseByCategory)
	}
	var other bool
	for _, ca := range d.ExpenseByCategory {
		if ca.Name == "Other" && ca.Amount.String() == "15.00" {
			other = true
		}
	}
	if !other {
		t.Fatalf("unmatched category should fall back to Other: %+v", d.ExpenseByCategory)
	}
	if len(d.Daily) != 7 || d.Daily[6].Date.String() != "2025-03-20" || d.Daily[6].Expense.String() != "30.00" {
		t.Fatalf("unexpected daily series %+v", d.Daily)
	}
	if len(d.Recent) != 4 || d.Recent[0].Date.String() != "2025-03-20" {
		t.Fatalf("unexpected recent list %+v", d.Recent)
	}
	if d.UnreadCount != 1 || len(d.Categories) != 2 {
		t.Fatalf("unexpected unread=%d categories=%d", d.UnreadCount, len(d.Categories))
	}
}

func TestDashboardEmptyOwner(t *testing.T) {
	f := newFixture(t)
	d, err := NewDashboardService(f.ledger, nil).Load(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Summary.Balance.IsZero() || len(d.Recent) != 0 || len(d.Budgets) != 0 {
		t.Fatalf("expected an empty dashboard, got %+v", d)
	}
}
