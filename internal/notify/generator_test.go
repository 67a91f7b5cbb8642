package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"finanse/internal/core"
)

type recordingWriter struct {
	stored []core.Notification
	failOn core.NotificationType
}

func (w *recordingWriter) AddNotification(_ context.Context, owner string, n core.Notification) (core.Notification, error) {
	if n.Type == w.failOn {
		return core.Notification{}, errors.New("write failed")
	}
	n.ID = fmt.Sprintf("n%d", len(w.stored)+1)
	n.OwnerID = owner
	w.stored = append(w.stored, n)
	return n, nil
}

var fixedNow = time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)

func newTestGenerator(w Writer) *Generator {
	return NewGenerator(w, WithClock(func() time.Time { return fixedNow }))
}

func expense(amount, cat string, d core.Date) core.Transaction {
	return core.Transaction{Kind: core.Expense, Amount: core.MustMoney(amount), CategoryID: cat, Date: d}
}

func januaryBudget(id, cat, amount string) core.Budget {
	return core.Budget{
		ID:         id,
		CategoryID: cat,
		Amount:     core.MustMoney(amount),
		Period:     core.Monthly,
		StartDate:  core.NewDate(2025, 1, 1),
		EndDate:    core.NewDate(2025, 1, 31),
	}
}

func byType(ns []core.Notification, typ core.NotificationType) []core.Notification {
	var out []core.Notification
	for _, n := range ns {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func TestNearlyExhaustedAlert(t *testing.T) {
	w := &recordingWriter{}
	g := newTestGenerator(w)
	in := Inputs{
		Transactions: []core.Transaction{
			expense("600", "food", core.NewDate(2025, 1, 5)),
			expense("350", "food", core.NewDate(2025, 1, 15)),
		},
		Budgets:    []core.Budget{januaryBudget("b1", "food", "1000")},
		Categories: []core.Category{{ID: "food", Name: "Groceries", Kind: core.Expense}},
	}

	g.GenerateAll(context.Background(), "u1", in)

	alerts := byType(w.stored, core.BudgetAlert)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.Title != "Budget nearly exhausted" {
		t.Fatalf("unexpected title %q", a.Title)
	}
	if !strings.Contains(a.Message, "Groceries") || !strings.Contains(a.Message, "95%") {
		t.Fatalf("unexpected message %q", a.Message)
	}
	if a.Link != "/budget" || a.Data["budgetId"] != "b1" || a.Data["percentage"] != 95.0 {
		t.Fatalf("unexpected link/data %q %v", a.Link, a.Data)
	}
	if a.IsRead {
		t.Fatalf("new notifications must be unread")
	}
}

func TestAlertThresholds(t *testing.T) {
	cases := []struct {
		spent string
		title string
	}{
		{"740", ""},
		{"750", "Approaching budget limit"},
		{"899.99", "Approaching budget limit"},
		{"900", "Budget nearly exhausted"},
		{"1000", "Budget exceeded"},
		{"1250.50", "Budget exceeded"},
	}
	for _, tc := range cases {
		g := newTestGenerator(&recordingWriter{})
		planned := g.Plan("u1", Inputs{
			Transactions: []core.Transaction{expense(tc.spent, "c", core.NewDate(2025, 1, 2))},
			Budgets:      []core.Budget{januaryBudget("b", "c", "1000")},
			Categories:   []core.Category{{ID: "c", Name: "Misc"}},
		})
		alerts := byType(planned, core.BudgetAlert)
		if tc.title == "" {
			if len(alerts) != 0 {
				t.Fatalf("spent %s: expected no alert, got %v", tc.spent, alerts)
			}
			continue
		}
		if len(alerts) != 1 || alerts[0].Title != tc.title {
			t.Fatalf("spent %s: expected %q, got %v", tc.spent, tc.title, alerts)
		}
	}
}

func TestExceededAlertReportsOverage(t *testing.T) {
	g := newTestGenerator(&recordingWriter{})
	planned := g.Plan("u1", Inputs{
		Transactions: []core.Transaction{expense("1250.5", "c", core.NewDate(2025, 1, 2))},
		Budgets:      []core.Budget{januaryBudget("b", "c", "1000")},
		Categories:   []core.Category{{ID: "c", Name: "Misc"}},
	})
	alert := byType(planned, core.BudgetAlert)[0]
	if !strings.Contains(alert.Message, "250.50 PLN") {
		t.Fatalf("expected overage in message, got %q", alert.Message)
	}
	if alert.Data["percentage"] != 125.05 {
		t.Fatalf("payload should carry the unclamped percentage, got %v", alert.Data["percentage"])
	}
}

func TestUnresolvedBudgetCategoryIsSkipped(t *testing.T) {
	g := newTestGenerator(&recordingWriter{})
	planned := g.Plan("u1", Inputs{
		Transactions: []core.Transaction{expense("2000", "gone", core.NewDate(2025, 1, 2))},
		Budgets:      []core.Budget{januaryBudget("b", "gone", "1000")},
	})
	if alerts := byType(planned, core.BudgetAlert); len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %v", alerts)
	}
}

func TestSavingsTip(t *testing.T) {
	cats := []core.Category{
		{ID: "f", Name: "Jedzenie"},
		{ID: "e", Name: "Rozrywka"},
		{ID: "x", Name: "Hobby"},
	}
	cases := []struct {
		name string
		txs  []core.Transaction
		want string
		cat  string
	}{
		{
			name: "keyword match is case-insensitive",
			txs: []core.Transaction{
				expense("10", "e", core.NewDate(2025, 1, 10)),
				expense("50", "f", core.NewDate(2025, 1, 10)),
			},
			want: mealTip,
			cat:  "f",
		},
		{
			name: "first encountered wins ties",
			txs: []core.Transaction{
				expense("20", "e", core.NewDate(2025, 1, 10)),
				expense("20", "f", core.NewDate(2025, 1, 11)),
			},
			want: entertainmentTip,
			cat:  "e",
		},
		{
			name: "generic fallback",
			txs:  []core.Transaction{expense("5", "x", core.NewDate(2025, 1, 19))},
			want: `Keep an eye on spending in category "Hobby"`,
			cat:  "x",
		},
		{
			name: "outside window ignored",
			txs: []core.Transaction{
				expense("500", "f", core.NewDate(2024, 12, 1)),
				expense("1", "x", core.NewDate(2025, 1, 19)),
			},
			want: `"Hobby"`,
			cat:  "x",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGenerator(&recordingWriter{})
			tips := byType(g.Plan("u1", Inputs{Transactions: tc.txs, Categories: cats}), core.Tip)
			if len(tips) != 1 {
				t.Fatalf("expected 1 tip, got %d", len(tips))
			}
			if !strings.Contains(tips[0].Message, tc.want) {
				t.Fatalf("expected %q in %q", tc.want, tips[0].Message)
			}
			if tips[0].Link != "/transactions" || tips[0].Data["categoryId"] != tc.cat {
				t.Fatalf("unexpected link/data %q %v", tips[0].Link, tips[0].Data)
			}
		})
	}
}

func TestNoTipWithoutRecentExpenses(t *testing.T) {
	g := newTestGenerator(&recordingWriter{})
	planned := g.Plan("u1", Inputs{
		Transactions: []core.Transaction{{Kind: core.Income, Amount: core.MustMoney("100"), CategoryID: "s", Date: core.NewDate(2025, 1, 19)}},
		Categories:   []core.Category{{ID: "s", Name: "Salary"}},
	})
	if tips := byType(planned, core.Tip); len(tips) != 0 {
		t.Fatalf("expected no tip, got %v", tips)
	}
}

func TestGenerateAllIsNotIdempotent(t *testing.T) {
	w := &recordingWriter{}
	g := newTestGenerator(w)

	g.GenerateAll(context.Background(), "u1", Inputs{})
	g.GenerateAll(context.Background(), "u1", Inputs{})

	updates := byType(w.stored, core.Update)
	if len(updates) != 2 {
		t.Fatalf("expected duplicate announcements, got %d", len(updates))
	}
	if updates[0].Link != "/" {
		t.Fatalf("unexpected link %q", updates[0].Link)
	}
}

func TestGenerateAllSwallowsWriteErrors(t *testing.T) {
	w := &recordingWriter{failOn: core.BudgetAlert}
	g := newTestGenerator(w)
	stored := g.GenerateAll(context.Background(), "u1", Inputs{
		Transactions: []core.Transaction{expense("2000", "c", core.NewDate(2025, 1, 2))},
		Budgets:      []core.Budget{januaryBudget("b", "c", "1000")},
		Categories:   []core.Category{{ID: "c", Name: "Misc"}},
	})
	if len(stored) != 2 {
		t.Fatalf("expected tip and announcement to be stored, got %d", len(stored))
	}
}

func TestCurrencyOption(t *testing.T) {
	g := NewGenerator(&recordingWriter{}, WithClock(func() time.Time { return fixedNow }), WithCurrency("EUR"))
	planned := g.Plan("u1", Inputs{
		Transactions: []core.Transaction{expense("1100", "c", core.NewDate(2025, 1, 2))},
		Budgets:      []core.Budget{januaryBudget("b", "c", "1000")},
		Categories:   []core.Category{{ID: "c", Name: "Misc"}},
	})
	if msg := byType(planned, core.BudgetAlert)[0].Message; !strings.Contains(msg, "100.00 EUR") {
		t.Fatalf("unexpected message %q", msg)
	}
}
