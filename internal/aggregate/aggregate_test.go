package aggregate

import (
	"testing"
	"time"

	"finanse/internal/core"
)

func tx(kind core.Kind, amount, cat string, d core.Date) core.Transaction {
	return core.Transaction{Kind: kind, Amount: core.MustMoney(amount), CategoryID: cat, Date: d, Description: "x"}
}

func TestTotals(t *testing.T) {
	empty := Totals(nil)
	if !empty.Income.IsZero() || !empty.Expense.IsZero() || !empty.Balance.IsZero() {
		t.Fatalf("empty input should be all zero, got %+v", empty)
	}

	d := core.NewDate(2025, 1, 1)
	lists := [][]core.Transaction{
		{tx(core.Income, "100", "c", d)},
		{tx(core.Expense, "40.10", "c", d), tx(core.Income, "10", "c", d)},
		{tx(core.Expense, "0.1", "c", d), tx(core.Expense, "0.2", "c", d), tx(core.Income, "0.3", "c", d)},
		{tx("bogus", "99", "c", d)},
	}
	for i, l := range lists {
		s := Totals(l)
		if s.Balance.Cmp(s.Income.Sub(s.Expense)) != 0 {
			t.Fatalf("case %d: balance %s != %s - %s", i, s.Balance, s.Income, s.Expense)
		}
	}
	s := Totals(lists[2])
	if !s.Balance.IsZero() {
		t.Fatalf("expected exact zero balance, got %s", s.Balance)
	}
}

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		pct  float64
		want core.Status
	}{
		{0, core.StatusGood},
		{69.999, core.StatusGood},
		{70, core.StatusWarning},
		{89.999, core.StatusWarning},
		{90, core.StatusDanger},
		{100, core.StatusDanger},
	}
	for _, tc := range cases {
		if got := ClassifyStatus(tc.pct); got != tc.want {
			t.Fatalf("%v: got %s want %s", tc.pct, got, tc.want)
		}
	}
}

func TestBudgetUsage(t *testing.T) {
	b := core.Budget{
		ID:         "b1",
		CategoryID: "food",
		Amount:     core.MustMoney("1000"),
		Period:     core.Monthly,
		StartDate:  core.NewDate(2025, 1, 1),
		EndDate:    core.NewDate(2025, 1, 31),
	}
	txs := []core.Transaction{
		tx(core.Expense, "500", "food", core.NewDate(2025, 1, 1)),
		tx(core.Expense, "450", "food", core.NewDate(2025, 1, 31)),
		tx(core.Expense, "300", "food", core.NewDate(2025, 2, 1)),   // outside window
		tx(core.Expense, "300", "fun", core.NewDate(2025, 1, 10)),   // other category
		tx(core.Income, "300", "food", core.NewDate(2025, 1, 10)),   // income
		tx(core.Expense, "300", "food", core.NewDate(2024, 12, 31)), // before start
	}
	u := BudgetUsage(b, txs)
	if u.Spent.String() != "950.00" {
		t.Fatalf("spent: got %s", u.Spent)
	}
	if u.Percentage != 95 {
		t.Fatalf("percentage: got %v", u.Percentage)
	}
	if u.Status != core.StatusDanger {
		t.Fatalf("status: got %s", u.Status)
	}
}

func TestBudgetUsageClamped(t *testing.T) {
	b := core.Budget{CategoryID: "c", Amount: core.MustMoney("10"), StartDate: core.NewDate(2025, 1, 1), EndDate: core.NewDate(2025, 12, 31)}
	for _, spent := range []string{"0", "5", "10", "11", "100000"} {
		u := BudgetUsage(b, []core.Transaction{tx(core.Expense, spent, "c", core.NewDate(2025, 6, 1))})
		if u.Percentage < 0 || u.Percentage > 100 {
			t.Fatalf("spent %s: percentage %v out of range", spent, u.Percentage)
		}
	}
	if got := RawPercentage(core.MustMoney("15"), core.MustMoney("10")); got != 150 {
		t.Fatalf("raw percentage should not clamp, got %v", got)
	}
}

func TestBudgetUsageNonPositiveAmount(t *testing.T) {
	b := core.Budget{CategoryID: "c", StartDate: core.NewDate(2025, 1, 1), EndDate: core.NewDate(2025, 1, 31)}
	u := BudgetUsage(b, []core.Transaction{tx(core.Expense, "5", "c", core.NewDate(2025, 1, 2))})
	if u.Percentage != 0 || u.Status != core.StatusGood {
		t.Fatalf("expected zero usage, got %+v", u)
	}
}

func TestExpenseByCategory(t *testing.T) {
	cats := []core.Category{{ID: "food", Name: "Food", Color: "#f00"}}
	d := core.NewDate(2025, 1, 1)
	got := ExpenseByCategory([]core.Transaction{
		tx(core.Expense, "10", "ghost", d),
		tx(core.Expense, "5", "food", d),
		tx(core.Income, "100", "food", d),
		tx(core.Expense, "2.5", "ghost", d),
	}, cats)
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(got))
	}
	if got[0].CategoryID != "ghost" || got[0].Name != UnknownCategory.Name || got[0].Amount.String() != "12.50" {
		t.Fatalf("unexpected first group %+v", got[0])
	}
	if got[1].Name != "Food" || got[1].Amount.String() != "5.00" {
		t.Fatalf("unexpected second group %+v", got[1])
	}
}

func TestDailySeries(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	series := DailySeries([]core.Transaction{
		tx(core.Income, "100", "c", core.NewDate(2025, 3, 10)),
		tx(core.Expense, "20", "c", core.NewDate(2025, 3, 4)),
		tx(core.Expense, "99", "c", core.NewDate(2025, 3, 3)), // outside
	}, now, 7)
	if len(series) != 7 {
		t.Fatalf("expected 7 days, got %d", len(series))
	}
	if series[0].Date.String() != "2025-03-04" || series[6].Date.String() != "2025-03-10" {
		t.Fatalf("unexpected range %s..%s", series[0].Date, series[6].Date)
	}
	if series[0].Expense.String() != "20.00" || series[6].Income.String() != "100.00" {
		t.Fatalf("unexpected totals %+v %+v", series[0], series[6])
	}
}

func TestRecentTransactions(t *testing.T) {
	var txs []core.Transaction
	for i := 1; i <= 12; i++ {
		txs = append(txs, tx(core.Expense, "1", "c", core.NewDate(2025, 1, i)))
	}
	got := RecentTransactions(txs, 10)
	if len(got) != 10 {
		t.Fatalf("expected 10, got %d", len(got))
	}
	if got[0].Date.String() != "2025-01-12" || got[9].Date.String() != "2025-01-03" {
		t.Fatalf("unexpected order %s..%s", got[0].Date, got[9].Date)
	}
	if txs[0].Date.String() != "2025-01-01" {
		t.Fatalf("input was modified")
	}
}

func TestResolveCategoryFallback(t *testing.T) {
	c := ResolveCategory("missing", nil)
	if c.ID != "missing" || c.Name != UnknownCategory.Name || c.Color != UnknownCategory.Color {
		t.Fatalf("unexpected fallback %+v", c)
	}
}
