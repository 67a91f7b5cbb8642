// Package aggregate computes totals, budget usage and chart series from
// ledger records. Every function is pure and accepts any input, including
// nil slices.
package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"finanse/internal/core"
)

// Status thresholds, in percent.
const (
	WarningThreshold = 70.0
	DangerThreshold  = 90.0
)

// UnknownCategory is shown for references that do not resolve.
var UnknownCategory = core.Category{
	Name:  "Other",
	Icon:  core.DefaultIcon,
	Color: "#9e9e9e",
	Kind:  core.Expense,
}

var hundred = decimal.NewFromInt(100)

// Totals sums income and expense amounts. Balance is income minus expense.
func Totals(txs []core.Transaction) core.Summary {
	income, expense := core.Zero, core.Zero
	for _, t := range txs {
		switch t.Kind {
		case core.Income:
			income = income.Add(t.Amount)
		case core.Expense:
			expense = expense.Add(t.Amount)
		}
	}
	return core.Summary{Income: income, Expense: expense, Balance: income.Sub(expense)}
}

// Spent sums the expenses booked against the budget's category inside its
// date window.
func Spent(b core.Budget, txs []core.Transaction) core.Money {
	spent := core.Zero
	for _, t := range txs {
		if t.Kind != core.Expense || t.CategoryID != b.CategoryID {
			continue
		}
		if !b.Contains(t.Date) {
			continue
		}
		spent = spent.Add(t.Amount)
	}
	return spent
}

// RawPercentage returns spent/amount*100 without clamping.
// A non-positive amount yields 0.
func RawPercentage(spent, amount core.Money) float64 {
	if !amount.IsPositive() {
		return 0
	}
	return spent.Amount.Mul(hundred).Div(amount.Amount).InexactFloat64()
}

// BudgetUsage reports how much of b has been spent. The percentage is
// clamped to [0, 100]. Budgets with a non-positive amount report zero usage.
func BudgetUsage(b core.Budget, txs []core.Transaction) core.Usage {
	if !b.Amount.IsPositive() {
		return core.Usage{Spent: core.Zero, Status: core.StatusGood}
	}
	spent := Spent(b, txs)
	pct := RawPercentage(spent, b.Amount)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return core.Usage{Spent: spent, Percentage: pct, Status: ClassifyStatus(pct)}
}

// ClassifyStatus buckets a percentage. Boundary values fall into the more
// severe bucket: 70 is warning, 90 is danger.
func ClassifyStatus(pct float64) core.Status {
	switch {
	case pct < WarningThreshold:
		return core.StatusGood
	case pct < DangerThreshold:
		return core.StatusWarning
	default:
		return core.StatusDanger
	}
}

// ResolveCategory finds id among cats, falling back to UnknownCategory.
func ResolveCategory(id string, cats []core.Category) core.Category {
	if c, ok := FindCategory(id, cats); ok {
		return c
	}
	unknown := UnknownCategory
	unknown.ID = id
	return unknown
}

func FindCategory(id string, cats []core.Category) (core.Category, bool) {
	for _, c := range cats {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

// ExpenseByCategory groups expenses by category in first-encountered order.
func ExpenseByCategory(txs []core.Transaction, cats []core.Category) []core.CategoryAmount {
	index := make(map[string]int)
	var out []core.CategoryAmount
	for _, t := range txs {
		if t.Kind != core.Expense {
			continue
		}
		i, ok := index[t.CategoryID]
		if !ok {
			c := ResolveCategory(t.CategoryID, cats)
			out = append(out, core.CategoryAmount{
				CategoryID: t.CategoryID,
				Name:       c.Name,
				Color:      c.Color,
				Amount:     core.Zero,
			})
			i = len(out) - 1
			index[t.CategoryID] = i
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}
	return out
}

// DailySeries returns income and expense per day for the last days days,
// ending with the day of now, oldest first.
func DailySeries(txs []core.Transaction, now time.Time, days int) []core.DayTotals {
	if days <= 0 {
		return nil
	}
	today := core.DateOf(now)
	out := make([]core.DayTotals, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		d := core.DateOf(today.AddDate(0, 0, i-days+1))
		out[i] = core.DayTotals{Date: d, Income: core.Zero, Expense: core.Zero}
		index[d.String()] = i
	}
	for _, t := range txs {
		i, ok := index[t.Date.String()]
		if !ok {
			continue
		}
		switch t.Kind {
		case core.Income:
			out[i].Income = out[i].Income.Add(t.Amount)
		case core.Expense:
			out[i].Expense = out[i].Expense.Add(t.Amount)
		}
	}
	return out
}

// RecentTransactions returns up to n transactions, newest date first.
// Ties are ordered by creation time. The input is not modified.
func RecentTransactions(txs []core.Transaction, n int) []core.Transaction {
	sorted := SortByDateDesc(txs)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// SortByDateDesc returns a sorted copy of txs.
func SortByDateDesc(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// BudgetViews joins every budget with its category and usage.
func BudgetViews(budgets []core.Budget, txs []core.Transaction, cats []core.Category) []core.BudgetView {
	out := make([]core.BudgetView, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, core.BudgetView{
			Budget:   b,
			Category: ResolveCategory(b.CategoryID, cats),
			Usage:    BudgetUsage(b, txs),
		})
	}
	return out
}
