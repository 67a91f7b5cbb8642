// Package notify turns ledger aggregates into user-facing notifications.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"finanse/internal/aggregate"
	"finanse/internal/core"
)

// Alert thresholds on the unclamped usage percentage.
const (
	ExceededPercent    = 100.0
	NearlyOutPercent   = 90.0
	ApproachingPercent = 75.0
)

// TipWindow is how far back the savings tip looks.
const TipWindow = 30 * 24 * time.Hour

// Writer persists one notification for owner and returns it with its id.
type Writer interface {
	AddNotification(ctx context.Context, owner string, n core.Notification) (core.Notification, error)
}

// Inputs is the ledger snapshot a generation pass works on.
type Inputs struct {
	Transactions []core.Transaction
	Budgets      []core.Budget
	Categories   []core.Category
}

type Generator struct {
	writer   Writer
	currency string
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Generator)

// WithCurrency sets the label used in amounts, PLN by default.
func WithCurrency(code string) Option {
	return func(g *Generator) {
		if code != "" {
			g.currency = code
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

func NewGenerator(w Writer, opts ...Option) *Generator {
	g := &Generator{
		writer:   w,
		currency: "PLN",
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "notify")
	return g
}

// GenerateAll emits budget alerts, at most one savings tip and the feature
// announcement. Every call writes a new announcement; callers decide how
// often to call it. Write failures are logged and skipped. It returns the
// notifications that were stored.
func (g *Generator) GenerateAll(ctx context.Context, owner string, in Inputs) []core.Notification {
	planned := g.Plan(owner, in)
	stored := make([]core.Notification, 0, len(planned))
	for _, n := range planned {
		saved, err := g.writer.AddNotification(ctx, owner, n)
		if err != nil {
			g.logger.ErrorContext(ctx, "Failed to store notification",
				"owner", owner, "type", n.Type, "error", err)
			continue
		}
		stored = append(stored, saved)
	}
	g.logger.InfoContext(ctx, "Notifications generated",
		"owner", owner, "planned", len(planned), "stored", len(stored))
	return stored
}

// Plan computes the notifications GenerateAll would write, without side effects.
func (g *Generator) Plan(owner string, in Inputs) []core.Notification {
	now := g.now().UTC()
	var out []core.Notification
	out = append(out, g.budgetAlerts(owner, now, in)...)
	if tip, ok := g.savingsTip(owner, now, in); ok {
		out = append(out, tip)
	}
	out = append(out, announcement(owner, now))
	return out
}

func (g *Generator) budgetAlerts(owner string, now time.Time, in Inputs) []core.Notification {
	var out []core.Notification
	for _, b := range in.Budgets {
		if !b.Amount.IsPositive() {
			continue
		}
		cat, ok := aggregate.FindCategory(b.CategoryID, in.Categories)
		if !ok {
			continue
		}
		spent := aggregate.Spent(b, in.Transactions)
		pct := aggregate.RawPercentage(spent, b.Amount)

		var title, msg string
		switch {
		case pct >= ExceededPercent:
			title = "Budget exceeded"
			msg = fmt.Sprintf("You have exceeded the budget for category %q by %s %s.",
				cat.Name, spent.Sub(b.Amount), g.currency)
		case pct >= NearlyOutPercent:
			title = "Budget nearly exhausted"
			msg = fmt.Sprintf("You have already used %s%% of the budget for category %q.",
				wholePercent(pct), cat.Name)
		case pct >= ApproachingPercent:
			title = "Approaching budget limit"
			msg = fmt.Sprintf("You have already used %s%% of the budget for category %q.",
				wholePercent(pct), cat.Name)
		default:
			continue
		}
		out = append(out, core.Notification{
			OwnerID:   owner,
			Title:     title,
			Message:   msg,
			Type:      core.BudgetAlert,
			CreatedAt: now,
			Link:      "/budget",
			Data:      map[string]any{"budgetId": b.ID, "percentage": pct},
		})
	}
	return out
}

// savingsTip picks the category with the largest expense total in the
// trailing window. Ties keep the category seen first.
func (g *Generator) savingsTip(owner string, now time.Time, in Inputs) (core.Notification, bool) {
	since := now.Add(-TipWindow)
	totals := make(map[string]core.Money)
	var order []string
	for _, t := range in.Transactions {
		if t.Kind != core.Expense || t.Date.Before(since) {
			continue
		}
		if _, seen := totals[t.CategoryID]; !seen {
			order = append(order, t.CategoryID)
			totals[t.CategoryID] = core.Zero
		}
		totals[t.CategoryID] = totals[t.CategoryID].Add(t.Amount)
	}

	var bestID string
	best := core.Zero
	for _, id := range order {
		if totals[id].Cmp(best) > 0 {
			bestID, best = id, totals[id]
		}
	}
	if bestID == "" {
		return core.Notification{}, false
	}
	cat, ok := aggregate.FindCategory(bestID, in.Categories)
	if !ok {
		return core.Notification{}, false
	}
	return core.Notification{
		OwnerID:   owner,
		Title:     "Savings tip",
		Message:   tipFor(cat.Name),
		Type:      core.Tip,
		CreatedAt: now,
		Link:      "/transactions",
		Data:      map[string]any{"categoryId": cat.ID},
	}, true
}

const (
	mealTip          = "Plan meals ahead and shop with a list to spend less on food."
	entertainmentTip = "Look for free or cheaper entertainment, such as free events or promotions."
	transportTip     = "Consider public transport or sharing rides to save on transport."
)

var tipsByCategory = map[string]string{
	"jedzenie":      mealTip,
	"żywność":       mealTip,
	"food":          mealTip,
	"rozrywka":      entertainmentTip,
	"entertainment": entertainmentTip,
	"transport":     transportTip,
}

func tipFor(categoryName string) string {
	if tip, ok := tipsByCategory[strings.ToLower(strings.TrimSpace(categoryName))]; ok {
		return tip
	}
	return fmt.Sprintf("Keep an eye on spending in category %q, your largest expense category over the last month.", categoryName)
}

func announcement(owner string, now time.Time) core.Notification {
	return core.Notification{
		OwnerID:   owner,
		Title:     "New feature: Notifications",
		Message:   "We added notifications that keep you informed about important events and help you manage your finances.",
		Type:      core.Update,
		CreatedAt: now,
		Link:      "/",
	}
}

func wholePercent(p float64) string {
	return strconv.FormatFloat(math.Round(p), 'f', 0, 64)
}
