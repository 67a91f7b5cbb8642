package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"finanse/internal/aggregate"
	"finanse/internal/core"
)

const (
	dashboardDays   = 7
	dashboardRecent = 10
)

// Dashboard is everything the overview page shows.
type Dashboard struct {
	Summary           core.Summary          `json:"summary"`
	ExpenseByCategory []core.CategoryAmount `json:"expenseByCategory"`
	Daily             []core.DayTotals      `json:"daily"`
	Recent            []core.Transaction    `json:"recent"`
	Budgets           []core.BudgetView     `json:"budgets"`
	Categories        []core.Category       `json:"categories"`
	UnreadCount       int                   `json:"unreadCount"`
}

type DashboardService struct {
	ledger        *LedgerService
	notifications *NotificationService
	now           func() time.Time
}

func NewDashboardService(ledger *LedgerService, notifications *NotificationService) *DashboardService {
	return &DashboardService{ledger: ledger, notifications: notifications, now: time.Now}
}

// WithClock replaces the clock used for the daily series.
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

// Load gathers the owner's ledger concurrently and composes the dashboard.
// Every source degrades to empty on failure, so Load never fails on I/O.
func (s *DashboardService) Load(ctx context.Context, owner string) (Dashboard, error) {
	var (
		txs     []core.Transaction
		cats    []core.Category
		budgets []core.Budget
		unread  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, _ = s.ledger.Transactions(gctx, owner)
		return nil
	})
	g.Go(func() error {
		cats, _ = s.ledger.Categories(gctx, owner)
		return nil
	})
	g.Go(func() error {
		budgets = s.ledger.Budgets(gctx, owner)
		return nil
	})
	if s.notifications != nil {
		g.Go(func() error {
			unread = s.notifications.Unread(gctx, owner)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	if err := ctx.Err(); err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		Summary:           aggregate.Totals(txs),
		ExpenseByCategory: aggregate.ExpenseByCategory(txs, cats),
		Daily:             aggregate.DailySeries(txs, s.now(), dashboardDays),
		Recent:            aggregate.RecentTransactions(txs, dashboardRecent),
		Budgets:           aggregate.BudgetViews(budgets, txs, cats),
		Categories:        cats,
		UnreadCount:       unread,
	}, nil
}
