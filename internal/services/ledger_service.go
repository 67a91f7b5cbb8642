package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finanse/internal/aggregate"
	"finanse/internal/cache"
	"finanse/internal/core"
	"finanse/internal/notify"
	"finanse/internal/storage"
)

// Publisher announces ledger writes to other processes.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, owner, collection string) error
}

// LedgerOptions tunes the read caches of a LedgerService.
type LedgerOptions struct {
	CategoriesTTL       time.Duration
	TransactionsTTL     time.Duration
	TransactionsTimeout time.Duration

	// Snapshot stores; in-process LRU stores are used when nil.
	CategoryStore    cache.SnapshotStore[core.Category]
	TransactionStore cache.SnapshotStore[core.Transaction]

	Logger *slog.Logger
}

// DefaultLedgerOptions returns the cache timings the application ships with.
func DefaultLedgerOptions() LedgerOptions {
	return LedgerOptions{
		CategoriesTTL:       60 * time.Second,
		TransactionsTTL:     30 * time.Minute,
		TransactionsTimeout: time.Second,
	}
}

// LedgerService owns categories, transactions and budgets for every owner.
// Reads of categories and transactions go through per-owner caches; every
// write invalidates them and publishes a ledger change.
type LedgerService struct {
	repo         *storage.Repository
	publisher    Publisher
	categories   *cache.Reader[core.Category]
	transactions *cache.Reader[core.Transaction]
	logger       *slog.Logger
}

func NewLedgerService(repo *storage.Repository, publisher Publisher, opts LedgerOptions) *LedgerService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CategoryStore == nil {
		opts.CategoryStore = cache.NewLRUStore[core.Category](1024, 24*time.Hour)
	}
	if opts.TransactionStore == nil {
		opts.TransactionStore = cache.NewLRUStore[core.Transaction](1024, 24*time.Hour)
	}

	s := &LedgerService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.With("component", "ledger"),
	}
	s.categories = cache.NewReader[core.Category](opts.CategoryStore, repo.ListCategories, cache.Options{
		Collection: storage.Categories,
		TTL:        opts.CategoriesTTL,
		KeepEmpty:  false,
		Logger:     logger,
	})
	s.transactions = cache.NewReader[core.Transaction](opts.TransactionStore, repo.ListTransactions, cache.Options{
		Collection:  storage.Transactions,
		TTL:         opts.TransactionsTTL,
		RaceTimeout: opts.TransactionsTimeout,
		KeepEmpty:   true,
		Logger:      logger,
	})
	return s
}

// Categories returns the owner's categories and whether they came from cache.
func (s *LedgerService) Categories(ctx context.Context, owner string) ([]core.Category, bool) {
	if owner == "" {
		return []core.Category{}, false
	}
	return s.categories.Get(ctx, owner)
}

// Transactions returns the owner's transactions, newest first.
func (s *LedgerService) Transactions(ctx context.Context, owner string) ([]core.Transaction, bool) {
	if owner == "" {
		return []core.Transaction{}, false
	}
	txs, fromCache := s.transactions.Get(ctx, owner)
	return aggregate.SortByDateDesc(txs), fromCache
}

// Budgets returns the owner's budgets; storage failures yield an empty list.
func (s *LedgerService) Budgets(ctx context.Context, owner string) []core.Budget {
	if owner == "" {
		return []core.Budget{}
	}
	budgets, err := s.repo.ListBudgets(ctx, owner)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list budgets", "owner", owner, "error", err)
		return []core.Budget{}
	}
	return budgets
}

// BudgetViews joins each budget with its category and current usage.
func (s *LedgerService) BudgetViews(ctx context.Context, owner string) []core.BudgetView {
	budgets := s.Budgets(ctx, owner)
	txs, _ := s.Transactions(ctx, owner)
	cats, _ := s.Categories(ctx, owner)
	return aggregate.BudgetViews(budgets, txs, cats)
}

// Inputs loads an uncached snapshot of the owner's ledger for notification
// generation.
func (s *LedgerService) Inputs(ctx context.Context, owner string) (notify.Inputs, error) {
	txs, err := s.repo.ListTransactions(ctx, owner)
	if err != nil {
		return notify.Inputs{}, err
	}
	budgets, err := s.repo.ListBudgets(ctx, owner)
	if err != nil {
		return notify.Inputs{}, err
	}
	cats, err := s.repo.ListCategories(ctx, owner)
	if err != nil {
		return notify.Inputs{}, err
	}
	return notify.Inputs{Transactions: txs, Budgets: budgets, Categories: cats}, nil
}

func (s *LedgerService) AddCategory(ctx context.Context, owner string, c core.Category) (core.Category, error) {
	if owner == "" {
		return core.Category{}, core.ErrUnauthenticated
	}
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	existing, err := s.repo.ListCategories(ctx, owner)
	if err != nil {
		return core.Category{}, fmt.Errorf("check duplicates: %w", err)
	}
	for _, e := range existing {
		if categoryKey(e) == categoryKey(c) {
			return core.Category{}, core.ErrDuplicateCategory
		}
	}
	saved, err := s.repo.AddCategory(ctx, owner, c)
	if err != nil {
		return core.Category{}, err
	}
	s.changed(ctx, owner, storage.Categories)
	return saved, nil
}

// DeleteCategory removes a category that no transaction or budget uses.
func (s *LedgerService) DeleteCategory(ctx context.Context, owner, id string) error {
	if owner == "" {
		return core.ErrUnauthenticated
	}
	inUse, err := s.categoryInUse(ctx, owner, id)
	if err != nil {
		return err
	}
	if inUse {
		return core.ErrCategoryInUse
	}
	if err := s.repo.DeleteCategory(ctx, owner, id); err != nil {
		return err
	}
	s.changed(ctx, owner, storage.Categories)
	return nil
}

func (s *LedgerService) categoryInUse(ctx context.Context, owner, id string) (bool, error) {
	txs, err := s.repo.ListTransactions(ctx, owner)
	if err != nil {
		return false, fmt.Errorf("check references: %w", err)
	}
	for _, t := range txs {
		if t.CategoryID == id {
			return true, nil
		}
	}
	budgets, err := s.repo.ListBudgets(ctx, owner)
	if err != nil {
		return false, fmt.Errorf("check references: %w", err)
	}
	for _, b := range budgets {
		if b.CategoryID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *LedgerService) AddTransaction(ctx context.Context, owner string, t core.Transaction) (core.Transaction, error) {
	if owner == "" {
		return core.Transaction{}, core.ErrUnauthenticated
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	saved, err := s.repo.AddTransaction(ctx, owner, t)
	if err != nil {
		return core.Transaction{}, err
	}
	s.changed(ctx, owner, storage.Transactions)
	return saved, nil
}

// ReplaceTransaction overwrites every field of an existing transaction.
func (s *LedgerService) ReplaceTransaction(ctx context.Context, owner string, t core.Transaction) (core.Transaction, error) {
	if owner == "" {
		return core.Transaction{}, core.ErrUnauthenticated
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	saved, err := s.repo.ReplaceTransaction(ctx, owner, t)
	if err != nil {
		return core.Transaction{}, err
	}
	s.changed(ctx, owner, storage.Transactions)
	return saved, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, owner, id string) error {
	if owner == "" {
		return core.ErrUnauthenticated
	}
	if err := s.repo.DeleteTransaction(ctx, owner, id); err != nil {
		return err
	}
	s.changed(ctx, owner, storage.Transactions)
	return nil
}

func (s *LedgerService) AddBudget(ctx context.Context, owner string, b core.Budget) (core.Budget, error) {
	if owner == "" {
		return core.Budget{}, core.ErrUnauthenticated
	}
	if err := s.validateBudget(ctx, owner, b); err != nil {
		return core.Budget{}, err
	}
	saved, err := s.repo.AddBudget(ctx, owner, b)
	if err != nil {
		return core.Budget{}, err
	}
	s.changed(ctx, owner, storage.Budgets)
	return saved, nil
}

func (s *LedgerService) ReplaceBudget(ctx context.Context, owner string, b core.Budget) (core.Budget, error) {
	if owner == "" {
		return core.Budget{}, core.ErrUnauthenticated
	}
	if err := s.validateBudget(ctx, owner, b); err != nil {
		return core.Budget{}, err
	}
	saved, err := s.repo.ReplaceBudget(ctx, owner, b)
	if err != nil {
		return core.Budget{}, err
	}
	s.changed(ctx, owner, storage.Budgets)
	return saved, nil
}

func (s *LedgerService) DeleteBudget(ctx context.Context, owner, id string) error {
	if owner == "" {
		return core.ErrUnauthenticated
	}
	if err := s.repo.DeleteBudget(ctx, owner, id); err != nil {
		return err
	}
	s.changed(ctx, owner, storage.Budgets)
	return nil
}

// validateBudget checks the record and that it targets an expense category.
func (s *LedgerService) validateBudget(ctx context.Context, owner string, b core.Budget) error {
	var verr *core.ValidationError
	if err := b.Validate(); err != nil {
		if !errors.As(err, &verr) {
			return err
		}
	} else {
		verr = &core.ValidationError{}
	}
	if b.CategoryID != "" {
		cats, err := s.repo.ListCategories(ctx, owner)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		cat, ok := aggregate.FindCategory(b.CategoryID, cats)
		switch {
		case !ok:
			verr.Add("categoryId", fmt.Errorf("category %s: %w", b.CategoryID, core.ErrNotFound))
		case cat.Kind != core.Expense:
			verr.Add("categoryId", core.ErrNotExpenseKind)
		}
	}
	return verr.OrNil()
}

// changed drops cached reads and announces the write. Publishing is best
// effort: the write already succeeded.
func (s *LedgerService) changed(ctx context.Context, owner, collection string) {
	switch collection {
	case storage.Categories:
		s.categories.Invalidate(ctx, owner)
	case storage.Transactions:
		s.transactions.Invalidate(ctx, owner)
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerChanged(ctx, owner, collection); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger change",
			"owner", owner, "collection", collection, "error", err)
	}
}
