package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"finanse/internal/core"
)

// Repository exposes typed ledger records on top of a DocumentStore.
// Every document read goes through the core.Parse* functions; documents that
// fail to parse are logged and left out of the result.
type Repository struct {
	docs   DocumentStore
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

func NewRepository(docs DocumentStore, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		docs:   docs,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger.With("component", "repository"),
	}
}

// WithClock replaces the time source used for creation timestamps.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

func listParsed[T any](ctx context.Context, r *Repository, owner, collection string, parse func(core.Document) (T, error)) ([]T, error) {
	docs, err := r.docs.List(ctx, owner, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := parse(d)
		if err != nil {
			r.logger.WarnContext(ctx, "Skipping malformed document",
				"owner", owner, "collection", collection, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *Repository) ListCategories(ctx context.Context, owner string) ([]core.Category, error) {
	return listParsed(ctx, r, owner, Categories, core.ParseCategory)
}

func (r *Repository) AddCategory(ctx context.Context, owner string, c core.Category) (core.Category, error) {
	c.ID = r.newID()
	c.OwnerID = owner
	c.CreatedAt = r.now().UTC()
	c = c.WithDefaults()
	if err := r.docs.Put(ctx, owner, Categories, c.ID, c.ToDocument()); err != nil {
		return core.Category{}, fmt.Errorf("add category: %w", err)
	}
	return c, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, owner, id string) error {
	if err := r.docs.Delete(ctx, owner, Categories, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, owner string) ([]core.Transaction, error) {
	return listParsed(ctx, r, owner, Transactions, core.ParseTransaction)
}

func (r *Repository) AddTransaction(ctx context.Context, owner string, t core.Transaction) (core.Transaction, error) {
	t.ID = r.newID()
	t.OwnerID = owner
	t.CreatedAt = r.now().UTC()
	if err := r.docs.Put(ctx, owner, Transactions, t.ID, t.ToDocument()); err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}
	return t, nil
}

// ReplaceTransaction overwrites an existing transaction, keeping its
// creation time.
func (r *Repository) ReplaceTransaction(ctx context.Context, owner string, t core.Transaction) (core.Transaction, error) {
	doc, ok, err := r.docs.Get(ctx, owner, Transactions, t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", t.ID, err)
	}
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, core.ErrNotFound)
	}
	t.OwnerID = owner
	t.CreatedAt = doc.Time("createdAt")
	if err := r.docs.Put(ctx, owner, Transactions, t.ID, t.ToDocument()); err != nil {
		return core.Transaction{}, fmt.Errorf("replace transaction %s: %w", t.ID, err)
	}
	return t, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, owner, id string) error {
	if err := r.docs.Delete(ctx, owner, Transactions, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

func (r *Repository) ListBudgets(ctx context.Context, owner string) ([]core.Budget, error) {
	return listParsed(ctx, r, owner, Budgets, core.ParseBudget)
}

func (r *Repository) AddBudget(ctx context.Context, owner string, b core.Budget) (core.Budget, error) {
	b.ID = r.newID()
	b.OwnerID = owner
	b.CreatedAt = r.now().UTC()
	if err := r.docs.Put(ctx, owner, Budgets, b.ID, b.ToDocument()); err != nil {
		return core.Budget{}, fmt.Errorf("add budget: %w", err)
	}
	return b, nil
}

func (r *Repository) ReplaceBudget(ctx context.Context, owner string, b core.Budget) (core.Budget, error) {
	doc, ok, err := r.docs.Get(ctx, owner, Budgets, b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %s: %w", b.ID, err)
	}
	if !ok {
		return core.Budget{}, fmt.Errorf("budget %s: %w", b.ID, core.ErrNotFound)
	}
	b.OwnerID = owner
	b.CreatedAt = doc.Time("createdAt")
	if err := r.docs.Put(ctx, owner, Budgets, b.ID, b.ToDocument()); err != nil {
		return core.Budget{}, fmt.Errorf("replace budget %s: %w", b.ID, err)
	}
	return b, nil
}

func (r *Repository) DeleteBudget(ctx context.Context, owner, id string) error {
	if err := r.docs.Delete(ctx, owner, Budgets, id); err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	return nil
}

// ListNotifications returns up to limit notifications, newest first.
// A non-positive limit returns all of them.
func (r *Repository) ListNotifications(ctx context.Context, owner string, limit int) ([]core.Notification, error) {
	ns, err := listParsed(ctx, r, owner, Notifications, core.ParseNotification)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(ns, func(i, j int) bool {
		return ns[i].CreatedAt.After(ns[j].CreatedAt)
	})
	if limit > 0 && len(ns) > limit {
		ns = ns[:limit]
	}
	return ns, nil
}

func (r *Repository) ListUnreadNotifications(ctx context.Context, owner string) ([]core.Notification, error) {
	ns, err := listParsed(ctx, r, owner, Notifications, core.ParseNotification)
	if err != nil {
		return nil, err
	}
	unread := ns[:0]
	for _, n := range ns {
		if !n.IsRead {
			unread = append(unread, n)
		}
	}
	return unread, nil
}

// AddNotification stores n as unread with a fresh id.
func (r *Repository) AddNotification(ctx context.Context, owner string, n core.Notification) (core.Notification, error) {
	n.ID = r.newID()
	n.OwnerID = owner
	n.IsRead = false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now().UTC()
	}
	if err := r.docs.Put(ctx, owner, Notifications, n.ID, n.ToDocument()); err != nil {
		return core.Notification{}, fmt.Errorf("add notification: %w", err)
	}
	return n, nil
}

// MarkNotificationRead sets the read flag. Marking an already read
// notification succeeds; an unknown id is ErrNotFound.
func (r *Repository) MarkNotificationRead(ctx context.Context, owner, id string) error {
	doc, ok, err := r.docs.Get(ctx, owner, Notifications, id)
	if err != nil {
		return fmt.Errorf("get notification %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("notification %s: %w", id, core.ErrNotFound)
	}
	if doc.Bool("isRead") {
		return nil
	}
	doc["isRead"] = true
	if err := r.docs.Put(ctx, owner, Notifications, id, doc); err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return nil
}

func (r *Repository) DeleteNotification(ctx context.Context, owner, id string) error {
	if err := r.docs.Delete(ctx, owner, Notifications, id); err != nil {
		return fmt.Errorf("delete notification %s: %w", id, err)
	}
	return nil
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
