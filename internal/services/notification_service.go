package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"finanse/internal/core"
	"finanse/internal/notify"
	"finanse/internal/storage"
)

// ListLimit caps how many notifications List returns.
const ListLimit = 50

// NotificationService reads and updates an owner's notifications and runs
// the generator on demand.
type NotificationService struct {
	repo      *storage.Repository
	ledger    *LedgerService
	generator *notify.Generator
	logger    *slog.Logger

	mu     sync.Mutex
	owners map[string]*sync.Mutex
}

func NewNotificationService(repo *storage.Repository, ledger *LedgerService, generator *notify.Generator, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		repo:      repo,
		ledger:    ledger,
		generator: generator,
		logger:    logger.With("component", "notifications"),
		owners:    make(map[string]*sync.Mutex),
	}
}

// List returns the newest notifications. Storage failures yield an empty list.
func (s *NotificationService) List(ctx context.Context, owner string) []core.Notification {
	if owner == "" {
		return []core.Notification{}
	}
	ns, err := s.repo.ListNotifications(ctx, owner, ListLimit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list notifications", "owner", owner, "error", err)
		return []core.Notification{}
	}
	return ns
}

// Unread counts unread notifications; failures count as zero.
func (s *NotificationService) Unread(ctx context.Context, owner string) int {
	if owner == "" {
		return 0
	}
	ns, err := s.repo.ListUnreadNotifications(ctx, owner)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to count unread notifications", "owner", owner, "error", err)
		return 0
	}
	return len(ns)
}

func (s *NotificationService) Add(ctx context.Context, owner string, n core.Notification) (core.Notification, error) {
	if owner == "" {
		return core.Notification{}, core.ErrUnauthenticated
	}
	if !n.Type.IsValid() {
		n.Type = core.Update
	}
	return s.repo.AddNotification(ctx, owner, n)
}

// MarkRead sets the read flag of one notification. Already read
// notifications are left as they are.
func (s *NotificationService) MarkRead(ctx context.Context, owner, id string) error {
	if owner == "" {
		return core.ErrUnauthenticated
	}
	return s.repo.MarkNotificationRead(ctx, owner, id)
}

// MarkAllRead marks every unread notification read, one update per record.
// Updates that fail are not retried or rolled back; the result only says
// whether all of them succeeded.
func (s *NotificationService) MarkAllRead(ctx context.Context, owner string) bool {
	if owner == "" {
		return false
	}
	unread, err := s.repo.ListUnreadNotifications(ctx, owner)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load unread notifications", "owner", owner, "error", err)
		return false
	}
	var errs []error
	for _, n := range unread {
		if err := s.repo.MarkNotificationRead(ctx, owner, n.ID); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to mark all notifications read",
			"owner", owner, "failed", len(errs), "total", len(unread), "error", err)
		return false
	}
	return true
}

// Delete removes a notification; deleting a missing one is not an error.
func (s *NotificationService) Delete(ctx context.Context, owner, id string) error {
	if owner == "" {
		return core.ErrUnauthenticated
	}
	return s.repo.DeleteNotification(ctx, owner, id)
}

// Generate runs the generator over the owner's current ledger.
func (s *NotificationService) Generate(ctx context.Context, owner string) ([]core.Notification, error) {
	if owner == "" {
		return nil, core.ErrUnauthenticated
	}
	lock := s.ownerLock(owner)
	lock.Lock()
	defer lock.Unlock()
	return s.generateLocked(ctx, owner)
}

// GenerateIfEmpty generates only for owners that have no stored
// notifications at all. Calls for the same owner are serialized, so two
// concurrent first loads produce a single batch.
func (s *NotificationService) GenerateIfEmpty(ctx context.Context, owner string) ([]core.Notification, error) {
	if owner == "" {
		return nil, core.ErrUnauthenticated
	}
	lock := s.ownerLock(owner)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.repo.ListNotifications(ctx, owner, 1)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, nil
	}
	return s.generateLocked(ctx, owner)
}

func (s *NotificationService) generateLocked(ctx context.Context, owner string) ([]core.Notification, error) {
	in, err := s.ledger.Inputs(ctx, owner)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load ledger for notifications", "owner", owner, "error", err)
		return nil, err
	}
	created := s.generator.GenerateAll(ctx, owner, in)
	s.logger.InfoContext(ctx, "Notifications generated", "owner", owner, "count", len(created))
	return created, nil
}

func (s *NotificationService) ownerLock(owner string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.owners[owner]
	if !ok {
		l = &sync.Mutex{}
		s.owners[owner] = l
	}
	return l
}
