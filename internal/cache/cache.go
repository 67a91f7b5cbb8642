package cache

import (
	"context"
	"log/slog"
	"time"
)

// Snapshot is a collection as last read from storage.
type Snapshot[T any] struct {
	Items      []T       `json:"items"`
	CapturedAt time.Time `json:"capturedAt"`
}

// Age reports how old the snapshot is at now.
func (s Snapshot[T]) Age(now time.Time) time.Duration {
	return now.Sub(s.CapturedAt)
}

// SnapshotStore keeps snapshots by key. Implementations retain entries well
// past the freshness TTL so a stale copy can be served when storage fails.
type SnapshotStore[T any] interface {
	Load(ctx context.Context, key string) (Snapshot[T], bool, error)
	Save(ctx context.Context, key string, snap Snapshot[T]) error
	Delete(ctx context.Context, key string) error
}

// Manager handles cache lifecycle and cleanup
type Manager struct {
	caches      []Cleaner
	logger      *slog.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// NewManager creates a new cache manager
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:      logger.With("component", "cache_manager"),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// CleanNow runs one cleanup pass over every registered cache.
func (m *Manager) CleanNow() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 {
				m.logger.Debug("Evicted expired cache entries", "count", n)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop gracefully stops the cleanup routine. It must only be called after
// StartCleanup.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
