package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Fetcher loads one owner's collection from storage.
type Fetcher[T any] func(ctx context.Context, owner string) ([]T, error)

// Options configures a Reader.
type Options struct {
	// Collection namespaces the keys of this reader inside a shared store.
	Collection string
	// TTL is how long a snapshot is served without contacting storage.
	TTL time.Duration
	// RaceTimeout bounds how long Get waits for storage. When it fires first
	// Get returns an empty result and the fetch keeps running to warm the
	// cache for the next caller. Zero disables the race.
	RaceTimeout time.Duration
	// FetchTimeout bounds a single storage fetch, including detached ones.
	FetchTimeout time.Duration
	// KeepEmpty controls whether an empty fetch result replaces the snapshot.
	KeepEmpty bool
	Logger    *slog.Logger
	Now       func() time.Time
}

// Reader is a read-through cache for one collection, keyed by owner.
type Reader[T any] struct {
	store  SnapshotStore[T]
	fetch  Fetcher[T]
	opts   Options
	logger *slog.Logger
	group  singleflight.Group

	mu          sync.Mutex
	generations map[string]uint64
}

func NewReader[T any](store SnapshotStore[T], fetch Fetcher[T], opts Options) *Reader[T] {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader[T]{
		store:       store,
		fetch:       fetch,
		opts:        opts,
		logger:      logger.With("component", "cache", "collection", opts.Collection),
		generations: make(map[string]uint64),
	}
}

func (r *Reader[T]) key(owner string) string {
	return r.opts.Collection + ":" + owner
}

// Get returns the owner's collection and whether it came from the cache.
// It never fails: storage errors fall back to the last snapshot, or to an
// empty list when there is none.
func (r *Reader[T]) Get(ctx context.Context, owner string) ([]T, bool) {
	key := r.key(owner)

	snap, cached, err := r.store.Load(ctx, key)
	if err != nil {
		r.logger.WarnContext(ctx, "Snapshot lookup failed", "key", key, "error", err)
		cached = false
	}
	if cached && snap.Age(r.opts.Now()) < r.opts.TTL {
		return snap.Items, true
	}

	ch := r.group.DoChan(key, func() (any, error) {
		return r.load(ctx, owner, key)
	})

	var timeout <-chan time.Time
	if r.opts.RaceTimeout > 0 {
		timer := time.NewTimer(r.opts.RaceTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case res := <-ch:
		if res.Err != nil {
			r.logger.ErrorContext(ctx, "Fetch failed", "owner", owner, "error", res.Err, "stale_available", cached)
			if cached {
				return snap.Items, true
			}
			return []T{}, false
		}
		return res.Val.([]T), false
	case <-timeout:
		r.logger.WarnContext(ctx, "Fetch exceeded race timeout, returning empty result",
			"owner", owner, "timeout", r.opts.RaceTimeout)
		return []T{}, false
	case <-ctx.Done():
		if cached {
			return snap.Items, true
		}
		return []T{}, false
	}
}

// load runs detached from the caller so that a fetch which loses the race
// still completes and refreshes the snapshot.
func (r *Reader[T]) load(ctx context.Context, owner, key string) ([]T, error) {
	gen := r.generation(key)

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.FetchTimeout)
	defer cancel()

	items, err := r.fetch(fetchCtx, owner)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	if len(items) == 0 && !r.opts.KeepEmpty {
		return items, nil
	}
	if r.generation(key) != gen {
		// Invalidated while fetching: the result may predate the write.
		return items, nil
	}
	snap := Snapshot[T]{Items: items, CapturedAt: r.opts.Now()}
	if err := r.store.Save(fetchCtx, key, snap); err != nil {
		r.logger.WarnContext(ctx, "Snapshot save failed", "key", key, "error", err)
	}
	return items, nil
}

func (r *Reader[T]) generation(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generations[key]
}

// Invalidate drops the owner's snapshot so the next Get reads storage.
func (r *Reader[T]) Invalidate(ctx context.Context, owner string) {
	key := r.key(owner)
	r.mu.Lock()
	r.generations[key]++
	r.mu.Unlock()
	r.group.Forget(key)
	if err := r.store.Delete(ctx, key); err != nil {
		r.logger.WarnContext(ctx, "Snapshot delete failed", "key", key, "error", err)
	}
}
