package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LRUStore keeps snapshots in process memory.
type LRUStore[T any] struct {
	lru *LRUCache[Snapshot[T]]
}

// NewLRUStore keeps up to maxEntries snapshots, each for at most retain.
func NewLRUStore[T any](maxEntries int, retain time.Duration) *LRUStore[T] {
	return &LRUStore[T]{lru: NewLRUCache[Snapshot[T]](maxEntries, retain)}
}

func (s *LRUStore[T]) Load(_ context.Context, key string) (Snapshot[T], bool, error) {
	snap, ok := s.lru.Get(key)
	return snap, ok, nil
}

func (s *LRUStore[T]) Save(_ context.Context, key string, snap Snapshot[T]) error {
	s.lru.Set(key, snap)
	return nil
}

func (s *LRUStore[T]) Delete(_ context.Context, key string) error {
	s.lru.Delete(key)
	return nil
}

func (s *LRUStore[T]) CleanExpired() int { return s.lru.CleanExpired() }

func (s *LRUStore[T]) Size() int { return s.lru.Size() }

// RedisStore shares snapshots between processes through Redis.
type RedisStore[T any] struct {
	rdb    redis.UniversalClient
	prefix string
	retain time.Duration
}

// NewRedisStore stores JSON-encoded snapshots under prefix+key that expire
// after retain.
func NewRedisStore[T any](rdb redis.UniversalClient, prefix string, retain time.Duration) *RedisStore[T] {
	return &RedisStore[T]{rdb: rdb, prefix: prefix, retain: retain}
}

func (s *RedisStore[T]) Load(ctx context.Context, key string) (Snapshot[T], bool, error) {
	var snap Snapshot[T]
	raw, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return snap, false, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return snap, true, nil
}

func (s *RedisStore[T]) Save(ctx context.Context, key string, snap Snapshot[T]) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, s.prefix+key, raw, s.retain).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore[T]) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
