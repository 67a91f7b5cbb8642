// Package backend builds the infrastructure a process runs on: the storage
// backend plus the optional AMQP broker and Redis cache.
package backend

import (
	"context"

	"github.com/redis/go-redis/v9"

	"finanse/internal/amqp"
	"finanse/internal/storage"
)

// BackendType represents the type of storage backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

func (t BackendType) IsValid() bool {
	return t == MemoryBackend || t == SQLiteBackend
}

func (t BackendType) String() string {
	return string(t)
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result holds what CreateBackend built. AMQP and Redis are nil when not
// configured or unreachable at startup.
type Result struct {
	Storage storage.Backend
	AMQP    *amqp.Client
	Redis   redis.UniversalClient
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}
