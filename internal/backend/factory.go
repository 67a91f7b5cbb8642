package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"finanse/internal/amqp"
	"finanse/internal/cache"
	"finanse/internal/core"
	"finanse/internal/services"
	"finanse/internal/storage"
	"finanse/internal/storage/memory"
)

const redisPingTimeout = 3 * time.Second

// snapshotRetention is how long shared snapshots stay in Redis. It is far
// longer than any freshness TTL so stale copies survive storage outages.
const snapshotRetention = 24 * time.Hour

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger.With("component", "backend")}
}

// CreateBackend opens storage and connects the optional services. Storage
// failures are fatal; AMQP and Redis failures are logged and the process
// continues without them.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var store storage.Backend
	switch config.Type {
	case SQLiteBackend:
		sqliteStore, err := storage.NewSQLiteStore(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		store = sqliteStore
	case MemoryBackend:
		store = memory.New()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	res := &Result{Storage: store}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
		} else {
			res.AMQP = client
			f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
		}
	}

	if config.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			f.logger.Warn("Redis unreachable, using in-process caches", "addr", config.RedisAddr, "error", err)
			_ = rdb.Close()
		} else {
			res.Redis = rdb
			f.logger.Info("Initialized Redis snapshot cache", "addr", config.RedisAddr)
		}
	}

	f.logger.Info("Initialized backend",
		"type", config.Type,
		"amqp_enabled", res.AMQP != nil,
		"redis_enabled", res.Redis != nil)

	res.Cleanup = func() error {
		var errs []error
		if res.AMQP != nil {
			errs = append(errs, res.AMQP.Close())
		}
		if res.Redis != nil {
			errs = append(errs, res.Redis.Close())
		}
		errs = append(errs, res.Storage.Close())
		return errors.Join(errs...)
	}
	return res, nil
}

// Publisher returns the AMQP client as a ledger publisher, or nil.
func (r *Result) Publisher() services.Publisher {
	if r.AMQP == nil {
		return nil
	}
	return r.AMQP
}

// ApplySnapshotStores points the ledger caches at Redis when it is
// available so every process shares one copy.
func (r *Result) ApplySnapshotStores(opts services.LedgerOptions) services.LedgerOptions {
	if r.Redis == nil {
		return opts
	}
	opts.CategoryStore = cache.NewRedisStore[core.Category](r.Redis, "finanse:cache:", snapshotRetention)
	opts.TransactionStore = cache.NewRedisStore[core.Transaction](r.Redis, "finanse:cache:", snapshotRetention)
	return opts
}
