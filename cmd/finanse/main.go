package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finanse/internal/auth"
	"finanse/internal/cache"
	"finanse/internal/cli"
	"finanse/internal/core"
	apphttp "finanse/internal/http"
	applog "finanse/internal/log"
	"finanse/internal/notify"
	"finanse/internal/services"
	"finanse/internal/storage"
)

const (
	lruEntries    = 1024
	lruRetention  = 24 * time.Hour
	shutdownAfter = 30 * time.Second
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)

	res := cli.InitBackend(context.Background(), logger, cfg)
	repo := storage.NewRepository(res.Storage, logger.WithComponent(applog.ComponentStorage).Slog())

	opts := res.ApplySnapshotStores(services.LedgerOptions{
		CategoriesTTL:       cfg.CategoriesCacheTTL,
		TransactionsTTL:     cfg.TransactionsCacheTTL,
		TransactionsTimeout: cfg.TransactionsRaceTimeout,
		Logger:              logger.WithComponent(applog.ComponentLedger).Slog(),
	})

	// Redis expires its own keys; in-process stores need the sweeper.
	cacheManager := cache.NewManager(logger.WithComponent(applog.ComponentCache).Slog())
	if opts.CategoryStore == nil {
		categories := cache.NewLRUStore[core.Category](lruEntries, lruRetention)
		transactions := cache.NewLRUStore[core.Transaction](lruEntries, lruRetention)
		cacheManager.Register(categories)
		cacheManager.Register(transactions)
		opts.CategoryStore, opts.TransactionStore = categories, transactions
	}
	cacheManager.StartCleanup(cfg.CacheCleanupInterval)

	ledger := services.NewLedgerService(repo, res.Publisher(), opts)
	generator := notify.NewGenerator(repo,
		notify.WithCurrency(cfg.Currency),
		notify.WithLogger(logger.WithComponent(applog.ComponentWorker).Slog()),
	)
	notifications := services.NewNotificationService(repo, ledger, generator, logger.Slog())
	dashboard := services.NewDashboardService(ledger, notifications)

	seed, err := services.LoadCategorySeed(cfg.CategorySeedFile)
	if err != nil {
		logger.Error("Failed to load category seed", "error", err, "path", cfg.CategorySeedFile)
		os.Exit(1)
	}

	authService := auth.NewService(res.Storage, cfg.JWTSecret, cfg.TokenTTL,
		auth.WithLogger(logger.Slog()),
		auth.WithSignupHook(func(ctx context.Context, owner string) error {
			_, err := ledger.SeedCategories(ctx, owner, seed)
			return err
		}),
	)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:          authService,
		Ledger:        ledger,
		Notifications: notifications,
		Dashboard:     dashboard,
		Storage:       res.Storage,
		CategorySeed:  seed,
		Logger:        logger.WithComponent(applog.ComponentHTTP),
	})

	ctx, done := cli.GracefulShutdown(logger, shutdownAfter, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp", res.AMQP != nil,
		"redis", res.Redis != nil,
		applog.FieldOperation, applog.OpStartup,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed to start", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
