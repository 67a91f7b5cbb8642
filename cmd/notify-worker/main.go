package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finanse/internal/cli"
	"finanse/internal/config"
	applog "finanse/internal/log"
	"finanse/internal/notify"
	"finanse/internal/services"
	"finanse/internal/sheets"
	gsheet "finanse/internal/sheets/google"
	"finanse/internal/storage"
	"finanse/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentWorker)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notification worker")
		os.Exit(1)
	}

	res := cli.InitBackend(context.Background(), logger, cfg)
	if res.AMQP == nil {
		logger.Error("AMQP broker unavailable", "url_set", cfg.AMQPURL != "")
		_ = res.Cleanup()
		os.Exit(1)
	}

	repo := storage.NewRepository(res.Storage, logger.WithComponent(applog.ComponentStorage).Slog())
	// The worker reads through the shared cache when Redis is configured and
	// never republishes its own changes.
	ledger := services.NewLedgerService(repo, nil, res.ApplySnapshotStores(services.LedgerOptions{
		CategoriesTTL:       cfg.CategoriesCacheTTL,
		TransactionsTTL:     cfg.TransactionsCacheTTL,
		TransactionsTimeout: cfg.TransactionsRaceTimeout,
		Logger:              logger.WithComponent(applog.ComponentLedger).Slog(),
	}))
	generator := notify.NewGenerator(repo,
		notify.WithCurrency(cfg.Currency),
		notify.WithLogger(logger.Slog()),
	)
	notifications := services.NewNotificationService(repo, ledger, generator, logger.Slog())

	exporter, err := newExporter(cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", "error", err)
		_ = res.Cleanup()
		os.Exit(1)
	}

	w := worker.NewNotifyWorker(ledger, notifications, exporter, cfg.GenerateMinInterval)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Notification worker started",
		"queue", cfg.AMQPQueue,
		"export", exporter != nil,
		"min_interval", cfg.GenerateMinInterval,
		applog.FieldOperation, applog.OpStartup,
	)
	if err := res.AMQP.ConsumeLedgerChanged(ctx, w.HandleLedgerChanged); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}

// newExporter returns nil when no spreadsheet is configured.
func newExporter(cfg *config.Config) (sheets.TransactionExporter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, nil
	}
	client, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
