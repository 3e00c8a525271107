package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"tanuki/internal/amqp"
	"tanuki/internal/config"
	applog "tanuki/internal/log"
	"tanuki/internal/money"
	"tanuki/internal/report"
	"tanuki/internal/report/google"
	"tanuki/internal/storage"
	"tanuki/internal/worker"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting tanuki-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Monthly report export is optional; runs only with a configured
	// spreadsheet.
	var exporter report.Exporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := google.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize report exporter", "error", err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Report exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Report export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	w := worker.NewSummaryWorker(repo, money.NewEngine(cfg.DivisionPrecision), exporter, cfg.SweepBatch)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeMovementRecorded(ctx, func(msg *amqp.MovementRecordedMessage) error {
			return w.HandleMovementRecorded(ctx, msg)
		})
	})
	g.Go(func() error {
		return w.RunSweep(ctx, cfg.SweepInterval)
	})
	g.Go(func() error {
		return w.RunMonthlyExport(ctx)
	})

	logger.Info("Worker running",
		"sweep_interval", cfg.SweepInterval,
		"sweep_batch", cfg.SweepBatch)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
