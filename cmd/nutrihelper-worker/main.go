package main

import (
	"context"
	"errors"
	"os"
	"time"

	"nutrihelper/internal/amqp"
	"nutrihelper/internal/backend"
	"nutrihelper/internal/cli"
	applog "nutrihelper/internal/log"
	"nutrihelper/internal/storage"
	"nutrihelper/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateWorkerConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	logger.Info("Starting nutrihelper-worker")
	ctx := context.Background()

	// The ledger always lives in SQLite, whatever backs the web sessions.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	exporter, err := backend.NewFactory(logger.WithComponent(applog.ComponentSheets).Slog()).CreateExporter(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize exporter", applog.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
		logger.WithComponent(applog.ComponentAMQP).Slog())
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ledger := worker.NewLedgerWorker(repo, logger.Slog())

	// Sessions are purged here only when they share the worker's database.
	var purger worker.SessionPurger
	if backendCfg.Type == backend.SQLiteBackend {
		purger = repo
	}
	job := worker.NewSnapshotJob(repo, exporter, purger, logger.WithComponent(applog.ComponentScheduler).Slog())
	scheduler := worker.NewScheduler(job, cfg.SnapshotInterval, logger.WithComponent(applog.ComponentScheduler).Slog())

	shutdownCtx, done := cli.GracefulShutdown(logger.Slog(), 30*time.Second, func(context.Context) {
		if err := scheduler.Stop(); err != nil {
			logger.Error("Scheduler shutdown error", applog.FieldError, err)
		}
	})

	if err := scheduler.Start(shutdownCtx); err != nil {
		logger.Error("Failed to start snapshot scheduler", applog.FieldError, err)
		os.Exit(1)
	}

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- amqpClient.ConsumeEntryLogged(shutdownCtx, ledger.HandleEntryLogged)
	}()

	select {
	case <-shutdownCtx.Done():
		<-done
	case err := <-consumeErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", applog.FieldError, err)
			_ = scheduler.Stop()
			os.Exit(1)
		}
		cli.WaitForShutdown(shutdownCtx, done)
	}
	logger.Info("Worker stopped")
}
