package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"financetrack/internal/config"
	"financetrack/internal/events"
	"financetrack/internal/log"
	"financetrack/internal/notify"
	"financetrack/internal/prefs"
	"financetrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.ComponentWorker, cfg.SlogLevel())
	log.SetDefault(logger)

	logger.Info("Starting notify-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("Failed to open finance database", log.FieldError, err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer store.Close()

	preferences, err := prefs.Open(cfg.PrefsDBPath, logger)
	if err != nil {
		logger.Error("Failed to open preference store", log.FieldError, err, "path", cfg.PrefsDBPath)
		os.Exit(1)
	}
	defer preferences.Close()

	// Events are optional; without AMQP the worker still runs the daily
	// schedule, it just loses the live refresh between ticks.
	var client *events.Client
	if cfg.AMQPURL != "" {
		client, err = events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize events client, continuing without live refresh", log.FieldError, err)
			client = nil
		} else {
			defer client.Close()
		}
	} else {
		logger.Info("Transaction events disabled - no AMQP_URL provided")
	}

	worker := notify.NewWorker(store, store, preferences, notify.NewLogNotifier(logger), cfg.SummaryInterval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return worker.Run(gctx)
	})

	if client != nil {
		g.Go(func() error {
			return client.Consume(gctx, worker.HandleEvent)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("notify-worker exited with error", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("notify-worker stopped")
}
