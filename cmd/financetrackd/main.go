package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"financetrack/internal/config"
	"financetrack/internal/events"
	"financetrack/internal/ledger"
	"financetrack/internal/log"
	"financetrack/internal/prefs"
	"financetrack/internal/session"
	"financetrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.ComponentApp, cfg.SlogLevel())
	log.SetDefault(logger)

	logger.Info("Starting financetrackd")

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

	// Transaction events are optional; without AMQP the tracker runs
	// standalone and the notify worker simply never sees live updates.
	var publisher ledger.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize events client, continuing without transaction events", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Events client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("Transaction events disabled - no AMQP_URL provided")
	}

	ledgerCtl := ledger.NewController(store, store, publisher, logger)
	defer ledgerCtl.Close()

	sessions := session.NewManager(store, ledgerCtl, logger)

	// Mirror state transitions into the log so an operator can follow what
	// the embedding application is doing.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for st := range sessions.WatchStatus(ctx) {
			logger.Debug("Session status changed", "status", st.Kind.String(), "message", st.Message)
		}
	}()
	go func() {
		for st := range ledgerCtl.WatchStatus(ctx) {
			logger.Debug("Ledger status changed", "status", st.Kind.String(), "message", st.Message)
		}
	}()
	go func() {
		for enabled := range preferences.WatchDarkMode(ctx) {
			logger.Debug("Dark mode preference changed", "enabled", enabled)
		}
	}()

	logger.Info("financetrackd ready",
		"db", cfg.DBPath,
		"prefs", cfg.PrefsDBPath,
		"dark_mode", preferences.DarkMode(),
		"daily_notification", preferences.DailyNotification())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())
}
