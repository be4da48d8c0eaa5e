// Package prefs stores the two display/notification preferences in a small
// key-value table, kept in its own database file apart from the ledger data.
// Both flags default to false and are observable.
package prefs

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"financetrack/internal/log"
	"financetrack/internal/observe"

	_ "modernc.org/sqlite"
)

const (
	keyDarkMode          = "dark_mode"
	keyDailyNotification = "daily_notification"
)

type Store struct {
	db                *sql.DB
	darkMode          *observe.Value[bool]
	dailyNotification *observe.Value[bool]
	log               *log.Logger
}

// Open opens (or creates) the preference store at dbPath and loads the
// current flag values.
func Open(dbPath string, logger *log.Logger) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create prefs directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open prefs database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping prefs database: %w", err)
	}

	if _, err := db.Exec(
		`CREATE TABLE IF NOT EXISTS settings (key TEXT PRIMARY KEY, value INTEGER NOT NULL)`,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("create settings table: %w", err)
	}

	if logger == nil {
		logger = log.Default()
	}

	s := &Store{
		db:  db,
		log: logger.WithComponent(log.ComponentPrefs),
	}

	dark, err := s.load(keyDarkMode)
	if err != nil {
		db.Close()
		return nil, err
	}
	daily, err := s.load(keyDailyNotification)
	if err != nil {
		db.Close()
		return nil, err
	}

	s.darkMode = observe.New(dark)
	s.dailyNotification = observe.New(daily)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DarkMode returns the current dark-mode display preference.
func (s *Store) DarkMode() bool { return s.darkMode.Get() }

// DailyNotification returns the current daily-notification preference.
func (s *Store) DailyNotification() bool { return s.dailyNotification.Get() }

// WatchDarkMode observes the dark-mode flag; the current value is delivered
// first.
func (s *Store) WatchDarkMode(ctx context.Context) <-chan bool {
	return s.darkMode.Subscribe(ctx)
}

// WatchDailyNotification observes the daily-notification flag.
func (s *Store) WatchDailyNotification(ctx context.Context) <-chan bool {
	return s.dailyNotification.Subscribe(ctx)
}

// SetDarkMode persists and publishes the dark-mode flag.
func (s *Store) SetDarkMode(ctx context.Context, enabled bool) error {
	if err := s.save(ctx, keyDarkMode, enabled); err != nil {
		return err
	}
	s.darkMode.Set(enabled)
	return nil
}

// SetDailyNotification persists and publishes the daily-notification flag.
// Enabling or disabling the notifier schedule is the caller's job.
func (s *Store) SetDailyNotification(ctx context.Context, enabled bool) error {
	if err := s.save(ctx, keyDailyNotification, enabled); err != nil {
		return err
	}
	s.dailyNotification.Set(enabled)
	return nil
}

func (s *Store) load(key string) (bool, error) {
	var value int
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load preference %s: %w", key, err)
	}
	return value != 0, nil
}

func (s *Store) save(ctx context.Context, key string, enabled bool) error {
	value := 0
	if enabled {
		value = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("save preference %s: %w", key, err)
	}
	s.log.InfoContext(ctx, "Preference updated", "key", key, "value", enabled)
	return nil
}
