package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"financetrack/internal/core"
	"financetrack/internal/events"
	"financetrack/internal/log"
)

const summaryTitle = "Daily Summary"

// ExpenseSummer exposes the aggregate the summary is built from. The bool
// reports whether the user had any expense rows today; absent rows count
// as zero spending.
type ExpenseSummer interface {
	SumTodayExpenses(ctx context.Context, userID int64) (float64, bool, error)
}

// UserLister enumerates the users to summarize.
type UserLister interface {
	Users(ctx context.Context) ([]core.User, error)
}

// Preferences gates the schedule. When daily notifications are disabled a
// tick is skipped entirely.
type Preferences interface {
	DailyNotification() bool
}

// Worker periodically sends each user a summary of today's expenses. It
// also keeps a warm per-user copy of the running total, refreshed from
// incoming transaction events.
type Worker struct {
	sums     ExpenseSummer
	users    UserLister
	prefs    Preferences
	notifier Notifier
	interval time.Duration
	log      *log.Logger

	mu     sync.Mutex
	totals map[int64]float64
}

// NewWorker creates a summary worker. prefs may be nil, in which case the
// schedule is always on.
func NewWorker(sums ExpenseSummer, users UserLister, prefs Preferences, notifier Notifier, interval time.Duration, logger *log.Logger) *Worker {
	if logger == nil {
		logger = log.Default()
	}
	return &Worker{
		sums:     sums,
		users:    users,
		prefs:    prefs,
		notifier: notifier,
		interval: interval,
		log:      logger.WithComponent(log.ComponentWorker),
		totals:   make(map[int64]float64),
	}
}

// Run executes the summary schedule until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.InfoContext(ctx, "Summary worker started",
		"interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.InfoContext(ctx, "Summary worker stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				w.log.ErrorContext(ctx, "Summary run failed",
					log.FieldError, err)
			}
		}
	}
}

// RunOnce sends one summary round to every user. Per-user failures are
// logged and do not abort the round.
func (w *Worker) RunOnce(ctx context.Context) error {
	if w.prefs != nil && !w.prefs.DailyNotification() {
		w.log.DebugContext(ctx, "Daily notifications disabled, skipping round")
		return nil
	}

	users, err := w.users.Users(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	for _, u := range users {
		if err := w.notifyUser(ctx, u.ID); err != nil {
			w.log.WarnContext(ctx, "Summary notification failed",
				log.FieldUserID, u.ID,
				log.FieldError, err)
		}
	}

	w.log.InfoContext(ctx, "Summary round complete",
		log.FieldCount, len(users))
	return nil
}

func (w *Worker) notifyUser(ctx context.Context, userID int64) error {
	total, _, err := w.sums.SumTodayExpenses(ctx, userID)
	if err != nil {
		return fmt.Errorf("summing today's expenses: %w", err)
	}

	w.setTotal(userID, total)
	return w.notifier.Notify(ctx, summaryTitle, SummaryBody(total))
}

// HandleEvent refreshes the warm total for the user behind a transaction
// event. Wired as the consume handler of the events client.
func (w *Worker) HandleEvent(ev *events.TransactionEvent) error {
	ctx := context.Background()

	total, _, err := w.sums.SumTodayExpenses(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("refreshing today's total: %w", err)
	}

	w.setTotal(ev.UserID, total)
	w.log.Debug("Today's total refreshed",
		log.FieldUserID, ev.UserID,
		log.FieldAmount, total,
		"action", ev.Action)
	return nil
}

// TodayTotal returns the last known today-total for the user.
func (w *Worker) TodayTotal(userID int64) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totals[userID]
}

func (w *Worker) setTotal(userID int64, total float64) {
	w.mu.Lock()
	w.totals[userID] = total
	w.mu.Unlock()
}

// SummaryBody formats the notification body for a day's expense total.
func SummaryBody(total float64) string {
	return fmt.Sprintf("You spent $%.2f today", total)
}
