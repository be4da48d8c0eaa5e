package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financetrack/internal/core"
	"financetrack/internal/events"
)

type fakeSummer struct {
	mu     sync.Mutex
	totals map[int64]float64
	err    error
	calls  int
}

func (f *fakeSummer) SumTodayExpenses(_ context.Context, userID int64) (float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, false, f.err
	}
	total, ok := f.totals[userID]
	return total, ok, nil
}

type fakeLister struct {
	users []core.User
	err   error
}

func (f *fakeLister) Users(_ context.Context) ([]core.User, error) {
	return f.users, f.err
}

type fakePrefs struct{ enabled bool }

func (f *fakePrefs) DailyNotification() bool { return f.enabled }

type recordingNotifier struct {
	mu     sync.Mutex
	err    error
	titles []string
	bodies []string
}

func (n *recordingNotifier) Notify(_ context.Context, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.titles = append(n.titles, title)
	n.bodies = append(n.bodies, body)
	return nil
}

func TestSummaryBody(t *testing.T) {
	assert.Equal(t, "You spent $0.00 today", SummaryBody(0))
	assert.Equal(t, "You spent $12.50 today", SummaryBody(12.5))
	assert.Equal(t, "You spent $1234.57 today", SummaryBody(1234.567))
}

func TestRunOnceNotifiesEveryUser(t *testing.T) {
	summer := &fakeSummer{totals: map[int64]float64{1: 20, 2: 0}}
	lister := &fakeLister{users: []core.User{{ID: 1}, {ID: 2}}}
	notifier := &recordingNotifier{}
	w := NewWorker(summer, lister, &fakePrefs{enabled: true}, notifier, time.Hour, nil)

	require.NoError(t, w.RunOnce(context.Background()))

	require.Len(t, notifier.bodies, 2)
	assert.Equal(t, []string{"Daily Summary", "Daily Summary"}, notifier.titles)
	assert.Equal(t, "You spent $20.00 today", notifier.bodies[0])
	assert.Equal(t, "You spent $0.00 today", notifier.bodies[1], "a user without rows still gets a zero summary")
}

func TestRunOnceSkipsWhenDisabled(t *testing.T) {
	summer := &fakeSummer{totals: map[int64]float64{1: 20}}
	lister := &fakeLister{users: []core.User{{ID: 1}}}
	notifier := &recordingNotifier{}
	w := NewWorker(summer, lister, &fakePrefs{enabled: false}, notifier, time.Hour, nil)

	require.NoError(t, w.RunOnce(context.Background()))

	assert.Empty(t, notifier.bodies)
	assert.Zero(t, summer.calls)
}

func TestRunOnceNilPrefsAlwaysOn(t *testing.T) {
	summer := &fakeSummer{totals: map[int64]float64{1: 5}}
	lister := &fakeLister{users: []core.User{{ID: 1}}}
	notifier := &recordingNotifier{}
	w := NewWorker(summer, lister, nil, notifier, time.Hour, nil)

	require.NoError(t, w.RunOnce(context.Background()))
	assert.Len(t, notifier.bodies, 1)
}

func TestRunOnceListerError(t *testing.T) {
	lister := &fakeLister{err: errors.New("database closed")}
	w := NewWorker(&fakeSummer{}, lister, nil, &recordingNotifier{}, time.Hour, nil)

	err := w.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing users")
}

func TestRunOnceNotifierFailureDoesNotAbortRound(t *testing.T) {
	summer := &fakeSummer{totals: map[int64]float64{1: 5, 2: 10}}
	lister := &fakeLister{users: []core.User{{ID: 1}, {ID: 2}}}
	notifier := &recordingNotifier{err: errors.New("channel gone")}
	w := NewWorker(summer, lister, nil, notifier, time.Hour, nil)

	require.NoError(t, w.RunOnce(context.Background()))
	assert.Equal(t, 2, summer.calls, "every user is still attempted")
}

func TestHandleEventRefreshesTotal(t *testing.T) {
	summer := &fakeSummer{totals: map[int64]float64{7: 33.5}}
	w := NewWorker(summer, &fakeLister{}, nil, &recordingNotifier{}, time.Hour, nil)

	ev := events.NewTransactionEvent(events.ActionAdded, 7, 41)
	require.NoError(t, w.HandleEvent(ev))

	assert.InDelta(t, 33.5, w.TodayTotal(7), 1e-9)
}

func TestHandleEventPropagatesError(t *testing.T) {
	summer := &fakeSummer{err: errors.New("query failed")}
	w := NewWorker(summer, &fakeLister{}, nil, &recordingNotifier{}, time.Hour, nil)

	err := w.HandleEvent(events.NewTransactionEvent(events.ActionAdded, 7, 41))
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(&fakeSummer{}, &fakeLister{}, nil, &recordingNotifier{}, time.Hour, nil)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}
