// Package ledger owns the per-user transaction working set: validated CRUD,
// derived income/expense/balance aggregates, and the balance push back onto
// the user record.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"financetrack/internal/core"
	"financetrack/internal/events"
	"financetrack/internal/log"
	"financetrack/internal/observe"
)

// TransactionStore is the slice of the persistence gateway the controller
// mutates and observes.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, t core.Transaction) (int64, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, t core.Transaction) error
	UserTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	WatchUserTransactions(ctx context.Context, userID int64) (<-chan []core.Transaction, error)
	WatchUserTransactionsByType(ctx context.Context, userID int64, typ string) (<-chan []core.Transaction, error)
	WatchTransaction(ctx context.Context, id int64) (<-chan *core.Transaction, error)
}

// BalanceStore receives the authoritative balance recomputed after every
// mutation.
type BalanceStore interface {
	UpdateUserBalance(ctx context.Context, userID int64, newBalance float64) error
}

// EventPublisher announces committed mutations. Publishing is best-effort;
// failures never affect the reported operation status.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *events.TransactionEvent) error
}

// Controller is the transaction ledger controller. All exposed state is
// observable; external callers never mutate it directly.
type Controller struct {
	store  TransactionStore
	users  BalanceStore
	events EventPublisher

	status   *observe.Value[core.Status]
	txs      *observe.Value[[]core.Transaction]
	selected *observe.Value[*core.Transaction]
	log      *log.Logger

	mu             sync.Mutex
	userID         int64 // 0 means no user set
	rootCtx        context.Context
	rootCancel     context.CancelFunc
	cancelList     context.CancelFunc
	cancelSelected context.CancelFunc

	// Cancelling a watch does not stop a snapshot already in flight: one
	// may still be buffered in the subscription channel. Each consumer
	// carries the generation it was started with and drops emissions once
	// superseded, so a prior user's list can never land in the new scope.
	listGen     uint64
	selectedGen uint64
}

// NewController creates a ledger controller. publisher may be nil to
// disable transaction events.
func NewController(store TransactionStore, users BalanceStore, publisher EventPublisher, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		store:      store,
		users:      users,
		events:     publisher,
		status:     observe.New(core.StatusIdle()),
		txs:        observe.New[[]core.Transaction](nil),
		selected:   observe.New[*core.Transaction](nil),
		log:        logger.WithComponent(log.ComponentLedger),
		rootCtx:    ctx,
		rootCancel: cancel,
	}
}

// Close tears the controller down, stopping every active subscription.
func (c *Controller) Close() {
	c.rootCancel()
}

// Status returns the current operation status.
func (c *Controller) Status() core.Status { return c.status.Get() }

// WatchStatus observes the operation status. Transitions for a given
// invocation arrive strictly in order: Loading, then exactly one of
// Success or Error.
func (c *Controller) WatchStatus(ctx context.Context) <-chan core.Status {
	return c.status.Subscribe(ctx)
}

// Transactions returns the currently held transaction list, most recent
// first.
func (c *Controller) Transactions() []core.Transaction { return c.txs.Get() }

// WatchTransactions observes the transaction list.
func (c *Controller) WatchTransactions(ctx context.Context) <-chan []core.Transaction {
	return c.txs.Subscribe(ctx)
}

// SelectedTransaction returns the transaction selected for editing, or nil.
func (c *Controller) SelectedTransaction() *core.Transaction { return c.selected.Get() }

// WatchSelectedTransaction observes the selected transaction.
func (c *Controller) WatchSelectedTransaction(ctx context.Context) <-chan *core.Transaction {
	return c.selected.Subscribe(ctx)
}

// SetCurrentUser scopes the controller to the given user and begins
// continuously observing that user's transactions. Any subscription for a
// previous user is superseded.
func (c *Controller) SetCurrentUser(ctx context.Context, userID int64) {
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()

	if err := c.startListWatch(userID, ""); err != nil {
		c.status.Set(core.StatusError(fmt.Sprintf("Failed to load transactions: %v", err)))
	}
}

// FilterByType switches the live list to only the current user's
// transactions of the given type.
func (c *Controller) FilterByType(ctx context.Context, typ string) {
	userID := c.currentUserID()
	if userID == 0 {
		return
	}
	if err := c.startListWatch(userID, typ); err != nil {
		c.status.Set(core.StatusError(fmt.Sprintf("Failed to filter transactions: %v", err)))
	}
}

// GetTransactionByID begins observing a single transaction, publishing it
// as the selected transaction whenever it changes. Supports the
// edit-screen population flow.
func (c *Controller) GetTransactionByID(ctx context.Context, id int64) {
	subCtx, cancel := context.WithCancel(c.rootCtx)

	ch, err := c.store.WatchTransaction(subCtx, id)
	if err != nil {
		cancel()
		c.status.Set(core.StatusError(fmt.Sprintf("Failed to load transaction: %v", err)))
		return
	}

	c.mu.Lock()
	if c.cancelSelected != nil {
		c.cancelSelected()
	}
	c.cancelSelected = cancel
	c.selectedGen++
	gen := c.selectedGen
	c.mu.Unlock()

	go func() {
		for t := range ch {
			c.mu.Lock()
			if c.selectedGen == gen {
				c.selected.Set(t)
			}
			c.mu.Unlock()
		}
	}()
}

// AddTransaction validates the input and stores a new transaction for the
// current user, dated now, then recomputes the user's balance.
func (c *Controller) AddTransaction(ctx context.Context, amount float64, typ, description, notes, photoPath string) {
	userID := c.currentUserID()
	if userID == 0 {
		c.status.Set(core.StatusError("User not logged in"))
		return
	}

	t := core.Transaction{
		UserID:      userID,
		Amount:      amount,
		Type:        typ,
		Description: description,
		Notes:       notes,
		Date:        core.NowMillis(),
		PhotoPath:   photoPath,
	}
	if !c.validateTransaction(t) {
		return
	}

	c.status.Set(core.StatusLoading())

	id, err := c.store.InsertTransaction(ctx, t)
	if err != nil {
		c.status.Set(core.StatusError(fmt.Sprintf("Failed to add transaction: %v", err)))
		return
	}

	c.recalculateBalance(ctx)
	c.publishEvent(ctx, events.ActionAdded, userID, id)
	c.status.Set(core.StatusSuccess("Transaction added successfully"))
}

// UpdateTransaction validates the input and fully replaces the transaction
// with the given id, preserving id and owner and refreshing the date to
// now, then recomputes the user's balance.
func (c *Controller) UpdateTransaction(ctx context.Context, id int64, amount float64, typ, description, notes, photoPath string) {
	userID := c.currentUserID()
	if userID == 0 {
		c.status.Set(core.StatusError("User not logged in"))
		return
	}

	t := core.Transaction{
		ID:          id,
		UserID:      userID,
		Amount:      amount,
		Type:        typ,
		Description: description,
		Notes:       notes,
		Date:        core.NowMillis(),
		PhotoPath:   photoPath,
	}
	if !c.validateTransaction(t) {
		return
	}

	c.status.Set(core.StatusLoading())

	if err := c.store.UpdateTransaction(ctx, t); err != nil {
		c.status.Set(core.StatusError(fmt.Sprintf("Failed to update transaction: %v", err)))
		return
	}

	c.recalculateBalance(ctx)
	c.publishEvent(ctx, events.ActionUpdated, userID, id)
	c.status.Set(core.StatusSuccess("Transaction updated successfully"))
}

// DeleteTransaction removes the transaction after checking that it belongs
// to the current user. The persistence delete is never invoked for a
// transaction owned by someone else.
func (c *Controller) DeleteTransaction(ctx context.Context, t core.Transaction) {
	userID := c.currentUserID()
	if userID == 0 {
		c.status.Set(core.StatusError("User not logged in"))
		return
	}
	if t.UserID != userID {
		c.status.Set(core.StatusError("Unauthorized action"))
		return
	}

	c.status.Set(core.StatusLoading())

	if err := c.store.DeleteTransaction(ctx, t); err != nil {
		c.status.Set(core.StatusError(fmt.Sprintf("Failed to delete transaction: %v", err)))
		return
	}

	c.recalculateBalance(ctx)
	c.publishEvent(ctx, events.ActionDeleted, userID, t.ID)
	c.status.Set(core.StatusSuccess("Transaction deleted successfully"))
}

// CalculateTotalIncome sums the income amounts of the currently held list.
func (c *Controller) CalculateTotalIncome() float64 {
	return core.TotalIncome(c.txs.Get())
}

// CalculateTotalExpenses sums the expense amounts of the currently held
// list.
func (c *Controller) CalculateTotalExpenses() float64 {
	return core.TotalExpenses(c.txs.Get())
}

// CalculateBalance is income minus expenses over the currently held list.
func (c *Controller) CalculateBalance() float64 {
	return c.CalculateTotalIncome() - c.CalculateTotalExpenses()
}

// ResetStatus sets the operation status back to Idle.
func (c *Controller) ResetStatus() {
	c.status.Set(core.StatusIdle())
}

// ClearUserData drops all per-user state on logout: scope, transaction
// list, selected transaction and status. Active subscriptions are
// cancelled so nothing leaks into a subsequent session.
func (c *Controller) ClearUserData() {
	c.mu.Lock()
	c.userID = 0
	if c.cancelList != nil {
		c.cancelList()
		c.cancelList = nil
	}
	if c.cancelSelected != nil {
		c.cancelSelected()
		c.cancelSelected = nil
	}
	c.listGen++
	c.selectedGen++
	c.mu.Unlock()

	c.txs.Set(nil)
	c.selected.Set(nil)
	c.status.Set(core.StatusIdle())
}

// recalculateBalance re-derives the user's balance from the durable store
// rather than the in-memory list, and pushes it onto the user record. A
// full refetch is deliberate: it cannot drift from the source of truth.
// Failures are logged and swallowed so a successful mutation is never
// masked by a balance-sync failure.
func (c *Controller) recalculateBalance(ctx context.Context) {
	userID := c.currentUserID()
	if userID == 0 {
		return
	}

	txs, err := c.store.UserTransactions(ctx, userID)
	if err != nil {
		c.log.WarnContext(ctx, "Balance recalculation failed",
			log.FieldOperation, log.OpBalance,
			log.FieldUserID, userID,
			log.FieldError, err)
		return
	}

	newBalance := core.Balance(txs)
	if err := c.users.UpdateUserBalance(ctx, userID, newBalance); err != nil {
		c.log.WarnContext(ctx, "Balance update failed",
			log.FieldOperation, log.OpBalance,
			log.FieldUserID, userID,
			log.FieldError, err)
	}
}

// validateTransaction maps domain validation failures onto the exact
// user-facing messages. The first failing rule wins; nothing reaches
// persistence on failure.
func (c *Controller) validateTransaction(t core.Transaction) bool {
	err := t.Validate()
	switch {
	case err == nil:
		return true
	case errors.Is(err, core.ErrInvalidAmount):
		c.status.Set(core.StatusError("Please enter a valid amount"))
	case errors.Is(err, core.ErrEmptyType):
		c.status.Set(core.StatusError("Please select a transaction type"))
	case errors.Is(err, core.ErrEmptyDescription):
		c.status.Set(core.StatusError("Please enter a description"))
	default:
		c.status.Set(core.StatusError(err.Error()))
	}
	return false
}

// startListWatch replaces the live transaction-list subscription. An empty
// typ watches the full list.
func (c *Controller) startListWatch(userID int64, typ string) error {
	subCtx, cancel := context.WithCancel(c.rootCtx)

	var (
		ch  <-chan []core.Transaction
		err error
	)
	if typ == "" {
		ch, err = c.store.WatchUserTransactions(subCtx, userID)
	} else {
		ch, err = c.store.WatchUserTransactionsByType(subCtx, userID, typ)
	}
	if err != nil {
		cancel()
		return err
	}

	c.mu.Lock()
	if c.cancelList != nil {
		c.cancelList()
	}
	c.cancelList = cancel
	c.listGen++
	gen := c.listGen
	c.mu.Unlock()

	go func() {
		for list := range ch {
			c.mu.Lock()
			if c.listGen == gen {
				c.txs.Set(list)
			}
			c.mu.Unlock()
		}
	}()
	return nil
}

func (c *Controller) currentUserID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Controller) publishEvent(ctx context.Context, action string, userID, txID int64) {
	if c.events == nil {
		return
	}
	if err := c.events.PublishTransactionEvent(ctx, events.NewTransactionEvent(action, userID, txID)); err != nil {
		c.log.WarnContext(ctx, "Event publish failed",
			"action", action,
			log.FieldTransactionID, txID,
			log.FieldError, err)
	}
}
