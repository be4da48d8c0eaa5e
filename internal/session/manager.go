// Package session owns registration, authentication and the currently
// authenticated user.
package session

import (
	"context"
	"errors"
	"fmt"

	"financetrack/internal/core"
	"financetrack/internal/log"
	"financetrack/internal/observe"
)

// UserStore is the slice of the persistence gateway the session manager
// needs.
type UserStore interface {
	InsertUser(ctx context.Context, u core.User) (int64, error)
	UserByCredentials(ctx context.Context, email, password string) (*core.User, error)
}

// Ledger is the slice of the ledger controller the session layer drives:
// scoping it to the authenticated user and clearing it again on logout.
type Ledger interface {
	SetCurrentUser(ctx context.Context, userID int64)
	ClearUserData()
}

// Manager validates and executes register/login/logout and exposes the
// current user and the operation status as observables.
type Manager struct {
	users  UserStore
	ledger Ledger

	status  *observe.Value[core.Status]
	current *observe.Value[*core.User]
	log     *log.Logger
}

// NewManager creates a session manager. ledger may be nil when no ledger
// controller is attached (tests, tooling).
func NewManager(users UserStore, ledger Ledger, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		users:   users,
		ledger:  ledger,
		status:  observe.New(core.StatusIdle()),
		current: observe.New[*core.User](nil),
		log:     logger.WithComponent(log.ComponentSession),
	}
}

// Status returns the current operation status.
func (m *Manager) Status() core.Status { return m.status.Get() }

// WatchStatus observes the operation status; the current value is delivered
// first and every transition after it, in order.
func (m *Manager) WatchStatus(ctx context.Context) <-chan core.Status {
	return m.status.Subscribe(ctx)
}

// CurrentUser returns the authenticated user, or nil.
func (m *Manager) CurrentUser() *core.User { return m.current.Get() }

// WatchCurrentUser observes the authenticated user.
func (m *Manager) WatchCurrentUser(ctx context.Context) <-chan *core.User {
	return m.current.Subscribe(ctx)
}

// Register validates the inputs in order, creates the user with a zero
// balance and makes it the current user. The first failing rule wins and no
// persistence call is made. The current user is unchanged on failure.
func (m *Manager) Register(ctx context.Context, email, password, confirmPassword string) {
	if !m.validateCredentials(email, password) {
		return
	}
	if password != confirmPassword {
		m.status.Set(core.StatusError("Passwords do not match"))
		return
	}
	if len(password) < 8 {
		m.status.Set(core.StatusError("Password must be at least 8 characters long"))
		return
	}

	m.status.Set(core.StatusLoading())

	user := core.User{
		Email:    email,
		Password: password,
		Balance:  0.0,
	}

	id, err := m.users.InsertUser(ctx, user)
	if err != nil {
		m.status.Set(core.StatusError(fmt.Sprintf("Registration failed: %v", err)))
		return
	}
	if id == 0 {
		// Insert was ignored on the unique email constraint.
		m.status.Set(core.StatusError("Registration failed: email already registered"))
		return
	}

	user.ID = id
	m.current.Set(&user)
	m.seedLedger(ctx, id)
	m.log.InfoContext(ctx, "User registered",
		log.FieldOperation, log.OpRegister,
		log.FieldUserID, id)
	m.status.Set(core.StatusSuccess("Registration successful"))
}

// Login authenticates by exact email and password match. The current user
// is left unchanged on failure.
func (m *Manager) Login(ctx context.Context, email, password string) {
	if !m.validateCredentials(email, password) {
		return
	}

	m.status.Set(core.StatusLoading())

	user, err := m.users.UserByCredentials(ctx, email, password)
	if err != nil {
		m.status.Set(core.StatusError(fmt.Sprintf("Login failed: %v", err)))
		return
	}
	if user == nil {
		m.status.Set(core.StatusError("Invalid email or password"))
		return
	}

	m.current.Set(user)
	m.seedLedger(ctx, user.ID)
	m.log.InfoContext(ctx, "User logged in",
		log.FieldOperation, log.OpLogin,
		log.FieldUserID, user.ID)
	m.status.Set(core.StatusSuccess("Login successful"))
}

// Logout clears the current user, resets the status to Idle and clears all
// per-user ledger state. Always succeeds.
func (m *Manager) Logout() {
	m.current.Set(nil)
	m.status.Set(core.StatusIdle())
	if m.ledger != nil {
		m.ledger.ClearUserData()
	}
}

// ResetStatus sets the operation status back to Idle without touching the
// current user.
func (m *Manager) ResetStatus() {
	m.status.Set(core.StatusIdle())
}

func (m *Manager) seedLedger(ctx context.Context, userID int64) {
	if m.ledger != nil {
		m.ledger.SetCurrentUser(ctx, userID)
	}
}

// validateCredentials maps domain validation failures onto the exact
// user-facing messages. Email is checked before password.
func (m *Manager) validateCredentials(email, password string) bool {
	err := core.User{Email: email, Password: password}.Validate()
	switch {
	case err == nil:
		return true
	case errors.Is(err, core.ErrEmptyEmail):
		m.status.Set(core.StatusError("Email cannot be empty"))
	case errors.Is(err, core.ErrEmptyPassword):
		m.status.Set(core.StatusError("Password cannot be empty"))
	default:
		m.status.Set(core.StatusError(err.Error()))
	}
	return false
}
