package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

type (
	TransactionType string

	// User is an account holder. Balance is a cache of the derived value
	// sum(income) - sum(expenses) for the user's transactions; the ledger
	// controller refreshes it after every mutation.
	User struct {
		ID       int64
		Email    string
		Password string
		Balance  float64
	}

	// Transaction is a single income or expense entry. Amount is always a
	// positive magnitude; direction is carried by Type. Date is milliseconds
	// since epoch. PhotoPath is an opaque reference to a locally stored
	// receipt image and is never checked for existence here.
	Transaction struct {
		ID          int64
		UserID      int64
		Amount      float64
		Type        string
		Description string
		Notes       string
		Date        int64
		PhotoPath   string
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyType        = errors.New("empty transaction type")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyEmail       = errors.New("empty email")
	ErrEmptyPassword    = errors.New("empty password")
)

// Is reports whether the transaction is of the given type. Comparison is
// case-insensitive, matching how types are entered from the UI.
func (t Transaction) Is(typ TransactionType) bool {
	return strings.EqualFold(t.Type, string(typ))
}

// Validate checks the fields a transaction must carry before it may be
// persisted. The first failing rule wins.
func (t Transaction) Validate() error {
	if math.IsNaN(t.Amount) || t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Type) == "" {
		return ErrEmptyType
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	if strings.TrimSpace(u.Password) == "" {
		return ErrEmptyPassword
	}
	return nil
}

// NowMillis returns the current time as milliseconds since epoch, the unit
// transaction dates are stored in.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// TotalIncome sums the amounts of all income transactions in the list.
// An empty list yields 0.0.
func TotalIncome(txs []Transaction) float64 {
	var total float64
	for _, t := range txs {
		if t.Is(Income) {
			total += t.Amount
		}
	}
	return total
}

// TotalExpenses sums the amounts of all expense transactions in the list.
func TotalExpenses(txs []Transaction) float64 {
	var total float64
	for _, t := range txs {
		if t.Is(Expense) {
			total += t.Amount
		}
	}
	return total
}

// Balance is income minus expenses over the list.
func Balance(txs []Transaction) float64 {
	return TotalIncome(txs) - TotalExpenses(txs)
}
