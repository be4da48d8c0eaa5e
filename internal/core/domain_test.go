package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		UserID:      1,
		Amount:      42.50,
		Type:        string(Expense),
		Description: "Groceries",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"zero amount", func(tx *Transaction) { tx.Amount = 0 }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = -5 }, ErrInvalidAmount},
		{"nan amount", func(tx *Transaction) { tx.Amount = math.NaN() }, ErrInvalidAmount},
		{"blank type", func(tx *Transaction) { tx.Type = "   " }, ErrEmptyType},
		{"blank description", func(tx *Transaction) { tx.Description = "" }, ErrEmptyDescription},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			assert.ErrorIs(t, tx.Validate(), tt.want)
		})
	}
}

func TestTransactionValidateOrder(t *testing.T) {
	// Amount is checked before type, type before description.
	tx := Transaction{Amount: 0, Type: "", Description: ""}
	assert.ErrorIs(t, tx.Validate(), ErrInvalidAmount)

	tx.Amount = 10
	assert.ErrorIs(t, tx.Validate(), ErrEmptyType)

	tx.Type = string(Income)
	assert.ErrorIs(t, tx.Validate(), ErrEmptyDescription)
}

func TestTransactionIs(t *testing.T) {
	tx := Transaction{Type: "income"}
	assert.True(t, tx.Is(Income))
	assert.False(t, tx.Is(Expense))

	tx.Type = "EXPENSE"
	assert.True(t, tx.Is(Expense))
}

func TestAggregates(t *testing.T) {
	txs := []Transaction{
		{Amount: 100, Type: string(Income)},
		{Amount: 250.50, Type: string(Income)},
		{Amount: 40, Type: string(Expense)},
		{Amount: 9.50, Type: string(Expense)},
	}

	assert.InDelta(t, 350.50, TotalIncome(txs), 1e-9)
	assert.InDelta(t, 49.50, TotalExpenses(txs), 1e-9)
	assert.InDelta(t, 301.00, Balance(txs), 1e-9)
}

func TestAggregatesEmpty(t *testing.T) {
	assert.Zero(t, TotalIncome(nil))
	assert.Zero(t, TotalExpenses(nil))
	assert.Zero(t, Balance(nil))
}

func TestUserValidate(t *testing.T) {
	require.NoError(t, User{Email: "a@b.c", Password: "secret123"}.Validate())
	assert.ErrorIs(t, User{Password: "secret123"}.Validate(), ErrEmptyEmail)
	assert.ErrorIs(t, User{Email: "a@b.c"}.Validate(), ErrEmptyPassword)
}
