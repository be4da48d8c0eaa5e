package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"financetrack/internal/core"
	"financetrack/internal/log"
)

const transactionColumns = `id, user_id, amount, type, description, notes, date, photo_path`

// InsertTransaction stores a new transaction and returns its assigned id.
// Conflicts are ignored per the store's insert policy.
func (s *Store) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO transactions (user_id, amount, type, description, notes, date, photo_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Amount, t.Type, t.Description, t.Notes, t.Date, t.PhotoPath,
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert transaction rows affected: %w", err)
	}
	if n == 0 {
		return 0, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert transaction id: %w", err)
	}

	s.log.InfoContext(ctx, "Transaction saved",
		log.FieldTransactionID, id,
		log.FieldUserID, t.UserID,
		log.FieldType, t.Type,
		log.FieldAmount, t.Amount)
	s.hub.broadcast()
	return id, nil
}

// UpdateTransaction replaces the full transaction record by id.
func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE transactions
		 SET user_id = ?, amount = ?, type = ?, description = ?, notes = ?, date = ?, photo_path = ?
		 WHERE id = ?`,
		t.UserID, t.Amount, t.Type, t.Description, t.Notes, t.Date, t.PhotoPath, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	s.hub.broadcast()
	return nil
}

// DeleteTransaction removes the transaction by id.
func (s *Store) DeleteTransaction(ctx context.Context, t core.Transaction) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, t.ID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.log.InfoContext(ctx, "Transaction deleted",
		log.FieldTransactionID, t.ID,
		log.FieldUserID, t.UserID)
	s.hub.broadcast()
	return nil
}

// Transaction fetches a transaction by id. Returns nil when absent.
func (s *Store) Transaction(ctx context.Context, id int64) (*core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)

	var t core.Transaction
	if err := scanTransaction(row.Scan, &t); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

// Transactions returns every transaction ordered by date descending.
func (s *Store) Transactions(ctx context.Context) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY date DESC`)
}

// UserTransactions returns the user's transactions ordered by date
// descending, most recent first.
func (s *Store) UserTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY date DESC`,
		userID)
}

// UserTransactionsByType returns the user's transactions of the given type,
// ordered by date descending.
func (s *Store) UserTransactionsByType(ctx context.Context, userID int64, typ string) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND type = ? ORDER BY date DESC`,
		userID, typ)
}

// SumByUserAndType sums the user's amounts for the given type. ok is false
// when the user has no rows of that type.
func (s *Store) SumByUserAndType(ctx context.Context, userID int64, typ string) (total float64, ok bool, err error) {
	var sum sql.NullFloat64
	err = s.db.QueryRowContext(ctx,
		`SELECT SUM(amount) FROM transactions WHERE user_id = ? AND type = ?`,
		userID, typ).Scan(&sum)
	if err != nil {
		return 0, false, fmt.Errorf("sum transactions: %w", err)
	}
	return sum.Float64, sum.Valid, nil
}

// UserBalance computes sum(Income) - sum(Expense) for the user. ok is false
// when the user has no transactions at all.
func (s *Store) UserBalance(ctx context.Context, userID int64) (balance float64, ok bool, err error) {
	var sum sql.NullFloat64
	err = s.db.QueryRowContext(ctx,
		`SELECT SUM(CASE WHEN type = 'Income' THEN amount ELSE -amount END)
		 FROM transactions WHERE user_id = ?`,
		userID).Scan(&sum)
	if err != nil {
		return 0, false, fmt.Errorf("user balance: %w", err)
	}
	return sum.Float64, sum.Valid, nil
}

// SumTodayExpenses sums the user's expenses dated from local midnight up to
// now. Used by the background notifier's daily summary.
func (s *Store) SumTodayExpenses(ctx context.Context, userID int64) (total float64, ok bool, err error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var sum sql.NullFloat64
	err = s.db.QueryRowContext(ctx,
		`SELECT SUM(amount) FROM transactions
		 WHERE user_id = ? AND type = 'Expense' AND date >= ? AND date <= ?`,
		userID, start.UnixMilli(), now.UnixMilli()).Scan(&sum)
	if err != nil {
		return 0, false, fmt.Errorf("sum today expenses: %w", err)
	}
	return sum.Float64, sum.Valid, nil
}

// DeleteUserTransactions removes every transaction belonging to the user.
func (s *Store) DeleteUserTransactions(ctx context.Context, userID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete user transactions: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.log.InfoContext(ctx, "User transactions deleted",
			log.FieldUserID, userID,
			log.FieldCount, n)
		s.hub.broadcast()
	}
	return nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var t core.Transaction
		if err := scanTransaction(rows.Scan, &t); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func scanTransaction(scan func(dest ...any) error, t *core.Transaction) error {
	return scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Description, &t.Notes, &t.Date, &t.PhotoPath)
}
