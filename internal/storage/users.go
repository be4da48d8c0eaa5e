package storage

import (
	"context"
	"database/sql"
	"fmt"

	"financetrack/internal/core"
	"financetrack/internal/log"
)

// InsertUser stores a new user and returns its assigned id. A conflicting
// email is silently ignored, matching the store's insert conflict policy;
// the returned id is 0 in that case.
func (s *Store) InsertUser(ctx context.Context, u core.User) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (email, password, balance) VALUES (?, ?, ?)`,
		u.Email, u.Password, u.Balance,
	)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert user rows affected: %w", err)
	}
	if n == 0 {
		s.log.WarnContext(ctx, "User insert ignored on conflict", log.FieldEmail, u.Email)
		return 0, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert user id: %w", err)
	}

	s.log.InfoContext(ctx, "User saved", log.FieldUserID, id, log.FieldEmail, u.Email)
	s.hub.broadcast()
	return id, nil
}

// UpdateUser replaces the full user record by id.
func (s *Store) UpdateUser(ctx context.Context, u core.User) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET email = ?, password = ?, balance = ? WHERE id = ?`,
		u.Email, u.Password, u.Balance, u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	s.hub.broadcast()
	return nil
}

// DeleteUser removes the user and all of its transactions.
func (s *Store) DeleteUser(ctx context.Context, u core.User) error {
	if err := s.DeleteUserTransactions(ctx, u.ID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, u.ID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.hub.broadcast()
	return nil
}

// User fetches a user by id. Returns nil when absent.
func (s *Store) User(ctx context.Context, id int64) (*core.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password, balance FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// UserByEmail fetches a user by exact email. Returns nil when absent.
func (s *Store) UserByEmail(ctx context.Context, email string) (*core.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password, balance FROM users WHERE email = ? LIMIT 1`, email)
	return scanUser(row)
}

// UserByCredentials fetches the user matching both email and password
// exactly. Returns nil when no user matches.
func (s *Store) UserByCredentials(ctx context.Context, email, password string) (*core.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password, balance FROM users WHERE email = ? AND password = ? LIMIT 1`,
		email, password)
	return scanUser(row)
}

// UpdateUserBalance touches only the balance column.
func (s *Store) UpdateUserBalance(ctx context.Context, userID int64, newBalance float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET balance = ? WHERE id = ?`, newBalance, userID)
	if err != nil {
		return fmt.Errorf("update user balance: %w", err)
	}
	s.log.InfoContext(ctx, "User balance updated",
		log.FieldUserID, userID,
		log.FieldBalance, newBalance)
	s.hub.broadcast()
	return nil
}

// Users returns all users ordered by email ascending.
func (s *Store) Users(ctx context.Context) ([]core.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, password, balance FROM users ORDER BY email ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Password, &u.Balance); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row *sql.Row) (*core.User, error) {
	var u core.User
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Balance); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
