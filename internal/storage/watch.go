package storage

import (
	"context"

	"financetrack/internal/core"
	"financetrack/internal/log"
)

// WatchUserTransactions emits the user's transaction list (date descending)
// immediately, then again after every store mutation, until ctx is done.
// A failed re-query is logged and skipped; the subscription stays alive.
func (s *Store) WatchUserTransactions(ctx context.Context, userID int64) (<-chan []core.Transaction, error) {
	return watch(ctx, s, func(ctx context.Context) ([]core.Transaction, error) {
		return s.UserTransactions(ctx, userID)
	})
}

// WatchUserTransactionsByType is WatchUserTransactions restricted to one
// transaction type.
func (s *Store) WatchUserTransactionsByType(ctx context.Context, userID int64, typ string) (<-chan []core.Transaction, error) {
	return watch(ctx, s, func(ctx context.Context) ([]core.Transaction, error) {
		return s.UserTransactionsByType(ctx, userID, typ)
	})
}

// WatchTransaction emits the transaction with the given id on every store
// change. The value is nil while no such transaction exists.
func (s *Store) WatchTransaction(ctx context.Context, id int64) (<-chan *core.Transaction, error) {
	return watch(ctx, s, func(ctx context.Context) (*core.Transaction, error) {
		return s.Transaction(ctx, id)
	})
}

// WatchUser emits the user record with the given id on every store change.
func (s *Store) WatchUser(ctx context.Context, id int64) (<-chan *core.User, error) {
	return watch(ctx, s, func(ctx context.Context) (*core.User, error) {
		return s.User(ctx, id)
	})
}

// WatchUsers emits the full user list, ordered by email ascending.
func (s *Store) WatchUsers(ctx context.Context) (<-chan []core.User, error) {
	return watch(ctx, s, s.Users)
}

// WatchTransactions emits the full transaction list, date descending.
func (s *Store) WatchTransactions(ctx context.Context) (<-chan []core.Transaction, error) {
	return watch(ctx, s, s.Transactions)
}

// WatchSumByUserAndType emits the user's amount sum for the given type.
// The value is nil while the user has no rows of that type.
func (s *Store) WatchSumByUserAndType(ctx context.Context, userID int64, typ string) (<-chan *float64, error) {
	return watch(ctx, s, func(ctx context.Context) (*float64, error) {
		return nullable(s.SumByUserAndType(ctx, userID, typ))
	})
}

// WatchUserBalance emits sum(Income) - sum(Expense) for the user, nil while
// the user has no transactions.
func (s *Store) WatchUserBalance(ctx context.Context, userID int64) (<-chan *float64, error) {
	return watch(ctx, s, func(ctx context.Context) (*float64, error) {
		return nullable(s.UserBalance(ctx, userID))
	})
}

// WatchSumTodayExpenses emits the user's expense total since local midnight,
// nil while there are no expense rows today.
func (s *Store) WatchSumTodayExpenses(ctx context.Context, userID int64) (<-chan *float64, error) {
	return watch(ctx, s, func(ctx context.Context) (*float64, error) {
		return nullable(s.SumTodayExpenses(ctx, userID))
	})
}

func nullable(total float64, ok bool, err error) (*float64, error) {
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &total, nil
}

// watch runs query once up front, failing the subscription if that first
// snapshot cannot be produced, then re-runs it on every hub signal.
func watch[T any](ctx context.Context, s *Store, query func(context.Context) (T, error)) (<-chan T, error) {
	initial, err := query(ctx)
	if err != nil {
		return nil, err
	}

	changes, cancel := s.hub.subscribe()
	out := make(chan T, 1)
	out <- initial

	go func() {
		defer cancel()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				snapshot, err := query(ctx)
				if err != nil {
					s.log.WarnContext(ctx, "Watch re-query failed",
						log.FieldOperation, log.OpWatch,
						log.FieldError, err)
					continue
				}
				select {
				case out <- snapshot:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
