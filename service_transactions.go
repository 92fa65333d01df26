package policykit

import (
	"context"
	"fmt"
	"time"

	"github.com/fernandezvara/dbkit"
)

// withDB returns a Store view bound to another database handle, sharing the
// registries and transaction monitor. Used to scope operations to a
// transaction.
func (s *Store) withDB(db dbkit.IDB) *Store {
	tx := &Store{
		db:        db,
		actions:   s.actions,
		resources: s.resources,
		txMonitor: s.txMonitor,
	}
	tx.evaluator = NewEvaluator(tx, s.actions, s.resources)
	return tx
}

// Transaction executes a function within a database transaction with automatic commit/rollback.
// If the function returns an error, the transaction is rolled back. Otherwise, it's committed.
// The callback receives a Store bound to the transaction; Grant and Revoke
// run their insert plus audit write through this, so a failed audit entry
// rolls back the policy change with it.
//
// Example:
//
//	err := store.Transaction(ctx, func(ctx context.Context, tx *policykit.Store) error {
//	    if _, err := tx.GrantPredefined(ctx, adminID, "superadmin"); err != nil {
//	        return err // This will cause a rollback
//	    }
//	    _, err := tx.Grant(ctx, grant)
//	    return err
//	})
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error {
	start := time.Now()
	var err error

	// Check if we're already in a transaction by casting to dbkit.Tx
	if tx, ok := s.db.(*dbkit.Tx); ok {
		// Already in a transaction, use a savepoint
		err = tx.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, s.withDB(tx))
		})
	} else if db, ok := s.db.(*dbkit.DBKit); ok {
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, s.withDB(tx))
		})
	} else {
		err = fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
	}

	duration := time.Since(start)
	s.txMonitor.recordTransaction(duration, err == nil)

	return err
}

// TransactionWithOptions executes a function within a database transaction with custom options.
// Supports read-only transactions, isolation levels, and other transaction parameters.
func (s *Store) TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(ctx context.Context, tx *Store) error) error {
	if tx, ok := s.db.(*dbkit.Tx); ok {
		// Nested transactions use savepoints and ignore options
		return tx.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, s.withDB(tx))
		})
	}

	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.TransactionWithOptions(ctx, opts, func(tx *dbkit.Tx) error {
			return fn(ctx, s.withDB(tx))
		})
	}

	return fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
}

// ReadOnlyTransaction executes a function within a read-only database transaction.
// Useful for consistent multi-query reads such as listing a user's policies
// together with their audit trail.
func (s *Store) ReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error {
	return s.TransactionWithOptions(ctx, dbkit.ReadOnlyTxOptions(), fn)
}

// GetTransactionMetrics returns transaction performance statistics.
func (s *Store) GetTransactionMetrics() TransactionMetrics {
	return s.txMonitor.getMetrics()
}

// ResetTransactionMetrics resets the transaction statistics.
func (s *Store) ResetTransactionMetrics() {
	s.txMonitor.reset()
}
