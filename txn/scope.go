package txn

import (
	"context"
	"errors"
	"fmt"
)

// WithTx begins a transaction, runs fn with it, and then commits on success or
// rolls back on error/panic. Panics are rethrown after the rollback.
//
// The context passed to fn carries the transaction (see FromContext), so a
// nested Begin on it fails with ErrTxActive.
//
// An error from fn is returned wrapped with ErrAborted. Commit failures are
// returned as classified by Tx.Commit.
func WithTx(ctx context.Context, m *Manager, fn func(ctx context.Context, tx *Tx) error) (err error) {
	tx, err := m.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, ErrTxDone) {
				err = &RollbackError{TxID: tx.ID(), Cause: err, Rollback: rbErr}
				return
			}
			err = aborted(err)
			return
		}
		err = tx.Commit(ctx)
	}()

	err = fn(WithContext(ctx, tx), tx)
	return err
}
