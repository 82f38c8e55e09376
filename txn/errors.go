package txn

import (
	"errors"
	"fmt"
)

var (
	// ErrTxActive is returned by Begin when the context already carries an
	// active transaction.
	ErrTxActive = errors.New("txn: transaction already active")

	// ErrTxDone is returned when using a transaction that was already
	// committed or rolled back.
	ErrTxDone = errors.New("txn: transaction already finished")

	// ErrAborted marks a transaction that failed and was rolled back cleanly.
	ErrAborted = errors.New("txn: transaction aborted")

	// ErrRollbackFailed marks a transaction whose rollback failed as well.
	ErrRollbackFailed = errors.New("txn: rollback failed")
)

// RollbackError reports a failed transaction whose rollback also failed.
// It matches both ErrRollbackFailed and the underlying cause with errors.Is.
type RollbackError struct {
	TxID     string
	Cause    error
	Rollback error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("txn %s: rollback failed: %v (cause: %v)", e.TxID, e.Rollback, e.Cause)
}

func (e *RollbackError) Is(target error) bool {
	return target == ErrRollbackFailed
}

func (e *RollbackError) Unwrap() []error {
	return []error{e.Cause, e.Rollback}
}

func aborted(cause error) error {
	if cause == nil {
		return nil
	}
	var rbErr *RollbackError
	if errors.As(cause, &rbErr) || errors.Is(cause, ErrAborted) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrAborted, cause)
}
