// Package txn provides the transaction manager the record store runs its
// mutations under.
//
// A transaction buffers writes against named stores obtained from a
// cache.Provider. Reads through a transactional store view see the
// transaction's own writes first and the committed state otherwise. Commit
// applies the buffered writes in issue order; if one fails, every write
// already applied is undone in reverse order.
//
// Transactions are serialized: Begin blocks until no other transaction is
// active, so a read-modify-write of a shared value inside one transaction
// cannot lose a concurrent update.
//
// Typical use is through WithTx, which commits on success, rolls back on error
// and rolls back then re-panics on panic:
//
//	err := txn.WithTx(ctx, manager, func(ctx context.Context, tx *txn.Tx) error {
//		index, err := tx.Store("index")
//		if err != nil {
//			return err
//		}
//		return index.Put(ctx, "keys", payload)
//	})
//
// Failures are reported in two kinds. An error matching ErrAborted means the
// transaction failed and both stores were left as they were. A *RollbackError
// (matching ErrRollbackFailed) means undoing a partially applied commit also
// failed and the stores may be inconsistent.
package txn
