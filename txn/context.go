package txn

import "context"

type txContextKey struct{}

// WithContext returns a context carrying tx as the active transaction.
func WithContext(ctx context.Context, tx *Tx) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, txContextKey{}, tx)
}

// FromContext returns the transaction carried by ctx, if it is still active.
func FromContext(ctx context.Context) (*Tx, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(txContextKey{}).(*Tx)
	if !ok || tx == nil || tx.finished() {
		return nil, false
	}
	return tx, true
}
