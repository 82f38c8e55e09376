package txn

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-carmart/cache"
	"github.com/goliatone/go-carmart/pkg/logging"
)

// Manager begins transactions over the stores of one provider.
// At most one transaction is active at a time.
type Manager struct {
	provider cache.Provider
	logger   logging.Logger
	slot     chan struct{}
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for transaction lifecycle events.
func WithLogger(l logging.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager returns a Manager over the stores of provider.
func NewManager(provider cache.Provider, opts ...Option) *Manager {
	m := &Manager{
		provider: provider,
		logger:   logging.Nop(),
		slot:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Provider returns the provider whose stores the transactions change.
func (m *Manager) Provider() cache.Provider {
	return m.provider
}

// Begin starts a transaction, waiting until no other transaction is active.
// It fails with ErrTxActive when ctx already carries an active transaction,
// and with ctx.Err() if ctx is done before the transaction could start.
func (m *Manager) Begin(ctx context.Context) (*Tx, error) {
	if _, ok := FromContext(ctx); ok {
		return nil, ErrTxActive
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case m.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	tx := &Tx{
		id:      uuid.NewString(),
		manager: m,
		views:   make(map[string]*txStore),
	}
	m.logger.Debug(ctx, "transaction started", "tx", tx.id)
	return tx, nil
}

func (m *Manager) release() {
	<-m.slot
}

// Tx is a single transaction. It is safe for use by one goroutine at a time
// through its store views; Commit and Rollback may be called once.
type Tx struct {
	id      string
	manager *Manager

	mu     sync.Mutex
	done   bool
	writes []write
	views  map[string]*txStore
}

type write struct {
	store  cache.Store
	key    string
	value  []byte
	remove bool
}

func (w write) apply(ctx context.Context) error {
	if w.remove {
		return w.store.Remove(ctx, w.key)
	}
	return w.store.Put(ctx, w.key, w.value)
}

// undo restores one key to the value it held before a commit touched it.
type undo struct {
	store   cache.Store
	key     string
	prev    []byte
	existed bool
}

func (u undo) apply(ctx context.Context) error {
	if u.existed {
		return u.store.Put(ctx, u.key, u.prev)
	}
	return u.store.Remove(ctx, u.key)
}

// ID returns the transaction identifier used in logs and errors.
func (tx *Tx) ID() string {
	return tx.id
}

func (tx *Tx) finished() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.done
}

// Store returns a transactional view of the named store.
func (tx *Tx) Store(name string) (cache.Store, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.done {
		return nil, ErrTxDone
	}
	if view, ok := tx.views[name]; ok {
		return view, nil
	}

	backend, err := tx.manager.provider.GetStore(name)
	if err != nil {
		return nil, fmt.Errorf("get store %q: %w", name, err)
	}

	view := &txStore{tx: tx, backend: backend, pending: make(map[string]pendingValue)}
	tx.views[name] = view
	return view, nil
}

// Commit applies the buffered writes in the order they were issued.
// If a write fails, the writes already applied are undone; the returned error
// then matches ErrAborted, or ErrRollbackFailed if undoing failed too.
func (tx *Tx) Commit(ctx context.Context) error {
	tx.mu.Lock()
	if tx.done {
		tx.mu.Unlock()
		return ErrTxDone
	}
	tx.done = true
	writes := tx.writes
	tx.writes = nil
	tx.mu.Unlock()

	defer tx.manager.release()

	applied := make([]undo, 0, len(writes))
	for _, w := range writes {
		prev, err := w.store.Get(ctx, w.key)
		existed := err == nil
		if err != nil && !errors.Is(err, cache.ErrNotFound) {
			return tx.fail(ctx, fmt.Errorf("read %s/%s: %w", w.store.Name(), w.key, err), applied)
		}

		if err := w.apply(ctx); err != nil {
			return tx.fail(ctx, fmt.Errorf("write %s/%s: %w", w.store.Name(), w.key, err), applied)
		}
		applied = append(applied, undo{store: w.store, key: w.key, prev: prev, existed: existed})
	}

	tx.manager.logger.Debug(ctx, "transaction committed", "tx", tx.id, "writes", len(writes))
	return nil
}

// fail undoes applied in reverse order and classifies the failure.
func (tx *Tx) fail(ctx context.Context, cause error, applied []undo) error {
	// undo must run even when the commit failed because ctx was canceled
	undoCtx := context.WithoutCancel(ctx)

	var errs []error
	for i := len(applied) - 1; i >= 0; i-- {
		if err := applied[i].apply(undoCtx); err != nil {
			errs = append(errs, fmt.Errorf("undo %s/%s: %w", applied[i].store.Name(), applied[i].key, err))
		}
	}

	if len(errs) > 0 {
		rbErr := errors.Join(errs...)
		tx.manager.logger.Error(ctx, "transaction rollback failed", "tx", tx.id, "cause", cause, "error", rbErr)
		return &RollbackError{TxID: tx.id, Cause: cause, Rollback: rbErr}
	}

	tx.manager.logger.Warn(ctx, "transaction aborted", "tx", tx.id, "cause", cause, "undone", len(applied))
	return aborted(cause)
}

// Rollback discards the buffered writes. Nothing has reached the stores
// before Commit, so rolling back an open transaction cannot fail.
func (tx *Tx) Rollback(ctx context.Context) error {
	tx.mu.Lock()
	if tx.done {
		tx.mu.Unlock()
		return ErrTxDone
	}
	tx.done = true
	discarded := len(tx.writes)
	tx.writes = nil
	tx.mu.Unlock()

	tx.manager.release()
	tx.manager.logger.Debug(ctx, "transaction rolled back", "tx", tx.id, "discarded", discarded)
	return nil
}
