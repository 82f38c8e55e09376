package txn

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-carmart/cache"
)

func newProvider(t *testing.T) cache.Provider {
	t.Helper()
	p, err := cache.NewProvider(cache.DefaultConfig())
	require.NoError(t, err)
	return p
}

// faultyStore fails Put/Remove calls once failAfter successful writes have
// gone through. failAfter < 0 never fails.
type faultyStore struct {
	cache.Store

	mu        sync.Mutex
	failAfter int
	writes    int
}

var errInjected = errors.New("injected write failure")

func (s *faultyStore) tick() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAfter >= 0 && s.writes >= s.failAfter {
		return errInjected
	}
	s.writes++
	return nil
}

func (s *faultyStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.tick(); err != nil {
		return err
	}
	return s.Store.Put(ctx, key, value)
}

func (s *faultyStore) Remove(ctx context.Context, key string) error {
	if err := s.tick(); err != nil {
		return err
	}
	return s.Store.Remove(ctx, key)
}

func faultyProvider(t *testing.T, base cache.Provider, faults map[string]*faultyStore) cache.Provider {
	t.Helper()
	return cache.ProviderFunc(func(name string) (cache.Store, error) {
		s, err := base.GetStore(name)
		if err != nil {
			return nil, err
		}
		if f, ok := faults[name]; ok {
			f.Store = s
			return f, nil
		}
		return s, nil
	})
}

func get(t *testing.T, p cache.Provider, store, key string) (string, bool) {
	t.Helper()
	s, err := p.GetStore(store)
	require.NoError(t, err)
	v, err := s.Get(context.Background(), key)
	if errors.Is(err, cache.ErrNotFound) {
		return "", false
	}
	require.NoError(t, err)
	return string(v), true
}

func TestTx_CommitAppliesWrites(t *testing.T) {
	p := newProvider(t)
	m := NewManager(p)
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)

	a, err := tx.Store("a")
	require.NoError(t, err)
	b, err := tx.Store("b")
	require.NoError(t, err)

	require.NoError(t, a.Put(ctx, "k", []byte("1")))
	require.NoError(t, b.Put(ctx, "k", []byte("2")))

	_, ok := get(t, p, "a", "k")
	require.False(t, ok, "writes must not be visible before commit")

	require.NoError(t, tx.Commit(ctx))

	v, ok := get(t, p, "a", "k")
	require.True(t, ok)
	require.Equal(t, "1", v)
	v, ok = get(t, p, "b", "k")
	require.True(t, ok)
	require.Equal(t, "2", v)
}

func TestTx_ReadYourWrites(t *testing.T) {
	p := newProvider(t)
	m := NewManager(p)
	ctx := context.Background()

	base, err := p.GetStore("a")
	require.NoError(t, err)
	require.NoError(t, base.Put(ctx, "old", []byte("committed")))

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	s, err := tx.Store("a")
	require.NoError(t, err)

	v, err := s.Get(ctx, "old")
	require.NoError(t, err)
	require.Equal(t, "committed", string(v))

	require.NoError(t, s.Put(ctx, "new", []byte("pending")))
	v, err = s.Get(ctx, "new")
	require.NoError(t, err)
	require.Equal(t, "pending", string(v))

	require.NoError(t, s.Remove(ctx, "old"))
	_, err = s.Get(ctx, "old")
	require.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, tx.Rollback(ctx))

	_, ok := get(t, p, "a", "new")
	require.False(t, ok, "rolled back write must not reach the store")
	v2, ok := get(t, p, "a", "old")
	require.True(t, ok, "rolled back remove must not reach the store")
	require.Equal(t, "committed", v2)
}

func TestTx_FinishedTransactionRejectsUse(t *testing.T) {
	m := NewManager(newProvider(t))
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	s, err := tx.Store("a")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	require.ErrorIs(t, tx.Commit(ctx), ErrTxDone)
	require.ErrorIs(t, tx.Rollback(ctx), ErrTxDone)
	require.ErrorIs(t, s.Put(ctx, "k", []byte("v")), ErrTxDone)
	_, err = s.Get(ctx, "k")
	require.ErrorIs(t, err, ErrTxDone)
	_, err = tx.Store("b")
	require.ErrorIs(t, err, ErrTxDone)
}

func TestManager_BeginWithActiveTransaction(t *testing.T) {
	m := NewManager(newProvider(t))
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)

	_, err = m.Begin(WithContext(ctx, tx))
	require.ErrorIs(t, err, ErrTxActive)

	require.NoError(t, tx.Rollback(ctx))

	// a finished transaction in the context no longer blocks Begin
	tx2, err := m.Begin(WithContext(ctx, tx))
	require.NoError(t, err)
	require.NoError(t, tx2.Rollback(ctx))
}

func TestManager_BeginWaitsForActiveTransaction(t *testing.T) {
	m := NewManager(newProvider(t))
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = m.Begin(waitCtx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	started := make(chan *Tx)
	go func() {
		tx2, err := m.Begin(ctx)
		if err != nil {
			t.Errorf("Begin() failed: %v", err)
			close(started)
			return
		}
		started <- tx2
	}()

	select {
	case <-started:
		t.Fatal("second transaction started while the first was active")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, tx.Commit(ctx))

	select {
	case tx2 := <-started:
		require.NotNil(t, tx2)
		require.NoError(t, tx2.Rollback(ctx))
	case <-time.After(time.Second):
		t.Fatal("second transaction did not start after the first finished")
	}
}

func TestTx_CommitFailureUndoesAppliedWrites(t *testing.T) {
	base := newProvider(t)
	ctx := context.Background()

	idx, err := base.GetStore("index")
	require.NoError(t, err)
	require.NoError(t, idx.Put(ctx, "keys", []byte("before")))

	p := faultyProvider(t, base, map[string]*faultyStore{
		"records": {failAfter: 0},
	})
	m := NewManager(p)

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	is, err := tx.Store("index")
	require.NoError(t, err)
	rs, err := tx.Store("records")
	require.NoError(t, err)

	require.NoError(t, is.Put(ctx, "keys", []byte("after")))
	require.NoError(t, is.Put(ctx, "extra", []byte("x")))
	require.NoError(t, rs.Put(ctx, "rec", []byte("r")))

	err = tx.Commit(ctx)
	require.ErrorIs(t, err, ErrAborted)
	require.ErrorIs(t, err, errInjected)
	require.NotErrorIs(t, err, ErrRollbackFailed)

	v, ok := get(t, base, "index", "keys")
	require.True(t, ok)
	require.Equal(t, "before", v, "applied index write must be undone")
	_, ok = get(t, base, "index", "extra")
	require.False(t, ok, "key created by the failed commit must be removed")
	_, ok = get(t, base, "records", "rec")
	require.False(t, ok)

	// the slot is released after a failed commit
	tx2, err := m.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx2.Rollback(ctx))
}

func TestTx_CommitFailureWithFailedUndo(t *testing.T) {
	base := newProvider(t)
	ctx := context.Background()

	p := faultyProvider(t, base, map[string]*faultyStore{
		// first write succeeds, the undo of it fails
		"index":   {failAfter: 1},
		"records": {failAfter: 0},
	})
	m := NewManager(p)

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	is, err := tx.Store("index")
	require.NoError(t, err)
	rs, err := tx.Store("records")
	require.NoError(t, err)
	require.NoError(t, is.Put(ctx, "keys", []byte("after")))
	require.NoError(t, rs.Put(ctx, "rec", []byte("r")))

	err = tx.Commit(ctx)
	require.ErrorIs(t, err, ErrRollbackFailed)
	require.ErrorIs(t, err, errInjected)
	require.NotErrorIs(t, err, ErrAborted)

	var rbErr *RollbackError
	require.ErrorAs(t, err, &rbErr)
	require.Equal(t, tx.ID(), rbErr.TxID)
	require.NotNil(t, rbErr.Cause)
	require.NotNil(t, rbErr.Rollback)
}

func TestTx_StoreLookupFailure(t *testing.T) {
	m := NewManager(newProvider(t))
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Store("")
	require.ErrorIs(t, err, cache.ErrInvalidStoreName)
	require.NoError(t, tx.Rollback(ctx))
}

func TestFromContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	m := NewManager(newProvider(t))
	tx, err := m.Begin(context.Background())
	require.NoError(t, err)

	got, ok := FromContext(WithContext(context.Background(), tx))
	require.True(t, ok)
	require.Same(t, tx, got)

	require.NoError(t, tx.Rollback(context.Background()))
	_, ok = FromContext(WithContext(context.Background(), tx))
	require.False(t, ok)
}

func TestManager_Provider(t *testing.T) {
	p := newProvider(t)
	require.Same(t, p, NewManager(p).Provider())
}
