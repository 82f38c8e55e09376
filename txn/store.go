package txn

import (
	"context"

	"github.com/goliatone/go-carmart/cache"
)

type pendingValue struct {
	value   []byte
	removed bool
}

// txStore is a transactional view of one backend store.
type txStore struct {
	tx      *Tx
	backend cache.Store
	pending map[string]pendingValue
}

var _ cache.Store = (*txStore)(nil)

func (s *txStore) Name() string {
	return s.backend.Name()
}

// Get reads the transaction's own write for key if there is one, otherwise
// the committed value.
func (s *txStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.tx.mu.Lock()
	if s.tx.done {
		s.tx.mu.Unlock()
		return nil, ErrTxDone
	}
	p, ok := s.pending[key]
	s.tx.mu.Unlock()

	if ok {
		if p.removed {
			return nil, cache.ErrNotFound
		}
		return clone(p.value), nil
	}
	return s.backend.Get(ctx, key)
}

func (s *txStore) Put(ctx context.Context, key string, value []byte) error {
	return s.buffer(ctx, key, clone(value), false)
}

func (s *txStore) Remove(ctx context.Context, key string) error {
	return s.buffer(ctx, key, nil, true)
}

func (s *txStore) buffer(ctx context.Context, key string, value []byte, remove bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.tx.mu.Lock()
	defer s.tx.mu.Unlock()

	if s.tx.done {
		return ErrTxDone
	}
	s.pending[key] = pendingValue{value: value, removed: remove}
	s.tx.writes = append(s.tx.writes, write{store: s.backend, key: key, value: value, remove: remove})
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
