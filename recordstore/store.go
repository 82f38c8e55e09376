package recordstore

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/goliatone/go-carmart/cache"
	"github.com/goliatone/go-carmart/pkg/logging"
	"github.com/goliatone/go-carmart/txn"
)

// KeyFunc returns the natural key of a record.
type KeyFunc[T any] func(record T) string

// Predicate selects records in Search. A nil Predicate matches every record.
type Predicate[T any] func(record T) bool

// Store keeps records of type T in a record store and their keys in an index
// store, and changes both in one transaction so they never diverge.
type Store[T any] struct {
	records cache.Store
	index   cache.Store
	tm      *txn.Manager
	keyFn   KeyFunc[T]

	indexKey    string
	recordsName string
	indexName   string
	codec       cache.KeyCodec
	duplicates  DuplicatePolicy
	capacity    int
	logger      logging.Logger
}

// roundTripKeys must survive a codec round trip for New to accept the codec.
var roundTripKeys = []string{"ABC123", "AB 12 CD", "1A2/3456", "a+b%c=d&e", "ÖÄÜ-ŽŠČ"}

// New builds a Store over the named stores of tm's provider. Reads go
// straight to the provider, mutations run in transactions begun on tm.
func New[T any](tm *txn.Manager, keyFn KeyFunc[T], opts ...Option) (*Store[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	switch {
	case tm == nil:
		return nil, fmt.Errorf("%w: transaction manager is required", ErrInvalidOptions)
	case tm.Provider() == nil:
		return nil, fmt.Errorf("%w: transaction manager has no provider", ErrInvalidOptions)
	case keyFn == nil:
		return nil, fmt.Errorf("%w: key function is required", ErrInvalidOptions)
	case o.RecordStoreName == "" || o.IndexStoreName == "":
		return nil, fmt.Errorf("%w: store names must not be empty", ErrInvalidOptions)
	case o.RecordStoreName == o.IndexStoreName:
		return nil, fmt.Errorf("%w: record and index stores must differ", ErrInvalidOptions)
	case o.IndexKey == "":
		return nil, fmt.Errorf("%w: index key must not be empty", ErrInvalidOptions)
	case o.Capacity < 0:
		return nil, fmt.Errorf("%w: capacity must not be negative", ErrInvalidOptions)
	}

	for _, k := range roundTripKeys {
		if got, err := o.KeyCodec.Decode(o.KeyCodec.Encode(k)); err != nil || got != k {
			return nil, fmt.Errorf("%w: %q", ErrKeyCodec, k)
		}
	}

	provider := tm.Provider()
	records, err := provider.GetStore(o.RecordStoreName)
	if err != nil {
		return nil, fmt.Errorf("record store: %w", err)
	}
	index, err := provider.GetStore(o.IndexStoreName)
	if err != nil {
		return nil, fmt.Errorf("index store: %w", err)
	}

	capacity := o.Capacity
	if b, ok := records.(cache.Bounded); ok && (capacity == 0 || b.Capacity() < capacity) {
		capacity = b.Capacity()
	}

	return &Store[T]{
		records:     records,
		index:       index,
		tm:          tm,
		keyFn:       keyFn,
		indexKey:    o.IndexKey,
		recordsName: o.RecordStoreName,
		indexName:   o.IndexStoreName,
		codec:       o.KeyCodec,
		duplicates:  o.Duplicates,
		capacity:    capacity,
		logger:      o.Logger.With("records", o.RecordStoreName, "index", o.IndexStoreName),
	}, nil
}

// Add stores record and appends its key to the index in one transaction.
//
// Adding a key that is already stored follows the duplicate policy: the
// default replaces the record and leaves the index untouched, DuplicateReject
// fails with ErrExists. A new key fails with ErrFull once the store holds
// its capacity, before anything is written.
func (s *Store[T]) Add(ctx context.Context, record T) error {
	key := s.keyFn(record)
	if key == "" {
		return ErrEmptyKey
	}

	payload, err := msgpack.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record %q: %w", key, err)
	}

	err = txn.WithTx(ctx, s.tm, func(ctx context.Context, tx *txn.Tx) error {
		index, records, err := s.txStores(tx)
		if err != nil {
			return err
		}

		keys, err := s.liveKeys(ctx, index, records)
		if err != nil {
			return err
		}

		if slices.Contains(keys, key) {
			if s.duplicates == DuplicateReject {
				return ErrExists
			}
		} else {
			if s.capacity > 0 && len(keys) >= s.capacity {
				return fmt.Errorf("%w: %d records", ErrFull, s.capacity)
			}
			keys = append(keys, key)
		}

		if err := writeIndex(ctx, index, s.indexKey, keys); err != nil {
			return err
		}
		return records.Put(ctx, s.codec.Encode(key), payload)
	})
	if err != nil {
		s.logger.Warn(ctx, "add failed", "key", key, "error", err)
		return fmt.Errorf("add %q: %w", key, err)
	}

	s.logger.Debug(ctx, "record added", "key", key)
	return nil
}

// Get returns the record stored under key. ok is false when there is none.
// Get does not read the index and does not run in a transaction.
func (s *Store[T]) Get(ctx context.Context, key string) (record T, ok bool, err error) {
	raw, err := s.records.Get(ctx, s.codec.Encode(key))
	if errors.Is(err, cache.ErrNotFound) {
		return record, false, nil
	}
	if err != nil {
		return record, false, fmt.Errorf("get %q: %w", key, err)
	}

	if err := msgpack.Unmarshal(raw, &record); err != nil {
		return record, false, fmt.Errorf("decode record %q: %w", key, err)
	}
	return record, true, nil
}

// ListKeys returns a copy of the index: the natural keys of all stored
// records in insertion order. It is empty, never nil, when nothing is stored.
// Keys whose record has expired are left out.
func (s *Store[T]) ListKeys(ctx context.Context) ([]string, error) {
	return s.liveKeys(ctx, s.index, s.records)
}

// Len returns the number of keys in the index.
func (s *Store[T]) Len(ctx context.Context) (int, error) {
	keys, err := s.ListKeys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Remove deletes the record stored under key and its index entry in one
// transaction. Removing a key that is not stored is a no-op.
func (s *Store[T]) Remove(ctx context.Context, key string) error {
	err := txn.WithTx(ctx, s.tm, func(ctx context.Context, tx *txn.Tx) error {
		index, records, err := s.txStores(tx)
		if err != nil {
			return err
		}

		if err := records.Remove(ctx, s.codec.Encode(key)); err != nil {
			return err
		}

		// the record is already gone from this view, so its key is dropped
		// along with any whose record expired
		keys, err := s.liveKeys(ctx, index, records)
		if err != nil {
			return err
		}
		return writeIndex(ctx, index, s.indexKey, keys)
	})
	if err != nil {
		s.logger.Warn(ctx, "remove failed", "key", key, "error", err)
		return fmt.Errorf("remove %q: %w", key, err)
	}

	s.logger.Debug(ctx, "record removed", "key", key)
	return nil
}

// Search walks the index in order and returns the records matching pred.
// Index keys whose record is gone by the time it is read are skipped.
func (s *Store[T]) Search(ctx context.Context, pred Predicate[T]) ([]T, error) {
	keys, err := s.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]T, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, ok, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if pred == nil || pred(record) {
			matches = append(matches, record)
		}
	}
	return matches, nil
}

func (s *Store[T]) txStores(tx *txn.Tx) (index, records cache.Store, err error) {
	index, err = tx.Store(s.indexName)
	if err != nil {
		return nil, nil, err
	}
	records, err = tx.Store(s.recordsName)
	if err != nil {
		return nil, nil, err
	}
	return index, records, nil
}

// liveKeys reads the index and drops keys whose record is no longer in
// records. Records expire on their own schedule while every mutation rewrites
// the index, so the index entry always outlives the records it lists.
func (s *Store[T]) liveKeys(ctx context.Context, index, records cache.Store) ([]string, error) {
	keys, err := readIndex(ctx, index, s.indexKey)
	if err != nil {
		return nil, err
	}

	live := keys[:0]
	for _, key := range keys {
		_, err := records.Get(ctx, s.codec.Encode(key))
		switch {
		case err == nil:
			live = append(live, key)
		case !errors.Is(err, cache.ErrNotFound):
			return nil, fmt.Errorf("read record %q: %w", key, err)
		}
	}
	return live, nil
}

func readIndex(ctx context.Context, store cache.Store, key string) ([]string, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, cache.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	var keys []string
	if err := msgpack.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

func writeIndex(ctx context.Context, store cache.Store, key string, keys []string) error {
	raw, err := msgpack.Marshal(keys)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := store.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
