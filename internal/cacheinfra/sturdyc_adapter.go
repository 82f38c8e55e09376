package cacheinfra

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/viccon/sturdyc"
)

var (
	ErrNotFound         = errors.New("cache: key not found")
	ErrInvalidStoreName = errors.New("cache: store name must not be empty")
	ErrFull             = errors.New("cache: store is full")
)

// NoExpiry is a TTL long enough that entries never expire in practice.
const NoExpiry = 100 * 365 * 24 * time.Hour

// Config holds the configuration for the sturdyc-backed stores.
// Every named store gets its own sturdyc client built from the same Config.
type Config struct {
	// Capacity defines the maximum number of entries a single store can hold.
	// A full store rejects new keys with ErrFull and never evicts.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Higher values improve concurrency but increase memory overhead.
	// Must be greater than 0. Default: 256
	NumShards int

	// TTL is how long an entry lives after its last write.
	// Must be greater than 0. Default: NoExpiry
	TTL time.Duration

	// EvictionPercentage is handed to sturdyc, which evicts from a shard that
	// is full on write. Shards have room for the whole store plus one entry,
	// so with Put refusing to grow a full store this never triggers.
	// Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often the cache checks for expired entries.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                NoExpiry,
		EvictionPercentage: 10,
		EvictionInterval:   0,
	}
}

// ToSturdycOptions converts the optional parts of Config to sturdyc options.
// Capacity, NumShards, TTL and EvictionPercentage are constructor arguments.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// Provider hands out one sturdyc-backed store per name, creating stores on
// first use.
type Provider struct {
	config Config
	stores *xsync.MapOf[string, *Store]
}

// NewProvider validates cfg and returns an empty provider.
func NewProvider(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Provider{
		config: cfg,
		stores: xsync.NewMapOf[string, *Store](),
	}, nil
}

// Config returns the configuration every store is built with.
func (p *Provider) Config() Config {
	return p.config
}

// GetStore returns the store registered under name, creating it if needed.
// Concurrent callers asking for the same name receive the same store.
func (p *Provider) GetStore(name string) (*Store, error) {
	if name == "" {
		return nil, ErrInvalidStoreName
	}

	store, _ := p.stores.LoadOrCompute(name, func() *Store {
		return newStore(name, p.config)
	})
	return store, nil
}

// StoreNames lists the names of all stores created so far.
func (p *Provider) StoreNames() []string {
	names := make([]string, 0, p.stores.Size())
	p.stores.Range(func(name string, _ *Store) bool {
		names = append(names, name)
		return true
	})
	return names
}

// Store is a single named sturdyc client holding opaque byte payloads.
type Store struct {
	name     string
	capacity int
	client   *sturdyc.Client[[]byte]

	// serializes the capacity check in Put with the write
	mu sync.Mutex
}

func newStore(name string, cfg Config) *Store {
	// sturdyc gives each shard capacity/numShards slots and force-evicts a full
	// shard on write, even when the write replaces an existing key. Keys do not
	// spread evenly, so every shard gets room for the whole store and Put
	// enforces the store-wide limit instead.
	client := sturdyc.New[[]byte](
		(cfg.Capacity+1)*cfg.NumShards,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &Store{name: name, capacity: cfg.Capacity, client: client}
}

// Name returns the name the store was registered under.
func (s *Store) Name() string {
	return s.name
}

// Get returns a copy of the value stored under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, ok := s.client.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return clone(value), nil
}

// Put stores a copy of value under key, replacing any previous value.
// Adding a new key to a store holding Capacity entries fails with ErrFull.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.client.Get(key); !ok && s.client.Size() >= s.capacity {
		return fmt.Errorf("%w: %q holds %d entries", ErrFull, s.name, s.capacity)
	}
	s.client.Set(key, clone(value))
	return nil
}

// Remove deletes key. Removing an absent key is a no-op.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.client.Delete(key)
	return nil
}

// Capacity returns the number of entries the store holds before Put fails.
func (s *Store) Capacity() int {
	return s.capacity
}

// Keys returns every key currently held by the store, in no particular order.
func (s *Store) Keys() []string {
	return s.client.ScanKeys()
}

// Size returns the number of entries currently held by the store.
func (s *Store) Size() int {
	return s.client.Size()
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
