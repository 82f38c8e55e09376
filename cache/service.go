package cache

import (
	"context"
	"slices"

	"github.com/goliatone/go-carmart/internal/cacheinfra"
)

var (
	// ErrNotFound is returned by Store.Get when the key holds no value.
	ErrNotFound = cacheinfra.ErrNotFound

	// ErrInvalidStoreName is returned by Provider.GetStore for an empty name.
	ErrInvalidStoreName = cacheinfra.ErrInvalidStoreName

	// ErrFull is returned by Store.Put when a new key would exceed capacity.
	ErrFull = cacheinfra.ErrFull
)

// NoExpiry is the default TTL: entries outlive any realistic process.
const NoExpiry = cacheinfra.NoExpiry

// Store is a handle to one named key-value store.
// Values are opaque payloads; implementations must not retain the slice passed
// to Put nor hand out a slice aliasing their internal state.
type Store interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Bounded is implemented by stores that hold a limited number of entries
// and reject new keys with ErrFull once they are full.
type Bounded interface {
	Capacity() int
}

// Provider hands out named stores. Repeated calls with the same name return
// handles onto the same underlying store.
type Provider interface {
	GetStore(name string) (Store, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(name string) (Store, error)

// GetStore implements Provider.
func (f ProviderFunc) GetStore(name string) (Store, error) {
	return f(name)
}

// StoreStats describes one store of a provider.
type StoreStats struct {
	Name     string
	Entries  int
	Capacity int
	// Keys are the raw, encoded keys held by the store, sorted.
	Keys []string
}

// Inspector is implemented by providers that can report on their stores.
type Inspector interface {
	Config() Config
	// Stats lists every store created so far, sorted by name.
	Stats() []StoreStats
}

type sturdycProvider struct {
	inner *cacheinfra.Provider
}

func (p *sturdycProvider) GetStore(name string) (Store, error) {
	s, err := p.inner.GetStore(name)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (p *sturdycProvider) Config() Config {
	return convertFromInternal(p.inner.Config())
}

func (p *sturdycProvider) Stats() []StoreStats {
	names := p.inner.StoreNames()
	slices.Sort(names)

	stats := make([]StoreStats, 0, len(names))
	for _, name := range names {
		s, err := p.inner.GetStore(name)
		if err != nil {
			continue
		}
		keys := s.Keys()
		slices.Sort(keys)
		stats = append(stats, StoreStats{
			Name:     name,
			Entries:  s.Size(),
			Capacity: s.Capacity(),
			Keys:     keys,
		})
	}
	return stats
}
