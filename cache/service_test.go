package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewProvider_StoreContract(t *testing.T) {
	provider, err := NewProvider(DefaultConfig())
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}

	store, err := provider.GetStore("carcache")
	if err != nil {
		t.Fatalf("GetStore() failed: %v", err)
	}
	if store.Name() != "carcache" {
		t.Errorf("expected store name carcache, got %q", store.Name())
	}

	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing key, got: %v", err)
	}

	payload := []byte("volvo")
	if err := store.Put(ctx, "ABC123", payload); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	payload[0] = 'X'

	got, err := store.Get(ctx, "ABC123")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got) != "volvo" {
		t.Errorf("stored value should be isolated from the caller's slice, got %q", got)
	}

	if err := store.Remove(ctx, "ABC123"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if err := store.Remove(ctx, "ABC123"); err != nil {
		t.Errorf("Remove() of absent key should be a no-op, got: %v", err)
	}
	if _, err := store.Get(ctx, "ABC123"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after Remove, got: %v", err)
	}
}

func TestNewProvider_SameNameSameStore(t *testing.T) {
	provider, err := NewProvider(DefaultConfig())
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}

	ctx := context.Background()
	a, _ := provider.GetStore("carlist")
	b, _ := provider.GetStore("carlist")
	other, _ := provider.GetStore("carcache")

	if err := a.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if _, err := b.Get(ctx, "k"); err != nil {
		t.Errorf("second handle should observe writes of the first: %v", err)
	}
	if _, err := other.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("stores with different names must not share entries, got: %v", err)
	}
}

func TestNewProvider_EmptyStoreName(t *testing.T) {
	provider, err := NewProvider(DefaultConfig())
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}
	if _, err := provider.GetStore(""); !errors.Is(err, ErrInvalidStoreName) {
		t.Errorf("expected ErrInvalidStoreName, got: %v", err)
	}
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 0

	_, err := NewProvider(cfg)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got: %v", err)
	}
	if cfgErr.Field != "Capacity" {
		t.Errorf("expected Capacity field error, got %q", cfgErr.Field)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CARMART_CACHE_CAPACITY", "42")
	t.Setenv("CARMART_CACHE_TTL", "90s")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() failed: %v", err)
	}

	if cfg.Capacity != 42 {
		t.Errorf("expected capacity 42, got %d", cfg.Capacity)
	}
	if cfg.TTL != 90*time.Second {
		t.Errorf("expected TTL 90s, got %v", cfg.TTL)
	}
	if cfg.NumShards != DefaultConfig().NumShards {
		t.Errorf("unset variables should keep defaults, got %d shards", cfg.NumShards)
	}
}

func TestConfigFromEnv_Malformed(t *testing.T) {
	t.Setenv("CARMART_CACHE_CAPACITY", "lots")

	if _, err := ConfigFromEnv(); err == nil {
		t.Error("expected error for malformed capacity")
	}
}

func TestProviderFunc(t *testing.T) {
	called := ""
	p := ProviderFunc(func(name string) (Store, error) {
		called = name
		return nil, ErrInvalidStoreName
	})

	if _, err := p.GetStore("x"); !errors.Is(err, ErrInvalidStoreName) {
		t.Errorf("expected passthrough error, got: %v", err)
	}
	if called != "x" {
		t.Errorf("expected function to receive name x, got %q", called)
	}
}

func TestNewProvider_Inspector(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 2
	provider, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}
	ctx := context.Background()

	cars, _ := provider.GetStore("carcache")
	list, _ := provider.GetStore("carlist")
	_ = cars.Put(ctx, "B2", []byte("b"))
	_ = cars.Put(ctx, "A1", []byte("a"))
	_ = list.Put(ctx, "carnumbers", []byte("x"))

	if err := cars.Put(ctx, "C3", []byte("c")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got: %v", err)
	}
	if b, ok := cars.(Bounded); !ok || b.Capacity() != 2 {
		t.Errorf("default stores should be Bounded with capacity 2, got %v", cars)
	}

	insp, ok := provider.(Inspector)
	if !ok {
		t.Fatal("default provider should implement Inspector")
	}
	if insp.Config() != cfg {
		t.Errorf("expected config %+v, got %+v", cfg, insp.Config())
	}

	stats := insp.Stats()
	if len(stats) != 2 {
		t.Fatalf("expected 2 stores, got %+v", stats)
	}
	if stats[0].Name != "carcache" || stats[0].Entries != 2 || stats[0].Capacity != 2 {
		t.Errorf("unexpected carcache stats %+v", stats[0])
	}
	if len(stats[0].Keys) != 2 || stats[0].Keys[0] != "A1" || stats[0].Keys[1] != "B2" {
		t.Errorf("expected sorted keys [A1 B2], got %v", stats[0].Keys)
	}
	if stats[1].Name != "carlist" || stats[1].Entries != 1 {
		t.Errorf("unexpected carlist stats %+v", stats[1])
	}
}
