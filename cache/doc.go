// Package cache defines the store contracts the record store is built on and
// provides the default sturdyc-backed implementation.
//
// # Overview
//
// This package exports three main interfaces and their default implementations:
//
//   - Store: a named key-value handle with Get, Put and Remove
//   - Provider: hands out named stores, one shared handle per name
//   - KeyCodec: turns natural keys into storage-safe keys and back
//
// The default provider also implements Inspector, and its stores implement
// Bounded.
//
// # Basic Usage
//
//	provider, err := cache.NewProvider(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	cars, _ := provider.GetStore("carcache")
//	err = cars.Put(ctx, cache.EncodeKey("AB 123"), payload)
//
// Store.Get returns ErrNotFound when a key holds no value. Values are copied
// on Put, so callers can never mutate cache contents in place.
//
// # Key Encoding
//
// Natural keys such as number plates may contain spaces or slashes. The
// default codec applies form-style percent encoding (space becomes '+',
// reserved characters become %XX) over the UTF-8 bytes of the key.
// Decode(Encode(k)) == k holds for every Go string.
//
// # Configuration
//
// Config maps onto the sturdyc constructor: capacity, shard count, TTL,
// eviction percentage and eviction interval. ConfigFromEnv reads the
// CARMART_CACHE_* variables on top of DefaultConfig.
//
// A store holds up to Capacity entries and is never evicted from: once full,
// Put of a new key fails with ErrFull. Entries expire after TTL, which
// defaults to NoExpiry. That is the only durability the stores provide.
package cache
