package cache

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/goliatone/go-carmart/internal/cacheinfra"
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Capacity           int           `env:"CARMART_CACHE_CAPACITY"`
	NumShards          int           `env:"CARMART_CACHE_SHARDS"`
	TTL                time.Duration `env:"CARMART_CACHE_TTL"`
	EvictionPercentage int           `env:"CARMART_CACHE_EVICTION_PERCENTAGE"`
	EvictionInterval   time.Duration `env:"CARMART_CACHE_EVICTION_INTERVAL"`
}

// ConfigError reports an invalid configuration field.
type ConfigError = cacheinfra.ConfigError

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// ConfigFromEnv starts from DefaultConfig and overrides every field that has
// its environment variable set.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// NewProvider constructs the default sturdyc-backed store provider.
func NewProvider(cfg Config) (Provider, error) {
	inner, err := cacheinfra.NewProvider(cfg.toInternal())
	if err != nil {
		return nil, err
	}
	return &sturdycProvider{inner: inner}, nil
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
	}
}
