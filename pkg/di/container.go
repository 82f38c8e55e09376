package di

import (
	"github.com/goliatone/go-carmart/cache"
	"github.com/goliatone/go-carmart/cars"
	"github.com/goliatone/go-carmart/pkg/logging"
	"github.com/goliatone/go-carmart/recordstore"
	"github.com/goliatone/go-carmart/txn"
)

// Container wires the shared store provider and transaction manager and
// builds record stores and car managers on top of them. Everything built from
// one Container shares one transaction manager, so their transactions never
// overlap.
type Container struct {
	provider  cache.Provider
	txManager *txn.Manager
	config    cache.Config
	logger    logging.Logger
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger handed to every component the container builds.
func WithLogger(l logging.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewContainer creates a new DI container with the provided cache configuration.
// It initializes the sturdyc backed store provider and the transaction
// manager over it.
func NewContainer(config cache.Config, opts ...Option) (*Container, error) {
	c := &Container{config: config, logger: logging.Nop()}
	for _, opt := range opts {
		opt(c)
	}

	provider, err := cache.NewProvider(config)
	if err != nil {
		return nil, err
	}

	c.provider = provider
	c.txManager = txn.NewManager(provider, txn.WithLogger(c.logger.With("component", "txn")))
	return c, nil
}

// NewContainerWithDefaults creates a new DI container using default configuration.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	return NewContainer(cache.DefaultConfig(), opts...)
}

// Provider returns the singleton store provider.
func (c *Container) Provider() cache.Provider {
	return c.provider
}

// TxManager returns the singleton transaction manager.
func (c *Container) TxManager() *txn.Manager {
	return c.txManager
}

// Config returns a copy of the cache configuration used by this container.
func (c *Container) Config() cache.Config {
	return c.config
}

func (c *Container) Logger() logging.Logger {
	return c.logger
}

// NewCarManager builds a cars.Manager over the container's stores.
func (c *Container) NewCarManager(opts ...cars.ManagerOption) (*cars.Manager, error) {
	opts = append([]cars.ManagerOption{cars.WithLogger(c.logger)}, opts...)
	return cars.NewManager(c.txManager, opts...)
}

// NewRecordStore creates a record store for T over the container's
// transaction manager and its provider. Options are applied after the container's logger.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewRecordStore[Order](container, Order.ID, recordstore.WithStoreNames("orders", "order_ids"))
func NewRecordStore[T any](container *Container, keyFn recordstore.KeyFunc[T], opts ...recordstore.Option) (*recordstore.Store[T], error) {
	opts = append([]recordstore.Option{recordstore.WithLogger(container.logger)}, opts...)
	return recordstore.New(container.txManager, keyFn, opts...)
}
