package cars

import (
	"context"
	"fmt"

	"github.com/goliatone/go-carmart/pkg/logging"
	"github.com/goliatone/go-carmart/recordstore"
	"github.com/goliatone/go-carmart/txn"
)

// Manager keeps the car inventory: each car under its number plate in the
// carcache store and the ordered plate list in the carlist store.
type Manager struct {
	store  *recordstore.Store[Car]
	logger logging.Logger
}

type managerOptions struct {
	logger     logging.Logger
	duplicates recordstore.DuplicatePolicy
}

// ManagerOption configures NewManager.
type ManagerOption func(*managerOptions)

// WithLogger sets the manager logger.
func WithLogger(l logging.Logger) ManagerOption {
	return func(o *managerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDuplicatePolicy sets what AddNewCar does with a plate that is
// already stored. The default replaces the stored car.
func WithDuplicatePolicy(p recordstore.DuplicatePolicy) ManagerOption {
	return func(o *managerOptions) { o.duplicates = p }
}

// NewManager builds a Manager over the stores of tm's provider.
func NewManager(tm *txn.Manager, opts ...ManagerOption) (*Manager, error) {
	o := &managerOptions{logger: logging.Nop(), duplicates: recordstore.DuplicateUpsert}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger.With("component", "cars")
	store, err := recordstore.New[Car](tm, Car.Plate,
		recordstore.WithStoreNames(CarCacheName, CarListCacheName),
		recordstore.WithIndexKey(CarNumbersKey),
		recordstore.WithDuplicatePolicy(o.duplicates),
		recordstore.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("car store: %w", err)
	}
	return &Manager{store: store, logger: logger}, nil
}

// AddNewCar validates car and stores it.
func (m *Manager) AddNewCar(ctx context.Context, car Car) error {
	if err := car.Validate(); err != nil {
		return err
	}
	if err := m.store.Add(ctx, car); err != nil {
		return err
	}
	m.logger.Info(ctx, "car added", "plate", car.NumberPlate)
	return nil
}

// CarDetails returns the car with the given plate. ok is false when there
// is none.
func (m *Manager) CarDetails(ctx context.Context, plate string) (car Car, ok bool, err error) {
	return m.store.Get(ctx, plate)
}

// CarList returns the plates of all stored cars in the order they were added.
func (m *Manager) CarList(ctx context.Context) ([]string, error) {
	return m.store.ListKeys(ctx)
}

// RemoveCar removes the car with the given plate. Unknown plates are ignored.
func (m *Manager) RemoveCar(ctx context.Context, plate string) error {
	if err := m.store.Remove(ctx, plate); err != nil {
		return err
	}
	m.logger.Info(ctx, "car removed", "plate", plate)
	return nil
}

// Search returns the cars matching filter in list order. See ParseFilter
// for the filter syntax.
func (m *Manager) Search(ctx context.Context, filter string) ([]Car, error) {
	f, err := ParseFilter(filter)
	if err != nil {
		return nil, err
	}
	m.logger.Debug(ctx, "search", "filter", filter)
	return m.store.Search(ctx, f.Match)
}

// SearchByExample returns the cars whose fields equal the non-zero fields of
// example: all of them when matchAll is set, any of them otherwise.
func (m *Manager) SearchByExample(ctx context.Context, example Car, matchAll bool) ([]Car, error) {
	return m.Search(ctx, ExampleFilter(example, matchAll))
}
