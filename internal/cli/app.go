package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-carmart/cache"
	"github.com/goliatone/go-carmart/cars"
)

// App runs shell commands against a car manager. stores backs the stats
// command and may be nil.
type App struct {
	cars   *cars.Manager
	stores cache.Inspector
}

func NewApp(m *cars.Manager, stores cache.Inspector) *App {
	return &App{cars: m, stores: stores}
}

func (a *App) Add(ctx context.Context, plate string, fields []string) error {
	car, err := parseCar(plate, fields)
	if err != nil {
		return err
	}
	if err := a.cars.AddNewCar(ctx, car); err != nil {
		return err
	}
	printlnFn("added", car.NumberPlate)
	return nil
}

func (a *App) Show(ctx context.Context, plate string) error {
	car, ok, err := a.cars.CarDetails(ctx, plate)
	if err != nil {
		return err
	}
	if !ok {
		printlnFn("no car with plate", plate)
		return nil
	}
	printlnFn(formatCar(car))
	return nil
}

func (a *App) List(ctx context.Context) error {
	plates, err := a.cars.CarList(ctx)
	if err != nil {
		return err
	}
	if len(plates) == 0 {
		printlnFn("(no cars)")
		return nil
	}
	for _, p := range plates {
		printlnFn(p)
	}
	return nil
}

func (a *App) Remove(ctx context.Context, plate string) error {
	if err := a.cars.RemoveCar(ctx, plate); err != nil {
		return err
	}
	printlnFn("removed", plate)
	return nil
}

func (a *App) Search(ctx context.Context, filter string) error {
	found, err := a.cars.Search(ctx, filter)
	if err != nil {
		return err
	}
	printCars(found)
	return nil
}

func (a *App) Match(ctx context.Context, matchAll bool, fields []string) error {
	example, err := parseCar("", fields)
	if err != nil {
		return err
	}
	found, err := a.cars.SearchByExample(ctx, example, matchAll)
	if err != nil {
		return err
	}
	printCars(found)
	return nil
}

// Stats prints the store configuration and the size of every store. With a
// store name it prints that store's raw keys instead.
func (a *App) Stats(_ context.Context, store string) error {
	if a.stores == nil {
		return errors.New("store statistics are not available")
	}
	stats := a.stores.Stats()

	if store == "" {
		cfg := a.stores.Config()
		ttl := cfg.TTL.String()
		if cfg.TTL == cache.NoExpiry {
			ttl = "none"
		}
		printlnFn(fmt.Sprintf("capacity=%d shards=%d ttl=%s", cfg.Capacity, cfg.NumShards, ttl))
		for _, st := range stats {
			printlnFn(fmt.Sprintf("%-16s %d/%d", st.Name, st.Entries, st.Capacity))
		}
		return nil
	}

	for _, st := range stats {
		if st.Name != store {
			continue
		}
		if len(st.Keys) == 0 {
			printlnFn("(empty)")
		}
		for _, k := range st.Keys {
			printlnFn(k)
		}
		return nil
	}
	return fmt.Errorf("unknown store %q", store)
}

func printCars(found []cars.Car) {
	if len(found) == 0 {
		printlnFn("(no matches)")
		return
	}
	for _, c := range found {
		printlnFn(formatCar(c))
	}
}

func formatCar(c cars.Car) string {
	return fmt.Sprintf("%-16s %-12s %4.1f %-8s %-10s %s",
		c.NumberPlate, c.Brand, c.Displacement, c.Color, c.Type, c.Country)
}

// parseCar builds a car from name=value pairs.
func parseCar(plate string, fields []string) (cars.Car, error) {
	car := cars.Car{NumberPlate: plate}
	for _, f := range fields {
		name, value, ok := strings.Cut(f, "=")
		if !ok {
			return cars.Car{}, fmt.Errorf("expected field=value, got %q", f)
		}
		switch strings.ToLower(name) {
		case "plate", "number_plate":
			car.NumberPlate = value
		case "brand":
			car.Brand = value
		case "displacement":
			d, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return cars.Car{}, fmt.Errorf("displacement: %w", err)
			}
			car.Displacement = d
		case "color":
			car.Color = cars.Color(strings.ToLower(value))
		case "type":
			car.Type = cars.CarType(strings.ToLower(value))
		case "country":
			car.Country = cars.Country(strings.ToLower(value))
		default:
			return cars.Car{}, fmt.Errorf("unknown field %q", name)
		}
	}
	return car, nil
}

// LoadSeed adds the cars listed in the JSON file at path and returns how many
// were added.
func LoadSeed(ctx context.Context, m *cars.Manager, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed: %w", err)
	}

	var seed []cars.Car
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("decode seed %s: %w", path, err)
	}

	for i, c := range seed {
		if err := m.AddNewCar(ctx, c); err != nil {
			return i, fmt.Errorf("seed car %d: %w", i, err)
		}
	}
	return len(seed), nil
}
