package cars

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Store names and index key used for cars.
const (
	CarCacheName     = "carcache"
	CarListCacheName = "carlist"
	CarNumbersKey    = "carnumbers"
)

// MaxPlateLength is the longest accepted number plate.
const MaxPlateLength = 16

var ErrInvalidCar = errors.New("cars: invalid car")

type Color string

const (
	ColorWhite  Color = "white"
	ColorBlack  Color = "black"
	ColorBlue   Color = "blue"
	ColorRed    Color = "red"
	ColorSilver Color = "silver"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
)

// Colors lists the known colors.
func Colors() []Color {
	return []Color{ColorWhite, ColorBlack, ColorBlue, ColorRed, ColorSilver, ColorGreen, ColorYellow}
}

type CarType string

const (
	TypeSedan     CarType = "sedan"
	TypeHatchback CarType = "hatchback"
	TypeCombi     CarType = "combi"
	TypeCabrio    CarType = "cabrio"
	TypeRoadster  CarType = "roadster"
)

// Types lists the known body types.
func Types() []CarType {
	return []CarType{TypeSedan, TypeHatchback, TypeCombi, TypeCabrio, TypeRoadster}
}

type Country string

const (
	CountryCzechRepublic Country = "czech republic"
	CountryUSA           Country = "usa"
	CountryGermany       Country = "germany"
	CountrySweden        Country = "sweden"
	CountryJapan         Country = "japan"
	CountryItaly         Country = "italy"
	CountryFrance        Country = "france"
)

// Countries lists the known countries of origin.
func Countries() []Country {
	return []Country{
		CountryCzechRepublic, CountryUSA, CountryGermany, CountrySweden,
		CountryJapan, CountryItaly, CountryFrance,
	}
}

// Car is a car offered for sale, identified by its number plate.
type Car struct {
	NumberPlate  string  `json:"number_plate" msgpack:"number_plate"`
	Brand        string  `json:"brand,omitempty" msgpack:"brand"`
	Displacement float64 `json:"displacement,omitempty" msgpack:"displacement"`
	Color        Color   `json:"color,omitempty" msgpack:"color"`
	Type         CarType `json:"type,omitempty" msgpack:"type"`
	Country      Country `json:"country,omitempty" msgpack:"country"`
}

// Plate returns the natural key of c.
func (c Car) Plate() string {
	return c.NumberPlate
}

// Validate checks c before it is stored. Enumerated fields may be left empty.
func (c Car) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.NumberPlate,
			validation.Required,
			validation.Length(1, MaxPlateLength),
			validation.By(notBlank),
		),
		validation.Field(&c.Brand, validation.Length(0, 64)),
		validation.Field(&c.Displacement, validation.Min(0.0)),
		validation.Field(&c.Color, validation.In(anys(Colors())...)),
		validation.Field(&c.Type, validation.In(anys(Types())...)),
		validation.Field(&c.Country, validation.In(anys(Countries())...)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCar, err)
	}
	return nil
}

func notBlank(value any) error {
	s, _ := value.(string)
	if s != "" && strings.TrimSpace(s) == "" {
		return errors.New("must not be blank")
	}
	return nil
}

func anys[E any](values []E) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
