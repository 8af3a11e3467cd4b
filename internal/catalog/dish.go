package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Dietary tags understood by the filter engine.
const (
	TagVegetarian = "Vegetarian"
	TagVegan      = "Vegan"
	TagGlutenFree = "Gluten-free"
)

var (
	// ErrInvalidDish is returned when a dish fails schema validation.
	ErrInvalidDish = errors.New("invalid dish")
	// ErrDuplicateDish is returned when two catalog entries share an ID.
	ErrDuplicateDish = errors.New("duplicate dish id")
	// ErrDishNotFound is returned when an ID is not in the catalog.
	ErrDishNotFound = errors.New("dish not found")
)

// Macros holds the macronutrient breakdown of a dish in grams.
type Macros struct {
	P int `json:"p" toml:"p"`
	C int `json:"c" toml:"c"`
	F int `json:"f" toml:"f"`
}

// Dish is a catalog menu item with nutritional metadata.
// Region, State, About and Allergens are presentational and never
// influence planning.
type Dish struct {
	ID        string   `json:"id" toml:"id"`
	Name      string   `json:"name" toml:"name"`
	Kcal      int      `json:"kcal" toml:"kcal"`
	Macros    Macros   `json:"macros" toml:"macros"`
	Tags      []string `json:"tags" toml:"tags"`
	Region    string   `json:"region,omitempty" toml:"region"`
	State     string   `json:"state,omitempty" toml:"state"`
	About     string   `json:"about,omitempty" toml:"about"`
	Allergens []string `json:"allergens,omitempty" toml:"allergens"`
}

// HasTag reports whether the dish carries the given tag.
func (d Dish) HasTag(tag string) bool {
	return slices.Contains(d.Tags, tag)
}

// Clone returns a deep copy of the dish.
func (d Dish) Clone() Dish {
	d.Tags = slices.Clone(d.Tags)
	d.Allergens = slices.Clone(d.Allergens)
	return d
}

// Validate checks the fixed schema of a dish.
func (d Dish) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidDish)
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: dish %s missing name", ErrInvalidDish, d.ID)
	}
	if d.Kcal < 0 {
		return fmt.Errorf("%w: dish %s has negative kcal", ErrInvalidDish, d.ID)
	}
	if d.Macros.P < 0 || d.Macros.C < 0 || d.Macros.F < 0 {
		return fmt.Errorf("%w: dish %s has negative macros", ErrInvalidDish, d.ID)
	}
	return nil
}

// normalize trims text fields and drops empty or repeated tags so the
// tag list behaves as a set.
func (d Dish) normalize() Dish {
	d.ID = strings.TrimSpace(d.ID)
	d.Name = strings.TrimSpace(d.Name)
	d.Region = strings.TrimSpace(d.Region)
	d.State = strings.TrimSpace(d.State)

	tags := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(tags, t) {
			continue
		}
		tags = append(tags, t)
	}
	d.Tags = tags
	return d
}
