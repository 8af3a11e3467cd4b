package catalog

import "fmt"

// Catalog is read-only reference data. Entries are validated once by New;
// callers never re-validate individual dishes.
type Catalog struct {
	dishes []Dish
	byID   map[string]int
}

// New validates the given dishes and builds a catalog preserving their order.
func New(dishes []Dish) (*Catalog, error) {
	c := &Catalog{
		dishes: make([]Dish, 0, len(dishes)),
		byID:   make(map[string]int, len(dishes)),
	}
	for i, d := range dishes {
		d = d.normalize()
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if _, exists := c.byID[d.ID]; exists {
			return nil, fmt.Errorf("catalog entry %d: %w: %s", i, ErrDuplicateDish, d.ID)
		}
		c.byID[d.ID] = len(c.dishes)
		c.dishes = append(c.dishes, d.Clone())
	}
	return c, nil
}

// All returns a copy of every dish in catalog order.
func (c *Catalog) All() []Dish {
	out := make([]Dish, len(c.dishes))
	for i, d := range c.dishes {
		out[i] = d.Clone()
	}
	return out
}

// Get looks a dish up by ID.
func (c *Catalog) Get(id string) (Dish, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Dish{}, false
	}
	return c.dishes[i].Clone(), true
}

// Len returns the number of dishes.
func (c *Catalog) Len() int {
	return len(c.dishes)
}

// Filter applies the dietary filter to the whole catalog.
func (c *Catalog) Filter(state FilterState) []Dish {
	return Filter(c.All(), state)
}

// Search runs a free-text search over the catalog.
func (c *Catalog) Search(query string) []Dish {
	return Search(c.All(), query)
}

// Regional returns the gallery view for one region.
func (c *Catalog) Regional(region, query string, vegOnly bool) []Dish {
	return Regional(c.All(), region, query, vegOnly)
}
