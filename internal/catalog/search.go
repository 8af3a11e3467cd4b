package catalog

import "strings"

const (
	defaultSearchResults = 6
	maxSearchResults     = 8
)

// Regions lists the gallery tabs in display order.
var Regions = []string{"North", "South", "East", "West", "Central"}

// Search matches query case-insensitively against dish names, regions and tags.
// An empty query returns the first few dishes as suggestions.
func Search(dishes []Dish, query string) []Dish {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return head(dishes, defaultSearchResults)
	}

	var out []Dish
	for _, d := range dishes {
		if matchesQuery(d, q) {
			out = append(out, d)
		}
	}
	return head(out, maxSearchResults)
}

// Regional returns dishes from a single region, optionally narrowed by a
// query over name or state and by a vegetarian-only toggle.
func Regional(dishes []Dish, region, query string, vegOnly bool) []Dish {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []Dish{}
	for _, d := range dishes {
		if !strings.EqualFold(d.Region, region) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(d.Name), q) &&
			!strings.Contains(strings.ToLower(d.State), q) {
			continue
		}
		if vegOnly && !d.HasTag(TagVegetarian) && !d.HasTag(TagVegan) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// IsRegion reports whether name is one of the known regions.
func IsRegion(name string) bool {
	for _, r := range Regions {
		if strings.EqualFold(r, name) {
			return true
		}
	}
	return false
}

func matchesQuery(d Dish, q string) bool {
	if strings.Contains(strings.ToLower(d.Name), q) ||
		strings.Contains(strings.ToLower(d.Region), q) {
		return true
	}
	for _, t := range d.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func head(dishes []Dish, n int) []Dish {
	if len(dishes) > n {
		dishes = dishes[:n]
	}
	out := make([]Dish, len(dishes))
	copy(out, dishes)
	return out
}
