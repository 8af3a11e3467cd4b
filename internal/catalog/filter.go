package catalog

// FilterState holds independent dietary predicates. A true flag requires the
// matching tag; a false flag imposes no constraint.
type FilterState struct {
	Veg        bool `json:"veg"`
	Vegan      bool `json:"vegan"`
	GlutenFree bool `json:"gluten_free"`
}

// Active reports whether any predicate is set.
func (s FilterState) Active() bool {
	return s.Veg || s.Vegan || s.GlutenFree
}

// Matches reports whether a dish satisfies every enabled predicate.
func (s FilterState) Matches(d Dish) bool {
	if s.Vegan && !d.HasTag(TagVegan) {
		return false
	}
	if s.Veg && !d.HasTag(TagVegetarian) {
		return false
	}
	if s.GlutenFree && !d.HasTag(TagGlutenFree) {
		return false
	}
	return true
}

// Filter returns the dishes matching state, in input order. An empty result
// is a valid "no matches" view.
func Filter(dishes []Dish, state FilterState) []Dish {
	out := make([]Dish, 0, len(dishes))
	for _, d := range dishes {
		if state.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}
