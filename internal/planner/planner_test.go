package planner

import (
	"encoding/json"
	"slices"
	"testing"

	"canteen-planner/internal/catalog"
)

var (
	dosa = catalog.Dish{
		ID: "masala-dosa", Name: "Masala Dosa", Kcal: 380,
		Macros: catalog.Macros{P: 9, C: 58, F: 12},
		Tags:   []string{catalog.TagVegetarian},
	}
	idli = catalog.Dish{
		ID: "idli", Name: "Idli", Kcal: 220,
		Macros: catalog.Macros{P: 8, C: 44, F: 2},
		Tags:   []string{catalog.TagVegan},
	}
)

func entryIDs(entries []PlannedEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestNewWeekPlan(t *testing.T) {
	w := NewWeekPlan()
	if !w.IsEmpty() {
		t.Fatal("Expected a new plan to be empty")
	}

	view := w.View()
	if len(view) != 7 {
		t.Fatalf("Expected 7 days, got %d", len(view))
	}
	for i, dv := range view {
		if dv.Day != Days[i] {
			t.Errorf("Expected day %s at %d, got %s", Days[i], i, dv.Day)
		}
		if len(dv.Meals) != 3 {
			t.Fatalf("Expected 3 meals on %s, got %d", dv.Day, len(dv.Meals))
		}
		for s, meal := range dv.Meals {
			if meal.Label != MealLabels[s] {
				t.Errorf("Expected meal %s, got %s", MealLabels[s], meal.Label)
			}
		}
	}
	if w.Day(Sunday)[2].Label != "Dinner" {
		t.Error("Expected Sunday's third meal to be Dinner")
	}
}

func TestPlace(t *testing.T) {
	t.Run("OrderPreserving", func(t *testing.T) {
		w := NewWeekPlan()
		w = Place(w, Monday, 0, dosa)
		w = Place(w, Monday, 0, idli)

		if got := entryIDs(w.Slot(Monday, 0)); !slices.Equal(got, []string{"masala-dosa", "idli"}) {
			t.Errorf("Expected [masala-dosa idli], got %v", got)
		}
	})

	t.Run("ReturnsNewValue", func(t *testing.T) {
		before := Place(NewWeekPlan(), Tuesday, 1, dosa)
		after := Place(before, Tuesday, 1, idli)

		if len(before.Slot(Tuesday, 1)) != 1 {
			t.Errorf("Expected the earlier plan to keep 1 entry, got %d", len(before.Slot(Tuesday, 1)))
		}
		if len(after.Slot(Tuesday, 1)) != 2 {
			t.Errorf("Expected the new plan to hold 2 entries, got %d", len(after.Slot(Tuesday, 1)))
		}
		if after.Revision() == before.Revision() {
			t.Error("Expected revision to change after a mutation")
		}
	})

	t.Run("CopySemantics", func(t *testing.T) {
		d := dosa.Clone()
		w := Place(NewWeekPlan(), Friday, 2, d)
		w = Place(w, Friday, 2, d)
		d.Tags[0] = "Mutated"
		d.Name = "Changed"

		entries := w.Slot(Friday, 2)
		if len(entries) != 2 {
			t.Fatalf("Expected 2 independent entries, got %d", len(entries))
		}
		if entries[0].Name != "Masala Dosa" || entries[0].Tags[0] != catalog.TagVegetarian {
			t.Errorf("Expected entry to be a snapshot, got %+v", entries[0])
		}
	})

	t.Run("PanicsOnInvalidCell", func(t *testing.T) {
		for name, fn := range map[string]func(){
			"Slot": func() { Place(NewWeekPlan(), Monday, 3, dosa) },
			"Day":  func() { Place(NewWeekPlan(), DayKey("Funday"), 0, dosa) },
		} {
			t.Run(name, func(t *testing.T) {
				defer func() {
					if recover() == nil {
						t.Error("Expected a panic")
					}
				}()
				fn()
			})
		}
	})
}

func TestRemove(t *testing.T) {
	w := NewWeekPlan()
	w = Place(w, Wednesday, 1, dosa)
	w = Place(w, Wednesday, 1, idli)
	w = Place(w, Wednesday, 1, dosa)

	t.Run("ByIndex", func(t *testing.T) {
		next, ok := Remove(w, Wednesday, 1, 1)
		if !ok {
			t.Fatal("Expected removal to succeed")
		}
		if got := entryIDs(next.Slot(Wednesday, 1)); !slices.Equal(got, []string{"masala-dosa", "masala-dosa"}) {
			t.Errorf("Expected [masala-dosa masala-dosa], got %v", got)
		}
		if len(w.Slot(Wednesday, 1)) != 3 {
			t.Error("Expected the original plan to be untouched")
		}
	})

	t.Run("OutOfRangeIgnored", func(t *testing.T) {
		for _, idx := range []int{-1, 3, 100} {
			next, ok := Remove(w, Wednesday, 1, idx)
			if ok {
				t.Errorf("Expected index %d to be rejected", idx)
			}
			if got := entryIDs(next.Slot(Wednesday, 1)); !slices.Equal(got, []string{"masala-dosa", "idli", "masala-dosa"}) {
				t.Errorf("Expected slot unchanged, got %v", got)
			}
			if next.Revision() != w.Revision() {
				t.Error("Expected revision unchanged for ignored removal")
			}
		}
	})

	t.Run("InvalidCellIgnored", func(t *testing.T) {
		if _, ok := Remove(w, Wednesday, 5, 0); ok {
			t.Error("Expected invalid slot to be rejected")
		}
		if _, ok := Remove(w, DayKey("Xyz"), 0, 0); ok {
			t.Error("Expected invalid day to be rejected")
		}
		if _, ok := Remove(w, Thursday, 0, 0); ok {
			t.Error("Expected removal from an empty slot to be rejected")
		}
	})
}

func TestParseDayAndMeal(t *testing.T) {
	days := map[string]DayKey{"mon": Monday, "Tuesday": Tuesday, " SUN ": Sunday, "thurs": Thursday}
	for raw, want := range days {
		if got, ok := ParseDay(raw); !ok || got != want {
			t.Errorf("ParseDay(%q) = %q, %v; want %q", raw, got, ok, want)
		}
	}
	for _, raw := range []string{"", "mo", "monkey", "Funday"} {
		if _, ok := ParseDay(raw); ok {
			t.Errorf("Expected ParseDay(%q) to fail", raw)
		}
	}

	meals := map[string]int{"breakfast": 0, "LUNCH": 1, "2": 2}
	for raw, want := range meals {
		if got, ok := ParseMeal(raw); !ok || got != want {
			t.Errorf("ParseMeal(%q) = %d, %v; want %d", raw, got, ok, want)
		}
	}
	for _, raw := range []string{"3", "brunch", ""} {
		if _, ok := ParseMeal(raw); ok {
			t.Errorf("Expected ParseMeal(%q) to fail", raw)
		}
	}
}

func TestWeekPlanJSON(t *testing.T) {
	w := Place(NewWeekPlan(), Saturday, 2, dosa)
	w = Place(w, Monday, 0, idli)

	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var back WeekPlan
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if ComputeTotals(back) != ComputeTotals(w) {
		t.Errorf("Expected totals %+v, got %+v", ComputeTotals(w), ComputeTotals(back))
	}
	if back.Revision() != w.Revision() {
		t.Errorf("Expected revision %d, got %d", w.Revision(), back.Revision())
	}

	t.Run("RejectsWrongShape", func(t *testing.T) {
		bad := []string{
			`{"days":[]}`,
			`{"days":[{"day":"Mon","meals":[]},{"day":"Mon","meals":[]},{"day":"Tue","meals":[]},{"day":"Wed","meals":[]},{"day":"Thu","meals":[]},{"day":"Fri","meals":[]},{"day":"Sat","meals":[]}]}`,
		}
		for _, raw := range bad {
			var w WeekPlan
			if err := json.Unmarshal([]byte(raw), &w); err == nil {
				t.Errorf("Expected error for %s", raw)
			}
		}
	})
}
