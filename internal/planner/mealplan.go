package planner

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"canteen-planner/internal/catalog"
)

// DayKey identifies one column of the weekly grid.
type DayKey string

const (
	Monday    DayKey = "Mon"
	Tuesday   DayKey = "Tue"
	Wednesday DayKey = "Wed"
	Thursday  DayKey = "Thu"
	Friday    DayKey = "Fri"
	Saturday  DayKey = "Sat"
	Sunday    DayKey = "Sun"
)

// Days lists the grid columns in display order.
var Days = [DaysPerWeek]DayKey{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// MealLabels lists the grid rows in display order.
var MealLabels = [SlotsPerDay]string{"Breakfast", "Lunch", "Dinner"}

const (
	DaysPerWeek = 7
	SlotsPerDay = 3
)

// PlannedEntry is a snapshot of a dish placed into a slot. Every placement
// yields its own entry, even for the same catalog dish.
type PlannedEntry struct {
	catalog.Dish
}

// MealSlot is one meal of one day.
type MealSlot struct {
	Label string         `json:"label"`
	Items []PlannedEntry `json:"items"`
}

// DayPlan holds the fixed meals of a single day.
type DayPlan [SlotsPerDay]MealSlot

// WeekPlan is the 7x3 planner grid. It is a value: Place and Remove return
// a new WeekPlan and never modify slices reachable from an earlier value.
type WeekPlan struct {
	days     [DaysPerWeek]DayPlan
	revision uint64
}

// NewWeekPlan returns an empty grid.
func NewWeekPlan() WeekPlan {
	var w WeekPlan
	for d := range w.days {
		for s := range w.days[d] {
			w.days[d][s] = MealSlot{Label: MealLabels[s], Items: []PlannedEntry{}}
		}
	}
	return w
}

// ParseDay resolves a day key case-insensitively, accepting full names too.
func ParseDay(raw string) (DayKey, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 3 {
		return "", false
	}
	for _, d := range Days {
		if strings.EqualFold(raw[:3], string(d)) {
			full := strings.ToLower(raw)
			if len(raw) == 3 || strings.HasPrefix(fullDayName(d), full) {
				return d, true
			}
		}
	}
	return "", false
}

func fullDayName(d DayKey) string {
	switch d {
	case Monday:
		return "monday"
	case Tuesday:
		return "tuesday"
	case Wednesday:
		return "wednesday"
	case Thursday:
		return "thursday"
	case Friday:
		return "friday"
	case Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}

// ParseMeal resolves a meal label or slot index ("lunch", "1").
func ParseMeal(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	for i, label := range MealLabels {
		if strings.EqualFold(raw, label) {
			return i, true
		}
	}
	if len(raw) == 1 && raw[0] >= '0' && raw[0] < '0'+SlotsPerDay {
		return int(raw[0] - '0'), true
	}
	return 0, false
}

// ValidSlot reports whether slot addresses a meal of a day.
func ValidSlot(slot int) bool {
	return slot >= 0 && slot < SlotsPerDay
}

func dayIndex(day DayKey) int {
	for i, d := range Days {
		if d == day {
			return i
		}
	}
	return -1
}

func mustCell(day DayKey, slot int) int {
	di := dayIndex(day)
	if di < 0 {
		panic(fmt.Sprintf("planner: unknown day %q", day))
	}
	if !ValidSlot(slot) {
		panic(fmt.Sprintf("planner: slot %d out of range", slot))
	}
	return di
}

// Revision increases with every mutation and can be compared to detect change.
func (w WeekPlan) Revision() uint64 {
	return w.revision
}

// Day returns a copy of one day of the grid.
func (w WeekPlan) Day(day DayKey) DayPlan {
	di := dayIndex(day)
	if di < 0 {
		return DayPlan{}
	}
	var out DayPlan
	for s, slot := range w.days[di] {
		out[s] = MealSlot{Label: slot.Label, Items: cloneEntries(slot.Items)}
	}
	return out
}

// Slot returns a copy of one cell's entries.
func (w WeekPlan) Slot(day DayKey, slot int) []PlannedEntry {
	di := dayIndex(day)
	if di < 0 || !ValidSlot(slot) {
		return nil
	}
	return cloneEntries(w.days[di][slot].Items)
}

// IsEmpty reports whether no dish has been placed.
func (w WeekPlan) IsEmpty() bool {
	for _, day := range w.days {
		for _, slot := range day {
			if len(slot.Items) > 0 {
				return false
			}
		}
	}
	return true
}

// Entries calls fn for every placed entry in grid order.
func (w WeekPlan) Entries(fn func(day DayKey, slot int, entry PlannedEntry)) {
	for di, day := range w.days {
		for s, slot := range day {
			for _, e := range slot.Items {
				fn(Days[di], s, e)
			}
		}
	}
}

// Place appends a copy of dish to the given cell. An unknown day or slot is
// a programming error and panics; validate user input with ParseDay and
// ValidSlot first.
func Place(w WeekPlan, day DayKey, slot int, dish catalog.Dish) WeekPlan {
	di := mustCell(day, slot)

	old := w.days[di][slot].Items
	items := make([]PlannedEntry, len(old), len(old)+1)
	copy(items, old)
	items = append(items, PlannedEntry{Dish: dish.Clone()})

	w.days[di][slot].Items = items
	w.revision++
	return w
}

// Remove deletes the entry at index from the given cell. Indexes outside the
// cell, or an invalid cell, leave the plan untouched and report false.
func Remove(w WeekPlan, day DayKey, slot, index int) (WeekPlan, bool) {
	di := dayIndex(day)
	if di < 0 || !ValidSlot(slot) {
		return w, false
	}
	old := w.days[di][slot].Items
	if index < 0 || index >= len(old) {
		return w, false
	}

	items := make([]PlannedEntry, 0, len(old)-1)
	items = append(items, old[:index]...)
	items = append(items, old[index+1:]...)

	w.days[di][slot].Items = items
	w.revision++
	return w, true
}

// Clone returns a deep copy of the plan.
func (w WeekPlan) Clone() WeekPlan {
	out := w
	for d := range out.days {
		for s := range out.days[d] {
			out.days[d][s].Items = cloneEntries(w.days[d][s].Items)
		}
	}
	return out
}

func cloneEntries(in []PlannedEntry) []PlannedEntry {
	out := make([]PlannedEntry, len(in))
	for i, e := range in {
		out[i] = PlannedEntry{Dish: e.Dish.Clone()}
	}
	return out
}

// DayView is the serialized form of one grid column.
type DayView struct {
	Day   DayKey     `json:"day"`
	Meals []MealSlot `json:"meals"`
}

// View returns the grid as an ordered, read-only list of days.
func (w WeekPlan) View() []DayView {
	out := make([]DayView, 0, DaysPerWeek)
	for di, d := range Days {
		meals := make([]MealSlot, SlotsPerDay)
		for s, slot := range w.days[di] {
			meals[s] = MealSlot{Label: slot.Label, Items: cloneEntries(slot.Items)}
		}
		out = append(out, DayView{Day: d, Meals: meals})
	}
	return out
}

// MarshalJSON encodes the grid in day order.
func (w WeekPlan) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Days     []DayView `json:"days"`
		Revision uint64    `json:"revision"`
	}{w.View(), w.revision})
}

// UnmarshalJSON restores a grid, rejecting anything that is not exactly
// seven known days of three meals.
func (w *WeekPlan) UnmarshalJSON(data []byte) error {
	var raw struct {
		Days     []DayView `json:"days"`
		Revision uint64    `json:"revision"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Days) != DaysPerWeek {
		return fmt.Errorf("week plan has %d days, want %d", len(raw.Days), DaysPerWeek)
	}

	out := NewWeekPlan()
	seen := make([]DayKey, 0, DaysPerWeek)
	for _, dv := range raw.Days {
		di := dayIndex(dv.Day)
		if di < 0 || slices.Contains(seen, dv.Day) {
			return fmt.Errorf("week plan has unexpected day %q", dv.Day)
		}
		seen = append(seen, dv.Day)
		if len(dv.Meals) != SlotsPerDay {
			return fmt.Errorf("day %s has %d meals, want %d", dv.Day, len(dv.Meals), SlotsPerDay)
		}
		for s, meal := range dv.Meals {
			items := make([]PlannedEntry, 0, len(meal.Items))
			for _, e := range meal.Items {
				if err := e.Validate(); err != nil {
					return fmt.Errorf("day %s meal %d: %w", dv.Day, s, err)
				}
				items = append(items, PlannedEntry{Dish: e.Dish.Clone()})
			}
			out.days[di][s].Items = items
		}
	}
	out.revision = raw.Revision
	*w = out
	return nil
}
