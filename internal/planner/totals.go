package planner

import "canteen-planner/internal/catalog"

// Totals is the nutritional sum across the whole plan.
type Totals struct {
	Kcal int `json:"kcal"`
	P    int `json:"p"`
	C    int `json:"c"`
	F    int `json:"f"`
}

// TotalsOf returns the contribution of a single dish.
func TotalsOf(d catalog.Dish) Totals {
	return Totals{Kcal: d.Kcal, P: d.Macros.P, C: d.Macros.C, F: d.Macros.F}
}

func (t Totals) Add(o Totals) Totals {
	return Totals{Kcal: t.Kcal + o.Kcal, P: t.P + o.P, C: t.C + o.C, F: t.F + o.F}
}

func (t Totals) Sub(o Totals) Totals {
	return Totals{Kcal: t.Kcal - o.Kcal, P: t.P - o.P, C: t.C - o.C, F: t.F - o.F}
}

// IsZero reports whether nothing has been counted.
func (t Totals) IsZero() bool {
	return t == Totals{}
}

// ComputeTotals sums every entry of every slot. It is recomputed from scratch
// on each call; the grid is small and bounded.
func ComputeTotals(w WeekPlan) Totals {
	var t Totals
	w.Entries(func(_ DayKey, _ int, e PlannedEntry) {
		t = t.Add(TotalsOf(e.Dish))
	})
	return t
}

// DayTotals sums a single day.
func DayTotals(w WeekPlan, day DayKey) Totals {
	var t Totals
	for _, slot := range w.Day(day) {
		for _, e := range slot.Items {
			t = t.Add(TotalsOf(e.Dish))
		}
	}
	return t
}
