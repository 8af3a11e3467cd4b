package planner

import (
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"

	"canteen-planner/internal/catalog"
)

// op is a random place or remove against the grid.
type op struct {
	Place bool
	Day   int
	Slot  int
	Index int
	Kcal  int
	P     int
	C     int
	F     int
}

type opSeq []op

func (opSeq) Generate(r *rand.Rand, size int) reflect.Value {
	ops := make(opSeq, r.Intn(size+1))
	for i := range ops {
		ops[i] = op{
			Place: r.Intn(3) > 0,
			Day:   r.Intn(DaysPerWeek),
			Slot:  r.Intn(SlotsPerDay),
			Index: r.Intn(4) - 1,
			Kcal:  r.Intn(900),
			P:     r.Intn(60),
			C:     r.Intn(120),
			F:     r.Intn(50),
		}
	}
	return reflect.ValueOf(ops)
}

func (o op) dish() catalog.Dish {
	return catalog.Dish{
		ID: "d", Name: "Generated", Kcal: o.Kcal,
		Macros: catalog.Macros{P: o.P, C: o.C, F: o.F},
	}
}

func TestComputeTotals(t *testing.T) {
	t.Run("EmptyPlanIsZero", func(t *testing.T) {
		if got := ComputeTotals(NewWeekPlan()); !got.IsZero() {
			t.Errorf("Expected zero totals, got %+v", got)
		}
	})

	t.Run("SinglePlacement", func(t *testing.T) {
		w := Place(NewWeekPlan(), Monday, 0, dosa)
		want := Totals{Kcal: 380, P: 9, C: 58, F: 12}
		if got := ComputeTotals(w); got != want {
			t.Errorf("Expected %+v, got %+v", want, got)
		}
	})

	t.Run("DuplicateThenRemoveOne", func(t *testing.T) {
		w := Place(NewWeekPlan(), Tuesday, 1, dosa)
		w = Place(w, Tuesday, 1, dosa)
		if got := ComputeTotals(w); got.Kcal != 760 {
			t.Fatalf("Expected 760 kcal, got %d", got.Kcal)
		}

		w, ok := Remove(w, Tuesday, 1, 0)
		if !ok {
			t.Fatal("Expected removal to succeed")
		}
		if n := len(w.Slot(Tuesday, 1)); n != 1 {
			t.Errorf("Expected 1 remaining entry, got %d", n)
		}
		want := Totals{Kcal: 380, P: 9, C: 58, F: 12}
		if got := ComputeTotals(w); got != want {
			t.Errorf("Expected %+v, got %+v", want, got)
		}
	})

	t.Run("RemoveEverythingIsZero", func(t *testing.T) {
		w := Place(NewWeekPlan(), Monday, 0, dosa)
		w = Place(w, Sunday, 2, idli)
		w = Place(w, Sunday, 2, dosa)

		w, _ = Remove(w, Sunday, 2, 1)
		w, _ = Remove(w, Sunday, 2, 0)
		w, _ = Remove(w, Monday, 0, 0)
		if got := ComputeTotals(w); !got.IsZero() {
			t.Errorf("Expected zero totals, got %+v", got)
		}
		if !w.IsEmpty() {
			t.Error("Expected plan to be empty")
		}
	})

	t.Run("DayTotals", func(t *testing.T) {
		w := Place(NewWeekPlan(), Monday, 0, dosa)
		w = Place(w, Monday, 2, idli)
		w = Place(w, Friday, 1, dosa)

		if got := DayTotals(w, Monday); got.Kcal != 600 {
			t.Errorf("Expected 600 kcal on Monday, got %d", got.Kcal)
		}
		if got := DayTotals(w, Thursday); !got.IsZero() {
			t.Errorf("Expected nothing on Thursday, got %+v", got)
		}
	})
}

func TestTotalsTrackMutations(t *testing.T) {
	// Running the sum alongside each mutation must agree with a full recompute.
	prop := func(ops opSeq) bool {
		w := NewWeekPlan()
		var running Totals
		for _, o := range ops {
			day := Days[o.Day]
			if o.Place {
				w = Place(w, day, o.Slot, o.dish())
				running = running.Add(TotalsOf(o.dish()))
				continue
			}
			entries := w.Slot(day, o.Slot)
			var removed Totals
			if o.Index >= 0 && o.Index < len(entries) {
				removed = TotalsOf(entries[o.Index].Dish)
			}
			next, ok := Remove(w, day, o.Slot, o.Index)
			if ok {
				running = running.Sub(removed)
			}
			w = next
		}
		return ComputeTotals(w) == running
	}
	if err := quick.Check(prop, nil); err != nil {
		t.Error(err)
	}
}

func TestPlaceThenRemoveRestoresPlan(t *testing.T) {
	prop := func(ops opSeq, o op) bool {
		w := NewWeekPlan()
		for _, x := range ops {
			if x.Place {
				w = Place(w, Days[x.Day], x.Slot, x.dish())
			}
		}
		day := Days[o.Day]
		before := ComputeTotals(w)
		n := len(w.Slot(day, o.Slot))

		placed := Place(w, day, o.Slot, o.dish())
		restored, ok := Remove(placed, day, o.Slot, n)
		return ok && ComputeTotals(restored) == before && len(restored.Slot(day, o.Slot)) == n
	}
	cfg := &quick.Config{Values: func(v []reflect.Value, r *rand.Rand) {
		v[0] = opSeq(nil).Generate(r, 20)
		v[1] = reflect.ValueOf(op{
			Day: r.Intn(DaysPerWeek), Slot: r.Intn(SlotsPerDay),
			Kcal: r.Intn(900), P: r.Intn(60), C: r.Intn(120), F: r.Intn(50),
		})
	}}
	if err := quick.Check(prop, cfg); err != nil {
		t.Error(err)
	}
}
