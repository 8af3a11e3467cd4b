package planner

import (
	"errors"
	"testing"
	"time"

	"canteen-planner/internal/catalog"
)

func TestPlacementProtocol(t *testing.T) {
	signed, err := NewSignedCodec("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewSignedCodec failed: %v", err)
	}
	codecs := map[string]PayloadCodec{
		"JSON":   JSONCodec{},
		"Signed": signed,
	}

	for name, codec := range codecs {
		t.Run(name, func(t *testing.T) {
			t.Run("DropPlacesDish", func(t *testing.T) {
				p := NewPlacement(codec)
				payload, err := p.Start(dosa)
				if err != nil {
					t.Fatalf("Start failed: %v", err)
				}
				if p.State() != Dragging {
					t.Fatalf("Expected dragging, got %s", p.State())
				}
				if !p.Over(Monday, 0) {
					t.Error("Expected Monday breakfast to accept the drop")
				}

				w, outcome, err := p.Drop(NewWeekPlan(), Monday, 0, payload)
				if err != nil {
					t.Fatalf("Drop failed: %v", err)
				}
				if outcome != Dropped {
					t.Errorf("Expected dropped, got %s", outcome)
				}
				if p.State() != Idle {
					t.Errorf("Expected idle after drop, got %s", p.State())
				}
				want := Totals{Kcal: 380, P: 9, C: 58, F: 12}
				if got := ComputeTotals(w); got != want {
					t.Errorf("Expected %+v, got %+v", want, got)
				}
			})

			t.Run("SameDishTwiceMakesTwoEntries", func(t *testing.T) {
				p := NewPlacement(codec)
				w := NewWeekPlan()
				for i := 0; i < 2; i++ {
					payload, err := p.Start(dosa)
					if err != nil {
						t.Fatalf("Start failed: %v", err)
					}
					var outcome Outcome
					w, outcome, err = p.Drop(w, Tuesday, 1, payload)
					if err != nil || outcome != Dropped {
						t.Fatalf("Expected drop %d to succeed, got %s, %v", i+1, outcome, err)
					}
				}
				if n := len(w.Slot(Tuesday, 1)); n != 2 {
					t.Errorf("Expected 2 entries, got %d", n)
				}
			})

			t.Run("StalePayloadAfterDropCancels", func(t *testing.T) {
				p := NewPlacement(codec)
				payload, _ := p.Start(dosa)
				w, _, _ := p.Drop(NewWeekPlan(), Tuesday, 1, payload)
				w, outcome, err := p.Drop(w, Tuesday, 1, payload)
				if outcome != Cancelled || !errors.Is(err, ErrNotDragging) {
					t.Errorf("Expected cancelled with ErrNotDragging, got %s, %v", outcome, err)
				}
				if n := len(w.Slot(Tuesday, 1)); n != 1 {
					t.Errorf("Expected 1 entry, got %d", n)
				}
			})

			t.Run("MalformedPayloadCancels", func(t *testing.T) {
				p := NewPlacement(codec)
				start := Place(NewWeekPlan(), Friday, 0, idli)
				valid, err := codec.Encode(dosa)
				if err != nil {
					t.Fatalf("Encode failed: %v", err)
				}
				trailing := append(append([]byte(nil), valid...), []byte("}}not-json")...)

				for _, payload := range [][]byte{nil, []byte("not a dish"), []byte(`{"id":""}`), trailing} {
					if _, err := p.Start(dosa); err != nil {
						t.Fatalf("Start failed: %v", err)
					}
					w, outcome, err := p.Drop(start, Monday, 0, payload)
					if outcome != Cancelled {
						t.Errorf("Expected cancelled for %q, got %s", payload, outcome)
					}
					if !errors.Is(err, ErrMalformedPayload) {
						t.Errorf("Expected ErrMalformedPayload for %q, got %v", payload, err)
					}
					if w.Revision() != start.Revision() || ComputeTotals(w) != ComputeTotals(start) {
						t.Error("Expected plan to be unchanged")
					}
					if p.State() != Idle {
						t.Errorf("Expected idle, got %s", p.State())
					}
				}
			})

			t.Run("InvalidTargetCancels", func(t *testing.T) {
				p := NewPlacement(codec)
				payload, _ := p.Start(dosa)
				if p.Over(Monday, 3) {
					t.Error("Expected slot 3 to reject the drop")
				}
				w, outcome, err := p.Drop(NewWeekPlan(), Monday, 3, payload)
				if outcome != Cancelled || !errors.Is(err, ErrInvalidTarget) {
					t.Errorf("Expected cancelled with ErrInvalidTarget, got %s, %v", outcome, err)
				}
				if !w.IsEmpty() {
					t.Error("Expected plan to stay empty")
				}
			})
		})
	}
}

func TestPlacementCancel(t *testing.T) {
	p := NewPlacement(nil)
	if p.Over(Monday, 0) {
		t.Error("Expected no drop target while idle")
	}
	if _, err := p.Start(dosa); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if len(p.InFlight()) == 0 {
		t.Error("Expected a payload in flight")
	}

	p.Cancel()
	if p.State() != Idle {
		t.Errorf("Expected idle after cancel, got %s", p.State())
	}
	if p.InFlight() != nil {
		t.Error("Expected no payload after cancel")
	}
}

func TestPlacementDropRequiresDrag(t *testing.T) {
	t.Run("AfterCancel", func(t *testing.T) {
		p := NewPlacement(nil)
		payload, err := p.Start(dosa)
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		p.Cancel()

		w, outcome, err := p.Drop(NewWeekPlan(), Monday, 0, payload)
		if outcome != Cancelled || !errors.Is(err, ErrNotDragging) {
			t.Errorf("Expected cancelled with ErrNotDragging, got %s, %v", outcome, err)
		}
		if !w.IsEmpty() {
			t.Error("Expected plan to stay empty after a cancelled drag")
		}
	})

	t.Run("WithoutStart", func(t *testing.T) {
		payload, err := JSONCodec{}.Encode(dosa)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		p := NewPlacement(nil)
		w, outcome, err := p.Drop(NewWeekPlan(), Monday, 0, payload)
		if outcome != Cancelled || !errors.Is(err, ErrNotDragging) {
			t.Errorf("Expected cancelled with ErrNotDragging, got %s, %v", outcome, err)
		}
		if !w.IsEmpty() {
			t.Error("Expected plan to stay empty")
		}
	})
}

func TestPlacementStartRejectsInvalidDish(t *testing.T) {
	p := NewPlacement(nil)
	_, err := p.Start(catalog.Dish{ID: "bad", Name: "Bad", Kcal: -1})
	if !errors.Is(err, catalog.ErrInvalidDish) {
		t.Errorf("Expected ErrInvalidDish, got %v", err)
	}
	if p.State() != Idle {
		t.Errorf("Expected idle, got %s", p.State())
	}
}

func TestPayloadIsSnapshot(t *testing.T) {
	d := dosa.Clone()
	p := NewPlacement(JSONCodec{})
	payload, _ := p.Start(d)
	d.Kcal = 9999

	w, _, err := p.Drop(NewWeekPlan(), Monday, 0, payload)
	if err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if got := ComputeTotals(w).Kcal; got != 380 {
		t.Errorf("Expected 380 kcal from the payload, got %d", got)
	}
}

func TestSignedCodec(t *testing.T) {
	t.Run("EmptySecret", func(t *testing.T) {
		if _, err := NewSignedCodec("", time.Minute); err == nil {
			t.Error("Expected error for empty secret")
		}
	})

	t.Run("RejectsForeignKey", func(t *testing.T) {
		a, _ := NewSignedCodec("secret-a", time.Minute)
		b, _ := NewSignedCodec("secret-b", time.Minute)
		payload, err := a.Encode(dosa)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if _, err := b.Decode(payload); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("Expected ErrMalformedPayload, got %v", err)
		}
	})

	t.Run("RejectsExpired", func(t *testing.T) {
		c, _ := NewSignedCodec("secret", time.Minute)
		issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return issued }
		payload, err := c.Encode(dosa)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}

		c.now = func() time.Time { return issued.Add(2 * time.Minute) }
		if _, err := c.Decode(payload); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("Expected ErrMalformedPayload for expired payload, got %v", err)
		}
	})

	t.Run("RejectsTamperedJSON", func(t *testing.T) {
		c, _ := NewSignedCodec("secret", 0)
		if _, err := c.Decode([]byte(`{"id":"masala-dosa","name":"Masala Dosa","kcal":1}`)); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("Expected ErrMalformedPayload, got %v", err)
		}
	})
}

func TestJSONCodecRejectsUnknownFields(t *testing.T) {
	_, err := JSONCodec{}.Decode([]byte(`{"id":"x","name":"X","kcal":1,"color":"red"}`))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("Expected ErrMalformedPayload, got %v", err)
	}
}

func TestJSONCodecRejectsTrailingData(t *testing.T) {
	cases := map[string]string{
		"Garbage":     `{"id":"x","name":"X","kcal":1}}}not-json`,
		"SecondValue": `{"id":"x","name":"X","kcal":1} {"id":"y","name":"Y"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := (JSONCodec{}).Decode([]byte(raw)); !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("Expected ErrMalformedPayload, got %v", err)
			}
		})
	}

	if _, err := (JSONCodec{}).Decode([]byte("{\"id\":\"x\",\"name\":\"X\",\"kcal\":1}\n")); err != nil {
		t.Errorf("Expected trailing whitespace to be accepted, got %v", err)
	}
}
