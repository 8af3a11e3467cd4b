package planner

import (
	"errors"
	"fmt"

	"canteen-planner/internal/catalog"
)

var (
	// ErrInvalidTarget is returned when a drop lands outside the grid.
	ErrInvalidTarget = errors.New("invalid drop target")
	// ErrNotDragging is returned when a drop arrives with no drag in
	// progress, including after Cancel.
	ErrNotDragging = errors.New("no drag in progress")
)

// DragState is the state of the placement protocol.
type DragState int

const (
	Idle DragState = iota
	Dragging
)

func (s DragState) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Outcome is how a drag ended.
type Outcome int

const (
	Dropped Outcome = iota + 1
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Dropped:
		return "dropped"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Placement drives the drag-and-drop protocol that moves a catalog dish into
// a grid cell:
//
//	Idle -> Dragging(payload) -> Dropped | Cancelled -> Idle
//
// The dish travels as an encoded payload produced at Start and decoded at
// Drop, so the two ends share no memory.
type Placement struct {
	codec   PayloadCodec
	state   DragState
	payload []byte
}

// NewPlacement creates an idle protocol using codec. A nil codec defaults
// to JSONCodec.
func NewPlacement(codec PayloadCodec) *Placement {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Placement{codec: codec}
}

// State returns the current protocol state.
func (p *Placement) State() DragState {
	return p.state
}

// InFlight returns the payload of the current drag, if any, so a client
// that lost it can resume the drag.
func (p *Placement) InFlight() []byte {
	if p.state != Dragging {
		return nil
	}
	return append([]byte(nil), p.payload...)
}

// Start picks a dish up. The dish is encoded immediately; later catalog
// changes cannot alter the drag.
func (p *Placement) Start(d catalog.Dish) ([]byte, error) {
	payload, err := p.codec.Encode(d)
	if err != nil {
		return nil, fmt.Errorf("failed to start drag for %s: %w", d.ID, err)
	}
	p.state = Dragging
	p.payload = payload
	return append([]byte(nil), payload...), nil
}

// Over reports whether the cell accepts the drop in progress.
func (p *Placement) Over(day DayKey, slot int) bool {
	return p.state == Dragging && dayIndex(day) >= 0 && ValidSlot(slot)
}

// Drop releases payload over a cell. A valid payload is placed and the new
// plan returned with Dropped. A drop while Idle, a malformed payload or an
// invalid cell is Cancelled and returns the plan unchanged with the reason.
// Either way the protocol is Idle afterwards.
func (p *Placement) Drop(w WeekPlan, day DayKey, slot int, payload []byte) (WeekPlan, Outcome, error) {
	defer p.reset()

	if p.state != Dragging {
		return w, Cancelled, ErrNotDragging
	}
	if dayIndex(day) < 0 || !ValidSlot(slot) {
		return w, Cancelled, fmt.Errorf("%w: %s/%d", ErrInvalidTarget, day, slot)
	}
	dish, err := p.codec.Decode(payload)
	if err != nil {
		return w, Cancelled, err
	}
	return Place(w, day, slot, dish), Dropped, nil
}

// Cancel aborts the drag without touching any plan.
func (p *Placement) Cancel() {
	p.reset()
}

func (p *Placement) reset() {
	p.state = Idle
	p.payload = nil
}
