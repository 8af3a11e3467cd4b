package session

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"canteen-planner/internal/catalog"
	"canteen-planner/internal/planner"
)

// ErrInvalidRating is returned for ratings outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5 stars")

const (
	MinStars = 1
	MaxStars = 5
)

// Session is one user's planning context: the visible catalog filter, the
// live week plan, the dish last selected and any star ratings. Nothing here
// outlives the process.
type Session struct {
	ID        string
	Filter    catalog.FilterState
	Plan      planner.WeekPlan
	Selected  string
	Ratings   map[string]int
	Placement *planner.Placement
	CreatedAt time.Time
}

func newSession(id string, codec planner.PayloadCodec, now time.Time) *Session {
	return &Session{
		ID:        id,
		Plan:      planner.NewWeekPlan(),
		Ratings:   make(map[string]int),
		Placement: planner.NewPlacement(codec),
		CreatedAt: now,
	}
}

// Select marks dishID as the current selection. An empty id clears it.
// Selecting never places anything on the plan.
func (s *Session) Select(dishID string) {
	s.Selected = dishID
}

// Rate records a star rating for dishID, replacing any earlier one.
func (s *Session) Rate(dishID string, stars int) error {
	if stars < MinStars || stars > MaxStars {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, stars)
	}
	s.Ratings[dishID] = stars
	return nil
}

// Visible applies the session filter to the catalog.
func (s *Session) Visible(c *catalog.Catalog) []catalog.Dish {
	return c.Filter(s.Filter)
}

// Snapshot is a read-only copy of a session suitable for rendering.
// InFlight holds the payload of a drag in progress so a client that
// reconnects mid-drag can still drop it.
type Snapshot struct {
	ID        string              `json:"id"`
	Filter    catalog.FilterState `json:"filter"`
	Plan      []planner.DayView   `json:"plan"`
	Totals    planner.Totals      `json:"totals"`
	Revision  uint64              `json:"revision"`
	Selected  string              `json:"selected,omitempty"`
	Ratings   map[string]int      `json:"ratings"`
	DragState string              `json:"drag_state"`
	InFlight  string              `json:"in_flight,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:        s.ID,
		Filter:    s.Filter,
		Plan:      s.Plan.View(),
		Totals:    planner.ComputeTotals(s.Plan),
		Revision:  s.Plan.Revision(),
		Selected:  s.Selected,
		Ratings:   maps.Clone(s.Ratings),
		DragState: s.Placement.State().String(),
		InFlight:  string(s.Placement.InFlight()),
		CreatedAt: s.CreatedAt,
	}
}
