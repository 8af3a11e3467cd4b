package app

import (
	"context"
	"errors"
	"fmt"

	"canteen-planner/internal/catalog"
	"canteen-planner/internal/metrics"
	"canteen-planner/internal/planner"
	"canteen-planner/internal/session"

	"github.com/rs/zerolog/log"
)

// DropResult is the outcome of releasing a drag over the grid.
type DropResult struct {
	Outcome  planner.Outcome
	Reason   string
	Snapshot session.Snapshot
}

// SetFilter replaces the session filter and returns the visible dishes.
func (a *App) SetFilter(id string, f catalog.FilterState) ([]catalog.Dish, error) {
	var visible []catalog.Dish
	err := a.sessions.Update(id, func(s *session.Session) error {
		s.Filter = f
		visible = s.Visible(a.catalog)
		return nil
	})
	return visible, err
}

// VisibleDishes applies the session filter to the catalog.
func (a *App) VisibleDishes(id string) ([]catalog.Dish, error) {
	var visible []catalog.Dish
	err := a.sessions.Update(id, func(s *session.Session) error {
		visible = s.Visible(a.catalog)
		return nil
	})
	return visible, err
}

// Select marks a catalog dish as selected. An empty id clears the selection.
func (a *App) Select(id, dishID string) error {
	if dishID != "" {
		if _, ok := a.catalog.Get(dishID); !ok {
			return fmt.Errorf("%w: %s", catalog.ErrDishNotFound, dishID)
		}
	}
	return a.sessions.Update(id, func(s *session.Session) error {
		s.Select(dishID)
		return nil
	})
}

// Rate stores a star rating for a catalog dish.
func (a *App) Rate(id, dishID string, stars int) error {
	if _, ok := a.catalog.Get(dishID); !ok {
		return fmt.Errorf("%w: %s", catalog.ErrDishNotFound, dishID)
	}
	return a.sessions.Update(id, func(s *session.Session) error {
		return s.Rate(dishID, stars)
	})
}

// StartDrag picks a catalog dish up and returns the payload the client
// carries to the drop.
func (a *App) StartDrag(id, dishID string) ([]byte, error) {
	dish, ok := a.catalog.Get(dishID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrDishNotFound, dishID)
	}

	var payload []byte
	err := a.sessions.Update(id, func(s *session.Session) error {
		var err error
		payload, err = s.Placement.Start(dish)
		return err
	})
	return payload, err
}

// DragOver reports whether the cell accepts the drag in progress.
func (a *App) DragOver(id string, day planner.DayKey, slot int) (bool, error) {
	var accept bool
	err := a.sessions.Update(id, func(s *session.Session) error {
		accept = s.Placement.Over(day, slot)
		return nil
	})
	return accept, err
}

// Drop releases payload over a cell. A cancelled drop is reported in the
// result, not as an error; errors mean the session itself is unusable.
func (a *App) Drop(ctx context.Context, id string, day planner.DayKey, slot int, payload []byte) (DropResult, error) {
	var (
		res     DropResult
		dropped catalog.Dish
	)
	err := a.sessions.Update(id, func(s *session.Session) error {
		next, outcome, err := s.Placement.Drop(s.Plan, day, slot, payload)
		res.Outcome = outcome
		if err != nil {
			res.Reason = cancelReason(err)
			log.Debug().Err(err).Str("session", id).Msg("drop cancelled")
		} else {
			entries := next.Slot(day, slot)
			dropped = entries[len(entries)-1].Dish
		}
		s.Plan = next
		res.Snapshot = s.Snapshot()
		return nil
	})
	if err != nil {
		return DropResult{}, err
	}

	if res.Outcome == planner.Dropped {
		metrics.RecordPlacement(string(day), planner.MealLabels[slot])
		a.recordEvent(ctx, metrics.PlanEvent{Kind: metrics.EventPlaced, Owner: id, DishID: dropped.ID, Kcal: dropped.Kcal})
	} else {
		metrics.RecordCancelledDrop(res.Reason)
		// An idle drop ended no drag, so the activity log has nothing to add.
		if res.Reason != metrics.ReasonIdle {
			a.recordEvent(ctx, metrics.PlanEvent{Kind: metrics.EventCancelled, Owner: id})
		}
	}
	return res, nil
}

// CancelDrag aborts the drag in progress, if any.
func (a *App) CancelDrag(ctx context.Context, id string) error {
	var wasDragging bool
	err := a.sessions.Update(id, func(s *session.Session) error {
		wasDragging = s.Placement.State() == planner.Dragging
		s.Placement.Cancel()
		return nil
	})
	if err != nil {
		return err
	}
	if wasDragging {
		metrics.RecordCancelledDrop(metrics.ReasonUser)
		a.recordEvent(ctx, metrics.PlanEvent{Kind: metrics.EventCancelled, Owner: id})
	}
	return nil
}

// PlaceDish runs a whole drag for shells without pointer input: the dish is
// picked up, carried as a payload and dropped on the cell.
func (a *App) PlaceDish(ctx context.Context, id, dishID string, day planner.DayKey, slot int) (DropResult, error) {
	payload, err := a.StartDrag(id, dishID)
	if err != nil {
		return DropResult{}, err
	}
	return a.Drop(ctx, id, day, slot, payload)
}

// RemoveEntry deletes one entry from a slot. Out-of-range coordinates are
// ignored and reported as not removed.
func (a *App) RemoveEntry(ctx context.Context, id string, day planner.DayKey, slot, index int) (bool, session.Snapshot, error) {
	var (
		removed bool
		entry   planner.PlannedEntry
		snap    session.Snapshot
	)
	err := a.sessions.Update(id, func(s *session.Session) error {
		if entries := s.Plan.Slot(day, slot); index >= 0 && index < len(entries) {
			entry = entries[index]
		}
		s.Plan, removed = planner.Remove(s.Plan, day, slot, index)
		snap = s.Snapshot()
		return nil
	})
	if err != nil {
		return false, session.Snapshot{}, err
	}

	if removed {
		metrics.RecordRemoval()
		a.recordEvent(ctx, metrics.PlanEvent{Kind: metrics.EventRemoved, Owner: id, DishID: entry.ID, Kcal: entry.Kcal})
	}
	return removed, snap, nil
}

func cancelReason(err error) string {
	switch {
	case errors.Is(err, planner.ErrNotDragging):
		return metrics.ReasonIdle
	case errors.Is(err, planner.ErrInvalidTarget):
		return metrics.ReasonTarget
	default:
		return metrics.ReasonMalformed
	}
}
