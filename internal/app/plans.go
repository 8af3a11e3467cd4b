package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"canteen-planner/internal/metrics"
	"canteen-planner/internal/planner"
	"canteen-planner/internal/session"
	"canteen-planner/internal/storage"

	"github.com/rs/zerolog/log"
)

// ErrExportsDisabled is returned when no export store is configured.
var ErrExportsDisabled = errors.New("export storage not configured")

// SavePlan snapshots the session's live plan under owner. An empty owner
// defaults to the session id.
func (a *App) SavePlan(ctx context.Context, id, owner string) (int64, error) {
	var plan planner.WeekPlan
	err := a.sessions.Update(id, func(s *session.Session) error {
		plan = s.Plan.Clone()
		return nil
	})
	if err != nil {
		return 0, err
	}
	if owner == "" {
		owner = id
	}

	planID, err := a.planRepo.Save(ctx, owner, plan)
	if err != nil {
		return 0, fmt.Errorf("failed to save plan: %w", err)
	}
	metrics.RecordSavedPlan()
	a.recordEvent(ctx, metrics.PlanEvent{Kind: metrics.EventSaved, Owner: owner, Kcal: planner.ComputeTotals(plan).Kcal})
	log.Info().Int64("plan_id", planID).Str("owner", owner).Msg("plan saved")
	return planID, nil
}

// SavedPlan loads a snapshot by ID.
func (a *App) SavedPlan(ctx context.Context, planID int64) (*planner.SavedPlan, error) {
	return a.planRepo.Get(ctx, planID)
}

// RecentPlans lists the latest snapshots of owner.
func (a *App) RecentPlans(ctx context.Context, owner string, limit int) ([]planner.SavedPlan, error) {
	return a.planRepo.ListRecentByOwner(ctx, owner, limit)
}

// Render formats a plan for download.
func Render(plan planner.WeekPlan, format storage.Format, title string) ([]byte, error) {
	switch format {
	case storage.FormatHTML:
		out, err := planner.ExportHTML(plan, title)
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	case storage.FormatMarkdown:
		return []byte(planner.ExportMarkdown(plan)), nil
	default:
		return nil, fmt.Errorf("%w %q", storage.ErrInvalidFormat, format)
	}
}

// RenderSession formats the live plan of a session.
func (a *App) RenderSession(id string, format storage.Format) ([]byte, error) {
	var plan planner.WeekPlan
	err := a.sessions.Update(id, func(s *session.Session) error {
		plan = s.Plan.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Render(plan, format, "")
}

// ExportSavedPlan renders a snapshot and writes it to the export store,
// replacing earlier exports of the same plan. It returns the export key.
func (a *App) ExportSavedPlan(ctx context.Context, planID int64, format storage.Format) (string, error) {
	if a.exports == nil {
		return "", ErrExportsDisabled
	}
	sp, err := a.planRepo.Get(ctx, planID)
	if err != nil {
		return "", err
	}

	data, err := Render(sp.Plan, format, fmt.Sprintf("Weekly Meal Plan #%d", sp.ID))
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("plan-%d", sp.ID)
	if err := a.exports.RemoveStaleVersions(ctx, name); err != nil {
		log.Warn().Err(err).Str("name", name).Msg("failed to clean up stale exports")
	}
	key, err := a.exports.Save(ctx, name, sp.CreatedAt, format, data)
	if err != nil {
		return "", fmt.Errorf("failed to store export: %w", err)
	}
	log.Info().Str("key", key).Int64("plan_id", planID).Msg("plan exported")
	return key, nil
}

// LoadExport reads a stored export back.
func (a *App) LoadExport(ctx context.Context, key string) ([]byte, error) {
	if a.exports == nil {
		return nil, ErrExportsDisabled
	}
	return a.exports.Load(ctx, key)
}

// CleanupResult counts what a maintenance pass removed.
type CleanupResult struct {
	Plans    int64
	Events   int64
	Sessions int
}

// Cleanup removes snapshots and activity older than days, and expired
// sessions.
func (a *App) Cleanup(ctx context.Context, days int) (CleanupResult, error) {
	var res CleanupResult
	var err error

	res.Plans, err = a.planRepo.Cleanup(ctx, days)
	if err != nil {
		return res, err
	}
	if a.activity != nil {
		res.Events, err = a.activity.Cleanup(ctx, days)
		if err != nil {
			return res, err
		}
	}
	res.Sessions = a.ReapSessions()
	return res, nil
}

// ReapSessions drops expired sessions and refreshes the session gauge.
func (a *App) ReapSessions() int {
	n := a.sessions.CleanupExpired()
	metrics.SetActiveSessions(a.sessions.Len())
	return n
}

// DailyActivity summarizes the activity log.
func (a *App) DailyActivity(ctx context.Context, days int) ([]metrics.DailyActivity, error) {
	if a.activity == nil {
		return nil, nil
	}
	return a.activity.GetDailyActivity(ctx, days)
}

// ReapLoop runs ReapSessions every interval until ctx is done.
func (a *App) ReapLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.ReapSessions(); n > 0 {
				log.Info().Int("sessions", n).Msg("expired sessions reaped")
			}
		}
	}
}
