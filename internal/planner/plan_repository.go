package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrPlanNotFound is returned when a saved plan does not exist.
var ErrPlanNotFound = errors.New("saved plan not found")

// SavedPlan is a snapshot of a WeekPlan taken when the user saves.
type SavedPlan struct {
	ID        int64     `json:"id"`
	Owner     string    `json:"owner"`
	Plan      WeekPlan  `json:"plan"`
	Totals    Totals    `json:"totals"`
	CreatedAt time.Time `json:"created_at"`
}

// PlanRepository is a database-backed store of saved plan snapshots.
// The live plan of a session is never read back from here.
type PlanRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d, now: time.Now}
}

// Save inserts a snapshot of plan for owner and returns its ID.
func (r *PlanRepository) Save(ctx context.Context, owner string, plan WeekPlan) (int64, error) {
	planData, err := json.Marshal(plan)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal plan: %w", err)
	}
	t := ComputeTotals(plan)

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO saved_plans (owner, plan_data, kcal, protein, carbs, fat, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		owner, string(planData), t.Kcal, t.P, t.C, t.F, r.now().UTC().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert saved plan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read saved plan id: %w", err)
	}
	return id, nil
}

// Get retrieves a saved plan by ID.
func (r *PlanRepository) Get(ctx context.Context, id int64) (*SavedPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner, plan_data, kcal, protein, carbs, fat, created_at
		 FROM saved_plans WHERE id = ?`, id)

	sp, err := scanSavedPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrPlanNotFound, id)
		}
		return nil, fmt.Errorf("failed to get saved plan %d: %w", id, err)
	}
	return sp, nil
}

// ListRecentByOwner retrieves the N most recent snapshots of an owner.
func (r *PlanRepository) ListRecentByOwner(ctx context.Context, owner string, limit int) ([]SavedPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, plan_data, kcal, protein, carbs, fat, created_at
		 FROM saved_plans WHERE owner = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved plans for %s: %w", owner, err)
	}
	defer func() { _ = rows.Close() }()

	var plans []SavedPlan
	for rows.Next() {
		sp, err := scanSavedPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved plan: %w", err)
		}
		plans = append(plans, *sp)
	}
	return plans, rows.Err()
}

// Cleanup removes snapshots older than the given number of days.
func (r *PlanRepository) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := r.now().UTC().AddDate(0, 0, -olderThanDays).Unix()
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_plans WHERE created_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up saved plans: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSavedPlan(row rowScanner) (*SavedPlan, error) {
	var (
		sp        SavedPlan
		planData  string
		createdAt int64
	)
	if err := row.Scan(&sp.ID, &sp.Owner, &planData,
		&sp.Totals.Kcal, &sp.Totals.P, &sp.Totals.C, &sp.Totals.F, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(planData), &sp.Plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan %d: %w", sp.ID, err)
	}
	sp.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &sp, nil
}
