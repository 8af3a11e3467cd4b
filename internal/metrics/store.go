package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Event kinds recorded in the activity log.
const (
	EventPlaced    = "placed"
	EventRemoved   = "removed"
	EventCancelled = "cancelled"
	EventSaved     = "saved"
)

// PlanEvent records a single planner action for the activity log.
type PlanEvent struct {
	Kind      string
	Owner     string
	DishID    string
	Kcal      int
	Timestamp time.Time
}

// Store persists planner activity to SQLite so that daily usage survives
// restarts, unlike the Prometheus counters.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves an event to the database.
func (s *Store) Record(ctx context.Context, e PlanEvent) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plan_events (kind, owner, dish_id, kcal, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.Kind, e.Owner, e.DishID, e.Kcal, ts.UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record %s event: %w", e.Kind, err)
	}
	return nil
}

// DailyActivity represents event totals for a single day.
type DailyActivity struct {
	Date       string `json:"date"`
	Placements int    `json:"placements"`
	Removals   int    `json:"removals"`
	Cancelled  int    `json:"cancelled"`
	Saves      int    `json:"saves"`
	KcalPlaced int    `json:"kcal_placed"`
}

// GetDailyActivity retrieves activity for the last N days, newest first.
func (s *Store) GetDailyActivity(ctx context.Context, days int) ([]DailyActivity, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Unix()
	rows, err := s.db.QueryContext(ctx, `
		SELECT date(created_at, 'unixepoch') AS day,
		       SUM(kind = 'placed'), SUM(kind = 'removed'),
		       SUM(kind = 'cancelled'), SUM(kind = 'saved'),
		       SUM(CASE WHEN kind = 'placed' THEN kcal ELSE 0 END)
		FROM plan_events
		WHERE created_at >= ?
		GROUP BY day
		ORDER BY day DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily activity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []DailyActivity
	for rows.Next() {
		var a DailyActivity
		if err := rows.Scan(&a.Date, &a.Placements, &a.Removals, &a.Cancelled, &a.Saves, &a.KcalPlaced); err != nil {
			return nil, fmt.Errorf("failed to scan daily activity: %w", err)
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM plan_events WHERE created_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up plan events: %w", err)
	}
	return res.RowsAffected()
}
