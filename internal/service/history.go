package service

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/saadjs/healthsync/internal/model"
)

const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeReset     = "reset"
	OutcomeRejected  = "rejected"
	OutcomeHealth    = "health"
)

func syncOutcome(r model.SyncResult) string {
	switch {
	case r.Duplicate:
		return OutcomeDuplicate
	case r.Reset:
		return OutcomeReset
	case r.Accepted:
		return OutcomeAccepted
	default:
		return OutcomeRejected
	}
}

func RecordSync(db *sql.DB, e model.SyncLogEntry) (int64, error) {
	if e.Steps < 0 || e.CaloriesOut < 0 {
		return 0, fmt.Errorf("sync totals must be >= 0")
	}
	args := []any{e.SyncedAt.UTC().Format(time.RFC3339Nano), e.Date, e.Steps, e.CaloriesOut, e.Outcome, e.Message}
	if r := e.Result; r != nil {
		args = append(args, r.Accepted, r.Duplicate, r.Reset, r.Delta.StepsDelta, r.Delta.CaloriesOutDelta, r.Delta.StepsTotal, r.Delta.CaloriesOutTotal)
	} else {
		args = append(args, nil, nil, nil, nil, nil, nil, nil)
	}
	res, err := db.Exec(`
INSERT INTO sync_log(synced_at, day, steps, calories_out, outcome, message,
  accepted, duplicate, reset, steps_delta, calories_out_delta, steps_total, calories_out_total)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, args...)
	if err != nil {
		return 0, fmt.Errorf("insert sync log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sync log id: %w", err)
	}
	return id, nil
}

func ListSyncLog(db *sql.DB, limit int) ([]model.SyncLogEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.Query(`
SELECT id, synced_at, day, steps, calories_out, outcome, message,
  accepted, duplicate, reset, steps_delta, calories_out_delta, steps_total, calories_out_total
FROM sync_log ORDER BY synced_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync log: %w", err)
	}
	defer rows.Close()
	out := make([]model.SyncLogEntry, 0)
	for rows.Next() {
		var (
			e                            model.SyncLogEntry
			syncedAt                     string
			accepted, duplicate, reset   sql.NullBool
			stepsDelta, stepsTotal       sql.NullInt64
			caloriesDelta, caloriesTotal sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &syncedAt, &e.Date, &e.Steps, &e.CaloriesOut, &e.Outcome, &e.Message,
			&accepted, &duplicate, &reset, &stepsDelta, &caloriesDelta, &stepsTotal, &caloriesTotal); err != nil {
			return nil, fmt.Errorf("scan sync log: %w", err)
		}
		e.SyncedAt, _ = time.Parse(time.RFC3339Nano, syncedAt)
		if accepted.Valid {
			e.Result = &model.SyncResult{
				Accepted:  accepted.Bool,
				Duplicate: duplicate.Bool,
				Reset:     reset.Bool,
				Delta: model.SyncDelta{
					StepsDelta:       int(stepsDelta.Int64),
					CaloriesOutDelta: caloriesDelta.Float64,
					StepsTotal:       int(stepsTotal.Int64),
					CaloriesOutTotal: caloriesTotal.Float64,
				},
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync log: %w", err)
	}
	return out, nil
}

// LastSuccessfulSync returns the time of the latest sync the server answered.
func LastSuccessfulSync(db *sql.DB) (time.Time, bool, error) {
	var ts string
	err := db.QueryRow(`SELECT synced_at FROM sync_log WHERE accepted IS NOT NULL ORDER BY synced_at DESC, id DESC LIMIT 1`).Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("last sync: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last sync time %q: %w", ts, err)
	}
	return t, true, nil
}
