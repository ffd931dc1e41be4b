package storage

import (
	"context"
	"fmt"

	"github.com/gregmcinnes/topset/internal/models"
)

// AppendLogEntry inserts one completed-set record. Entries are immutable;
// duplicate IDs are ignored.
func (db *DB) AppendLogEntry(ctx context.Context, entry models.LogEntry) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO log_entries (id, lift, week, day, weight, reps, target_reps, estimated_max, note, logged_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT DO NOTHING`,
		entry.ID, entry.Lift, entry.Week, entry.Day, entry.Weight, entry.Reps,
		entry.TargetReps, entry.EstimatedMax, entry.Note, entry.LoggedAt)
	if err != nil {
		return fmt.Errorf("inserting log entry: %w", err)
	}
	return nil
}

// LogEntries returns entries for (lift, week) ordered by logged time.
func (db *DB) LogEntries(ctx context.Context, lift string, week int) ([]models.LogEntry, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, lift, week, day, weight, reps, target_reps, estimated_max, note, logged_at
		 FROM log_entries
		 WHERE lift = $1 AND week = $2
		 ORDER BY logged_at ASC`,
		lift, week)
	if err != nil {
		return nil, fmt.Errorf("querying log entries: %w", err)
	}
	defer rows.Close()

	var result []models.LogEntry
	for rows.Next() {
		var e models.LogEntry
		if err := rows.Scan(&e.ID, &e.Lift, &e.Week, &e.Day, &e.Weight, &e.Reps,
			&e.TargetReps, &e.EstimatedMax, &e.Note, &e.LoggedAt); err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// LogHistory returns a lift's most recent entries, newest first.
func (db *DB) LogHistory(ctx context.Context, lift string, limit int) ([]models.LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, lift, week, day, weight, reps, target_reps, estimated_max, note, logged_at
		 FROM log_entries
		 WHERE lift = $1
		 ORDER BY logged_at DESC
		 LIMIT $2`,
		lift, limit)
	if err != nil {
		return nil, fmt.Errorf("querying log history: %w", err)
	}
	defer rows.Close()

	var result []models.LogEntry
	for rows.Next() {
		var e models.LogEntry
		if err := rows.Scan(&e.ID, &e.Lift, &e.Week, &e.Day, &e.Weight, &e.Reps,
			&e.TargetReps, &e.EstimatedMax, &e.Note, &e.LoggedAt); err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
