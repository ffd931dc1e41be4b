package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gregmcinnes/topset/internal/models"
	"github.com/jackc/pgx/v5"
)

// PersonalRecord returns the stored record for a lift, or nil when none
// exists.
func (db *DB) PersonalRecord(ctx context.Context, lift string) (*models.PersonalRecord, error) {
	var pr models.PersonalRecord
	err := db.Pool.QueryRow(ctx,
		`SELECT lift, entry_id, week, day, weight, reps, target_reps, estimated_max, note, logged_at
		 FROM personal_records WHERE lift = $1`,
		lift).Scan(&pr.Lift, &pr.Entry.ID, &pr.Entry.Week, &pr.Entry.Day, &pr.Entry.Weight,
		&pr.Entry.Reps, &pr.Entry.TargetReps, &pr.Entry.EstimatedMax, &pr.Entry.Note, &pr.Entry.LoggedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying personal record: %w", err)
	}
	pr.Entry.Lift = pr.Lift
	return &pr, nil
}

// PutPersonalRecord upserts a lift's record.
func (db *DB) PutPersonalRecord(ctx context.Context, pr models.PersonalRecord) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO personal_records (lift, entry_id, week, day, weight, reps, target_reps, estimated_max, note, logged_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (lift) DO UPDATE SET
		   entry_id = EXCLUDED.entry_id, week = EXCLUDED.week, day = EXCLUDED.day,
		   weight = EXCLUDED.weight, reps = EXCLUDED.reps, target_reps = EXCLUDED.target_reps,
		   estimated_max = EXCLUDED.estimated_max, note = EXCLUDED.note, logged_at = EXCLUDED.logged_at`,
		pr.Lift, pr.Entry.ID, pr.Entry.Week, pr.Entry.Day, pr.Entry.Weight,
		pr.Entry.Reps, pr.Entry.TargetReps, pr.Entry.EstimatedMax, pr.Entry.Note, pr.Entry.LoggedAt)
	if err != nil {
		return fmt.Errorf("upserting personal record: %w", err)
	}
	return nil
}

// PersonalRecords returns all stored records ordered by lift name.
func (db *DB) PersonalRecords(ctx context.Context) ([]models.PersonalRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT lift, entry_id, week, day, weight, reps, target_reps, estimated_max, note, logged_at
		 FROM personal_records ORDER BY lift ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying personal records: %w", err)
	}
	defer rows.Close()

	var result []models.PersonalRecord
	for rows.Next() {
		var pr models.PersonalRecord
		if err := rows.Scan(&pr.Lift, &pr.Entry.ID, &pr.Entry.Week, &pr.Entry.Day, &pr.Entry.Weight,
			&pr.Entry.Reps, &pr.Entry.TargetReps, &pr.Entry.EstimatedMax, &pr.Entry.Note, &pr.Entry.LoggedAt); err != nil {
			return nil, fmt.Errorf("scanning personal record: %w", err)
		}
		pr.Entry.Lift = pr.Lift
		result = append(result, pr)
	}
	return result, rows.Err()
}
