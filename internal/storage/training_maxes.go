package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gregmcinnes/topset/internal/models"
	"github.com/jackc/pgx/v5"
)

// TrainingMax returns the stored max for (lift, week).
func (db *DB) TrainingMax(ctx context.Context, lift string, week int) (float64, error) {
	var value float64
	err := db.Pool.QueryRow(ctx,
		`SELECT value FROM training_maxes WHERE lift = $1 AND week = $2`,
		lift, week).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("querying training max: %w", err)
	}
	return value, nil
}

// LatestTrainingMax returns the max at the highest stored week for a lift.
func (db *DB) LatestTrainingMax(ctx context.Context, lift string) (models.TrainingMax, error) {
	var tm models.TrainingMax
	err := db.Pool.QueryRow(ctx,
		`SELECT lift, week, value, updated_at FROM training_maxes
		 WHERE lift = $1 ORDER BY week DESC LIMIT 1`,
		lift).Scan(&tm.Lift, &tm.Week, &tm.Value, &tm.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.TrainingMax{}, ErrNotFound
	}
	if err != nil {
		return models.TrainingMax{}, fmt.Errorf("querying latest training max: %w", err)
	}
	return tm, nil
}

// PutTrainingMax upserts the max for (lift, week).
func (db *DB) PutTrainingMax(ctx context.Context, lift string, week int, value float64) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO training_maxes (lift, week, value, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (lift, week) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		lift, week, value)
	if err != nil {
		return fmt.Errorf("upserting training max: %w", err)
	}
	return nil
}

// TrainingMaxHistory returns all stored weeks for a lift, ascending.
func (db *DB) TrainingMaxHistory(ctx context.Context, lift string) ([]models.TrainingMax, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT lift, week, value, updated_at FROM training_maxes
		 WHERE lift = $1 ORDER BY week ASC`,
		lift)
	if err != nil {
		return nil, fmt.Errorf("querying training max history: %w", err)
	}
	defer rows.Close()

	var result []models.TrainingMax
	for rows.Next() {
		var tm models.TrainingMax
		if err := rows.Scan(&tm.Lift, &tm.Week, &tm.Value, &tm.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning training max: %w", err)
		}
		result = append(result, tm)
	}
	return result, rows.Err()
}
