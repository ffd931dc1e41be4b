package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gregmcinnes/topset/internal/models"
	"github.com/jackc/pgx/v5"
)

// LinearState returns the stored linear-progression state for a lift, or
// nil when none exists.
func (db *DB) LinearState(ctx context.Context, lift string) (*models.LinearState, error) {
	var st models.LinearState
	err := db.Pool.QueryRow(ctx,
		`SELECT lift, weight, increment, failures, threshold, deload_fraction
		 FROM linear_states WHERE lift = $1`,
		lift).Scan(&st.Lift, &st.Weight, &st.Increment, &st.Failures, &st.Threshold, &st.DeloadFraction)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying linear state: %w", err)
	}
	return &st, nil
}

// PutLinearState upserts a lift's linear-progression state.
func (db *DB) PutLinearState(ctx context.Context, st models.LinearState) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO linear_states (lift, weight, increment, failures, threshold, deload_fraction)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (lift) DO UPDATE SET
		   weight = EXCLUDED.weight, increment = EXCLUDED.increment, failures = EXCLUDED.failures,
		   threshold = EXCLUDED.threshold, deload_fraction = EXCLUDED.deload_fraction`,
		st.Lift, st.Weight, st.Increment, st.Failures, st.Threshold, st.DeloadFraction)
	if err != nil {
		return fmt.Errorf("upserting linear state: %w", err)
	}
	return nil
}

// UniversalMaxes returns the cross-cycle maxes keyed by lift.
func (db *DB) UniversalMaxes(ctx context.Context) (map[string]float64, error) {
	rows, err := db.Pool.Query(ctx, `SELECT lift, value FROM universal_maxes`)
	if err != nil {
		return nil, fmt.Errorf("querying universal maxes: %w", err)
	}
	defer rows.Close()

	result := make(map[string]float64)
	for rows.Next() {
		var lift string
		var value float64
		if err := rows.Scan(&lift, &value); err != nil {
			return nil, fmt.Errorf("scanning universal max: %w", err)
		}
		result[lift] = value
	}
	return result, rows.Err()
}

// PutUniversalMax upserts a lift's cross-cycle max.
func (db *DB) PutUniversalMax(ctx context.Context, lift string, value float64) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO universal_maxes (lift, value) VALUES ($1, $2)
		 ON CONFLICT (lift) DO UPDATE SET value = EXCLUDED.value`,
		lift, value)
	if err != nil {
		return fmt.Errorf("upserting universal max: %w", err)
	}
	return nil
}
