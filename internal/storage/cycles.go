package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gregmcinnes/topset/internal/models"
	"github.com/jackc/pgx/v5"
)

// ArchiveCycle stores a finished cycle. Archives are immutable; duplicate
// IDs are ignored.
func (db *DB) ArchiveCycle(ctx context.Context, cycle models.CompletedCycle) error {
	starting, err := json.Marshal(cycle.StartingMaxes)
	if err != nil {
		return fmt.Errorf("encoding starting maxes: %w", err)
	}
	ending, err := json.Marshal(cycle.EndingMaxes)
	if err != nil {
		return fmt.Errorf("encoding ending maxes: %w", err)
	}

	_, err = db.Pool.Exec(ctx,
		`INSERT INTO cycles (id, program, started_at, completed_at, starting_maxes, ending_maxes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT DO NOTHING`,
		cycle.ID, cycle.Program, cycle.StartedAt, cycle.CompletedAt, starting, ending)
	if err != nil {
		return fmt.Errorf("inserting cycle: %w", err)
	}
	return nil
}

// LatestCycle returns the most recently completed cycle, or nil when no
// cycle has been archived.
func (db *DB) LatestCycle(ctx context.Context) (*models.CompletedCycle, error) {
	var c models.CompletedCycle
	var starting, ending []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT id, program, started_at, completed_at, starting_maxes, ending_maxes
		 FROM cycles ORDER BY completed_at DESC LIMIT 1`).
		Scan(&c.ID, &c.Program, &c.StartedAt, &c.CompletedAt, &starting, &ending)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest cycle: %w", err)
	}

	if err := json.Unmarshal(starting, &c.StartingMaxes); err != nil {
		return nil, fmt.Errorf("decoding starting maxes: %w", err)
	}
	if err := json.Unmarshal(ending, &c.EndingMaxes); err != nil {
		return nil, fmt.Errorf("decoding ending maxes: %w", err)
	}
	return &c, nil
}
