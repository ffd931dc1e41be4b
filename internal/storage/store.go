// Package storage persists training maxes, log entries, personal records,
// linear-progression state, and completed cycles. Two backends: Postgres
// for server deployments, SQLite for single-user local use.
package storage

import (
	"context"
	"errors"

	"github.com/gregmcinnes/topset/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("storage: not found")

// Store is the persistence boundary the engine writes through. Lookups
// for optional state (personal records, linear state, latest cycle)
// return nil rather than an error when nothing is stored.
type Store interface {
	// TrainingMax returns the max for (lift, week), or ErrNotFound.
	TrainingMax(ctx context.Context, lift string, week int) (float64, error)
	// LatestTrainingMax returns the max at the highest stored week for a
	// lift, or ErrNotFound.
	LatestTrainingMax(ctx context.Context, lift string) (models.TrainingMax, error)
	PutTrainingMax(ctx context.Context, lift string, week int, value float64) error
	// TrainingMaxHistory returns all stored weeks for a lift, ascending.
	TrainingMaxHistory(ctx context.Context, lift string) ([]models.TrainingMax, error)

	AppendLogEntry(ctx context.Context, entry models.LogEntry) error
	// LogEntries returns entries for (lift, week) ordered by logged time.
	LogEntries(ctx context.Context, lift string, week int) ([]models.LogEntry, error)
	// LogHistory returns a lift's most recent entries, newest first.
	LogHistory(ctx context.Context, lift string, limit int) ([]models.LogEntry, error)

	// PersonalRecord returns nil (no error) when the lift has no record.
	PersonalRecord(ctx context.Context, lift string) (*models.PersonalRecord, error)
	PutPersonalRecord(ctx context.Context, pr models.PersonalRecord) error
	PersonalRecords(ctx context.Context) ([]models.PersonalRecord, error)

	// LinearState returns nil (no error) when none is stored.
	LinearState(ctx context.Context, lift string) (*models.LinearState, error)
	PutLinearState(ctx context.Context, st models.LinearState) error

	UniversalMaxes(ctx context.Context) (map[string]float64, error)
	PutUniversalMax(ctx context.Context, lift string, value float64) error

	ArchiveCycle(ctx context.Context, cycle models.CompletedCycle) error
	// LatestCycle returns nil (no error) when no cycle has been archived.
	LatestCycle(ctx context.Context) (*models.CompletedCycle, error)

	Close() error
}
