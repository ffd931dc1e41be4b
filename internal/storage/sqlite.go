package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gregmcinnes/topset/internal/models"
	_ "modernc.org/sqlite"
)

// SQLite is the single-user local Store. Timestamps are stored as Unix
// nanoseconds so round-trips are exact.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS training_maxes (
	lift       TEXT NOT NULL,
	week       INTEGER NOT NULL,
	value      REAL NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (lift, week)
);
CREATE TABLE IF NOT EXISTS log_entries (
	id            TEXT PRIMARY KEY,
	lift          TEXT NOT NULL,
	week          INTEGER NOT NULL,
	day           INTEGER NOT NULL,
	weight        REAL NOT NULL,
	reps          INTEGER NOT NULL,
	target_reps   INTEGER NOT NULL,
	estimated_max REAL NOT NULL,
	note          TEXT NOT NULL DEFAULT '',
	logged_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_log_entries_lift_week ON log_entries (lift, week);
CREATE TABLE IF NOT EXISTS personal_records (
	lift          TEXT PRIMARY KEY,
	entry_id      TEXT NOT NULL,
	week          INTEGER NOT NULL,
	day           INTEGER NOT NULL,
	weight        REAL NOT NULL,
	reps          INTEGER NOT NULL,
	target_reps   INTEGER NOT NULL,
	estimated_max REAL NOT NULL,
	note          TEXT NOT NULL DEFAULT '',
	logged_at     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS linear_states (
	lift            TEXT PRIMARY KEY,
	weight          REAL NOT NULL,
	increment       REAL NOT NULL,
	failures        INTEGER NOT NULL,
	threshold       INTEGER NOT NULL,
	deload_fraction REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS universal_maxes (
	lift  TEXT PRIMARY KEY,
	value REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS cycles (
	id             TEXT PRIMARY KEY,
	program        TEXT NOT NULL,
	started_at     INTEGER NOT NULL,
	completed_at   INTEGER NOT NULL,
	starting_maxes TEXT NOT NULL,
	ending_maxes   TEXT NOT NULL
);
`

// OpenSQLite opens (or creates) the SQLite store at dir/topset.db.
func OpenSQLite(dir string) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "topset.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// TrainingMax returns the stored max for (lift, week).
func (s *SQLite) TrainingMax(ctx context.Context, lift string, week int) (float64, error) {
	var value float64
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM training_maxes WHERE lift = ? AND week = ?`,
		lift, week).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("querying training max: %w", err)
	}
	return value, nil
}

// LatestTrainingMax returns the max at the highest stored week for a lift.
func (s *SQLite) LatestTrainingMax(ctx context.Context, lift string) (models.TrainingMax, error) {
	var tm models.TrainingMax
	var updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT lift, week, value, updated_at FROM training_maxes
		 WHERE lift = ? ORDER BY week DESC LIMIT 1`,
		lift).Scan(&tm.Lift, &tm.Week, &tm.Value, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TrainingMax{}, ErrNotFound
	}
	if err != nil {
		return models.TrainingMax{}, fmt.Errorf("querying latest training max: %w", err)
	}
	tm.UpdatedAt = time.Unix(0, updated)
	return tm, nil
}

// PutTrainingMax upserts the max for (lift, week).
func (s *SQLite) PutTrainingMax(ctx context.Context, lift string, week int, value float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO training_maxes (lift, week, value, updated_at) VALUES (?, ?, ?, ?)`,
		lift, week, value, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("upserting training max: %w", err)
	}
	return nil
}

// TrainingMaxHistory returns all stored weeks for a lift, ascending.
func (s *SQLite) TrainingMaxHistory(ctx context.Context, lift string) ([]models.TrainingMax, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lift, week, value, updated_at FROM training_maxes
		 WHERE lift = ? ORDER BY week ASC`,
		lift)
	if err != nil {
		return nil, fmt.Errorf("querying training max history: %w", err)
	}
	defer rows.Close()

	var result []models.TrainingMax
	for rows.Next() {
		var tm models.TrainingMax
		var updated int64
		if err := rows.Scan(&tm.Lift, &tm.Week, &tm.Value, &updated); err != nil {
			return nil, fmt.Errorf("scanning training max: %w", err)
		}
		tm.UpdatedAt = time.Unix(0, updated)
		result = append(result, tm)
	}
	return result, rows.Err()
}

// AppendLogEntry inserts one completed-set record.
func (s *SQLite) AppendLogEntry(ctx context.Context, entry models.LogEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO log_entries (id, lift, week, day, weight, reps, target_reps, estimated_max, note, logged_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.Lift, entry.Week, entry.Day, entry.Weight, entry.Reps,
		entry.TargetReps, entry.EstimatedMax, entry.Note, entry.LoggedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("inserting log entry: %w", err)
	}
	return nil
}

// LogEntries returns entries for (lift, week) ordered by logged time.
func (s *SQLite) LogEntries(ctx context.Context, lift string, week int) ([]models.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lift, week, day, weight, reps, target_reps, estimated_max, note, logged_at
		 FROM log_entries WHERE lift = ? AND week = ? ORDER BY logged_at ASC`,
		lift, week)
	if err != nil {
		return nil, fmt.Errorf("querying log entries: %w", err)
	}
	defer rows.Close()
	return scanLogEntries(rows)
}

// LogHistory returns a lift's most recent entries, newest first.
func (s *SQLite) LogHistory(ctx context.Context, lift string, limit int) ([]models.LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lift, week, day, weight, reps, target_reps, estimated_max, note, logged_at
		 FROM log_entries WHERE lift = ? ORDER BY logged_at DESC LIMIT ?`,
		lift, limit)
	if err != nil {
		return nil, fmt.Errorf("querying log history: %w", err)
	}
	defer rows.Close()
	return scanLogEntries(rows)
}

func scanLogEntries(rows *sql.Rows) ([]models.LogEntry, error) {
	var result []models.LogEntry
	for rows.Next() {
		var e models.LogEntry
		var id string
		var logged int64
		if err := rows.Scan(&id, &e.Lift, &e.Week, &e.Day, &e.Weight, &e.Reps,
			&e.TargetReps, &e.EstimatedMax, &e.Note, &logged); err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parsing log entry id: %w", err)
		}
		e.ID = parsed
		e.LoggedAt = time.Unix(0, logged)
		result = append(result, e)
	}
	return result, rows.Err()
}

// PersonalRecord returns the stored record for a lift, or nil when none
// exists.
func (s *SQLite) PersonalRecord(ctx context.Context, lift string) (*models.PersonalRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT lift, entry_id, week, day, weight, reps, target_reps, estimated_max, note, logged_at
		 FROM personal_records WHERE lift = ?`, lift)
	pr, err := scanPersonalRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying personal record: %w", err)
	}
	return pr, nil
}

// PutPersonalRecord upserts a lift's record.
func (s *SQLite) PutPersonalRecord(ctx context.Context, pr models.PersonalRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO personal_records (lift, entry_id, week, day, weight, reps, target_reps, estimated_max, note, logged_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pr.Lift, pr.Entry.ID.String(), pr.Entry.Week, pr.Entry.Day, pr.Entry.Weight,
		pr.Entry.Reps, pr.Entry.TargetReps, pr.Entry.EstimatedMax, pr.Entry.Note, pr.Entry.LoggedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("upserting personal record: %w", err)
	}
	return nil
}

// PersonalRecords returns all stored records ordered by lift name.
func (s *SQLite) PersonalRecords(ctx context.Context) ([]models.PersonalRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lift, entry_id, week, day, weight, reps, target_reps, estimated_max, note, logged_at
		 FROM personal_records ORDER BY lift ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying personal records: %w", err)
	}
	defer rows.Close()

	var result []models.PersonalRecord
	for rows.Next() {
		pr, err := scanPersonalRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning personal record: %w", err)
		}
		result = append(result, *pr)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPersonalRecord(row rowScanner) (*models.PersonalRecord, error) {
	var pr models.PersonalRecord
	var id string
	var logged int64
	err := row.Scan(&pr.Lift, &id, &pr.Entry.Week, &pr.Entry.Day, &pr.Entry.Weight,
		&pr.Entry.Reps, &pr.Entry.TargetReps, &pr.Entry.EstimatedMax, &pr.Entry.Note, &logged)
	if err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parsing record entry id: %w", err)
	}
	pr.Entry.ID = parsed
	pr.Entry.Lift = pr.Lift
	pr.Entry.LoggedAt = time.Unix(0, logged)
	return &pr, nil
}

// LinearState returns the stored linear-progression state for a lift, or
// nil when none exists.
func (s *SQLite) LinearState(ctx context.Context, lift string) (*models.LinearState, error) {
	var st models.LinearState
	err := s.db.QueryRowContext(ctx,
		`SELECT lift, weight, increment, failures, threshold, deload_fraction
		 FROM linear_states WHERE lift = ?`,
		lift).Scan(&st.Lift, &st.Weight, &st.Increment, &st.Failures, &st.Threshold, &st.DeloadFraction)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying linear state: %w", err)
	}
	return &st, nil
}

// PutLinearState upserts a lift's linear-progression state.
func (s *SQLite) PutLinearState(ctx context.Context, st models.LinearState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO linear_states (lift, weight, increment, failures, threshold, deload_fraction)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		st.Lift, st.Weight, st.Increment, st.Failures, st.Threshold, st.DeloadFraction)
	if err != nil {
		return fmt.Errorf("upserting linear state: %w", err)
	}
	return nil
}

// UniversalMaxes returns the cross-cycle maxes keyed by lift.
func (s *SQLite) UniversalMaxes(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT lift, value FROM universal_maxes`)
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
func (s *SQLite) PutUniversalMax(ctx context.Context, lift string, value float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO universal_maxes (lift, value) VALUES (?, ?)`,
		lift, value)
	if err != nil {
		return fmt.Errorf("upserting universal max: %w", err)
	}
	return nil
}

// ArchiveCycle stores a finished cycle.
func (s *SQLite) ArchiveCycle(ctx context.Context, cycle models.CompletedCycle) error {
	starting, err := json.Marshal(cycle.StartingMaxes)
	if err != nil {
		return fmt.Errorf("encoding starting maxes: %w", err)
	}
	ending, err := json.Marshal(cycle.EndingMaxes)
	if err != nil {
		return fmt.Errorf("encoding ending maxes: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO cycles (id, program, started_at, completed_at, starting_maxes, ending_maxes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cycle.ID.String(), cycle.Program, cycle.StartedAt.UnixNano(), cycle.CompletedAt.UnixNano(),
		string(starting), string(ending))
	if err != nil {
		return fmt.Errorf("inserting cycle: %w", err)
	}
	return nil
}

// LatestCycle returns the most recently completed cycle, or nil when no
// cycle has been archived.
func (s *SQLite) LatestCycle(ctx context.Context) (*models.CompletedCycle, error) {
	var c models.CompletedCycle
	var id, starting, ending string
	var started, completed int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, program, started_at, completed_at, starting_maxes, ending_maxes
		 FROM cycles ORDER BY completed_at DESC LIMIT 1`).
		Scan(&id, &c.Program, &started, &completed, &starting, &ending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest cycle: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parsing cycle id: %w", err)
	}
	c.ID = parsed
	c.StartedAt = time.Unix(0, started)
	c.CompletedAt = time.Unix(0, completed)
	if err := json.Unmarshal([]byte(starting), &c.StartingMaxes); err != nil {
		return nil, fmt.Errorf("decoding starting maxes: %w", err)
	}
	if err := json.Unmarshal([]byte(ending), &c.EndingMaxes); err != nil {
		return nil, fmt.Errorf("decoding ending maxes: %w", err)
	}
	return &c, nil
}
