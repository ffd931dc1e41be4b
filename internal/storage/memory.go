package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gregmcinnes/topset/internal/models"
)

// MemStore is an in-memory Store for tests and throwaway runs. Safe for
// concurrent use.
type MemStore struct {
	mu        sync.Mutex
	maxes     map[string]map[int]models.TrainingMax
	logs      []models.LogEntry
	records   map[string]models.PersonalRecord
	linear    map[string]models.LinearState
	universal map[string]float64
	cycles    []models.CompletedCycle
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		maxes:     make(map[string]map[int]models.TrainingMax),
		records:   make(map[string]models.PersonalRecord),
		linear:    make(map[string]models.LinearState),
		universal: make(map[string]float64),
	}
}

func (m *MemStore) TrainingMax(ctx context.Context, lift string, week int) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tm, ok := m.maxes[lift][week]
	if !ok {
		return 0, ErrNotFound
	}
	return tm.Value, nil
}

func (m *MemStore) LatestTrainingMax(ctx context.Context, lift string) (models.TrainingMax, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	weeks := m.maxes[lift]
	if len(weeks) == 0 {
		return models.TrainingMax{}, ErrNotFound
	}
	best := models.TrainingMax{Week: -1}
	for _, tm := range weeks {
		if tm.Week > best.Week {
			best = tm
		}
	}
	return best, nil
}

func (m *MemStore) PutTrainingMax(ctx context.Context, lift string, week int, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxes[lift] == nil {
		m.maxes[lift] = make(map[int]models.TrainingMax)
	}
	m.maxes[lift][week] = models.TrainingMax{Lift: lift, Week: week, Value: value, UpdatedAt: time.Now()}
	return nil
}

func (m *MemStore) TrainingMaxHistory(ctx context.Context, lift string) ([]models.TrainingMax, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.TrainingMax
	for _, tm := range m.maxes[lift] {
		result = append(result, tm)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Week < result[j].Week })
	return result, nil
}

func (m *MemStore) AppendLogEntry(ctx context.Context, entry models.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, entry)
	return nil
}

func (m *MemStore) LogEntries(ctx context.Context, lift string, week int) ([]models.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.LogEntry
	for _, e := range m.logs {
		if e.Lift == lift && e.Week == week {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *MemStore) LogHistory(ctx context.Context, lift string, limit int) ([]models.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.LogEntry
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].Lift == lift {
			result = append(result, m.logs[i])
			if limit > 0 && len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (m *MemStore) PersonalRecord(ctx context.Context, lift string) (*models.PersonalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr, ok := m.records[lift]
	if !ok {
		return nil, nil
	}
	return &pr, nil
}

func (m *MemStore) PutPersonalRecord(ctx context.Context, pr models.PersonalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[pr.Lift] = pr
	return nil
}

func (m *MemStore) PersonalRecords(ctx context.Context) ([]models.PersonalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.PersonalRecord
	for _, pr := range m.records {
		result = append(result, pr)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Lift < result[j].Lift })
	return result, nil
}

func (m *MemStore) LinearState(ctx context.Context, lift string) (*models.LinearState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.linear[lift]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (m *MemStore) PutLinearState(ctx context.Context, st models.LinearState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.linear[st.Lift] = st
	return nil
}

func (m *MemStore) UniversalMaxes(ctx context.Context) (map[string]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[string]float64, len(m.universal))
	for k, v := range m.universal {
		result[k] = v
	}
	return result, nil
}

func (m *MemStore) PutUniversalMax(ctx context.Context, lift string, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.universal[lift] = value
	return nil
}

func (m *MemStore) ArchiveCycle(ctx context.Context, cycle models.CompletedCycle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles = append(m.cycles, cycle)
	return nil
}

func (m *MemStore) LatestCycle(ctx context.Context) (*models.CompletedCycle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.cycles) == 0 {
		return nil, nil
	}
	latest := m.cycles[0]
	for _, c := range m.cycles[1:] {
		if c.CompletedAt.After(latest.CompletedAt) {
			latest = c
		}
	}
	return &latest, nil
}

func (m *MemStore) Close() error { return nil }
