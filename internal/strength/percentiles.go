package strength

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Percentile tables regenerated from the OpenPowerlifting dataset: per sex
// and IPF weight class, lift values (kg) at fixed percentiles.
//
//go:embed percentiles.json
var percentileData []byte

// CompetitionLift names a lift tracked in the percentile tables.
type CompetitionLift string

const (
	LiftSquat    CompetitionLift = "squat"
	LiftBench    CompetitionLift = "bench"
	LiftDeadlift CompetitionLift = "deadlift"
)

// ErrNoPercentileData is returned when the tables have no entry for the
// requested sex, weight class, or lift.
var ErrNoPercentileData = errors.New("strength: no percentile data for inputs")

// IPF weight class upper bounds in kg; a bodyweight above the last bound
// falls into the super-heavyweight class ("140+" / "100+").
var (
	maleWeightClasses   = []float64{59, 66, 74, 83, 93, 105, 120}
	femaleWeightClasses = []float64{47, 52, 57, 63, 69, 76, 84}
)

type percentileFile struct {
	Metadata struct {
		Percentiles []int `json:"percentiles"`
	} `json:"metadata"`
	Male   map[string]map[CompetitionLift][]float64 `json:"male"`
	Female map[string]map[CompetitionLift][]float64 `json:"female"`
}

var (
	loadOnce sync.Once
	loadErr  error
	tables   percentileFile
)

func loadTables() error {
	loadOnce.Do(func() {
		loadErr = json.Unmarshal(percentileData, &tables)
	})
	return loadErr
}

// WeightClass returns the IPF weight class label for a bodyweight.
func WeightClass(bodyweightKg float64, male bool) string {
	classes := maleWeightClasses
	shw := "140+"
	if !male {
		classes = femaleWeightClasses
		shw = "100+"
	}
	for _, wc := range classes {
		if bodyweightKg <= wc {
			return fmt.Sprintf("%.0f", wc)
		}
	}
	return shw
}

// Percentile returns the highest percentile whose table value the given
// lift (kg) meets or exceeds, for the lifter's sex and weight class. A
// lift below the lowest tabulated value returns 0.
func Percentile(lift CompetitionLift, liftKg, bodyweightKg float64, male bool) (int, error) {
	if liftKg <= 0 || bodyweightKg <= 0 {
		return 0, ErrNoPercentileData
	}
	if err := loadTables(); err != nil {
		return 0, fmt.Errorf("loading percentile tables: %w", err)
	}

	byClass := tables.Male
	if !male {
		byClass = tables.Female
	}
	class, ok := byClass[WeightClass(bodyweightKg, male)]
	if !ok {
		return 0, ErrNoPercentileData
	}
	values, ok := class[lift]
	if !ok || len(values) != len(tables.Metadata.Percentiles) {
		return 0, ErrNoPercentileData
	}

	best := 0
	for i, v := range values {
		if liftKg >= v {
			best = tables.Metadata.Percentiles[i]
		}
	}
	return best, nil
}
