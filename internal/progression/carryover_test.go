package progression

import (
	"testing"

	"github.com/gregmcinnes/topset/internal/models"
)

func TestInitialMaxFallbackChain(t *testing.T) {
	prior := &models.CompletedCycle{
		EndingMaxes: map[string]float64{"Squat": 315},
	}
	full := CarryOverInput{
		PriorCycle:     prior,
		CarryOver:      true,
		Custom:         map[string]float64{"Squat": 300, "Bench": 205},
		Universal:      map[string]float64{"Squat": 290, "Bench": 200, "Deadlift": 365},
		ProgramDefault: map[string]float64{"Squat": 285, "Bench": 195, "Deadlift": 355, "Press": 125},
	}

	tests := []struct {
		name string
		lift string
		in   CarryOverInput
		want float64
	}{
		{"prior cycle wins", "Squat", full, 315},
		{"custom when no prior entry", "Bench", full, 205},
		{"universal when no custom", "Deadlift", full, 365},
		{"program default when no universal", "Press", full, 125},
		{"hard fallback", "Curl", full, 100},
		{
			"carry-over disabled skips prior",
			"Squat",
			CarryOverInput{PriorCycle: prior, CarryOver: false, Custom: map[string]float64{"Squat": 300}},
			300,
		},
		{
			"non-positive prior value skipped",
			"Squat",
			CarryOverInput{
				PriorCycle: &models.CompletedCycle{EndingMaxes: map[string]float64{"Squat": 0}},
				CarryOver:  true,
				Custom:     map[string]float64{"Squat": 300},
			},
			300,
		},
		{"everything empty", "Squat", CarryOverInput{}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InitialMax(tt.lift, tt.in)
			if got != tt.want {
				t.Errorf("InitialMax(%s) = %v, want %v", tt.lift, got, tt.want)
			}
			if got <= 0 {
				t.Errorf("InitialMax must always be positive, got %v", got)
			}
		})
	}
}
