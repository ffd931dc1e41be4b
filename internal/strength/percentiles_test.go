package strength

import "testing"

func TestWeightClass(t *testing.T) {
	tests := []struct {
		bodyweight float64
		male       bool
		want       string
	}{
		{58, true, "59"},
		{59, true, "59"},
		{83, true, "83"},
		{83.1, true, "93"},
		{150, true, "140+"},
		{46, false, "47"},
		{63, false, "63"},
		{110, false, "100+"},
	}

	for _, tt := range tests {
		if got := WeightClass(tt.bodyweight, tt.male); got != tt.want {
			t.Errorf("WeightClass(%v, male=%v) = %s, want %s", tt.bodyweight, tt.male, got, tt.want)
		}
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name       string
		lift       CompetitionLift
		liftKg     float64
		bodyweight float64
		male       bool
		want       int
	}{
		{"median squat 83kg male", LiftSquat, 200, 83, true, 50},
		{"below 5th percentile", LiftSquat, 50, 83, true, 0},
		{"top of table", LiftDeadlift, 500, 83, true, 99},
		{"between bands takes lower", LiftBench, 150, 83, true, 50},
		{"female median bench", LiftBench, 62, 63, false, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Percentile(tt.lift, tt.liftKg, tt.bodyweight, tt.male)
			if err != nil {
				t.Fatalf("Percentile error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Percentile = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPercentileInvalidInputs(t *testing.T) {
	if _, err := Percentile(LiftSquat, 0, 83, true); err != ErrNoPercentileData {
		t.Errorf("zero lift: error = %v, want ErrNoPercentileData", err)
	}
	if _, err := Percentile(LiftSquat, 200, -1, true); err != ErrNoPercentileData {
		t.Errorf("negative bodyweight: error = %v, want ErrNoPercentileData", err)
	}
	if _, err := Percentile(CompetitionLift("curl"), 100, 83, true); err != ErrNoPercentileData {
		t.Errorf("unknown lift: error = %v, want ErrNoPercentileData", err)
	}
}
