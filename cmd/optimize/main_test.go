package main

import "testing"

func TestPopulationSize(t *testing.T) {
	tests := []struct {
		requested, dim, want int
	}{
		{0, 6, 9},
		{0, 1, 4},
		{12, 6, 12},
	}
	for _, tt := range tests {
		if got := populationSize(tt.requested, tt.dim); got != tt.want {
			t.Errorf("populationSize(%d, %d) = %d, want %d", tt.requested, tt.dim, got, tt.want)
		}
	}
}

func TestInitialStep(t *testing.T) {
	if got := initialStep(Evaluation{SurvivalTurns: 500}, 500); got != 0.15 {
		t.Errorf("step for surviving baseline = %v, want 0.15", got)
	}
	if got := initialStep(Evaluation{SurvivalTurns: 40}, 500); got != 0.3 {
		t.Errorf("step for dying baseline = %v, want 0.3", got)
	}
}

func TestEvalSeeds(t *testing.T) {
	seeds := evalSeeds(3)
	if len(seeds) != 3 || seeds[0] != 42 || seeds[2] != 2042 {
		t.Errorf("evalSeeds(3) = %v", seeds)
	}
	if got := evalSeeds(0); len(got) != 1 {
		t.Errorf("evalSeeds(0) returned %d seeds, want 1", len(got))
	}
}
