package telemetry

import (
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Population is a sample of the living creatures at a turn boundary.
type Population struct {
	Creatures   int
	Food        int
	Generations []float64
	Ages        []float64
	Lives       []float64
}

// TurnStats holds aggregated statistics for a window of turns.
type TurnStats struct {
	WindowStartTurn int     `csv:"-"`
	Turn            int     `csv:"turn"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	Creatures int `csv:"creatures"`
	Food      int `csv:"food"`

	// Events during window
	Births            int `csv:"births"`
	Spawned           int `csv:"spawned"`
	Deaths            int `csv:"deaths"`
	DeathsStarved     int `csv:"deaths_starved"`
	DeathsIdle        int `csv:"deaths_idle"`
	DeathsNonviable   int `csv:"deaths_nonviable"`
	DeathsOutOfBounds int `csv:"deaths_out_of_bounds"`
	FoodEaten         int `csv:"food_eaten"`
	FoodSpawned       int `csv:"food_spawned"`
	VMRuns            int `csv:"vm_runs"`
	VMNonTerminating  int `csv:"vm_nonterminating"`

	// Distributions (sampled at window end)
	GenerationMean float64 `csv:"generation_mean"`
	GenerationMax  float64 `csv:"generation_max"`
	AgeMean        float64 `csv:"age_mean"`
	AgeP90         float64 `csv:"age_p90"`
	LifeMean       float64 `csv:"life_mean"`
	LifeP10        float64 `csv:"life_p10"`
	LifeP50        float64 `csv:"life_p50"`
	LifeP90        float64 `csv:"life_p90"`

	// Generation histogram, not exported to CSV
	GenerationBins []float64 `csv:"-"`
	GenerationHist []float64 `csv:"-"`
}

func (s *TurnStats) fillPopulation(pop Population, bins int) {
	gen := sortedCopy(pop.Generations)
	s.GenerationMean = Mean(gen)
	if len(gen) > 0 {
		s.GenerationMax = floats.Max(gen)
	}
	s.GenerationBins, s.GenerationHist = Histogram(gen, bins)

	age := sortedCopy(pop.Ages)
	s.AgeMean = Mean(age)
	s.AgeP90 = Quantile(age, 0.90)

	s.LifeMean, s.LifeP10, s.LifeP50, s.LifeP90 = ComputeLifeStats(pop.Lives)
}

func sortedCopy(values []float64) []float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return sorted
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Quantile returns the empirical p-quantile of a sorted slice: the smallest
// value whose cumulative share reaches p. Returns 0 if slice is empty.
func Quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	p = max(0, min(p, 1))
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ComputeLifeStats calculates mean and percentiles from life values.
func ComputeLifeStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	sorted := sortedCopy(values)
	mean = Mean(sorted)
	p10 = Quantile(sorted, 0.10)
	p50 = Quantile(sorted, 0.50)
	p90 = Quantile(sorted, 0.90)
	return mean, p10, p50, p90
}

// Histogram counts sorted values into bins equal-width bins spanning their
// range. It returns the bins+1 dividers and the per-bin counts.
func Histogram(sorted []float64, bins int) (dividers, counts []float64) {
	if len(sorted) == 0 || bins < 1 {
		return nil, nil
	}
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if hi == lo {
		hi = lo + 1
	}
	dividers = floats.Span(make([]float64, bins+1), lo, hi)
	// The last bin is half-open, so nudge its edge past the maximum.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts = stat.Histogram(nil, dividers, sorted, nil)
	return dividers, counts
}

// LogValue implements slog.LogValuer for structured logging.
func (s TurnStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTurn),
		slog.Int("turn", s.Turn),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("creatures", s.Creatures),
		slog.Int("food", s.Food),
		slog.Int("births", s.Births),
		slog.Int("spawned", s.Spawned),
		slog.Int("deaths", s.Deaths),
		slog.Int("deaths_starved", s.DeathsStarved),
		slog.Int("deaths_idle", s.DeathsIdle),
		slog.Int("deaths_nonviable", s.DeathsNonviable),
		slog.Int("deaths_out_of_bounds", s.DeathsOutOfBounds),
		slog.Int("food_eaten", s.FoodEaten),
		slog.Int("food_spawned", s.FoodSpawned),
		slog.Int("vm_runs", s.VMRuns),
		slog.Int("vm_nonterminating", s.VMNonTerminating),
		slog.Float64("generation_mean", s.GenerationMean),
		slog.Float64("generation_max", s.GenerationMax),
		slog.Float64("age_mean", s.AgeMean),
		slog.Float64("age_p90", s.AgeP90),
		slog.Float64("life_mean", s.LifeMean),
		slog.Float64("life_p50", s.LifeP50),
	)
}

// LogStats logs the window stats using slog.
func (s TurnStats) LogStats() {
	slog.Info("stats", "window", s)
}
