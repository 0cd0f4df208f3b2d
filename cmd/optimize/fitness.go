package main

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/natsel/config"
	"github.com/pthm-cable/natsel/dna"
	"github.com/pthm-cable/natsel/game"
	"github.com/pthm-cable/natsel/pipeline"
	"github.com/pthm-cable/natsel/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTurns   int
	seeds      []int64
	baseConfig *config.Config

	mu          sync.Mutex
	bestFitness float64
	bestRun     []telemetry.TurnStats
	bestHall    *telemetry.HallOfFame
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTurns int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTurns:    maxTurns,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestRun returns the per-turn stats of the best seed of the best evaluation.
func (fe *FitnessEvaluator) BestRun() []telemetry.TurnStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestRun
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *telemetry.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHall
}

// Evaluation summarizes one parameter vector across all seeds.
type Evaluation struct {
	Fitness         float64 `csv:"fitness" json:"fitness"`
	SurvivalTurns   float64 `csv:"survival_turns" json:"survival_turns"`
	Quality         float64 `csv:"quality" json:"quality"`
	GenerationMean  float64 `csv:"generation_mean" json:"generation_mean"`
	GenerationMax   float64 `csv:"generation_max" json:"generation_max"`
	TerminatedShare float64 `csv:"vm_terminated_share" json:"vm_terminated_share"`
	PeakCreatures   int     `csv:"peak_creatures" json:"peak_creatures"`
}

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTurns int // turns before extinction (or maxTurns if survived)
	turns         []telemetry.TurnStats
	hallOfFame    *telemetry.HallOfFame
}

// Evaluate runs every seed with the raw parameter values x and summarizes
// them. Lower fitness is better.
func (fe *FitnessEvaluator) Evaluate(x []float64) Evaluation {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	results := make([]*runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(cfg.Clone(), s)
		}(i, seed)
	}
	wg.Wait()

	ev := summarize(results)

	bestSeed := 0
	for i, r := range results {
		if computeFitness(r) < computeFitness(results[bestSeed]) {
			bestSeed = i
		}
	}
	fe.mu.Lock()
	if ev.Fitness < fe.bestFitness {
		fe.bestFitness = ev.Fitness
		fe.bestRun = results[bestSeed].turns
		fe.bestHall = results[bestSeed].hallOfFame
	}
	fe.mu.Unlock()

	return ev
}

// summarize averages fitness, survival and quality over seeds and pools the
// per-turn genome metrics of every run.
func summarize(results []*runResult) Evaluation {
	var ev Evaluation
	if len(results) == 0 {
		return ev
	}

	var fitness, survival, quality, generations []float64
	var runs, nonTerminating int
	for _, r := range results {
		fitness = append(fitness, computeFitness(r))
		survival = append(survival, float64(r.survivalTurns))
		quality = append(quality, computeQuality(r.turns))
		for _, t := range r.turns {
			runs += t.VMRuns
			nonTerminating += t.VMNonTerminating
			ev.PeakCreatures = max(ev.PeakCreatures, t.Creatures)
			ev.GenerationMax = max(ev.GenerationMax, t.GenerationMax)
			if t.Creatures > 0 {
				generations = append(generations, t.GenerationMean)
			}
		}
	}

	ev.Fitness = stat.Mean(fitness, nil)
	ev.SurvivalTurns = stat.Mean(survival, nil)
	ev.Quality = stat.Mean(quality, nil)
	if len(generations) > 0 {
		ev.GenerationMean = stat.Mean(generations, nil)
	}
	if runs > 0 {
		ev.TerminatedShare = 1 - float64(nonTerminating)/float64(runs)
	}
	return ev
}

// runSimulation executes a single headless simulation run until extinction
// or maxTurns, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) *runResult {
	result := &runResult{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	genomes := pipeline.NewGenomes(dna.Params{
		Length:       cfg.DNA.Length,
		MaxMutations: cfg.DNA.MaxMutations,
		Speed:        cfg.Energy.MoveSpeed,
	}, pipeline.Options{
		Capacity: cfg.Pipeline.Capacity,
		Workers:  1,
		Seed:     seed,
	})
	genomes.Start(ctx)
	defer genomes.Stop()

	g, err := game.New(game.Options{
		Config:  cfg,
		Genomes: genomes,
		Seed:    seed,
		StatsCallback: func(stats telemetry.TurnStats) {
			result.turns = append(result.turns, stats)
		},
	})
	if err != nil {
		slog.Error("game setup failed", "error", err)
		return result
	}
	defer g.Close()

	if err := g.Begin(ctx); err != nil {
		slog.Error("begin failed", "seed", seed, "error", err)
		return result
	}

	step := cfg.Derived.MaxStep32
	for g.Turn() < fe.maxTurns {
		if err := g.Update(ctx, step); err != nil {
			slog.Error("update failed", "seed", seed, "error", err)
			break
		}
		if g.CreatureCount() == 0 && cfg.Simulation.DailyCreatureCount == 0 {
			break
		}
	}
	result.survivalTurns = g.Turn()
	result.hallOfFame = g.HallOfFame()
	return result
}

// computeFitness is -(survival_turns × (1 + 0.2 × quality)); lower is better.
func computeFitness(r *runResult) float64 {
	survival := float64(r.survivalTurns)
	return -(survival * (1.0 + 0.2*computeQuality(r.turns)))
}

// Quality component weights.
const (
	qualityWeightStability  = 0.4
	qualityWeightGeneration = 0.4
	qualityWeightActivity   = 0.2

	qualityWarmupTurns = 3 // skip first N turns
	qualityMinPop      = 3 // exclude turns with fewer creatures
)

// computeQuality scores a run in [0, 1]: steady population, deep lineages
// and few nonviable genomes.
func computeQuality(turns []telemetry.TurnStats) float64 {
	if len(turns) <= qualityWarmupTurns {
		return 0
	}

	var counts, generations []float64
	var runs, nonTerminating int
	for _, t := range turns[qualityWarmupTurns:] {
		if t.Creatures < qualityMinPop {
			continue
		}
		counts = append(counts, float64(t.Creatures))
		generations = append(generations, t.GenerationMean)
		runs += t.VMRuns
		nonTerminating += t.VMNonTerminating
	}
	if len(counts) == 0 {
		return 0
	}

	stability := 0.0
	if len(counts) >= 2 {
		mean, std := stat.MeanStdDev(counts, nil)
		if mean > 0 {
			cv := std / mean
			stability = math.Exp(-cv * cv)
		}
	}

	generation := 1 - math.Exp(-stat.Mean(generations, nil)/5)

	activity := 0.0
	if runs > 0 {
		activity = 1 - float64(nonTerminating)/float64(runs)
	}

	quality := qualityWeightStability*stability +
		qualityWeightGeneration*generation +
		qualityWeightActivity*activity
	return min(max(quality, 0), 1)
}
