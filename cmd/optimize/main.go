// Package main searches simulation rules with CMA-ES for settings under which
// an evolving population survives longest and keeps producing viable genomes.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/natsel/config"
)

type options struct {
	configPath string
	outputDir  string
	maxTurns   int
	seeds      int
	maxEvals   int
	population int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "base config YAML (empty uses defaults)")
	flag.StringVar(&opts.outputDir, "output", "", "directory for the search log and results")
	flag.IntVar(&opts.maxTurns, "max-turns", 500, "turn cap per simulation run")
	flag.IntVar(&opts.seeds, "seeds", 3, "simulation runs per evaluation")
	flag.IntVar(&opts.maxEvals, "max-evals", 200, "evaluation budget")
	flag.IntVar(&opts.population, "population", 0, "CMA-ES population (0 sizes it from the parameter count)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(opts); err != nil {
		slog.Error("optimize_failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.outputDir == "" {
		return errors.New("-output is required")
	}
	if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := config.Init(opts.configPath); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	base := config.Cfg()

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, opts.maxTurns, evalSeeds(opts.seeds), base)
	s, err := newSearch(params, evaluator, opts)
	if err != nil {
		return err
	}
	defer s.close()

	// The base config is evaluated first so every search reports against it.
	start := params.Clamp(params.ExtractFromConfig(base))
	baseline := s.evaluate(start)
	method := &optimize.CmaEsChol{
		InitStepSize: initialStep(baseline, opts.maxTurns),
		Population:   populationSize(opts.population, params.Dim()),
	}
	slog.Info("search_started",
		"params", params.Dim(),
		"population", method.Population,
		"step", method.InitStepSize,
		"baseline_survival", baseline.SurvivalTurns,
		"baseline_generation", baseline.GenerationMean)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return s.evaluate(params.Clamp(params.Denormalize(x))).Fitness
		},
	}
	settings := &optimize.Settings{FuncEvaluations: opts.maxEvals}
	if _, err := optimize.Minimize(problem, params.Normalize(start), settings, method); err != nil {
		slog.Warn("search_ended", "error", err)
	}

	return s.writeResults(base)
}

// evalSeeds returns deterministic, well-separated simulation seeds.
func evalSeeds(n int) []int64 {
	seeds := make([]int64, max(n, 1))
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}
	return seeds
}

// populationSize is 4 + floor(3 ln n) unless set explicitly.
func populationSize(requested, dim int) int {
	if requested > 0 {
		return requested
	}
	return 4 + int(3*math.Log(float64(dim)))
}

// initialStep narrows the search around a base config that already survives
// the whole run and widens it when the population dies out.
func initialStep(baseline Evaluation, maxTurns int) float64 {
	if baseline.SurvivalTurns >= float64(maxTurns) {
		return 0.15
	}
	return 0.3
}

// evalRecord is one row of optimize_log.csv.
type evalRecord struct {
	Eval int `csv:"eval"`
	Evaluation
	Params string `csv:"params"`
}

// search evaluates candidates in order, logs each one and tracks the best.
type search struct {
	params    *ParamVector
	evaluator *FitnessEvaluator
	maxEvals  int
	dir       string

	log        *os.File
	headerDone bool

	evals   int
	started time.Time
	best    Evaluation
	bestRaw []float64
}

func newSearch(params *ParamVector, evaluator *FitnessEvaluator, opts options) (*search, error) {
	f, err := os.Create(filepath.Join(opts.outputDir, "optimize_log.csv"))
	if err != nil {
		return nil, fmt.Errorf("create search log: %w", err)
	}
	return &search{
		params:    params,
		evaluator: evaluator,
		maxEvals:  opts.maxEvals,
		dir:       opts.outputDir,
		log:       f,
		started:   time.Now(),
		best:      Evaluation{Fitness: math.Inf(1)},
	}, nil
}

// evaluate scores clamped raw values. The baseline is eval 0.
func (s *search) evaluate(raw []float64) Evaluation {
	ev := s.evaluator.Evaluate(raw)
	if ev.Fitness < s.best.Fitness {
		s.best = ev
		s.bestRaw = append(s.bestRaw[:0], raw...)
	}

	rec := []evalRecord{{Eval: s.evals, Evaluation: ev, Params: s.describe(raw)}}
	var err error
	if s.headerDone {
		err = gocsv.MarshalWithoutHeaders(rec, s.log)
	} else {
		err = gocsv.Marshal(rec, s.log)
		s.headerDone = err == nil
	}
	if err != nil {
		slog.Warn("search_log_failed", "error", err)
	}

	elapsed := time.Since(s.started)
	var eta time.Duration
	if s.evals > 0 {
		eta = elapsed / time.Duration(s.evals) * time.Duration(max(s.maxEvals-s.evals, 0))
	}
	slog.Info("eval",
		"n", s.evals,
		"survival", ev.SurvivalTurns,
		"quality", ev.Quality,
		"generation_mean", ev.GenerationMean,
		"vm_terminated", ev.TerminatedShare,
		"best_survival", s.best.SurvivalTurns,
		"elapsed", elapsed.Round(time.Second),
		"eta", eta.Round(time.Second))

	s.evals++
	return ev
}

// describe renders raw values as name=value pairs.
func (s *search) describe(raw []float64) string {
	parts := make([]string, len(raw))
	for i, v := range raw {
		parts[i] = fmt.Sprintf("%s=%.6g", s.params.Specs[i].Name, v)
	}
	return strings.Join(parts, " ")
}

func (s *search) close() error {
	return s.log.Close()
}

// searchSummary is written to best.json.
type searchSummary struct {
	Evaluations int                `json:"evaluations"`
	Elapsed     string             `json:"elapsed"`
	Best        Evaluation         `json:"best"`
	Params      map[string]float64 `json:"params"`
}

// writeResults saves the best config, its summary, the per-turn stats of its
// best seed and that run's hall of fame.
func (s *search) writeResults(base *config.Config) error {
	if s.bestRaw == nil {
		return errors.New("no evaluation completed")
	}

	bestCfg := base.Clone()
	s.params.ApplyToConfig(bestCfg, s.bestRaw)
	if err := bestCfg.WriteYAML(s.path("best_config.yaml")); err != nil {
		return fmt.Errorf("write best config: %w", err)
	}

	summary := searchSummary{
		Evaluations: s.evals,
		Elapsed:     time.Since(s.started).Round(time.Second).String(),
		Best:        s.best,
		Params:      make(map[string]float64, len(s.bestRaw)),
	}
	for i, v := range s.bestRaw {
		summary.Params[s.params.Specs[i].Name] = v
	}
	if err := s.writeJSON("best.json", summary); err != nil {
		return err
	}
	if turns := s.evaluator.BestRun(); turns != nil {
		if err := s.writeJSON("best_run.json", turns); err != nil {
			return err
		}
	}
	if hof := s.evaluator.BestHallOfFame(); hof != nil && hof.Len() > 0 {
		if err := hof.WriteFile(s.path("hall_of_fame.json")); err != nil {
			return fmt.Errorf("write hall of fame: %w", err)
		}
	}

	slog.Info("search_complete",
		"evals", s.evals,
		"elapsed", summary.Elapsed,
		"survival", s.best.SurvivalTurns,
		"quality", s.best.Quality,
		"dir", s.dir)
	return nil
}

func (s *search) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *search) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(s.path(name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
