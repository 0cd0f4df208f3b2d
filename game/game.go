// Package game runs the creature simulation: state transitions, the
// per-frame systems and the turn scheduler.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/pthm-cable/natsel/arena"
	"github.com/pthm-cable/natsel/components"
	"github.com/pthm-cable/natsel/config"
	"github.com/pthm-cable/natsel/dna"
	"github.com/pthm-cable/natsel/systems"
	"github.com/pthm-cable/natsel/telemetry"
)

var (
	// ErrAlreadyRunning is returned by Begin once the simulation has started.
	ErrAlreadyRunning = errors.New("game: simulation already running")
	// ErrNotRunning is returned by Update and AdvanceTurn before Begin.
	ErrNotRunning = errors.New("game: simulation not running")
)

// GenomeSource hands out fresh genomes. *pipeline.Genomes satisfies it.
type GenomeSource interface {
	Recv(ctx context.Context) (*dna.Genome, error)
}

// Options configures game initialization.
type Options struct {
	Config        *config.Config // nil = config.Cfg()
	Genomes       GenomeSource
	Seed          int64 // 0 = time-based
	OutputDir     string
	LogStats      bool
	StatsCallback func(telemetry.TurnStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg     *config.Config
	rng     *rand.Rand
	rngSeed int64
	genomes GenomeSource
	tracer  trace.Tracer

	state State

	creatures *arena.Arena[components.Creature]
	foods     *arena.Arena[components.Food]

	rules        components.Rules
	arenaSize    components.Size
	creatureSize components.Size
	foodSize     components.Size
	maxStep      float32

	feeding      *systems.FeedingSystem
	foodGrid     *systems.OccupancyGrid
	creatureGrid *systems.OccupancyGrid
	parallel     *parallelState

	// Telemetry
	collector     *telemetry.Collector
	hallOfFame    *telemetry.HallOfFame
	perf          *telemetry.PerfCollector
	output        *telemetry.OutputManager
	statsCallback func(telemetry.TurnStats)
	logStats      bool

	nextID  uint32
	frame   int64
	simTime float64
	extinct bool

	// Per-turn scratch
	dead      []deadCreature
	born      []components.Creature
	positions []components.Position
}

// New creates a game in the Prepare state.
func New(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	if opts.Genomes == nil {
		return nil, errors.New("game: no genome source")
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	d := cfg.Derived
	g := &Game{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		rngSeed: seed,
		genomes: opts.Genomes,
		tracer:  telemetry.Tracer(),
		state: Prepare{
			CreatureCount:      cfg.Simulation.CreatureCount,
			FoodCount:          cfg.Simulation.FoodCount,
			DailyFoodCount:     cfg.Simulation.DailyFoodCount,
			DailyCreatureCount: cfg.Simulation.DailyCreatureCount,
			TurnInterval:       d.TurnSecs32,
		},
		creatures:     arena.New[components.Creature](cfg.Simulation.CreatureCount * 4),
		foods:         arena.New[components.Food](cfg.Simulation.FoodCount + cfg.Simulation.DailyFoodCount),
		rules:         RulesFromConfig(cfg),
		arenaSize:     components.Size{W: d.ArenaW32, H: d.ArenaH32},
		creatureSize:  components.Size{W: d.CreatureW32, H: d.CreatureH32},
		foodSize:      components.Size{W: d.FoodW32, H: d.FoodH32},
		maxStep:       d.MaxStep32,
		collector:     telemetry.NewCollector(cfg.Telemetry.WindowTurns),
		hallOfFame:    telemetry.NewHallOfFame(cfg.Telemetry.HallOfFameSize),
		perf:          telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		statsCallback: opts.StatsCallback,
		logStats:      opts.LogStats,
	}

	g.feeding = systems.NewFeedingSystem(d.ArenaW32, d.ArenaH32, max(d.CreatureW32, d.CreatureH32))
	g.foodGrid = systems.NewOccupancyGrid(g.arenaSize, g.foodSize)
	g.creatureGrid = systems.NewOccupancyGrid(g.arenaSize, g.creatureSize)
	g.parallel = newParallelState(cfg.Simulation.DecisionWorkers, dna.Limits{
		TapeSize: cfg.DNA.TapeSize,
		Fuel:     cfg.DNA.Fuel,
	})

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	g.output = output
	if err := g.output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	return g, nil
}

// RulesFromConfig derives the creature lifecycle rules from cfg.
func RulesFromConfig(cfg *config.Config) components.Rules {
	return components.Rules{
		FoodLife:      float32(cfg.Creature.FoodLife),
		ReproduceCost: float32(cfg.Creature.ReproduceCost),
		MoveInterval:  float32(cfg.Creature.MoveInterval),
		IdleGrace:     cfg.Creature.IdleGrace,
		DistanceCostK: float32(cfg.Energy.DistanceCostK),
		Unit:          cfg.DNA.Unit,
		MaxMutations:  cfg.DNA.MaxMutations,
		Costs: dna.Costs{
			Base:   cfg.Energy.BaseCost,
			SpeedK: cfg.Energy.SpeedCostK,
		},
	}
}

// Close stops the decision workers, writes the hall of fame and flushes
// output files.
func (g *Game) Close() error {
	g.parallel.stopWorkers()
	if err := g.output.WriteHallOfFame(g.hallOfFame); err != nil {
		slog.Error("failed to write hall of fame", "error", err)
	}
	return g.output.Close()
}

// State returns the current simulation state.
func (g *Game) State() State {
	return g.state
}

// Running reports whether Begin has completed.
func (g *Game) Running() bool {
	_, ok := g.state.(*Running)
	return ok
}

// Turn returns the number of completed turns.
func (g *Game) Turn() int {
	if run, ok := g.state.(*Running); ok {
		return run.Turn
	}
	return 0
}

// SimTime returns simulated seconds since Begin.
func (g *Game) SimTime() float64 {
	return g.simTime
}

// Frame returns the number of Update calls that advanced the simulation.
func (g *Game) Frame() int64 {
	return g.frame
}

// Seed returns the seed of the simulation rng.
func (g *Game) Seed() int64 {
	return g.rngSeed
}

// CreatureCount returns the number of living creatures.
func (g *Game) CreatureCount() int {
	return g.creatures.Len()
}

// FoodCount returns the number of uneaten food items.
func (g *Game) FoodCount() int {
	return g.foods.Len()
}

// ArenaSize returns the arena dimensions.
func (g *Game) ArenaSize() components.Size {
	return g.arenaSize
}

// Rules returns the lifecycle rules in effect.
func (g *Game) Rules() components.Rules {
	return g.rules
}

// HallOfFame returns the fittest creatures that have died so far.
func (g *Game) HallOfFame() *telemetry.HallOfFame {
	return g.hallOfFame
}

// PerfStats returns frame timings over the current perf window.
func (g *Game) PerfStats() telemetry.PerfStats {
	return g.perf.Stats()
}
