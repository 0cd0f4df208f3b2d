package game

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pthm-cable/natsel/components"
	"github.com/pthm-cable/natsel/systems"
)

// State is either Prepare or *Running.
type State interface {
	isState()
}

// Prepare holds the parameters for the initial spawn.
type Prepare struct {
	CreatureCount      int
	FoodCount          int
	DailyFoodCount     int
	DailyCreatureCount int
	TurnInterval       float32
}

// Running holds the turn scheduler.
type Running struct {
	DailyFoodCount     int
	DailyCreatureCount int
	TurnTimer          components.Timer
	Turn               int
}

func (Prepare) isState()  {}
func (*Running) isState() {}

// Begin spawns the initial creatures and food on non-overlapping cells and
// moves the simulation into the Running state. Genomes come from the genome
// source; a source failure aborts Begin and leaves the game in Prepare.
func (g *Game) Begin(ctx context.Context) error {
	prep, ok := g.state.(Prepare)
	if !ok {
		return ErrAlreadyRunning
	}

	ctx, span := g.tracer.Start(ctx, "simulation.begin", trace.WithAttributes(
		attribute.Int("creatures", prep.CreatureCount),
		attribute.Int("food", prep.FoodCount),
	))
	defer span.End()

	footprint := components.Size{W: g.creatureSize.W * 2, H: g.creatureSize.H * 2}
	positions := systems.PlaceRandom(g.rng, g.arenaSize, footprint, g.creatureSize, prep.CreatureCount, nil)
	for _, pos := range positions {
		genome, err := g.genomes.Recv(ctx)
		if err != nil {
			g.creatures.Clear()
			span.RecordError(err)
			span.SetStatus(codes.Error, "genome source failed")
			return fmt.Errorf("initial population: %w", err)
		}
		g.spawnCreature(genome, pos)
	}

	bodies := make([]components.Body, 0, g.creatures.Len())
	for _, c := range g.creatures.All() {
		bodies = append(bodies, c.Body)
	}
	footprint = components.Size{W: g.foodSize.W * 2, H: g.foodSize.H * 2}
	for _, pos := range systems.PlaceRandom(g.rng, g.arenaSize, footprint, g.foodSize, prep.FoodCount, bodies) {
		g.spawnFood(pos)
	}

	if len(positions) < prep.CreatureCount || g.foods.Len() < prep.FoodCount {
		slog.Warn("arena too small for initial population",
			"creatures", len(positions), "creatures_wanted", prep.CreatureCount,
			"food", g.foods.Len(), "food_wanted", prep.FoodCount,
		)
	}

	g.state = &Running{
		DailyFoodCount:     prep.DailyFoodCount,
		DailyCreatureCount: prep.DailyCreatureCount,
		TurnTimer:          components.NewTimer(prep.TurnInterval),
	}

	slog.Info("simulation_started",
		"seed", g.rngSeed,
		"creatures", g.creatures.Len(),
		"food", g.foods.Len(),
		"turn_interval", prep.TurnInterval,
	)
	return nil
}
