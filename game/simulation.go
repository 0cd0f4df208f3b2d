package game

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pthm-cable/natsel/systems"
	"github.com/pthm-cable/natsel/telemetry"
)

// Update advances the simulation by dt seconds, capped at the configured
// max step: movement decisions for creatures whose timer fired, movement,
// feeding, then the turn timer.
func (g *Game) Update(ctx context.Context, dt float32) error {
	run, ok := g.state.(*Running)
	if !ok {
		return ErrNotRunning
	}
	dt = min(dt, g.maxStep)
	if dt <= 0 {
		return nil
	}

	g.perf.StartFrame()

	g.perf.StartPhase(telemetry.PhaseDecide)
	g.updateDecisions(dt)

	g.perf.StartPhase(telemetry.PhaseMove)
	g.updateMovement(dt)

	g.perf.StartPhase(telemetry.PhaseCollide)
	eaten := g.feeding.Update(g.creatures, g.foods, g.rules)
	g.collector.RecordFoodEaten(len(eaten))

	g.simTime += float64(dt)
	g.frame++

	if run.TurnTimer.Tick(dt) {
		g.perf.StartPhase(telemetry.PhaseTurn)
		g.turn(ctx, run)
	}

	g.perf.EndFrame()
	return nil
}

// AdvanceTurn runs the turn scheduler immediately, without waiting for the
// turn timer.
func (g *Game) AdvanceTurn(ctx context.Context) error {
	run, ok := g.state.(*Running)
	if !ok {
		return ErrNotRunning
	}
	g.turn(ctx, run)
	return nil
}

// updateMovement moves every creature, reflecting off walls, and charges it
// for the distance covered.
func (g *Game) updateMovement(dt float32) {
	for _, c := range g.creatures.All() {
		d := systems.Move(&c.Body, &c.Vel, g.arenaSize, dt)
		c.HasMoved(d, g.rules)
	}
}

// turn ends the current turn: deaths, duplication and aging, then the daily
// food and creature quotas.
func (g *Game) turn(ctx context.Context, run *Running) {
	run.Turn++
	ctx, span := g.tracer.Start(ctx, "simulation.turn", trace.WithAttributes(attribute.Int("turn", run.Turn)))
	defer span.End()

	births, deaths := g.lifecyclePass()
	food := g.spawnDailyFood(run.DailyFoodCount)
	spawned := g.spawnDailyCreatures(ctx, run.DailyCreatureCount)

	span.SetAttributes(
		attribute.Int("births", births),
		attribute.Int("deaths", deaths),
		attribute.Int("food_spawned", food),
		attribute.Int("creatures_spawned", spawned),
		attribute.Int("creatures", g.creatures.Len()),
	)
	slog.Debug("turn",
		"turn", run.Turn,
		"creatures", g.creatures.Len(),
		"food", g.foods.Len(),
		"births", births,
		"deaths", deaths,
		"food_spawned", food,
		"spawned", spawned,
	)

	if g.creatures.Len() == 0 && !g.extinct {
		g.extinct = true
		slog.Info("population_extinct", "turn", run.Turn, "sim_time", g.simTime)
	} else if g.creatures.Len() > 0 {
		g.extinct = false
	}

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry(run.Turn)
}
