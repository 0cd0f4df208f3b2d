// Package telemetry provides turn statistics, frame timing, CSV output and
// tracing for the simulation.
package telemetry

import "github.com/pthm-cable/natsel/components"

// Collector accumulates events over a window of turns and produces
// TurnStats. It is owned by the simulation goroutine.
type Collector struct {
	windowTurns     int
	windowStartTurn int

	// Event counters for current window
	births           int
	deaths           [components.DeathOutOfBounds + 1]int
	spawned          int
	foodEaten        int
	foodSpawned      int
	vmRuns           int
	vmNonTerminating int
}

// NewCollector creates a collector that flushes every windowTurns turns.
func NewCollector(windowTurns int) *Collector {
	if windowTurns < 1 {
		windowTurns = 1
	}
	return &Collector{windowTurns: windowTurns}
}

// RecordBirth records a child produced by duplication.
func (c *Collector) RecordBirth() {
	c.births++
}

// RecordDeath records a creature removed at a turn boundary.
func (c *Collector) RecordDeath(reason components.DeathReason) {
	if int(reason) < len(c.deaths) {
		c.deaths[reason]++
	}
}

// RecordSpawned records fresh creatures drawn from the genome pipeline.
func (c *Collector) RecordSpawned(n int) {
	c.spawned += n
}

// RecordFoodEaten records consumed food.
func (c *Collector) RecordFoodEaten(n int) {
	c.foodEaten += n
}

// RecordFoodSpawned records food placed by the scheduler.
func (c *Collector) RecordFoodSpawned(n int) {
	c.foodSpawned += n
}

// RecordDecisions records genome runs and how many exhausted their fuel.
func (c *Collector) RecordDecisions(runs, nonTerminating int) {
	c.vmRuns += runs
	c.vmNonTerminating += nonTerminating
}

// ShouldFlush returns true if the current window is complete.
func (c *Collector) ShouldFlush(turn int) bool {
	return turn-c.windowStartTurn >= c.windowTurns
}

// Flush produces a TurnStats and resets counters for the next window.
func (c *Collector) Flush(turn int, simTimeSec float64, pop Population, bins int) TurnStats {
	stats := TurnStats{
		WindowStartTurn: c.windowStartTurn,
		Turn:            turn,
		SimTimeSec:      simTimeSec,

		Creatures: pop.Creatures,
		Food:      pop.Food,

		Births:            c.births,
		Spawned:           c.spawned,
		DeathsStarved:     c.deaths[components.DeathStarved],
		DeathsIdle:        c.deaths[components.DeathIdle],
		DeathsNonviable:   c.deaths[components.DeathNonviable],
		DeathsOutOfBounds: c.deaths[components.DeathOutOfBounds],

		FoodEaten:        c.foodEaten,
		FoodSpawned:      c.foodSpawned,
		VMRuns:           c.vmRuns,
		VMNonTerminating: c.vmNonTerminating,
	}
	stats.Deaths = stats.DeathsStarved + stats.DeathsIdle + stats.DeathsNonviable + stats.DeathsOutOfBounds
	stats.fillPopulation(pop, bins)

	// Reset for next window
	c.windowStartTurn = turn
	c.births = 0
	c.deaths = [len(c.deaths)]int{}
	c.spawned = 0
	c.foodEaten = 0
	c.foodSpawned = 0
	c.vmRuns = 0
	c.vmNonTerminating = 0

	return stats
}

// WindowTurns returns the number of turns per window.
func (c *Collector) WindowTurns() int {
	return c.windowTurns
}
