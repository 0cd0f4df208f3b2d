package game

import (
	"log/slog"

	"github.com/pthm-cable/natsel/telemetry"
)

// flushTelemetry flushes the stats window when it is complete.
func (g *Game) flushTelemetry(turn int) {
	if !g.collector.ShouldFlush(turn) {
		return
	}

	stats := g.collector.Flush(turn, g.simTime, g.samplePopulation(), g.cfg.Telemetry.HistogramBins)
	perfStats := g.perf.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.output.WriteTurn(stats); err != nil {
		slog.Error("failed to write turn stats", "error", err)
	}
	if err := g.output.WritePerf(perfStats, turn); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}

// samplePopulation collects per-creature values for distribution stats.
func (g *Game) samplePopulation() telemetry.Population {
	n := g.creatures.Len()
	pop := telemetry.Population{
		Creatures:   n,
		Food:        g.foods.Len(),
		Generations: make([]float64, 0, n),
		Ages:        make([]float64, 0, n),
		Lives:       make([]float64, 0, n),
	}
	for _, c := range g.creatures.All() {
		pop.Generations = append(pop.Generations, float64(c.Generation()))
		pop.Ages = append(pop.Ages, float64(c.Age()))
		pop.Lives = append(pop.Lives, float64(c.Life()))
	}
	return pop
}
