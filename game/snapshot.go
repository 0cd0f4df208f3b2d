package game

import (
	"slices"

	"github.com/pthm-cable/natsel/components"
	"github.com/pthm-cable/natsel/telemetry"
)

// CreatureView is a read-only copy of one creature for display.
type CreatureView struct {
	ID         uint32
	Body       components.Body
	Vel        components.Velocity
	Life       float32
	Age        int
	Generation int
	WillDie    bool
}

// Snapshot is a read-only view of the simulation for renderers and tools.
type Snapshot struct {
	Turn      int
	SimTime   float64
	Creatures []CreatureView
	Food      []components.Body

	// Histogram dividers and counts over the living population
	GenerationBins []float64
	GenerationHist []float64
	AgeBins        []float64
	AgeHist        []float64
}

// Snapshot copies the current population and food.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Turn:      g.Turn(),
		SimTime:   g.simTime,
		Creatures: make([]CreatureView, 0, g.creatures.Len()),
		Food:      make([]components.Body, 0, g.foods.Len()),
	}
	gens := make([]float64, 0, g.creatures.Len())
	ages := make([]float64, 0, g.creatures.Len())
	for _, c := range g.creatures.All() {
		s.Creatures = append(s.Creatures, CreatureView{
			ID:         c.ID,
			Body:       c.Body,
			Vel:        c.Vel,
			Life:       c.Life(),
			Age:        c.Age(),
			Generation: c.Generation(),
			WillDie:    c.WillDie(),
		})
		gens = append(gens, float64(c.Generation()))
		ages = append(ages, float64(c.Age()))
	}
	for _, f := range g.foods.All() {
		s.Food = append(s.Food, f.Body)
	}

	bins := g.cfg.Telemetry.HistogramBins
	slices.Sort(gens)
	slices.Sort(ages)
	s.GenerationBins, s.GenerationHist = telemetry.Histogram(gens, bins)
	s.AgeBins, s.AgeHist = telemetry.Histogram(ages, bins)
	return s
}
