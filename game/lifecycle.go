package game

import (
	"context"
	"log/slog"

	"github.com/pthm-cable/natsel/arena"
	"github.com/pthm-cable/natsel/components"
	"github.com/pthm-cable/natsel/dna"
	"github.com/pthm-cable/natsel/systems"
	"github.com/pthm-cable/natsel/telemetry"
)

// deadCreature records a creature removed in the turn pass.
type deadCreature struct {
	handle arena.Handle
	reason components.DeathReason
	id     uint32
	age    int
	gen    int
	kids   int
	genome *dna.Genome
}

// spawnCreature inserts a generation-zero creature centered at pos.
func (g *Game) spawnCreature(genome *dna.Genome, pos components.Position) arena.Handle {
	id := g.nextID
	g.nextID++
	body := components.Body{Pos: pos, Size: g.creatureSize}
	return g.creatures.Insert(components.NewCreature(id, genome, body, g.rules))
}

// spawnFood inserts a food item centered at pos.
func (g *Game) spawnFood(pos components.Position) arena.Handle {
	return g.foods.Insert(components.NewFood(components.Body{Pos: pos, Size: g.foodSize}))
}

// lifecyclePass visits every creature once: the dying are collected, the
// rest may duplicate and then pay for the turn. Removals and births are
// applied after the pass so iteration sees a stable population.
func (g *Game) lifecyclePass() (births, deaths int) {
	g.dead = g.dead[:0]
	g.born = g.born[:0]

	for h, c := range g.creatures.All() {
		if reason := c.Death(g.arenaSize, g.rules); reason != components.Alive {
			g.dead = append(g.dead, deadCreature{
				handle: h,
				reason: reason,
				id:     c.ID,
				age:    c.Age(),
				gen:    c.Generation(),
				kids:   c.Children(),
				genome: c.Genome(),
			})
			continue
		}
		if child, ok := c.TryDuplicate(g.nextID, g.rng, g.rules); ok {
			g.nextID++
			g.born = append(g.born, child)
		}
		c.TimePass()
	}

	for _, d := range g.dead {
		g.creatures.Remove(d.handle)
		g.collector.RecordDeath(d.reason)
		slog.Debug("creature_died", "id", d.id, "reason", d.reason.String(), "age", d.age, "generation", d.gen)
		g.considerHallOfFame(d)
	}
	for _, child := range g.born {
		g.creatures.Insert(child)
		g.collector.RecordBirth()
	}
	return len(g.born), len(g.dead)
}

// considerHallOfFame offers a dead creature to the hall of fame.
func (g *Game) considerHallOfFame(d deadCreature) {
	if !g.hallOfFame.Qualifies(d.kids, d.age) {
		return
	}
	g.hallOfFame.Consider(telemetry.HallEntry{
		ID:         d.id,
		Generation: d.gen,
		Age:        d.age,
		Children:   d.kids,
		Reason:     d.reason.String(),
		Speed:      d.genome.Speed(),
		Genome:     d.genome.String(),
	})
}

// markOccupied rebuilds grid occupancy from every creature and food item.
func (g *Game) markOccupied(grid *systems.OccupancyGrid) {
	for _, c := range g.creatures.All() {
		grid.Mark(c.Body)
	}
	for _, f := range g.foods.All() {
		grid.Mark(f.Body)
	}
}

// spawnDailyFood places up to n food items on free cells.
func (g *Game) spawnDailyFood(n int) int {
	if n <= 0 {
		return 0
	}
	g.foodGrid.Clear()
	g.markOccupied(g.foodGrid)
	g.positions = g.foodGrid.Sample(g.positions[:0], g.rng, n, g.foodSize)
	for _, pos := range g.positions {
		g.spawnFood(pos)
	}
	g.collector.RecordFoodSpawned(len(g.positions))
	return len(g.positions)
}

// spawnDailyCreatures places up to n fresh creatures from the genome source
// on free cells. A source failure stops spawning for this turn.
func (g *Game) spawnDailyCreatures(ctx context.Context, n int) int {
	if n <= 0 {
		return 0
	}
	g.creatureGrid.Clear()
	g.markOccupied(g.creatureGrid)
	g.positions = g.creatureGrid.Sample(g.positions[:0], g.rng, n, g.creatureSize)

	spawned := 0
	for _, pos := range g.positions {
		genome, err := g.genomes.Recv(ctx)
		if err != nil {
			slog.Error("genome source failed", "error", err, "spawned", spawned, "wanted", n)
			break
		}
		g.spawnCreature(genome, pos)
		spawned++
	}
	g.collector.RecordSpawned(spawned)
	return spawned
}
