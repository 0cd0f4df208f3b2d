package game

import (
	"context"
	"errors"
	"testing"

	"github.com/pthm-cable/natsel/components"
	"github.com/pthm-cable/natsel/config"
	"github.com/pthm-cable/natsel/dna"
	"github.com/pthm-cable/natsel/pipeline"
	"github.com/pthm-cable/natsel/telemetry"
)

// stubSource hands out copies of one genome, failing after limit calls
// when limit is positive.
type stubSource struct {
	genome *dna.Genome
	limit  int
	calls  int
	err    error
}

func (s *stubSource) Recv(ctx context.Context) (*dna.Genome, error) {
	s.calls++
	if s.limit > 0 && s.calls > s.limit {
		return nil, s.err
	}
	return s.genome.Clone(), nil
}

func mustGenome(t *testing.T, src string, speed float64) *dna.Genome {
	t.Helper()
	g, err := dna.Parse(src, speed)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return g
}

// smallConfig returns a 100x100 arena with 10x10 creatures and food.
func smallConfig() *config.Config {
	cfg := config.Default().Clone()
	cfg.Arena.Width = 100
	cfg.Arena.Height = 100
	cfg.Creature.Width = 10
	cfg.Creature.Height = 10
	cfg.Food.Width = 10
	cfg.Food.Height = 10
	cfg.Simulation.CreatureCount = 10
	cfg.Simulation.FoodCount = 10
	cfg.Simulation.DailyFoodCount = 0
	cfg.Simulation.DailyCreatureCount = 0
	cfg.Simulation.TurnInterval = 1
	cfg.Simulation.MaxStep = 0.2
	cfg.Simulation.DecisionWorkers = 2
	cfg.DNA.Length = 64
	cfg.DNA.Fuel = 2000
	cfg.Recompute()
	return cfg
}

func newTestGame(t *testing.T, cfg *config.Config, src GenomeSource) *Game {
	t.Helper()
	g, err := New(Options{Config: cfg, Genomes: src, Seed: 42})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func TestUpdateBeforeBegin(t *testing.T) {
	g := newTestGame(t, smallConfig(), &stubSource{genome: mustGenome(t, "@", 1)})

	if err := g.Update(context.Background(), 0.1); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Update before Begin = %v, want ErrNotRunning", err)
	}
	if err := g.AdvanceTurn(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("AdvanceTurn before Begin = %v, want ErrNotRunning", err)
	}
	if _, ok := g.State().(Prepare); !ok {
		t.Errorf("State = %T, want Prepare", g.State())
	}
}

func TestBeginTwice(t *testing.T) {
	g := newTestGame(t, smallConfig(), &stubSource{genome: mustGenome(t, "@", 1)})
	ctx := context.Background()

	if err := g.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !g.Running() {
		t.Fatal("Running = false after Begin")
	}
	if err := g.Begin(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Begin = %v, want ErrAlreadyRunning", err)
	}
}

func TestBeginSourceFailure(t *testing.T) {
	boom := errors.New("boom")
	src := &stubSource{genome: mustGenome(t, "@", 1), limit: 3, err: boom}
	g := newTestGame(t, smallConfig(), src)

	err := g.Begin(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Begin = %v, want wrapped boom", err)
	}
	if g.Running() {
		t.Error("Running = true after failed Begin")
	}
	if g.CreatureCount() != 0 {
		t.Errorf("CreatureCount = %d after failed Begin, want 0", g.CreatureCount())
	}
}

func TestBeginPlacesWithoutOverlap(t *testing.T) {
	g := newTestGame(t, smallConfig(), &stubSource{genome: mustGenome(t, "@", 1)})
	if err := g.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if g.CreatureCount() != 10 || g.FoodCount() != 10 {
		t.Fatalf("spawned %d creatures, %d food; want 10, 10", g.CreatureCount(), g.FoodCount())
	}

	var bodies []components.Body
	for _, c := range g.creatures.All() {
		bodies = append(bodies, c.Body)
	}
	for _, f := range g.foods.All() {
		bodies = append(bodies, f.Body)
	}
	for i := range bodies {
		if !bodies[i].Within(g.arenaSize) {
			t.Errorf("body %d at %+v outside arena", i, bodies[i].Pos)
		}
		for j := i + 1; j < len(bodies); j++ {
			if bodies[i].Overlaps(bodies[j]) {
				t.Errorf("bodies %d and %d overlap: %+v %+v", i, j, bodies[i].Pos, bodies[j].Pos)
			}
		}
	}
}

func TestUpdateCapsStep(t *testing.T) {
	cfg := smallConfig()
	cfg.Simulation.TurnInterval = 10
	cfg.Recompute()
	g := newTestGame(t, cfg, &stubSource{genome: mustGenome(t, "@", 1)})
	ctx := context.Background()
	if err := g.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if err := g.Update(ctx, 100); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if want := float64(float32(0.2)); g.SimTime() != want {
		t.Errorf("SimTime = %v, want %v", g.SimTime(), want)
	}
	if g.Turn() != 0 {
		t.Errorf("Turn = %d, want 0", g.Turn())
	}
}

func TestDeathReasons(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		reason func(telemetry.TurnStats) int
	}{
		{"idle", "@", func(s telemetry.TurnStats) int { return s.DeathsIdle }},
		{"nonviable", "+[]", func(s telemetry.TurnStats) int { return s.DeathsNonviable }},
		{"starved", "+.", func(s telemetry.TurnStats) int { return s.DeathsStarved }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig()
			cfg.Simulation.FoodCount = 0
			cfg.Simulation.TurnInterval = 100
			cfg.Recompute()

			var stats []telemetry.TurnStats
			g, err := New(Options{
				Config:        cfg,
				Genomes:       &stubSource{genome: mustGenome(t, tt.src, 1)},
				Seed:          7,
				StatsCallback: func(s telemetry.TurnStats) { stats = append(stats, s) },
			})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer g.Close()

			ctx := context.Background()
			if err := g.Begin(ctx); err != nil {
				t.Fatalf("Begin: %v", err)
			}
			// one move decision per creature
			for range 6 {
				if err := g.Update(ctx, 0.2); err != nil {
					t.Fatalf("Update: %v", err)
				}
			}
			if err := g.AdvanceTurn(ctx); err != nil {
				t.Fatalf("AdvanceTurn: %v", err)
			}

			if g.CreatureCount() != 0 {
				t.Errorf("CreatureCount = %d, want 0", g.CreatureCount())
			}
			if len(stats) != 1 {
				t.Fatalf("got %d stats flushes, want 1", len(stats))
			}
			if got := tt.reason(stats[0]); got != 10 {
				t.Errorf("%s deaths = %d, want 10 (stats %+v)", tt.name, got, stats[0])
			}
		})
	}
}

func TestEatThenDuplicate(t *testing.T) {
	cfg := smallConfig()
	cfg.Simulation.CreatureCount = 0
	cfg.Simulation.FoodCount = 0
	cfg.Simulation.TurnInterval = 100
	cfg.Creature.IdleGrace = 100
	cfg.Recompute()

	g := newTestGame(t, cfg, &stubSource{genome: mustGenome(t, "@", 1)})
	ctx := context.Background()
	if err := g.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	center := components.Position{X: 50, Y: 50}
	parent := g.spawnCreature(mustGenome(t, "@", 1), center)
	g.spawnFood(center)

	if err := g.Update(ctx, 0.1); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if g.FoodCount() != 0 {
		t.Fatalf("FoodCount = %d after overlap, want 0", g.FoodCount())
	}
	if life := g.creatures.Get(parent).Life(); life != g.rules.FoodLife {
		t.Fatalf("life = %v after eating, want %v", life, g.rules.FoodLife)
	}

	if err := g.AdvanceTurn(ctx); err != nil {
		t.Fatalf("AdvanceTurn: %v", err)
	}
	if g.CreatureCount() != 2 {
		t.Fatalf("CreatureCount = %d after turn, want 2", g.CreatureCount())
	}
	var child *components.Creature
	for h, c := range g.creatures.All() {
		if h != parent {
			child = c
		}
	}
	if child.Generation() != 1 || child.Life() != 0 {
		t.Errorf("child generation %d life %v, want 1, 0", child.Generation(), child.Life())
	}

	// neither eats again
	if err := g.AdvanceTurn(ctx); err != nil {
		t.Fatalf("AdvanceTurn: %v", err)
	}
	if g.CreatureCount() != 0 {
		t.Errorf("CreatureCount = %d after second turn, want 0", g.CreatureCount())
	}

	// the child died before aging a turn and does not qualify
	hof := g.HallOfFame()
	if hof.Len() != 1 {
		t.Fatalf("hall of fame has %d entries, want 1", hof.Len())
	}
	if top := hof.Entries()[0]; top.Children != 1 || top.Genome != "@" {
		t.Errorf("top entry %+v, want the parent", top)
	}
}

func TestDailySpawnSourceFailure(t *testing.T) {
	cfg := smallConfig()
	cfg.Simulation.DailyCreatureCount = 5
	cfg.Creature.IdleGrace = 100
	cfg.Recompute()

	boom := errors.New("boom")
	src := &stubSource{genome: mustGenome(t, "@", 1), limit: 10, err: boom}
	g := newTestGame(t, cfg, src)
	ctx := context.Background()
	if err := g.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := g.AdvanceTurn(ctx); err != nil {
		t.Fatalf("AdvanceTurn = %v, want nil on runtime source failure", err)
	}
	if g.Turn() != 1 {
		t.Errorf("Turn = %d, want 1", g.Turn())
	}
}

func TestSimulationRun(t *testing.T) {
	cfg := smallConfig()
	cfg.Simulation.DailyFoodCount = 5
	cfg.Simulation.DailyCreatureCount = 2

	genomes := pipeline.NewGenomes(dna.Params{Length: cfg.DNA.Length, MaxMutations: cfg.DNA.MaxMutations, Speed: 1},
		pipeline.Options{Capacity: 64, Workers: 2, Seed: 1})
	ctx := context.Background()
	genomes.Start(ctx)
	defer genomes.Stop()

	var eaten, spawnedFood, spawned int
	g, err := New(Options{
		Config:  cfg,
		Genomes: genomes,
		Seed:    3,
		StatsCallback: func(s telemetry.TurnStats) {
			eaten += s.FoodEaten
			spawnedFood += s.FoodSpawned
			spawned += s.Spawned
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer g.Close()

	if err := g.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	initialFood := g.FoodCount()

	for g.Turn() < 50 {
		if err := g.Update(ctx, 0.2); err != nil {
			t.Fatalf("Update: %v", err)
		}
		for _, c := range g.creatures.All() {
			if !c.Body.CenterWithin(g.arenaSize) {
				t.Fatalf("creature %d left the arena at %+v", c.ID, c.Body.Pos)
			}
		}
		for _, f := range g.foods.All() {
			if f.Consumed() {
				t.Fatalf("consumed food still in arena at %+v", f.Body.Pos)
			}
		}
	}

	if got := initialFood + spawnedFood - eaten; got != g.FoodCount() {
		t.Errorf("food accounting: %d initial + %d spawned - %d eaten = %d, have %d",
			initialFood, spawnedFood, eaten, got, g.FoodCount())
	}

	// A food item is worth FoodLife and a child costs at least ReproduceCost.
	maxBirths := int(float32(initialFood+spawnedFood) * g.rules.FoodLife / g.rules.ReproduceCost)
	if limit := 10 + spawned + maxBirths; g.CreatureCount() > limit {
		t.Errorf("CreatureCount = %d, exceeds growth bound %d", g.CreatureCount(), limit)
	}

	snap := g.Snapshot()
	if snap.Turn != 50 || len(snap.Creatures) != g.CreatureCount() || len(snap.Food) != g.FoodCount() {
		t.Errorf("snapshot turn %d, %d creatures, %d food; game has %d, %d",
			snap.Turn, len(snap.Creatures), len(snap.Food), g.CreatureCount(), g.FoodCount())
	}
}
