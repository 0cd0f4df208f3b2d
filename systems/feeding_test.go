package systems

import (
	"testing"

	"github.com/pthm-cable/natsel/arena"
	"github.com/pthm-cable/natsel/components"
	"github.com/pthm-cable/natsel/dna"
)

func feedingRules() components.Rules {
	return components.Rules{FoodLife: 2, ReproduceCost: 1, MoveInterval: 1, IdleGrace: 1, Unit: 10, Costs: dna.Costs{Base: 0.5}}
}

func TestFeedingEachFoodOnce(t *testing.T) {
	g, _ := dna.Parse("+.", 1)
	r := feedingRules()
	creatures := arena.New[components.Creature](4)
	foods := arena.New[components.Food](4)

	// Two creatures stacked on one food, a third far away near another.
	at := func(x, y float32) components.Body {
		return components.Body{Pos: components.Position{X: x, Y: y}, Size: components.Size{W: 10, H: 10}}
	}
	c1 := creatures.Insert(components.NewCreature(1, g, at(20, 20), r))
	c2 := creatures.Insert(components.NewCreature(2, g, at(22, 22), r))
	c3 := creatures.Insert(components.NewCreature(3, g, at(80, 80), r))
	foods.Insert(components.NewFood(components.Body{Pos: components.Position{X: 21, Y: 21}, Size: components.Size{W: 4, H: 4}}))
	foods.Insert(components.NewFood(components.Body{Pos: components.Position{X: 84, Y: 80}, Size: components.Size{W: 4, H: 4}}))
	foods.Insert(components.NewFood(components.Body{Pos: components.Position{X: 50, Y: 50}, Size: components.Size{W: 4, H: 4}}))

	fs := NewFeedingSystem(100, 100, 10)
	eaten := fs.Update(creatures, foods, r)
	if len(eaten) != 2 {
		t.Fatalf("eaten = %d, want 2", len(eaten))
	}
	if foods.Len() != 1 {
		t.Errorf("foods left = %d, want 1", foods.Len())
	}

	total := creatures.Get(c1).Life() + creatures.Get(c2).Life()
	if total != r.FoodLife {
		t.Errorf("shared food credited %v life, want %v", total, r.FoodLife)
	}
	if creatures.Get(c3).Life() != r.FoodLife {
		t.Errorf("lone creature life = %v, want %v", creatures.Get(c3).Life(), r.FoodLife)
	}

	if again := fs.Update(creatures, foods, r); len(again) != 0 {
		t.Errorf("second pass ate %d items", len(again))
	}
}

func TestSpatialGridQueryFindsLargeNeighbours(t *testing.T) {
	g := NewSpatialGrid(100, 100, 10)
	a := arena.New[int](1)
	h := a.Insert(0)
	// Center sits two cells away from the probe but the box reaches it.
	g.Insert(h, components.Body{Pos: components.Position{X: 35, Y: 5}, Size: components.Size{W: 30, H: 4}})
	got := g.QueryBox(nil, components.Body{Pos: components.Position{X: 15, Y: 5}, Size: components.Size{W: 2, H: 2}})
	found := false
	for _, x := range got {
		if x == h {
			found = true
		}
	}
	if !found {
		t.Error("QueryBox missed entry whose extent overlaps the probe")
	}
}
