package systems

import (
	"github.com/pthm-cable/natsel/arena"
	"github.com/pthm-cable/natsel/components"
)

// FeedingSystem lets creatures eat the food they overlap.
type FeedingSystem struct {
	grid    *SpatialGrid
	scratch []arena.Handle
	eaten   []arena.Handle
}

// NewFeedingSystem creates a feeding system for a width x height arena.
// cellSize should be on the order of a creature's size.
func NewFeedingSystem(width, height, cellSize float32) *FeedingSystem {
	return &FeedingSystem{grid: NewSpatialGrid(width, height, cellSize)}
}

// Update indexes the food, then visits creatures in arena order and lets
// each consume every overlapping food that is still available. Consumed
// food is removed from foods; the handles are returned and stay valid until
// the next call.
func (s *FeedingSystem) Update(
	creatures *arena.Arena[components.Creature],
	foods *arena.Arena[components.Food],
	rules components.Rules,
) []arena.Handle {
	s.eaten = s.eaten[:0]
	if foods.Len() == 0 || creatures.Len() == 0 {
		return s.eaten
	}

	s.grid.Clear()
	for h, f := range foods.All() {
		s.grid.Insert(h, f.Body)
	}

	for _, c := range creatures.All() {
		s.scratch = s.grid.QueryBox(s.scratch[:0], c.Body)
		for _, fh := range s.scratch {
			f := foods.Get(fh)
			if f == nil || f.Consumed() || !c.Body.Overlaps(f.Body) {
				continue
			}
			if c.TryEatFood(f, rules) {
				s.eaten = append(s.eaten, fh)
			}
		}
	}

	for _, fh := range s.eaten {
		foods.Remove(fh)
	}
	return s.eaten
}
