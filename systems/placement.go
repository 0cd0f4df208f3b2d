package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/natsel/components"
)

// OccupancyGrid partitions the arena into footprint-sized cells and tracks
// which of them are touched by existing objects. Spawns are drawn from the
// untouched cells so they never overlap anything tracked.
type OccupancyGrid struct {
	cell     components.Size
	arena    components.Size
	cols     int
	rows     int
	occupied []bool
	free     []int
}

// NewOccupancyGrid creates a grid of floor(W/cellW) x floor(H/cellH) cells.
// A cell larger than the arena yields a single cell.
func NewOccupancyGrid(arenaSize, cell components.Size) *OccupancyGrid {
	cols, rows := 1, 1
	if cell.W > 0 {
		cols = max(1, int(arenaSize.W/cell.W))
	}
	if cell.H > 0 {
		rows = max(1, int(arenaSize.H/cell.H))
	}
	return &OccupancyGrid{
		cell:     cell,
		arena:    arenaSize,
		cols:     cols,
		rows:     rows,
		occupied: make([]bool, cols*rows),
	}
}

// Cells returns the total number of cells.
func (g *OccupancyGrid) Cells() int {
	return g.cols * g.rows
}

// Clear marks every cell free.
func (g *OccupancyGrid) Clear() {
	clear(g.occupied)
}

// Mark flags every cell the body overlaps, after clamping it to the arena.
func (g *OccupancyGrid) Mark(body components.Body) {
	minX, minY := body.Min()
	maxX, maxY := body.Max()
	c0, c1 := g.span(minX, maxX, g.cell.W, g.cols)
	r0, r1 := g.span(minY, maxY, g.cell.H, g.rows)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			g.occupied[row*g.cols+col] = true
		}
	}
}

// span returns the inclusive range of cells with positive-length overlap of
// [lo, hi], clamped to the grid. A degenerate range maps to the cell holding
// lo.
func (g *OccupancyGrid) span(lo, hi, cell float32, n int) (int, int) {
	if cell <= 0 {
		return 0, n - 1
	}
	first := int(math.Floor(float64(lo / cell)))
	last := int(math.Ceil(float64(hi/cell))) - 1
	if last < first {
		last = first
	}
	first = max(0, min(first, n-1))
	last = max(0, min(last, n-1))
	return first, last
}

// Free returns the indices of unmarked cells. The slice is reused.
func (g *OccupancyGrid) Free() []int {
	g.free = g.free[:0]
	for i, occ := range g.occupied {
		if !occ {
			g.free = append(g.free, i)
		}
	}
	return g.free
}

// Center returns the position at which an object of the given size sits in
// the middle of cell idx, clamped so it stays inside the arena.
func (g *OccupancyGrid) Center(idx int, size components.Size) components.Position {
	col, row := idx%g.cols, idx/g.cols
	pos := components.Position{
		X: (float32(col) + 0.5) * g.cell.W,
		Y: (float32(row) + 0.5) * g.cell.H,
	}
	return Clamp(pos, size, g.arena)
}

// Sample picks up to count distinct free cells uniformly at random, marks
// them and appends their centers to dst. It returns fewer than count
// positions when the grid runs out of free cells.
func (g *OccupancyGrid) Sample(dst []components.Position, rng *rand.Rand, count int, size components.Size) []components.Position {
	if count <= 0 {
		return dst
	}
	free := g.Free()
	k := min(count, len(free))
	// Partial Fisher-Yates: only the first k slots need to be shuffled.
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(free)-i)
		free[i], free[j] = free[j], free[i]
	}
	for _, idx := range free[:k] {
		g.occupied[idx] = true
		dst = append(dst, g.Center(idx, size))
	}
	return dst
}

// PlaceRandom returns up to count non-overlapping spawn positions for
// objects of the given size, using cells of footprint and avoiding every
// body in occupied.
func PlaceRandom(rng *rand.Rand, arenaSize, footprint, size components.Size, count int, occupied []components.Body) []components.Position {
	g := NewOccupancyGrid(arenaSize, footprint)
	for _, b := range occupied {
		g.Mark(b)
	}
	return g.Sample(make([]components.Position, 0, count), rng, count, size)
}
