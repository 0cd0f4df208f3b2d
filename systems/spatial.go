// Package systems provides the per-frame and per-turn simulation systems.
package systems

import (
	"github.com/pthm-cable/natsel/arena"
	"github.com/pthm-cable/natsel/components"
)

// SpatialGrid buckets handles by the cell containing their center so box
// queries only visit nearby entries.
type SpatialGrid struct {
	cellSize float32
	cols     int
	rows     int
	cells    [][]arena.Handle
	// maxHalf is the largest half-extent inserted since the last Clear; box
	// queries widen by it to catch entries whose centers sit outside the box.
	maxHalf float32
}

// NewSpatialGrid creates a grid covering a width x height arena.
func NewSpatialGrid(width, height, cellSize float32) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]arena.Handle, cols*rows)
	for i := range cells {
		cells[i] = make([]arena.Handle, 0, 4)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all entries.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.maxHalf = 0
}

// Insert adds h at the center of body.
func (g *SpatialGrid) Insert(h arena.Handle, body components.Body) {
	col, row := g.cellCoords(body.Pos.X, body.Pos.Y)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], h)
	g.maxHalf = max(g.maxHalf, body.Size.W/2, body.Size.H/2)
}

// QueryBox appends to dst every handle whose center lies in a cell that
// body, widened by the largest inserted half-extent, touches. Callers must
// still test for an actual overlap.
func (g *SpatialGrid) QueryBox(dst []arena.Handle, body components.Body) []arena.Handle {
	minX, minY := body.Min()
	maxX, maxY := body.Max()
	c0, r0 := g.cellCoords(minX-g.maxHalf, minY-g.maxHalf)
	c1, r1 := g.cellCoords(maxX+g.maxHalf, maxY+g.maxHalf)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			dst = append(dst, g.cells[row*g.cols+col]...)
		}
	}
	return dst
}

// cellCoords returns the cell for a point, clamped to the grid.
func (g *SpatialGrid) cellCoords(x, y float32) (int, int) {
	col := int(x / g.cellSize)
	row := int(y / g.cellSize)
	col = max(0, min(col, g.cols-1))
	row = max(0, min(row, g.rows-1))
	return col, row
}
