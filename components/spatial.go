// Package components defines the creature, food and kinematic types the
// simulation systems operate on.
package components

import "math"

// Position is the center of an entity in arena coordinates. The arena spans
// [0, width] x [0, height].
type Position struct {
	X, Y float32
}

// Velocity is a displacement per second.
type Velocity struct {
	X, Y float32
}

// IsZero reports whether the velocity has no component.
func (v Velocity) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Len returns the speed.
func (v Velocity) Len() float32 {
	return float32(math.Hypot(float64(v.X), float64(v.Y)))
}

// Size is a width and height.
type Size struct {
	W, H float32
}

// Body is the axis-aligned box an entity occupies.
type Body struct {
	Pos  Position
	Size Size
}

// Min returns the lower-left corner.
func (b Body) Min() (float32, float32) {
	return b.Pos.X - b.Size.W/2, b.Pos.Y - b.Size.H/2
}

// Max returns the upper-right corner.
func (b Body) Max() (float32, float32) {
	return b.Pos.X + b.Size.W/2, b.Pos.Y + b.Size.H/2
}

// Within reports whether the whole box lies inside an arena of the given
// size.
func (b Body) Within(arena Size) bool {
	minX, minY := b.Min()
	maxX, maxY := b.Max()
	return minX >= 0 && minY >= 0 && maxX <= arena.W && maxY <= arena.H
}

// CenterWithin reports whether the center lies inside the arena.
func (b Body) CenterWithin(arena Size) bool {
	return b.Pos.X >= 0 && b.Pos.Y >= 0 && b.Pos.X <= arena.W && b.Pos.Y <= arena.H
}

// Overlaps reports whether two boxes intersect with positive area.
func (b Body) Overlaps(o Body) bool {
	aMinX, aMinY := b.Min()
	aMaxX, aMaxY := b.Max()
	bMinX, bMinY := o.Min()
	bMaxX, bMaxY := o.Max()
	return aMinX < bMaxX && bMinX < aMaxX && aMinY < bMaxY && bMinY < aMaxY
}
