package systems

import (
	"math"

	"github.com/pthm-cable/natsel/components"
)

// Move advances body by vel over dt and reflects off the arena walls: a box
// that would leave the arena is pushed back inside and the offending
// velocity component is turned to point inward. It returns the distance
// actually travelled.
func Move(body *components.Body, vel *components.Velocity, arena components.Size, dt float32) float32 {
	if vel.IsZero() || dt <= 0 {
		return 0
	}
	startX, startY := body.Pos.X, body.Pos.Y

	body.Pos.X += vel.X * dt
	body.Pos.Y += vel.Y * dt

	body.Pos.X, vel.X = reflect(body.Pos.X, vel.X, body.Size.W/2, arena.W)
	body.Pos.Y, vel.Y = reflect(body.Pos.Y, vel.Y, body.Size.H/2, arena.H)

	dx := body.Pos.X - startX
	dy := body.Pos.Y - startY
	return float32(math.Hypot(float64(dx), float64(dy)))
}

// reflect keeps a center coordinate with the given half-extent inside
// [0, limit] and turns v away from a wall it hit.
func reflect(p, v, half, limit float32) (float32, float32) {
	lo, hi := half, limit-half
	if lo > hi {
		return limit / 2, v
	}
	switch {
	case p < lo:
		return lo, float32(math.Abs(float64(v)))
	case p > hi:
		return hi, -float32(math.Abs(float64(v)))
	}
	return p, v
}

// Clamp returns pos moved just enough that a box of the given size lies in
// the arena.
func Clamp(pos components.Position, size components.Size, arena components.Size) components.Position {
	pos.X, _ = reflect(pos.X, 0, size.W/2, arena.W)
	pos.Y, _ = reflect(pos.Y, 0, size.H/2, arena.H)
	return pos
}
