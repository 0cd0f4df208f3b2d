package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/natsel/components"
)

func TestMoveFreeSpace(t *testing.T) {
	body := components.Body{Pos: components.Position{X: 50, Y: 50}, Size: components.Size{W: 10, H: 10}}
	vel := components.Velocity{X: 3, Y: 4}
	d := Move(&body, &vel, components.Size{W: 100, H: 100}, 1)
	if math.Abs(float64(d-5)) > 1e-5 {
		t.Errorf("distance = %v, want 5", d)
	}
	if body.Pos != (components.Position{X: 53, Y: 54}) {
		t.Errorf("pos = %+v, want {53 54}", body.Pos)
	}
}

func TestMoveReflectsOffWalls(t *testing.T) {
	tests := []struct {
		name    string
		pos     components.Position
		vel     components.Velocity
		wantPos components.Position
		wantVel components.Velocity
	}{
		{"left wall", components.Position{X: 8, Y: 50}, components.Velocity{X: -10, Y: 0}, components.Position{X: 5, Y: 50}, components.Velocity{X: 10, Y: 0}},
		{"right wall", components.Position{X: 92, Y: 50}, components.Velocity{X: 10, Y: 0}, components.Position{X: 95, Y: 50}, components.Velocity{X: -10, Y: 0}},
		{"floor", components.Position{X: 50, Y: 6}, components.Velocity{X: 0, Y: -5}, components.Position{X: 50, Y: 5}, components.Velocity{X: 0, Y: 5}},
		{"ceiling", components.Position{X: 50, Y: 94}, components.Velocity{X: 1, Y: 5}, components.Position{X: 51, Y: 95}, components.Velocity{X: 1, Y: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := components.Body{Pos: tt.pos, Size: components.Size{W: 10, H: 10}}
			vel := tt.vel
			Move(&body, &vel, components.Size{W: 100, H: 100}, 1)
			if body.Pos != tt.wantPos {
				t.Errorf("pos = %+v, want %+v", body.Pos, tt.wantPos)
			}
			if vel != tt.wantVel {
				t.Errorf("vel = %+v, want %+v", vel, tt.wantVel)
			}
		})
	}
}

func TestMoveStaysInBounds(t *testing.T) {
	rng := testRng()
	arenaSize := components.Size{W: 100, H: 60}
	body := components.Body{Pos: components.Position{X: 50, Y: 30}, Size: components.Size{W: 10, H: 10}}
	for i := 0; i < 1000; i++ {
		vel := components.Velocity{X: (rng.Float32() - 0.5) * 400, Y: (rng.Float32() - 0.5) * 400}
		Move(&body, &vel, arenaSize, 0.2)
		if !body.Within(arenaSize) {
			t.Fatalf("step %d: body %+v left arena", i, body.Pos)
		}
	}
}
