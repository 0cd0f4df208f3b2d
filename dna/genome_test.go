package dna

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func testRng() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestGenerate(t *testing.T) {
	g, err := Generate(testRng(), DefaultParams())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if g.Len() != DefaultLength {
		t.Fatalf("Len() = %d, want %d", g.Len(), DefaultLength)
	}

	var counts [NumInstructions]int
	for i := 0; i < g.Len(); i++ {
		op := g.At(i)
		if !op.Valid() {
			t.Fatalf("invalid opcode %d at %d", op, i)
		}
		counts[op]++
	}
	// Uniform sampling over 2048 draws: every opcode should show up plenty.
	for op, n := range counts {
		if n < 150 {
			t.Errorf("opcode %v drawn %d times, expected roughly %d", Instruction(op), n, DefaultLength/NumInstructions)
		}
	}
}

func TestGenerateEmpty(t *testing.T) {
	if _, err := Generate(testRng(), Params{Length: 0}); !errors.Is(err, ErrEmptyGenome) {
		t.Errorf("err = %v, want ErrEmptyGenome", err)
	}
}

func TestDuplicate(t *testing.T) {
	rng := testRng()
	parent, err := Generate(rng, DefaultParams())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	before := parent.Clone()

	const trials = 1000
	differ := 0
	for i := 0; i < trials; i++ {
		child := parent.Duplicate(rng, DefaultMaxMutations)
		if child.Len() != parent.Len() {
			t.Fatalf("child length %d, parent %d", child.Len(), parent.Len())
		}
		if d := child.Distance(parent); d < 1 || d > DefaultMaxMutations {
			t.Fatalf("child differs at %d positions, want 1..%d", d, DefaultMaxMutations)
		}
		if !child.Equal(parent) {
			differ++
		}
	}
	if !parent.Equal(before) {
		t.Fatal("Duplicate modified the parent genome")
	}
	if differ < trials*99/100 {
		t.Errorf("only %d of %d children differ from parent", differ, trials)
	}
}

func TestMutateShortGenome(t *testing.T) {
	rng := testRng()
	for i := 0; i < 100; i++ {
		g, _ := New([]Instruction{Halt, Halt}, 1)
		n := g.Mutate(rng, 10)
		if n < 1 || n > 2 {
			t.Fatalf("Mutate on length 2 rewrote %d positions", n)
		}
		if g.At(0) == Halt && g.At(1) == Halt {
			t.Fatal("mutated genome still all halts")
		}
	}
}

func TestOtherInstruction(t *testing.T) {
	rng := testRng()
	seen := make(map[Instruction]bool)
	for i := 0; i < 2000; i++ {
		got := otherInstruction(rng, JumpLeft)
		if got == JumpLeft || !got.Valid() {
			t.Fatalf("otherInstruction(JumpLeft) = %v", got)
		}
		seen[got] = true
	}
	if len(seen) != NumInstructions-1 {
		t.Errorf("sampled %d distinct opcodes, want %d", len(seen), NumInstructions-1)
	}
}

func TestMutateZeroBudget(t *testing.T) {
	g, _ := Generate(testRng(), DefaultParams())
	before := g.Clone()
	if n := g.Mutate(testRng(), 0); n != 0 {
		t.Errorf("Mutate with max 0 rewrote %d positions", n)
	}
	if !g.Equal(before) {
		t.Error("genome changed with zero mutation budget")
	}
}

func TestTimeCost(t *testing.T) {
	g, _ := New([]Instruction{Halt}, 2)
	got := g.TimeCost(Costs{Base: 1, SpeedK: 100})
	want := 1 + math.Pow(2, 1.2)/100
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("TimeCost = %v, want %v", got, want)
	}
	if got := g.TimeCost(Costs{Base: 0.5}); got != 0.5 {
		t.Errorf("TimeCost without speed term = %v, want 0.5", got)
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		v, unit float64
		want    Cell
	}{
		{0, 10, 0},
		{25, 10, 2},
		{-25, 10, 0xFFFE},
		{9.9, 10, 0},
		{300, 10, 30},
	}
	for _, tt := range tests {
		if got := Quantize(tt.v, tt.unit); got != tt.want {
			t.Errorf("Quantize(%v, %v) = %d, want %d", tt.v, tt.unit, got, tt.want)
		}
	}
	if got := Dequantize(0xFFFE, 10); got != -20 {
		t.Errorf("Dequantize(0xFFFE, 10) = %v, want -20", got)
	}
}

func TestMoveBehavior(t *testing.T) {
	m := NewMachine(DefaultLimits())
	tests := []struct {
		name   string
		src    string
		dx, dy float64
	}{
		{"echo position", ",.,.", 30, 20},
		{"no output", "+", 0, 0},
		{"one output", "+.", 10, 0},
		{"negative", "-.-.", -10, -20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Parse(tt.src, 1)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			dx, dy, err := g.MoveBehavior(m, 35, 27, 10)
			if err != nil {
				t.Fatalf("MoveBehavior: %v", err)
			}
			if dx != tt.dx || dy != tt.dy {
				t.Errorf("MoveBehavior = (%v, %v), want (%v, %v)", dx, dy, tt.dx, tt.dy)
			}
		})
	}
}

func TestMoveBehaviorNonTerminating(t *testing.T) {
	g, _ := Parse("+[]", 1)
	m := NewMachine(Limits{TapeSize: 8, Fuel: 50})
	if _, _, err := g.MoveBehavior(m, 0, 0, 10); !errors.Is(err, ErrNonTerminating) {
		t.Errorf("err = %v, want ErrNonTerminating", err)
	}
}
