package dna

import (
	"errors"
	"math"
	"math/rand"
	"slices"
)

const (
	// DefaultLength is the number of instructions in a generated genome.
	DefaultLength = 2048
	// DefaultMaxMutations bounds how many positions one mutation pass rewrites.
	DefaultMaxMutations = 5
)

// ErrEmptyGenome is returned when a genome would contain no instructions.
var ErrEmptyGenome = errors.New("dna: genome has no instructions")

// Params controls random genome generation.
type Params struct {
	Length       int
	MaxMutations int
	// Speed is the inherited movement-speed trait copied onto every
	// generated genome.
	Speed float64
}

// DefaultParams returns the standard generation parameters.
func DefaultParams() Params {
	return Params{Length: DefaultLength, MaxMutations: DefaultMaxMutations, Speed: 1}
}

// Costs parameterises the per-turn metabolic cost of carrying a genome.
type Costs struct {
	Base   float64
	SpeedK float64
}

// Genome is an immutable instruction sequence plus the traits inherited with
// it. Once a genome is handed to a creature it must not be modified; use
// Duplicate to derive offspring.
type Genome struct {
	code  []Instruction
	jumps []int
	speed float64
}

// New builds a genome from a copy of code.
func New(code []Instruction, speed float64) (*Genome, error) {
	if len(code) == 0 {
		return nil, ErrEmptyGenome
	}
	g := &Genome{
		code:  append([]Instruction(nil), code...),
		speed: speed,
	}
	g.jumps = MatchBrackets(g.code)
	return g, nil
}

// Generate samples a genome of p.Length uniformly random opcodes.
func Generate(rng *rand.Rand, p Params) (*Genome, error) {
	if p.Length <= 0 {
		return nil, ErrEmptyGenome
	}
	code := make([]Instruction, p.Length)
	for i := range code {
		code[i] = RandomInstruction(rng)
	}
	g := &Genome{code: code, speed: p.Speed}
	g.jumps = MatchBrackets(code)
	return g, nil
}

// Len returns the number of instructions.
func (g *Genome) Len() int {
	return len(g.code)
}

// At returns the instruction at position i.
func (g *Genome) At(i int) Instruction {
	return g.code[i]
}

// Code returns a copy of the instruction sequence.
func (g *Genome) Code() []Instruction {
	return append([]Instruction(nil), g.code...)
}

// Speed returns the movement-speed trait.
func (g *Genome) Speed() float64 {
	return g.speed
}

// Equal reports whether two genomes carry identical code and traits.
func (g *Genome) Equal(o *Genome) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.speed != o.speed || len(g.code) != len(o.code) {
		return false
	}
	for i := range g.code {
		if g.code[i] != o.code[i] {
			return false
		}
	}
	return true
}

// Distance counts positions at which two equal-length genomes differ. It
// returns -1 when the lengths differ.
func (g *Genome) Distance(o *Genome) int {
	if len(g.code) != len(o.code) {
		return -1
	}
	d := 0
	for i := range g.code {
		if g.code[i] != o.code[i] {
			d++
		}
	}
	return d
}

// Clone returns an independent copy that may be mutated before it is shared.
func (g *Genome) Clone() *Genome {
	return &Genome{
		code:  append([]Instruction(nil), g.code...),
		jumps: append([]int(nil), g.jumps...),
		speed: g.speed,
	}
}

// Mutate rewrites between 1 and maxMutations distinct positions, each with an
// opcode different from the one it replaces, and returns how many positions
// changed. Only call it on a genome nobody else holds yet.
func (g *Genome) Mutate(rng *rand.Rand, maxMutations int) int {
	if maxMutations <= 0 || len(g.code) == 0 {
		return 0
	}
	n := min(1+rng.Intn(maxMutations), len(g.code))
	picked := make([]int, 0, n)
	for len(picked) < n {
		pos := rng.Intn(len(g.code))
		if slices.Contains(picked, pos) {
			continue
		}
		picked = append(picked, pos)
		g.code[pos] = otherInstruction(rng, g.code[pos])
	}
	g.jumps = MatchBrackets(g.code)
	return n
}

// otherInstruction samples uniformly among the opcodes other than cur.
func otherInstruction(rng *rand.Rand, cur Instruction) Instruction {
	next := Instruction(rng.Intn(NumInstructions - 1))
	if next >= cur {
		next++
	}
	return next
}

// Duplicate returns a mutated copy of g. The receiver is left untouched.
func (g *Genome) Duplicate(rng *rand.Rand, maxMutations int) *Genome {
	child := g.Clone()
	child.Mutate(rng, maxMutations)
	return child
}

// TimeCost is the life a carrier of g loses every turn.
func (g *Genome) TimeCost(c Costs) float64 {
	if c.SpeedK <= 0 {
		return c.Base
	}
	return c.Base + math.Pow(math.Abs(g.speed), 1.2)/c.SpeedK
}

// Exec runs the genome on m with the given input.
func (g *Genome) Exec(m *Machine, input []Cell) (Result, error) {
	return m.exec(g.code, g.jumps, input)
}

// Quantize maps a coordinate to a tape cell: the coordinate is divided by
// unit, truncated toward zero and stored in two's complement.
func Quantize(v, unit float64) Cell {
	if unit == 0 {
		return 0
	}
	return Cell(int16(int(v / unit)))
}

// Dequantize interprets a cell as a signed 16-bit step count times unit.
func Dequantize(c Cell, unit float64) float64 {
	return float64(int16(c)) * unit
}

// MoveBehavior feeds the quantised position (x, y) to the genome and decodes
// the first two outputs as a movement offset. Missing outputs read as zero.
func (g *Genome) MoveBehavior(m *Machine, x, y, unit float64) (dx, dy float64, err error) {
	res, err := g.Exec(m, []Cell{Quantize(x, unit), Quantize(y, unit)})
	if err != nil {
		return 0, 0, err
	}
	if len(res.Output) > 0 {
		dx = Dequantize(res.Output[0], unit)
	}
	if len(res.Output) > 1 {
		dy = Dequantize(res.Output[1], unit)
	}
	return dx, dy, nil
}
