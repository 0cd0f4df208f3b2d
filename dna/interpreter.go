package dna

import "errors"

const (
	// DefaultTapeSize is the number of cells on a fresh tape.
	DefaultTapeSize = 8196
	// DefaultFuel bounds the number of executed instructions per run.
	DefaultFuel = 100_000
)

// ErrNonTerminating is returned when a run exhausts its fuel before the
// program counter leaves the code.
var ErrNonTerminating = errors.New("dna: program did not terminate within fuel budget")

// Limits configures a single interpreter run.
type Limits struct {
	TapeSize int
	Fuel     int
}

// DefaultLimits returns the standard tape size and fuel.
func DefaultLimits() Limits {
	return Limits{TapeSize: DefaultTapeSize, Fuel: DefaultFuel}
}

// Result describes a finished run.
type Result struct {
	Output []Cell
	// Steps is the number of instructions executed, including the last one.
	Steps int
	// Halted is set when the run ended on an explicit Halt.
	Halted bool
}

// Machine executes programs against a reusable tape. A Machine is not safe
// for concurrent use; keep one per goroutine.
type Machine struct {
	limits Limits
	tape   *Tape
	out    []Cell
}

// NewMachine returns a machine with the given limits. Zero fields fall back
// to the defaults.
func NewMachine(limits Limits) *Machine {
	if limits.TapeSize <= 0 {
		limits.TapeSize = DefaultTapeSize
	}
	if limits.Fuel <= 0 {
		limits.Fuel = DefaultFuel
	}
	return &Machine{
		limits: limits,
		tape:   NewTape(limits.TapeSize),
		out:    make([]Cell, 0, 8),
	}
}

// Limits returns the effective limits of the machine.
func (m *Machine) Limits() Limits {
	return m.limits
}

// Tape exposes the tape as left by the most recent run.
func (m *Machine) Tape() *Tape {
	return m.tape
}

// Run executes code with the given input queue. Jump targets are computed
// once before execution starts.
func (m *Machine) Run(code []Instruction, input []Cell) (Result, error) {
	return m.exec(code, MatchBrackets(code), input)
}

// exec runs code using a precomputed jump table. The returned output slice
// is owned by the caller.
func (m *Machine) exec(code []Instruction, jumps []int, input []Cell) (Result, error) {
	m.tape.Reset()
	m.out = m.out[:0]

	var res Result
	fuel := m.limits.Fuel
	pc := 0
	for pc < len(code) {
		if fuel == 0 {
			res.Output = append([]Cell(nil), m.out...)
			return res, ErrNonTerminating
		}
		fuel--
		res.Steps++

		switch code[pc] {
		case DecPtr:
			m.tape.DecPtr()
		case IncPtr:
			m.tape.IncPtr()
		case DecVal:
			m.tape.DecVal()
		case IncVal:
			m.tape.IncVal()
		case Write:
			m.out = append(m.out, m.tape.Val())
		case Read:
			if len(input) > 0 {
				m.tape.Set(input[0])
				input = input[1:]
			} else {
				m.tape.Set(0)
			}
		case JumpLeft:
			if m.tape.Val() == 0 {
				if j := jumps[pc]; j >= 0 {
					pc = j + 1
				} else {
					pc = len(code)
				}
				continue
			}
		case JumpRight:
			if m.tape.Val() != 0 {
				if j := jumps[pc]; j >= 0 {
					pc = j + 1
				} else {
					pc = 0
				}
				continue
			}
		case Halt:
			res.Halted = true
			pc = len(code)
			continue
		}
		pc++
	}

	res.Output = append([]Cell(nil), m.out...)
	return res, nil
}

// Run is a convenience wrapper that executes code on a fresh machine.
func Run(code []Instruction, input []Cell, limits Limits) (Result, error) {
	return NewMachine(limits).Run(code, input)
}

// MatchBrackets pairs every JumpLeft with its nesting-aware JumpRight. The
// returned slice holds the partner index for bracket positions and -1 for
// everything else, including unmatched brackets.
func MatchBrackets(code []Instruction) []int {
	jumps := make([]int, len(code))
	stack := make([]int, 0, 16)
	for i, op := range code {
		jumps[i] = -1
		switch op {
		case JumpLeft:
			stack = append(stack, i)
		case JumpRight:
			if n := len(stack); n > 0 {
				open := stack[n-1]
				stack = stack[:n-1]
				jumps[open] = i
				jumps[i] = open
			}
		}
	}
	return jumps
}
