// Package dna implements the genetic bytecode that drives creature movement:
// the instruction set, the circular tape, the fuel-bounded interpreter and
// the genome with its mutation operators.
package dna

import "math/rand"

// Instruction is a single genome opcode. It is stored as one byte.
type Instruction uint8

const (
	DecPtr    Instruction = iota // <
	IncPtr                       // >
	DecVal                       // -
	IncVal                       // +
	Write                        // .
	Read                         // ,
	JumpLeft                     // [
	JumpRight                    // ]
	Halt                         // @

	// NumInstructions is the size of the instruction set.
	NumInstructions = 9
)

var symbols = [NumInstructions]byte{'<', '>', '-', '+', '.', ',', '[', ']', '@'}

var names = [NumInstructions]string{
	"DecPtr", "IncPtr", "DecVal", "IncVal", "Write", "Read", "JumpLeft", "JumpRight", "Halt",
}

// Valid reports whether i is one of the nine opcodes.
func (i Instruction) Valid() bool {
	return i < NumInstructions
}

// Symbol returns the single-character text form of the instruction.
func (i Instruction) Symbol() byte {
	if !i.Valid() {
		return '?'
	}
	return symbols[i]
}

func (i Instruction) String() string {
	if !i.Valid() {
		return "Invalid"
	}
	return names[i]
}

// FromSymbol maps a text character back to its instruction.
func FromSymbol(c byte) (Instruction, bool) {
	for i, s := range symbols {
		if s == c {
			return Instruction(i), true
		}
	}
	return 0, false
}

// RandomInstruction samples an opcode uniformly from the instruction set.
func RandomInstruction(rng *rand.Rand) Instruction {
	return Instruction(rng.Intn(NumInstructions))
}
