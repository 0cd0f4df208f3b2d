package dna

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrSyntax wraps every failure to read the text form.
var ErrSyntax = errors.New("dna: syntax error")

// program is the grammar of the text form: a run of opcode symbols, with
// whitespace and #-comments ignored.
type program struct {
	Ops []string `parser:"@Op*"`
}

var codeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Op", Pattern: `[<>+\-.,\[\]@]`},
})

var codeParser = participle.MustBuild[program](
	participle.Lexer(codeLexer),
	participle.Elide("Whitespace", "Comment"),
)

// ParseCode converts the text form into instructions.
func ParseCode(src string) ([]Instruction, error) {
	p, err := codeParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	code := make([]Instruction, 0, len(p.Ops))
	for _, op := range p.Ops {
		inst, ok := FromSymbol(op[0])
		if !ok {
			return nil, fmt.Errorf("%w: unknown opcode %q", ErrSyntax, op)
		}
		code = append(code, inst)
	}
	return code, nil
}

// Parse builds a genome from its text form.
func Parse(src string, speed float64) (*Genome, error) {
	code, err := ParseCode(src)
	if err != nil {
		return nil, err
	}
	return New(code, speed)
}

// Format renders instructions in their text form.
func Format(code []Instruction) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, op := range code {
		b.WriteByte(op.Symbol())
	}
	return b.String()
}

func (g *Genome) String() string {
	return Format(g.code)
}
