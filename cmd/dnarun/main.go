// Command dnarun assembles a genome from its text form and runs it on the
// interpreter, printing the output cells and step count.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/pthm-cable/natsel/dna"
)

func main() {
	code := flag.String("code", "", "Genome text (e.g. \"+++[.-]\")")
	file := flag.String("file", "", "Read genome text from file")
	random := flag.Int("random", 0, "Generate a random genome of N instructions instead")
	seed := flag.Int64("seed", 1, "RNG seed for -random")
	input := flag.String("input", "", "Comma-separated input cells")
	fuel := flag.Int("fuel", dna.DefaultFuel, "Instruction budget")
	tape := flag.Int("tape", dna.DefaultTapeSize, "Tape size in cells")
	unit := flag.Float64("unit", 0, "Print output dequantized with this unit (0 = raw cells)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	genome, err := loadGenome(*code, *file, *random, *seed)
	if err != nil {
		slog.Error("failed to load genome", "error", err)
		os.Exit(1)
	}

	cells, err := parseInput(*input)
	if err != nil {
		slog.Error("bad input", "error", err)
		os.Exit(1)
	}

	m := dna.NewMachine(dna.Limits{TapeSize: *tape, Fuel: *fuel})
	res, err := genome.Exec(m, cells)
	if errors.Is(err, dna.ErrNonTerminating) {
		fmt.Printf("non-terminating after %d steps\n", res.Steps)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}

	if *random > 0 {
		fmt.Println(genome.String())
	}
	fmt.Printf("steps:  %d (halted=%v)\n", res.Steps, res.Halted)
	fmt.Printf("output: %s\n", formatOutput(res.Output, *unit))
}

func loadGenome(code, file string, random int, seed int64) (*dna.Genome, error) {
	switch {
	case random > 0:
		rng := rand.New(rand.NewSource(seed))
		return dna.Generate(rng, dna.Params{Length: random, Speed: 1})
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		return dna.Parse(string(data), 1)
	case code != "":
		return dna.Parse(code, 1)
	}
	return nil, errors.New("one of -code, -file or -random is required")
}

func parseInput(s string) ([]dna.Cell, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	cells := make([]dna.Cell, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", f, err)
		}
		cells = append(cells, dna.Cell(int16(v)))
	}
	return cells, nil
}

func formatOutput(out []dna.Cell, unit float64) string {
	parts := make([]string, len(out))
	for i, c := range out {
		if unit > 0 {
			parts[i] = strconv.FormatFloat(dna.Dequantize(c, unit), 'g', -1, 64)
		} else {
			parts[i] = strconv.Itoa(int(int16(c)))
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}
