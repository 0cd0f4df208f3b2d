package pipeline

import (
	"math/rand"

	"github.com/pthm-cable/natsel/dna"
)

// Genomes is the pipeline that keeps freshly generated genomes ready for
// the simulation.
type Genomes = Pipeline[*dna.Genome]

// NewGenomes returns a pipeline producing random genomes with params.
func NewGenomes(params dna.Params, opts Options) *Genomes {
	return New(func(rng *rand.Rand) (*dna.Genome, error) {
		return dna.Generate(rng, params)
	}, opts)
}
