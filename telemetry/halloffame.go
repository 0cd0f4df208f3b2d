package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// HallEntry records a successful creature at its death.
type HallEntry struct {
	ID         uint32  `json:"id"`
	Fitness    float64 `json:"fitness"`
	Generation int     `json:"generation"`
	Age        int     `json:"age"`
	Children   int     `json:"children"`
	Reason     string  `json:"reason"`
	Speed      float64 `json:"speed"`
	Genome     string  `json:"genome"`
}

// Fitness weights. A child is worth this many survived turns.
const childWeight = 3.0

// HallOfFame keeps the fittest dead creatures, sorted by descending fitness.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
}

// NewHallOfFame creates a hall holding at most maxSize entries. A zero size
// disables it.
func NewHallOfFame(maxSize int) *HallOfFame {
	return &HallOfFame{
		entries: make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

func fitness(children, age int) float64 {
	return float64(children)*childWeight + float64(age)
}

// Qualifies reports whether a creature with these results would enter the
// hall. Creatures that never reproduced and lived less than one turn never
// qualify.
func (hof *HallOfFame) Qualifies(children, age int) bool {
	if hof.maxSize <= 0 || (children == 0 && age == 0) {
		return false
	}
	if len(hof.entries) < hof.maxSize {
		return true
	}
	return fitness(children, age) > hof.entries[len(hof.entries)-1].Fitness
}

// Consider evaluates a dead creature for entry. Returns true if the
// creature was added.
func (hof *HallOfFame) Consider(e HallEntry) bool {
	if !hof.Qualifies(e.Children, e.Age) {
		return false
	}
	e.Fitness = fitness(e.Children, e.Age)

	// Find insertion point (sorted descending by fitness)
	idx := sort.Search(len(hof.entries), func(i int) bool {
		return hof.entries[i].Fitness < e.Fitness
	})
	if idx >= hof.maxSize {
		return false
	}

	hof.entries = append(hof.entries, HallEntry{})
	copy(hof.entries[idx+1:], hof.entries[idx:])
	hof.entries[idx] = e

	if len(hof.entries) > hof.maxSize {
		hof.entries = hof.entries[:hof.maxSize]
	}
	return true
}

// Entries returns the hall, fittest first. The slice must not be modified.
func (hof *HallOfFame) Entries() []HallEntry {
	return hof.entries
}

// Len returns the number of entries.
func (hof *HallOfFame) Len() int {
	return len(hof.entries)
}

// TopFitness returns the highest fitness, or 0 if the hall is empty.
func (hof *HallOfFame) TopFitness() float64 {
	if len(hof.entries) == 0 {
		return 0
	}
	return hof.entries[0].Fitness
}

// MarshalJSON serializes the entries.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(hof.entries, "", "  ")
}

// WriteFile writes the hall as JSON to path.
func (hof *HallOfFame) WriteFile(path string) error {
	data, err := hof.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling hall of fame: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadHallOfFame reads a hall written by WriteFile.
func LoadHallOfFame(path string, maxSize int) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}
	var entries []HallEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}
	hof := NewHallOfFame(max(maxSize, len(entries)))
	for _, e := range entries {
		hof.Consider(e)
	}
	return hof, nil
}
