// Package main provides CMA-ES optimization for natsel simulation parameters.
package main

import (
	"github.com/pthm-cable/natsel/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Food supply
			{Name: "daily_food_count", Path: "simulation.daily_food_count", Min: 5, Max: 200, Default: 50},
			{Name: "food_life", Path: "creature.food_life", Min: 0.5, Max: 6, Default: 2},
			// Reproduction
			{Name: "reproduce_cost", Path: "creature.reproduce_cost", Min: 0.2, Max: 4, Default: 1},
			// Energy
			{Name: "base_cost", Path: "energy.base_cost", Min: 0.1, Max: 2, Default: 0.5},
			{Name: "move_speed", Path: "energy.move_speed", Min: 0.25, Max: 8, Default: 1},
			{Name: "distance_cost_k", Path: "energy.distance_cost_k", Min: 200, Max: 10000, Default: 2000},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg and refreshes its
// derived fields. Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)

	cfg.Simulation.DailyFoodCount = int(c[0])
	cfg.Creature.FoodLife = c[1]
	cfg.Creature.ReproduceCost = c[2]
	cfg.Energy.BaseCost = c[3]
	cfg.Energy.MoveSpeed = c[4]
	cfg.Energy.DistanceCostK = c[5]

	cfg.Recompute()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		float64(cfg.Simulation.DailyFoodCount),
		cfg.Creature.FoodLife,
		cfg.Creature.ReproduceCost,
		cfg.Energy.BaseCost,
		cfg.Energy.MoveSpeed,
		cfg.Energy.DistanceCostK,
	}
}
