// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// EnvPrefix prefixes every environment override, e.g. NATSEL_SIM_FOOD_COUNT.
const EnvPrefix = "NATSEL_"

// Config holds all simulation configuration parameters.
type Config struct {
	Arena      ArenaConfig      `yaml:"arena" envPrefix:"ARENA_"`
	Simulation SimulationConfig `yaml:"simulation" envPrefix:"SIM_"`
	Creature   CreatureConfig   `yaml:"creature" envPrefix:"CREATURE_"`
	Food       FoodConfig       `yaml:"food" envPrefix:"FOOD_"`
	DNA        DNAConfig        `yaml:"dna" envPrefix:"DNA_"`
	Energy     EnergyConfig     `yaml:"energy" envPrefix:"ENERGY_"`
	Pipeline   PipelineConfig   `yaml:"pipeline" envPrefix:"PIPELINE_"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envPrefix:"TELEMETRY_"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ArenaConfig sets the rectangle creatures live in.
type ArenaConfig struct {
	Width  float64 `yaml:"width" env:"WIDTH"`
	Height float64 `yaml:"height" env:"HEIGHT"`
}

// SimulationConfig holds population and scheduling parameters.
type SimulationConfig struct {
	CreatureCount      int     `yaml:"creature_count" env:"CREATURE_COUNT"`             // initial creatures
	FoodCount          int     `yaml:"food_count" env:"FOOD_COUNT"`                     // initial food
	DailyFoodCount     int     `yaml:"daily_food_count" env:"DAILY_FOOD_COUNT"`         // food added each turn
	DailyCreatureCount int     `yaml:"daily_creature_count" env:"DAILY_CREATURE_COUNT"` // fresh creatures added each turn
	TurnInterval       float64 `yaml:"turn_interval" env:"TURN_INTERVAL"`               // seconds per turn
	MaxStep            float64 `yaml:"max_step" env:"MAX_STEP"`                         // frame delta cap in seconds
	DecisionWorkers    int     `yaml:"decision_workers" env:"DECISION_WORKERS"`         // 0 = GOMAXPROCS
}

// CreatureConfig holds creature size and lifecycle rules.
type CreatureConfig struct {
	Width         float64 `yaml:"width" env:"WIDTH"`
	Height        float64 `yaml:"height" env:"HEIGHT"`
	FoodLife      float64 `yaml:"food_life" env:"FOOD_LIFE"`
	ReproduceCost float64 `yaml:"reproduce_cost" env:"REPRODUCE_COST"`
	MoveInterval  float64 `yaml:"move_interval" env:"MOVE_INTERVAL"`
	IdleGrace     int     `yaml:"idle_grace" env:"IDLE_GRACE"`
}

// FoodConfig holds food size.
type FoodConfig struct {
	Width  float64 `yaml:"width" env:"WIDTH"`
	Height float64 `yaml:"height" env:"HEIGHT"`
}

// DNAConfig holds genome and interpreter parameters.
type DNAConfig struct {
	Length       int     `yaml:"length" env:"LENGTH"`
	MaxMutations int     `yaml:"max_mutations" env:"MAX_MUTATIONS"`
	TapeSize     int     `yaml:"tape_size" env:"TAPE_SIZE"`
	Fuel         int     `yaml:"fuel" env:"FUEL"`
	Unit         float64 `yaml:"unit" env:"UNIT"` // coordinate quantisation step
}

// EnergyConfig holds metabolic cost parameters.
type EnergyConfig struct {
	BaseCost      float64 `yaml:"base_cost" env:"BASE_COST"`
	MoveSpeed     float64 `yaml:"move_speed" env:"MOVE_SPEED"`
	SpeedCostK    float64 `yaml:"speed_cost_k" env:"SPEED_COST_K"`
	DistanceCostK float64 `yaml:"distance_cost_k" env:"DISTANCE_COST_K"`
}

// PipelineConfig holds genome pipeline parameters.
type PipelineConfig struct {
	Capacity int `yaml:"capacity" env:"CAPACITY"`
	Workers  int `yaml:"workers" env:"WORKERS"` // 0 = GOMAXPROCS
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	WindowTurns         int    `yaml:"window_turns" env:"WINDOW_TURNS"`
	PerfCollectorWindow int    `yaml:"perf_collector_window" env:"PERF_WINDOW"`
	HistogramBins       int    `yaml:"histogram_bins" env:"HISTOGRAM_BINS"`
	HallOfFameSize      int    `yaml:"hall_of_fame_size" env:"HALL_OF_FAME_SIZE"` // 0 disables
	ServiceName         string `yaml:"service_name" env:"SERVICE_NAME"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ArenaW32    float32 // Arena.Width as float32
	ArenaH32    float32 // Arena.Height as float32
	MaxStep32   float32 // Simulation.MaxStep as float32
	TurnSecs32  float32 // Simulation.TurnInterval as float32
	CreatureW32 float32
	CreatureH32 float32
	FoodW32     float32
	FoodH32     float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults. Panics if they fail to parse.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults,
// then applies NATSEL_* environment overrides and validates the result.
// If path is empty, only embedded defaults and the environment are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.computeDerived()
	return cfg, nil
}

// Validate rejects configurations the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}
	nonNegative := func(name string, v int) {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", name, v))
		}
	}

	positive("arena.width", c.Arena.Width)
	positive("arena.height", c.Arena.Height)
	positive("creature.width", c.Creature.Width)
	positive("creature.height", c.Creature.Height)
	positive("creature.move_interval", c.Creature.MoveInterval)
	positive("food.width", c.Food.Width)
	positive("food.height", c.Food.Height)
	positive("simulation.turn_interval", c.Simulation.TurnInterval)
	positive("simulation.max_step", c.Simulation.MaxStep)
	positive("dna.length", float64(c.DNA.Length))
	positive("dna.tape_size", float64(c.DNA.TapeSize))
	positive("dna.fuel", float64(c.DNA.Fuel))
	positive("dna.unit", c.DNA.Unit)
	positive("pipeline.capacity", float64(c.Pipeline.Capacity))

	nonNegative("simulation.creature_count", c.Simulation.CreatureCount)
	nonNegative("simulation.food_count", c.Simulation.FoodCount)
	nonNegative("simulation.daily_food_count", c.Simulation.DailyFoodCount)
	nonNegative("simulation.daily_creature_count", c.Simulation.DailyCreatureCount)
	nonNegative("dna.max_mutations", c.DNA.MaxMutations)
	nonNegative("creature.idle_grace", c.Creature.IdleGrace)
	nonNegative("telemetry.hall_of_fame_size", c.Telemetry.HallOfFameSize)

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ArenaW32 = float32(c.Arena.Width)
	c.Derived.ArenaH32 = float32(c.Arena.Height)
	c.Derived.MaxStep32 = float32(c.Simulation.MaxStep)
	c.Derived.TurnSecs32 = float32(c.Simulation.TurnInterval)
	c.Derived.CreatureW32 = float32(c.Creature.Width)
	c.Derived.CreatureH32 = float32(c.Creature.Height)
	c.Derived.FoodW32 = float32(c.Food.Width)
	c.Derived.FoodH32 = float32(c.Food.Height)
}

// Recompute refreshes derived values after fields were changed in code.
func (c *Config) Recompute() {
	c.computeDerived()
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
