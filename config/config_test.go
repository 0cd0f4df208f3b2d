package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.CreatureCount != 10 || cfg.Simulation.FoodCount != 20 {
		t.Errorf("initial counts = %d/%d, want 10/20", cfg.Simulation.CreatureCount, cfg.Simulation.FoodCount)
	}
	if cfg.Simulation.DailyFoodCount != 50 {
		t.Errorf("daily food = %d, want 50", cfg.Simulation.DailyFoodCount)
	}
	if cfg.Simulation.TurnInterval != 10 {
		t.Errorf("turn interval = %v, want 10", cfg.Simulation.TurnInterval)
	}
	if cfg.DNA.Length != 2048 || cfg.DNA.TapeSize != 8196 || cfg.DNA.Fuel != 100000 {
		t.Errorf("dna = %+v", cfg.DNA)
	}
	if cfg.Derived.ArenaW32 != 800 || cfg.Derived.ArenaH32 != 300 {
		t.Errorf("derived arena = %vx%v", cfg.Derived.ArenaW32, cfg.Derived.ArenaH32)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("simulation:\n  daily_food_count: 7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.DailyFoodCount != 7 {
		t.Errorf("daily food = %d, want 7", cfg.Simulation.DailyFoodCount)
	}
	// Fields absent from the overlay keep their defaults.
	if cfg.Simulation.CreatureCount != 10 {
		t.Errorf("creature count = %d, want default 10", cfg.Simulation.CreatureCount)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("NATSEL_SIM_FOOD_COUNT", "33")
	t.Setenv("NATSEL_ENERGY_MOVE_SPEED", "2.5")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.FoodCount != 33 {
		t.Errorf("food count = %d, want 33", cfg.Simulation.FoodCount)
	}
	if cfg.Energy.MoveSpeed != 2.5 {
		t.Errorf("move speed = %v, want 2.5", cfg.Energy.MoveSpeed)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"zero arena", func(c *Config) { c.Arena.Width = 0 }, "arena.width"},
		{"negative food", func(c *Config) { c.Simulation.FoodCount = -1 }, "simulation.food_count"},
		{"no fuel", func(c *Config) { c.DNA.Fuel = 0 }, "dna.fuel"},
		{"zero turn", func(c *Config) { c.Simulation.TurnInterval = 0 }, "simulation.turn_interval"},
		{"no capacity", func(c *Config) { c.Pipeline.Capacity = 0 }, "pipeline.capacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted invalid config")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %s", err, tt.field)
			}
		})
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Simulation.DailyFoodCount = 42
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Simulation.DailyFoodCount != 42 {
		t.Errorf("daily food = %d, want 42", back.Simulation.DailyFoodCount)
	}
}
