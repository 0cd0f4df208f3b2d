package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pthm-cable/natsel/config"
	"github.com/pthm-cable/natsel/dna"
	"github.com/pthm-cable/natsel/game"
	"github.com/pthm-cable/natsel/pipeline"
	"github.com/pthm-cable/natsel/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTurns := flag.Int("max-turns", 0, "Stop after N turns (0 = unlimited)")
	step := flag.Float64("step", 0, "Simulated seconds per update (0 = simulation.max_step)")
	stopOnExtinction := flag.Bool("stop-on-extinction", false, "Stop once no creatures remain")

	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if err := run(cfg, *seed, *outputDir, *logStats, *maxTurns, float32(*step), *stopOnExtinction); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, seed int64, outputDir string, logStats bool, maxTurns int, step float32, stopOnExtinction bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracing(ctx, cfg.Telemetry.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	genomes := pipeline.NewGenomes(dna.Params{
		Length:       cfg.DNA.Length,
		MaxMutations: cfg.DNA.MaxMutations,
		Speed:        cfg.Energy.MoveSpeed,
	}, pipeline.Options{
		Capacity: cfg.Pipeline.Capacity,
		Workers:  cfg.Pipeline.Workers,
		Seed:     seed,
	})
	genomes.Start(ctx)
	defer func() {
		err := genomes.Stop()
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("pipeline_stopped", "error", err, "produced", genomes.Produced(), "received", genomes.Received(), "discarded", genomes.Discarded())
			return
		}
		slog.Info("pipeline_stopped", "produced", genomes.Produced(), "received", genomes.Received(), "discarded", genomes.Discarded())
	}()

	g, err := game.New(game.Options{
		Config:    cfg,
		Genomes:   genomes,
		Seed:      seed,
		OutputDir: outputDir,
		LogStats:  logStats,
	})
	if err != nil {
		return err
	}
	defer g.Close()

	if err := g.Begin(ctx); err != nil {
		return err
	}

	if step <= 0 {
		step = cfg.Derived.MaxStep32
	}

	for ctx.Err() == nil {
		if err := g.Update(ctx, step); err != nil {
			return err
		}
		if maxTurns > 0 && g.Turn() >= maxTurns {
			slog.Info("max turns reached", "turn", g.Turn(), "creatures", g.CreatureCount())
			return nil
		}
		if stopOnExtinction && g.CreatureCount() == 0 {
			return nil
		}
	}
	slog.Info("interrupted", "turn", g.Turn(), "creatures", g.CreatureCount())
	return nil
}
