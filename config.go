package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"grid-planner/planner"
)

// Config is the on-disk configuration of the planner host.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Planner   PlannerConfig   `yaml:"planner"`
	Obstacles ObstaclesConfig `yaml:"obstacles"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// SnapshotPath is the directory session snapshots are saved to and
	// loaded from at startup. Empty disables persistence.
	SnapshotPath string `yaml:"snapshot_path"`
}

type PlannerConfig struct {
	// Workers bounds the goroutines of one sweep; 0 means GOMAXPROCS, 1 runs serially.
	Workers int `yaml:"workers"`
	// MinParallelCells is the smallest chunk of cells handed to one goroutine.
	MinParallelCells int `yaml:"min_parallel_cells"`
	// MaxCells caps rows×columns×maps of one session; 0 means planner.DefaultMaxCells.
	MaxCells int `yaml:"max_cells"`
}

type ObstaclesConfig struct {
	// Dir holds *.geojson obstacle layers applied to every declared grid.
	Dir string `yaml:"dir"`
	// DefaultCost is the transition cost of cells no obstacle covers.
	DefaultCost float64 `yaml:"default_cost"`
	// Cost is used for obstacle features without a "cost" property.
	Cost float64 `yaml:"cost"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Server:    ServerConfig{Addr: ":8080", SnapshotPath: "snapshots"},
		Obstacles: ObstaclesConfig{DefaultCost: planner.DefaultCost, Cost: 100},
		Log:       LogConfig{Level: "info"},
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Planner.Workers < 0 {
		return fmt.Errorf("planner.workers must be >= 0, got %d", c.Planner.Workers)
	}
	if c.Planner.MinParallelCells < 0 {
		return fmt.Errorf("planner.min_parallel_cells must be >= 0, got %d", c.Planner.MinParallelCells)
	}
	if c.Planner.MaxCells < 0 {
		return fmt.Errorf("planner.max_cells must be >= 0, got %d", c.Planner.MaxCells)
	}
	if c.Obstacles.DefaultCost < 0 || c.Obstacles.Cost < 0 {
		return fmt.Errorf("obstacle costs must be >= 0")
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c Config) level() (slog.Level, error) {
	var lvl slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return lvl, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// Executor builds the sweep executor described by the planner section.
func (c Config) Executor() planner.Executor {
	if c.Planner.Workers == 1 {
		return planner.SerialExecutor{}
	}
	return planner.ParallelExecutor{Workers: c.Planner.Workers, MinChunk: c.Planner.MinParallelCells}
}

// SessionOptions returns the planner options shared by every session.
func (c Config) SessionOptions() []planner.Option {
	return []planner.Option{
		planner.WithExecutor(c.Executor()),
		planner.WithMaxCells(c.Planner.MaxCells),
	}
}

// Logger returns the structured logger handed to planning sessions.
func (c Config) Logger(w io.Writer) *slog.Logger {
	lvl, _ := c.level()
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
