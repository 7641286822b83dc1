package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grid-planner/planner"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "planner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: 127.0.0.1:9000
planner:
  workers: 1
  max_cells: 64
obstacles:
  dir: layers
  cost: 40
log:
  level: debug
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "snapshots", cfg.Server.SnapshotPath)
	assert.Equal(t, "layers", cfg.Obstacles.Dir)
	assert.Equal(t, 40.0, cfg.Obstacles.Cost)
	assert.Equal(t, planner.DefaultCost, cfg.Obstacles.DefaultCost)
	assert.IsType(t, planner.SerialExecutor{}, cfg.Executor())

	s := planner.New(cfg.SessionOptions()...)
	require.NoError(t, s.Declare(8, 8, 1))
	assert.ErrorIs(t, s.Declare(8, 8, 2), planner.ErrDimensions)

	var buf bytes.Buffer
	cfg.Logger(&buf).Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative workers", "planner:\n  workers: -1\n"},
		{"negative chunk", "planner:\n  min_parallel_cells: -4\n"},
		{"negative cell limit", "planner:\n  max_cells: -1\n"},
		{"negative cost", "obstacles:\n  default_cost: -1\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad yaml", "planner: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestConfig_ParallelExecutor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Planner.Workers = 4
	cfg.Planner.MinParallelCells = 64
	assert.Equal(t, planner.ParallelExecutor{Workers: 4, MinChunk: 64}, cfg.Executor())

	var buf bytes.Buffer
	cfg.Logger(&buf).Debug("hidden")
	assert.Empty(t, buf.String())
}
