package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"portSched/internal/anneal"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, 1, cfg.Units)
	require.Equal(t, "bnb", cfg.Solver)
	require.NoError(t, cfg.Validate())

	// Defaults mirror the solvers' own defaults.
	require.Equal(t, 1, cfg.BnB.Workers)
	require.True(t, cfg.BnB.SeedGreedy)
	require.Equal(t, 4000, cfg.Anneal.IterationsPerConfig)
	require.Equal(t, "mixed", cfg.Anneal.Neighborhood)
	require.Equal(t, 7, cfg.Tabu.TabuTenure)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverlaysFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	raw := []byte(`
units: 4
budget: 300
solver: anneal
seed: 9
anneal:
  initial_temp: 500
  neighborhood: toggle
`)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 4, cfg.Units)
	require.Equal(t, 300.0, cfg.Budget)
	require.Equal(t, "anneal", cfg.Solver)
	require.Equal(t, int64(9), cfg.Seed)

	// Overridden anneal fields change, untouched ones keep defaults.
	require.Equal(t, 500.0, cfg.Anneal.InitialTemp)
	require.Equal(t, "toggle", cfg.Anneal.Neighborhood)
	require.Equal(t, 0.995, cfg.Anneal.Alpha)
	require.Equal(t, 4000, cfg.Anneal.IterationsPerConfig)

	native := cfg.AnnealNative()
	require.Equal(t, anneal.NeighborhoodToggle, native.Neighborhood)
	require.NoError(t, native.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsUnknownSolver(t *testing.T) {
	cfg := Default()
	cfg.Solver = "quantum"
	require.Error(t, cfg.Validate())
}

func TestNativeConversions(t *testing.T) {
	cfg := Default()
	cfg.BnB.MaxNodes = 5000
	cfg.BnB.Workers = 4
	cfg.Tabu.NeighborsPerIter = 80

	b := cfg.BnBNative()
	require.Equal(t, int64(5000), b.MaxNodes)
	require.Equal(t, 4, b.Workers)
	require.NoError(t, b.Validate())

	ts := cfg.TabuNative()
	require.Equal(t, 80, ts.NeighborsPerIter)
	require.NoError(t, ts.Validate())
}
