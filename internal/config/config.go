// Package config models the YAML run configuration of the schedule CLI:
// problem parameters plus per-strategy tuning knobs. Flags override the
// file; the file overrides defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"portSched/internal/anneal"
	"portSched/internal/bnb"
	"portSched/internal/tabu"
)

type Config struct {
	Units  int     `yaml:"units"`
	Budget float64 `yaml:"budget"`

	// Solver selects the search strategy: bnb | greedy | anneal | tabu.
	Solver string `yaml:"solver"`
	Seed   int64  `yaml:"seed"`

	BnB    BnBConfig    `yaml:"bnb"`
	Anneal AnnealConfig `yaml:"anneal"`
	Tabu   TabuConfig   `yaml:"tabu"`
}

type BnBConfig struct {
	MaxNodes   int64 `yaml:"max_nodes"`
	Workers    int   `yaml:"workers"`
	SeedGreedy bool  `yaml:"seed_greedy"`
}

type AnnealConfig struct {
	Iterations          int     `yaml:"iterations"`
	IterationsPerConfig int     `yaml:"iterations_per_config"`
	InitialTemp         float64 `yaml:"initial_temp"`
	FinalTemp           float64 `yaml:"final_temp"`
	Alpha               float64 `yaml:"alpha"`
	Neighborhood        string  `yaml:"neighborhood"`
}

type TabuConfig struct {
	Iterations          int `yaml:"iterations"`
	IterationsPerConfig int `yaml:"iterations_per_config"`
	TabuTenure          int `yaml:"tenure"`
	TabuTenureRand      int `yaml:"tenure_rand"`
	NeighborsPerIter    int `yaml:"neighbors"`
}

func Default() Config {
	b := bnb.DefaultConfig()
	a := anneal.DefaultConfig()
	t := tabu.DefaultConfig()
	return Config{
		Units:  1,
		Budget: 0, // must come from the file or a flag
		Solver: "bnb",
		Seed:   1,
		BnB: BnBConfig{
			MaxNodes:   b.MaxNodes,
			Workers:    b.Workers,
			SeedGreedy: b.SeedGreedy,
		},
		Anneal: AnnealConfig{
			Iterations:          a.Iterations,
			IterationsPerConfig: a.IterationsPerConfig,
			InitialTemp:         a.InitialTemp,
			FinalTemp:           a.FinalTemp,
			Alpha:               a.Alpha,
			Neighborhood:        string(a.Neighborhood),
		},
		Tabu: TabuConfig{
			Iterations:          t.Iterations,
			IterationsPerConfig: t.IterationsPerConfig,
			TabuTenure:          t.TabuTenure,
			TabuTenureRand:      t.TabuTenureRand,
			NeighborsPerIter:    t.NeighborsPerIter,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Solver {
	case "bnb", "greedy", "anneal", "tabu":
	default:
		return fmt.Errorf("unknown solver %q (want bnb, greedy, anneal or tabu)", c.Solver)
	}
	return nil
}

// BnBNative converts the YAML block to the solver's own config type.
func (c Config) BnBNative() bnb.Config {
	return bnb.Config{
		MaxNodes:   c.BnB.MaxNodes,
		Workers:    c.BnB.Workers,
		SeedGreedy: c.BnB.SeedGreedy,
	}
}

func (c Config) AnnealNative() anneal.Config {
	return anneal.Config{
		Iterations:          c.Anneal.Iterations,
		IterationsPerConfig: c.Anneal.IterationsPerConfig,
		InitialTemp:         c.Anneal.InitialTemp,
		FinalTemp:           c.Anneal.FinalTemp,
		Alpha:               c.Anneal.Alpha,
		Neighborhood:        anneal.Neighborhood(c.Anneal.Neighborhood),
	}
}

func (c Config) TabuNative() tabu.Config {
	return tabu.Config{
		Iterations:          c.Tabu.Iterations,
		IterationsPerConfig: c.Tabu.IterationsPerConfig,
		TabuTenure:          c.Tabu.TabuTenure,
		TabuTenureRand:      c.Tabu.TabuTenureRand,
		NeighborsPerIter:    c.Tabu.NeighborsPerIter,
	}
}
