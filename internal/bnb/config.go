package bnb

import "fmt"

type Config struct {
	// MaxNodes caps the number of search nodes expanded across all
	// workers; 0 means unbounded. A capped run returns the best
	// schedule found with Complete=false.
	MaxNodes int64

	// Workers is the number of parallel search goroutines; values <= 1
	// run the search sequentially.
	Workers int

	// SeedGreedy seeds the incumbent with the greedy heuristic before
	// the search starts, so even heavily capped runs return a useful
	// schedule and the bound prunes from the first node.
	SeedGreedy bool
}

func DefaultConfig() Config {
	return Config{
		MaxNodes:   0,
		Workers:    1,
		SeedGreedy: true,
	}
}

func (c Config) Validate() error {
	if c.MaxNodes < 0 {
		return fmt.Errorf("MaxNodes must be >= 0 (got %d)", c.MaxNodes)
	}
	if c.Workers < 0 {
		return fmt.Errorf("Workers must be >= 0 (got %d)", c.Workers)
	}
	return nil
}
