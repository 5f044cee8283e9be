package tabu

import "fmt"

type Config struct {
	Iterations          int
	IterationsPerConfig int

	TabuTenure       int
	TabuTenureRand   int
	NeighborsPerIter int
}

func DefaultConfig() Config {
	return Config{
		Iterations:          0,
		IterationsPerConfig: 400,

		TabuTenure:       7,
		TabuTenureRand:   3,
		NeighborsPerIter: 60,
	}
}

func (c Config) Validate() error {
	if c.Iterations <= 0 && c.IterationsPerConfig <= 0 {
		return fmt.Errorf(
			"должно быть задано Iterations > 0 или IterationsPerConfig > 0",
		)
	}
	if c.TabuTenure < 1 {
		return fmt.Errorf(
			"длина табу должна быть >= 1 (получено %d)",
			c.TabuTenure,
		)
	}
	if c.TabuTenureRand < 0 {
		return fmt.Errorf(
			"случайная добавка к сроку табу должна быть >= 0 (получено %d)",
			c.TabuTenureRand,
		)
	}
	if c.NeighborsPerIter < 1 {
		return fmt.Errorf(
			"количество соседей на итерацию должно быть >= 1 (получено %d)",
			c.NeighborsPerIter,
		)
	}
	return nil
}
