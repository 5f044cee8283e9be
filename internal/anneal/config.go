package anneal

import "fmt"

// Тип окрестности
type Neighborhood string

const (
	// NeighborhoodToggle включает/выключает случайную конфигурацию.
	NeighborhoodToggle Neighborhood = "toggle"
	// NeighborhoodRetime меняет cutoff уже запланированной конфигурации.
	NeighborhoodRetime Neighborhood = "retime"
	// NeighborhoodMove переносит срез на другой юнит.
	NeighborhoodMove Neighborhood = "move"
	// NeighborhoodMixed выбирает один из трёх типов случайно.
	NeighborhoodMixed Neighborhood = "mixed"
)

type Config struct {
	Iterations          int
	IterationsPerConfig int

	InitialTemp float64
	FinalTemp   float64
	Alpha       float64

	Neighborhood Neighborhood
}

func DefaultConfig() Config {
	return Config{
		Iterations:          0,
		IterationsPerConfig: 4000,

		InitialTemp: 2000.0,
		FinalTemp:   0.5,
		Alpha:       0.995,

		Neighborhood: NeighborhoodMixed,
	}
}

func (c Config) Validate() error {
	if c.Iterations <= 0 && c.IterationsPerConfig <= 0 {
		return fmt.Errorf(
			"должно быть задано Iterations > 0 или IterationsPerConfig > 0",
		)
	}
	if c.InitialTemp <= 0 {
		return fmt.Errorf(
			"InitialTemp должно быть > 0 (получено %f)",
			c.InitialTemp,
		)
	}
	if c.FinalTemp <= 0 {
		return fmt.Errorf(
			"FinalTemp должно быть > 0 (получено %f)",
			c.FinalTemp,
		)
	}
	if c.FinalTemp >= c.InitialTemp {
		return fmt.Errorf(
			"FinalTemp должно быть < InitialTemp (получено %f >= %f)",
			c.FinalTemp,
			c.InitialTemp,
		)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf(
			"alpha должно лежать в интервале (0,1) (получено %f)",
			c.Alpha,
		)
	}
	switch c.Neighborhood {
	case NeighborhoodToggle, NeighborhoodRetime, NeighborhoodMove, NeighborhoodMixed:
		// ok
	default:
		return fmt.Errorf(
			"неизвестный тип окрестности %q",
			c.Neighborhood,
		)
	}
	return nil
}
