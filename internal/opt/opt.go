package opt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portSched/internal/portfolio"
	"portSched/internal/sched"
)

// ErrInvalidParameters reports search parameters rejected before any
// search begins.
var ErrInvalidParameters = errors.New("invalid search parameters")

// Problem is one scheduling run: a read-only catalog plus the two
// scalars of the outer contract.
type Problem struct {
	Catalog *portfolio.Catalog
	Units   int
	Budget  float64
}

func (p *Problem) Validate() error {
	if p == nil || p.Catalog == nil {
		return fmt.Errorf("%w: nil catalog", ErrInvalidParameters)
	}
	if p.Units < 1 {
		return fmt.Errorf("%w: units must be >= 1 (got %d)", ErrInvalidParameters, p.Units)
	}
	if p.Budget <= 0 {
		return fmt.Errorf("%w: budget must be > 0 (got %v)", ErrInvalidParameters, p.Budget)
	}
	return nil
}

// Optimizer is the shared contract of all schedule-search strategies.
type Optimizer interface {
	Solve(ctx context.Context, prob *Problem) (Result, error)
}

// Result is the outcome of one search. Complete distinguishes a proven
// optimum from a best-effort schedule returned after a deadline or
// iteration cap; the schedule is budget-valid either way.
type Result struct {
	Schedule sched.Schedule
	Solved   int
	QuadCost float64
	Complete bool

	Nodes       int64
	Evaluations int
	Duration    time.Duration
	Meta        map[string]any
}
