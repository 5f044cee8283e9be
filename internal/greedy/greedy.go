package greedy

import (
	"context"
	"time"

	"portSched/internal/opt"
	"portSched/internal/sched"
)

// Solver builds a schedule by repeatedly adding the affordable slice
// with the largest marginal coverage. Ties prefer the shorter cutoff;
// a remaining tie keeps the first candidate in ascending (configuration,
// cutoff) scan order, on the unit bestFitUnit picks. Fully deterministic
// and parameter-free; also used to seed the exact search with an
// incumbent.
type Solver struct{}

func New() *Solver { return &Solver{} }

func (s *Solver) Solve(ctx context.Context, prob *opt.Problem) (opt.Result, error) {
	start := time.Now()

	if err := prob.Validate(); err != nil {
		return opt.Result{}, err
	}

	cat := prob.Catalog
	nConfigs := cat.NumConfigs()

	covered := cat.EmptyCoverage()
	coveredCount := 0
	loads := make([]float64, prob.Units)
	used := make([]bool, nConfigs)
	schedule := sched.New(prob.Units)

	evals := 0
	slices := 0
	stopped := ""

	for {
		if err := ctx.Err(); err != nil {
			stopped = "context"
			break
		}

		bestGain := 0
		bestCfg := -1
		bestK := -1
		bestUnit := -1
		bestCut := 0.0

		for ci := 0; ci < nConfigs; ci++ {
			if used[ci] {
				continue
			}
			tl := cat.TimelineAt(ci)
			for k := 0; k < tl.Len(); k++ {
				cut := tl.Cutoff(k)
				unit := bestFitUnit(loads, cut, prob.Budget)
				if unit < 0 {
					// Cutoffs ascend; nothing larger fits either.
					break
				}
				gain := int(covered.UnionCardinality(tl.CoveredUpTo(k))) - coveredCount
				evals++
				if gain > bestGain || (gain == bestGain && gain > 0 && cut < bestCut) {
					bestGain, bestCfg, bestK, bestUnit, bestCut = gain, ci, k, unit, cut
				}
			}
		}

		if bestGain <= 0 {
			break
		}

		tl := cat.TimelineAt(bestCfg)
		covered.InPlaceUnion(tl.CoveredUpTo(bestK))
		coveredCount = int(covered.Count())
		loads[bestUnit] += bestCut
		used[bestCfg] = true
		schedule[bestUnit] = append(schedule[bestUnit], sched.Slice{Config: cat.ConfigAt(bestCfg), Cutoff: bestCut})
		slices++
	}

	schedule = schedule.Canonical()
	schedule.MustValidate(prob.Budget)

	eval, err := sched.NewEvaluator(cat)
	if err != nil {
		return opt.Result{}, err
	}
	solved, quad := eval.Evaluate(schedule)
	evals++

	meta := map[string]any{"strategy": "greedy"}
	if stopped != "" {
		meta["stopped"] = stopped
	}
	return opt.Result{
		Schedule:    schedule,
		Solved:      solved,
		QuadCost:    quad,
		Complete:    false,
		Nodes:       int64(slices),
		Evaluations: evals,
		Duration:    time.Since(start),
		Meta:        meta,
	}, nil
}

// bestFitUnit picks the most loaded unit that still fits the cutoff,
// lower index on ties; -1 when no unit can afford it.
func bestFitUnit(loads []float64, cutoff, budget float64) int {
	best := -1
	for u := range loads {
		if loads[u]+cutoff > budget {
			continue
		}
		if best < 0 || loads[u] > loads[best] {
			best = u
		}
	}
	return best
}
