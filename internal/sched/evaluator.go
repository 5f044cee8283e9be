package sched

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"portSched/internal/portfolio"
)

// Evaluator scores schedules against one catalog. Evaluate is pure and
// cheap enough to call on every search node.
type Evaluator struct {
	cat     *portfolio.Catalog
	scratch *bitset.BitSet
}

func NewEvaluator(cat *portfolio.Catalog) (*Evaluator, error) {
	if cat == nil {
		return nil, fmt.Errorf("nil catalog")
	}
	return &Evaluator{cat: cat, scratch: cat.EmptyCoverage()}, nil
}

// Evaluate returns the number of distinct instances the schedule solves
// and its quadratic cost. The cost contract is the sum of cutoff² over
// all slices. A slice whose cutoff is not a natural cutoff of its
// configuration's timeline is a programming error and panics.
func (e *Evaluator) Evaluate(s Schedule) (solved int, quad float64) {
	e.scratch.ClearAll()
	for u := range s {
		for _, sl := range s[u] {
			tl := e.cat.Timeline(sl.Config)
			if tl == nil {
				panic(fmt.Sprintf("sched: unknown configuration %s in schedule", sl.Config))
			}
			k, ok := tl.CutoffIndex(sl.Cutoff)
			if !ok {
				panic(fmt.Sprintf("sched: cutoff %v is not on the timeline of %s", sl.Cutoff, sl.Config))
			}
			e.scratch.InPlaceUnion(tl.CoveredUpTo(k))
			quad += sl.Cutoff * sl.Cutoff
		}
	}
	return int(e.scratch.Count()), quad
}

// SolvedSet returns the covered instance set of a schedule as a fresh
// bitset over the catalog's instance index.
func (e *Evaluator) SolvedSet(s Schedule) *bitset.BitSet {
	e.Evaluate(s)
	return e.scratch.Clone()
}
