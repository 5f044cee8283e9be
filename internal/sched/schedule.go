package sched

import (
	"fmt"
	"sort"
)

// budgetEps absorbs float re-association error when a unit's slice costs
// are re-summed in a different order than the search accumulated them.
const budgetEps = 1e-9

// Slice is one scheduled run: a configuration executed for up to Cutoff
// time units.
type Slice struct {
	Config string
	Cutoff float64
}

// Schedule assigns each execution unit an ordered sequence of slices.
// Units are interchangeable; the invariant is that every unit's cutoffs
// sum to at most the global budget.
type Schedule [][]Slice

func New(units int) Schedule { return make(Schedule, units) }

func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	for u := range s {
		out[u] = append([]Slice(nil), s[u]...)
	}
	return out
}

func (s Schedule) NumSlices() int {
	n := 0
	for _, unit := range s {
		n += len(unit)
	}
	return n
}

// UnitCost returns the cumulative cutoff time of one unit.
func (s Schedule) UnitCost(u int) float64 {
	sum := 0.0
	for _, sl := range s[u] {
		sum += sl.Cutoff
	}
	return sum
}

// Validate checks the hard budget invariant and that no unit runs the
// same configuration twice.
func (s Schedule) Validate(budget float64) error {
	if budget <= 0 {
		return fmt.Errorf("budget must be > 0 (got %v)", budget)
	}
	for u := range s {
		seen := make(map[string]struct{}, len(s[u]))
		for _, sl := range s[u] {
			if sl.Cutoff < 0 {
				return fmt.Errorf("unit %d: negative cutoff %v for %s", u, sl.Cutoff, sl.Config)
			}
			if _, dup := seen[sl.Config]; dup {
				return fmt.Errorf("unit %d: configuration %s scheduled twice", u, sl.Config)
			}
			seen[sl.Config] = struct{}{}
		}
		if cost := s.UnitCost(u); cost > budget+budgetEps {
			return fmt.Errorf("unit %d: cost %v exceeds budget %v", u, cost, budget)
		}
	}
	return nil
}

// MustValidate panics on an invalid schedule. Search internals construct
// schedules move by move, so a violation here is a programming error.
func (s Schedule) MustValidate(budget float64) {
	if err := s.Validate(budget); err != nil {
		panic(err)
	}
}

// Canonical returns an equivalent schedule in normal form: slices inside
// a unit sorted by (cutoff, config), units sorted by their slice lists,
// empty units last. Interchangeable units always canonicalize to the
// same value, which makes comparisons reproducible.
func (s Schedule) Canonical() Schedule {
	out := s.Clone()
	for u := range out {
		sort.Slice(out[u], func(i, j int) bool {
			return sliceLess(out[u][i], out[u][j])
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return unitLess(out[i], out[j])
	})
	return out
}

func sliceLess(a, b Slice) bool {
	if a.Cutoff != b.Cutoff {
		return a.Cutoff < b.Cutoff
	}
	return a.Config < b.Config
}

func unitLess(a, b []Slice) bool {
	// Non-empty units first, then element-wise slice order.
	if (len(a) == 0) != (len(b) == 0) {
		return len(a) > 0
	}
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return sliceLess(a[i], b[i])
		}
	}
	return len(a) < len(b)
}

// Less is the deterministic tie-break between equally scored schedules:
// element-wise canonical order. Both arguments must already be canonical.
func Less(a, b Schedule) bool {
	for u := 0; u < len(a) && u < len(b); u++ {
		ua, ub := a[u], b[u]
		for i := 0; i < len(ua) && i < len(ub); i++ {
			if ua[i] != ub[i] {
				return sliceLess(ua[i], ub[i])
			}
		}
		if len(ua) != len(ub) {
			return len(ua) < len(ub)
		}
	}
	return len(a) < len(b)
}

// Better resolves the two-level objective: more solved instances wins,
// then lower quadratic cost, then the canonical tie-break. Both schedules
// must be canonical.
func Better(solvedA int, quadA float64, a Schedule, solvedB int, quadB float64, b Schedule) bool {
	if solvedA != solvedB {
		return solvedA > solvedB
	}
	if quadA != quadB {
		return quadA < quadB
	}
	return Less(a, b)
}
