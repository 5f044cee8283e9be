package portfolio

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// Timeline holds the distinct runtimes observed for one configuration,
// sorted ascending. Index k is the k-th natural cutoff: running the
// configuration for cutoffs[k] time solves exactly the instances in
// covered[k].
type Timeline struct {
	config  string
	cutoffs []float64
	covered []*bitset.BitSet // cumulative: instances with runtime <= cutoffs[k]
}

// Interval is one (Prev, Cutoff] step of a timeline slicing. Its exact
// cost equals Cutoff: cutoffs sit on observed runtimes, so a slice never
// pays for unused headroom.
type Interval struct {
	Prev   float64
	Cutoff float64
	New    *bitset.BitSet // instances with Prev < runtime <= Cutoff
}

func newTimeline(config string, byInst map[string]float64, instIndex map[string]int, universe uint) *Timeline {
	type obs struct {
		inst    int
		runtime float64
	}
	all := make([]obs, 0, len(byInst))
	for id, r := range byInst {
		all = append(all, obs{inst: instIndex[id], runtime: r})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].runtime != all[j].runtime {
			return all[i].runtime < all[j].runtime
		}
		return all[i].inst < all[j].inst
	})

	t := &Timeline{config: config}
	running := bitset.New(universe)
	for i := 0; i < len(all); {
		cut := all[i].runtime
		for i < len(all) && all[i].runtime == cut {
			running.Set(uint(all[i].inst))
			i++
		}
		t.cutoffs = append(t.cutoffs, cut)
		t.covered = append(t.covered, running.Clone())
	}
	return t
}

func (t *Timeline) Config() string { return t.config }

// Len returns the number of natural cutoffs.
func (t *Timeline) Len() int { return len(t.cutoffs) }

func (t *Timeline) Cutoff(k int) float64 { return t.cutoffs[k] }

// CoveredUpTo returns the set of instances solved within the k-th cutoff.
// The returned set is shared and must not be modified.
func (t *Timeline) CoveredUpTo(k int) *bitset.BitSet { return t.covered[k] }

// CutoffIndex resolves an exact cutoff value to its timeline index.
func (t *Timeline) CutoffIndex(cutoff float64) (int, bool) {
	k := sort.SearchFloat64s(t.cutoffs, cutoff)
	if k < len(t.cutoffs) && t.cutoffs[k] == cutoff {
		return k, true
	}
	return 0, false
}

// LargestWithin returns the largest cutoff index affordable within the
// budget, or -1 when even the smallest runtime exceeds it.
func (t *Timeline) LargestWithin(budget float64) int {
	k := sort.SearchFloat64s(t.cutoffs, budget)
	if k < len(t.cutoffs) && t.cutoffs[k] == budget {
		return k
	}
	return k - 1
}

// Intervals slices the timeline at the given ascending candidate cutoffs,
// returning for each adjacent pair (prev, next] the instances newly
// solved in that interval. The first interval starts at prev = 0.
// Every candidate must be a natural cutoff of this timeline; anything
// else is a programming error and panics.
func (t *Timeline) Intervals(cutoffs []float64) []Interval {
	out := make([]Interval, 0, len(cutoffs))
	prev := 0.0
	prevIdx := -1
	for _, c := range cutoffs {
		k, ok := t.CutoffIndex(c)
		if !ok {
			panic(fmt.Sprintf("portfolio: cutoff %v is not on the timeline of %s", c, t.config))
		}
		if k <= prevIdx {
			panic(fmt.Sprintf("portfolio: cutoffs must be ascending (got %v after %v)", c, prev))
		}
		nw := t.covered[k].Clone()
		if prevIdx >= 0 {
			nw.InPlaceDifference(t.covered[prevIdx])
		}
		out = append(out, Interval{Prev: prev, Cutoff: c, New: nw})
		prev = c
		prevIdx = k
	}
	return out
}
