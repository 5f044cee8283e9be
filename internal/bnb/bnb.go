package bnb

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"

	"portSched/internal/greedy"
	"portSched/internal/opt"
	"portSched/internal/portfolio"
	"portSched/internal/sched"
)

// Solver is the exact anytime search: depth-first branch-and-bound over
// configurations in sorted id order. At each depth the configuration is
// either skipped or assigned one (unit, cutoff) slice with the unit's
// cumulative cost kept within budget. Exhausting the space proves
// optimality under the lexicographic objective; a deadline or node cap
// stops early with the best schedule found so far.
type Solver struct {
	Cfg Config
}

func New(cfg Config) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Solver{Cfg: cfg}, nil
}

// pick is one committed move: configuration cfg runs on unit with its
// k-th natural cutoff.
type pick struct {
	cfg  int
	unit int
	k    int
}

// incumbent is the shared current-best schedule. Workers read it
// optimistically for bounding and replace it only when strictly better
// under the deterministic comparison, so the final result does not
// depend on goroutine scheduling.
type incumbent struct {
	mu     sync.Mutex
	has    bool
	solved int
	quad   float64
	sch    sched.Schedule // canonical
}

func (inc *incumbent) snapshot() (solved int, quad float64, ok bool) {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	return inc.solved, inc.quad, inc.has
}

func (inc *incumbent) offer(solved int, quad float64, s sched.Schedule) {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	if !inc.has || sched.Better(solved, quad, s, inc.solved, inc.quad, inc.sch) {
		inc.has = true
		inc.solved = solved
		inc.quad = quad
		inc.sch = s
	}
}

// counters aggregates search statistics across workers.
type counters struct {
	nodes     atomic.Int64
	prunes    atomic.Int64
	leaves    atomic.Int64
	evals     atomic.Int64
	truncated atomic.Bool
}

// shared is the read-only part of the search state.
type shared struct {
	cat       *portfolio.Catalog
	units     int
	budget    float64
	n         int
	timelines []*portfolio.Timeline
	maxIdx    []int            // largest affordable cutoff index per config, -1 if none
	suffix    []*bitset.BitSet // suffix[d]: union of everything configs d.. can solve within budget
	inc       *incumbent
	nodeCap   *atomic.Int64 // nil when uncapped
	stats     *counters
}

func (sh *shared) prepare(prob *opt.Problem) {
	sh.cat = prob.Catalog
	sh.units = prob.Units
	sh.budget = prob.Budget
	sh.n = sh.cat.NumConfigs()
	sh.timelines = make([]*portfolio.Timeline, sh.n)
	sh.maxIdx = make([]int, sh.n)
	sh.suffix = make([]*bitset.BitSet, sh.n+1)
	sh.suffix[sh.n] = sh.cat.EmptyCoverage()
	for d := sh.n - 1; d >= 0; d-- {
		tl := sh.cat.TimelineAt(d)
		sh.timelines[d] = tl
		sh.maxIdx[d] = tl.LargestWithin(sh.budget)
		suf := sh.suffix[d+1].Clone()
		if sh.maxIdx[d] >= 0 {
			suf.InPlaceUnion(tl.CoveredUpTo(sh.maxIdx[d]))
		}
		sh.suffix[d] = suf
	}
}

// node is a detached partial assignment, used to split the tree across
// workers.
type node struct {
	d          int
	loads      []float64
	unitSlices []int
	covered    *bitset.BitSet
	quad       float64
	picks      []pick
}

func (sh *shared) root() *node {
	return &node{
		loads:      make([]float64, sh.units),
		unitSlices: make([]int, sh.units),
		covered:    sh.cat.EmptyCoverage(),
	}
}

func (nd *node) usedUnits() int {
	u := 0
	for _, c := range nd.unitSlices {
		if c > 0 {
			u++
		}
	}
	return u
}

// searcher is the per-worker mutable state walking one subtree.
type searcher struct {
	*shared
	ctx        context.Context
	loads      []float64
	unitSlices []int
	picks      []pick
	truncated  bool
	stopReason string
}

func (s *searcher) stopped() bool {
	if s.truncated {
		return true
	}
	if s.ctx.Err() != nil {
		s.truncated = true
		s.stopReason = "context"
		return true
	}
	if s.nodeCap != nil && s.nodeCap.Add(-1) < 0 {
		s.truncated = true
		s.stopReason = "nodes"
		return true
	}
	return false
}

func (s *searcher) dfs(d, usedUnits int, covered *bitset.BitSet, quad float64) {
	if s.stopped() {
		return
	}
	s.stats.nodes.Add(1)

	if d == s.n {
		s.stats.leaves.Add(1)
		s.stats.evals.Add(1)
		s.inc.offer(int(covered.Count()), quad, s.buildSchedule())
		return
	}

	// Optimistic bound: everything the remaining configurations could
	// possibly add, ignoring budget interaction between them.
	if best, bestQuad, ok := s.inc.snapshot(); ok {
		optimistic := int(covered.UnionCardinality(s.suffix[d]))
		if optimistic < best || (optimistic == best && quad > bestQuad) {
			// Cost only grows along a branch, so equal-coverage
			// branches strictly above the incumbent cost are dead.
			// Branches tying on both counts must reach their leaf:
			// the canonical comparison in offer decides the tie, which
			// keeps the result independent of worker timing.
			s.stats.prunes.Add(1)
			return
		}
	}

	tl := s.timelines[d]
	limit := usedUnits + 1
	if limit > s.units {
		limit = s.units
	}
	coveredCount := int(covered.Count())

	for k := 0; k <= s.maxIdx[d]; k++ {
		cut := tl.Cutoff(k)
		cov := tl.CoveredUpTo(k)
		if int(covered.UnionCardinality(cov)) == coveredCount {
			// A slice adding no coverage never beats its own skip branch.
			continue
		}
		for u := 0; u < limit; u++ {
			oldLoad := s.loads[u]
			if oldLoad+cut > s.budget {
				continue
			}
			next := covered.Clone()
			next.InPlaceUnion(cov)
			nextUsed := usedUnits
			if s.unitSlices[u] == 0 {
				nextUsed++
			}
			s.loads[u] = oldLoad + cut
			s.unitSlices[u]++
			s.picks = append(s.picks, pick{cfg: d, unit: u, k: k})

			s.dfs(d+1, nextUsed, next, quad+cut*cut)

			s.picks = s.picks[:len(s.picks)-1]
			s.unitSlices[u]--
			s.loads[u] = oldLoad
		}
	}

	s.dfs(d+1, usedUnits, covered, quad)
}

func (s *searcher) buildSchedule() sched.Schedule {
	out := sched.New(s.units)
	for _, p := range s.picks {
		out[p.unit] = append(out[p.unit], sched.Slice{
			Config: s.cat.ConfigAt(p.cfg),
			Cutoff: s.timelines[p.cfg].Cutoff(p.k),
		})
	}
	return out.Canonical()
}

func (s *Solver) Solve(ctx context.Context, prob *opt.Problem) (opt.Result, error) {
	start := time.Now()

	if err := prob.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}

	sh := &shared{inc: &incumbent{}, stats: &counters{}}
	sh.prepare(prob)
	if s.Cfg.MaxNodes > 0 {
		ctr := &atomic.Int64{}
		ctr.Store(s.Cfg.MaxNodes)
		sh.nodeCap = ctr
	}

	evals := 0
	if s.Cfg.SeedGreedy {
		seed, err := greedy.New().Solve(ctx, prob)
		if err != nil {
			return opt.Result{}, err
		}
		evals += seed.Evaluations
		sh.inc.offer(seed.Solved, seed.QuadCost, seed.Schedule)
	}

	workers := s.Cfg.Workers
	if workers < 1 {
		workers = 1
	}

	stopReason := ""
	if workers == 1 || sh.n == 0 {
		w := &searcher{shared: sh, ctx: ctx}
		root := sh.root()
		w.loads, w.unitSlices, w.picks = root.loads, root.unitSlices, root.picks
		w.dfs(0, 0, root.covered, 0)
		if w.truncated {
			sh.stats.truncated.Store(true)
			stopReason = w.stopReason
		}
	} else {
		frontier := sh.splitFrontier(workers * 4)
		work := make(chan *node, len(frontier))
		for _, nd := range frontier {
			work <- nd
		}
		close(work)

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < workers; i++ {
			g.Go(func() error {
				for nd := range work {
					w := &searcher{shared: sh, ctx: gctx}
					w.loads = append([]float64(nil), nd.loads...)
					w.unitSlices = append([]int(nil), nd.unitSlices...)
					w.picks = append([]pick(nil), nd.picks...)
					w.dfs(nd.d, nd.usedUnits(), nd.covered.Clone(), nd.quad)
					if w.truncated {
						sh.stats.truncated.Store(true)
						mu.Lock()
						if stopReason == "" {
							stopReason = w.stopReason
						}
						mu.Unlock()
					}
				}
				return nil
			})
		}
		// Workers return nil; the group only propagates ctx wiring.
		_ = g.Wait()
	}

	// All workers are done; the incumbent is no longer contended.
	schedule := sched.New(prob.Units)
	solved, quad := 0, 0.0
	if sh.inc.has {
		schedule = sh.inc.sch
		solved = sh.inc.solved
		quad = sh.inc.quad
	}
	schedule.MustValidate(prob.Budget)

	// Recheck the reported score through the evaluator; a mismatch would
	// mean the incremental bookkeeping diverged. Quadratic cost is summed
	// in a different order there, hence the tolerance.
	eval, err := sched.NewEvaluator(prob.Catalog)
	if err != nil {
		return opt.Result{}, err
	}
	if es, eq := eval.Evaluate(schedule); es != solved || math.Abs(eq-quad) > 1e-6 {
		panic("bnb: incremental score diverged from evaluator")
	}
	evals += int(sh.stats.evals.Load()) + 1

	complete := !sh.stats.truncated.Load()
	meta := map[string]any{
		"strategy": "bnb",
		"workers":  workers,
		"prunes":   sh.stats.prunes.Load(),
		"leaves":   sh.stats.leaves.Load(),
	}
	if stopReason != "" {
		meta["stopped"] = stopReason
	}
	return opt.Result{
		Schedule:    schedule,
		Solved:      solved,
		QuadCost:    quad,
		Complete:    complete,
		Nodes:       sh.stats.nodes.Load(),
		Evaluations: evals,
		Duration:    time.Since(start),
		Meta:        meta,
	}, nil
}

// splitFrontier expands the shallowest nodes breadth-first until at
// least target detached subtrees exist, so workers receive comparable
// shares of the tree.
func (sh *shared) splitFrontier(target int) []*node {
	frontier := []*node{sh.root()}
	for len(frontier) < target {
		idx := -1
		for i, nd := range frontier {
			if nd.d < sh.n {
				if idx < 0 || nd.d < frontier[idx].d {
					idx = i
				}
			}
		}
		if idx < 0 {
			break
		}
		nd := frontier[idx]
		frontier = append(frontier[:idx], frontier[idx+1:]...)
		frontier = append(frontier, sh.expand(nd)...)
	}
	return frontier
}

// expand generates the children of a partial assignment in move order:
// every affordable coverage-adding (cutoff, unit) slice for the current
// configuration, then the skip branch.
func (sh *shared) expand(nd *node) []*node {
	tl := sh.timelines[nd.d]
	used := nd.usedUnits()
	limit := used + 1
	if limit > sh.units {
		limit = sh.units
	}
	coveredCount := int(nd.covered.Count())

	var children []*node
	for k := 0; k <= sh.maxIdx[nd.d]; k++ {
		cut := tl.Cutoff(k)
		cov := tl.CoveredUpTo(k)
		if int(nd.covered.UnionCardinality(cov)) == coveredCount {
			continue
		}
		for u := 0; u < limit; u++ {
			if nd.loads[u]+cut > sh.budget {
				continue
			}
			child := &node{
				d:          nd.d + 1,
				loads:      append([]float64(nil), nd.loads...),
				unitSlices: append([]int(nil), nd.unitSlices...),
				covered:    nd.covered.Clone(),
				quad:       nd.quad + cut*cut,
				picks:      append(append([]pick(nil), nd.picks...), pick{cfg: nd.d, unit: u, k: k}),
			}
			child.loads[u] += cut
			child.unitSlices[u]++
			child.covered.InPlaceUnion(cov)
			children = append(children, child)
		}
	}
	skip := &node{
		d:          nd.d + 1,
		loads:      append([]float64(nil), nd.loads...),
		unitSlices: append([]int(nil), nd.unitSlices...),
		covered:    nd.covered.Clone(),
		quad:       nd.quad,
		picks:      append([]pick(nil), nd.picks...),
	}
	return append(children, skip)
}
