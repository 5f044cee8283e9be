package tabu

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/bits-and-blooms/bitset"

	"portSched/internal/opt"
	"portSched/internal/portfolio"
	"portSched/internal/sched"
)

// Solver - структура реализации табу-поиска
type Solver struct {
	Cfg Config
	Rng *rand.Rand
}

// New возвращает новый TS-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
// Используется в фабриках.
func New(cfg Config, rng *rand.Rand) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	return &Solver{Cfg: cfg, Rng: rng}, nil
}

// assign — решение для одной конфигурации (юнит, индекс cutoff);
// unit == -1 означает «не запланирована».
type assign struct {
	unit int
	k    int
}

type state struct {
	cat       *portfolio.Catalog
	timelines []*portfolio.Timeline
	maxIdx    []int
	asg       []assign
	loads     []float64
	budget    float64
	units     int
	total     int
	weightW   float64
	scratch   *bitset.BitSet
}

// energy — та же точная скаляризация, что и в пакете anneal: вес W
// строго доминирует над квадратичным штрафом.
func (st *state) energy() float64 {
	st.scratch.ClearAll()
	quad := 0.0
	for ci, a := range st.asg {
		if a.unit < 0 {
			continue
		}
		st.scratch.InPlaceUnion(st.timelines[ci].CoveredUpTo(a.k))
		cut := st.timelines[ci].Cutoff(a.k)
		quad += cut * cut
	}
	solved := int(st.scratch.Count())
	return float64(st.total-solved)*st.weightW + quad
}

func (st *state) apply(ci int, next assign) {
	curr := st.asg[ci]
	st.asg[ci] = next
	if curr.unit >= 0 {
		st.recomputeLoad(curr.unit)
	}
	if next.unit >= 0 && next.unit != curr.unit {
		st.recomputeLoad(next.unit)
	}
}

func (st *state) recomputeLoad(u int) {
	sum := 0.0
	for ci, a := range st.asg {
		if a.unit == u {
			sum += st.timelines[ci].Cutoff(a.k)
		}
	}
	st.loads[u] = sum
}

// Solve — основной цикл алгоритма
func (s *Solver) Solve(ctx context.Context, prob *opt.Problem) (opt.Result, error) {
	start := time.Now()

	if err := prob.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}
	if s.Rng == nil {
		return opt.Result{}, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}

	cat := prob.Catalog
	n := cat.NumConfigs()

	st := &state{
		cat:       cat,
		timelines: make([]*portfolio.Timeline, n),
		maxIdx:    make([]int, n),
		asg:       make([]assign, n),
		loads:     make([]float64, prob.Units),
		budget:    prob.Budget,
		units:     prob.Units,
		total:     cat.NumInstances(),
		weightW:   float64(prob.Units)*prob.Budget*prob.Budget + 1,
		scratch:   cat.EmptyCoverage(),
	}
	for ci := 0; ci < n; ci++ {
		st.timelines[ci] = cat.TimelineAt(ci)
		st.maxIdx[ci] = st.timelines[ci].LargestWithin(prob.Budget)
		st.asg[ci] = assign{unit: -1}
	}

	maxIter := s.Cfg.Iterations
	if maxIter <= 0 {
		maxIter = s.Cfg.IterationsPerConfig * n
	}

	currE := st.energy()
	evals := 1

	best := append([]assign(nil), st.asg...)
	bestE := currE

	// Табу-срок по конфигурациям: итерация, до которой конфигурацию
	// нельзя трогать. Аспирация снимает запрет, если ход улучшает
	// глобально лучшее решение.
	tabuUntil := make([]int, n)

	iter := 0
	stopped := ""

	for ; iter < maxIter; iter++ {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			stopped = "context"
			break
		}

		// Лучший допустимый ход
		bestCi := -1
		bestNext := assign{}
		bestCand := math.Inf(1)

		// Запасной ход (лучший без учёта табу),
		// используется если все допустимые ходы табуированы
		fallbackCi := -1
		fallbackNext := assign{}
		fallbackCand := math.Inf(1)

		// Итерация по случайно сгенерированным соседям
		for nb := 0; nb < s.Cfg.NeighborsPerIter; nb++ {
			ci, next, ok := s.propose(st)
			if !ok {
				continue
			}
			prev := st.asg[ci]
			st.apply(ci, next)
			candE := st.energy()
			evals++
			st.apply(ci, prev)

			if candE < fallbackCand {
				fallbackCi, fallbackNext, fallbackCand = ci, next, candE
			}
			isTabu := iter < tabuUntil[ci]
			if isTabu && candE >= bestE {
				continue
			}
			if candE < bestCand {
				bestCi, bestNext, bestCand = ci, next, candE
			}
		}

		ci, next := bestCi, bestNext
		if ci < 0 {
			ci, next = fallbackCi, fallbackNext
		}
		if ci < 0 {
			continue
		}

		st.apply(ci, next)
		currE = st.energy()
		evals++

		tenure := s.Cfg.TabuTenure
		if s.Cfg.TabuTenureRand > 0 {
			tenure += s.Rng.Intn(s.Cfg.TabuTenureRand + 1)
		}
		tabuUntil[ci] = iter + tenure

		if currE < bestE {
			bestE = currE
			copy(best, st.asg)
		}
	}

	schedule := buildSchedule(cat, st.timelines, best, prob.Units)
	schedule.MustValidate(prob.Budget)

	eval, err := sched.NewEvaluator(cat)
	if err != nil {
		return opt.Result{}, err
	}
	solved, quad := eval.Evaluate(schedule)
	evals++

	meta := map[string]any{
		"strategy":  "tabu",
		"tenure":    s.Cfg.TabuTenure,
		"neighbors": s.Cfg.NeighborsPerIter,
	}
	if stopped != "" {
		meta["stopped"] = stopped
	}
	return opt.Result{
		Schedule:    schedule,
		Solved:      solved,
		QuadCost:    quad,
		Complete:    false,
		Nodes:       int64(iter),
		Evaluations: evals,
		Duration:    time.Since(start),
		Meta:        meta,
	}, nil
}

// propose формирует случайный соседний ход: переключение, смена cutoff
// или перенос на другой юнит — равновероятно.
func (s *Solver) propose(st *state) (ci int, next assign, ok bool) {
	n := len(st.asg)
	if n == 0 {
		return 0, assign{}, false
	}
	ci = s.Rng.Intn(n)
	if st.maxIdx[ci] < 0 {
		return ci, assign{}, false
	}
	curr := st.asg[ci]

	switch s.Rng.Intn(3) {
	case 0: // toggle
		if curr.unit >= 0 {
			return ci, assign{unit: -1}, true
		}
		k := s.Rng.Intn(st.maxIdx[ci] + 1)
		u := s.Rng.Intn(st.units)
		if st.loads[u]+st.timelines[ci].Cutoff(k) > st.budget {
			return ci, assign{}, false
		}
		return ci, assign{unit: u, k: k}, true

	case 1: // retime
		if curr.unit < 0 {
			return ci, assign{}, false
		}
		k := s.Rng.Intn(st.maxIdx[ci] + 1)
		if k == curr.k {
			return ci, assign{}, false
		}
		oldCut := st.timelines[ci].Cutoff(curr.k)
		newCut := st.timelines[ci].Cutoff(k)
		if st.loads[curr.unit]-oldCut+newCut > st.budget {
			return ci, assign{}, false
		}
		return ci, assign{unit: curr.unit, k: k}, true

	default: // move
		if curr.unit < 0 || st.units < 2 {
			return ci, assign{}, false
		}
		u := s.Rng.Intn(st.units - 1)
		if u >= curr.unit {
			u++
		}
		if st.loads[u]+st.timelines[ci].Cutoff(curr.k) > st.budget {
			return ci, assign{}, false
		}
		return ci, assign{unit: u, k: curr.k}, true
	}
}

func buildSchedule(cat *portfolio.Catalog, timelines []*portfolio.Timeline, asg []assign, units int) sched.Schedule {
	out := sched.New(units)
	for ci, a := range asg {
		if a.unit < 0 {
			continue
		}
		out[a.unit] = append(out[a.unit], sched.Slice{
			Config: cat.ConfigAt(ci),
			Cutoff: timelines[ci].Cutoff(a.k),
		})
	}
	return out.Canonical()
}
