package anneal

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

// Solver - структура реализации алгоритма имитации отжига
type Solver struct {
	Cfg Config
	Rng *rand.Rand
}

// New возвращает новый SA-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
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

// assign хранит решение для одной конфигурации: юнит и индекс cutoff
// на её таймлайне; unit == -1 означает, что конфигурация не запланирована.
type assign struct {
	unit int
	k    int
}

// state — текущее решение и его инкрементальные нагрузки юнитов.
type state struct {
	cat       *portfolio.Catalog
	timelines []*portfolio.Timeline
	maxIdx    []int
	asg       []assign
	loads     []float64
	budget    float64
	units     int
	total     int // размер множества инстансов
	weightW   float64
	scratch   *bitset.BitSet
}

// energy скаляризует лексикографическую цель: weightW строго больше
// любого возможного квадратичного штрафа (Σ cutoff² <= U·K²), поэтому
// сравнение энергий эквивалентно сравнению пар (solved, quad).
func (st *state) energy() (e float64, solved int, quad float64) {
	st.scratch.ClearAll()
	for ci, a := range st.asg {
		if a.unit < 0 {
			continue
		}
		st.scratch.InPlaceUnion(st.timelines[ci].CoveredUpTo(a.k))
		cut := st.timelines[ci].Cutoff(a.k)
		quad += cut * cut
	}
	solved = int(st.scratch.Count())
	return float64(st.total-solved)*st.weightW + quad, solved, quad
}

// Solve — реализация эвристики.
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

	// Случайная инициализация: примерно половина доступных конфигураций
	// получает случайный срез, если он помещается в бюджет.
	for ci := 0; ci < n; ci++ {
		if st.maxIdx[ci] < 0 || s.Rng.Float64() < 0.5 {
			continue
		}
		k := s.Rng.Intn(st.maxIdx[ci] + 1)
		u := s.Rng.Intn(prob.Units)
		cut := st.timelines[ci].Cutoff(k)
		if st.loads[u]+cut <= prob.Budget {
			st.asg[ci] = assign{unit: u, k: k}
			st.loads[u] += cut
		}
	}

	currE, _, _ := st.energy()
	evals := 1

	best := append([]assign(nil), st.asg...)
	bestE := currE

	T := s.Cfg.InitialTemp
	iter := 0
	stopped := ""

	for ; iter < maxIter && T > s.Cfg.FinalTemp; iter++ {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			stopped = "context"
			break
		}

		ci, next, ok := s.propose(st)
		if !ok {
			T *= s.Cfg.Alpha
			continue
		}

		prev := st.asg[ci]
		st.apply(ci, next)
		candE, _, _ := st.energy()
		evals++

		delta := candE - currE
		accept := delta <= 0
		if !accept {
			// Критерий Метрополиса:
			// допускает принятие ухудшающих решений
			accept = s.Rng.Float64() < math.Exp(-delta/T)
		}

		if accept {
			currE = candE
			if currE < bestE {
				bestE = currE
				copy(best, st.asg)
			}
		} else {
			st.apply(ci, prev)
		}

		// Охлаждение температуры
		T *= s.Cfg.Alpha
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
		"strategy":     "anneal",
		"initial_temp": s.Cfg.InitialTemp,
		"final_temp":   s.Cfg.FinalTemp,
		"alpha":        s.Cfg.Alpha,
		"neighborhood": string(s.Cfg.Neighborhood),
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

// propose формирует соседнее решение для одной случайной конфигурации.
// Возвращает ok=false, если ход не может быть построен (например, срез
// не помещается в бюджет) — такая итерация пропускается.
func (s *Solver) propose(st *state) (ci int, next assign, ok bool) {
	n := len(st.asg)
	if n == 0 {
		return 0, assign{}, false
	}
	ci = s.Rng.Intn(n)
	if st.maxIdx[ci] < 0 {
		return ci, assign{}, false
	}

	kind := s.Cfg.Neighborhood
	if kind == NeighborhoodMixed {
		switch s.Rng.Intn(3) {
		case 0:
			kind = NeighborhoodToggle
		case 1:
			kind = NeighborhoodRetime
		default:
			kind = NeighborhoodMove
		}
	}

	curr := st.asg[ci]
	switch kind {
	case NeighborhoodToggle:
		if curr.unit >= 0 {
			return ci, assign{unit: -1}, true
		}
		k := s.Rng.Intn(st.maxIdx[ci] + 1)
		u := s.Rng.Intn(st.units)
		if st.loads[u]+st.timelines[ci].Cutoff(k) > st.budget {
			return ci, assign{}, false
		}
		return ci, assign{unit: u, k: k}, true

	case NeighborhoodRetime:
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

	default: // NeighborhoodMove
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

// apply переводит конфигурацию ci в состояние next. Нагрузки затронутых
// юнитов пересчитываются с нуля, чтобы ошибка округления не накапливалась
// за тысячи итераций.
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
