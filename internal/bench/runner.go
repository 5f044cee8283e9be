package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"portSched/internal/opt"
	"portSched/internal/portfolio"
)

type Algorithm struct {
	Name    string
	Factory func(seed int64) opt.Optimizer
}

type Case struct {
	Instances int
	Configs   int
	Units     int
	Budget    float64

	SolveProb   float64
	MaxRuntime  float64
	CatalogSeed int64
}

type Record struct {
	Algo      string
	Instances int
	Configs   int
	Units     int
	Runs      int

	TimeBestMs float64
	TimeMeanMs float64
	TimeStdMs  float64

	SolvedBest int
	SolvedMean float64
	SolvedStd  float64

	QuadBest float64
	QuadMean float64
	QuadStd  float64

	CompleteRuns int
}

type Runner struct {
	Runs          int
	BaseSeed      int64
	PerRunTimeout time.Duration // 0 = no timeout
}

func (r Runner) RunCase(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	catRng := randForSeed(c.CatalogSeed)
	cat := portfolio.RandomCatalog(c.Instances, c.Configs, c.SolveProb, c.MaxRuntime, catRng)
	prob := &opt.Problem{Catalog: cat, Units: c.Units, Budget: c.Budget}

	solved := make([]int, 0, r.Runs)
	quads := make([]float64, 0, r.Runs)
	timesMs := make([]float64, 0, r.Runs)
	completed := 0

	for i := 0; i < r.Runs; i++ {
		runSeed := r.BaseSeed + int64(i)

		op := algo.Factory(runSeed)

		runCtx := ctx
		cancel := func() {}
		if r.PerRunTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, r.PerRunTimeout)
		}
		start := time.Now()
		res, err := op.Solve(runCtx, prob)
		dur := time.Since(start)
		cancel()

		if err != nil {
			return Record{}, fmt.Errorf("run %d: solve error: %w", i, err)
		}
		if err := res.Schedule.Validate(c.Budget); err != nil {
			return Record{}, fmt.Errorf("run %d: invalid schedule: %w", i, err)
		}

		solved = append(solved, res.Solved)
		quads = append(quads, res.QuadCost)
		timesMs = append(timesMs, float64(dur.Microseconds())/1000.0)
		if res.Complete {
			completed++
		}
	}

	sStats := Calc(solved)
	qStats := Calc(quads)
	tStats := Calc(timesMs)

	return Record{
		Algo:      algo.Name,
		Instances: c.Instances,
		Configs:   c.Configs,
		Units:     c.Units,
		Runs:      r.Runs,

		TimeBestMs: tStats.Min,
		TimeMeanMs: tStats.Mean,
		TimeStdMs:  tStats.Std,

		SolvedBest: sStats.Max,
		SolvedMean: sStats.Mean,
		SolvedStd:  sStats.Std,

		QuadBest: qStats.Min,
		QuadMean: qStats.Mean,
		QuadStd:  qStats.Std,

		CompleteRuns: completed,
	}, nil
}

func WriteCSV(path string, records []Record) error {
	if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"algo", "instances", "configs", "units", "runs",
		"time_best_ms", "time_mean_ms", "time_std_ms",
		"solved_best", "solved_mean", "solved_std",
		"quad_best", "quad_mean", "quad_std",
		"complete_runs",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Algo,
			itoa(r.Instances),
			itoa(r.Configs),
			itoa(r.Units),
			itoa(r.Runs),

			ftoa(r.TimeBestMs),
			ftoa(r.TimeMeanMs),
			ftoa(r.TimeStdMs),

			itoa(r.SolvedBest),
			ftoa(r.SolvedMean),
			ftoa(r.SolvedStd),

			ftoa(r.QuadBest),
			ftoa(r.QuadMean),
			ftoa(r.QuadStd),

			itoa(r.CompleteRuns),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
