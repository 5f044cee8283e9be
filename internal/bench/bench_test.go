package bench

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"portSched/internal/greedy"
	"portSched/internal/opt"
)

func TestCalcInts(t *testing.T) {
	s := Calc([]int{3, 1, 2})
	require.Equal(t, 3, s.N)
	require.Equal(t, 1, s.Min)
	require.Equal(t, 3, s.Max)
	require.Equal(t, 2.0, s.Mean)
	require.Equal(t, 1.0, s.Std)
}

func TestCalcSingleValue(t *testing.T) {
	s := Calc([]float64{4.5})
	require.Equal(t, 1, s.N)
	require.Equal(t, 4.5, s.Min)
	require.Equal(t, 4.5, s.Max)
	require.Equal(t, 4.5, s.Mean)
	require.Equal(t, 0.0, s.Std)
}

func TestCalcEmpty(t *testing.T) {
	s := Calc([]int(nil))
	require.Equal(t, 0, s.N)
	require.Equal(t, 0.0, s.Mean)
	require.Equal(t, 0.0, s.Std)
}

func TestRunCaseGreedy(t *testing.T) {
	algo := Algorithm{
		Name:    "GREEDY",
		Factory: func(int64) opt.Optimizer { return greedy.New() },
	}
	c := Case{
		Instances:   30,
		Configs:     5,
		Units:       2,
		Budget:      60,
		SolveProb:   0.4,
		MaxRuntime:  50,
		CatalogSeed: 777,
	}
	r := Runner{Runs: 3, BaseSeed: 1000}

	rec, err := r.RunCase(context.Background(), c, algo)
	require.NoError(t, err)

	require.Equal(t, "GREEDY", rec.Algo)
	require.Equal(t, 3, rec.Runs)
	require.Greater(t, rec.SolvedBest, 0)
	// Greedy is deterministic, so every run scores the same.
	require.Equal(t, float64(rec.SolvedBest), rec.SolvedMean)
	require.Equal(t, 0.0, rec.SolvedStd)
	require.Equal(t, 0, rec.CompleteRuns)
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "out.csv")
	records := []Record{{
		Algo:      "GREEDY",
		Instances: 10,
		Configs:   2,
		Units:     1,
		Runs:      1,
	}}
	require.NoError(t, WriteCSV(path, records))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "algo", rows[0][0])
	require.Equal(t, "GREEDY", rows[1][0])
	require.Equal(t, "10", rows[1][1])
}
