package anneal

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"portSched/internal/opt"
	"portSched/internal/portfolio"
)

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := []Config{
		{Iterations: 0, IterationsPerConfig: 0, InitialTemp: 100, FinalTemp: 1, Alpha: 0.9, Neighborhood: NeighborhoodMixed},
		{IterationsPerConfig: 10, InitialTemp: 0, FinalTemp: 1, Alpha: 0.9, Neighborhood: NeighborhoodMixed},
		{IterationsPerConfig: 10, InitialTemp: 100, FinalTemp: 0, Alpha: 0.9, Neighborhood: NeighborhoodMixed},
		{IterationsPerConfig: 10, InitialTemp: 1, FinalTemp: 100, Alpha: 0.9, Neighborhood: NeighborhoodMixed},
		{IterationsPerConfig: 10, InitialTemp: 100, FinalTemp: 1, Alpha: 1.5, Neighborhood: NeighborhoodMixed},
		{IterationsPerConfig: 10, InitialTemp: 100, FinalTemp: 1, Alpha: 0.9, Neighborhood: "spiral"},
	}
	for i, c := range bad {
		require.Error(t, c.Validate(), "case %d", i)
	}
}

func TestNewRejectsNilRng(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	require.Error(t, err)
}

func TestSolveFindsSingleConfigOptimum(t *testing.T) {
	cat, err := portfolio.NewCatalog([]portfolio.Fact{
		{Instance: "a", Config: "C", Runtime: 1},
		{Instance: "b", Config: "C", Runtime: 2},
		{Instance: "c", Config: "C", Runtime: 5},
	})
	require.NoError(t, err)

	solver, err := New(DefaultConfig(), rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	prob := &opt.Problem{Catalog: cat, Units: 1, Budget: 5}
	res, err := solver.Solve(context.Background(), prob)
	require.NoError(t, err)

	require.False(t, res.Complete)
	require.Equal(t, 3, res.Solved)
	require.Equal(t, 25.0, res.QuadCost)
	require.NoError(t, res.Schedule.Validate(prob.Budget))
}

func TestSolveDeterministicPerSeed(t *testing.T) {
	cat := portfolio.RandomCatalog(40, 8, 0.4, 60, rand.New(rand.NewSource(9)))
	prob := &opt.Problem{Catalog: cat, Units: 2, Budget: 80}

	run := func() opt.Result {
		solver, err := New(DefaultConfig(), rand.New(rand.NewSource(123)))
		require.NoError(t, err)
		res, err := solver.Solve(context.Background(), prob)
		require.NoError(t, err)
		return res
	}

	first := run()
	second := run()
	require.Equal(t, first.Solved, second.Solved)
	require.Equal(t, first.QuadCost, second.QuadCost)
	require.Equal(t, first.Schedule, second.Schedule)
}

func TestSolveRespectsBudget(t *testing.T) {
	cat := portfolio.RandomCatalog(60, 10, 0.35, 100, rand.New(rand.NewSource(2)))
	prob := &opt.Problem{Catalog: cat, Units: 3, Budget: 120}

	solver, err := New(DefaultConfig(), rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	res, err := solver.Solve(context.Background(), prob)
	require.NoError(t, err)

	require.NoError(t, res.Schedule.Validate(prob.Budget))
	require.Greater(t, res.Solved, 0)
}

func TestSolveStopsOnCancelledContext(t *testing.T) {
	cat := portfolio.RandomCatalog(20, 5, 0.4, 50, rand.New(rand.NewSource(4)))
	prob := &opt.Problem{Catalog: cat, Units: 2, Budget: 60}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	solver, err := New(DefaultConfig(), rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	res, err := solver.Solve(ctx, prob)
	require.NoError(t, err)

	require.False(t, res.Complete)
	require.Equal(t, "context", res.Meta["stopped"])
	require.NoError(t, res.Schedule.Validate(prob.Budget))
}
