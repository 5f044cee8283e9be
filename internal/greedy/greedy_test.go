package greedy

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"portSched/internal/opt"
	"portSched/internal/portfolio"
	"portSched/internal/sched"
)

func TestSolveSingleConfig(t *testing.T) {
	cat, err := portfolio.NewCatalog([]portfolio.Fact{
		{Instance: "a", Config: "C", Runtime: 1},
		{Instance: "b", Config: "C", Runtime: 2},
		{Instance: "c", Config: "C", Runtime: 5},
	})
	require.NoError(t, err)

	prob := &opt.Problem{Catalog: cat, Units: 1, Budget: 5}
	res, err := New().Solve(context.Background(), prob)
	require.NoError(t, err)

	// The largest affordable cutoff has the best marginal gain.
	require.Equal(t, 3, res.Solved)
	require.Equal(t, 25.0, res.QuadCost)
	require.Equal(t, sched.Schedule{{{Config: "C", Cutoff: 5}}}, res.Schedule)
	require.False(t, res.Complete)
	require.Equal(t, "greedy", res.Meta["strategy"])
}

func TestSolvePrefersShorterCutoffOnEqualGain(t *testing.T) {
	// C1 and C2 each solve one instance; C2 does it faster and wins
	// the first pick on the cutoff tie-break.
	cat, err := portfolio.NewCatalog([]portfolio.Fact{
		{Instance: "a", Config: "C1", Runtime: 3},
		{Instance: "b", Config: "C2", Runtime: 2},
	})
	require.NoError(t, err)

	prob := &opt.Problem{Catalog: cat, Units: 1, Budget: 3}
	res, err := New().Solve(context.Background(), prob)
	require.NoError(t, err)

	require.Equal(t, 1, res.Solved)
	require.Equal(t, sched.Schedule{{{Config: "C2", Cutoff: 2}}}, res.Schedule)
}

func TestSolveKeepsFirstConfigOnFullTie(t *testing.T) {
	// Equal gain and equal cutoff: the first configuration in scan
	// order wins.
	cat, err := portfolio.NewCatalog([]portfolio.Fact{
		{Instance: "a", Config: "C1", Runtime: 2},
		{Instance: "b", Config: "C2", Runtime: 2},
	})
	require.NoError(t, err)

	prob := &opt.Problem{Catalog: cat, Units: 1, Budget: 2}
	res, err := New().Solve(context.Background(), prob)
	require.NoError(t, err)

	require.Equal(t, 1, res.Solved)
	require.Equal(t, sched.Schedule{{{Config: "C1", Cutoff: 2}}}, res.Schedule)
}

func TestSolveSpreadsAcrossUnits(t *testing.T) {
	cat, err := portfolio.NewCatalog([]portfolio.Fact{
		{Instance: "a", Config: "C1", Runtime: 3},
		{Instance: "b", Config: "C2", Runtime: 4},
	})
	require.NoError(t, err)

	prob := &opt.Problem{Catalog: cat, Units: 2, Budget: 4}
	res, err := New().Solve(context.Background(), prob)
	require.NoError(t, err)

	require.Equal(t, 2, res.Solved)
	require.NoError(t, res.Schedule.Validate(prob.Budget))
	require.Equal(t, 2, res.Schedule.NumSlices())
}

func TestSolveSkipsUnaffordableConfigs(t *testing.T) {
	cat, err := portfolio.NewCatalog([]portfolio.Fact{
		{Instance: "a", Config: "C1", Runtime: 50},
		{Instance: "b", Config: "C2", Runtime: 1},
	})
	require.NoError(t, err)

	prob := &opt.Problem{Catalog: cat, Units: 1, Budget: 2}
	res, err := New().Solve(context.Background(), prob)
	require.NoError(t, err)

	require.Equal(t, 1, res.Solved)
	require.Equal(t, sched.Schedule{{{Config: "C2", Cutoff: 1}}}, res.Schedule)
}

func TestSolveDeterministic(t *testing.T) {
	cat := portfolio.RandomCatalog(50, 8, 0.4, 60, rand.New(rand.NewSource(31)))
	prob := &opt.Problem{Catalog: cat, Units: 2, Budget: 90}

	first, err := New().Solve(context.Background(), prob)
	require.NoError(t, err)
	second, err := New().Solve(context.Background(), prob)
	require.NoError(t, err)

	require.Equal(t, first.Schedule, second.Schedule)
	require.Equal(t, first.Solved, second.Solved)
	require.NoError(t, first.Schedule.Validate(prob.Budget))
}

func TestSolveRejectsInvalidProblem(t *testing.T) {
	_, err := New().Solve(context.Background(), &opt.Problem{Units: 1, Budget: 1})
	require.ErrorIs(t, err, opt.ErrInvalidParameters)
}
