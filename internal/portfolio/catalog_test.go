package portfolio

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func threeInstanceFacts() []Fact {
	return []Fact{
		{Instance: "a", Config: "C", Runtime: 1},
		{Instance: "b", Config: "C", Runtime: 2},
		{Instance: "c", Config: "C", Runtime: 5},
	}
}

func TestNewCatalogBuildsSortedTimeline(t *testing.T) {
	cat, err := NewCatalog(threeInstanceFacts())
	require.NoError(t, err)

	require.Equal(t, 3, cat.NumInstances())
	require.Equal(t, 1, cat.NumConfigs())
	require.Equal(t, []string{"a", "b", "c"}, cat.Instances())

	tl := cat.Timeline("C")
	require.NotNil(t, tl)
	require.Equal(t, 3, tl.Len())
	require.Equal(t, []float64{1, 2, 5}, []float64{tl.Cutoff(0), tl.Cutoff(1), tl.Cutoff(2)})

	// Cumulative coverage grows along the timeline.
	require.Equal(t, uint(1), tl.CoveredUpTo(0).Count())
	require.Equal(t, uint(2), tl.CoveredUpTo(1).Count())
	require.Equal(t, uint(3), tl.CoveredUpTo(2).Count())
}

func TestNewCatalogRejectsMalformedFacts(t *testing.T) {
	_, err := NewCatalog([]Fact{{Instance: "a", Config: "C", Runtime: -1}})
	require.ErrorIs(t, err, ErrMalformedFact)

	_, err = NewCatalog([]Fact{{Instance: "", Config: "C", Runtime: 1}})
	require.ErrorIs(t, err, ErrMalformedFact)

	_, err = NewCatalog([]Fact{{Instance: "a", Config: "", Runtime: 1}})
	require.ErrorIs(t, err, ErrMalformedFact)
}

func TestNewCatalogDeduplicatesIdempotently(t *testing.T) {
	facts := threeInstanceFacts()
	doubled := append(append([]Fact(nil), facts...), facts...)

	once, err := NewCatalog(facts)
	require.NoError(t, err)
	twice, err := NewCatalog(doubled)
	require.NoError(t, err)

	require.Equal(t, once.NumInstances(), twice.NumInstances())
	require.Equal(t, once.Timeline("C").Len(), twice.Timeline("C").Len())
	for k := 0; k < once.Timeline("C").Len(); k++ {
		require.Equal(t, once.Timeline("C").Cutoff(k), twice.Timeline("C").Cutoff(k))
		require.Equal(t, once.Timeline("C").CoveredUpTo(k).Count(), twice.Timeline("C").CoveredUpTo(k).Count())
	}
}

func TestNewCatalogKeepsMinimumOfConflictingRuntimes(t *testing.T) {
	cat, err := NewCatalog([]Fact{
		{Instance: "a", Config: "C", Runtime: 5},
		{Instance: "a", Config: "C", Runtime: 3},
	})
	require.NoError(t, err)

	tl := cat.Timeline("C")
	require.Equal(t, 1, tl.Len())
	require.Equal(t, 3.0, tl.Cutoff(0))
}

func TestNewCatalogRegistersExtraInstances(t *testing.T) {
	cat, err := NewCatalog(threeInstanceFacts(), "never-solved")
	require.NoError(t, err)

	require.Equal(t, 4, cat.NumInstances())
	idx, ok := cat.InstanceIndex("never-solved")
	require.True(t, ok)

	// No timeline ever covers it.
	tl := cat.Timeline("C")
	require.False(t, tl.CoveredUpTo(tl.Len()-1).Test(uint(idx)))
}

func TestTimelineLookups(t *testing.T) {
	cat, err := NewCatalog(threeInstanceFacts())
	require.NoError(t, err)
	tl := cat.Timeline("C")

	k, ok := tl.CutoffIndex(2)
	require.True(t, ok)
	require.Equal(t, 1, k)
	_, ok = tl.CutoffIndex(3)
	require.False(t, ok)

	require.Equal(t, -1, tl.LargestWithin(0.5))
	require.Equal(t, 1, tl.LargestWithin(4))
	require.Equal(t, 2, tl.LargestWithin(5))
	require.Equal(t, 2, tl.LargestWithin(100))
}

func TestTimelineIntervals(t *testing.T) {
	cat, err := NewCatalog(threeInstanceFacts())
	require.NoError(t, err)
	tl := cat.Timeline("C")

	ivs := tl.Intervals([]float64{1, 5})
	require.Len(t, ivs, 2)

	// First interval starts at zero and costs exactly its cutoff.
	require.Equal(t, 0.0, ivs[0].Prev)
	require.Equal(t, 1.0, ivs[0].Cutoff)
	require.Equal(t, uint(1), ivs[0].New.Count())

	// Second interval is (1, 5]: instances b and c only.
	require.Equal(t, 1.0, ivs[1].Prev)
	require.Equal(t, 5.0, ivs[1].Cutoff)
	require.Equal(t, uint(2), ivs[1].New.Count())
	aIdx, _ := cat.InstanceIndex("a")
	require.False(t, ivs[1].New.Test(uint(aIdx)))
}

func TestTimelineIntervalsPanicsOffTimeline(t *testing.T) {
	cat, err := NewCatalog(threeInstanceFacts())
	require.NoError(t, err)
	tl := cat.Timeline("C")

	require.Panics(t, func() { tl.Intervals([]float64{3}) })
	require.Panics(t, func() { tl.Intervals([]float64{5, 1}) })
}

func TestRandomCatalogDeterministicPerSeed(t *testing.T) {
	a := RandomCatalog(20, 4, 0.5, 100, rand.New(rand.NewSource(7)))
	b := RandomCatalog(20, 4, 0.5, 100, rand.New(rand.NewSource(7)))

	require.Equal(t, a.NumInstances(), b.NumInstances())
	require.Equal(t, a.Configs(), b.Configs())
	for _, cfg := range a.Configs() {
		require.Equal(t, a.Timeline(cfg).Len(), b.Timeline(cfg).Len())
	}

	require.Panics(t, func() { RandomCatalog(0, 1, 0.5, 1, rand.New(rand.NewSource(1))) })
	require.Panics(t, func() { RandomCatalog(1, 1, 1.5, 1, rand.New(rand.NewSource(1))) })
	require.Panics(t, func() { RandomCatalog(1, 1, 0.5, 1, nil) })
}
