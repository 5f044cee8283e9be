package portfolio

import (
	"math/rand"
	"sort"
	"strconv"

	"github.com/bits-and-blooms/bitset"
)

// Catalog is the normalized runtime matrix. It is built once from a
// collection of facts and never mutated afterwards, so searches may share
// it freely across goroutines.
type Catalog struct {
	instances []string
	configs   []string

	instIndex map[string]int
	timelines map[string]*Timeline
}

// NewCatalog builds a catalog from raw facts. Identical duplicate facts
// are idempotent; conflicting runtimes for the same (instance, config)
// pair keep the minimum observed. Extra instance ids may be passed for
// instances that no configuration solves, so they still count in the
// instance universe.
func NewCatalog(facts []Fact, extraInstances ...string) (*Catalog, error) {
	runtimes := make(map[string]map[string]float64) // config -> instance -> min runtime
	instSet := make(map[string]struct{})

	for _, f := range facts {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		instSet[f.Instance] = struct{}{}
		byInst := runtimes[f.Config]
		if byInst == nil {
			byInst = make(map[string]float64)
			runtimes[f.Config] = byInst
		}
		if r, ok := byInst[f.Instance]; !ok || f.Runtime < r {
			byInst[f.Instance] = f.Runtime
		}
	}
	for _, id := range extraInstances {
		if id == "" {
			return nil, Fact{Instance: id, Config: "-"}.Validate()
		}
		instSet[id] = struct{}{}
	}

	c := &Catalog{
		instances: make([]string, 0, len(instSet)),
		configs:   make([]string, 0, len(runtimes)),
		instIndex: make(map[string]int, len(instSet)),
		timelines: make(map[string]*Timeline, len(runtimes)),
	}
	for id := range instSet {
		c.instances = append(c.instances, id)
	}
	sort.Strings(c.instances)
	for i, id := range c.instances {
		c.instIndex[id] = i
	}
	for cfg := range runtimes {
		c.configs = append(c.configs, cfg)
	}
	sort.Strings(c.configs)

	for cfg, byInst := range runtimes {
		c.timelines[cfg] = newTimeline(cfg, byInst, c.instIndex, uint(len(c.instances)))
	}
	return c, nil
}

// NumInstances returns the size of the instance universe, including
// instances no configuration solves.
func (c *Catalog) NumInstances() int { return len(c.instances) }

func (c *Catalog) NumConfigs() int { return len(c.configs) }

// Instances returns instance ids in their dense index order.
// The returned slice must not be modified.
func (c *Catalog) Instances() []string { return c.instances }

// Configs returns configuration ids sorted ascending.
// The returned slice must not be modified.
func (c *Catalog) Configs() []string { return c.configs }

func (c *Catalog) InstanceIndex(id string) (int, bool) {
	i, ok := c.instIndex[id]
	return i, ok
}

// Timeline returns the configuration's timeline, or nil for an unknown
// configuration.
func (c *Catalog) Timeline(config string) *Timeline { return c.timelines[config] }

// TimelineAt returns the timeline of the i-th configuration in sorted
// id order.
func (c *Catalog) TimelineAt(i int) *Timeline { return c.timelines[c.configs[i]] }

func (c *Catalog) ConfigAt(i int) string { return c.configs[i] }

// EmptyCoverage returns a fresh zero bitset sized for the instance
// universe, for callers accumulating coverage unions.
func (c *Catalog) EmptyCoverage() *bitset.BitSet {
	return bitset.New(uint(len(c.instances)))
}

// RandomCatalog generates a synthetic runtime matrix for benchmarks:
// every (instance, config) pair is solved with probability solveProb,
// with a runtime uniform in (0, maxRuntime]. All instances are registered
// even if nothing solves them.
func RandomCatalog(instances, configs int, solveProb, maxRuntime float64, rng *rand.Rand) *Catalog {
	if rng == nil {
		panic("генератор случайных чисел не инициализирован (nil)")
	}
	if instances <= 0 || configs <= 0 {
		panic("instances and configs must be > 0")
	}
	if solveProb < 0 || solveProb > 1 || maxRuntime <= 0 {
		panic("invalid solveProb/maxRuntime bounds")
	}

	instanceIDs := make([]string, instances)
	for i := range instanceIDs {
		instanceIDs[i] = "inst" + pad(i)
	}
	var facts []Fact
	for cfg := 0; cfg < configs; cfg++ {
		cfgID := "conf" + pad(cfg)
		for i := 0; i < instances; i++ {
			if rng.Float64() >= solveProb {
				continue
			}
			facts = append(facts, Fact{
				Instance: instanceIDs[i],
				Config:   cfgID,
				Runtime:  (1 - rng.Float64()) * maxRuntime,
			})
		}
	}
	c, err := NewCatalog(facts, instanceIDs...)
	if err != nil {
		panic(err)
	}
	return c
}

// pad keeps generated ids lexically ordered up to 4 digits.
func pad(i int) string {
	s := strconv.Itoa(i)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}
