package portfolio

import (
	"errors"
	"fmt"
)

// ErrMalformedFact reports a runtime observation that cannot be trusted:
// a negative runtime or an empty identifier. Ingestion aborts on it.
var ErrMalformedFact = errors.New("malformed runtime fact")

// Fact is a single empirical observation: configuration Config solves
// instance Instance within Runtime time units. The absence of a fact for
// a pair means that configuration never solves that instance.
type Fact struct {
	Instance string
	Config   string
	Runtime  float64
}

func (f Fact) Validate() error {
	if f.Instance == "" {
		return fmt.Errorf("%w: empty instance id", ErrMalformedFact)
	}
	if f.Config == "" {
		return fmt.Errorf("%w: empty configuration id (instance %q)", ErrMalformedFact, f.Instance)
	}
	if f.Runtime < 0 {
		return fmt.Errorf("%w: negative runtime %v for (%s, %s)", ErrMalformedFact, f.Runtime, f.Instance, f.Config)
	}
	return nil
}
