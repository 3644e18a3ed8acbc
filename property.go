package vicsek

import (
	"fmt"
	"slices"
)

// A Property is the raw value of a per-particle model parameter: either a
// single value applying to every particle, or up to one value per particle.
// Given values are assigned from the highest particle index downward and
// the last given value fills the remaining particles.
type Property []float64

// Uniform returns a property holding a single value for all particles.
func Uniform(v float64) Property {
	return Property{v}
}

// expand broadcasts a property to one value per particle.
func expand(p Property, n int) ([]float64, error) {
	if len(p) == 0 {
		return nil, ErrNoValues
	}
	if len(p) > n {
		return nil, fmt.Errorf("%d values for %d particles: %w", len(p), n, ErrPropertyCount)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = p[len(p)-1]
	}
	copy(out, p)
	slices.Reverse(out)
	return out, nil
}

// nonNegative validates a raw weights property.
func nonNegative(p Property) error {
	for _, w := range p {
		if w < 0 {
			return fmt.Errorf("weight %g: %w", w, ErrNegativeWeight)
		}
	}
	return nil
}
