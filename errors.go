package vicsek

import "errors"

// Configuration errors reported by New, Reconfigure and the property setters.
var (
	// ErrDomain reports a non-positive arena length or density.
	ErrDomain = errors.New("vicsek: length and density must be positive")

	// ErrNoParticles reports a domain too small to hold a single particle.
	ErrNoParticles = errors.New("vicsek: domain holds no particles")

	// ErrNoValues reports an empty property.
	ErrNoValues = errors.New("vicsek: property needs at least one value")

	// ErrPropertyCount reports a property with more values than particles.
	ErrPropertyCount = errors.New("vicsek: more property values than particles")

	// ErrNegativeWeight reports a negative alignment weight.
	ErrNegativeWeight = errors.New("vicsek: weights must be non-negative")
)

// ErrEnsembleSize reports an ensemble too small for the unbiased variance
// estimate over final order parameters.
var ErrEnsembleSize = errors.New("vicsek: ensemble needs at least two replicas")
