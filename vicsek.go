// Package vicsek simulates the two-dimensional Vicsek model of collective motion.
//
// A fixed number of point particles move at constant individual speeds in a
// square arena with periodic boundaries. At every time step each particle
// adopts the weighted circular mean heading of its neighborhood, perturbed by
// uniform angular noise (Vicsek et al., Phys. Rev. Lett. 75, 1226 (1995)).
// Speed, noise amplitude, interaction radius and alignment weight can all be
// set per particle.
package vicsek

import (
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"
	"time"
)

// reproducibleSeed initializes the random source for reproducible runs.
const reproducibleSeed = 123456

// A Point is a simple 2D vector.
type Point struct {
	X float64
	Y float64
}

// Params holds the constructor parameters of a model.
type Params struct {
	// Length is the side of the square arena.
	Length float64

	// Density sets the particle count: N = floor(Density * Length²).
	Density float64

	// Speed, Noise, Radius and Weights are per-particle properties.
	// Radius and Weights may be nil, meaning a uniform value of 1.
	Speed   Property
	Noise   Property
	Radius  Property
	Weights Property

	// Dist measures the distance between two particles. Nil means plain
	// Euclidean distance, which does not see across the boundary even
	// though positions wrap; use Periodic to make neighborhoods wrap
	// like positions do.
	Dist DistanceFunc
}

// A Model holds the full state and parameters of a Vicsek simulation.
// It owns its random source, so concurrent use requires external locking;
// independent models are safe to run concurrently.
type Model struct {
	length  float64
	density float64
	n       int

	// raw property inputs, kept for re-expansion when the count changes
	raw struct {
		speed, noise, radius, weights Property
	}

	// expanded properties, one value per particle
	speed   []float64
	noise   []float64
	radius  []float64
	weights []float64

	positions []Point
	headings  []float64
	step      int
	traj      *Trajectory

	dist    DistanceFunc
	rng     *rand.Rand
	scratch []float64 // next headings, committed only once all are computed
}

// New returns a model with a fresh random initial state.
func New(p Params) (*Model, error) {
	if p.Length <= 0 || p.Density <= 0 {
		return nil, fmt.Errorf("length %g, density %g: %w", p.Length, p.Density, ErrDomain)
	}
	m := &Model{
		dist: p.Dist,
		rng:  rand.New(rand.NewSource(reproducibleSeed)),
	}
	if m.dist == nil {
		m.dist = Euclidean
	}
	m.raw.speed = p.Speed
	m.raw.noise = p.Noise
	m.raw.radius = p.Radius
	m.raw.weights = p.Weights
	if m.raw.radius == nil {
		m.raw.radius = Uniform(1)
	}
	if m.raw.weights == nil {
		m.raw.weights = Uniform(1)
	}
	if err := m.resize(p.Length, p.Density); err != nil {
		return nil, err
	}
	m.InitState(false)
	return m, nil
}

// resize recomputes the particle count for a new arena and re-expands all
// raw properties. The model is only modified once everything validates.
func (m *Model) resize(length, density float64) error {
	n := int(density * length * length)
	if n < 1 {
		return fmt.Errorf("side %g at density %g: %w", length, density, ErrNoParticles)
	}
	speed, err := expand(m.raw.speed, n)
	if err != nil {
		return fmt.Errorf("speed: %w", err)
	}
	noise, err := expand(m.raw.noise, n)
	if err != nil {
		return fmt.Errorf("noise: %w", err)
	}
	radius, err := expand(m.raw.radius, n)
	if err != nil {
		return fmt.Errorf("radius: %w", err)
	}
	if err := nonNegative(m.raw.weights); err != nil {
		return err
	}
	weights, err := expand(m.raw.weights, n)
	if err != nil {
		return fmt.Errorf("weights: %w", err)
	}

	m.length, m.density, m.n = length, density, n
	m.speed, m.noise, m.radius, m.weights = speed, noise, radius, weights
	m.positions = make([]Point, n)
	m.headings = make([]float64, n)
	m.scratch = make([]float64, n)
	return nil
}

// Reconfigure resizes the arena, recomputes the particle count and draws a
// fresh random initial state. On error the model is left untouched.
func (m *Model) Reconfigure(length, density float64) error {
	if length <= 0 || density <= 0 {
		return fmt.Errorf("length %g, density %g: %w", length, density, ErrDomain)
	}
	if err := m.resize(length, density); err != nil {
		return err
	}
	m.InitState(false)
	return nil
}

// InitState draws a fresh initial state: positions uniform over the arena,
// headings uniform over [0,2π), step counter and trajectory reset. With
// reproducible set, the random source is first seeded with a fixed seed so
// that two initializations yield identical states; otherwise it is freshly
// reseeded.
func (m *Model) InitState(reproducible bool) {
	if reproducible {
		m.Seed(reproducibleSeed)
	} else {
		m.Reseed()
	}
	m.initState()
}

func (m *Model) initState() {
	for i := range m.positions {
		m.positions[i].X = m.rng.Float64() * m.length
		m.positions[i].Y = m.rng.Float64() * m.length
	}
	for i := range m.headings {
		m.headings[i] = 2 * math.Pi * m.rng.Float64()
	}
	m.step = 0
	m.traj = newTrajectory()
	m.traj.record(0, m.OrderParameter())
}

// Seed seeds the model's random source.
func (m *Model) Seed(seed int64) {
	m.rng.Seed(seed)
}

// Reseed seeds the model's random source freshly.
func (m *Model) Reseed() {
	m.Seed(freshSeed())
}

// seedCounter separates fresh seeds taken within the clock resolution.
var seedCounter int64

// freshSeed returns a new non-reproducible seed. Ensemble replicas may ask
// for seeds in quick succession, so the wall clock alone is not enough.
func freshSeed() int64 {
	return time.Now().UnixNano() + atomic.AddInt64(&seedCounter, 1)
}

// SetSpeed replaces the per-particle speeds.
func (m *Model) SetSpeed(p Property) error {
	v, err := expand(p, m.n)
	if err != nil {
		return fmt.Errorf("speed: %w", err)
	}
	m.raw.speed, m.speed = p, v
	return nil
}

// SetNoise replaces the per-particle noise amplitudes.
func (m *Model) SetNoise(p Property) error {
	v, err := expand(p, m.n)
	if err != nil {
		return fmt.Errorf("noise: %w", err)
	}
	m.raw.noise, m.noise = p, v
	return nil
}

// SetRadius replaces the per-particle interaction radii.
// Radii must be positive for neighborhoods to include the particle itself.
func (m *Model) SetRadius(p Property) error {
	v, err := expand(p, m.n)
	if err != nil {
		return fmt.Errorf("radius: %w", err)
	}
	m.raw.radius, m.radius = p, v
	return nil
}

// SetWeights replaces the per-particle alignment weights.
// Weights must be non-negative.
func (m *Model) SetWeights(p Property) error {
	if err := nonNegative(p); err != nil {
		return err
	}
	v, err := expand(p, m.n)
	if err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	m.raw.weights, m.weights = p, v
	return nil
}

// Particles returns the number of particles.
func (m *Model) Particles() int { return m.n }

// Length returns the side of the square arena.
func (m *Model) Length() float64 { return m.length }

// Density returns the nominal particle density.
func (m *Model) Density() float64 { return m.density }

// CurrentStep returns the number of steps taken since initialization.
func (m *Model) CurrentStep() int { return m.step }

// Positions returns the particle positions as a live view.
func (m *Model) Positions() []Point { return m.positions }

// Headings returns the particle headings in radians as a live view.
// Headings are not folded into any interval.
func (m *Model) Headings() []float64 { return m.headings }

// Speed returns the expanded per-particle speeds as a live view.
func (m *Model) Speed() []float64 { return m.speed }

// Noise returns the expanded per-particle noise amplitudes as a live view.
func (m *Model) Noise() []float64 { return m.noise }

// Radius returns the expanded per-particle interaction radii as a live view.
func (m *Model) Radius() []float64 { return m.radius }

// Weights returns the expanded per-particle alignment weights as a live view.
func (m *Model) Weights() []float64 { return m.weights }

// Trajectory returns the order parameter trajectory recorded since the
// last initialization.
func (m *Model) Trajectory() *Trajectory { return m.traj }
