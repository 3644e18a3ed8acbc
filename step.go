package vicsek

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// A DistanceFunc returns the distance between two points.
type DistanceFunc func(a, b Point) float64

// Euclidean is the plain Euclidean distance.
func Euclidean(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Periodic returns the minimum-image distance on a square domain with the
// given side. The side must match the arena length of the model using it.
func Periodic(size float64) DistanceFunc {
	return func(a, b Point) float64 {
		x, y := b.X-a.X, b.Y-a.Y
		if 2*x <= -size {
			x += size
		} else if 2*x > size {
			x -= size
		}
		if 2*y <= -size {
			y += size
		} else if 2*y > size {
			y -= size
		}
		return math.Hypot(x, y)
	}
}

// Step advances the simulation by one tick.
//
// The neighborhood of particle i is every particle j, itself included, with
// dist(i,j) < radius[i]. All new headings are computed from the current
// state before any is committed, then positions advance along the new
// headings and wrap into the arena.
func (m *Model) Step() {
	for i := range m.headings {
		var ss, sc float64
		for j, θ := range m.headings {
			if m.dist(m.positions[i], m.positions[j]) < m.radius[i] {
				sin, cos := math.Sincos(θ)
				ss += m.weights[j] * sin
				sc += m.weights[j] * cos
			}
		}
		// one noise draw per particle per tick, even at zero amplitude
		m.scratch[i] = math.Atan2(ss, sc) + (m.rng.Float64()-0.5)*m.noise[i]
	}
	copy(m.headings, m.scratch)

	for i, θ := range m.headings {
		sin, cos := math.Sincos(θ)
		m.positions[i] = m.wrap(Point{
			X: m.positions[i].X + m.speed[i]*cos,
			Y: m.positions[i].Y + m.speed[i]*sin,
		})
	}
	m.step++
}

// wrap folds a point into [0,length)².
func (m *Model) wrap(p Point) Point {
	p.X = math.Mod(p.X, m.length)
	if p.X < 0 {
		p.X += m.length
	}
	p.Y = math.Mod(p.Y, m.length)
	if p.Y < 0 {
		p.Y += m.length
	}
	return p
}

// Velocities returns the velocity of each particle.
func (m *Model) Velocities() []Point {
	v := make([]Point, m.n)
	for i, θ := range m.headings {
		sin, cos := math.Sincos(θ)
		v[i] = Point{X: m.speed[i] * cos, Y: m.speed[i] * sin}
	}
	return v
}

// OrderParameter returns the magnitude of the mean velocity normalized by
// the mean speed. It is 1 when all particles move in the same direction
// and near 0 in disordered states. A zero mean speed yields NaN.
func (m *Model) OrderParameter() float64 {
	var vx, vy float64
	for i, θ := range m.headings {
		sin, cos := math.Sincos(θ)
		vx += m.speed[i] * cos
		vy += m.speed[i] * sin
	}
	n := float64(m.n)
	return math.Hypot(vx/n, vy/n) / stat.Mean(m.speed, nil)
}
