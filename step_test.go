package vicsek

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// lone builds a deterministic single-particle model.
func lone(t *testing.T, speed float64) *Model {
	t.Helper()
	return newTestModel(t, Params{Length: 10, Density: 0.01, Speed: Uniform(speed), Noise: Uniform(0)})
}

// pair builds a two-particle model with zero noise and fixed headings.
func pair(t *testing.T, p Params, x0, x1 Point, θ0, θ1 float64) *Model {
	t.Helper()
	m := newTestModel(t, p)
	require.Equal(t, 2, m.Particles())
	m.Positions()[0] = x0
	m.Positions()[1] = x1
	m.Headings()[0] = θ0
	m.Headings()[1] = θ1
	return m
}

func TestStepStraightLine(t *testing.T) {
	t.Parallel()
	m := lone(t, 0.5)
	m.Positions()[0] = Point{2, 3}
	m.Headings()[0] = 0
	m.Step()
	assert.InDelta(t, 2.5, m.Positions()[0].X, 1e-12)
	assert.InDelta(t, 3, m.Positions()[0].Y, 1e-12)
	assert.InDelta(t, 0, m.Headings()[0], 1e-12)
	assert.Equal(t, 1, m.CurrentStep())
}

func TestStepWrapsPositions(t *testing.T) {
	t.Parallel()

	t.Run("off the high edge", func(t *testing.T) {
		t.Parallel()
		m := lone(t, 1)
		m.Positions()[0] = Point{9.5, 5}
		m.Headings()[0] = 0
		m.Step()
		assert.InDelta(t, 0.5, m.Positions()[0].X, 1e-12)
	})

	t.Run("off the low edge", func(t *testing.T) {
		t.Parallel()
		m := lone(t, 1)
		m.Positions()[0] = Point{0.3, 5}
		m.Headings()[0] = math.Pi
		m.Step()
		assert.InDelta(t, 9.3, m.Positions()[0].X, 1e-12)
	})
}

func TestStepSynchronousAlignment(t *testing.T) {
	t.Parallel()
	p := Params{Length: 10, Density: 0.02, Speed: Uniform(0), Noise: Uniform(0)}
	m := pair(t, p, Point{1, 1}, Point{1.5, 1}, 0, math.Pi/2)
	m.Step()
	// both see both neighbors, so both land on the mean of the old headings
	assert.InDelta(t, math.Pi/4, m.Headings()[0], 1e-12)
	assert.InDelta(t, math.Pi/4, m.Headings()[1], 1e-12)
}

func TestStepUsesFocalRadius(t *testing.T) {
	t.Parallel()
	p := Params{
		Length:  10,
		Density: 0.02,
		Speed:   Uniform(0),
		Noise:   Uniform(0),
		Radius:  Property{0.5, 5}, // expands to [5, 0.5]
	}
	m := pair(t, p, Point{1, 1}, Point{3, 1}, 0, math.Pi/2)
	require.Equal(t, []float64{5, 0.5}, m.Radius())
	m.Step()
	// particle 0 sees both, particle 1 only itself
	assert.InDelta(t, math.Pi/4, m.Headings()[0], 1e-12)
	assert.InDelta(t, math.Pi/2, m.Headings()[1], 1e-12)
}

func TestStepWeightedMean(t *testing.T) {
	t.Parallel()
	p := Params{
		Length:  10,
		Density: 0.02,
		Speed:   Uniform(0),
		Noise:   Uniform(0),
		Weights: Property{2, 1}, // expands to [1, 2]
	}
	m := pair(t, p, Point{1, 1}, Point{1.5, 1}, 0, math.Pi/2)
	require.Equal(t, []float64{1, 2}, m.Weights())
	m.Step()
	// mean direction of 1·(1,0) + 2·(0,1)
	want := math.Atan2(2, 1)
	assert.InDelta(t, want, m.Headings()[0], 1e-12)
	assert.InDelta(t, want, m.Headings()[1], 1e-12)
}

func TestStepNoiseBounded(t *testing.T) {
	t.Parallel()
	const η = 0.8
	m := newTestModel(t, Params{Length: 10, Density: 0.01, Speed: Uniform(0.1), Noise: Uniform(η)})
	m.InitState(true)
	moved := false
	for s := 0; s < 200; s++ {
		before := m.Headings()[0]
		m.Step()
		// the deflection from the alignment target is the circular difference
		d := math.Mod(m.Headings()[0]-before+3*math.Pi, 2*math.Pi) - math.Pi
		assert.LessOrEqual(t, math.Abs(d), η/2+1e-12)
		if d != 0 {
			moved = true
		}
	}
	assert.True(t, moved)
}

func TestStepDrawsNoiseAtZeroAmplitude(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, Params{Length: 5, Density: 1, Speed: Uniform(1), Noise: Uniform(0)})
	m.InitState(true)
	m.Step()

	// a reproducible source consumes 2n position and n heading draws at
	// initialization, then one noise draw per particle per step even at
	// zero amplitude
	ref := rand.New(rand.NewSource(reproducibleSeed))
	for i := 0; i < 4*m.Particles(); i++ {
		ref.Float64()
	}
	assert.Equal(t, ref.Float64(), m.rng.Float64())
}

func TestOrderParameter(t *testing.T) {
	t.Parallel()

	t.Run("aligned swarm scores one", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, Params{Length: 5, Density: 1, Speed: Uniform(0.7), Noise: Uniform(0)})
		for i := range m.Headings() {
			m.Headings()[i] = 1.3
		}
		assert.InDelta(t, 1, m.OrderParameter(), 1e-12)
	})

	t.Run("antialigned pair scores zero", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, Params{Length: 10, Density: 0.02, Speed: Uniform(1), Noise: Uniform(0)})
		m.Headings()[0] = 0
		m.Headings()[1] = math.Pi
		assert.InDelta(t, 0, m.OrderParameter(), 1e-12)
	})

	t.Run("invariant under rotation", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, Params{Length: 5, Density: 1, Speed: Uniform(1), Noise: Uniform(0.4)})
		m.InitState(true)
		before := m.OrderParameter()
		floats.AddConst(0.9, m.Headings())
		assert.InDelta(t, before, m.OrderParameter(), 1e-9)
	})

	t.Run("stays within unit range", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, Params{Length: 5, Density: 1, Speed: Uniform(0.3), Noise: Uniform(2)})
		m.InitState(true)
		for s := 0; s < 50; s++ {
			m.Step()
			φ := m.OrderParameter()
			assert.GreaterOrEqual(t, φ, 0.0)
			assert.LessOrEqual(t, φ, 1+1e-12)
		}
	})
}

func TestMetricModes(t *testing.T) {
	t.Parallel()
	base := Params{Length: 10, Density: 0.02, Speed: Uniform(0), Noise: Uniform(0), Radius: Uniform(2)}

	t.Run("euclidean ignores the wrap", func(t *testing.T) {
		t.Parallel()
		m := pair(t, base, Point{0.5, 5}, Point{9.5, 5}, 0, math.Pi/2)
		m.Step()
		// 9 apart on the plain metric, so no interaction
		assert.InDelta(t, 0, m.Headings()[0], 1e-12)
		assert.InDelta(t, math.Pi/2, m.Headings()[1], 1e-12)
	})

	t.Run("periodic sees across the wrap", func(t *testing.T) {
		t.Parallel()
		p := base
		p.Dist = Periodic(10)
		m := pair(t, p, Point{0.5, 5}, Point{9.5, 5}, 0, math.Pi/2)
		m.Step()
		// 1 apart through the boundary
		assert.InDelta(t, math.Pi/4, m.Headings()[0], 1e-12)
		assert.InDelta(t, math.Pi/4, m.Headings()[1], 1e-12)
	})
}

func TestZeroNoiseOrderIncreases(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, Params{Length: 10, Density: 1, Speed: Uniform(1), Noise: Uniform(0)})
	m.InitState(true)
	before := m.OrderParameter()
	m.Evolve(100, EvolveOptions{})
	assert.Greater(t, m.OrderParameter(), before)
}
