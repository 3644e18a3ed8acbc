package vicsek

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestModel builds a model and fails the test on error.
func newTestModel(t *testing.T, p Params) *Model {
	t.Helper()
	m, err := New(p)
	require.NoError(t, err)
	return m
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("particle count floors density times area", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, Params{Length: 3.5, Density: 0.5, Speed: Uniform(1), Noise: Uniform(0)})
		assert.Equal(t, 6, m.Particles()) // floor(0.5 * 3.5²)
		assert.Len(t, m.Positions(), 6)
		assert.Len(t, m.Headings(), 6)
	})

	t.Run("radius and weights default to one", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, Params{Length: 10, Density: 0.02, Speed: Uniform(1), Noise: Uniform(0)})
		assert.Equal(t, []float64{1, 1}, m.Radius())
		assert.Equal(t, []float64{1, 1}, m.Weights())
	})

	t.Run("positions start inside the arena", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, Params{Length: 5, Density: 1, Speed: Uniform(1), Noise: Uniform(0)})
		for _, p := range m.Positions() {
			assert.GreaterOrEqual(t, p.X, 0.0)
			assert.Less(t, p.X, 5.0)
			assert.GreaterOrEqual(t, p.Y, 0.0)
			assert.Less(t, p.Y, 5.0)
		}
	})

	t.Run("non-positive domain", func(t *testing.T) {
		t.Parallel()
		_, err := New(Params{Length: 0, Density: 1, Speed: Uniform(1), Noise: Uniform(0)})
		assert.ErrorIs(t, err, ErrDomain)
		_, err = New(Params{Length: 10, Density: -1, Speed: Uniform(1), Noise: Uniform(0)})
		assert.ErrorIs(t, err, ErrDomain)
	})

	t.Run("domain without particles", func(t *testing.T) {
		t.Parallel()
		_, err := New(Params{Length: 1, Density: 0.5, Speed: Uniform(1), Noise: Uniform(0)})
		assert.ErrorIs(t, err, ErrNoParticles)
	})

	t.Run("missing speed", func(t *testing.T) {
		t.Parallel()
		_, err := New(Params{Length: 5, Density: 1, Noise: Uniform(0)})
		assert.ErrorIs(t, err, ErrNoValues)
	})

	t.Run("oversized property", func(t *testing.T) {
		t.Parallel()
		_, err := New(Params{Length: 10, Density: 0.02, Speed: Property{1, 2, 3}, Noise: Uniform(0)})
		assert.ErrorIs(t, err, ErrPropertyCount)
	})

	t.Run("negative weight", func(t *testing.T) {
		t.Parallel()
		_, err := New(Params{Length: 5, Density: 1, Speed: Uniform(1), Noise: Uniform(0), Weights: Property{-1}})
		assert.ErrorIs(t, err, ErrNegativeWeight)
	})
}

func TestReproducibleInit(t *testing.T) {
	t.Parallel()
	p := Params{Length: 5, Density: 1, Speed: Uniform(0.5), Noise: Uniform(0.3)}
	a := newTestModel(t, p)
	b := newTestModel(t, p)
	a.InitState(true)
	b.InitState(true)
	assert.Equal(t, a.Positions(), b.Positions())
	assert.Equal(t, a.Headings(), b.Headings())

	// and stepping stays in lockstep
	a.Step()
	b.Step()
	assert.Equal(t, a.Positions(), b.Positions())
	assert.Equal(t, a.Headings(), b.Headings())
}

func TestFreshInitDiffers(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, Params{Length: 5, Density: 1, Speed: Uniform(0.5), Noise: Uniform(0.3)})
	first := append([]Point(nil), m.Positions()...)
	m.InitState(false)
	assert.NotEqual(t, first, m.Positions())
}

func TestInitRecordsTrajectory(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, Params{Length: 5, Density: 1, Speed: Uniform(1), Noise: Uniform(0.2)})
	m.InitState(true)
	assert.Equal(t, 0, m.CurrentStep())
	assert.Equal(t, []int{0}, m.Trajectory().Steps())
	v, ok := m.Trajectory().At(0)
	require.True(t, ok)
	assert.InDelta(t, m.OrderParameter(), v, 1e-15)
}

func TestReconfigure(t *testing.T) {
	t.Parallel()

	t.Run("resizes and resets", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, Params{Length: 5, Density: 1, Speed: Uniform(1), Noise: Uniform(0)})
		m.Evolve(3, EvolveOptions{})
		require.NoError(t, m.Reconfigure(4, 0.5))
		assert.Equal(t, 8, m.Particles())
		assert.Equal(t, 4.0, m.Length())
		assert.Equal(t, 0.5, m.Density())
		assert.Equal(t, 0, m.CurrentStep())
		assert.Len(t, m.Speed(), 8)
		assert.Len(t, m.Positions(), 8)
		assert.Equal(t, []int{0}, m.Trajectory().Steps())
	})

	t.Run("rejects a bad domain", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, Params{Length: 5, Density: 1, Speed: Uniform(1), Noise: Uniform(0)})
		assert.ErrorIs(t, m.Reconfigure(-1, 1), ErrDomain)
	})

	t.Run("fails atomically", func(t *testing.T) {
		t.Parallel()
		m := newTestModel(t, Params{Length: 5, Density: 1, Speed: Property{1, 2, 3, 4, 5}, Noise: Uniform(0)})
		err := m.Reconfigure(2, 1) // 4 particles cannot hold 5 speed values
		assert.ErrorIs(t, err, ErrPropertyCount)
		assert.Equal(t, 25, m.Particles())
		assert.Equal(t, 5.0, m.Length())
		assert.Equal(t, 1.0, m.Density())
		assert.Len(t, m.Speed(), 25)
	})
}

func TestSetters(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, Params{Length: 10, Density: 0.04, Speed: Uniform(1), Noise: Uniform(0)}) // 4 particles

	require.NoError(t, m.SetSpeed(Property{2}))
	assert.Equal(t, []float64{2, 2, 2, 2}, m.Speed())

	require.NoError(t, m.SetRadius(Property{3, 1}))
	assert.Equal(t, []float64{1, 1, 1, 3}, m.Radius())

	err := m.SetNoise(Property{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, ErrPropertyCount)
	assert.Equal(t, []float64{0, 0, 0, 0}, m.Noise()) // untouched

	assert.ErrorIs(t, m.SetWeights(Property{-1}), ErrNegativeWeight)

	// setters do not reinitialize the state
	before := append([]Point(nil), m.Positions()...)
	require.NoError(t, m.SetSpeed(Uniform(1)))
	assert.Equal(t, before, m.Positions())
}

func TestVelocities(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, Params{Length: 10, Density: 0.02, Speed: Uniform(2), Noise: Uniform(0)})
	m.Headings()[0] = 0
	m.Headings()[1] = math.Pi / 2
	v := m.Velocities()
	assert.InDelta(t, 2, v[0].X, 1e-12)
	assert.InDelta(t, 0, v[0].Y, 1e-12)
	assert.InDelta(t, 0, v[1].X, 1e-12)
	assert.InDelta(t, 2, v[1].Y, 1e-12)
}
