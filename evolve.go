package vicsek

import (
	"fmt"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// defaultInterval is the trajectory sampling interval in steps.
const defaultInterval = 10

// A ProgressSink receives notifications as a long evolution advances.
// Evolve calls it once per step; a nil sink is always allowed.
type ProgressSink interface {
	// Advance reports that n more steps have completed.
	Advance(n int)

	// SetLabel replaces the progress label.
	SetLabel(label string)
}

// A Trajectory records the order parameter at sampled steps, in step order.
type Trajectory struct {
	steps  []int
	values map[int]float64
}

func newTrajectory() *Trajectory {
	return &Trajectory{values: make(map[int]float64)}
}

func (t *Trajectory) record(step int, v float64) {
	if _, ok := t.values[step]; !ok {
		t.steps = append(t.steps, step)
	}
	t.values[step] = v
}

// Len returns the number of recorded samples.
func (t *Trajectory) Len() int { return len(t.steps) }

// Steps returns the recorded step indices in recording order.
func (t *Trajectory) Steps() []int { return t.steps }

// At returns the order parameter recorded at the given step.
func (t *Trajectory) At(step int) (float64, bool) {
	v, ok := t.values[step]
	return v, ok
}

// Values returns the recorded order parameters in recording order.
func (t *Trajectory) Values() []float64 {
	v := make([]float64, len(t.steps))
	for i, k := range t.steps {
		v[i] = t.values[k]
	}
	return v
}

// EvolveOptions control a call to Evolve.
type EvolveOptions struct {
	// TrackOrderParameter records the order parameter while evolving.
	TrackOrderParameter bool

	// Interval is the sampling interval in steps when tracking.
	// Zero or negative means the default of 10.
	Interval int

	// Progress, if non-nil, is advanced once per step.
	Progress ProgressSink
}

// Evolve advances the simulation by the given number of steps. When
// tracking, the order parameter is recorded at every step that is a
// multiple of the sampling interval. The trajectory accumulates across
// calls and resets only on (re)initialization.
func (m *Model) Evolve(steps int, opt EvolveOptions) {
	interval := opt.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	for k := 0; k < steps; k++ {
		m.Step()
		if opt.TrackOrderParameter && m.step%interval == 0 {
			m.traj.record(m.step, m.OrderParameter())
		}
		if opt.Progress != nil {
			opt.Progress.Advance(1)
		}
	}
}

// EnsembleOptions control a call to EvolveEnsemble.
type EnsembleOptions struct {
	// Progress, if non-nil, is advanced across all replicas and relabeled
	// as replicas complete.
	Progress ProgressSink

	// Workers caps the number of replicas evolved concurrently.
	// Zero or one evolves all replicas sequentially in place.
	Workers int
}

// EvolveEnsemble evolves an ensemble of freshly initialized replicas for
// the given number of steps each and returns the mean and unbiased sample
// variance of their final order parameters. At least two replicas are
// needed for the variance estimate.
//
// With Workers <= 1 the model itself is reinitialized and reused for every
// replica, so the receiver holds the last replica's state afterwards and
// progress advances once per step. With Workers > 1 each worker evolves
// its own replica with an independent random source, the receiver is left
// untouched, and progress advances as replicas complete.
func (m *Model) EvolveEnsemble(steps, size int, opt EnsembleOptions) (mean, variance float64, err error) {
	if size < 2 {
		return 0, 0, fmt.Errorf("%d replicas: %w", size, ErrEnsembleSize)
	}
	final := make([]float64, size)
	if opt.Workers > 1 {
		m.evolveReplicas(steps, final, opt)
	} else {
		for i := range final {
			m.InitState(false)
			m.Evolve(steps, EvolveOptions{Progress: opt.Progress})
			final[i] = m.OrderParameter()
			if opt.Progress != nil {
				opt.Progress.SetLabel(fmt.Sprintf("completed %d of %d simulations", i+1, size))
			}
		}
	}
	mean, variance = stat.MeanVariance(final, nil)
	return mean, variance, nil
}

// evolveReplicas runs one independent replica per ensemble member on a
// bounded pool of workers. Replica seeds are drawn up front from a fresh
// parent source so replicas stay independent however they are scheduled.
func (m *Model) evolveReplicas(steps int, final []float64, opt EnsembleOptions) {
	seeds := make([]int64, len(final))
	src := rand.New(rand.NewSource(freshSeed()))
	for i := range seeds {
		seeds[i] = src.Int63()
	}

	workers := opt.Workers
	if workers > len(final) {
		workers = len(final)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex // guards progress updates
		done int
	)
	idx := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := m.replica()
			for i := range idx {
				r.Seed(seeds[i])
				r.initState()
				r.Evolve(steps, EvolveOptions{})
				final[i] = r.OrderParameter()
				if opt.Progress != nil {
					mu.Lock()
					done++
					opt.Progress.Advance(steps)
					opt.Progress.SetLabel(fmt.Sprintf("completed %d of %d simulations", done, len(final)))
					mu.Unlock()
				}
			}
		}()
	}
	for i := range final {
		idx <- i
	}
	close(idx)
	wg.Wait()
}

// replica returns a model with the same parameters sharing no mutable
// state with m. Its random source must be seeded before use.
func (m *Model) replica() *Model {
	return &Model{
		length:    m.length,
		density:   m.density,
		n:         m.n,
		raw:       m.raw,
		speed:     append([]float64(nil), m.speed...),
		noise:     append([]float64(nil), m.noise...),
		radius:    append([]float64(nil), m.radius...),
		weights:   append([]float64(nil), m.weights...),
		positions: make([]Point, m.n),
		headings:  make([]float64, m.n),
		scratch:   make([]float64, m.n),
		dist:      m.dist,
		rng:       rand.New(rand.NewSource(reproducibleSeed)),
	}
}
