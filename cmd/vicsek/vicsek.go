// Command vicsek runs simulations of the Vicsek model of collective motion.
//
// Usage
//
// The vicsek command takes one optional argument:
//  vicsek [config_file]
// It is the path to a TOML config file.
// If no config file is specified, an interactive simulation
// with default parameters will run in an OpenGL window.
//
// Config file
//
// The config file is written in TOML. If you are not familiar with TOML, fear not!
// It's basically a modern version of INI. Very very simple.
// See https://github.com/toml-lang/toml for the full language spec.
//
// Setting Output records a run to an HDF5 file. Setting Ensemble to two
// or more evolves that many independent replicas and prints the mean and
// variance of their final order parameters. Setting Replay plays back a
// recorded HDF5 file in an OpenGL window.
//
// Interactive mode
//
// In interactive mode, the simulation can be paused/resumed with space.
// While in pause, pressing right arrow will perform a single step.
// Pressing N draws a new random initial state and R resets the viewport.
// Pressing Esc or closing the window will quit.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/PrincetonUniversity/vicsek"
	"github.com/PrincetonUniversity/vicsek/hdf5"
	"github.com/PrincetonUniversity/vicsek/opengl"
	"github.com/guptarohit/asciigraph"
)

const usage = `Usage: vicsek [config_file]

The first argument is optional and is the path to a TOML config file.
If no config file is specified, an interactive simulation
with default parameters will run in an OpenGL window.
`

func init() {
	// Most OpenGL functions have to run from the main thread.
	// This is needed to arrange that main() runs on main thread.
	// See https://github.com/golang/go/wiki/LockOSThread for more info.
	runtime.LockOSThread()
}

func main() {
	var conf *Config
	var err error
	switch len(os.Args) {
	case 1:
		conf = DefaultConf
	case 2:
		conf, err = ParseConfig(os.Args[1])
	default:
		err = fmt.Errorf("%d arguments provided (0 required, 1 optional)\n\n%s", len(os.Args)-1, usage)
	}
	if err != nil {
		Fatal(err)
	}

	logger := newLogger(conf.LogLevel)

	// a replay needs no simulation of its own
	if conf.Replay != "" {
		if err := runReplay(conf, logger); err != nil {
			Fatal(err)
		}
		return
	}

	m := setup(conf, logger)

	// run an ensemble, an interactive window or a recorded simulation
	switch {
	case conf.Ensemble != 0:
		err = runEnsemble(conf, m, logger)
	case conf.Output == "":
		err = opengl.Run(m, &opengl.Config{
			Particles: m.Particles(),
			Step:      func() { m.Step() },
			Xmin:      0,
			Ymin:      0,
			Xmax:      m.Length(),
			Ymax:      m.Length(),
		})
	default:
		err = runHDF5(conf, m, logger)
	}
	if err != nil {
		Fatal(err)
	}
}

// Fatal prints an error on the standard output and exits with a non-zero status.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(1)
}

// newLogger builds a text logger for the requested level.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "", "info":
		l = slog.LevelInfo
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		Fatal(fmt.Errorf("bad log level %q", level))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// setup builds the model from the config.
func setup(conf *Config, logger *slog.Logger) *vicsek.Model {
	p := vicsek.Params{
		Length:  conf.Length,
		Density: conf.Density,
		Speed:   vicsek.Property(conf.Speed),
		Noise:   vicsek.Property(conf.Noise),
		Radius:  vicsek.Property(conf.Radius),
		Weights: vicsek.Property(conf.Weights),
	}

	switch conf.Metric {
	case "", "euclidean":
	case "periodic":
		p.Dist = vicsek.Periodic(conf.Length)
	default:
		Fatal(fmt.Errorf("bad metric %q", conf.Metric))
	}

	m, err := vicsek.New(p)
	if err != nil {
		Fatal(err)
	}
	if conf.Reproducible {
		m.InitState(true)
	}

	logger.Info("model ready",
		"particles", m.Particles(),
		"length", m.Length(),
		"density", m.Density(),
		"metric", conf.Metric,
	)
	return m
}

// runHDF5 evolves the model while recording positions, headings
// and the order parameter at every step.
func runHDF5(conf *Config, m *vicsek.Model, logger *slog.Logger) error {
	n := m.Particles()
	prog := newMeter(conf.Steps)
	opt := vicsek.EvolveOptions{
		TrackOrderParameter: conf.Track,
		Interval:            conf.Interval,
		Progress:            prog,
	}

	logger.Info("recording simulation", "output", conf.Output, "steps", conf.Steps)

	err := hdf5.Run(m, &hdf5.Config{
		Output: conf.Output,
		Steps:  conf.Steps,
		Step:   func() { m.Evolve(1, opt) },
		Attrs:  conf,
		Datasets: []*hdf5.Dataset{
			{
				Name: "positions",
				Val:  vicsek.Point{},
				Dims: []int{n},
				Data: positions(n),
			},
			{
				Name: "headings",
				Val:  0.0,
				Dims: []int{n},
				Data: headings(n),
			},
			{
				Name: "order_parameter",
				Val:  0.0,
				Data: func(m *vicsek.Model) interface{} {
					φ := m.OrderParameter()
					return &φ
				},
			},
		},
	})
	if err != nil {
		return err
	}
	prog.Done()

	if conf.Track {
		if err := hdf5.WriteTrajectory(conf.Output, m.Trajectory()); err != nil {
			return err
		}
		if conf.Chart {
			printChart(m.Trajectory())
		}
	}

	logger.Info("simulation saved", "output", conf.Output, "order", m.OrderParameter())
	return nil
}

// positions returns a dataset function copying current particle positions.
func positions(size int) func(m *vicsek.Model) interface{} {
	return func(m *vicsek.Model) interface{} {
		p := make([]vicsek.Point, size)
		copy(p, m.Positions())
		return &p
	}
}

// headings returns a dataset function copying current particle headings.
func headings(size int) func(m *vicsek.Model) interface{} {
	return func(m *vicsek.Model) interface{} {
		h := make([]float64, size)
		copy(h, m.Headings())
		return &h
	}
}

// runEnsemble evolves independent replicas and reports order parameter statistics.
func runEnsemble(conf *Config, m *vicsek.Model, logger *slog.Logger) error {
	prog := newMeter(conf.Steps * conf.Ensemble)
	mean, variance, err := m.EvolveEnsemble(conf.Steps, conf.Ensemble, vicsek.EnsembleOptions{
		Progress: prog,
		Workers:  conf.Workers,
	})
	if err != nil {
		return err
	}
	prog.Done()

	logger.Info("ensemble finished",
		"replicas", conf.Ensemble,
		"steps", conf.Steps,
		"workers", conf.Workers,
	)
	fmt.Printf("order parameter: mean %.6g, variance %.6g\n", mean, variance)
	return nil
}

// runReplay plays back a recorded run in an OpenGL window.
// The arena side comes from the current config, so replay a run
// with the config file that produced it.
func runReplay(conf *Config, logger *slog.Logger) error {
	l, err := hdf5.NewLoader(conf.Replay)
	if err != nil {
		return err
	}
	defer l.Close()

	// the model only provides state storage for the recorded frames,
	// with the density padded so rounding cannot drop the last particle
	n := l.Particles()
	m, err := vicsek.New(vicsek.Params{
		Length:  conf.Length,
		Density: (float64(n) + 0.5) / (conf.Length * conf.Length),
		Speed:   vicsek.Uniform(0),
		Noise:   vicsek.Uniform(0),
	})
	if err != nil {
		return err
	}
	if m.Particles() != n {
		return fmt.Errorf("replay: model holds %d particles, file has %d", m.Particles(), n)
	}

	logger.Info("replaying", "input", conf.Replay, "steps", l.Steps(), "particles", n)

	return opengl.Run(m, &opengl.Config{
		Particles: n,
		Step: func() {
			if err := l.Load(m); err != nil {
				Fatal(err)
			}
		},
		Xmin: 0,
		Ymin: 0,
		Xmax: m.Length(),
		Ymax: m.Length(),
	})
}

// printChart renders the order parameter trajectory as an ASCII chart.
func printChart(t *vicsek.Trajectory) {
	if t.Len() < 2 {
		return
	}
	fmt.Println(asciigraph.Plot(t.Values(),
		asciigraph.Height(12),
		asciigraph.Width(72),
		asciigraph.Caption("order parameter"),
	))
}
