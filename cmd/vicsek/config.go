package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// A property is the value of a per-particle parameter.
// In the config file it is either a single number shared by all particles
// or an array of numbers filled in from the highest particle index down.
type property []float64

// UnmarshalTOML decodes a number or an array of numbers.
func (p *property) UnmarshalTOML(v interface{}) error {
	switch x := v.(type) {
	case int64:
		*p = property{float64(x)}
	case float64:
		*p = property{x}
	case []interface{}:
		q := make(property, 0, len(x))
		for _, e := range x {
			switch n := e.(type) {
			case int64:
				q = append(q, float64(n))
			case float64:
				q = append(q, n)
			default:
				return fmt.Errorf("property element %v is not a number", e)
			}
		}
		*p = q
	default:
		return fmt.Errorf("property %v is not a number or an array of numbers", v)
	}
	return nil
}

// Config holds the various parameters required for running a simulation.
type Config struct {
	// Output is either a filename (path) for the HDF5 output file,
	// or the empty string for an interactive OpenGL simulation.
	Output string

	// Replay is the path of a recorded HDF5 output to play back
	// in an OpenGL window instead of running a new simulation.
	Replay string

	Steps    int // number of time steps (hdf5 and ensemble only)
	Ensemble int // number of replicas, at least 2 enables ensemble statistics
	Workers  int // replicas evolved concurrently (ensemble only)

	// Arena parameters
	Length  float64 // side of the square arena, unit: body length
	Density float64 // particles per unit area

	// Particle parameters
	Speed   property // unit: body length/time
	Noise   property // amplitude of angular noise, unit: rad
	Radius  property // interaction radius, unit: body length
	Weights property // relative weight in the heading average, unit: 1

	// Metric selects the distance function. Possible values: euclidean, periodic.
	Metric string

	// Order parameter tracking parameters
	Track    bool // record the order parameter while evolving?
	Interval int  // steps between samples
	Chart    bool // print the tracked trajectory as an ASCII chart (hdf5 only)

	// Reproducible seeds the generator with a fixed value.
	Reproducible bool

	LogLevel string // possible values: debug, info, warn, error
}

// DefaultConf are the default parameters.
var DefaultConf = &Config{
	Output:       "",
	Steps:        1000,
	Ensemble:     0,
	Workers:      1,
	Length:       25,
	Density:      0.5,
	Speed:        property{0.3},
	Noise:        property{0.5},
	Radius:       property{1},
	Weights:      property{1},
	Metric:       "euclidean",
	Track:        true,
	Interval:     10,
	Chart:        true,
	Reproducible: false,
	LogLevel:     "info",
}

// ParseConfig parses the TOML config file whose path is provided.
func ParseConfig(path string) (*Config, error) {
	// config file overwrites a copy of the default parameters
	conf := *DefaultConf
	_, err := toml.DecodeFile(path, &conf)
	return &conf, err
}
