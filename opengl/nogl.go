//go:build nogl
// +build nogl

package opengl

import (
	"fmt"
	"os"

	"github.com/PrincetonUniversity/vicsek"
)

// Config holds the parameters of the OpenGL driver.
type Config struct {
	Particles  int    // number of particles
	Step       func() // go to next step
	ForcePause bool   // step manually only?

	// bounds of default viewport
	Xmin float64
	Ymin float64
	Xmax float64
	Ymax float64
}

// Run returns an error explaining that OpenGL support is disabled.
func Run(m *vicsek.Model, conf *Config) error {
	return fmt.Errorf("%s was built without OpenGL support", os.Args[0])
}
