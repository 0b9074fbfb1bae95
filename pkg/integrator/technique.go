package integrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
	"github.com/df07/go-bidirectional-tracer/pkg/scene"
)

// ErrUnknownTechnique is returned by New for a technique name it does not recognise
var ErrUnknownTechnique = errors.New("integrator: unknown technique")

const (
	// BPTMaxSubpath is the hard cap on subpath length for the balance heuristic estimator
	BPTMaxSubpath = 128
	// MBPTMaxSubpath is the hard cap for the power heuristic estimator
	MBPTMaxSubpath = 1024
)

// Technique estimates the radiance arriving along a camera ray. Preprocess
// binds the technique to a built scene; Trace is then safe to call from many
// goroutines as long as each one owns its sampler.
type Technique interface {
	Name() string
	Preprocess(s *scene.Scene) error
	Trace(sampler core.Sampler, ray core.Ray) core.Vec3
}

// Config holds the estimator parameters
type Config struct {
	MinSubpath int     // vertices before Russian roulette starts
	Roulette   float64 // survival probability once roulette is active
	Beta       float64 // MIS exponent, 1 is the balance heuristic
	MaxSubpath int     // hard cap on the number of vertices of either subpath, 0 for the default
}

// DefaultConfig returns the default estimator configuration
func DefaultConfig() Config {
	return Config{
		MinSubpath: 3,
		Roulette:   0.5,
		Beta:       1,
	}
}

func (c Config) validate() error {
	if c.MinSubpath < 0 {
		return fmt.Errorf("min subpath %d: %w", c.MinSubpath, core.ErrInvalidState)
	}
	if c.Roulette <= 0 || c.Roulette > 1 {
		return fmt.Errorf("roulette %v must be in (0, 1]: %w", c.Roulette, core.ErrInvalidState)
	}
	if c.Beta <= 0 || !core.IsFinite(c.Beta) {
		return fmt.Errorf("beta %v: %w", c.Beta, core.ErrInvalidState)
	}
	if c.MaxSubpath < 0 {
		return fmt.Errorf("max subpath %d: %w", c.MaxSubpath, core.ErrInvalidState)
	}
	return nil
}

// New creates a technique by name: "bpt" or "mbpt"
func New(name string, config Config) (Technique, error) {
	var (
		technique *BPT
		err       error
	)
	switch strings.ToLower(name) {
	case "bpt":
		technique, err = NewBPT(config)
	case "mbpt":
		technique, err = NewMBPT(config)
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownTechnique)
	}
	if err != nil {
		return nil, err
	}
	return technique, nil
}
