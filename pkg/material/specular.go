package material

import (
	"fmt"
	"math"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
)

// PerfectReflection is an ideal mirror. It can only be sampled, never queried.
type PerfectReflection struct{}

func (PerfectReflection) Kind() Kind { return KindReflection }

func (PerfectReflection) Query(incident, reflected core.Vec3) core.Vec3 { return core.Vec3{} }

func (PerfectReflection) Density(incident, reflected core.Vec3) float64 { return 0 }

func (PerfectReflection) DensityRev(incident, reflected core.Vec3) float64 { return 0 }

// Sample mirrors omega about the normal
func (PerfectReflection) Sample(sampler core.Sampler, omega core.Vec3) BSDFSample {
	return deltaSample(mirror(omega))
}

// PerfectTransmission is an ideal refracting interface between two media.
// Total internal reflection is returned as a perfect mirror bounce.
type PerfectTransmission struct {
	InternalIOR float64
	ExternalIOR float64

	externalOverInternal float64
}

// NewPerfectTransmission creates a dielectric interface. Both indices must be positive.
func NewPerfectTransmission(internalIOR, externalIOR float64) (*PerfectTransmission, error) {
	if internalIOR <= 0 || externalIOR <= 0 {
		return nil, fmt.Errorf("index of refraction %v/%v: %w", internalIOR, externalIOR, core.ErrInvalidState)
	}
	return &PerfectTransmission{
		InternalIOR:          internalIOR,
		ExternalIOR:          externalIOR,
		externalOverInternal: externalIOR / internalIOR,
	}, nil
}

func (t *PerfectTransmission) Kind() Kind { return KindTransmission }

func (t *PerfectTransmission) Query(incident, reflected core.Vec3) core.Vec3 { return core.Vec3{} }

func (t *PerfectTransmission) Density(incident, reflected core.Vec3) float64 { return 0 }

func (t *PerfectTransmission) DensityRev(incident, reflected core.Vec3) float64 { return 0 }

// Sample refracts omega through the interface. A positive omega.Y means the
// path arrives from the external side.
func (t *PerfectTransmission) Sample(sampler core.Sampler, omega core.Vec3) BSDFSample {
	refracted, ok := t.Refract(omega)
	if !ok {
		return deltaSample(mirror(omega))
	}
	return deltaSample(refracted)
}

// Refract applies Snell's law to omega. It reports false on total internal reflection.
func (t *PerfectTransmission) Refract(omega core.Vec3) (core.Vec3, bool) {
	eta := t.externalOverInternal
	side := -1.0
	if omega.Y <= 0 {
		eta = 1.0 / eta
		side = 1.0
	}

	discriminant := 1 - eta*eta*(1-omega.Y*omega.Y)
	if discriminant < 0 {
		return core.Vec3{}, false
	}

	return core.Vec3{
		X: -eta * omega.X,
		Y: side * math.Sqrt(discriminant),
		Z: -eta * omega.Z,
	}, true
}

// Camera is the delta BSDF of a pinhole lens: it passes the primary ray through unchanged
type Camera struct{}

func (Camera) Kind() Kind { return KindCamera }

func (Camera) Query(incident, reflected core.Vec3) core.Vec3 {
	if incident == reflected {
		return core.Splat(1)
	}
	return core.Vec3{}
}

func (Camera) Density(incident, reflected core.Vec3) float64 { return 1 }

func (Camera) DensityRev(incident, reflected core.Vec3) float64 { return 1 }

func (Camera) Sample(sampler core.Sampler, omega core.Vec3) BSDFSample {
	return BSDFSample{
		Omega:      omega,
		Throughput: core.Splat(1),
		Density:    1,
		DensityRev: 1,
		Specular:   1,
	}
}

func mirror(omega core.Vec3) core.Vec3 {
	return core.Vec3{X: -omega.X, Y: omega.Y, Z: -omega.Z}
}

func deltaSample(omega core.Vec3) BSDFSample {
	cos := math.Abs(omega.Y)
	if cos == 0 {
		return BSDFSample{}
	}
	return BSDFSample{
		Omega:      omega,
		Throughput: core.Splat(1.0 / cos),
		Density:    1,
		DensityRev: 1,
		Specular:   1,
	}
}
