package material

import (
	"math"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
)

// Diffuse is a Lambertian reflector
type Diffuse struct {
	Albedo core.Vec3
}

// NewDiffuse creates a diffuse BSDF with the given reflectance
func NewDiffuse(albedo core.Vec3) *Diffuse {
	return &Diffuse{Albedo: albedo}
}

func (d *Diffuse) Kind() Kind { return KindDiffuse }

// Query returns albedo/pi when both directions are above the surface
func (d *Diffuse) Query(incident, reflected core.Vec3) core.Vec3 {
	if incident.Y > 0 && reflected.Y > 0 {
		return d.Albedo.Multiply(1.0 / math.Pi)
	}
	return core.Vec3{}
}

func (d *Diffuse) Density(incident, reflected core.Vec3) float64 {
	if reflected.Y > 0 {
		return reflected.Y / math.Pi
	}
	return 0
}

func (d *Diffuse) DensityRev(incident, reflected core.Vec3) float64 {
	if incident.Y > 0 {
		return incident.Y / math.Pi
	}
	return 0
}

// Sample draws a cosine-weighted direction in the upper hemisphere
func (d *Diffuse) Sample(sampler core.Sampler, omega core.Vec3) BSDFSample {
	if omega.Y <= 0 {
		return BSDFSample{}
	}

	hemisphere := core.SampleCosineHemisphere(sampler.Get2D())
	return BSDFSample{
		Omega:      hemisphere.Omega,
		Throughput: d.Albedo.Multiply(1.0 / math.Pi),
		Density:    hemisphere.Density,
		DensityRev: omega.Y / math.Pi,
	}
}

// Scatter is an analog random walk step: the path survives with probability
// equal to the mean albedo and the throughput already carries the full weight
// of the bounce, albedo/mean(albedo). Omega and the result are in world space.
func (d *Diffuse) Scatter(sampler core.Sampler, point core.SurfacePoint, omega core.Vec3) BSDFSample {
	average := d.Albedo.Average()
	if sampler.Get1D() >= average {
		return BSDFSample{}
	}

	hemisphere := core.SampleCosineHemisphere(sampler.Get2D())
	return BSDFSample{
		Omega:      point.ToWorld(hemisphere.Omega),
		Throughput: d.Albedo.Divide(average),
		Density:    hemisphere.Density,
		DensityRev: math.Max(0, point.CosTheta(omega)) / math.Pi,
	}
}
