package lights

import "github.com/df07/go-bidirectional-tracer/pkg/core"

// LightPoint is a point on an emitting face together with its shading frame
type LightPoint struct {
	Face    int
	Surface core.SurfacePoint
}

// Photon is an emitted sample used to seed a light subpath
type Photon struct {
	Position  core.Vec3
	Direction core.Vec3
	// Power is the exitance scaled so that the photon already carries the
	// inverse of its selection and position densities
	Power core.Vec3
}

// LightSample is a light point sampled for a receiver, with a combined
// solid-angle density as seen from the receiver
type LightSample struct {
	Position core.Vec3
	Normal   core.Vec3
	Radiance core.Vec3 // toward the receiver, zero when the receiver is behind the light
	Omega    core.Vec3 // unit direction from the receiver toward the light
	Density  float64   // zero when the light faces away from the receiver
}

// DensityInv returns 1/Density, or zero for a sample with no density
func (s LightSample) DensityInv() float64 {
	if s.Density <= 0 {
		return 0
	}
	return 1.0 / s.Density
}

// LightSampleEx keeps the area-measure and solid-angle-measure densities of a
// light sample apart
type LightSampleEx struct {
	Face         int
	Position     core.Vec3
	Normal       core.Vec3
	Radiance     core.Vec3
	Omega        core.Vec3 // unit direction leaving the light
	AreaDensity  float64   // selection probability over face area
	OmegaDensity float64   // cosine-weighted emission density of Omega
}

// Density returns the joint density of position and direction
func (s LightSampleEx) Density() float64 {
	return s.AreaDensity * s.OmegaDensity
}

// LSDFQuery is the emission of a fixed light point in a fixed direction
type LSDFQuery struct {
	Radiance     core.Vec3
	AreaDensity  float64
	OmegaDensity float64
}
