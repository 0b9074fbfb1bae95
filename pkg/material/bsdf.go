package material

import (
	"errors"
	"fmt"
	"strings"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
)

// ErrUnknownLobe is returned when a BSDF is requested for a kind this package does not implement
var ErrUnknownLobe = errors.New("material: unknown BSDF lobe")

// Kind identifies a BSDF variant
type Kind int

const (
	KindDiffuse Kind = iota
	KindReflection
	KindTransmission
	KindCamera
)

var kindNames = map[Kind]string{
	KindDiffuse:      "diffuse",
	KindReflection:   "mirror",
	KindTransmission: "glass",
	KindCamera:       "camera",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a material type name to its Kind
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "diffuse", "lambertian":
		return KindDiffuse, nil
	case "mirror", "reflection":
		return KindReflection, nil
	case "glass", "transmission", "dielectric":
		return KindTransmission, nil
	case "camera":
		return KindCamera, nil
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownLobe)
}

// BSDF is a scattering distribution expressed in the local surface frame, where
// +Y is the shading normal. Incident is the unit direction toward the previous
// path vertex, reflected the unit direction toward the next one. Implementations
// are stateless and safe for concurrent use.
type BSDF interface {
	Kind() Kind

	// Query returns the scattering value f, zero outside the support of the lobe
	Query(incident, reflected core.Vec3) core.Vec3

	// Density is the solid-angle density of sampling reflected given incident
	Density(incident, reflected core.Vec3) float64

	// DensityRev is the density of the reverse transport: sampling incident given reflected
	DensityRev(incident, reflected core.Vec3) float64

	// Sample draws reflected given omega = incident
	Sample(sampler core.Sampler, omega core.Vec3) BSDFSample
}

// IsDelta reports whether b is a delta distribution that cannot be evaluated
// for an arbitrary pair of directions
func IsDelta(b BSDF) bool {
	return b.Kind() != KindDiffuse
}

// BSDFSample is the result of importance-sampling a BSDF.
//
// Throughput is the scattering value f of the sampled direction. The Monte-Carlo
// weight of the bounce is Throughput * |cos(omega)| / Density; for delta lobes
// Throughput is 1/|cos(omega)| and Density is 1, so the weight is exactly one.
type BSDFSample struct {
	Omega      core.Vec3
	Throughput core.Vec3
	Density    float64
	DensityRev float64
	Specular   float64 // 1 for delta lobes, 0 otherwise
}

// Zero reports whether the sample carries no energy and must terminate the path
func (s BSDFSample) Zero() bool {
	return s.Throughput.Sum() == 0 || s.Density <= 0
}

// IsSpecular reports whether the sample came from a delta lobe
func (s BSDFSample) IsSpecular() bool {
	return s.Specular > 0
}

// Query returns the sample's throughput and densities as a BSDFQuery
func (s BSDFSample) Query() BSDFQuery {
	return BSDFQuery{Throughput: s.Throughput, Density: s.Density, DensityRev: s.DensityRev}
}

// BSDFQuery bundles the value and both densities of a fixed pair of directions
type BSDFQuery struct {
	Throughput core.Vec3
	Density    float64
	DensityRev float64
}

// QueryEx evaluates value and densities for local-frame directions
func QueryEx(b BSDF, incident, reflected core.Vec3) BSDFQuery {
	return BSDFQuery{
		Throughput: b.Query(incident, reflected),
		Density:    b.Density(incident, reflected),
		DensityRev: b.DensityRev(incident, reflected),
	}
}

// QueryWorld evaluates b for world-space directions at point
func QueryWorld(b BSDF, point core.SurfacePoint, incident, reflected core.Vec3) core.Vec3 {
	return b.Query(point.ToSurface(incident), point.ToSurface(reflected))
}

// DensityWorld is Density for world-space directions at point
func DensityWorld(b BSDF, point core.SurfacePoint, incident, reflected core.Vec3) float64 {
	return b.Density(point.ToSurface(incident), point.ToSurface(reflected))
}

// DensityRevWorld is DensityRev for world-space directions at point
func DensityRevWorld(b BSDF, point core.SurfacePoint, incident, reflected core.Vec3) float64 {
	return b.DensityRev(point.ToSurface(incident), point.ToSurface(reflected))
}

// QueryExWorld is QueryEx for world-space directions at point
func QueryExWorld(b BSDF, point core.SurfacePoint, incident, reflected core.Vec3) BSDFQuery {
	return QueryEx(b, point.ToSurface(incident), point.ToSurface(reflected))
}

// SampleWorld samples b at point for a world-space omega and returns the
// sampled direction in world space
func SampleWorld(b BSDF, sampler core.Sampler, point core.SurfacePoint, omega core.Vec3) BSDFSample {
	result := b.Sample(sampler, point.ToSurface(omega))
	result.Omega = point.ToWorld(result.Omega)
	return result
}

// Params describes a BSDF independent of its variant
type Params struct {
	Kind        Kind
	Albedo      core.Vec3 // diffuse
	InternalIOR float64   // glass
	ExternalIOR float64   // glass
}

// New builds the BSDF variant selected by params.Kind
func New(params Params) (BSDF, error) {
	switch params.Kind {
	case KindDiffuse:
		return NewDiffuse(params.Albedo), nil
	case KindReflection:
		return PerfectReflection{}, nil
	case KindTransmission:
		internal, external := params.InternalIOR, params.ExternalIOR
		if internal == 0 {
			internal = 1.5
		}
		if external == 0 {
			external = 1.0
		}
		return NewPerfectTransmission(internal, external)
	case KindCamera:
		return Camera{}, nil
	}
	return nil, fmt.Errorf("kind %v: %w", params.Kind, ErrUnknownLobe)
}
