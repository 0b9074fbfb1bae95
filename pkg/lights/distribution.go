package lights

import (
	"fmt"
	"math"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
)

// distribution is the power-proportional face sampler derived from the light geometry
type distribution struct {
	faces      *core.PiecewiseSampler
	totalPower float64
}

// BuildLightStructs rebuilds the face sampler from the current geometry and
// exitances. It fails with core.ErrInvalidState when there are no faces or the
// total power is zero.
func (l *AreaLights) BuildLightStructs() error {
	l.dist = nil

	numFaces := l.NumFaces()
	if numFaces == 0 {
		return fmt.Errorf("no emissive faces: %w", core.ErrInvalidState)
	}

	weights := make([]float64, numFaces)
	total := 0.0
	for face := range weights {
		weights[face] = l.FacePower(face)
		total += weights[face]
	}
	if total <= 0 || !core.IsFinite(total) {
		return fmt.Errorf("total light power %v: %w", total, core.ErrInvalidState)
	}

	faces, err := core.NewPiecewiseSampler(weights)
	if err != nil {
		return fmt.Errorf("building light sampler: %w", err)
	}

	l.dist = &distribution{faces: faces, totalPower: total}
	return nil
}

// Built reports whether the sampling structures match the current geometry
func (l *AreaLights) Built() bool {
	return l.dist != nil
}

// TotalPower returns the power of all faces as cached by BuildLightStructs
func (l *AreaLights) TotalPower() (float64, error) {
	if l.dist == nil {
		return 0, l.stale()
	}
	return l.dist.totalPower, nil
}

func (l *AreaLights) stale() error {
	return fmt.Errorf("light structures are not built: %w", core.ErrInvalidState)
}

// SampleLight picks a face with probability proportional to its power
func (l *AreaLights) SampleLight(sampler core.Sampler) (int, error) {
	if l.dist == nil {
		return 0, l.stale()
	}
	return l.dist.faces.Sample(sampler.Get1D()), nil
}

// Density returns the area-measure density of sampling any point of a face:
// its selection probability divided by its area
func (l *AreaLights) Density(face int) float64 {
	if l.dist == nil {
		return 0
	}
	return l.dist.faces.Probability(face) / l.FaceArea(face)
}

// SampleSurface picks a uniformly distributed point on a face
func (l *AreaLights) SampleSurface(sampler core.Sampler, face int) LightPoint {
	uvw := core.SampleBarycentric(sampler.Get2D())

	// the frame is valid for any face that passed AddTriangles
	surface, _ := core.NewSurfacePoint(l.LerpPosition(face, uvw), l.LerpNormal(face, uvw), core.Vec3{}, core.LightMesh)
	return LightPoint{Face: face, Surface: surface}
}

// SampleEmission samples a light point and a cosine-distributed direction leaving it
func (l *AreaLights) SampleEmission(sampler core.Sampler) (LightSampleEx, error) {
	face, err := l.SampleLight(sampler)
	if err != nil {
		return LightSampleEx{}, err
	}

	point := l.SampleSurface(sampler, face)
	hemisphere := core.SampleCosineHemisphere(sampler.Get2D())

	return LightSampleEx{
		Face:         face,
		Position:     point.Surface.Position,
		Normal:       point.Surface.Normal(),
		Radiance:     l.exitances[face].Multiply(1.0 / math.Pi),
		Omega:        point.Surface.ToWorld(hemisphere.Omega),
		AreaDensity:  l.Density(face),
		OmegaDensity: hemisphere.Density,
	}, nil
}

// Emit samples a photon for a light subpath. Its power is the face exitance
// divided by the channel sum and rescaled by the total power, which equals
// exitance * area / selectionProbability and keeps the color ratio intact.
func (l *AreaLights) Emit(sampler core.Sampler) (Photon, error) {
	sample, err := l.SampleEmission(sampler)
	if err != nil {
		return Photon{}, err
	}

	exitance := l.exitances[sample.Face]
	scale := 3.0 * l.dist.totalPower / (math.Pi * exitance.Sum())

	return Photon{
		Position:  sample.Position,
		Direction: sample.Omega,
		Power:     exitance.Multiply(scale),
	}, nil
}

// Sample picks a light point for next event estimation at receiver. The
// density is converted to solid angle at the receiver:
// distance^2 * selection / (area * cosAtLight).
func (l *AreaLights) Sample(sampler core.Sampler, receiver core.Vec3) (LightSample, error) {
	ex, err := l.SampleEx(sampler, receiver)
	if err != nil {
		return LightSample{}, err
	}

	result := LightSample{
		Position: ex.Position,
		Normal:   ex.Normal,
		Omega:    ex.Omega.Negate(),
	}

	cosAtLight := ex.Normal.Dot(ex.Omega)
	distanceSq := ex.Position.Subtract(receiver).LengthSquared()
	if cosAtLight > 0 && distanceSq > 0 {
		result.Radiance = ex.Radiance
		result.Density = ex.AreaDensity * distanceSq / cosAtLight
	}

	return result, nil
}

// SampleEx picks a light point for next event estimation at receiver and
// keeps its densities in area and emission measure. Omega leaves the light
// toward the receiver.
func (l *AreaLights) SampleEx(sampler core.Sampler, receiver core.Vec3) (LightSampleEx, error) {
	face, err := l.SampleLight(sampler)
	if err != nil {
		return LightSampleEx{}, err
	}

	point := l.SampleSurface(sampler, face)
	position := point.Surface.Position
	omega := receiver.Subtract(position).Normalize()
	query := l.QueryLSDF(face, point.Surface.Normal(), omega)

	return LightSampleEx{
		Face:         face,
		Position:     position,
		Normal:       point.Surface.Normal(),
		Radiance:     query.Radiance,
		Omega:        omega,
		AreaDensity:  query.AreaDensity,
		OmegaDensity: query.OmegaDensity,
	}, nil
}

// QueryRadiance returns the radiance leaving a light point with the given
// normal in direction omega: exitance/pi on the front side, zero behind
func (l *AreaLights) QueryRadiance(face int, normal, omega core.Vec3) core.Vec3 {
	if normal.Dot(omega) > 0 {
		return l.exitances[face].Multiply(1.0 / math.Pi)
	}
	return core.Vec3{}
}

// QueryLSDF returns the radiance and both emission densities for a point on face
func (l *AreaLights) QueryLSDF(face int, normal, omega core.Vec3) LSDFQuery {
	return LSDFQuery{
		Radiance:     l.QueryRadiance(face, normal, omega),
		AreaDensity:  l.Density(face),
		OmegaDensity: math.Max(0, normal.Dot(omega)) / math.Pi,
	}
}
