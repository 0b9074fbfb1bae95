package integrator

import (
	"fmt"
	"math"
	"sync"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
	"github.com/df07/go-bidirectional-tracer/pkg/material"
	"github.com/df07/go-bidirectional-tracer/pkg/scene"
)

// BPT is a bidirectional path tracer. For every camera ray it traces one light
// subpath and one eye subpath and combines every (light, eye) split of the
// resulting paths with multiple importance sampling. The plain variant uses
// the balance heuristic; MBPT raises every density ratio to a power beta.
type BPT struct {
	name   string
	config Config
	mis    heuristic
	scene  *scene.Scene

	// per-call light subpath buffers of capacity MaxSubpath
	paths sync.Pool
}

// NewBPT creates the balance heuristic estimator. Beta is forced to 1 and the
// subpath length is capped at BPTMaxSubpath.
func NewBPT(config Config) (*BPT, error) {
	config.Beta = 1
	if config.MaxSubpath == 0 || config.MaxSubpath > BPTMaxSubpath {
		config.MaxSubpath = BPTMaxSubpath
	}
	return newBPT("BPT", config)
}

// NewMBPT creates the power heuristic estimator with exponent config.Beta.
// The subpath length is capped at MBPTMaxSubpath.
func NewMBPT(config Config) (*BPT, error) {
	if config.MaxSubpath == 0 || config.MaxSubpath > MBPTMaxSubpath {
		config.MaxSubpath = MBPTMaxSubpath
	}
	return newBPT("MBPT", config)
}

func newBPT(name string, config Config) (*BPT, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	t := &BPT{
		name:   name,
		config: config,
		mis:    heuristic{beta: config.Beta},
	}
	t.paths.New = func() any {
		path := make([]LightVertex, 0, config.MaxSubpath)
		return &path
	}
	return t, nil
}

// Name returns "BPT" or "MBPT"
func (t *BPT) Name() string {
	return t.name
}

// Config returns the effective configuration
func (t *BPT) Config() Config {
	return t.config
}

// Preprocess binds the estimator to a built scene
func (t *BPT) Preprocess(s *scene.Scene) error {
	if !s.Lights.Built() {
		return fmt.Errorf("%s preprocess: light structures not built: %w", t.name, core.ErrInvalidState)
	}
	t.scene = s
	return nil
}

// Trace returns one radiance sample for a camera ray
func (t *BPT) Trace(sampler core.Sampler, ray core.Ray) core.Vec3 {
	buffer := t.paths.Get().(*[]LightVertex)
	defer t.paths.Put(buffer)

	path := t.traceLight(sampler, (*buffer)[:0])
	*buffer = path

	return t.traceEye(sampler, ray, path)
}

// traceLight builds a light subpath into path and returns it. The emission
// point itself is not stored: next event estimation covers that strategy.
func (t *BPT) traceLight(sampler core.Sampler, path []LightVertex) []LightVertex {
	emission, err := t.scene.Lights.SampleEmission(sampler)
	if err != nil {
		return path
	}

	cosAtLight := emission.Normal.Dot(emission.Omega)
	emissionDensity := emission.Density()
	if cosAtLight <= 0 || emissionDensity <= 0 {
		return path
	}

	throughput := emission.Radiance.Multiply(cosAtLight / emissionDensity)
	a, sumA := t.mis.emit(emission.AreaDensity, emissionDensity, cosAtLight)
	origin, direction := emission.Position, emission.Omega

	for len(path) < t.config.MaxSubpath {
		hit := t.scene.Intersect(origin, direction)
		if !hit.Found() || hit.IsLight() {
			break
		}

		surface, bsdf, ok := t.scene.QuerySurface(hit)
		if !ok {
			break
		}

		omega := direction.Negate()
		cos := math.Abs(surface.CosTheta(omega))
		if cos == 0 {
			break
		}

		a, sumA = t.mis.arrive(a, sumA, hit.Distance*hit.Distance, cos)
		path = append(path, LightVertex{
			Surface:    surface,
			Omega:      omega,
			Throughput: throughput,
			BSDF:       bsdf,
			a:          a,
			sumA:       sumA,
		})

		sample := material.SampleWorld(bsdf, sampler, surface, omega)
		if sample.Zero() {
			break
		}

		cosOut := math.Abs(surface.CosTheta(sample.Omega))
		if sample.IsSpecular() {
			a, sumA = t.mis.scatterSpecular(a, sumA, cosOut)
		} else {
			a, sumA = t.mis.scatter(a, sumA, cosOut, sample.Density, sample.DensityRev)
		}

		throughput = throughput.MultiplyVec(sample.Throughput).Multiply(cosOut / sample.Density)
		throughput, ok = t.roulette(sampler, len(path), throughput)
		if !ok {
			break
		}

		origin, direction = surface.Position, sample.Omega
	}

	return path
}

// traceEye follows the camera ray and sums every connection strategy at every eye vertex
func (t *BPT) traceEye(sampler core.Sampler, ray core.Ray, path []LightVertex) core.Vec3 {
	var radiance core.Vec3

	// the lens is a delta BSDF: throughput 1, no density, no strategy can reach it
	throughput := core.Splat(1)
	specular := 1.0
	c, sumC := 0.0, 0.0
	origin, direction := ray.Origin, ray.Direction.Normalize()

	for length := 1; length <= t.config.MaxSubpath; length++ {
		hit := t.scene.Intersect(origin, direction)
		if !hit.Found() {
			break
		}

		distanceSq := hit.Distance * hit.Distance
		if hit.IsLight() {
			radiance = radiance.Add(t.connect0(hit, throughput, c, sumC, distanceSq))
			break
		}

		surface, bsdf, ok := t.scene.QuerySurface(hit)
		if !ok {
			break
		}

		omega := direction.Negate()
		cos := math.Abs(surface.CosTheta(omega))
		if cos == 0 {
			break
		}

		c, sumC = t.mis.arrive(c, sumC, distanceSq, cos)
		eye := EyeVertex{
			Surface:    surface,
			Omega:      omega,
			Throughput: throughput,
			BSDF:       bsdf,
			Specular:   specular,
			c:          c,
			sumC:       sumC,
		}

		if !material.IsDelta(bsdf) {
			radiance = radiance.Add(t.connect1(sampler, &eye))
			radiance = radiance.Add(t.connectAll(&eye, path))
		}

		sample := material.SampleWorld(bsdf, sampler, surface, omega)
		if sample.Zero() {
			break
		}

		cosOut := math.Abs(surface.CosTheta(sample.Omega))
		if sample.IsSpecular() {
			c, sumC = t.mis.scatterSpecular(c, sumC, cosOut)
		} else {
			c, sumC = t.mis.scatter(c, sumC, cosOut, sample.Density, sample.DensityRev)
		}
		specular = sample.Specular

		throughput = throughput.MultiplyVec(sample.Throughput).Multiply(cosOut / sample.Density)
		throughput, ok = t.roulette(sampler, length, throughput)
		if !ok {
			break
		}

		origin, direction = surface.Position, sample.Omega
	}

	return radiance
}

// roulette terminates a subpath of the given length with probability
// 1 - Roulette once it has MinSubpath vertices, and rescales survivors
func (t *BPT) roulette(sampler core.Sampler, length int, throughput core.Vec3) (core.Vec3, bool) {
	if length < t.config.MinSubpath || t.config.Roulette >= 1 {
		return throughput, true
	}
	if sampler.Get1D() >= t.config.Roulette {
		return core.Vec3{}, false
	}
	return throughput.Divide(t.config.Roulette), true
}

// connect0 accounts for an eye subpath that hits an emitter. The eye state
// passed in is the one of the last surface vertex, before arriving at the light.
func (t *BPT) connect0(hit core.Hit, throughput core.Vec3, c, sumC, distanceSq float64) core.Vec3 {
	lsdf, normal := t.scene.QueryLSDF(hit)
	if lsdf.Radiance.IsZero() {
		return core.Vec3{}
	}

	cosAtLight := normal.Dot(hit.Incident())
	c, sumC = t.mis.arrive(c, sumC, distanceSq, cosAtLight)

	weight := t.mis.weight0(c, sumC, lsdf.AreaDensity, lsdf.AreaDensity*lsdf.OmegaDensity)
	return sanitize(throughput.MultiplyVec(lsdf.Radiance).Multiply(weight))
}

// connect1 is next event estimation at an eye vertex
func (t *BPT) connect1(sampler core.Sampler, eye *EyeVertex) core.Vec3 {
	estimate, weight := t.nextEvent(sampler, eye)
	return sanitize(estimate.Multiply(weight))
}

// nextEvent returns the unweighted next event estimate at an eye vertex,
// occlusion included, and its MIS weight
func (t *BPT) nextEvent(sampler core.Sampler, eye *EyeVertex) (core.Vec3, float64) {
	light, err := t.scene.Lights.SampleEx(sampler, eye.Position())
	if err != nil || light.Radiance.IsZero() || light.AreaDensity <= 0 {
		return core.Vec3{}, 0
	}

	toLight := light.Omega.Negate()
	cosAtLight := light.Normal.Dot(light.Omega)
	distanceSq := light.Position.Subtract(eye.Position()).LengthSquared()
	if cosAtLight <= 0 || distanceSq <= 0 {
		return core.Vec3{}, 0
	}

	bsdf := material.QueryExWorld(eye.BSDF, eye.Surface, eye.Omega, toLight)
	if bsdf.Throughput.IsZero() {
		return core.Vec3{}, 0
	}

	cosToLight := math.Abs(eye.Surface.CosTheta(toLight))
	directDensity := light.AreaDensity * distanceSq / cosAtLight

	weight := t.mis.weight1(eye.c, eye.sumC, bsdf.Density, bsdf.DensityRev, directDensity, light.OmegaDensity, cosToLight, distanceSq)
	estimate := eye.Throughput.MultiplyVec(bsdf.Throughput).MultiplyVec(light.Radiance).Multiply(cosToLight / directDensity)

	visibility := 1 - t.scene.Occluded(eye.Position(), light.Position)
	return estimate.Multiply(visibility), weight
}

// connect joins an eye vertex to a light vertex. Delta lobes cannot be
// evaluated for an arbitrary pair of directions and contribute nothing.
func (t *BPT) connect(eye *EyeVertex, light *LightVertex) core.Vec3 {
	if material.IsDelta(eye.BSDF) || material.IsDelta(light.BSDF) {
		return core.Vec3{}
	}

	delta := light.Position().Subtract(eye.Position())
	distanceSq := delta.LengthSquared()
	if distanceSq <= 0 {
		return core.Vec3{}
	}
	direction := delta.Divide(math.Sqrt(distanceSq))

	eyeQuery := material.QueryExWorld(eye.BSDF, eye.Surface, eye.Omega, direction)
	lightQuery := material.QueryExWorld(light.BSDF, light.Surface, light.Omega, direction.Negate())
	if eyeQuery.Throughput.IsZero() || lightQuery.Throughput.IsZero() {
		return core.Vec3{}
	}

	cosEye := math.Abs(eye.Surface.CosTheta(direction))
	cosLight := math.Abs(light.Surface.CosTheta(direction))
	geometry := cosEye * cosLight / distanceSq

	weight := t.mis.weightConnect(
		eye.c, eye.sumC, light.a, light.sumA,
		eyeQuery.Density*cosLight/distanceSq, eyeQuery.DensityRev,
		lightQuery.Density*cosEye/distanceSq, lightQuery.DensityRev,
	)

	contribution := eye.Throughput.
		MultiplyVec(eyeQuery.Throughput).
		MultiplyVec(lightQuery.Throughput).
		MultiplyVec(light.Throughput).
		Multiply(geometry * weight)
	if contribution.IsZero() {
		return core.Vec3{}
	}

	visibility := 1 - t.scene.Occluded(eye.Position(), light.Position())
	return sanitize(contribution.Multiply(visibility))
}

// connectAll joins an eye vertex to every vertex of the light subpath
func (t *BPT) connectAll(eye *EyeVertex, path []LightVertex) core.Vec3 {
	var radiance core.Vec3
	for i := range path {
		radiance = radiance.Add(t.connect(eye, &path[i]))
	}
	return radiance
}

// sanitize drops contributions that went through a degenerate density
func sanitize(v core.Vec3) core.Vec3 {
	if !v.IsFinite() {
		return core.Vec3{}
	}
	return v
}
