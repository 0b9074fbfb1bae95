package integrator

import (
	"github.com/df07/go-bidirectional-tracer/pkg/core"
	"github.com/df07/go-bidirectional-tracer/pkg/material"
)

// LightVertex is a surface hit of a light subpath
type LightVertex struct {
	Surface    core.SurfacePoint
	Omega      core.Vec3 // unit direction toward the previous vertex
	Throughput core.Vec3 // emitted power carried to this vertex over the sampling densities
	BSDF       material.BSDF

	// MIS running quantities: a covers the strategy that would have sampled
	// the previous vertex from this one, sumA all strategies further back
	a, sumA float64
}

// EyeVertex is a surface hit of a camera subpath
type EyeVertex struct {
	Surface    core.SurfacePoint
	Omega      core.Vec3 // unit direction toward the previous vertex
	Throughput core.Vec3
	BSDF       material.BSDF
	Specular   float64 // 1 when the bounce that reached this vertex was a delta lobe

	c, sumC float64
}

// Position returns the position of the vertex
func (v *LightVertex) Position() core.Vec3 { return v.Surface.Position }

// Position returns the position of the vertex
func (v *EyeVertex) Position() core.Vec3 { return v.Surface.Position }
