package geometry

import (
	"math"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
	"github.com/df07/go-bidirectional-tracer/pkg/lights"
)

const (
	// rayEpsilon offsets rays leaving a surface
	rayEpsilon = 1e-5
	// segmentEpsilon trims both ends of a shadow segment, in segment-length units
	segmentEpsilon = 1e-5
)

// Intersector answers ray queries against scene meshes and area lights with a
// single BVH. Light faces are reported with mesh id core.LightMesh.
type Intersector struct {
	bvh       *core.BVH
	triangles []*triangle
}

// NewIntersector builds the acceleration structure. The meshes and lights must
// not change while the intersector is in use.
func NewIntersector(meshes []*Mesh, areaLights *lights.AreaLights) *Intersector {
	var triangles []*triangle
	for meshID, mesh := range meshes {
		for face := 0; face < mesh.NumFaces(); face++ {
			a, b, c := mesh.FaceVertices(face)
			triangles = append(triangles, newTriangle(a, b, c, meshID, face))
		}
	}
	if areaLights != nil {
		for face := 0; face < areaLights.NumFaces(); face++ {
			a, b, c := areaLights.FaceVertices(face)
			triangles = append(triangles, newTriangle(a, b, c, core.LightMesh, face))
		}
	}

	primitives := make([]core.Primitive, len(triangles))
	for i, t := range triangles {
		primitives[i] = t
	}

	return &Intersector{bvh: core.NewBVH(primitives), triangles: triangles}
}

// NumTriangles returns the number of triangles in the hierarchy
func (in *Intersector) NumTriangles() int {
	return len(in.triangles)
}

// Intersect finds the closest surface along a ray. Direction is normalized.
func (in *Intersector) Intersect(origin, direction core.Vec3) core.Hit {
	direction = direction.Normalize()

	closest, ok := in.bvh.Closest(core.NewRay(origin, direction), rayEpsilon, math.Inf(1))
	if !ok {
		return core.Miss(origin, direction)
	}

	t := in.triangles[closest.Index]
	return core.Hit{
		MeshID:    t.mesh,
		FaceID:    t.face,
		U:         closest.U,
		V:         closest.V,
		Distance:  closest.T,
		Origin:    origin,
		Direction: direction,
	}
}

// Occluded returns 1 when anything lies strictly between a and b, 0 otherwise
func (in *Intersector) Occluded(a, b core.Vec3) float64 {
	if in.bvh.Any(core.NewRay(a, b.Subtract(a)), segmentEpsilon, 1-segmentEpsilon) {
		return 1
	}
	return 0
}
