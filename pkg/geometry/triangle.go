package geometry

import "github.com/df07/go-bidirectional-tracer/pkg/core"

// triangle is the BVH primitive for one face of a mesh or of the area lights
type triangle struct {
	v0, edge1, edge2 core.Vec3
	mesh, face       int
	box              core.AABB
}

func newTriangle(a, b, c core.Vec3, mesh, face int) *triangle {
	return &triangle{
		v0:    a,
		edge1: b.Subtract(a),
		edge2: c.Subtract(a),
		mesh:  mesh,
		face:  face,
		box:   core.NewAABBFromPoints(a, b, c),
	}
}

func (t *triangle) BoundingBox() core.AABB {
	return t.box
}

// Intersect uses the Möller-Trumbore algorithm. Both sides of the triangle are hit.
func (t *triangle) Intersect(ray core.Ray, tMin, tMax float64) (float64, float64, float64, bool) {
	const epsilon = 1e-12

	h := ray.Direction.Cross(t.edge2)
	det := t.edge1.Dot(h)
	if det > -epsilon && det < epsilon {
		return 0, 0, 0, false
	}

	f := 1.0 / det
	s := ray.Origin.Subtract(t.v0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return 0, 0, 0, false
	}

	q := s.Cross(t.edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return 0, 0, 0, false
	}

	param := f * t.edge2.Dot(q)
	if param <= tMin || param >= tMax {
		return 0, 0, 0, false
	}

	return param, u, v, true
}
