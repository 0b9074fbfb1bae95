package core

import "math"

// Logger interface for renderer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

const (
	// NoMesh marks a ray that escaped the scene.
	NoMesh = -2
	// LightMesh is the reserved mesh id of area light faces.
	LightMesh = -1
)

// Hit is the result of a closest-hit query
type Hit struct {
	MeshID    int // NoMesh, LightMesh or an index into the scene meshes
	FaceID    int
	U, V      float64 // barycentric weights of the second and third vertex
	Distance  float64
	Origin    Vec3
	Direction Vec3 // unit length
}

// Miss returns a hit record for a ray that hit nothing
func Miss(origin, direction Vec3) Hit {
	return Hit{MeshID: NoMesh, FaceID: -1, Distance: math.Inf(1), Origin: origin, Direction: direction}
}

// Found reports whether the ray hit any surface
func (h Hit) Found() bool {
	return h.MeshID != NoMesh
}

// IsLight reports whether the ray hit an area light face
func (h Hit) IsLight() bool {
	return h.MeshID == LightMesh
}

// Position returns the hit point
func (h Hit) Position() Vec3 {
	return h.Origin.Add(h.Direction.Multiply(h.Distance))
}

// Incident returns the unit direction from the hit point back toward the ray origin
func (h Hit) Incident() Vec3 {
	return h.Direction.Negate()
}

// Barycentric returns the (w0, w1, w2) weights of the hit inside its triangle
func (h Hit) Barycentric() Vec3 {
	return Vec3{1 - h.U - h.V, h.U, h.V}
}

// Intersector answers closest-hit and visibility queries against scene geometry.
// Implementations must be safe for concurrent use.
type Intersector interface {
	Intersect(origin, direction Vec3) Hit
	// Occluded returns the blocked fraction of the segment a-b: 0 visible, 1 blocked.
	Occluded(a, b Vec3) float64
}
