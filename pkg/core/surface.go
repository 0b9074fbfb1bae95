package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SurfacePoint is a shading point: position, orthonormal shading frame and the
// material identifier of the surface. In the local frame the normal is +Y, the
// tangent +X and the bitangent +Z.
type SurfacePoint struct {
	Position Vec3
	Material int

	// columns: tangent, normal, bitangent
	frame mgl64.Mat3
}

// NewSurfacePoint orthonormalizes the given frame. A zero tangent is replaced by
// an arbitrary vector perpendicular to the normal.
func NewSurfacePoint(position, normal, tangent Vec3, material int) (SurfacePoint, error) {
	n := normal.Normalize()
	if n.IsZero() || !n.IsFinite() {
		return SurfacePoint{}, fmt.Errorf("surface normal %v: %w", normal, ErrInvalidGeometry)
	}

	t := tangent.Subtract(n.Multiply(n.Dot(tangent)))
	if t.LengthSquared() < 1e-12 {
		t = perpendicular(n)
	}
	t = t.Normalize()
	b := t.Cross(n)

	return SurfacePoint{
		Position: position,
		Material: material,
		frame:    mgl64.Mat3FromCols(toMgl(t), toMgl(n), toMgl(b)),
	}, nil
}

// Normal returns the shading normal in world space
func (s SurfacePoint) Normal() Vec3 {
	return fromMgl(s.frame.Col(1))
}

// Tangent returns the shading tangent in world space
func (s SurfacePoint) Tangent() Vec3 {
	return fromMgl(s.frame.Col(0))
}

// Bitangent returns the shading bitangent in world space
func (s SurfacePoint) Bitangent() Vec3 {
	return fromMgl(s.frame.Col(2))
}

// ToWorld converts a local-frame direction to world space
func (s SurfacePoint) ToWorld(v Vec3) Vec3 {
	return fromMgl(s.frame.Mul3x1(toMgl(v)))
}

// ToSurface converts a world-space direction to the local frame
func (s SurfacePoint) ToSurface(v Vec3) Vec3 {
	return fromMgl(s.frame.Transpose().Mul3x1(toMgl(v)))
}

// CosTheta returns the cosine between a world-space unit direction and the normal
func (s SurfacePoint) CosTheta(direction Vec3) float64 {
	return s.Normal().Dot(direction)
}

func perpendicular(n Vec3) Vec3 {
	if math.Abs(n.X) > 0.1 {
		return Vec3{0, 1, 0}.Cross(n)
	}
	return Vec3{1, 0, 0}.Cross(n)
}

func toMgl(v Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromMgl(v mgl64.Vec3) Vec3 {
	return Vec3{v[0], v[1], v[2]}
}
