package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
)

// Mesh is an indexed triangle mesh with per-vertex shading frames and a single material
type Mesh struct {
	Name       string
	Vertices   []core.Vec3
	Normals    []core.Vec3
	Tangents   []core.Vec3
	Indices    []int
	MaterialID int
}

// NewMesh validates an indexed triangle list. When normals is nil the mesh is
// unwelded so every face gets its own flat normal.
func NewMesh(name string, vertices, normals []core.Vec3, indices []int, materialID int) (*Mesh, error) {
	if len(indices) == 0 || len(indices)%3 != 0 {
		return nil, fmt.Errorf("mesh %q has %d indices, expected triangles: %w", name, len(indices), core.ErrInvalidGeometry)
	}
	if normals != nil && len(normals) != len(vertices) {
		return nil, fmt.Errorf("mesh %q has %d normals for %d vertices: %w", name, len(normals), len(vertices), core.ErrInvalidGeometry)
	}
	for _, index := range indices {
		if index < 0 || index >= len(vertices) {
			return nil, fmt.Errorf("mesh %q index %d out of range: %w", name, index, core.ErrInvalidGeometry)
		}
	}

	mesh := &Mesh{Name: name, MaterialID: materialID}
	if normals == nil {
		mesh.unweld(vertices, indices)
	} else {
		mesh.Vertices = vertices
		mesh.Indices = indices
		mesh.Normals = make([]core.Vec3, len(normals))
		for i, n := range normals {
			mesh.Normals[i] = n.Normalize()
			if mesh.Normals[i].IsZero() {
				return nil, fmt.Errorf("mesh %q has a zero normal at vertex %d: %w", name, i, core.ErrInvalidGeometry)
			}
		}
	}

	for face := 0; face < mesh.NumFaces(); face++ {
		if mesh.faceNormal(face).IsZero() {
			return nil, fmt.Errorf("mesh %q face %d is degenerate: %w", name, face, core.ErrInvalidGeometry)
		}
	}

	mesh.generateTangents()
	return mesh, nil
}

func (m *Mesh) unweld(vertices []core.Vec3, indices []int) {
	m.Vertices = make([]core.Vec3, 0, len(indices))
	m.Normals = make([]core.Vec3, 0, len(indices))
	m.Indices = make([]int, len(indices))

	for i := 0; i < len(indices); i += 3 {
		a, b, c := vertices[indices[i]], vertices[indices[i+1]], vertices[indices[i+2]]
		normal := b.Subtract(a).Cross(c.Subtract(a)).Normalize()
		for k, v := range [3]core.Vec3{a, b, c} {
			m.Indices[i+k] = len(m.Vertices)
			m.Vertices = append(m.Vertices, v)
			m.Normals = append(m.Normals, normal)
		}
	}
}

// generateTangents assigns each vertex a tangent perpendicular to its normal,
// aligned with the first edge of a face that uses it
func (m *Mesh) generateTangents() {
	m.Tangents = make([]core.Vec3, len(m.Vertices))
	for face := 0; face < m.NumFaces(); face++ {
		a, b, _ := m.FaceVertices(face)
		edge := b.Subtract(a)
		for k := 0; k < 3; k++ {
			index := m.Indices[face*3+k]
			if !m.Tangents[index].IsZero() {
				continue
			}
			n := m.Normals[index]
			m.Tangents[index] = edge.Subtract(n.Multiply(n.Dot(edge))).Normalize()
		}
	}
}

func (m *Mesh) faceNormal(face int) core.Vec3 {
	a, b, c := m.FaceVertices(face)
	return b.Subtract(a).Cross(c.Subtract(a)).Normalize()
}

// NumFaces returns the number of triangles
func (m *Mesh) NumFaces() int {
	return len(m.Indices) / 3
}

// FaceVertices returns the corners of a triangle
func (m *Mesh) FaceVertices(face int) (core.Vec3, core.Vec3, core.Vec3) {
	return m.Vertices[m.Indices[face*3]], m.Vertices[m.Indices[face*3+1]], m.Vertices[m.Indices[face*3+2]]
}

// LerpNormal interpolates the shading normal of a face
func (m *Mesh) LerpNormal(face int, uvw core.Vec3) core.Vec3 {
	i := face * 3
	return core.Lerp(m.Normals[m.Indices[i]], m.Normals[m.Indices[i+1]], m.Normals[m.Indices[i+2]], uvw).Normalize()
}

// LerpTangent interpolates the shading tangent of a face
func (m *Mesh) LerpTangent(face int, uvw core.Vec3) core.Vec3 {
	i := face * 3
	return core.Lerp(m.Tangents[m.Indices[i]], m.Tangents[m.Indices[i+1]], m.Tangents[m.Indices[i+2]], uvw)
}

// NewQuadMesh creates a flat parallelogram from a corner and two edges.
// The front face, where the normal points, is u x v.
func NewQuadMesh(name string, corner, u, v core.Vec3, materialID int) (*Mesh, error) {
	vertices := []core.Vec3{corner, corner.Add(u), corner.Add(u).Add(v), corner.Add(v)}
	return NewMesh(name, vertices, nil, []int{0, 1, 2, 0, 2, 3}, materialID)
}

// NewBoxMesh creates a box with outward normals, given its center, half
// extents and a rotation about the vertical axis in radians
func NewBoxMesh(name string, center, halfSize core.Vec3, rotationY float64, materialID int) (*Mesh, error) {
	sin, cos := math.Sincos(rotationY)
	corner := func(x, y, z float64) core.Vec3 {
		p := core.NewVec3(x*halfSize.X, y*halfSize.Y, z*halfSize.Z)
		return core.NewVec3(cos*p.X+sin*p.Z, p.Y, -sin*p.X+cos*p.Z).Add(center)
	}

	vertices := []core.Vec3{
		corner(-1, -1, -1), corner(1, -1, -1), corner(1, 1, -1), corner(-1, 1, -1),
		corner(-1, -1, 1), corner(1, -1, 1), corner(1, 1, 1), corner(-1, 1, 1),
	}
	indices := []int{
		0, 3, 2, 0, 2, 1, // back
		4, 5, 6, 4, 6, 7, // front
		0, 4, 7, 0, 7, 3, // left
		1, 2, 6, 1, 6, 5, // right
		3, 7, 6, 3, 6, 2, // top
		0, 1, 5, 0, 5, 4, // bottom
	}
	return NewMesh(name, vertices, nil, indices, materialID)
}
