package lights

import (
	"fmt"
	"math"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
)

// AreaLights aggregates every emissive triangle of a scene. Emission is
// diffuse with a constant exitance per face.
//
// Geometry and exitances are mutable; the sampling structures derived from
// them are not. Any mutation drops the structures and BuildLightStructs must
// be called again before sampling.
type AreaLights struct {
	names   []string
	offsets []int // first face of each named light

	vertices  []core.Vec3
	normals   []core.Vec3
	indices   []int
	exitances []core.Vec3 // per face

	dist *distribution
}

// New creates an empty light aggregate
func New() *AreaLights {
	return &AreaLights{}
}

// AddTriangles appends a named emitter made of indexed triangles. Normals are
// per vertex; when nil, each face gets its geometric normal.
func (l *AreaLights) AddTriangles(name string, vertices, normals []core.Vec3, indices []int, exitance core.Vec3) (int, error) {
	if len(indices) == 0 || len(indices)%3 != 0 {
		return 0, fmt.Errorf("light %q has %d indices: %w", name, len(indices), core.ErrInvalidGeometry)
	}
	if normals != nil && len(normals) != len(vertices) {
		return 0, fmt.Errorf("light %q has %d normals for %d vertices: %w", name, len(normals), len(vertices), core.ErrInvalidGeometry)
	}
	for _, index := range indices {
		if index < 0 || index >= len(vertices) {
			return 0, fmt.Errorf("light %q index %d out of range: %w", name, index, core.ErrInvalidGeometry)
		}
		if normals != nil && normals[index].IsZero() {
			return 0, fmt.Errorf("light %q has a zero normal at vertex %d: %w", name, index, core.ErrInvalidGeometry)
		}
	}
	if !exitance.IsFinite() || exitance.X < 0 || exitance.Y < 0 || exitance.Z < 0 {
		return 0, fmt.Errorf("light %q exitance %v: %w", name, exitance, core.ErrInvalidGeometry)
	}

	faceNormals := make([]core.Vec3, len(indices)/3)
	for i := range faceNormals {
		a, b, c := vertices[indices[i*3]], vertices[indices[i*3+1]], vertices[indices[i*3+2]]
		faceNormals[i] = b.Subtract(a).Cross(c.Subtract(a)).Normalize()
		if faceNormals[i].IsZero() {
			return 0, fmt.Errorf("light %q face %d is degenerate: %w", name, i, core.ErrInvalidGeometry)
		}
	}

	id := len(l.names)
	l.names = append(l.names, name)
	l.offsets = append(l.offsets, l.NumFaces())

	for i := 0; i < len(indices); i += 3 {
		base := len(l.vertices)
		for k := 0; k < 3; k++ {
			l.vertices = append(l.vertices, vertices[indices[i+k]])
			if normals != nil {
				l.normals = append(l.normals, normals[indices[i+k]].Normalize())
			} else {
				l.normals = append(l.normals, faceNormals[i/3])
			}
		}
		l.indices = append(l.indices, base, base+1, base+2)
		l.exitances = append(l.exitances, exitance)
	}

	l.dist = nil
	return id, nil
}

// AddQuad appends a rectangular emitter centred at position, emitting toward
// direction, with its height axis along up and size (width, height)
func (l *AreaLights) AddQuad(name string, position, direction, up core.Vec3, exitance core.Vec3, size core.Vec2) (int, error) {
	normal := direction.Normalize()
	vertical := up.Subtract(normal.Multiply(normal.Dot(up))).Normalize()
	if normal.IsZero() || vertical.IsZero() {
		return 0, fmt.Errorf("light %q has a degenerate frame: %w", name, core.ErrInvalidGeometry)
	}
	horizontal := vertical.Cross(normal)

	w := horizontal.Multiply(size.X * 0.5)
	h := vertical.Multiply(size.Y * 0.5)
	vertices := []core.Vec3{
		position.Subtract(w).Subtract(h),
		position.Add(w).Subtract(h),
		position.Add(w).Add(h),
		position.Subtract(w).Add(h),
	}
	normals := []core.Vec3{normal, normal, normal, normal}

	return l.AddTriangles(name, vertices, normals, []int{0, 1, 2, 0, 2, 3}, exitance)
}

// SetExitance changes the exitance of every face of a light
func (l *AreaLights) SetExitance(light int, exitance core.Vec3) error {
	if light < 0 || light >= len(l.names) {
		return fmt.Errorf("light %d out of range: %w", light, core.ErrInvalidState)
	}
	first, last := l.lightFaces(light)
	for face := first; face < last; face++ {
		l.exitances[face] = exitance
	}
	l.dist = nil
	return nil
}

func (l *AreaLights) lightFaces(light int) (int, int) {
	last := l.NumFaces()
	if light+1 < len(l.offsets) {
		last = l.offsets[light+1]
	}
	return l.offsets[light], last
}

// NumLights returns the number of named emitters
func (l *AreaLights) NumLights() int {
	return len(l.names)
}

// NumFaces returns the number of emissive triangles
func (l *AreaLights) NumFaces() int {
	return len(l.indices) / 3
}

// Name returns the name of a light
func (l *AreaLights) Name(light int) string {
	return l.names[light]
}

// FaceVertices returns the three corners of a face
func (l *AreaLights) FaceVertices(face int) (core.Vec3, core.Vec3, core.Vec3) {
	return l.vertices[l.indices[face*3]], l.vertices[l.indices[face*3+1]], l.vertices[l.indices[face*3+2]]
}

// Exitance returns the exitance of a face
func (l *AreaLights) Exitance(face int) core.Vec3 {
	return l.exitances[face]
}

// FaceArea returns the area of a face
func (l *AreaLights) FaceArea(face int) float64 {
	a, b, c := l.FaceVertices(face)
	return b.Subtract(a).Cross(c.Subtract(a)).Length() * 0.5
}

// FacePower returns the radiant power of a face: area * |exitance| * pi, where
// the magnitude of a color is the mean of its channels
func (l *AreaLights) FacePower(face int) float64 {
	return l.FaceArea(face) * l.exitances[face].Average() * math.Pi
}

// LightPower returns the total power of a named light
func (l *AreaLights) LightPower(light int) float64 {
	first, last := l.lightFaces(light)
	power := 0.0
	for face := first; face < last; face++ {
		power += l.FacePower(face)
	}
	return power
}

// TotalArea returns the summed area of all faces
func (l *AreaLights) TotalArea() float64 {
	area := 0.0
	for face := 0; face < l.NumFaces(); face++ {
		area += l.FaceArea(face)
	}
	return area
}

// LerpPosition interpolates a position on a face from barycentric weights
func (l *AreaLights) LerpPosition(face int, uvw core.Vec3) core.Vec3 {
	a, b, c := l.FaceVertices(face)
	return core.Lerp(a, b, c, uvw)
}

// LerpNormal interpolates the unit shading normal on a face
func (l *AreaLights) LerpNormal(face int, uvw core.Vec3) core.Vec3 {
	i := face * 3
	return core.Lerp(l.normals[l.indices[i]], l.normals[l.indices[i+1]], l.normals[l.indices[i+2]], uvw).Normalize()
}

// LerpNormalHit interpolates the normal at an intersection with a light face
func (l *AreaLights) LerpNormalHit(hit core.Hit) core.Vec3 {
	return l.LerpNormal(hit.FaceID, hit.Barycentric())
}
