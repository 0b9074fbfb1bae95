package scene

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
	"github.com/df07/go-bidirectional-tracer/pkg/geometry"
	"github.com/df07/go-bidirectional-tracer/pkg/lights"
	"github.com/df07/go-bidirectional-tracer/pkg/material"
)

var (
	// ErrNoCamera is returned when a scene or a camera lookup has no camera to offer
	ErrNoCamera = errors.New("scene: no camera")
	// ErrUnknownMaterial is returned when a mesh references a material that does not exist
	ErrUnknownMaterial = errors.New("scene: unknown material")
)

// Scene holds everything the estimator reads: materials, meshes, area lights,
// cameras and the intersector built over them. After Build it is read-only and
// safe for concurrent use; only the ray counters change.
type Scene struct {
	Name      string
	Materials *material.Materials
	Meshes    []*geometry.Mesh
	Lights    *lights.AreaLights
	Cameras   Cameras

	intersector *geometry.Intersector

	intersectRays atomic.Int64
	occludedRays  atomic.Int64
}

// New creates an empty scene
func New(name string) *Scene {
	return &Scene{
		Name:      name,
		Materials: material.NewMaterials(),
		Lights:    lights.New(),
	}
}

// AddMesh appends a mesh
func (s *Scene) AddMesh(mesh *geometry.Mesh) {
	s.Meshes = append(s.Meshes, mesh)
	s.intersector = nil
}

// Build validates the scene, builds the light sampling structures and the
// intersector. It must be called again after any change.
func (s *Scene) Build() error {
	for _, mesh := range s.Meshes {
		if _, err := s.Materials.Lookup(mesh.MaterialID); err != nil {
			return fmt.Errorf("mesh %q: %w", mesh.Name, ErrUnknownMaterial)
		}
	}
	if s.Cameras.Len() == 0 {
		return fmt.Errorf("scene %q: %w", s.Name, ErrNoCamera)
	}
	if err := s.Lights.BuildLightStructs(); err != nil {
		return fmt.Errorf("scene %q: %w", s.Name, err)
	}

	s.intersector = geometry.NewIntersector(s.Meshes, s.Lights)
	return nil
}

// Intersect implements core.Intersector
func (s *Scene) Intersect(origin, direction core.Vec3) core.Hit {
	s.intersectRays.Add(1)
	return s.intersector.Intersect(origin, direction)
}

// Occluded implements core.Intersector
func (s *Scene) Occluded(a, b core.Vec3) float64 {
	s.occludedRays.Add(1)
	return s.intersector.Occluded(a, b)
}

// NumRays returns the number of closest-hit and shadow queries issued so far
func (s *Scene) NumRays() (intersect, occluded int64) {
	return s.intersectRays.Load(), s.occludedRays.Load()
}

// ResetCounters zeroes the ray counters
func (s *Scene) ResetCounters() {
	s.intersectRays.Store(0)
	s.occludedRays.Store(0)
}

// NumTriangles returns the number of triangles, lights included
func (s *Scene) NumTriangles() int {
	if s.intersector == nil {
		return 0
	}
	return s.intersector.NumTriangles()
}

// QuerySurface builds the shading point and BSDF of a mesh hit. Surfaces other
// than refracting interfaces are two-sided: their frame is turned toward the
// incoming ray. It reports false when the hit has no usable frame.
func (s *Scene) QuerySurface(hit core.Hit) (core.SurfacePoint, material.BSDF, bool) {
	if !hit.Found() || hit.IsLight() {
		return core.SurfacePoint{}, nil, false
	}

	mesh := s.Meshes[hit.MeshID]
	bsdf, err := s.Materials.Lookup(mesh.MaterialID)
	if err != nil {
		return core.SurfacePoint{}, nil, false
	}

	uvw := hit.Barycentric()
	normal := mesh.LerpNormal(hit.FaceID, uvw)
	if bsdf.Kind() != material.KindTransmission && normal.Dot(hit.Incident()) < 0 {
		normal = normal.Negate()
	}

	point, err := core.NewSurfacePoint(hit.Position(), normal, mesh.LerpTangent(hit.FaceID, uvw), mesh.MaterialID)
	if err != nil {
		return core.SurfacePoint{}, nil, false
	}
	return point, bsdf, true
}

// QueryRadiance returns the radiance leaving a light hit toward the ray origin
func (s *Scene) QueryRadiance(hit core.Hit) core.Vec3 {
	if !hit.IsLight() {
		return core.Vec3{}
	}
	return s.Lights.QueryRadiance(hit.FaceID, s.Lights.LerpNormalHit(hit), hit.Incident())
}

// QueryLSDF returns the emission of a light hit toward the ray origin with its densities
func (s *Scene) QueryLSDF(hit core.Hit) (lights.LSDFQuery, core.Vec3) {
	normal := s.Lights.LerpNormalHit(hit)
	return s.Lights.QueryLSDF(hit.FaceID, normal, hit.Incident()), normal
}
