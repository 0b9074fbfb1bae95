package scene

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
	"github.com/df07/go-bidirectional-tracer/pkg/geometry"
	"github.com/df07/go-bidirectional-tracer/pkg/material"
)

// Vec3Cfg is a JSON [x, y, z] triple
type Vec3Cfg [3]float64

// Vec3 converts the triple
func (v Vec3Cfg) Vec3() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

type CameraCfg struct {
	Name      string  `json:"name"`
	Position  Vec3Cfg `json:"position"`
	Direction Vec3Cfg `json:"direction"`
	Up        Vec3Cfg `json:"up"`
	FovDeg    float64 `json:"fovDeg"` // horizontal
}

type MaterialCfg struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"` // diffuse, mirror or glass
	Albedo      Vec3Cfg `json:"albedo,omitempty"`
	InternalIOR float64 `json:"internalIOR,omitempty"`
	ExternalIOR float64 `json:"externalIOR,omitempty"`
}

type QuadCfg struct {
	Corner Vec3Cfg `json:"corner"`
	U      Vec3Cfg `json:"u"`
	V      Vec3Cfg `json:"v"`
}

type BoxCfg struct {
	Center      Vec3Cfg `json:"center"`
	HalfSize    Vec3Cfg `json:"halfSize"`
	RotationDeg float64 `json:"rotationDeg,omitempty"` // about +Y
}

// MeshCfg describes one of: an indexed triangle list, a quad or a box
type MeshCfg struct {
	Name     string    `json:"name"`
	Material string    `json:"material"`
	Vertices []Vec3Cfg `json:"vertices,omitempty"`
	Normals  []Vec3Cfg `json:"normals,omitempty"`
	Indices  []int     `json:"indices,omitempty"`
	Quad     *QuadCfg  `json:"quad,omitempty"`
	Box      *BoxCfg   `json:"box,omitempty"`
}

// LightCfg describes either an indexed triangle list or a rectangle given by
// position, direction, up and size
type LightCfg struct {
	Name      string     `json:"name"`
	Exitance  Vec3Cfg    `json:"exitance"`
	Vertices  []Vec3Cfg  `json:"vertices,omitempty"`
	Normals   []Vec3Cfg  `json:"normals,omitempty"`
	Indices   []int      `json:"indices,omitempty"`
	Position  Vec3Cfg    `json:"position,omitempty"`
	Direction Vec3Cfg    `json:"direction,omitempty"`
	Up        Vec3Cfg    `json:"up,omitempty"`
	Size      [2]float64 `json:"size,omitempty"`
}

// Config is the on-disk scene description
type Config struct {
	Name      string        `json:"name"`
	Cameras   []CameraCfg   `json:"cameras"`
	Materials []MaterialCfg `json:"materials"`
	Meshes    []MeshCfg     `json:"meshes"`
	Lights    []LightCfg    `json:"lights"`
}

func toVec3s(in []Vec3Cfg) []core.Vec3 {
	if in == nil {
		return nil
	}
	out := make([]core.Vec3, len(in))
	for i, v := range in {
		out[i] = v.Vec3()
	}
	return out
}

// Build validates and constructs the BSDF
func (m MaterialCfg) Build() (material.BSDF, error) {
	kind, err := material.ParseKind(m.Type)
	if err != nil {
		return nil, fmt.Errorf("material %q: %w", m.Name, err)
	}
	return material.New(material.Params{
		Kind:        kind,
		Albedo:      m.Albedo.Vec3(),
		InternalIOR: m.InternalIOR,
		ExternalIOR: m.ExternalIOR,
	})
}

// Build validates and constructs the mesh, resolving its material by name
func (m MeshCfg) Build(materials *material.Materials) (*geometry.Mesh, error) {
	id, ok := materials.ID(m.Material)
	if !ok {
		return nil, fmt.Errorf("mesh %q material %q: %w", m.Name, m.Material, ErrUnknownMaterial)
	}

	switch {
	case m.Quad != nil:
		return geometry.NewQuadMesh(m.Name, m.Quad.Corner.Vec3(), m.Quad.U.Vec3(), m.Quad.V.Vec3(), id)
	case m.Box != nil:
		return geometry.NewBoxMesh(m.Name, m.Box.Center.Vec3(), m.Box.HalfSize.Vec3(), m.Box.RotationDeg*math.Pi/180, id)
	default:
		return geometry.NewMesh(m.Name, toVec3s(m.Vertices), toVec3s(m.Normals), m.Indices, id)
	}
}

// Build adds the light to s
func (l LightCfg) Build(s *Scene) error {
	var err error
	if len(l.Indices) > 0 {
		_, err = s.Lights.AddTriangles(l.Name, toVec3s(l.Vertices), toVec3s(l.Normals), l.Indices, l.Exitance.Vec3())
	} else {
		_, err = s.Lights.AddQuad(l.Name, l.Position.Vec3(), l.Direction.Vec3(), l.Up.Vec3(), l.Exitance.Vec3(), core.NewVec2(l.Size[0], l.Size[1]))
	}
	return err
}

// Build adds the camera to s
func (c CameraCfg) Build(s *Scene) error {
	_, err := s.Cameras.AddCameraFovX(c.Name, c.Position.Vec3(), c.Direction.Vec3(), c.Up.Vec3(), c.FovDeg*math.Pi/180)
	return err
}

// Build constructs and builds the scene
func (c *Config) Build() (*Scene, error) {
	s := New(c.Name)

	for _, m := range c.Materials {
		bsdf, err := m.Build()
		if err != nil {
			return nil, err
		}
		if _, err := s.Materials.Add(m.Name, bsdf); err != nil {
			return nil, err
		}
	}
	for _, m := range c.Meshes {
		mesh, err := m.Build(s.Materials)
		if err != nil {
			return nil, err
		}
		s.AddMesh(mesh)
	}
	for _, l := range c.Lights {
		if err := l.Build(s); err != nil {
			return nil, err
		}
	}
	for _, cam := range c.Cameras {
		if err := cam.Build(s); err != nil {
			return nil, err
		}
	}

	if err := s.Build(); err != nil {
		return nil, err
	}
	return s, nil
}

// Parse decodes a JSON scene description
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("while decoding scene: %w", err)
	}
	if len(cfg.Lights) == 0 {
		return nil, fmt.Errorf("scene has no lights: %w", core.ErrInvalidState)
	}
	if len(cfg.Cameras) == 0 {
		return nil, fmt.Errorf("scene %q: %w", cfg.Name, ErrNoCamera)
	}
	return &cfg, nil
}

// LoadFile reads, parses and builds a scene file. The scene name defaults to
// the file name without extension.
func LoadFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("while reading scene: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	s, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
