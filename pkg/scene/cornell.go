package scene

import (
	"math"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
)

// CornellConfig returns the classic 555-unit Cornell box with a rectangular
// ceiling light, a mirror block and a glass block
func CornellConfig() *Config {
	const size = 555.0
	const radiance = 15.0

	return &Config{
		Name: "cornell",
		Cameras: []CameraCfg{{
			Name:      "front",
			Position:  Vec3Cfg{278, 278, -800},
			Direction: Vec3Cfg{0, 0, 1},
			Up:        Vec3Cfg{0, 1, 0},
			FovDeg:    40,
		}},
		Materials: []MaterialCfg{
			{Name: "white", Type: "diffuse", Albedo: Vec3Cfg{0.73, 0.73, 0.73}},
			{Name: "red", Type: "diffuse", Albedo: Vec3Cfg{0.65, 0.05, 0.05}},
			{Name: "green", Type: "diffuse", Albedo: Vec3Cfg{0.12, 0.45, 0.15}},
			{Name: "mirror", Type: "mirror"},
			{Name: "glass", Type: "glass", InternalIOR: 1.5, ExternalIOR: 1.0},
		},
		Meshes: []MeshCfg{
			{Name: "floor", Material: "white", Quad: &QuadCfg{Corner: Vec3Cfg{0, 0, 0}, U: Vec3Cfg{0, 0, size}, V: Vec3Cfg{size, 0, 0}}},
			{Name: "ceiling", Material: "white", Quad: &QuadCfg{Corner: Vec3Cfg{0, size, 0}, U: Vec3Cfg{size, 0, 0}, V: Vec3Cfg{0, 0, size}}},
			{Name: "back", Material: "white", Quad: &QuadCfg{Corner: Vec3Cfg{0, 0, size}, U: Vec3Cfg{0, size, 0}, V: Vec3Cfg{size, 0, 0}}},
			{Name: "left", Material: "red", Quad: &QuadCfg{Corner: Vec3Cfg{0, 0, 0}, U: Vec3Cfg{0, size, 0}, V: Vec3Cfg{0, 0, size}}},
			{Name: "right", Material: "green", Quad: &QuadCfg{Corner: Vec3Cfg{size, 0, 0}, U: Vec3Cfg{0, 0, size}, V: Vec3Cfg{0, size, 0}}},
			{Name: "tall block", Material: "mirror", Box: &BoxCfg{Center: Vec3Cfg{366, 165, 383}, HalfSize: Vec3Cfg{82.5, 165, 82.5}, RotationDeg: 15}},
			{Name: "short block", Material: "glass", Box: &BoxCfg{Center: Vec3Cfg{185, 82.5, 169}, HalfSize: Vec3Cfg{82.5, 82.5, 82.5}, RotationDeg: -18}},
		},
		Lights: []LightCfg{{
			Name:      "ceiling light",
			Exitance:  Vec3Cfg{radiance * math.Pi, radiance * math.Pi, radiance * math.Pi},
			Position:  Vec3Cfg{278, size - 0.5, 278},
			Direction: Vec3Cfg{0, -1, 0},
			Up:        Vec3Cfg{0, 0, 1},
			Size:      [2]float64{130, 105},
		}},
	}
}

// NewCornellScene builds the Cornell box
func NewCornellScene() (*Scene, error) {
	return CornellConfig().Build()
}

// NewLitPlaneScene builds a diffuse square floor under a square area light,
// with a camera looking straight down at the floor. It is small enough for tests.
func NewLitPlaneScene(albedo, exitance core.Vec3) (*Scene, error) {
	cfg := &Config{
		Name: "lit plane",
		Cameras: []CameraCfg{{
			Name:      "top",
			Position:  Vec3Cfg{0, 0.5, 0},
			Direction: Vec3Cfg{0, -1, 0},
			Up:        Vec3Cfg{0, 0, 1},
			FovDeg:    10,
		}},
		Materials: []MaterialCfg{
			{Name: "floor", Type: "diffuse", Albedo: Vec3Cfg{albedo.X, albedo.Y, albedo.Z}},
		},
		Meshes: []MeshCfg{
			{Name: "floor", Material: "floor", Quad: &QuadCfg{Corner: Vec3Cfg{-10, 0, -10}, U: Vec3Cfg{0, 0, 20}, V: Vec3Cfg{20, 0, 0}}},
		},
		Lights: []LightCfg{{
			Name:      "panel",
			Exitance:  Vec3Cfg{exitance.X, exitance.Y, exitance.Z},
			Position:  Vec3Cfg{0, 1, 0},
			Direction: Vec3Cfg{0, -1, 0},
			Up:        Vec3Cfg{0, 0, 1},
			Size:      [2]float64{1, 1},
		}},
	}
	return cfg.Build()
}
