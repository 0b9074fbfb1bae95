package scene

import (
	"fmt"
	"math"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
	"github.com/df07/go-bidirectional-tracer/pkg/material"
)

// Camera is a pinhole camera. Its lens is the delta material.Camera BSDF.
type Camera struct {
	Name      string
	Position  core.Vec3
	Direction core.Vec3
	Up        core.Vec3
	FovX      float64 // horizontal field of view in radians

	forward, right, up core.Vec3
	tanHalfFovX        float64
}

// Cameras is the list of viewpoints of a scene
type Cameras struct {
	cameras []Camera
	bsdf    material.Camera
}

// AddCameraFovX adds a camera with a horizontal field of view in radians and returns its id
func (c *Cameras) AddCameraFovX(name string, position, direction, up core.Vec3, fovx float64) (int, error) {
	forward := direction.Normalize()
	right := up.Cross(forward).Normalize()
	if forward.IsZero() || right.IsZero() {
		return 0, fmt.Errorf("camera %q has a degenerate orientation: %w", name, core.ErrInvalidGeometry)
	}
	if fovx <= 0 || fovx >= math.Pi {
		return 0, fmt.Errorf("camera %q field of view %v: %w", name, fovx, core.ErrInvalidGeometry)
	}

	c.cameras = append(c.cameras, Camera{
		Name:        name,
		Position:    position,
		Direction:   direction,
		Up:          up,
		FovX:        fovx,
		forward:     forward,
		right:       right,
		up:          forward.Cross(right),
		tanHalfFovX: math.Tan(fovx * 0.5),
	})
	return len(c.cameras) - 1, nil
}

// Len returns the number of cameras
func (c *Cameras) Len() int {
	return len(c.cameras)
}

// Get returns a camera by id
func (c *Cameras) Get(id int) Camera {
	return c.cameras[id]
}

// ID finds a camera by name
func (c *Cameras) ID(name string) (int, bool) {
	for i, camera := range c.cameras {
		if camera.Name == name {
			return i, true
		}
	}
	return 0, false
}

// BSDF returns the delta BSDF shared by every camera
func (c *Cameras) BSDF() material.BSDF {
	return c.bsdf
}

// Shoot generates a primary ray through pixel (x, y) jittered by a sample from
// sampler. Pixel (0, 0) is the top-left corner; aspect is width/height.
func (c *Cameras) Shoot(id int, sampler core.Sampler, widthInv, heightInv, aspect float64, x, y int) core.Ray {
	return c.ShootAt(id, sampler.Get2D(), widthInv, heightInv, aspect, x, y)
}

// ShootAt is Shoot with an explicit sub-pixel offset in [0, 1)^2
func (c *Cameras) ShootAt(id int, offset core.Vec2, widthInv, heightInv, aspect float64, x, y int) core.Ray {
	camera := &c.cameras[id]

	sx := (float64(x)+offset.X)*widthInv*2.0 - 1.0
	sy := 1.0 - (float64(y)+offset.Y)*heightInv*2.0

	direction := camera.forward.
		Add(camera.right.Multiply(sx * camera.tanHalfFovX)).
		Add(camera.up.Multiply(sy * camera.tanHalfFovX / aspect))

	return core.NewRay(camera.Position, direction.Normalize())
}
