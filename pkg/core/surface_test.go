package core

import (
	"errors"
	"math"
	"testing"
)

func TestSurfacePoint_FrameIsOrthonormal(t *testing.T) {
	p, err := NewSurfacePoint(NewVec3(1, 2, 3), NewVec3(0, 0, 2), NewVec3(1, 0, 0.5), 4)
	if err != nil {
		t.Fatalf("NewSurfacePoint: %v", err)
	}

	n, tg, b := p.Normal(), p.Tangent(), p.Bitangent()
	for name, v := range map[string]Vec3{"normal": n, "tangent": tg, "bitangent": b} {
		if math.Abs(v.Length()-1) > 1e-12 {
			t.Errorf("%s not unit length: %v", name, v.Length())
		}
	}
	if math.Abs(n.Dot(tg)) > 1e-12 || math.Abs(n.Dot(b)) > 1e-12 || math.Abs(tg.Dot(b)) > 1e-12 {
		t.Error("frame is not orthogonal")
	}
	if !vecNear(n, NewVec3(0, 0, 1), 1e-12) {
		t.Errorf("normal = %v", n)
	}
	if p.Material != 4 {
		t.Errorf("material = %d", p.Material)
	}
}

func TestSurfacePoint_LocalNormalIsUp(t *testing.T) {
	p, err := NewSurfacePoint(Vec3{}, NewVec3(1, 1, 0), Vec3{}, 0)
	if err != nil {
		t.Fatalf("NewSurfacePoint: %v", err)
	}

	local := p.ToSurface(p.Normal())
	if !vecNear(local, NewVec3(0, 1, 0), 1e-12) {
		t.Errorf("normal in local frame = %v, expected +Y", local)
	}

	world := NewVec3(0.3, -0.4, 0.866).Normalize()
	if got := p.ToWorld(p.ToSurface(world)); !vecNear(got, world, 1e-12) {
		t.Errorf("round trip = %v, expected %v", got, world)
	}
	if math.Abs(p.ToSurface(world).Y-p.CosTheta(world)) > 1e-12 {
		t.Error("local Y differs from cos theta")
	}
}

func TestSurfacePoint_DegenerateNormal(t *testing.T) {
	_, err := NewSurfacePoint(Vec3{}, Vec3{}, NewVec3(1, 0, 0), 0)
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("expected ErrInvalidGeometry, got %v", err)
	}
}
