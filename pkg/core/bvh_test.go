package core

import (
	"math"
	"testing"
)

// slab is a square in a plane z = const, used as a test primitive
type slab struct {
	z, half float64
}

func (s slab) BoundingBox() AABB {
	return AABB{Min: NewVec3(-s.half, -s.half, s.z), Max: NewVec3(s.half, s.half, s.z)}
}

func (s slab) Intersect(ray Ray, tMin, tMax float64) (float64, float64, float64, bool) {
	if ray.Direction.Z == 0 {
		return 0, 0, 0, false
	}
	t := (s.z - ray.Origin.Z) / ray.Direction.Z
	if t <= tMin || t >= tMax {
		return 0, 0, 0, false
	}
	p := ray.At(t)
	if math.Abs(p.X) > s.half || math.Abs(p.Y) > s.half {
		return 0, 0, 0, false
	}
	return t, 0, 0, true
}

func TestBVH_Empty(t *testing.T) {
	bvh := NewBVH(nil)
	ray := NewRay(Vec3{}, NewVec3(0, 0, 1))
	if _, ok := bvh.Closest(ray, 0, math.Inf(1)); ok {
		t.Error("expected no hit for empty BVH")
	}
	if bvh.Any(ray, 0, math.Inf(1)) {
		t.Error("expected no occlusion for empty BVH")
	}
}

func TestBVH_ClosestAcrossLeaves(t *testing.T) {
	// more slabs than fit in a single leaf
	var prims []Primitive
	for i := 20; i >= 1; i-- {
		prims = append(prims, slab{z: float64(i), half: 1})
	}
	bvh := NewBVH(prims)

	if bvh.Depth() < 2 {
		t.Errorf("expected a split hierarchy, depth %d", bvh.Depth())
	}

	hit, ok := bvh.Closest(NewRay(NewVec3(0, 0, 0), NewVec3(0, 0, 1)), 1e-6, math.Inf(1))
	if !ok {
		t.Fatal("expected a hit")
	}
	if math.Abs(hit.T-1) > 1e-12 {
		t.Errorf("closest t = %v, expected 1", hit.T)
	}
	if prims[hit.Index].(slab).z != 1 {
		t.Errorf("closest primitive z = %v", prims[hit.Index].(slab).z)
	}

	hit, ok = bvh.Closest(NewRay(NewVec3(0, 0, 7.5), NewVec3(0, 0, -1)), 1e-6, math.Inf(1))
	if !ok || math.Abs(hit.T-0.5) > 1e-12 {
		t.Errorf("backward ray hit %v (ok=%v), expected t=0.5", hit.T, ok)
	}
}

func TestBVH_AnyRespectsRange(t *testing.T) {
	bvh := NewBVH([]Primitive{slab{z: 5, half: 1}})
	ray := NewRay(Vec3{}, NewVec3(0, 0, 1))

	if !bvh.Any(ray, 1e-6, 10) {
		t.Error("expected occlusion inside range")
	}
	if bvh.Any(ray, 1e-6, 4) {
		t.Error("unexpected occlusion beyond tMax")
	}
	if bvh.Any(NewRay(NewVec3(3, 0, 0), NewVec3(0, 0, 1)), 1e-6, 10) {
		t.Error("unexpected occlusion for ray missing the slab")
	}
}
