package core

import "sort"

// Primitive is anything the BVH can hold
type Primitive interface {
	BoundingBox() AABB
	// Intersect returns the ray parameter and barycentric (u, v) of a hit inside (tMin, tMax)
	Intersect(ray Ray, tMin, tMax float64) (t, u, v float64, ok bool)
}

// PrimitiveHit identifies the closest primitive hit by a ray
type PrimitiveHit struct {
	Index   int // index into the slice passed to NewBVH
	T, U, V float64
}

type bvhNode struct {
	box         AABB
	left, right *bvhNode
	items       []int // primitive indices, leaves only
}

// BVH is a bounding volume hierarchy over a fixed set of primitives.
// It is read-only after construction and safe for concurrent queries.
type BVH struct {
	root       *bvhNode
	primitives []Primitive
}

// Leaf threshold: if we have this many or fewer primitives, store them in a leaf node
const leafThreshold = 8

// NewBVH builds a hierarchy using median splits along the longest axis
func NewBVH(primitives []Primitive) *BVH {
	bvh := &BVH{primitives: primitives}
	if len(primitives) == 0 {
		return bvh
	}

	items := make([]int, len(primitives))
	for i := range items {
		items[i] = i
	}
	bvh.root = bvh.build(items)
	return bvh
}

func (bvh *BVH) build(items []int) *bvhNode {
	box := bvh.primitives[items[0]].BoundingBox()
	for _, i := range items[1:] {
		box = box.Union(bvh.primitives[i].BoundingBox())
	}

	if len(items) <= leafThreshold {
		return &bvhNode{box: box, items: items}
	}

	axis := box.LongestAxis()
	sort.Slice(items, func(a, b int) bool {
		ca := bvh.primitives[items[a]].BoundingBox().Center()
		cb := bvh.primitives[items[b]].BoundingBox().Center()
		switch axis {
		case 0:
			return ca.X < cb.X
		case 1:
			return ca.Y < cb.Y
		default:
			return ca.Z < cb.Z
		}
	})

	mid := len(items) / 2
	return &bvhNode{
		box:   box,
		left:  bvh.build(items[:mid]),
		right: bvh.build(items[mid:]),
	}
}

// Closest returns the nearest primitive hit inside (tMin, tMax)
func (bvh *BVH) Closest(ray Ray, tMin, tMax float64) (PrimitiveHit, bool) {
	best := PrimitiveHit{Index: -1, T: tMax}
	if bvh.root == nil {
		return best, false
	}
	bvh.closest(bvh.root, ray, tMin, &best)
	return best, best.Index >= 0
}

func (bvh *BVH) closest(node *bvhNode, ray Ray, tMin float64, best *PrimitiveHit) {
	if !node.box.Hit(ray, tMin, best.T) {
		return
	}

	if node.items != nil {
		for _, i := range node.items {
			if t, u, v, ok := bvh.primitives[i].Intersect(ray, tMin, best.T); ok {
				*best = PrimitiveHit{Index: i, T: t, U: u, V: v}
			}
		}
		return
	}

	bvh.closest(node.left, ray, tMin, best)
	bvh.closest(node.right, ray, tMin, best)
}

// Any reports whether any primitive is hit inside (tMin, tMax), stopping at the first one
func (bvh *BVH) Any(ray Ray, tMin, tMax float64) bool {
	if bvh.root == nil {
		return false
	}
	return bvh.any(bvh.root, ray, tMin, tMax)
}

func (bvh *BVH) any(node *bvhNode, ray Ray, tMin, tMax float64) bool {
	if !node.box.Hit(ray, tMin, tMax) {
		return false
	}

	if node.items != nil {
		for _, i := range node.items {
			if _, _, _, ok := bvh.primitives[i].Intersect(ray, tMin, tMax); ok {
				return true
			}
		}
		return false
	}

	return bvh.any(node.left, ray, tMin, tMax) || bvh.any(node.right, ray, tMin, tMax)
}

// Depth returns the depth of the deepest leaf
func (bvh *BVH) Depth() int {
	var depth func(n *bvhNode) int
	depth = func(n *bvhNode) int {
		if n == nil {
			return 0
		}
		return 1 + max(depth(n.left), depth(n.right))
	}
	return depth(bvh.root)
}
