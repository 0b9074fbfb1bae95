package integrator

import (
	"math"
	"testing"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
)

// cosine-weighted diffuse density of leaving a surface with normal n along dir
func diffuseDensity(n, dir core.Vec3) float64 {
	return math.Abs(n.Dot(dir)) / math.Pi
}

func TestWeightsSumToOne(t *testing.T) {
	// camera e0 -> floor x1 -> wall x2 -> ceiling light y0
	e0 := core.NewVec3(2, 1, 0)
	x1, n1 := core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0)
	x2, n2 := core.NewVec3(0, 1, 0.5), core.NewVec3(1, 0, 0)
	y0, ny := core.NewVec3(0.8, 2, 0.3), core.NewVec3(0, -1, 0)
	areaDensity := 0.25

	dir := func(from, to core.Vec3) core.Vec3 { return to.Subtract(from).Normalize() }
	dist2 := func(a, b core.Vec3) float64 { return b.Subtract(a).LengthSquared() }
	cos := func(n, d core.Vec3) float64 { return math.Abs(n.Dot(d)) }

	for _, beta := range []float64{1, 2, 0.5} {
		h := heuristic{beta: beta}

		// eye subpath
		c1, sumC1 := h.arrive(0, 0, dist2(e0, x1), cos(n1, dir(x1, e0)))
		c, sumC := h.scatter(c1, sumC1, cos(n1, dir(x1, x2)), diffuseDensity(n1, dir(x1, x2)), diffuseDensity(n1, dir(x1, e0)))
		c2, sumC2 := h.arrive(c, sumC, dist2(x1, x2), cos(n2, dir(x2, x1)))

		cosAtLight := cos(ny, dir(y0, x2))
		emissionDensity := areaDensity * cosAtLight / math.Pi

		// eye subpath reaches the light
		c, sumC = h.scatter(c2, sumC2, cos(n2, dir(x2, y0)), diffuseDensity(n2, dir(x2, y0)), diffuseDensity(n2, dir(x2, x1)))
		c, sumC = h.arrive(c, sumC, dist2(x2, y0), cosAtLight)
		w0 := h.weight0(c, sumC, areaDensity, emissionDensity)

		// next event estimation at x2
		d2 := dist2(x2, y0)
		w1 := h.weight1(c2, sumC2,
			diffuseDensity(n2, dir(x2, y0)), diffuseDensity(n2, dir(x2, x1)),
			areaDensity*d2/cosAtLight, cosAtLight/math.Pi, cos(n2, dir(x2, y0)), d2)

		// light subpath y0 -> x2 joined to eye vertex x1
		a, sumA := h.emit(areaDensity, emissionDensity, cosAtLight)
		a, sumA = h.arrive(a, sumA, d2, cos(n2, dir(x2, y0)))
		d12 := dist2(x1, x2)
		w2 := h.weightConnect(c1, sumC1, a, sumA,
			diffuseDensity(n1, dir(x1, x2))*cos(n2, dir(x2, x1))/d12, diffuseDensity(n1, dir(x1, e0)),
			diffuseDensity(n2, dir(x2, x1))*cos(n1, dir(x1, x2))/d12, diffuseDensity(n2, dir(x2, y0)),
		)

		for _, w := range []float64{w0, w1, w2} {
			if w <= 0 || w >= 1 {
				t.Errorf("beta %v: weight %v outside (0, 1)", beta, w)
			}
		}
		if sum := w0 + w1 + w2; math.Abs(sum-1) > 1e-9 {
			t.Errorf("beta %v: weights %v + %v + %v = %v, want 1", beta, w0, w1, w2, sum)
		}
	}
}

func TestDirectHitHasFullWeight(t *testing.T) {
	h := heuristic{beta: 1}

	// a camera ray straight into a light: no other strategy can build the path
	c, sumC := h.arrive(0, 0, 4, 0.5)
	if w := h.weight0(c, sumC, 0.3, 0.3*0.5/math.Pi); w != 1 {
		t.Errorf("weight0 = %v, want 1", w)
	}
}

func TestSpecularBounceDisablesConnections(t *testing.T) {
	h := heuristic{beta: 1}

	// diffuse, then mirror: next event from the mirror is impossible, so the
	// vertex after it sees only the running term
	c, sumC := h.scatter(1, 1, 0.5, 0.5/math.Pi, 0.3/math.Pi)
	c, sumC = h.arrive(c, sumC, 2, 0.7)
	c, sumC = h.scatterSpecular(c, sumC, 0.7)
	if c != 0 {
		t.Errorf("c after specular = %v, want 0", c)
	}
	if sumC <= 0 {
		t.Errorf("sumC after specular = %v, want positive", sumC)
	}
}

func TestPow(t *testing.T) {
	tests := []struct {
		beta, x, want float64
	}{
		{1, 3, 3},
		{2, 3, 9},
		{0.5, 4, 2},
		{2, 0, 0},
		{2, -1, 0},
	}
	for _, tt := range tests {
		if got := (heuristic{beta: tt.beta}).pow(tt.x); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("pow(%v)^%v = %v, want %v", tt.x, tt.beta, got, tt.want)
		}
	}
}
