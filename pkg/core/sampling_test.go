package core

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestSampleCosineHemisphere(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewSource(42)))

	for i := 0; i < 1000; i++ {
		s := SampleCosineHemisphere(sampler.Get2D())
		if s.Omega.Y < 0 {
			t.Fatalf("sample %d below the surface: %v", i, s.Omega)
		}
		if math.Abs(s.Omega.Length()-1) > 1e-9 {
			t.Fatalf("sample %d not unit length: %v", i, s.Omega.Length())
		}
		if math.Abs(s.Density-s.Omega.Y/math.Pi) > 1e-12 {
			t.Fatalf("sample %d density %v, expected cos/pi %v", i, s.Density, s.Omega.Y/math.Pi)
		}
	}
}

func TestSampleCosineHemisphere_ProjectedSolidAngle(t *testing.T) {
	// E[cos/density] over the hemisphere equals the projected solid angle pi
	sampler := NewSeededSampler(7)
	const n = 100000

	sum := 0.0
	for i := 0; i < n; i++ {
		s := SampleCosineHemisphere(sampler.Get2D())
		if s.Density > 0 {
			sum += s.Omega.Y / s.Density
		}
	}

	if got := sum / n; math.Abs(got-math.Pi) > 1e-6 {
		t.Errorf("projected solid angle %v, expected pi", got)
	}
}

func TestSampleUniformHemisphere_SolidAngle(t *testing.T) {
	sampler := NewSeededSampler(3)
	const n = 20000

	sum := 0.0
	for i := 0; i < n; i++ {
		s := SampleUniformHemisphere(sampler.Get2D())
		sum += 1.0 / s.Density
	}

	if got := sum / n; math.Abs(got-2*math.Pi) > 1e-9 {
		t.Errorf("solid angle %v, expected 2 pi", got)
	}
}

func TestSampleBarycentric(t *testing.T) {
	tests := []struct {
		name     string
		u        Vec2
		expected Vec3
	}{
		{"lower triangle", NewVec2(0.2, 0.3), NewVec3(0.2, 0.3, 0.5)},
		{"folded", NewVec2(0.8, 0.6), NewVec3(0.2, 0.4, 0.4)},
		{"diagonal", NewVec2(0.5, 0.5), NewVec3(0.5, 0.5, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SampleBarycentric(tt.u)
			if !vecNear(got, tt.expected, 1e-12) {
				t.Errorf("SampleBarycentric(%v) = %v, expected %v", tt.u, got, tt.expected)
			}
			if math.Abs(got.Sum()-1) > 1e-12 {
				t.Errorf("weights sum to %v", got.Sum())
			}
		})
	}
}

func TestPiecewiseSampler_Frequencies(t *testing.T) {
	weights := []float64{1, 0, 3, 4}
	p, err := NewPiecewiseSampler(weights)
	if err != nil {
		t.Fatalf("NewPiecewiseSampler: %v", err)
	}

	random := rand.New(rand.NewSource(42))
	const n = 80000
	counts := make([]int, len(weights))
	for i := 0; i < n; i++ {
		counts[p.Sample(random.Float64())]++
	}

	if counts[1] != 0 {
		t.Errorf("zero-weight entry selected %d times", counts[1])
	}
	for i, w := range weights {
		expected := w / p.Total()
		if math.Abs(p.Probability(i)-expected) > 1e-12 {
			t.Errorf("Probability(%d) = %v, expected %v", i, p.Probability(i), expected)
		}
		if got := float64(counts[i]) / n; math.Abs(got-expected) > 0.01 {
			t.Errorf("entry %d frequency %v, expected %v", i, got, expected)
		}
	}
}

func TestPiecewiseSampler_Edges(t *testing.T) {
	p, err := NewPiecewiseSampler([]float64{2, 2, 0})
	if err != nil {
		t.Fatalf("NewPiecewiseSampler: %v", err)
	}

	if got := p.Sample(0); got != 0 {
		t.Errorf("Sample(0) = %d, expected 0", got)
	}
	if got := p.Sample(math.Nextafter(1, 0)); got != 1 {
		t.Errorf("Sample(1-) = %d, expected 1", got)
	}
	if got := p.Sample(1); got != 1 {
		t.Errorf("Sample(1) = %d, expected last selectable entry 1", got)
	}
}

func TestPiecewiseSampler_Errors(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		want    error
	}{
		{"empty", nil, ErrInvalidState},
		{"all zero", []float64{0, 0}, ErrInvalidState},
		{"negative", []float64{1, -1}, ErrNumericDegenerate},
		{"nan", []float64{math.NaN()}, ErrNumericDegenerate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPiecewiseSampler(tt.weights)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
