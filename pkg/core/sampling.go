package core

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"
	"math/rand"
	"time"
)

// Sampler provides uniform random numbers in [0, 1) to sampling routines.
// Can be swapped out for deterministic testing. A Sampler is owned by one
// goroutine at a time.
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a sampler with its own generator seeded with seed
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// EntropySeed returns a seed drawn from the operating system entropy source,
// falling back to the clock when it is unavailable.
func EntropySeed() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}

// HemisphereSample is a direction in the local surface frame (+Y is the normal)
// together with its solid-angle density.
type HemisphereSample struct {
	Omega   Vec3
	Density float64
}

// SampleCosineHemisphere samples the upper hemisphere proportionally to cos(theta).
// Density is cos(theta)/pi.
func SampleCosineHemisphere(u Vec2) HemisphereSample {
	phi := 2.0 * math.Pi * u.X
	r := math.Sqrt(u.Y)
	y := math.Sqrt(math.Max(0, 1.0-u.Y))

	return HemisphereSample{
		Omega:   Vec3{r * math.Cos(phi), y, r * math.Sin(phi)},
		Density: y / math.Pi,
	}
}

// SampleUniformHemisphere samples the upper hemisphere with constant density 1/(2 pi)
func SampleUniformHemisphere(u Vec2) HemisphereSample {
	y := u.Y
	r := math.Sqrt(math.Max(0, 1.0-y*y))
	phi := 2.0 * math.Pi * u.X

	return HemisphereSample{
		Omega:   Vec3{r * math.Cos(phi), y, r * math.Sin(phi)},
		Density: 1.0 / (2.0 * math.Pi),
	}
}

// SampleBarycentric maps a unit-square sample to uniformly distributed
// barycentric weights by folding the upper triangle of the square.
func SampleBarycentric(u Vec2) Vec3 {
	if u.X+u.Y <= 1.0 {
		return Vec3{u.X, u.Y, 1.0 - u.X - u.Y}
	}
	return Vec3{1.0 - u.X, 1.0 - u.Y, u.X + u.Y - 1.0}
}
