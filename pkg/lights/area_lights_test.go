package lights

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
)

func newCeilingLight(t *testing.T, exitance core.Vec3, size core.Vec2, height float64) *AreaLights {
	t.Helper()
	l := New()
	if _, err := l.AddQuad("ceiling", core.NewVec3(0, height, 0), core.NewVec3(0, -1, 0), core.NewVec3(0, 0, 1), exitance, size); err != nil {
		t.Fatalf("AddQuad: %v", err)
	}
	if err := l.BuildLightStructs(); err != nil {
		t.Fatalf("BuildLightStructs: %v", err)
	}
	return l
}

func TestTotalPower_Quad(t *testing.T) {
	l := newCeilingLight(t, core.NewVec3(1, 1, 1), core.NewVec2(2, 3), 1)

	power, err := l.TotalPower()
	if err != nil {
		t.Fatal(err)
	}
	if expected := 6 * math.Pi; math.Abs(power-expected) > 1e-5 {
		t.Errorf("TotalPower() = %v, expected A*pi = %v", power, expected)
	}
	if l.NumFaces() != 2 || l.NumLights() != 1 {
		t.Errorf("expected 1 light with 2 faces, got %d lights with %d faces", l.NumLights(), l.NumFaces())
	}
	if math.Abs(l.TotalArea()-6) > 1e-12 {
		t.Errorf("TotalArea() = %v", l.TotalArea())
	}
}

func TestTotalPower_SingleTriangle(t *testing.T) {
	l := New()
	vertices := []core.Vec3{core.NewVec3(0, 0, 0), core.NewVec3(2, 0, 0), core.NewVec3(0, 0, 1)}
	exitance := core.NewVec3(0.2, 0.4, 0.6)
	if _, err := l.AddTriangles("tri", vertices, nil, []int{0, 1, 2}, exitance); err != nil {
		t.Fatal(err)
	}
	if err := l.BuildLightStructs(); err != nil {
		t.Fatal(err)
	}

	power, err := l.TotalPower()
	if err != nil {
		t.Fatal(err)
	}
	if expected := 1.0 * 0.4 * math.Pi; math.Abs(power-expected) > 1e-12 {
		t.Errorf("TotalPower() = %v, expected %v", power, expected)
	}
	if l.Density(0) != 1 {
		t.Errorf("single face area density %v, expected 1/area = 1", l.Density(0))
	}
}

func TestTotalPower_MatchesFaceSum(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	l := New()

	for i := 0; i < 20; i++ {
		vertices := make([]core.Vec3, 3)
		for k := range vertices {
			vertices[k] = core.NewVec3(random.Float64(), random.Float64(), random.Float64())
		}
		exitance := core.NewVec3(random.Float64(), random.Float64(), random.Float64())
		if _, err := l.AddTriangles("random", vertices, nil, []int{0, 1, 2}, exitance); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.BuildLightStructs(); err != nil {
		t.Fatal(err)
	}

	expected := 0.0
	for face := 0; face < l.NumFaces(); face++ {
		expected += l.FaceArea(face) * l.Exitance(face).Average() * math.Pi
	}
	power, _ := l.TotalPower()
	if math.Abs(power-expected) > 1e-9 {
		t.Errorf("TotalPower() = %v, expected %v", power, expected)
	}
}

func TestBuildLightStructs_Errors(t *testing.T) {
	if err := New().BuildLightStructs(); !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("empty lights: expected ErrInvalidState, got %v", err)
	}

	dark := New()
	if _, err := dark.AddQuad("dark", core.Vec3{}, core.NewVec3(0, -1, 0), core.NewVec3(0, 0, 1), core.Vec3{}, core.NewVec2(1, 1)); err != nil {
		t.Fatal(err)
	}
	if err := dark.BuildLightStructs(); !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("zero power: expected ErrInvalidState, got %v", err)
	}
}

func TestAddTriangles_InvalidGeometry(t *testing.T) {
	vertices := []core.Vec3{core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0)}
	tests := []struct {
		name     string
		vertices []core.Vec3
		normals  []core.Vec3
		indices  []int
	}{
		{"not triangles", vertices, nil, []int{0, 1}},
		{"index out of range", vertices, nil, []int{0, 1, 3}},
		{"normal count", vertices, []core.Vec3{core.NewVec3(0, 0, 1)}, []int{0, 1, 2}},
		{"degenerate face", vertices, nil, []int{0, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New()
			_, err := l.AddTriangles("bad", tt.vertices, tt.normals, tt.indices, core.Splat(1))
			if !errors.Is(err, core.ErrInvalidGeometry) {
				t.Errorf("expected ErrInvalidGeometry, got %v", err)
			}
			if l.NumLights() != 0 || l.NumFaces() != 0 {
				t.Error("rejected light left partial state behind")
			}
		})
	}
}

func TestSampling_RequiresBuild(t *testing.T) {
	l := newCeilingLight(t, core.Splat(1), core.NewVec2(1, 1), 1)
	sampler := core.NewSeededSampler(1)

	if err := l.SetExitance(0, core.Splat(2)); err != nil {
		t.Fatal(err)
	}
	if l.Built() {
		t.Fatal("mutation should drop the light structures")
	}

	if _, err := l.SampleLight(sampler); !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("SampleLight: expected ErrInvalidState, got %v", err)
	}
	if _, err := l.Emit(sampler); !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("Emit: expected ErrInvalidState, got %v", err)
	}
	if _, err := l.Sample(sampler, core.Vec3{}); !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("Sample: expected ErrInvalidState, got %v", err)
	}
	if _, err := l.TotalPower(); !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("TotalPower: expected ErrInvalidState, got %v", err)
	}

	if err := l.BuildLightStructs(); err != nil {
		t.Fatal(err)
	}
	if power, _ := l.TotalPower(); math.Abs(power-2*math.Pi) > 1e-12 {
		t.Errorf("rebuilt power %v, expected 2 pi", power)
	}
}

func TestSampleLight_ProportionalToPower(t *testing.T) {
	l := New()
	down, forward := core.NewVec3(0, -1, 0), core.NewVec3(0, 0, 1)
	if _, err := l.AddQuad("dim", core.NewVec3(-2, 1, 0), down, forward, core.Splat(1), core.NewVec2(1, 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddQuad("bright", core.NewVec3(2, 1, 0), down, forward, core.Splat(3), core.NewVec2(1, 1)); err != nil {
		t.Fatal(err)
	}
	if err := l.BuildLightStructs(); err != nil {
		t.Fatal(err)
	}

	sampler := core.NewSeededSampler(42)
	const n = 40000
	bright := 0
	for i := 0; i < n; i++ {
		face, err := l.SampleLight(sampler)
		if err != nil {
			t.Fatal(err)
		}
		if face >= 2 {
			bright++
		}
	}

	if got := float64(bright) / n; math.Abs(got-0.75) > 0.01 {
		t.Errorf("bright light selected with frequency %v, expected 0.75", got)
	}
	if math.Abs(l.LightPower(1)-3*l.LightPower(0)) > 1e-12 {
		t.Errorf("light powers %v and %v", l.LightPower(0), l.LightPower(1))
	}
}

func TestSample_DensityConversion(t *testing.T) {
	l := newCeilingLight(t, core.Splat(1), core.NewVec2(1, 1), 2)
	sampler := core.NewSeededSampler(9)
	receiver := core.NewVec3(0.3, 0, -0.2)

	for i := 0; i < 100; i++ {
		s, err := l.Sample(sampler, receiver)
		if err != nil {
			t.Fatal(err)
		}

		toLight := s.Position.Subtract(receiver)
		cosAtLight := s.Normal.Dot(toLight.Normalize().Negate())
		expected := toLight.LengthSquared() / (1.0 * cosAtLight)
		if math.Abs(s.Density-expected) > 1e-9*expected {
			t.Fatalf("density %v, expected %v", s.Density, expected)
		}
		if s.Omega.Dot(toLight.Normalize()) < 1-1e-12 {
			t.Fatalf("omega %v does not point at the light", s.Omega)
		}
		if math.Abs(s.Radiance.X-1/math.Pi) > 1e-12 {
			t.Fatalf("radiance %v, expected 1/pi", s.Radiance)
		}
	}

	// above the light, looking at its back
	s, err := l.Sample(sampler, core.NewVec3(0, 5, 0))
	if err != nil {
		t.Fatal(err)
	}
	if !s.Radiance.IsZero() || s.Density != 0 || s.DensityInv() != 0 {
		t.Errorf("back side sample should carry nothing: %+v", s)
	}
}

// polygonIrradiance evaluates Lambert's formula for a receiver at the origin
// with the given normal and a uniform diffuse polygon of radiance L
func polygonIrradiance(vertices []core.Vec3, normal core.Vec3, radiance float64) float64 {
	sum := 0.0
	for i := range vertices {
		a := vertices[i].Normalize()
		b := vertices[(i+1)%len(vertices)].Normalize()
		angle := math.Acos(math.Max(-1, math.Min(1, a.Dot(b))))
		sum += angle * normal.Dot(a.Cross(b).Normalize())
	}
	return radiance * 0.5 * math.Abs(sum)
}

func TestSample_NextEventIrradianceIsUnbiased(t *testing.T) {
	const height = 1.5
	l := newCeilingLight(t, core.Splat(1), core.NewVec2(2, 1), height)
	sampler := core.NewSeededSampler(42)
	normal := core.NewVec3(0, 1, 0)

	const n = 200000
	sum := 0.0
	for i := 0; i < n; i++ {
		s, err := l.Sample(sampler, core.Vec3{})
		if err != nil {
			t.Fatal(err)
		}
		sum += s.Radiance.X * math.Max(0, normal.Dot(s.Omega)) * s.DensityInv()
	}
	estimate := sum / n

	corners := []core.Vec3{
		core.NewVec3(-1, height, -0.5), core.NewVec3(1, height, -0.5),
		core.NewVec3(1, height, 0.5), core.NewVec3(-1, height, 0.5),
	}
	expected := polygonIrradiance(corners, normal, 1/math.Pi)
	if math.Abs(estimate-expected) > 0.01*expected {
		t.Errorf("NEE irradiance %v, expected %v", estimate, expected)
	}
}

func TestEmit_PowerAndDirection(t *testing.T) {
	exitance := core.NewVec3(0.5, 1, 1.5)
	l := newCeilingLight(t, exitance, core.NewVec2(2, 3), 1)
	sampler := core.NewSeededSampler(42)

	for i := 0; i < 200; i++ {
		photon, err := l.Emit(sampler)
		if err != nil {
			t.Fatal(err)
		}
		if photon.Direction.Y >= 0 {
			t.Fatalf("photon direction %v leaves the back of the light", photon.Direction)
		}
		if math.Abs(photon.Position.Y-1) > 1e-12 || math.Abs(photon.Position.X) > 1 || math.Abs(photon.Position.Z) > 1.5 {
			t.Fatalf("photon position %v off the light", photon.Position)
		}
		// each face is picked with probability 1/2 over area 3: power = exitance * 6
		if !vecNear(photon.Power, exitance.Multiply(6), 1e-9) {
			t.Fatalf("photon power %v, expected %v", photon.Power, exitance.Multiply(6))
		}
	}
}

func TestSampleEmission_Densities(t *testing.T) {
	l := newCeilingLight(t, core.Splat(1), core.NewVec2(1, 2), 1)
	sampler := core.NewSeededSampler(4)

	for i := 0; i < 100; i++ {
		s, err := l.SampleEmission(sampler)
		if err != nil {
			t.Fatal(err)
		}
		cos := s.Normal.Dot(s.Omega)
		if math.Abs(s.OmegaDensity-cos/math.Pi) > 1e-9 {
			t.Fatalf("omega density %v, expected cos/pi %v", s.OmegaDensity, cos/math.Pi)
		}
		if math.Abs(s.AreaDensity-0.5) > 1e-12 {
			t.Fatalf("area density %v, expected 1/area", s.AreaDensity)
		}
		q := l.QueryLSDF(s.Face, s.Normal, s.Omega)
		if math.Abs(q.OmegaDensity-s.OmegaDensity) > 1e-9 || q.AreaDensity != s.AreaDensity {
			t.Fatalf("QueryLSDF %+v disagrees with sample %+v", q, s)
		}
	}
}

func vecNear(a, b core.Vec3, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}
