package loaders

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
)

func testImage() *ImageData {
	data := NewImageData(3, 2)
	data.Set(0, 0, core.NewVec3(1, 0, 0))
	data.Set(1, 0, core.NewVec3(0, 2.5, 0))
	data.Set(2, 0, core.NewVec3(0, 0, 0.125))
	data.Set(0, 1, core.NewVec3(0.5, 0.25, 1e-3))
	data.Set(1, 1, core.NewVec3(100, 200, 300))
	data.Set(2, 1, core.Vec3{})
	return data
}

func TestPFMRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.pfm")
	want := testImage()

	if err := SavePFM(path, want); err != nil {
		t.Fatalf("SavePFM: %v", err)
	}
	got, err := LoadReference(path)
	if err != nil {
		t.Fatalf("LoadReference: %v", err)
	}

	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(1e-6, 1e-9)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPFMRowOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePFM(&buf, testImage()); err != nil {
		t.Fatal(err)
	}

	header := "PF\n3 2\n-1.0\n"
	if !bytes.HasPrefix(buf.Bytes(), []byte(header)) {
		t.Fatalf("header = %q", buf.Bytes()[:len(header)])
	}
	if got, want := buf.Len(), len(header)+3*2*12; got != want {
		t.Fatalf("size = %d, want %d", got, want)
	}

	// the first stored row is the bottom one, starting with (0.5, 0.25, 1e-3)
	first, err := ReadPFM(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(first.At(0, 1).X-0.5) > 1e-7 {
		t.Errorf("bottom-left = %v", first.At(0, 1))
	}
}

func TestReadPFMGreyscaleBigEndian(t *testing.T) {
	raster := []byte{0x3f, 0x80, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00} // 1.0, 2.0
	data, err := ReadPFM(bytes.NewReader(append([]byte("Pf\n2 1\n1.0\n"), raster...)))
	if err != nil {
		t.Fatalf("ReadPFM: %v", err)
	}
	if data.At(0, 0) != core.Splat(1) || data.At(1, 0) != core.Splat(2) {
		t.Errorf("pixels = %v", data.Pixels)
	}
}

func TestReadPFMErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad magic", "P6\n1 1\n-1.0\n"},
		{"zero size", "PF\n0 1\n-1.0\n"},
		{"truncated", "PF\n2 2\n-1.0\n\x00\x00"},
		{"empty", ""},
	}
	for _, tt := range tests {
		if _, err := ReadPFM(bytes.NewReader([]byte(tt.input))); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
	if _, err := ReadPFM(bytes.NewReader([]byte("P6\n1 1\n-1.0\n"))); !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("bad magic error = %v", err)
	}
}

func TestToColor(t *testing.T) {
	tests := []struct {
		in       core.Vec3
		exposure float64
		want     uint8
	}{
		{core.Splat(0), 1, 0},
		{core.Splat(1), 1, 255},
		{core.Splat(4), 1, 255},
		{core.Splat(0.25), 1, 127},
		{core.Splat(0.0625), 4, 127},
		{core.Splat(-1), 1, 0},
	}
	for _, tt := range tests {
		if got := ToColor(tt.in, tt.exposure); got.R != tt.want || got.A != 255 {
			t.Errorf("ToColor(%v, %v) = %v, want %d", tt.in, tt.exposure, got, tt.want)
		}
	}
}

func TestPNGRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	data := NewImageData(2, 1)
	data.Set(0, 0, core.Splat(0.25))
	data.Set(1, 0, core.NewVec3(1, 0, 0))

	if err := SavePNG(path, data, 1); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	got, err := LoadReference(path)
	if err != nil {
		t.Fatalf("LoadReference: %v", err)
	}

	// 8-bit quantisation after the gamma curve
	if diff := cmp.Diff(data, got, cmpopts.EquateApprox(0, 0.01)); diff != "" {
		t.Errorf("PNG round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareImages(t *testing.T) {
	reference := NewImageData(2, 1)
	reference.Set(0, 0, core.Splat(1))
	current := NewImageData(2, 1)
	current.Set(0, 0, core.Splat(1.5))
	current.Set(1, 0, core.Splat(0.1))

	stats, err := CompareImages(current, reference)
	if err != nil {
		t.Fatal(err)
	}

	want := ErrorStats{
		AvgAbsolute: 0.3,
		MaxAbsolute: 0.5,
		RMSE:        math.Sqrt((0.25 + 0.01) / 2),
		AvgRelative: 0.5,
	}
	if diff := cmp.Diff(want, stats, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("CompareImages mismatch (-want +got):\n%s", diff)
	}

	if _, err := CompareImages(NewImageData(1, 1), reference); !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("size mismatch error = %v", err)
	}
}
