package renderer

import (
	"fmt"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
)

// PixelStats is the accumulator of one pixel: a running RGB sum and its
// sample count, so the average is a valid estimate at any sample count
type PixelStats struct {
	ColorAccum       core.Vec3 // RGB accumulator
	LuminanceAccum   float64   // for the variance estimate
	LuminanceSqAccum float64
	SampleCount      int
}

// AddSample folds one radiance sample into the pixel:
// average' = (average * N + sample) / (N + 1)
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	luminance := color.Luminance()
	ps.LuminanceAccum += luminance
	ps.LuminanceSqAccum += luminance * luminance
	ps.SampleCount++
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}

// Variance returns the sample variance of the pixel luminance
func (ps *PixelStats) Variance() float64 {
	if ps.SampleCount < 2 {
		return 0
	}
	n := float64(ps.SampleCount)
	mean := ps.LuminanceAccum / n
	return max(0, (ps.LuminanceSqAccum/n-mean*mean)*n/(n-1))
}

// Image is a grid of pixel accumulators, row-major with (0, 0) at the top left
type Image struct {
	Width, Height int
	Pixels        []PixelStats
}

// NewImage creates an empty accumulation image
func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pixels: make([]PixelStats, width*height),
	}
}

// At returns the accumulator of pixel (x, y)
func (img *Image) At(x, y int) *PixelStats {
	return &img.Pixels[y*img.Width+x]
}

// Average returns the current estimate of pixel (x, y)
func (img *Image) Average(x, y int) core.Vec3 {
	return img.At(x, y).GetColor()
}

// Averages returns the current estimate of every pixel in row-major order
func (img *Image) Averages() []core.Vec3 {
	averages := make([]core.Vec3, len(img.Pixels))
	for i := range img.Pixels {
		averages[i] = img.Pixels[i].GetColor()
	}
	return averages
}

// Samples returns the smallest sample count of any pixel
func (img *Image) Samples() int {
	if len(img.Pixels) == 0 {
		return 0
	}
	samples := img.Pixels[0].SampleCount
	for i := range img.Pixels {
		samples = min(samples, img.Pixels[i].SampleCount)
	}
	return samples
}

// CopyFrom overwrites img with the contents of other
func (img *Image) CopyFrom(other *Image) error {
	if img.Width != other.Width || img.Height != other.Height {
		return fmt.Errorf("copying %dx%d image into %dx%d: %w", other.Width, other.Height, img.Width, img.Height, core.ErrInvalidState)
	}
	copy(img.Pixels, other.Pixels)
	return nil
}

// Clone returns a deep copy
func (img *Image) Clone() *Image {
	clone := NewImage(img.Width, img.Height)
	copy(clone.Pixels, img.Pixels)
	return clone
}

// Reset discards every sample
func (img *Image) Reset() {
	clear(img.Pixels)
}

// AverageLuminance returns the mean luminance of the current estimate
func (img *Image) AverageLuminance() float64 {
	if len(img.Pixels) == 0 {
		return 0
	}
	total := 0.0
	for i := range img.Pixels {
		total += img.Pixels[i].GetColor().Luminance()
	}
	return total / float64(len(img.Pixels))
}
