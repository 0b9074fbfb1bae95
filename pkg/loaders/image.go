package loaders

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // JPEG decoder
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
)

// displayGamma is the gamma of the PNG tone map and of its inverse in LoadImage
const displayGamma = 2.0

// ImageData is a linear RGB image, row-major with (0, 0) at the top left
type ImageData struct {
	Width  int
	Height int
	Pixels []core.Vec3
}

// NewImageData allocates a black image
func NewImageData(width, height int) *ImageData {
	return &ImageData{Width: width, Height: height, Pixels: make([]core.Vec3, width*height)}
}

// At returns pixel (x, y)
func (d *ImageData) At(x, y int) core.Vec3 {
	return d.Pixels[y*d.Width+x]
}

// Set writes pixel (x, y)
func (d *ImageData) Set(x, y int, c core.Vec3) {
	d.Pixels[y*d.Width+x] = c
}

// LoadImage loads a PNG or JPEG image and converts it back to linear RGB
func LoadImage(filename string) (*ImageData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	data := NewImageData(bounds.Dx(), bounds.Dy())
	for y := 0; y < data.Height; y++ {
		for x := 0; x < data.Width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			encoded := core.NewVec3(float64(r)/65535.0, float64(g)/65535.0, float64(b)/65535.0)
			data.Set(x, y, encoded.GammaCorrect(1/displayGamma))
		}
	}

	return data, nil
}

// LoadReference loads a reference image, PFM or PNG/JPEG by extension
func LoadReference(filename string) (*ImageData, error) {
	if strings.EqualFold(filepath.Ext(filename), ".pfm") {
		return LoadPFM(filename)
	}
	return LoadImage(filename)
}

// ToColor tone maps a linear radiance value: exposure scale, gamma 2, clamp
func ToColor(c core.Vec3, exposure float64) color.RGBA {
	c = c.Multiply(exposure).GammaCorrect(displayGamma).Clamp(0.0, 1.0)
	return color.RGBA{
		R: uint8(255 * c.X),
		G: uint8(255 * c.Y),
		B: uint8(255 * c.Z),
		A: 255,
	}
}

// ToRGBA tone maps the whole image
func (d *ImageData) ToRGBA(exposure float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, d.Width, d.Height))
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			img.SetRGBA(x, y, ToColor(d.At(x, y), exposure))
		}
	}
	return img
}

// SavePNG writes the tone-mapped image
func SavePNG(filename string, data *ImageData, exposure float64) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}

	if err := png.Encode(file, data.ToRGBA(exposure)); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}
	return file.Close()
}
