package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
)

// WritePFM encodes a color PFM: a text header followed by little-endian
// float32 RGB triples, bottom row first
func WritePFM(w io.Writer, data *ImageData) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "PF\n%d %d\n-1.0\n", data.Width, data.Height); err != nil {
		return err
	}

	row := make([]byte, data.Width*12)
	for y := data.Height - 1; y >= 0; y-- {
		for x := 0; x < data.Width; x++ {
			c := data.At(x, y)
			binary.LittleEndian.PutUint32(row[x*12:], math.Float32bits(float32(c.X)))
			binary.LittleEndian.PutUint32(row[x*12+4:], math.Float32bits(float32(c.Y)))
			binary.LittleEndian.PutUint32(row[x*12+8:], math.Float32bits(float32(c.Z)))
		}
		if _, err := bw.Write(row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadPFM decodes a color (PF) or greyscale (Pf) PFM of either byte order
func ReadPFM(r io.Reader) (*ImageData, error) {
	br := bufio.NewReader(r)

	var magic string
	var width, height int
	var scale float64
	if _, err := fmt.Fscan(br, &magic, &width, &height, &scale); err != nil {
		return nil, fmt.Errorf("reading PFM header: %w", err)
	}
	// exactly one whitespace byte separates the header from the raster
	if _, err := br.ReadByte(); err != nil {
		return nil, fmt.Errorf("reading PFM header: %w", err)
	}

	channels := 0
	switch magic {
	case "PF":
		channels = 3
	case "Pf":
		channels = 1
	default:
		return nil, fmt.Errorf("PFM magic %q: %w", magic, core.ErrInvalidState)
	}
	if width <= 0 || height <= 0 || scale == 0 {
		return nil, fmt.Errorf("PFM header %dx%d scale %v: %w", width, height, scale, core.ErrInvalidState)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if scale > 0 {
		order = binary.BigEndian
	}

	data := NewImageData(width, height)
	row := make([]byte, width*channels*4)
	for y := height - 1; y >= 0; y-- {
		if _, err := io.ReadFull(br, row); err != nil {
			return nil, fmt.Errorf("reading PFM row %d: %w", y, err)
		}
		for x := 0; x < width; x++ {
			value := func(channel int) float64 {
				return float64(math.Float32frombits(order.Uint32(row[(x*channels+channel)*4:])))
			}
			if channels == 1 {
				data.Set(x, y, core.Splat(value(0)))
			} else {
				data.Set(x, y, core.NewVec3(value(0), value(1), value(2)))
			}
		}
	}

	return data, nil
}

// SavePFM writes data to a PFM file
func SavePFM(filename string, data *ImageData) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	if err := WritePFM(file, data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return file.Close()
}

// LoadPFM reads a PFM file
func LoadPFM(filename string) (*ImageData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	data, err := ReadPFM(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return data, nil
}
