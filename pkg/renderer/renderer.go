package renderer

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
	"github.com/df07/go-bidirectional-tracer/pkg/integrator"
	"github.com/df07/go-bidirectional-tracer/pkg/scene"
)

// ErrInterrupted is returned when a pass is requested after rendering was stopped or cancelled
var ErrInterrupted = errors.New("renderer: interrupted")

// Options contains the image and scheduling settings
type Options struct {
	Width    int
	Height   int
	TileSize int
	Workers  int   // 0 uses the CPU count
	Seed     int64 // 0 draws a seed from the OS entropy source
	Camera   int
}

// DefaultOptions returns sensible default values
func DefaultOptions() Options {
	return Options{
		Width:    512,
		Height:   512,
		TileSize: 32,
	}
}

// Renderer runs full-image passes of a technique over a scene. A pass takes
// one sample per pixel; tiles are rendered in parallel with no shared
// mutable state besides the pixels of their own bounds.
type Renderer struct {
	scene     *scene.Scene
	technique integrator.Technique
	options   Options
	tiles     []*Tile
	logger    core.Logger
}

// New validates the options, preprocesses the technique and lays out the tiles
func New(s *scene.Scene, technique integrator.Technique, options Options, logger core.Logger) (*Renderer, error) {
	if options.Width <= 0 || options.Height <= 0 {
		return nil, fmt.Errorf("image size %dx%d: %w", options.Width, options.Height, core.ErrInvalidState)
	}
	if options.Camera < 0 || options.Camera >= s.Cameras.Len() {
		return nil, fmt.Errorf("camera %d: %w", options.Camera, scene.ErrNoCamera)
	}
	if options.TileSize <= 0 {
		options.TileSize = DefaultOptions().TileSize
	}
	if options.Workers <= 0 {
		options.Workers = runtime.NumCPU()
	}
	if options.Seed == 0 {
		options.Seed = core.EntropySeed()
	}

	if err := technique.Preprocess(s); err != nil {
		return nil, err
	}

	return &Renderer{
		scene:     s,
		technique: technique,
		options:   options,
		tiles:     NewTileGrid(options.Width, options.Height, options.TileSize, options.Seed),
		logger:    logger,
	}, nil
}

// Options returns the effective options
func (r *Renderer) Options() Options {
	return r.options
}

// Scene returns the scene being rendered
func (r *Renderer) Scene() *scene.Scene {
	return r.scene
}

// Technique returns the estimator
func (r *Renderer) Technique() integrator.Technique {
	return r.technique
}

// NewImage allocates an accumulation image of the rendered size
func (r *Renderer) NewImage() *Image {
	return NewImage(r.options.Width, r.options.Height)
}

// RenderPass adds one sample to every pixel of img. Cancellation is only
// checked before the pass starts: a started pass always runs to completion.
func (r *Renderer) RenderPass(ctx context.Context, img *Image) error {
	if img.Width != r.options.Width || img.Height != r.options.Height {
		return fmt.Errorf("image is %dx%d, renderer is %dx%d: %w", img.Width, img.Height, r.options.Width, r.options.Height, core.ErrInvalidState)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	var g errgroup.Group
	g.SetLimit(r.options.Workers)
	for _, tile := range r.tiles {
		tile := tile
		g.Go(func() error {
			r.renderTile(tile, img)
			return nil
		})
	}
	return g.Wait()
}

func (r *Renderer) renderTile(tile *Tile, img *Image) {
	widthInv := 1.0 / float64(r.options.Width)
	heightInv := 1.0 / float64(r.options.Height)
	aspect := float64(r.options.Width) / float64(r.options.Height)

	for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
		for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
			ray := r.scene.Cameras.Shoot(r.options.Camera, tile.Sampler, widthInv, heightInv, aspect, x, y)
			img.At(x, y).AddSample(r.technique.Trace(tile.Sampler, ray))
		}
	}
}
