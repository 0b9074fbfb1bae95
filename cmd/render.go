package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/df07/go-bidirectional-tracer/pkg/integrator"
	"github.com/df07/go-bidirectional-tracer/pkg/loaders"
	"github.com/df07/go-bidirectional-tracer/pkg/log"
	"github.com/df07/go-bidirectional-tracer/pkg/renderer"
	"github.com/df07/go-bidirectional-tracer/pkg/scene"
)

// RenderOptions are the settings of a batch render
type RenderOptions struct {
	Scene      string
	Technique  string
	Integrator integrator.Config
	Renderer   renderer.Options
	Camera     string
	NumSamples int
	NumSeconds float64
	Snapshot   int
	Output     string
	Reference  string
	Reload     bool
	Exposure   float64
}

// RenderResult describes a finished batch render
type RenderResult struct {
	Output    string
	Stats     renderer.RenderStats
	Reference *loaders.ErrorStats
}

// RenderFlags are the flags of the render command
var RenderFlags = []cli.Flag{
	cli.IntFlag{Name: "width", Value: 512, Usage: "frame width"},
	cli.IntFlag{Name: "height", Value: 512, Usage: "frame height"},
	cli.StringFlag{Name: "technique, t", Value: "bpt", Usage: "estimator: bpt or mbpt"},
	cli.Float64Flag{Name: "beta", Value: 2, Usage: "MIS exponent of mbpt"},
	cli.IntFlag{Name: "min-subpath", Value: 3, Usage: "subpath length before russian roulette starts"},
	cli.Float64Flag{Name: "roulette", Value: 0.5, Usage: "russian roulette survival probability"},
	cli.IntFlag{Name: "num-samples, s", Value: 0, Usage: "stop after this many samples per pixel"},
	cli.Float64Flag{Name: "num-seconds", Value: 0, Usage: "stop after this many seconds"},
	cli.IntFlag{Name: "snapshot", Value: 0, Usage: "save an intermediate image every this many samples"},
	cli.StringFlag{Name: "out, o", Value: ".", Usage: "output directory"},
	cli.StringFlag{Name: "reference, r", Usage: "reference image (pfm or png) to report the error against"},
	cli.BoolFlag{Name: "reload", Usage: "restart accumulation when the scene file changes"},
	cli.IntFlag{Name: "workers", Value: 0, Usage: "number of render goroutines, 0 for the CPU count"},
	cli.Int64Flag{Name: "seed", Value: 0, Usage: "random seed, 0 for a random one"},
	cli.StringFlag{Name: "camera", Usage: "camera name, the first camera when empty"},
	cli.Float64Flag{Name: "exposure", Value: 1.0, Usage: "camera exposure for tone-mapping"},
}

// RenderScene renders a scene until a quit condition and saves the result.
func RenderScene(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene argument")
	}

	opts := RenderOptions{
		Scene:     ctx.Args().First(),
		Technique: ctx.String("technique"),
		Integrator: integrator.Config{
			MinSubpath: ctx.Int("min-subpath"),
			Roulette:   ctx.Float64("roulette"),
			Beta:       ctx.Float64("beta"),
		},
		Renderer: renderer.Options{
			Width:    ctx.Int("width"),
			Height:   ctx.Int("height"),
			TileSize: renderer.DefaultOptions().TileSize,
			Workers:  ctx.Int("workers"),
			Seed:     ctx.Int64("seed"),
		},
		Camera:     ctx.String("camera"),
		NumSamples: ctx.Int("num-samples"),
		NumSeconds: ctx.Float64("num-seconds"),
		Snapshot:   ctx.Int("snapshot"),
		Output:     ctx.String("out"),
		Reference:  ctx.String("reference"),
		Reload:     ctx.Bool("reload"),
		Exposure:   ctx.Float64("exposure"),
	}
	if opts.NumSamples == 0 && opts.NumSeconds == 0 {
		logger.Notice("no quit condition given, rendering 16 samples per pixel")
		opts.NumSamples = 16
	}

	result, err := Render(opts)
	if err != nil {
		return err
	}

	displayRenderStats(result.Stats, result.Reference)
	logger.Noticef("saved %s", result.Output)
	return nil
}

// session is a scene with its renderer and render loop
type session struct {
	scene    *scene.Scene
	renderer *renderer.Renderer
	loop     *renderer.Loop
	modTime  time.Time
}

func newSession(opts RenderOptions) (*session, error) {
	modTime := sceneModTime(opts.Scene)
	s, err := LoadScene(opts.Scene)
	if err != nil {
		return nil, err
	}

	rendererOpts := opts.Renderer
	if opts.Camera != "" {
		id, ok := s.Cameras.ID(opts.Camera)
		if !ok {
			return nil, fmt.Errorf("camera %q: %w", opts.Camera, scene.ErrNoCamera)
		}
		rendererOpts.Camera = id
	}

	technique, err := integrator.New(opts.Technique, opts.Integrator)
	if err != nil {
		return nil, err
	}

	r, err := renderer.New(s, technique, rendererOpts, log.AsCoreLogger(logger))
	if err != nil {
		return nil, err
	}

	logger.Infof("scene %s: %d triangles, %d lights, technique %s, %dx%d, %d workers",
		s.Name, s.NumTriangles(), s.Lights.NumLights(), technique.Name(),
		r.Options().Width, r.Options().Height, r.Options().Workers)

	return &session{scene: s, renderer: r, loop: renderer.NewLoop(r), modTime: modTime}, nil
}

// Render runs passes until opts.NumSamples or opts.NumSeconds is reached,
// saving snapshots on the way, and writes the final image
func Render(opts RenderOptions) (*RenderResult, error) {
	if opts.NumSamples <= 0 && opts.NumSeconds <= 0 {
		return nil, errors.New("no quit condition: set a number of samples or seconds")
	}
	if err := os.MkdirAll(opts.Output, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var reference *loaders.ImageData
	if opts.Reference != "" {
		var err error
		if reference, err = loaders.LoadReference(opts.Reference); err != nil {
			return nil, err
		}
	}

	sess, err := newSession(opts)
	if err != nil {
		return nil, err
	}
	defer func() { sess.loop.Stop() }()

	start := time.Now()
	for {
		passes, _ := sess.loop.Passes()
		if opts.NumSamples > 0 && passes >= opts.NumSamples {
			break
		}
		if opts.NumSeconds > 0 && time.Since(start).Seconds() >= opts.NumSeconds {
			break
		}

		if err := sess.loop.Step(); err != nil {
			return nil, err
		}
		passes++

		if opts.Snapshot > 0 && passes%opts.Snapshot == 0 {
			path := outputPath(opts, sess, passes, true)
			if _, err := save(path, sess.loop.Front(), opts.Exposure, reference); err != nil {
				return nil, err
			}
			logger.Infof("snapshot %s", path)
		}

		if opts.Reload && !sess.modTime.IsZero() && sceneModTime(opts.Scene).After(sess.modTime) {
			logger.Noticef("scene %s changed, reloading", opts.Scene)
			reloaded, err := newSession(opts)
			if err != nil {
				logger.Warningf("reload failed, keeping the previous scene: %v", err)
				sess.modTime = sceneModTime(opts.Scene)
				continue
			}
			sess.loop.Stop()
			sess = reloaded
		}
	}

	front := sess.loop.Front()
	passes, elapsed := sess.loop.Passes()

	path := outputPath(opts, sess, passes, false)
	errStats, err := save(path, front, opts.Exposure, reference)
	if err != nil {
		return nil, err
	}

	return &RenderResult{
		Output:    path,
		Stats:     renderer.CollectStats(front, sess.scene, passes, elapsed),
		Reference: errStats,
	}, nil
}

// outputPath names an output as <scene>.<width>.<height>.<samples>.<technique>.pfm
func outputPath(opts RenderOptions, sess *session, samples int, snapshot bool) string {
	rendererOpts := sess.renderer.Options()
	name := fmt.Sprintf("%s.%d.%d.%d.%s", sceneBaseName(sess.scene.Name), rendererOpts.Width, rendererOpts.Height,
		samples, strings.ToLower(sess.renderer.Technique().Name()))
	if snapshot {
		name += ".snapshot"
	}
	return filepath.Join(opts.Output, name+".pfm")
}

func sceneBaseName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "-")
}

// save writes the PFM at path and a tone-mapped PNG next to it, and compares
// against reference when one is given
func save(path string, img *renderer.Image, exposure float64, reference *loaders.ImageData) (*loaders.ErrorStats, error) {
	data := toImageData(img)
	if err := loaders.SavePFM(path, data); err != nil {
		return nil, err
	}
	if err := loaders.SavePNG(strings.TrimSuffix(path, ".pfm")+".png", data, exposure); err != nil {
		return nil, err
	}

	if reference == nil {
		return nil, nil
	}
	stats, err := loaders.CompareImages(data, reference)
	if err != nil {
		return nil, err
	}
	logger.Infof("%s: average absolute error %.6g, RMSE %.6g", filepath.Base(path), stats.AvgAbsolute, stats.RMSE)
	return &stats, nil
}

func toImageData(img *renderer.Image) *loaders.ImageData {
	return &loaders.ImageData{Width: img.Width, Height: img.Height, Pixels: img.Averages()}
}
