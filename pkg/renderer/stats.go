package renderer

import (
	"math"
	"time"

	"github.com/df07/go-bidirectional-tracer/pkg/scene"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Passes         int
	TotalPixels    int
	TotalSamples   int
	AverageSamples float64
	MinSamples     int
	MaxSamplesUsed int
	Elapsed        time.Duration
	IntersectRays  int64
	OccludedRays   int64
	RaysPerSecond  float64
	AverageStdDev  float64 // mean per-pixel standard error of the luminance estimate
}

// CollectStats gathers image, timing and ray statistics
func CollectStats(img *Image, s *scene.Scene, passes int, elapsed time.Duration) RenderStats {
	stats := RenderStats{
		Passes:      passes,
		TotalPixels: len(img.Pixels),
		MinSamples:  math.MaxInt,
		Elapsed:     elapsed,
	}

	stdDev := 0.0
	for i := range img.Pixels {
		pixel := &img.Pixels[i]
		stats.TotalSamples += pixel.SampleCount
		stats.MinSamples = min(stats.MinSamples, pixel.SampleCount)
		stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, pixel.SampleCount)
		if pixel.SampleCount > 0 {
			stdDev += math.Sqrt(pixel.Variance() / float64(pixel.SampleCount))
		}
	}

	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
		stats.AverageStdDev = stdDev / float64(stats.TotalPixels)
	} else {
		stats.MinSamples = 0
	}

	stats.IntersectRays, stats.OccludedRays = s.NumRays()
	if seconds := elapsed.Seconds(); seconds > 0 {
		stats.RaysPerSecond = float64(stats.IntersectRays+stats.OccludedRays) / seconds
	}
	return stats
}
