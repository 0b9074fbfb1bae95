package loaders

import (
	"fmt"
	"math"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
)

// ErrorStats summarises the difference between a render and a reference
type ErrorStats struct {
	AvgAbsolute float64 // mean over pixels of the mean channel difference
	MaxAbsolute float64
	RMSE        float64
	AvgRelative float64 // mean over pixels with a non-black reference
}

// CompareImages measures the error of current against reference
func CompareImages(current, reference *ImageData) (ErrorStats, error) {
	if current.Width != reference.Width || current.Height != reference.Height {
		return ErrorStats{}, fmt.Errorf("comparing %dx%d against %dx%d reference: %w",
			current.Width, current.Height, reference.Width, reference.Height, core.ErrInvalidState)
	}

	var stats ErrorStats
	if len(current.Pixels) == 0 {
		return stats, nil
	}

	sumSq := 0.0
	relativeCount := 0
	for i, c := range current.Pixels {
		ref := reference.Pixels[i]
		diff := c.Subtract(ref)
		abs := core.NewVec3(math.Abs(diff.X), math.Abs(diff.Y), math.Abs(diff.Z)).Average()

		stats.AvgAbsolute += abs
		stats.MaxAbsolute = max(stats.MaxAbsolute, abs)
		sumSq += diff.LengthSquared() / 3

		if magnitude := ref.Average(); magnitude > 0 {
			stats.AvgRelative += abs / magnitude
			relativeCount++
		}
	}

	n := float64(len(current.Pixels))
	stats.AvgAbsolute /= n
	stats.RMSE = math.Sqrt(sumSq / n)
	if relativeCount > 0 {
		stats.AvgRelative /= float64(relativeCount)
	}
	return stats, nil
}
