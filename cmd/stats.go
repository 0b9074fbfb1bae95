package cmd

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/df07/go-bidirectional-tracer/pkg/loaders"
	"github.com/df07/go-bidirectional-tracer/pkg/renderer"
)

// displayRenderStats logs a table of the render statistics
func displayRenderStats(stats renderer.RenderStats, reference *loaders.ErrorStats) {
	table := renderStatsTable(stats, reference)
	logger.Noticef("render statistics\n%s", table)
}

func renderStatsTable(stats renderer.RenderStats, reference *loaders.ErrorStats) string {
	buf := bytes.NewBufferString("")

	table := tablewriter.NewWriter(buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Statistic", "Value"})

	table.Append([]string{"Passes", fmt.Sprintf("%d", stats.Passes)})
	table.Append([]string{"Pixels", fmt.Sprintf("%d", stats.TotalPixels)})
	table.Append([]string{"Samples", fmt.Sprintf("%d", stats.TotalSamples)})
	table.Append([]string{"Samples per pixel", fmt.Sprintf("%.2f (min %d, max %d)", stats.AverageSamples, stats.MinSamples, stats.MaxSamplesUsed)})
	table.Append([]string{"Intersect rays", fmt.Sprintf("%d", stats.IntersectRays)})
	table.Append([]string{"Occlusion rays", fmt.Sprintf("%d", stats.OccludedRays)})
	table.Append([]string{"Rays per second", fmt.Sprintf("%.0f", stats.RaysPerSecond)})
	table.Append([]string{"Average std. error", fmt.Sprintf("%.6g", stats.AverageStdDev)})
	if reference != nil {
		table.Append([]string{"Reference avg. abs. error", fmt.Sprintf("%.6g", reference.AvgAbsolute)})
		table.Append([]string{"Reference max abs. error", fmt.Sprintf("%.6g", reference.MaxAbsolute)})
		table.Append([]string{"Reference RMSE", fmt.Sprintf("%.6g", reference.RMSE)})
		table.Append([]string{"Reference avg. rel. error", fmt.Sprintf("%.6g", reference.AvgRelative)})
	}

	table.SetFooter([]string{"Elapsed", stats.Elapsed.Round(time.Millisecond).String()})
	table.Render()

	return buf.String()
}
