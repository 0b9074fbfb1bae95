package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
	"github.com/df07/go-bidirectional-tracer/pkg/integrator"
	"github.com/df07/go-bidirectional-tracer/pkg/loaders"
	"github.com/df07/go-bidirectional-tracer/pkg/renderer"
)

// SSEEvent is one server-sent event
type SSEEvent struct {
	Type string `json:"type"` // "console", "pass", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// PassUpdate is sent after every completed accumulation pass
type PassUpdate struct {
	PassNumber  int    `json:"passNumber"`
	TotalPasses int    `json:"totalPasses"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG of the front buffer
	Stats       Stats  `json:"stats"`
	IsComplete  bool   `json:"isComplete"`
	ElapsedMs   int64  `json:"elapsedMs"`
}

// Stats represents render statistics
type Stats struct {
	TotalSamples   int     `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
	IntersectRays  int64   `json:"intersectRays"`
	OccludedRays   int64   `json:"occludedRays"`
	RaysPerSecond  float64 `json:"raysPerSecond"`
	AverageStdDev  float64 `json:"averageStdDev"`
}

// RenderingPipeline contains the configured renderer and its accumulation loop
type RenderingPipeline struct {
	Renderer *renderer.Renderer
	Loop     *renderer.Loop
}

// handleRender renders passes until the requested count or until the client
// disconnects, streaming the front buffer after each pass via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	ctx := r.Context()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.writeSSEEvent(w, SSEEvent{Type: "error", Data: fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	consoleChan, webLogger := s.setupConsoleLogging()
	pipeline, err := s.setupRenderingPipeline(req, webLogger)
	if err != nil {
		s.writeSSEEvent(w, SSEEvent{Type: "error", Data: err.Error()})
		return
	}

	events := make(chan SSEEvent, 16)
	go s.renderPasses(ctx, pipeline, req, consoleChan, events)

	for event := range events {
		if err := s.writeSSEEvent(w, event); err != nil {
			// Client gone; renderPasses notices ctx and closes events
			continue
		}
	}
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	return consoleChan, NewWebLogger(renderID, consoleChan, s.logger)
}

// setupRenderingPipeline loads the scene and creates the renderer and its loop
func (s *Server) setupRenderingPipeline(req *RenderRequest, logger core.Logger) (*RenderingPipeline, error) {
	sceneObj, err := s.load(req.Scene)
	if err != nil {
		return nil, fmt.Errorf("loading scene %s: %w", req.Scene, err)
	}

	technique, err := integrator.New(req.Technique, integrator.Config{
		MinSubpath: req.MinSubpath,
		Roulette:   req.Roulette,
		Beta:       req.Beta,
	})
	if err != nil {
		return nil, err
	}

	options := renderer.DefaultOptions()
	options.Width = req.Width
	options.Height = req.Height
	options.Seed = req.Seed

	r, err := renderer.New(sceneObj, technique, options, logger)
	if err != nil {
		return nil, err
	}
	return &RenderingPipeline{Renderer: r, Loop: renderer.NewLoop(r)}, nil
}

// renderPasses is the only sender on events and closes it when done
func (s *Server) renderPasses(ctx context.Context, pipeline *RenderingPipeline, req *RenderRequest,
	consoleChan <-chan ConsoleMessage, events chan<- SSEEvent) {
	defer close(events)
	defer pipeline.Loop.Stop()

	send := func(event SSEEvent) bool {
		select {
		case events <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for pass := 1; pass <= req.MaxPasses; pass++ {
		if ctx.Err() != nil {
			return
		}
		if err := pipeline.Loop.Step(); err != nil {
			send(SSEEvent{Type: "error", Data: fmt.Sprintf("Rendering failed: %v", err)})
			return
		}

		if !s.forwardConsoleMessages(consoleChan, send) {
			return
		}

		update, err := s.passUpdate(pipeline, req, pass)
		if err != nil {
			send(SSEEvent{Type: "error", Data: err.Error()})
			return
		}
		data, err := json.Marshal(update)
		if err != nil {
			send(SSEEvent{Type: "error", Data: err.Error()})
			return
		}
		if !send(SSEEvent{Type: "pass", Data: string(data)}) {
			return
		}
	}

	s.forwardConsoleMessages(consoleChan, send)
	send(SSEEvent{Type: "complete", Data: "Rendering completed"})
}

// forwardConsoleMessages drains the pending console messages without blocking
func (s *Server) forwardConsoleMessages(consoleChan <-chan ConsoleMessage, send func(SSEEvent) bool) bool {
	for {
		select {
		case msg := <-consoleChan:
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if !send(SSEEvent{Type: "console", Data: string(data)}) {
				return false
			}
		default:
			return true
		}
	}
}

func (s *Server) passUpdate(pipeline *RenderingPipeline, req *RenderRequest, pass int) (PassUpdate, error) {
	front := pipeline.Loop.Front()
	passes, elapsed := pipeline.Loop.Passes()

	data := &loaders.ImageData{Width: front.Width, Height: front.Height, Pixels: front.Averages()}
	imageData, err := imageToBase64PNG(data.ToRGBA(req.Exposure))
	if err != nil {
		return PassUpdate{}, fmt.Errorf("failed to encode image: %w", err)
	}

	stats := renderer.CollectStats(front, pipeline.Renderer.Scene(), passes, elapsed)
	return PassUpdate{
		PassNumber:  pass,
		TotalPasses: req.MaxPasses,
		ImageData:   imageData,
		Stats: Stats{
			TotalSamples:   stats.TotalSamples,
			AverageSamples: stats.AverageSamples,
			IntersectRays:  stats.IntersectRays,
			OccludedRays:   stats.OccludedRays,
			RaysPerSecond:  stats.RaysPerSecond,
			AverageStdDev:  stats.AverageStdDev,
		},
		IsComplete: pass == req.MaxPasses,
		ElapsedMs:  elapsed.Milliseconds(),
	}, nil
}

// writeSSEEvent writes and flushes one event
func (s *Server) writeSSEEvent(w http.ResponseWriter, event SSEEvent) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
		return err
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}
