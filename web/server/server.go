package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
	"github.com/df07/go-bidirectional-tracer/pkg/scene"
)

// SceneLoader builds a scene by name
type SceneLoader func(name string) (*scene.Scene, error)

// Server streams progressive renders to web clients
type Server struct {
	port   int
	scenes []string
	load   SceneLoader
	logger core.Logger
}

// NewServer creates a new web server offering the named scenes
func NewServer(port int, scenes []string, load SceneLoader, logger core.Logger) *Server {
	return &Server{port: port, scenes: scenes, load: load, logger: logger}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene      string  `json:"scene"`
	Technique  string  `json:"technique"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	MaxPasses  int     `json:"maxPasses"`
	MinSubpath int     `json:"minSubpath"`
	Roulette   float64 `json:"roulette"`
	Beta       float64 `json:"beta"`
	Exposure   float64 `json:"exposure"`
	Seed       int64   `json:"seed"`
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	return mux
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Printf("Starting web server on http://localhost%s\n", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleScenes lists the scenes and the parameter limits of /api/render
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	response := map[string]interface{}{
		"scenes":     s.scenes,
		"techniques": []string{"bpt", "mbpt"},
		"limits": map[string]interface{}{
			"width":      map[string]int{"min": 16, "max": 2000},
			"height":     map[string]int{"min": 16, "max": 2000},
			"maxPasses":  map[string]int{"min": 1, "max": 100000},
			"minSubpath": map[string]int{"min": 0, "max": 1024},
			"roulette":   map[string]float64{"min": 0.01, "max": 1},
			"beta":       map[string]float64{"min": 0.1, "max": 10},
		},
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// parseRenderRequest parses and validates request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	values := r.URL.Query()
	req := &RenderRequest{Scene: values.Get("scene"), Technique: values.Get("technique")}
	if req.Scene == "" {
		req.Scene = "cornell"
	}
	if req.Technique == "" {
		req.Technique = "bpt"
	}

	var err error
	if req.Width, err = parseIntParam(values, "width", 256, 16, 2000); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(values, "height", 256, 16, 2000); err != nil {
		return nil, err
	}
	if req.MaxPasses, err = parseIntParam(values, "maxPasses", 64, 1, 100000); err != nil {
		return nil, err
	}
	if req.MinSubpath, err = parseIntParam(values, "minSubpath", 3, 0, 1024); err != nil {
		return nil, err
	}
	if req.Roulette, err = parseFloatParam(values, "roulette", 0.5, 0.01, 1); err != nil {
		return nil, err
	}
	if req.Beta, err = parseFloatParam(values, "beta", 2, 0.1, 10); err != nil {
		return nil, err
	}
	if req.Exposure, err = parseFloatParam(values, "exposure", 1, 0.01, 100); err != nil {
		return nil, err
	}
	if seed := values.Get("seed"); seed != "" {
		if req.Seed, err = strconv.ParseInt(seed, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid seed: %s", seed)
		}
	}

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
