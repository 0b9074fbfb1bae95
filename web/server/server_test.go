package server

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
	"github.com/df07/go-bidirectional-tracer/pkg/scene"
)

func testLoader(name string) (*scene.Scene, error) {
	if name != "lit-plane" {
		return nil, fmt.Errorf("unknown scene %q", name)
	}
	return scene.NewLitPlaneScene(core.Splat(0.5), core.Splat(math.Pi))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := NewServer(0, []string{"lit-plane"}, testLoader, &recordingLogger{})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading %s: %v", url, err)
	}
	return string(body)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	var status map[string]string
	if err := json.Unmarshal([]byte(get(t, ts.URL+"/api/health")), &status); err != nil {
		t.Fatal(err)
	}
	if status["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", status)
	}
}

func TestScenes(t *testing.T) {
	ts := newTestServer(t)

	var response struct {
		Scenes     []string `json:"scenes"`
		Techniques []string `json:"techniques"`
	}
	if err := json.Unmarshal([]byte(get(t, ts.URL+"/api/scenes")), &response); err != nil {
		t.Fatal(err)
	}
	if len(response.Scenes) != 1 || response.Scenes[0] != "lit-plane" {
		t.Errorf("Expected [lit-plane], got %v", response.Scenes)
	}
	if len(response.Techniques) != 2 {
		t.Errorf("Expected 2 techniques, got %v", response.Techniques)
	}
}

func TestRenderStreamsPasses(t *testing.T) {
	ts := newTestServer(t)

	body := get(t, ts.URL+"/api/render?scene=lit-plane&width=16&height=16&maxPasses=3&seed=7&technique=mbpt")

	if n := strings.Count(body, "event: pass\n"); n != 3 {
		t.Errorf("Expected 3 pass events, got %d:\n%s", n, body)
	}
	if !strings.Contains(body, "event: complete\n") {
		t.Errorf("Expected a complete event")
	}
	if strings.Contains(body, "event: error\n") {
		t.Errorf("Unexpected error event:\n%s", body)
	}

	// The last pass carries three samples per pixel
	var last PassUpdate
	for _, line := range strings.Split(body, "\n") {
		if data, ok := strings.CutPrefix(line, "data: "); ok && strings.HasPrefix(data, "{\"passNumber\"") {
			if err := json.Unmarshal([]byte(data), &last); err != nil {
				t.Fatal(err)
			}
		}
	}
	if !last.IsComplete || last.PassNumber != 3 {
		t.Errorf("Expected the final pass to be complete, got %+v", last)
	}
	if last.Stats.TotalSamples != 3*16*16 {
		t.Errorf("Expected %d samples, got %d", 3*16*16, last.Stats.TotalSamples)
	}
	if last.ImageData == "" {
		t.Error("Expected image data")
	}
}

func TestRenderRejectsInvalidRequests(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{"width too small", "scene=lit-plane&width=1"},
		{"invalid roulette", "scene=lit-plane&roulette=abc"},
		{"unknown scene", "scene=nonexistent"},
		{"unknown technique", "scene=lit-plane&technique=pt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := get(t, ts.URL+"/api/render?"+tt.query)
			if !strings.HasPrefix(body, "event: error\n") {
				t.Errorf("Expected an error event, got:\n%s", body)
			}
		})
	}
}
