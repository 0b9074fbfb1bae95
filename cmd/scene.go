package cmd

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
	"github.com/df07/go-bidirectional-tracer/pkg/scene"
)

// ErrUnknownScene is returned for a scene argument that is neither a built-in nor a file
var ErrUnknownScene = errors.New("unknown scene")

var builtinScenes = map[string]func() (*scene.Scene, error){
	"cornell": scene.NewCornellScene,
	"lit-plane": func() (*scene.Scene, error) {
		return scene.NewLitPlaneScene(core.Splat(0.5), core.Splat(math.Pi))
	},
}

// BuiltinScenes lists the names accepted by LoadScene besides file paths
func BuiltinScenes() []string {
	names := make([]string, 0, len(builtinScenes))
	for name := range builtinScenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadScene builds a built-in scene by name or loads a JSON scene file
func LoadScene(name string) (*scene.Scene, error) {
	if build, ok := builtinScenes[name]; ok {
		return build()
	}
	if name == "" {
		return nil, fmt.Errorf("empty scene name: %w", ErrUnknownScene)
	}
	if _, err := os.Stat(name); err != nil {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownScene)
	}
	return scene.LoadFile(name)
}

// sceneModTime returns the modification time of a scene file, zero for built-ins
func sceneModTime(name string) time.Time {
	if _, ok := builtinScenes[name]; ok {
		return time.Time{}
	}
	info, err := os.Stat(name)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
