package material

import (
	"fmt"

	"github.com/df07/go-bidirectional-tracer/pkg/core"
)

// Materials maps material identifiers to shared, read-only BSDFs
type Materials struct {
	names []string
	bsdfs []BSDF
	index map[string]int
}

// NewMaterials creates an empty material table
func NewMaterials() *Materials {
	return &Materials{index: make(map[string]int)}
}

// Add registers a named BSDF and returns its identifier
func (m *Materials) Add(name string, bsdf BSDF) (int, error) {
	if _, exists := m.index[name]; exists {
		return 0, fmt.Errorf("material %q defined twice: %w", name, core.ErrInvalidState)
	}
	id := len(m.bsdfs)
	m.names = append(m.names, name)
	m.bsdfs = append(m.bsdfs, bsdf)
	m.index[name] = id
	return id, nil
}

// Lookup returns the BSDF for a material identifier
func (m *Materials) Lookup(id int) (BSDF, error) {
	if id < 0 || id >= len(m.bsdfs) {
		return nil, fmt.Errorf("material id %d out of range [0, %d): %w", id, len(m.bsdfs), core.ErrInvalidGeometry)
	}
	return m.bsdfs[id], nil
}

// ID returns the identifier of a named material
func (m *Materials) ID(name string) (int, bool) {
	id, ok := m.index[name]
	return id, ok
}

// Name returns the name of a material identifier
func (m *Materials) Name(id int) string {
	return m.names[id]
}

// Len returns the number of materials
func (m *Materials) Len() int {
	return len(m.bsdfs)
}
