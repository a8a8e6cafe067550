// Package mesh loads textured triangle meshes from Wavefront OBJ files and
// their MTL material libraries.
package mesh

import (
	"errors"

	"odm-orthophoto/internal/geom"
	"odm-orthophoto/internal/texture"
)

// ErrFormat reports a malformed or inconsistent mesh description.
var ErrFormat = errors.New("mesh: format error")

// Face is a triangle bound to a material. Indices are 0-based.
type Face struct {
	Material string
	V        [3]int
	T        [3]int
}

// Material binds a library name to its diffuse texture.
type Material struct {
	Name        string
	TexturePath string
	Texture     *texture.Texture
}

// Materials is an ordered name → material mapping. Iteration follows
// insertion order.
type Materials struct {
	list  []*Material
	index map[string]int
}

// Get returns the named material.
func (ms *Materials) Get(name string) (*Material, bool) {
	i, ok := ms.index[name]
	if !ok {
		return nil, false
	}
	return ms.list[i], true
}

// Add appends m, replacing an existing entry of the same name in place.
func (ms *Materials) Add(m *Material) {
	if ms.index == nil {
		ms.index = make(map[string]int)
	}
	if i, ok := ms.index[m.Name]; ok {
		ms.list[i] = m
		return
	}
	ms.index[m.Name] = len(ms.list)
	ms.list = append(ms.list, m)
}

// All returns materials in insertion order.
func (ms *Materials) All() []*Material { return ms.list }

func (ms *Materials) Len() int { return len(ms.list) }

// Mesh holds parsed geometry for one OBJ file.
type Mesh struct {
	Path     string
	Vertices []geom.Vec3 // world coordinates until Apply rewrites them
	UVs      [][2]float64
	Faces    []Face

	// Library holds every material declared by the referenced MTL files.
	Library Materials

	// Used lists the materials referenced by usemtl, in first-seen order.
	Used []*Material
}

// Bounds returns the ground bounding box of the vertices.
func (m *Mesh) Bounds() geom.Bbox {
	return geom.ComputeBounds(m.Vertices)
}

// Apply transforms every vertex in place.
func (m *Mesh) Apply(xf geom.Mat4) {
	for i, v := range m.Vertices {
		m.Vertices[i] = xf.MulPoint(v)
	}
}

// RemoveSlivers drops faces with near-zero area and returns how many were
// removed. Call it after Apply so the test runs in raster space.
func (m *Mesh) RemoveSlivers() int {
	kept := m.Faces[:0]
	for _, f := range m.Faces {
		if geom.IsSliver(m.Vertices[f.V[0]], m.Vertices[f.V[1]], m.Vertices[f.V[2]]) {
			continue
		}
		kept = append(kept, f)
	}
	removed := len(m.Faces) - len(kept)
	m.Faces = kept
	return removed
}

// FacesOf returns the faces bound to the named material, in file order.
func (m *Mesh) FacesOf(name string) []Face {
	var out []Face
	for _, f := range m.Faces {
		if f.Material == name {
			out = append(out, f)
		}
	}
	return out
}
