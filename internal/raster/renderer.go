// Package raster projects textured meshes onto an orthographic pixel grid.
package raster

import (
	"errors"
	"fmt"
	"log/slog"

	"odm-orthophoto/internal/geom"
	"odm-orthophoto/internal/mesh"
)

var (
	// ErrBoundsMismatch reports composited meshes with different extents.
	ErrBoundsMismatch = errors.New("raster: bounds between models must all match")
	// ErrUnsupported reports an input combination the renderer cannot
	// represent, such as mixed texture element types.
	ErrUnsupported = errors.New("raster: unsupported configuration")
)

// Options controls a render.
type Options struct {
	// Resolution is the ground sampling distance in centimetres per pixel.
	Resolution float64
	// Logger receives progress messages. Nil discards them.
	Logger *slog.Logger
}

// Stats summarises a render.
type Stats struct {
	Faces   int // faces considered after sliver removal
	Slivers int // faces dropped for near-zero area
	Pixels  int // pixel writes that passed the depth test
}

// Render composites meshes into a new canvas. All meshes must share the
// primary mesh's bounds; this and the band layout are checked before the
// canvas is allocated. Vertices are rewritten in raster space.
//
// Depth resolves overlap within one mesh only: every mesh writes its own
// bands and starts from a cleared depth buffer.
func Render(meshes []*mesh.Mesh, opts Options) (*Canvas, Stats, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	var stats Stats

	if !(opts.Resolution > 0) {
		return nil, stats, fmt.Errorf("raster: resolution must be positive, got %v", opts.Resolution)
	}
	if len(meshes) == 0 {
		return nil, stats, fmt.Errorf("raster: no input meshes")
	}

	var bounds geom.Bbox
	for i, m := range meshes {
		if len(m.Vertices) == 0 {
			return nil, stats, fmt.Errorf("%w: %s has no vertices", mesh.ErrFormat, m.Path)
		}
		b := m.Bounds()
		if i == 0 {
			bounds = b
		} else if !bounds.Equal(b) {
			return nil, stats, fmt.Errorf("%w: %s has %v, %s has %v",
				ErrBoundsMismatch, meshes[0].Path, bounds, m.Path, b)
		}
	}
	log.Info("model bounds", "bounds", bounds.String(), "area_m2", bounds.Area())

	layout, err := PlanBands(meshes)
	if err != nil {
		return nil, stats, err
	}

	ppu := geom.PixelsPerMeter(opts.Resolution)
	width, height, warnings := geom.CanvasSize(bounds, ppu)
	for _, w := range warnings {
		log.Warn(w)
	}
	log.Info("model resolution", "width", width, "height", height,
		"bands", layout.Bands, "type", layout.Type.String())

	c := NewCanvas(width, height, layout.Type, layout.Bands)
	c.Bounds = bounds
	c.PixelsPerUnit = ppu

	xf := geom.RoiTransform(bounds, ppu)
	for _, m := range meshes {
		log.Info("translating and scaling mesh", "path", m.Path, "faces", len(m.Faces))
		m.Apply(xf)
		if n := m.RemoveSlivers(); n > 0 {
			log.Warn("removed sliver polygons", "path", m.Path, "count", n)
			stats.Slivers += n
		}
		stats.Faces += len(m.Faces)
	}

	log.Info("rendering the orthophoto")
	for i, slot := range layout.Slots {
		if i > 0 && slot.Mesh != layout.Slots[i-1].Mesh {
			c.ResetDepth()
		}
		m := meshes[slot.Mesh]
		n := c.drawMaterial(m, slot)
		stats.Pixels += n
		log.Info("material rendered", "material", slot.Material.Name,
			"bands", fmt.Sprintf("%d-%d", slot.Bands.Start, slot.Bands.Start+slot.Bands.Count-1),
			"pixels", n)
	}

	return c, stats, nil
}

func (c *Canvas) drawMaterial(m *mesh.Mesh, slot Slot) int {
	tex := slot.Material.Texture
	drawn := 0
	var tri Triangle
	for _, f := range m.Faces {
		if f.Material != slot.Material.Name {
			continue
		}
		for k := 0; k < 3; k++ {
			tri.V[k] = m.Vertices[f.V[k]]
			tri.UV[k] = m.UVs[f.T[k]]
		}
		drawn += c.DrawTriangle(&tri, tex, slot.Bands.Start)
	}
	return drawn
}
