package raster

import (
	"math"

	"odm-orthophoto/internal/geom"
	"odm-orthophoto/internal/pixel"
)

// Canvas holds the rendering target as flat, row-major slices. It is owned
// by a single Render call; nothing else reads or writes it until Render
// returns it.
type Canvas struct {
	Width  int
	Height int
	Type   pixel.Type

	// Bands holds one buffer per output band, len = W*H each, initialized to
	// Type.Max() as the "not yet written" value.
	Bands []*pixel.Buffer
	// Depth is the highest elevation drawn per pixel by the current mesh,
	// initialized to -inf.
	Depth []float64
	// Coverage counts texture channels written per pixel.
	Coverage []uint32

	// Bounds and PixelsPerUnit describe the world placement of the grid.
	Bounds        geom.Bbox
	PixelsPerUnit float64
}

// NewCanvas allocates a canvas with the given band count.
func NewCanvas(w, h int, typ pixel.Type, bands int) *Canvas {
	n := w * h
	c := &Canvas{
		Width:    w,
		Height:   h,
		Type:     typ,
		Bands:    make([]*pixel.Buffer, bands),
		Depth:    make([]float64, n),
		Coverage: make([]uint32, n),
	}
	c.ResetDepth()
	for i := range c.Bands {
		c.Bands[i] = pixel.NewBuffer(typ, n)
		c.Bands[i].Fill(typ.Max())
	}
	return c
}

// ResetDepth clears the depth buffer to -inf. Each mesh is depth tested
// only against itself, since meshes write disjoint bands.
func (c *Canvas) ResetDepth() {
	for i := range c.Depth {
		c.Depth[i] = math.Inf(-1)
	}
}

// FillValue is the sample value of pixels no material wrote to.
func (c *Canvas) FillValue() float64 { return c.Type.Max() }

// Alpha converts the coverage count at pixel i into an alpha value: the
// covered fraction of bands scaled to the integer type's maximum, or the
// plain fraction in [0, 1] for float canvases.
func (c *Canvas) Alpha(i int) float64 {
	total := len(c.Bands)
	if total == 0 {
		return 0
	}
	cov := min(int(c.Coverage[i]), total)
	if c.Type.IsFloat() {
		return float64(cov) / float64(total)
	}
	if cov == total {
		return c.Type.Max()
	}
	return math.Floor(c.Type.Max() * float64(cov) / float64(total))
}
