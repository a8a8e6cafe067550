package geom

import (
	"fmt"
	"math"
)

// Bbox is an axis-aligned rectangle in world coordinates.
type Bbox struct {
	XMin, XMax float64
	YMin, YMax float64
}

// EmptyBbox returns a box that any point extends.
func EmptyBbox() Bbox {
	return Bbox{
		XMin: math.Inf(1), XMax: math.Inf(-1),
		YMin: math.Inf(1), YMax: math.Inf(-1),
	}
}

// ComputeBounds returns the x/y extent of vertices; z is ignored.
func ComputeBounds(vertices []Vec3) Bbox {
	b := EmptyBbox()
	for _, v := range vertices {
		b.XMin = math.Min(b.XMin, v[0])
		b.XMax = math.Max(b.XMax, v[0])
		b.YMin = math.Min(b.YMin, v[1])
		b.YMax = math.Max(b.YMax, v[1])
	}
	return b
}

func (b Bbox) Width() float64  { return b.XMax - b.XMin }
func (b Bbox) Height() float64 { return b.YMax - b.YMin }
func (b Bbox) Area() float64   { return b.Width() * b.Height() }

// Equal reports whether all four bounds match exactly.
func (b Bbox) Equal(o Bbox) bool {
	return b.XMin == o.XMin && b.XMax == o.XMax && b.YMin == o.YMin && b.YMax == o.YMax
}

func (b Bbox) String() string {
	return fmt.Sprintf("[%g %g %g %g]", b.XMin, b.YMin, b.XMax, b.YMax)
}
