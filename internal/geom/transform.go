package geom

import (
	"fmt"
	"math"
)

// SliverEpsilon is the squared machine epsilon. A triangle whose half squared
// cross product is at or below it has no usable area.
const SliverEpsilon = 0x1p-52 * 0x1p-52

// PixelsPerMeter converts a resolution in centimetres per pixel.
func PixelsPerMeter(resolutionCm float64) float64 {
	return 100.0 / resolutionCm
}

// RoiTransform maps world (x, y) to raster (column, row). Rows grow
// downward, so ymax lands on row 0. z and w pass through.
func RoiTransform(b Bbox, ppu float64) Mat4 {
	return Mat4{
		ppu, 0, 0, -b.XMin * ppu,
		0, -ppu, 0, b.YMax * ppu,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// CanvasSize returns the pixel dimensions covering b. A non-positive
// dimension is forced to 1 and reported in warnings.
func CanvasSize(b Bbox, ppu float64) (width, height int, warnings []string) {
	height = int(math.Ceil(ppu * b.Height()))
	width = int(math.Ceil(ppu * b.Width()))

	if height <= 0 {
		warnings = append(warnings, fmt.Sprintf("orthophoto has non-positive height (%d), forcing height = 1", height))
		height = 1
	}
	if width <= 0 {
		warnings = append(warnings, fmt.Sprintf("orthophoto has non-positive width (%d), forcing width = 1", width))
		width = 1
	}
	return width, height, warnings
}

// IsSliver reports whether triangle abc has near-zero area.
func IsSliver(a, b, c Vec3) bool {
	n := a.Sub(b).Cross(c.Sub(b))
	return n.Dot(n)/2.0 <= SliverEpsilon
}
