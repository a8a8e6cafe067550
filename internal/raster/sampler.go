package raster

import (
	"math"

	"odm-orthophoto/internal/texture"
)

// tap is the 2×2 texel neighbourhood and interpolation weights for one
// sample position.
type tap struct {
	x0, x1, y0, y1 int
	fx, fy         float64 // fractional parts of s and t
}

// newTap places texture-space coordinates (s, t). Neighbours past the last
// texel clamp to the edge.
func newTap(tex *texture.Texture, s, t float64) tap {
	x0, x1, fx := axis(s, tex.Width)
	y0, y1, fy := axis(t, tex.Height)
	return tap{x0: x0, x1: x1, y0: y0, y1: y1, fx: fx, fy: fy}
}

func axis(v float64, n int) (i0, i1 int, frac float64) {
	if !(v > 0) {
		return 0, min(1, n-1), 0
	}
	if v >= float64(n-1) {
		return n - 1, n - 1, 0
	}
	whole, frac := math.Modf(v)
	i0 = int(whole)
	return i0, i0 + 1, frac
}

// sample returns the bilinear blend of channel ch.
func (tp *tap) sample(tex *texture.Texture, ch int) float64 {
	dl, dt := tp.fx, tp.fy
	dr, db := 1.0-dl, 1.0-dt

	tl := tex.At(tp.x0, tp.y0, ch)
	tr := tex.At(tp.x1, tp.y0, ch)
	bl := tex.At(tp.x0, tp.y1, ch)
	br := tex.At(tp.x1, tp.y1, ch)

	return tl*dr*db + tr*dl*db + bl*dr*dt + br*dl*dt
}

// SampleBilinear samples channel ch of tex at UV (u, v). v is flipped so
// v = 1 addresses the top row of the stored image.
func SampleBilinear(tex *texture.Texture, u, v float64, ch int) float64 {
	tp := newTap(tex, u*float64(tex.Width), (1.0-v)*float64(tex.Height))
	return tp.sample(tex, ch)
}
