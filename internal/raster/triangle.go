package raster

import (
	"math"

	"odm-orthophoto/internal/geom"
	"odm-orthophoto/internal/texture"
)

// rowEpsilon is the smallest row span treated as a non-empty triangle half.
const rowEpsilon = 0x1p-52

// Triangle is a face in raster space: x = column, y = row, z = elevation.
type Triangle struct {
	V  [3]geom.Vec3
	UV [3][2]float64
}

// orderByRow returns the vertices sorted top (smallest row) to bottom.
// Ties go to the later vertex in face order: with equal rows the ladder
// falls through to the branch that ranks the later vertex first.
func orderByRow(v [3]geom.Vec3) (top, mid, bot geom.Vec3) {
	v1, v2, v3 := v[0], v[1], v[2]
	if v1[1] < v2[1] {
		if v1[1] < v3[1] {
			if v2[1] < v3[1] {
				return v1, v2, v3 // 1 -> 2 -> 3
			}
			return v1, v3, v2 // 1 -> 3 -> 2
		}
		return v3, v1, v2 // 3 -> 1 -> 2
	}
	if v2[1] < v3[1] {
		if v1[1] < v3[1] {
			return v2, v1, v3 // 2 -> 1 -> 3
		}
		return v2, v3, v1 // 2 -> 3 -> 1
	}
	return v3, v2, v1 // 3 -> 2 -> 1
}

// barycentric returns the weights of (x, y) against the triangle abc in the
// xy plane.
func barycentric(a, b, c geom.Vec3, x, y float64) (l1, l2, l3 float64) {
	y2y3 := b[1] - c[1]
	y1y3 := a[1] - c[1]
	y3y1 := c[1] - a[1]
	yy3 := y - c[1]

	x3x2 := c[0] - b[0]
	x1x3 := a[0] - c[0]
	xx3 := x - c[0]

	norm := y2y3*x1x3 + x3x2*y1y3
	l1 = (y2y3*xx3 + x3x2*yy3) / norm
	l2 = (y3y1*xx3 + x1x3*yy3) / norm
	l3 = 1.0 - l1 - l2
	return l1, l2, l3
}

// edge is a triangle side parameterised by row.
type edge struct {
	c0, r0 float64 // column and row of the starting vertex
	dcdr   float64 // column step per row
}

func newEdge(from, to geom.Vec3) edge {
	return edge{c0: from[0], r0: from[1], dcdr: (to[0] - from[0]) / (to[1] - from[1])}
}

func (e edge) at(r float64) float64 { return e.c0 + e.dcdr*(r-e.r0) }

// DrawTriangle scan-converts tri into the canvas, sampling tex into bands
// [band, band+tex.Channels). It returns the number of pixels written.
//
// Rows are filled in two passes, top→middle and middle→bottom. A pixel is
// drawn when its centre lies inside the triangle and its interpolated
// elevation is strictly above the stored depth.
func (c *Canvas) DrawTriangle(tri *Triangle, tex *texture.Texture, band int) int {
	top, mid, bot := orderByRow(tri.V)
	if !(bot[1]-top[1] > rowEpsilon) {
		return 0
	}

	long := newEdge(top, bot)
	drawn := 0

	if rowEpsilon < mid[1]-top[1] {
		drawn += c.scanRows(tri, tex, band, top[1], mid[1], newEdge(top, mid), long)
	}
	if rowEpsilon < bot[1]-mid[1] {
		drawn += c.scanRows(tri, tex, band, mid[1], bot[1], newEdge(mid, bot), long)
	}
	return drawn
}

// scanRows fills pixel rows whose centres fall in (rowFrom, rowTo], bounded
// left and right by edges a and b.
func (c *Canvas) scanRows(tri *Triangle, tex *texture.Texture, band int, rowFrom, rowTo float64, a, b edge) int {
	rqStart := max(int(math.Floor(rowFrom+0.5)), 0)
	rqEnd := min(int(math.Floor(rowTo+0.5)), c.Height)

	v1, v2, v3 := tri.V[0], tri.V[1], tri.V[2]
	t1, t2, t3 := tri.UV[0], tri.UV[1], tri.UV[2]
	cols := float64(tex.Width)
	rows := float64(tex.Height)
	channels := tex.Channels

	drawn := 0
	for rq := rqStart; rq < rqEnd; rq++ {
		r := float64(rq) + 0.5
		ca, cb := a.at(r), b.at(r)

		cqStart := max(int(math.Floor(0.5+math.Min(ca, cb))), 0)
		cqEnd := min(int(math.Floor(0.5+math.Max(ca, cb))), c.Width)

		rowOff := rq * c.Width
		for cq := cqStart; cq < cqEnd; cq++ {
			l1, l2, l3 := barycentric(v1, v2, v3, float64(cq)+0.5, r)
			if l1 < 0 || l2 < 0 || l3 < 0 {
				continue
			}

			idx := rowOff + cq
			z := v1[2]*l1 + v2[2]*l2 + v3[2]*l3
			if z <= c.Depth[idx] {
				// Behind (or level with) something already drawn
				continue
			}

			u := t1[0]*l1 + t2[0]*l2 + t3[0]*l3
			v := t1[1]*l1 + t2[1]*l2 + t3[1]*l3
			tp := newTap(tex, u*cols, (1.0-v)*rows)

			for ch := 0; ch < channels; ch++ {
				c.Bands[band+ch].Set(idx, tp.sample(tex, ch))
			}
			c.Coverage[idx] += uint32(channels)
			c.Depth[idx] = z
			drawn++
		}
	}
	return drawn
}
