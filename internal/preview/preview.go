// Package preview renders a small WebP quick-look of an orthophoto canvas.
package preview

import (
	"fmt"
	"image"
	"math"
	"os"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"

	"odm-orthophoto/internal/pixel"
	"odm-orthophoto/internal/raster"
)

// Image converts the first colour bands of c into an 8-bit image with
// coverage as alpha. One band is shown as gray; three or more use the first
// three as RGB. Float canvases are stretched over the covered value range.
func Image(c *raster.Canvas) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, c.Width, c.Height))
	if len(c.Bands) == 0 {
		return img
	}

	rgb := [3]*pixel.Buffer{c.Bands[0], c.Bands[0], c.Bands[0]}
	if len(c.Bands) >= 3 {
		rgb = [3]*pixel.Buffer{c.Bands[0], c.Bands[1], c.Bands[2]}
	}
	to8 := scaler(c, rgb)
	amax := c.Type.Max()
	if c.Type.IsFloat() {
		amax = 1
	}

	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			i := y*c.Width + x
			a := c.Alpha(i)
			if a <= 0 {
				continue
			}
			o := img.PixOffset(x, y)
			img.Pix[o] = to8(rgb[0].At(i))
			img.Pix[o+1] = to8(rgb[1].At(i))
			img.Pix[o+2] = to8(rgb[2].At(i))
			img.Pix[o+3] = clamp8(a / amax * 255)
		}
	}
	return img
}

// scaler maps canvas samples to 0-255.
func scaler(c *raster.Canvas, rgb [3]*pixel.Buffer) func(float64) uint8 {
	switch c.Type {
	case pixel.Uint8:
		return func(v float64) uint8 { return uint8(v) }
	case pixel.Uint16:
		return func(v float64) uint8 { return uint8(uint16(v) >> 8) }
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, cov := range c.Coverage {
		if cov == 0 {
			continue
		}
		for _, b := range rgb {
			v := b.At(i)
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if !(hi > lo) {
		return func(float64) uint8 { return 255 }
	}
	k := 255 / (hi - lo)
	return func(v float64) uint8 { return clamp8((v - lo) * k) }
}

// Downsample fits img within maxSize pixels on its longer side with
// premultiplied-alpha-aware CatmullRom filtering, which avoids dark halos at
// transparent edges. Images already small enough are returned unchanged.
func Downsample(img *image.NRGBA, maxSize int) *image.NRGBA {
	b := img.Bounds()
	if maxSize <= 0 || (b.Dx() <= maxSize && b.Dy() <= maxSize) {
		return img
	}
	w, h := maxSize, maxSize
	if b.Dx() >= b.Dy() {
		h = max(1, int(math.Round(float64(b.Dy())*float64(maxSize)/float64(b.Dx()))))
	} else {
		w = max(1, int(math.Round(float64(b.Dx())*float64(maxSize)/float64(b.Dy()))))
	}

	// Premultiply alpha
	premul := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si := img.PixOffset(x, y)
			di := premul.PixOffset(x, y)
			a := float64(img.Pix[si+3]) / 255.0
			premul.Pix[di] = uint8(float64(img.Pix[si])*a + 0.5)
			premul.Pix[di+1] = uint8(float64(img.Pix[si+1])*a + 0.5)
			premul.Pix[di+2] = uint8(float64(img.Pix[si+2])*a + 0.5)
			premul.Pix[di+3] = img.Pix[si+3]
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	// Unpremultiply alpha
	result := image.NewNRGBA(dst.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := dst.PixOffset(x, y)
			di := result.PixOffset(x, y)
			a := float64(dst.Pix[si+3])
			if a > 1 {
				inv := 255.0 / a
				result.Pix[di] = clamp8(float64(dst.Pix[si]) * inv)
				result.Pix[di+1] = clamp8(float64(dst.Pix[si+1]) * inv)
				result.Pix[di+2] = clamp8(float64(dst.Pix[si+2]) * inv)
			}
			result.Pix[di+3] = dst.Pix[si+3]
		}
	}
	return result
}

// WriteFile renders, downsamples and encodes a lossless WebP preview of c.
func WriteFile(path string, c *raster.Canvas, maxSize int) error {
	img := Downsample(Image(c), maxSize)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("preview: create %s: %w", path, err)
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("preview: encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("preview: close %s: %w", path, err)
	}
	return nil
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
