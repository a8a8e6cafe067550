package preview

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/HugoSmits86/nativewebp"

	"odm-orthophoto/internal/pixel"
	"odm-orthophoto/internal/raster"
)

func TestImageFromRGBCanvas(t *testing.T) {
	c := raster.NewCanvas(2, 1, pixel.Uint8, 4)
	for b, v := range []float64{10, 20, 30, 40} {
		c.Bands[b].Set(0, v)
	}
	c.Coverage[0] = 4

	img := Image(c)
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{10, 20, 30, 255}) {
		t.Errorf("covered pixel = %v", got)
	}
	if got := img.NRGBAAt(1, 0); got.A != 0 {
		t.Errorf("uncovered pixel = %v, want transparent", got)
	}
}

func TestImageGray16AndFloat(t *testing.T) {
	c := raster.NewCanvas(1, 1, pixel.Uint16, 1)
	c.Bands[0].Set(0, 0x8000)
	c.Coverage[0] = 1
	if got := Image(c).NRGBAAt(0, 0); got != (color.NRGBA{0x80, 0x80, 0x80, 255}) {
		t.Errorf("uint16 pixel = %v", got)
	}

	f := raster.NewCanvas(2, 1, pixel.Float32, 1)
	f.Bands[0].Set(0, -1)
	f.Bands[0].Set(1, 3)
	f.Coverage[0], f.Coverage[1] = 1, 1
	img := Image(f)
	if lo, hi := img.NRGBAAt(0, 0), img.NRGBAAt(1, 0); lo.R != 0 || hi.R != 255 || hi.A != 255 {
		t.Errorf("float stretch = %v %v", lo, hi)
	}
}

func TestDownsampleKeepsAspect(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 400, 100))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 200, 100, 50, 255
	}
	dst := Downsample(src, 100)
	if dst.Bounds() != image.Rect(0, 0, 100, 25) {
		t.Fatalf("bounds = %v, want 100x25", dst.Bounds())
	}
	if got := dst.NRGBAAt(50, 12); got != (color.NRGBA{200, 100, 50, 255}) {
		t.Errorf("centre = %v", got)
	}
	if Downsample(src, 1000) != src {
		t.Error("small image was copied")
	}
}

func TestWriteFileDecodes(t *testing.T) {
	c := raster.NewCanvas(8, 4, pixel.Uint8, 3)
	for i := range c.Coverage {
		c.Coverage[i] = 3
		c.Bands[0].Set(i, 90)
		c.Bands[1].Set(i, 120)
		c.Bands[2].Set(i, 150)
	}
	path := filepath.Join(t.TempDir(), "preview.webp")
	if err := WriteFile(path, c, 4); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := nativewebp.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Fatalf("bounds = %v, want 4x2", img.Bounds())
	}
	got := color.NRGBAModel.Convert(img.At(1, 1)).(color.NRGBA)
	if got != (color.NRGBA{90, 120, 150, 255}) {
		t.Errorf("pixel = %v", got)
	}
}
