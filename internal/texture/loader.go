package texture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/HugoSmits86/nativewebp"
	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"odm-orthophoto/internal/pixel"
)

// Load reads an image file and returns it as a Texture.
//
// Grayscale images load as one band. Colour images load as three bands when
// fully opaque and four otherwise. 16-bit sources keep 16-bit samples.
func Load(path string) (*Texture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", path, err)
	}

	tex, err := FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", path, err)
	}
	return tex, nil
}

// FromImage converts a decoded image into a Texture. Images without pixels
// are rejected, since they cannot be sampled.
func FromImage(src image.Image) (*Texture, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if b.Empty() {
		return nil, fmt.Errorf("empty %dx%d image", w, h)
	}

	switch s := src.(type) {
	case *image.Gray:
		t := New(pixel.Uint8, w, h, 1)
		for y := 0; y < h; y++ {
			row := s.Pix[y*s.Stride : y*s.Stride+w]
			for x, v := range row {
				t.Set(x, y, 0, float64(v))
			}
		}
		return t, nil
	case *image.Gray16:
		t := New(pixel.Uint16, w, h, 1)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				t.Set(x, y, 0, float64(s.Gray16At(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
		return t, nil
	case *image.RGBA64, *image.NRGBA64:
		return from16(src), nil
	}
	return from8(src), nil
}

// from8 converts via NRGBA so premultiplied and YCbCr sources end up as
// straight 8-bit colour.
func from8(src image.Image) *Texture {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	n, ok := src.(*image.NRGBA)
	if !ok {
		n = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(n, n.Bounds(), src, b.Min, draw.Src)
	}

	opaque := true
	for y := 0; y < h && opaque; y++ {
		off := y * n.Stride
		for x := 0; x < w; x++ {
			if n.Pix[off+x*4+3] != 0xff {
				opaque = false
				break
			}
		}
	}

	ch := 4
	if opaque {
		ch = 3
	}
	t := New(pixel.Uint8, w, h, ch)
	for y := 0; y < h; y++ {
		off := y * n.Stride
		for x := 0; x < w; x++ {
			i := off + x*4
			for c := 0; c < ch; c++ {
				t.Set(x, y, c, float64(n.Pix[i+c]))
			}
		}
	}
	return t
}

func from16(src image.Image) *Texture {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	n := image.NewNRGBA64(image.Rect(0, 0, w, h))
	draw.Draw(n, n.Bounds(), src, b.Min, draw.Src)

	opaque := true
	for y := 0; y < h && opaque; y++ {
		for x := 0; x < w; x++ {
			if n.NRGBA64At(x, y).A != 0xffff {
				opaque = false
				break
			}
		}
	}

	ch := 4
	if opaque {
		ch = 3
	}
	t := New(pixel.Uint16, w, h, ch)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := n.NRGBA64At(x, y)
			v := [4]uint16{c.R, c.G, c.B, c.A}
			for k := 0; k < ch; k++ {
				t.Set(x, y, k, float64(v[k]))
			}
		}
	}
	return t
}

// ResolvePath locates a texture reference relative to baseDir. Backslash
// separators are accepted, and when the exact name does not exist a
// case-insensitive match in the same directory is used.
func ResolvePath(baseDir, ref string) (string, error) {
	ref = strings.ReplaceAll(strings.TrimSpace(ref), "\\", "/")
	path := filepath.Join(baseDir, filepath.FromSlash(ref))
	if filepath.IsAbs(filepath.FromSlash(ref)) {
		path = filepath.FromSlash(ref)
	}

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	dir, base := filepath.Split(path)
	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(e.Name(), base) {
				return filepath.Join(dir, e.Name()), nil
			}
		}
	}
	return "", fmt.Errorf("texture: open %s: %w", path, fs.ErrNotExist)
}
