// Package texture decodes material textures into multi-channel sample grids.
package texture

import (
	"fmt"

	"odm-orthophoto/internal/pixel"
)

// Texture is an interleaved, row-major sample grid with the top row first.
type Texture struct {
	Type     pixel.Type
	Width    int
	Height   int
	Channels int
	Pix      *pixel.Buffer // len = Width*Height*Channels
}

// New allocates a zeroed texture.
func New(typ pixel.Type, width, height, channels int) *Texture {
	return &Texture{
		Type:     typ,
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      pixel.NewBuffer(typ, width*height*channels),
	}
}

// At returns channel ch of texel (x, y).
func (t *Texture) At(x, y, ch int) float64 {
	return t.Pix.At((y*t.Width+x)*t.Channels + ch)
}

// Set stores v into channel ch of texel (x, y).
func (t *Texture) Set(x, y, ch int, v float64) {
	t.Pix.Set((y*t.Width+x)*t.Channels+ch, v)
}

func (t *Texture) String() string {
	return fmt.Sprintf("%dx%d %d-band %s", t.Width, t.Height, t.Channels, t.Type)
}
