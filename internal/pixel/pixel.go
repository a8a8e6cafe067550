// Package pixel provides typed sample storage shared by textures and the
// output canvas.
package pixel

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Type is a raster element type.
type Type int

const (
	Uint8 Type = iota + 1
	Uint16
	Float32
)

func (t Type) String() string {
	switch t {
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Float32:
		return "float32"
	}
	return fmt.Sprintf("pixel.Type(%d)", int(t))
}

// Size returns the number of bytes per sample.
func (t Type) Size() int {
	switch t {
	case Uint8:
		return 1
	case Uint16:
		return 2
	case Float32:
		return 4
	}
	return 0
}

// Max is the largest representable value. The canvas uses it as the
// "not yet written" fill value.
func (t Type) Max() float64 {
	switch t {
	case Uint8:
		return math.MaxUint8
	case Uint16:
		return math.MaxUint16
	case Float32:
		return math.MaxFloat32
	}
	return 0
}

// IsFloat reports whether samples are IEEE floating point.
func (t Type) IsFloat() bool { return t == Float32 }

// Convert maps v into the value range of t: integers truncate toward zero
// and saturate, NaN becomes 0.
func (t Type) Convert(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	switch t {
	case Uint8, Uint16:
		if v <= 0 {
			return 0
		}
		if m := t.Max(); v >= m {
			return m
		}
		return math.Trunc(v)
	case Float32:
		if v > math.MaxFloat32 {
			return math.MaxFloat32
		}
		if v < -math.MaxFloat32 {
			return -math.MaxFloat32
		}
		return float64(float32(v))
	}
	return 0
}

// Buffer is a flat slice of samples of a single Type.
type Buffer struct {
	typ Type
	u8  []uint8
	u16 []uint16
	f32 []float32
}

// NewBuffer allocates n zeroed samples.
func NewBuffer(t Type, n int) *Buffer {
	b := &Buffer{typ: t}
	switch t {
	case Uint8:
		b.u8 = make([]uint8, n)
	case Uint16:
		b.u16 = make([]uint16, n)
	case Float32:
		b.f32 = make([]float32, n)
	default:
		panic(fmt.Sprintf("pixel: unknown type %d", int(t)))
	}
	return b
}

func (b *Buffer) Type() Type { return b.typ }

func (b *Buffer) Len() int {
	switch b.typ {
	case Uint8:
		return len(b.u8)
	case Uint16:
		return len(b.u16)
	}
	return len(b.f32)
}

// At returns sample i as float64.
func (b *Buffer) At(i int) float64 {
	switch b.typ {
	case Uint8:
		return float64(b.u8[i])
	case Uint16:
		return float64(b.u16[i])
	}
	return float64(b.f32[i])
}

// Set stores v at i after Type.Convert.
func (b *Buffer) Set(i int, v float64) {
	v = b.typ.Convert(v)
	switch b.typ {
	case Uint8:
		b.u8[i] = uint8(v)
	case Uint16:
		b.u16[i] = uint16(v)
	default:
		b.f32[i] = float32(v)
	}
}

// Fill sets every sample to v.
func (b *Buffer) Fill(v float64) {
	v = b.typ.Convert(v)
	switch b.typ {
	case Uint8:
		x := uint8(v)
		for i := range b.u8 {
			b.u8[i] = x
		}
	case Uint16:
		x := uint16(v)
		for i := range b.u16 {
			b.u16[i] = x
		}
	default:
		x := float32(v)
		for i := range b.f32 {
			b.f32[i] = x
		}
	}
}

// AppendLE appends sample i little-endian encoded to dst.
func (b *Buffer) AppendLE(dst []byte, i int) []byte {
	switch b.typ {
	case Uint8:
		return append(dst, b.u8[i])
	case Uint16:
		return binary.LittleEndian.AppendUint16(dst, b.u16[i])
	}
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(b.f32[i]))
}

// AppendLE appends v, converted to t, little-endian encoded to dst.
func (t Type) AppendLE(dst []byte, v float64) []byte {
	v = t.Convert(v)
	switch t {
	case Uint8:
		return append(dst, uint8(v))
	case Uint16:
		return binary.LittleEndian.AppendUint16(dst, uint16(v))
	}
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(float32(v)))
}
