package geotiff

import (
	"encoding/binary"
	"math"
	"slices"
)

// TIFF field types.
const (
	typeASCII  = 2
	typeShort  = 3
	typeLong   = 4
	typeDouble = 12
	typeLong8  = 16
)

// Baseline and GeoTIFF tags written by the encoder.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagPlanarConfig    = 284
	tagSoftware        = 305
	tagExtraSamples    = 338
	tagSampleFormat    = 339

	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922
	tagGeoKeyDirectory = 34735
	tagGDALNoData      = 42113
)

// field is one IFD entry with its value already encoded little-endian.
type field struct {
	tag   uint16
	typ   uint16
	count uint64
	data  []byte
}

type ifd []field

func (d *ifd) shorts(tag uint16, v ...uint16) {
	var b []byte
	for _, x := range v {
		b = binary.LittleEndian.AppendUint16(b, x)
	}
	*d = append(*d, field{tag, typeShort, uint64(len(v)), b})
}

func (d *ifd) longs(tag uint16, v ...uint32) {
	var b []byte
	for _, x := range v {
		b = binary.LittleEndian.AppendUint32(b, x)
	}
	*d = append(*d, field{tag, typeLong, uint64(len(v)), b})
}

// offsets stores v as LONG in classic files and LONG8 in BigTIFF.
func (d *ifd) offsets(tag uint16, big bool, v []uint64) {
	if !big {
		w := make([]uint32, len(v))
		for i, x := range v {
			w[i] = uint32(x)
		}
		d.longs(tag, w...)
		return
	}
	b := make([]byte, 0, 8*len(v))
	for _, x := range v {
		b = binary.LittleEndian.AppendUint64(b, x)
	}
	*d = append(*d, field{tag, typeLong8, uint64(len(v)), b})
}

func (d *ifd) doubles(tag uint16, v ...float64) {
	var b []byte
	for _, x := range v {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(x))
	}
	*d = append(*d, field{tag, typeDouble, uint64(len(v)), b})
}

func (d *ifd) ascii(tag uint16, s string) {
	b := append([]byte(s), 0)
	*d = append(*d, field{tag, typeASCII, uint64(len(b)), b})
}

// encode lays the directory out at file offset off. Values that do not fit
// in an entry follow the directory, word aligned.
func (d ifd) encode(off uint64, big bool) []byte {
	slices.SortFunc(d, func(a, b field) int { return int(a.tag) - int(b.tag) })

	countSize, entrySize, inline := 2, 12, 4
	if big {
		countSize, entrySize, inline = 8, 20, 8
	}
	headLen := countSize + len(d)*entrySize + inline
	extraOff := off + uint64(headLen)

	le := binary.LittleEndian
	out := make([]byte, 0, headLen)
	var extra []byte

	if big {
		out = le.AppendUint64(out, uint64(len(d)))
	} else {
		out = le.AppendUint16(out, uint16(len(d)))
	}
	for _, f := range d {
		out = le.AppendUint16(out, f.tag)
		out = le.AppendUint16(out, f.typ)
		if big {
			out = le.AppendUint64(out, f.count)
		} else {
			out = le.AppendUint32(out, uint32(f.count))
		}

		if len(f.data) <= inline {
			out = append(out, f.data...)
			out = append(out, make([]byte, inline-len(f.data))...)
			continue
		}
		pos := extraOff + uint64(len(extra))
		if big {
			out = le.AppendUint64(out, pos)
		} else {
			out = le.AppendUint32(out, uint32(pos))
		}
		extra = append(extra, f.data...)
		if len(extra)%2 == 1 {
			extra = append(extra, 0)
		}
	}
	// No further IFDs.
	out = append(out, make([]byte, inline)...)
	return append(out, extra...)
}
