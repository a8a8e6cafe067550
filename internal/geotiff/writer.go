// Package geotiff encodes a rendered canvas as an uncompressed, georeferenced
// TIFF or BigTIFF file.
package geotiff

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"odm-orthophoto/internal/pixel"
	"odm-orthophoto/internal/raster"
)

// ErrTooLarge reports an image that does not fit a classic TIFF when BigTIFF
// output is disabled.
var ErrTooLarge = errors.New("geotiff: image too large for classic TIFF")

// BigTIFF selects between the classic and the 64-bit container.
type BigTIFF string

const (
	BigTIFFIfSafer BigTIFF = "if_safer"
	BigTIFFYes     BigTIFF = "yes"
	BigTIFFNo      BigTIFF = "no"
)

// ifSaferLimit is the payload size from which if_safer switches to BigTIFF.
const ifSaferLimit = 4_000_000_000

// ParseBigTIFF validates a BigTIFF mode name. The empty string selects
// if_safer.
func ParseBigTIFF(s string) (BigTIFF, error) {
	switch m := BigTIFF(s); m {
	case "":
		return BigTIFFIfSafer, nil
	case BigTIFFIfSafer, BigTIFFYes, BigTIFFNo:
		return m, nil
	}
	return "", fmt.Errorf("geotiff: unknown bigtiff mode %q (want if_safer, yes or no)", s)
}

func (m BigTIFF) use(payload uint64) bool {
	switch m {
	case BigTIFFYes:
		return true
	case BigTIFFNo:
		return false
	}
	return payload >= ifSaferLimit
}

// Options controls georeferencing and container layout.
type Options struct {
	// EPSG is the projected coordinate system code; 0 leaves it unset.
	EPSG int
	// OffsetX and OffsetY are added to the canvas bounds, for meshes stored
	// relative to a projection origin.
	OffsetX, OffsetY float64
	BigTIFF          BigTIFF
	// Alpha appends a band derived from per-pixel coverage. Without it the
	// fill value is declared as nodata.
	Alpha  bool
	Logger *slog.Logger
}

// Sample format codes and photometric interpretations.
const (
	sampleUint  = 1
	sampleFloat = 3

	photoMinIsBlack = 1
	photoRGB        = 2

	extraUnspecified = 0
	extraUnassocAlph = 2
)

// GeoKey directory entries.
const (
	keyModelType      = 1024
	keyRasterType     = 1025
	keyProjectedCS    = 3072
	modelProjected    = 1
	rasterPixelIsArea = 1
)

// stripTarget is the approximate size of one strip in bytes.
const stripTarget = 1 << 16

// layout describes the sample arrangement of the output file.
type layout struct {
	width, height int
	typ           pixel.Type
	colour        int // canvas bands
	samples       int // colour bands plus alpha
	alpha         bool
	rowBytes      uint64
	rowsPerStrip  int
}

func newLayout(c *raster.Canvas, alpha bool) layout {
	l := layout{
		width:  c.Width,
		height: c.Height,
		typ:    c.Type,
		colour: len(c.Bands),
		alpha:  alpha,
	}
	l.samples = l.colour
	if alpha {
		l.samples++
	}
	l.rowBytes = uint64(l.width) * uint64(l.samples) * uint64(l.typ.Size())
	l.rowsPerStrip = int(max(1, stripTarget/l.rowBytes))
	l.rowsPerStrip = min(l.rowsPerStrip, l.height)
	return l
}

func (l layout) payload() uint64 { return l.rowBytes * uint64(l.height) }

// Encode writes c to w as a single-image GeoTIFF.
func Encode(w io.Writer, c *raster.Canvas, opts Options) error {
	if c == nil || c.Width <= 0 || c.Height <= 0 || len(c.Bands) == 0 {
		return fmt.Errorf("geotiff: empty canvas")
	}
	if opts.EPSG < 0 || opts.EPSG > math.MaxUint16 {
		return fmt.Errorf("geotiff: EPSG code %d out of range", opts.EPSG)
	}
	if !(c.PixelsPerUnit > 0) {
		return fmt.Errorf("geotiff: canvas has no pixel scale")
	}

	l := newLayout(c, opts.Alpha)
	big := opts.BigTIFF.use(l.payload())

	headerLen := uint64(8)
	if big {
		headerLen = 16
	}
	dataOff := headerLen
	ifdOff := dataOff + l.payload()
	ifdOff += ifdOff % 2

	dir := buildIFD(c, l, opts, big, dataOff)
	ifdBytes := dir.encode(ifdOff, big)
	if !big && ifdOff+uint64(len(ifdBytes)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d bytes of pixel data", ErrTooLarge, l.payload())
	}

	bw := bufio.NewWriterSize(w, 1<<20)
	le := binary.LittleEndian
	header := []byte{'I', 'I'}
	if big {
		header = le.AppendUint16(header, 43)
		header = le.AppendUint16(header, 8)
		header = le.AppendUint16(header, 0)
		header = le.AppendUint64(header, ifdOff)
	} else {
		header = le.AppendUint16(header, 42)
		header = le.AppendUint32(header, uint32(ifdOff))
	}
	if _, err := bw.Write(header); err != nil {
		return fmt.Errorf("geotiff: write header: %w", err)
	}

	row := make([]byte, 0, l.rowBytes)
	for y := 0; y < l.height; y++ {
		row = row[:0]
		base := y * l.width
		for x := 0; x < l.width; x++ {
			i := base + x
			for _, b := range c.Bands {
				row = b.AppendLE(row, i)
			}
			if l.alpha {
				row = l.typ.AppendLE(row, c.Alpha(i))
			}
		}
		if _, err := bw.Write(row); err != nil {
			return fmt.Errorf("geotiff: write row %d: %w", y, err)
		}
	}
	if pad := ifdOff - dataOff - l.payload(); pad > 0 {
		if _, err := bw.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("geotiff: write: %w", err)
		}
	}
	if _, err := bw.Write(ifdBytes); err != nil {
		return fmt.Errorf("geotiff: write directory: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("geotiff: flush: %w", err)
	}
	return nil
}

func buildIFD(c *raster.Canvas, l layout, opts Options, big bool, dataOff uint64) ifd {
	var d ifd

	d.longs(tagImageWidth, uint32(l.width))
	d.longs(tagImageLength, uint32(l.height))
	d.shorts(tagCompression, 1)
	d.shorts(tagSamplesPerPixel, uint16(l.samples))
	d.longs(tagRowsPerStrip, uint32(l.rowsPerStrip))
	d.shorts(tagPlanarConfig, 1)
	d.ascii(tagSoftware, "odm-orthophoto")

	bits := make([]uint16, l.samples)
	format := make([]uint16, l.samples)
	sf := uint16(sampleUint)
	if l.typ.IsFloat() {
		sf = sampleFloat
	}
	for i := range bits {
		bits[i] = uint16(8 * l.typ.Size())
		format[i] = sf
	}
	d.shorts(tagBitsPerSample, bits...)
	d.shorts(tagSampleFormat, format...)

	photo, primaries := uint16(photoMinIsBlack), 1
	if l.colour == 3 {
		photo, primaries = photoRGB, 3
	}
	d.shorts(tagPhotometric, photo)
	if extra := l.samples - primaries; extra > 0 {
		kinds := make([]uint16, extra)
		if l.alpha {
			kinds[extra-1] = extraUnassocAlph
		}
		d.shorts(tagExtraSamples, kinds...)
	}

	var offsets, counts []uint64
	for y := 0; y < l.height; y += l.rowsPerStrip {
		rows := min(l.rowsPerStrip, l.height-y)
		offsets = append(offsets, dataOff+uint64(y)*l.rowBytes)
		counts = append(counts, uint64(rows)*l.rowBytes)
	}
	d.offsets(tagStripOffsets, big, offsets)
	d.offsets(tagStripByteCounts, big, counts)

	scale := 1.0 / c.PixelsPerUnit
	d.doubles(tagModelPixelScale, scale, scale, 0)
	d.doubles(tagModelTiepoint, 0, 0, 0,
		c.Bounds.XMin+opts.OffsetX, c.Bounds.YMax+opts.OffsetY, 0)
	d.shorts(tagGeoKeyDirectory, geoKeys(opts.EPSG)...)

	if !l.alpha {
		d.ascii(tagGDALNoData, strconv.FormatFloat(c.FillValue(), 'g', -1, 64))
	}
	return d
}

// geoKeys returns the GeoKeyDirectory: a projected model with area pixels,
// plus the coordinate system when epsg is set.
func geoKeys(epsg int) []uint16 {
	keys := [][4]uint16{
		{keyModelType, 0, 1, modelProjected},
		{keyRasterType, 0, 1, rasterPixelIsArea},
	}
	if epsg > 0 {
		keys = append(keys, [4]uint16{keyProjectedCS, 0, 1, uint16(epsg)})
	}
	dir := []uint16{1, 1, 0, uint16(len(keys))}
	for _, k := range keys {
		dir = append(dir, k[:]...)
	}
	return dir
}

// WriteFile encodes c to path through a temporary file in the same
// directory, so path is either complete or untouched.
func WriteFile(path string, c *raster.Canvas, opts Options) (err error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("geotiff: create %s: %w", path, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	log.Debug("writing orthophoto", "path", path, "temp", tmp)
	if err = Encode(f, c, opts); err != nil {
		return err
	}
	if err = f.Chmod(0o644); err != nil {
		return fmt.Errorf("geotiff: chmod %s: %w", tmp, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("geotiff: close %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("geotiff: rename %s: %w", path, err)
	}
	l := newLayout(c, opts.Alpha)
	log.Info("wrote orthophoto", "path", path, "width", c.Width, "height", c.Height,
		"samples", l.samples, "bigtiff", opts.BigTIFF.use(l.payload()))
	return nil
}
