package export

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"os"
)

// GeoTIFF tag constants, ported from the field names documented in
// gden173/geotiff's const.go (a GeoTIFF reader; no writer exists in
// the pack, so the byte-level encoding below is hand-rolled against
// the same TIFF 6.0 spec that reader cites — justified in DESIGN.md).
const (
	tiffMagicLittleEndian = 0x4949
	tiffIdentifier        = 42

	tagImageWidth                = 256
	tagImageLength               = 257
	tagBitsPerSample             = 258
	tagCompression               = 259
	tagPhotometricInterpretation = 262
	tagStripOffsets              = 273
	tagSamplesPerPixel           = 277
	tagRowsPerStrip              = 278
	tagStripByteCounts           = 279
	tagPlanarConfiguration       = 284
	tagModelPixelScaleTag        = 33550
	tagModelTiepointTag          = 33922

	typeShort  = 3
	typeLong   = 4
	typeDouble = 12
)

// writeGeoTIFF encodes the composited elevation raster as an 8-bit
// grayscale single-strip TIFF with the georeferencing tags a GIS
// consumer needs to place it, per spec.md §4.9.
func writeGeoTIFF(path string, layers []LayerView, opts Options, geo GeoContext) error {
	img, err := renderComposite(layers, opts, geo)
	if err != nil {
		return err
	}
	width, height, gray := toGray8(img)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("geotiff: create: %w", err)
	}
	defer f.Close()

	return encodeGeoTIFF(f, width, height, gray, geo.GeoTransform)
}

func toGray8(img *image.NRGBA) (width, height int, out []byte) {
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()
	out = make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			out[y*width+x] = byte((int(c.R) + int(c.G) + int(c.B)) / 3)
		}
	}
	return width, height, out
}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value uint32 // inline value or offset, written as-is
}

// encodeGeoTIFF writes a minimal uncompressed TIFF: header, one IFD,
// the georeferencing double arrays, and the single-strip pixel data.
func encodeGeoTIFF(f *os.File, width, height int, gray []byte, gt [6]float64) error {
	w := &tiffWriter{f: f}

	w.u16(tiffMagicLittleEndian)
	w.u16(tiffIdentifier)
	w.u32(8) // first IFD immediately follows the 8-byte header

	entries := []ifdEntry{
		{tagImageWidth, typeLong, 1, uint32(width)},
		{tagImageLength, typeLong, 1, uint32(height)},
		{tagBitsPerSample, typeShort, 1, 8},
		{tagCompression, typeShort, 1, 1},
		{tagPhotometricInterpretation, typeShort, 1, 1}, // BlackIsZero
		{tagSamplesPerPixel, typeShort, 1, 1},
		{tagRowsPerStrip, typeLong, 1, uint32(height)},
		{tagPlanarConfiguration, typeShort, 1, 1},
	}

	// Layout after the IFD: ModelPixelScale (3 doubles), ModelTiepoint
	// (6 doubles), then the strip pixel data.
	const headerLen = 8
	ifdLen := uint32(2 + (len(entries)+4)*12 + 4)
	pixelScaleOffset := uint32(headerLen) + ifdLen
	tiepointOffset := pixelScaleOffset + 3*8
	stripOffset := tiepointOffset + 6*8

	entries = append(entries,
		ifdEntry{tagModelPixelScaleTag, typeDouble, 3, pixelScaleOffset},
		ifdEntry{tagModelTiepointTag, typeDouble, 6, tiepointOffset},
		ifdEntry{tagStripOffsets, typeLong, 1, stripOffset},
		ifdEntry{tagStripByteCounts, typeLong, 1, uint32(len(gray))},
	)

	w.u16(uint16(len(entries)))
	for _, e := range entries {
		w.u16(e.tag)
		w.u16(e.typ)
		w.u32(e.count)
		w.u32(e.value)
	}
	w.u32(0) // no next IFD

	// ModelPixelScale: (pixel width, pixel height, 0) in geo units.
	w.f64(gt[1])
	w.f64(-gt[5])
	w.f64(0)

	// ModelTiepoint: raster (0,0,0) -> model (gt[0], gt[3], 0).
	w.f64(0)
	w.f64(0)
	w.f64(0)
	w.f64(gt[0])
	w.f64(gt[3])
	w.f64(0)

	w.bytes(gray)
	return w.err
}

type tiffWriter struct {
	f   *os.File
	err error
}

func (w *tiffWriter) u16(v uint16) {
	if w.err != nil {
		return
	}
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	_, w.err = w.f.Write(buf[:])
}

func (w *tiffWriter) u32(v uint32) {
	if w.err != nil {
		return
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, w.err = w.f.Write(buf[:])
}

func (w *tiffWriter) f64(v float64) {
	if w.err != nil {
		return
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	_, w.err = w.f.Write(buf[:])
}

func (w *tiffWriter) bytes(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.f.Write(b)
}
