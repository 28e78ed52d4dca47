package grid

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// encodeTestGeoTIFF builds a minimal single-strip, little-endian TIFF
// with a float32 sample and the georeferencing tags LoadGeoTIFF reads,
// mirroring the structure internal/export's writeGeoTIFF produces.
func encodeTestGeoTIFF(t *testing.T, width, height int, samples []float32, gt GeoTransform) string {
	t.Helper()

	buf := make([]byte, 0, 256)
	le := binary.LittleEndian
	put16 := func(v uint16) { b := make([]byte, 2); le.PutUint16(b, v); buf = append(buf, b...) }
	put32 := func(v uint32) { b := make([]byte, 4); le.PutUint32(b, v); buf = append(buf, b...) }
	putF64 := func(v float64) {
		b := make([]byte, 8)
		le.PutUint64(b, math.Float64bits(v))
		buf = append(buf, b...)
	}

	put16(0x4949)
	put16(42)
	put32(8)

	type entry struct {
		tag, typ uint16
		count    uint32
		value    uint32
	}

	const headerLen = 8
	numEntries := 10
	ifdLen := uint32(2 + numEntries*12 + 4)
	pixelScaleOffset := uint32(headerLen) + ifdLen
	tiepointOffset := pixelScaleOffset + 3*8
	stripOffset := tiepointOffset + 6*8
	stripBytes := uint32(width * height * 4)

	entries := []entry{
		{256, 4, 1, uint32(width)},
		{257, 4, 1, uint32(height)},
		{258, 3, 1, 32},
		{259, 3, 1, 1},
		{277, 3, 1, 1},
		{339, 3, 1, 3}, // SampleFormat: IEEE float
		{33550, 12, 3, pixelScaleOffset},
		{33922, 12, 6, tiepointOffset},
		{273, 4, 1, stripOffset},
		{279, 4, 1, stripBytes},
	}

	put16(uint16(len(entries)))
	for _, e := range entries {
		put16(e.tag)
		put16(e.typ)
		put32(e.count)
		put32(e.value)
	}
	put32(0)

	putF64(gt[1])
	putF64(-gt[5])
	putF64(0)

	putF64(0)
	putF64(0)
	putF64(0)
	putF64(gt[0])
	putF64(gt[3])
	putF64(0)

	for _, s := range samples {
		b := make([]byte, 4)
		le.PutUint32(b, math.Float32bits(s))
		buf = append(buf, b...)
	}

	path := filepath.Join(t.TempDir(), "test.tif")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write test tiff: %v", err)
	}
	return path
}

func TestLoadGeoTIFFRoundTripsFloatSamples(t *testing.T) {
	gt := GeoTransform{10, 1, 0, 20, 0, -1}
	path := encodeTestGeoTIFF(t, 2, 2, []float32{1, 2, 3, 4}, gt)

	g, err := LoadGeoTIFF(path)
	if err != nil {
		t.Fatalf("LoadGeoTIFF: %v", err)
	}
	if g.Width != 2 || g.Height != 2 {
		t.Fatalf("dimensions = %dx%d, want 2x2", g.Width, g.Height)
	}
	want := []float32{1, 2, 3, 4}
	for i, w := range want {
		if g.Data[i] != w {
			t.Errorf("Data[%d] = %v, want %v", i, g.Data[i], w)
		}
	}
	if g.Transform[1] != 1 || g.Transform[5] != -1 {
		t.Errorf("Transform pixel scale = %v, %v, want 1, -1", g.Transform[1], g.Transform[5])
	}
}

func TestLoadGeoTIFFRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.tif")
	if err := os.WriteFile(path, []byte{0x49, 0x49}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadGeoTIFF(path); err == nil {
		t.Error("expected an error for a truncated file")
	}
}

func TestLoadGeoTIFFRejectsMissingFile(t *testing.T) {
	if _, err := LoadGeoTIFF(filepath.Join(t.TempDir(), "missing.tif")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
