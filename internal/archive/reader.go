package archive

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
)

// Reader opens a layer-pack archive for read-only GUI preview.
type Reader struct {
	db *sql.DB
}

// OpenReader opens path in immutable read-only mode and verifies the
// layers table exists.
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("archive: open database: %w", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='layers'").Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: verify schema: %w", err)
	}
	if count == 0 {
		db.Close()
		return nil, fmt.Errorf("archive: database does not contain a layers table")
	}

	return &Reader{db: db}, nil
}

// ReadLayer returns the layer's metadata and ungzipped PNG raster.
func (r *Reader) ReadLayer(layerIndex int) (LayerEntry, error) {
	var entry LayerEntry
	var compressed []byte
	entry.LayerIndex = layerIndex

	err := r.db.QueryRow(
		"SELECT elevation_m, area_m2, polygon_count, raster_png FROM layers WHERE layer_index=?",
		layerIndex,
	).Scan(&entry.ElevationM, &entry.AreaM2, &entry.PolygonCount, &compressed)
	if err == sql.ErrNoRows {
		return LayerEntry{}, fmt.Errorf("archive: layer %d not found", layerIndex)
	}
	if err != nil {
		return LayerEntry{}, fmt.Errorf("archive: read layer %d: %w", layerIndex, err)
	}

	png, err := gzipDecompress(compressed)
	if err != nil {
		return LayerEntry{}, fmt.Errorf("archive: decompress layer %d: %w", layerIndex, err)
	}
	entry.PNGData = png
	return entry, nil
}

// Metadata reads back the run-level metadata rows as a map.
func (r *Reader) Metadata() (map[string]string, error) {
	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, fmt.Errorf("archive: read metadata: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("archive: scan metadata row: %w", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}

// Close closes the underlying database handle.
func (r *Reader) Close() error {
	return r.db.Close()
}

func gzipDecompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}
