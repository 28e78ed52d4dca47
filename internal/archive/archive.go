// Package archive implements the layer-pack SQLite artifact (SPEC_FULL
// §C.2): a single file bundling every layer's rendered PNG raster
// alongside its ContourLayer metadata (elevation, area, polygon
// count), for downstream GUI preview. Adapted from the teacher's
// internal/mbtiles.Writer — same batched-insert/WAL-pragma pattern,
// re-keyed from (zoom, x, y) tile coordinates to a flat layer index.
package archive

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// DefaultBatchSize is the number of layers to buffer before flushing
// to the database.
const DefaultBatchSize = 50

// Metadata describes the overall generation run the archive bundles.
type Metadata struct {
	Name        string
	Description string
	SourcePath  string
	Bounds      [4]float64 // minX, minY, maxX, maxY
	LayerCount  int
}

// LayerEntry is one layer's raster plus its descriptive metadata.
type LayerEntry struct {
	LayerIndex   int
	ElevationM   float64
	AreaM2       float64
	PolygonCount int
	PNGData      []byte
}

// Writer batches LayerEntry rows into a SQLite database, gzip
// compressing the PNG payload before storage.
type Writer struct {
	db        *sql.DB
	batch     []LayerEntry
	batchSize int
	mu        sync.Mutex
}

// New creates the archive at path (keeping its tables if they already
// exist) and records run-level metadata.
func New(path string, meta Metadata) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = 50000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("archive: set pragma %q: %w", p, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: create schema: %w", err)
	}
	if err := insertMetadata(db, meta); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: insert metadata: %w", err)
	}

	return &Writer{db: db, batch: make([]LayerEntry, 0, DefaultBatchSize), batchSize: DefaultBatchSize}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS metadata (
			name TEXT NOT NULL,
			value TEXT
		);

		CREATE TABLE IF NOT EXISTS layers (
			layer_index   INTEGER NOT NULL,
			elevation_m   REAL NOT NULL,
			area_m2       REAL NOT NULL,
			polygon_count INTEGER NOT NULL,
			raster_png    BLOB NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS layer_index_idx ON layers (layer_index);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

func insertMetadata(db *sql.DB, meta Metadata) error {
	if _, err := db.Exec("DELETE FROM metadata"); err != nil {
		return fmt.Errorf("clear metadata: %w", err)
	}

	stmt, err := db.Prepare("INSERT INTO metadata (name, value) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare metadata insert: %w", err)
	}
	defer stmt.Close()

	rows := map[string]string{
		"name":        meta.Name,
		"description": meta.Description,
		"source_path": meta.SourcePath,
		"bounds":      fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", meta.Bounds[0], meta.Bounds[1], meta.Bounds[2], meta.Bounds[3]),
		"layer_count": fmt.Sprintf("%d", meta.LayerCount),
	}
	for k, v := range rows {
		if v == "" {
			continue
		}
		if _, err := stmt.Exec(k, v); err != nil {
			return fmt.Errorf("insert metadata %q: %w", k, err)
		}
	}
	return nil
}

// WriteLayer adds a layer to the batch, flushing automatically once
// the batch reaches its configured size.
func (w *Writer) WriteLayer(entry LayerEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.batch = append(w.batch, entry)
	if len(w.batch) >= w.batchSize {
		return w.flushLocked()
	}
	return nil
}

// Flush writes any buffered layers to the database.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

func (w *Writer) flushLocked() error {
	if len(w.batch) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO layers (layer_index, elevation_m, area_m2, polygon_count, raster_png) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range w.batch {
		compressed, err := gzipCompress(e.PNGData)
		if err != nil {
			return fmt.Errorf("compress layer %d: %w", e.LayerIndex, err)
		}
		if _, err := stmt.Exec(e.LayerIndex, e.ElevationM, e.AreaM2, e.PolygonCount, compressed); err != nil {
			return fmt.Errorf("insert layer %d: %w", e.LayerIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	w.batch = w.batch[:0]
	return nil
}

// Close flushes remaining layers and closes the database.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		w.db.Close()
		return err
	}
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("archive: close database: %w", err)
	}
	return nil
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
