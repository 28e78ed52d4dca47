package archive

import (
	"path/filepath"
	"testing"
)

func TestWriteAndReadLayerRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layers.sqlite")

	w, err := New(path, Metadata{Name: "test-run", LayerCount: 2, Bounds: [4]float64{0, 0, 10, 10}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	payload := []byte{0x89, 'P', 'N', 'G', 1, 2, 3, 4}
	if err := w.WriteLayer(LayerEntry{LayerIndex: 0, ElevationM: 100, AreaM2: 500, PolygonCount: 3, PNGData: payload}); err != nil {
		t.Fatalf("WriteLayer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	entry, err := r.ReadLayer(0)
	if err != nil {
		t.Fatalf("ReadLayer: %v", err)
	}
	if entry.ElevationM != 100 || entry.PolygonCount != 3 {
		t.Errorf("unexpected entry metadata: %+v", entry)
	}
	if string(entry.PNGData) != string(payload) {
		t.Errorf("expected round-tripped PNG payload, got %v", entry.PNGData)
	}

	meta, err := r.Metadata()
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if meta["name"] != "test-run" {
		t.Errorf("expected name=test-run, got %q", meta["name"])
	}
}

func TestWriteLayerAutoFlushesAtBatchSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layers.sqlite")
	w, err := New(path, Metadata{Name: "batch-test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	for i := 0; i < DefaultBatchSize+1; i++ {
		if err := w.WriteLayer(LayerEntry{LayerIndex: i, PNGData: []byte{byte(i)}}); err != nil {
			t.Fatalf("WriteLayer %d: %v", i, err)
		}
	}
	if len(w.batch) != 1 {
		t.Errorf("expected batch to auto-flush leaving 1 buffered entry, got %d", len(w.batch))
	}
}

func TestOpenReaderRejectsMissingSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.sqlite")
	// Create an empty sqlite file with no schema via a writer, then drop the table.
	w, err := New(path, Metadata{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := w.db.Exec("DROP TABLE layers"); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	w.Close()

	if _, err := OpenReader(path); err == nil {
		t.Error("expected OpenReader to reject a database without a layers table")
	}
}
