package diagnostics

import "testing"

func TestNilTrackerNoOps(t *testing.T) {
	var tr *Tracker
	tr.Log(Info, "extract", "hello")
	tr.StartStage("extract")
	tr.CompleteStage("extract", true, "")
	tr.TrackFile(FileInfo{Filename: "a.svg"})
	if len(tr.Entries()) != 0 || len(tr.Files()) != 0 {
		t.Error("expected nil tracker to no-op")
	}
}

func TestTrackerRecordsStagesAndFiles(t *testing.T) {
	tr := New()
	tr.StartStage("contour")
	tr.AddStageData("contour", "levels", "5")
	tr.CompleteStage("contour", true, "")
	tr.TrackFile(FileInfo{Filename: "layer_01.svg", Format: "svg", Kind: "layer", SizeBytes: 1024, Succeeded: true})
	tr.TrackFile(FileInfo{Filename: "layer_02.svg", Format: "svg", Kind: "layer", Succeeded: false, ErrorMessage: "boom"})

	count, total, failed := tr.FileSummary()
	if count != 2 {
		t.Errorf("expected 2 tracked files, got %d", count)
	}
	if total != 1024 {
		t.Errorf("expected total size 1024, got %d", total)
	}
	if failed != 1 {
		t.Errorf("expected 1 failed file, got %d", failed)
	}
	if tr.TimingReport() == "" {
		t.Error("expected non-empty timing report")
	}
}

func TestLogEntriesPreserveOrder(t *testing.T) {
	tr := New()
	tr.Log(Info, "a", "first")
	tr.Log(Warn, "b", "second")
	entries := tr.Entries()
	if len(entries) != 2 || entries[0].Message != "first" || entries[1].Severity != Warn {
		t.Errorf("unexpected entries: %+v", entries)
	}
}
