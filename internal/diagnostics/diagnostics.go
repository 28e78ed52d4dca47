// Package diagnostics implements OutputTracker: per-stage timing and
// per-output-file tracking across a pipeline run, generalizing the
// teacher's DebugContext/StageCapture pattern (internal/pipeline) to
// the contour pipeline's stage set and carrying forward the original
// implementation's file-tracking summary (SPEC_FULL §C.1).
package diagnostics

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Severity classifies a diagnostic Entry.
type Severity int

const (
	Info Severity = iota
	Warn
	Error
)

func (s Severity) String() string {
	switch s {
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Entry is one free-form diagnostic record emitted during a run.
type Entry struct {
	Severity Severity
	Stage    string
	Message  string
	At       time.Time
}

// FileInfo records one output file produced by the pipeline,
// mirroring the original's OutputFileInfo.
type FileInfo struct {
	Filename     string
	Format       string
	Kind         string // "layer", "stacked", "combined", "svg", "archive"
	SizeBytes    int64
	LayerNumber  int // -1 for non-layer files
	Elevation    float64
	CreatedAt    time.Time
	Succeeded    bool
	ErrorMessage string
}

// stage mirrors the original's GenerationStage: a named span with a
// start/end time and freeform key-value stage data.
type stage struct {
	name      string
	start     time.Time
	end       time.Time
	completed bool
	succeeded bool
	errMsg    string
	data      map[string]string
}

func (s *stage) duration() time.Duration {
	if !s.completed {
		return 0
	}
	return s.end.Sub(s.start)
}

// Sink is the logging/capture surface every pipeline stage reports
// through. A nil *Tracker is valid and a no-op, matching the teacher's
// "nil DebugContext, no overhead" convention.
type Sink interface {
	Log(sev Severity, stageName, message string)
	StartStage(name string)
	CompleteStage(name string, succeeded bool, errMsg string)
	TrackFile(info FileInfo)
}

// Tracker is the concrete Sink implementation. The zero value is
// usable; a nil *Tracker is also usable (every method no-ops), so
// callers may thread `var tracker *diagnostics.Tracker` through
// production code paths with zero overhead, same as DebugContext.
type Tracker struct {
	mu      sync.Mutex
	entries []Entry
	stages  []*stage
	files   []FileInfo
	start   time.Time
}

// New creates a Tracker with its run-start timestamp set to now.
func New() *Tracker {
	return &Tracker{start: time.Now()}
}

func (t *Tracker) Log(sev Severity, stageName, message string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Entry{Severity: sev, Stage: stageName, Message: message, At: time.Now()})
}

func (t *Tracker) StartStage(name string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stages = append(t.stages, &stage{name: name, start: time.Now(), data: map[string]string{}})
}

func (t *Tracker) CompleteStage(name string, succeeded bool, errMsg string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.findStage(name)
	if s == nil {
		return
	}
	s.end = time.Now()
	s.completed = true
	s.succeeded = succeeded
	s.errMsg = errMsg
}

// AddStageData attaches a key-value annotation to the most recently
// started stage of the given name (e.g. "polygon_count": "42").
func (t *Tracker) AddStageData(name, key, value string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.findStage(name)
	if s == nil {
		return
	}
	s.data[key] = value
}

func (t *Tracker) findStage(name string) *stage {
	for i := len(t.stages) - 1; i >= 0; i-- {
		if t.stages[i].name == name {
			return t.stages[i]
		}
	}
	return nil
}

func (t *Tracker) TrackFile(info FileInfo) {
	if t == nil {
		return
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files = append(t.files, info)
}

// Entries returns every logged entry in insertion order.
func (t *Tracker) Entries() []Entry {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Files returns every tracked output file in insertion order.
func (t *Tracker) Files() []FileInfo {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]FileInfo, len(t.files))
	copy(out, t.files)
	return out
}

// TimingReport returns a human-readable per-stage duration summary,
// slowest stage first.
func (t *Tracker) TimingReport() string {
	if t == nil {
		return ""
	}
	t.mu.Lock()
	stages := make([]*stage, len(t.stages))
	copy(stages, t.stages)
	t.mu.Unlock()

	sort.Slice(stages, func(i, j int) bool { return stages[i].duration() > stages[j].duration() })

	out := ""
	for _, s := range stages {
		status := "running"
		if s.completed {
			status = "ok"
			if !s.succeeded {
				status = "failed: " + s.errMsg
			}
		}
		out += fmt.Sprintf("%-24s %10s  %s\n", s.name, s.duration().Round(time.Millisecond), status)
	}
	return out
}

// FileSummary returns counts and total size across tracked files,
// matching the original's getFileTrackingSummary.
func (t *Tracker) FileSummary() (count int, totalBytes int64, failed int) {
	if t == nil {
		return 0, 0, 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, f := range t.files {
		count++
		totalBytes += f.SizeBytes
		if !f.Succeeded {
			failed++
		}
	}
	return
}
