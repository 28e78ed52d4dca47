// Package errs defines the sentinel error taxonomy shared across the
// contour pipeline, so callers can classify failures with errors.Is
// instead of string matching.
package errs

import "errors"

var (
	// ErrConfiguration flags invalid or inconsistent configuration,
	// detected before any work begins. Always fatal.
	ErrConfiguration = errors.New("configuration error")

	// ErrNoElevationData flags an elevation grid that is empty or
	// entirely no-data after repair. Fatal.
	ErrNoElevationData = errors.New("no elevation data")

	// ErrExtractionFailed flags a contour tracer that returned no
	// geometry or inconsistent geometry. Fatal.
	ErrExtractionFailed = errors.New("contour extraction failed")

	// ErrInconsistentGeometry flags a polygon whose invariants could
	// not be restored after processing. The offending polygon is
	// dropped and a diagnostic emitted; fatal only when every polygon
	// of every layer is dropped.
	ErrInconsistentGeometry = errors.New("inconsistent geometry")

	// ErrMeshInvalid flags a mesh that failed manifold/watertight
	// validation. Non-fatal; reported as a diagnostic.
	ErrMeshInvalid = errors.New("mesh invalid")

	// ErrEmitterError flags an I/O or format-specific failure for one
	// output file. Non-fatal per file.
	ErrEmitterError = errors.New("emitter error")
)
