// Package planerr defines the planning core's typed error kinds (spec §7).
// Domain errors are returned by value from the offending component and are
// not mapped to free-form strings until the caller's boundary; the core
// never retries internally.
package planerr

import "fmt"

// Kind enumerates the exhaustive set of planning failure kinds.
type Kind string

const (
	KindInvalidInput         Kind = "InvalidInput"
	KindInfeasibleConstraint Kind = "InfeasibleConstraint"
	KindEmptyCoverage        Kind = "EmptyCoverage"
	KindNoPathFound          Kind = "NoPathFound"
	KindTimeout              Kind = "Timeout"
	KindCancelled            Kind = "Cancelled"
	KindSpatialConflict      Kind = "SpatialConflict"
	KindObstacleSaturation   Kind = "ObstacleSaturation"
	KindSerializationError   Kind = "SerializationError"
)

// Error is a typed planning failure. EmptyCoverage is carried as an Error
// value attached to an otherwise-successful result rather than returned as
// a Go error, per spec: it is a diagnostic, not a fatal failure.
type Error struct {
	Kind    Kind
	Message string

	Iterations int     // populated for NoPathFound/Timeout/Cancelled
	ElapsedSec float64 // populated for NoPathFound/Timeout/Cancelled
	Pairs      [][2]string // populated for SpatialConflict: conflicting vehicle-id pairs
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

// New constructs a plain typed error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Searchf constructs a search-failure error (NoPathFound/Timeout/Cancelled)
// with iteration/elapsed-time bookkeeping.
func Searchf(kind Kind, iterations int, elapsedSec float64, format string, args ...any) *Error {
	return &Error{
		Kind:       kind,
		Message:    fmt.Sprintf(format, args...),
		Iterations: iterations,
		ElapsedSec: elapsedSec,
	}
}

// SpatialConflictf constructs a SpatialConflict error listing the
// conflicting vehicle-id pairs.
func SpatialConflictf(pairs [][2]string) *Error {
	return &Error{
		Kind:    KindSpatialConflict,
		Message: fmt.Sprintf("%d overlapping sub-region pair(s)", len(pairs)),
		Pairs:   pairs,
	}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	pe, ok := err.(*Error)
	return ok && pe.Kind == kind
}
