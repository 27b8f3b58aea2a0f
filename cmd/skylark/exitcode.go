package main

import (
	"errors"
	"os"

	"github.com/PossumXI/Asgard/Skylark/internal/planerr"
)

// Exit codes per the planning core's CLI surface: 0 success, 2 bad
// input, 3 planning infeasible, 4 cancelled, 5 IO error.
const (
	exitOK               = 0
	exitBadInput         = 2
	exitPlanningFailed   = 3
	exitCancelled        = 4
	exitIOError          = 5
)

// exitCodeFor maps a planning-core error to the CLI's exit code; a plain
// (non-planerr) error is treated as an IO/usage failure.
func exitCodeFor(err error) int {
	var pe *planerr.Error
	if errors.As(err, &pe) {
		return exitCodeForKind(pe.Kind)
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return exitIOError
	}
	return exitBadInput
}

func exitCodeForKind(kind planerr.Kind) int {
	switch kind {
	case planerr.KindInvalidInput, planerr.KindInfeasibleConstraint:
		return exitBadInput
	case planerr.KindCancelled:
		return exitCancelled
	case planerr.KindNoPathFound, planerr.KindTimeout, planerr.KindSpatialConflict, planerr.KindObstacleSaturation:
		return exitPlanningFailed
	case planerr.KindSerializationError:
		return exitIOError
	default:
		return exitIOError
	}
}
