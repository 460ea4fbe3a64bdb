package astar

import (
	"errors"
	"fmt"
)

var (
	// ErrConstruction is returned when an engine or weight field cannot be built
	// from the supplied dimensions and buffer.
	ErrConstruction = errors.New("invalid grid")

	// ErrUnreachable means the start or goal is impassable, or the frontier
	// ran dry before the goal was reached.
	ErrUnreachable = errors.New("no path found")

	// ErrExhausted means the search ran more iterations than the grid has
	// cells. A correct engine closes each cell at most once, so this points at
	// a defect rather than at the map.
	ErrExhausted = errors.New("iteration bound exceeded")
)

// SearchError describes a search that ended without a path.
type SearchError struct {
	Status   Status
	Start    Point
	End      Point
	Expanded int
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("astar: %s from %s to %s after %d expansions", e.Unwrap(), e.Start, e.End, e.Expanded)
}

// Unwrap maps the terminal status onto ErrUnreachable or ErrExhausted.
func (e *SearchError) Unwrap() error {
	if e.Status == FailedExhausted {
		return ErrExhausted
	}
	return ErrUnreachable
}
