package astar

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/pdrpinto/gridastar/internal"
)

// Status is the state of a search.
type Status int

const (
	Running Status = iota
	Succeeded
	FailedUnreachable
	FailedExhausted
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case FailedUnreachable:
		return "unreachable"
	case FailedExhausted:
		return "exhausted"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Done reports whether the search reached a terminal state.
func (s Status) Done() bool { return s != Running }

// StepSnapshot exposes the per-iteration state of the search. Open and
// Closed are sorted by layer, row, then column.
type StepSnapshot struct {
	Current   Point
	Open      []Point
	Closed    []Point
	Status    Status
	Path      []Point
	Cost      float64
	StepIndex int
}

// Stepper drives one search an expansion at a time. Engine.Search runs a
// Stepper to completion; UIs and debuggers call Step directly. A Stepper is
// not safe for concurrent use.
type Stepper struct {
	weights   *Weights
	moves     []move
	heuristic HeuristicFunc
	reopen    ReopenPolicy
	onExpand  func()

	start  Point
	goal   Point
	ledger *ledger

	status     Status
	current    Point
	iterations int
	reopened   int
	limit      int
}

func newStepper(w *Weights, moves []move, heuristic HeuristicFunc, reopen ReopenPolicy, start, goal Point) *Stepper {
	s := &Stepper{
		weights:   w,
		moves:     moves,
		heuristic: heuristic,
		reopen:    reopen,
		start:     start,
		goal:      goal,
		current:   None,
		limit:     w.Len(),
		ledger:    newLedger(w.Len()),
	}
	if !w.Passable(start) || !w.Passable(goal) {
		s.status = FailedUnreachable
		return s
	}
	s.ledger.offer(start, None, 0, heuristic(start, goal))
	return s
}

// Start and Goal return the endpoints after clamping.
func (s *Stepper) Start() Point { return s.start }
func (s *Stepper) Goal() Point  { return s.goal }

// Status returns the current state.
func (s *Stepper) Status() Status { return s.status }

// Iterations is the number of nodes closed so far.
func (s *Stepper) Iterations() int { return s.iterations }

// Step closes the open node with the lowest total cost and expands it.
// Ties go to the node that entered the open set first. Calling Step on a
// finished search is a no-op.
func (s *Stepper) Step() Status {
	if s.status.Done() {
		return s.status
	}
	if s.ledger.openLen() == 0 {
		s.status = FailedUnreachable
		return s.status
	}
	if s.iterations >= s.limit {
		s.status = FailedExhausted
		return s.status
	}

	s.iterations++
	current := s.ledger.closeBest()
	s.current = current.pos
	if s.expand(current) {
		s.status = Succeeded
	}
	return s.status
}

// Run steps until the search finishes and returns its result.
func (s *Stepper) Run() (Path, error) {
	for !s.Step().Done() {
	}
	return s.Result()
}

// Result returns the path of a successful search, or a *SearchError. While
// the search is still running it returns ErrUnreachable wrapped in a
// SearchError with Status Running.
func (s *Stepper) Result() (Path, error) {
	if s.status != Succeeded {
		return Path{}, &SearchError{Status: s.status, Start: s.start, End: s.goal, Expanded: s.iterations}
	}
	points, ok := internal.ReconstructPath(s.ledger.parentOf, s.goal, s.limit)
	if !ok {
		s.status = FailedExhausted
		return Path{}, &SearchError{Status: s.status, Start: s.start, End: s.goal, Expanded: s.iterations}
	}
	return Path{
		Points:   points,
		Cost:     s.ledger.closed[s.goal].g,
		Expanded: s.iterations,
	}, nil
}

// Snapshot copies the current open and closed sets.
func (s *Stepper) Snapshot() StepSnapshot {
	snap := StepSnapshot{
		Current:   s.current,
		Open:      sortedKeys(s.ledger.open),
		Closed:    sortedKeys(s.ledger.closed),
		Status:    s.status,
		StepIndex: s.iterations,
	}
	if s.status == Succeeded {
		if path, err := s.Result(); err == nil {
			snap.Path = path.Points
			snap.Cost = path.Cost
		}
	}
	return snap
}

func sortedKeys(m map[Point]*searchNode) []Point {
	out := make([]Point, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Point) int {
		if c := cmp.Compare(a.Layer, b.Layer); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Row, b.Row); c != 0 {
			return c
		}
		return cmp.Compare(a.Col, b.Col)
	})
	return out
}
