package astar

// ReopenPolicy decides what happens when a closed cell is reached again
// with a lower total cost.
type ReopenPolicy int

const (
	// ReopenNever keeps closed cells final. With a consistent heuristic this
	// is still optimal, and it is what bounds a search by the cell count.
	ReopenNever ReopenPolicy = iota

	// ReopenBetter moves a closed cell back into the open set when a strictly
	// cheaper total cost is found. It can recover better paths under
	// inconsistent heuristics, at the price of extra iterations.
	ReopenBetter
)

func (p ReopenPolicy) String() string {
	if p == ReopenBetter {
		return "better"
	}
	return "never"
}

// relaxProposal is a candidate edge produced while expanding a node.
type relaxProposal struct {
	from Point
	to   Point
	g    float64
	h    float64
}

// expand relaxes every neighbor of current. It reports true, and touches
// nothing, when current is the goal.
func (s *Stepper) expand(current *searchNode) bool {
	if s.onExpand != nil {
		s.onExpand()
	}
	if current.pos == s.goal {
		return true
	}

	threshold := s.weights.Threshold()
	for _, m := range s.moves {
		next := current.pos.Add(m.offset)
		if !s.weights.Contains(next) {
			continue
		}
		closed, isClosed := s.ledger.closed[next]
		if isClosed && s.reopen == ReopenNever {
			continue
		}
		weight := s.weights.At(next)
		if weight >= threshold {
			continue
		}

		proposal := relaxProposal{
			from: current.pos,
			to:   next,
			g:    current.g + m.factor*weight,
			h:    s.heuristic(next, s.goal),
		}
		if isClosed {
			if proposal.g+proposal.h >= closed.f() {
				continue
			}
			s.ledger.reopen(next)
			s.reopened++
		}
		s.relax(proposal)
	}
	return false
}

// relax records proposal unless the cell is already open at a total cost
// that is at least as good.
func (s *Stepper) relax(proposal relaxProposal) {
	if item, inOpen := s.ledger.open[proposal.to]; inOpen && item.f() <= proposal.g+proposal.h {
		return
	}
	s.ledger.offer(proposal.to, proposal.from, proposal.g, proposal.h)
}
