package astar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reopenFixture(t *testing.T, policy ReopenPolicy) *Stepper {
	t.Helper()
	w, err := NewWeights(3, 3, 1, filled(9, 1), 0)
	require.NoError(t, err)
	costs := DefaultCosts()
	s := newStepper(w, neighborModel(1, costs), Manhattan.Func(1, costs), policy, P2(0, 0), P2(2, 2))

	start := s.ledger.closeBest()
	require.NotNil(t, start)
	// a stale closed entry far costlier than the direct step
	s.ledger.closed[P2(0, 1)] = &searchNode{pos: P2(0, 1), parent: P2(1, 1), g: 100, h: 3, index: -1}

	require.False(t, s.expand(start))
	return s
}

func TestExpand_ReopenNeverKeepsClosedCells(t *testing.T) {
	s := reopenFixture(t, ReopenNever)

	closed, ok := s.ledger.closed[P2(0, 1)]
	require.True(t, ok)
	assert.Equal(t, 100.0, closed.g)
	assert.NotContains(t, s.ledger.open, P2(0, 1))
	assert.Zero(t, s.reopened)

	assert.Contains(t, s.ledger.open, P2(1, 0))
	assert.Contains(t, s.ledger.open, P2(1, 1))
}

func TestExpand_ReopenBetterMovesCellBack(t *testing.T) {
	s := reopenFixture(t, ReopenBetter)

	assert.NotContains(t, s.ledger.closed, P2(0, 1))
	open, ok := s.ledger.open[P2(0, 1)]
	require.True(t, ok)
	assert.Equal(t, 1.0, open.g)
	assert.Equal(t, P2(0, 0), open.parent)
	assert.Equal(t, 1, s.reopened)
}

func TestExpand_SkipsWallsAndEdges(t *testing.T) {
	w, err := NewWeights(2, 2, 1, []float64{1, 1000, 1, 1}, 0)
	require.NoError(t, err)
	costs := DefaultCosts()
	s := newStepper(w, neighborModel(1, costs), Manhattan.Func(1, costs), ReopenNever, P2(0, 0), P2(1, 1))

	s.expand(s.ledger.closeBest())
	assert.NotContains(t, s.ledger.open, P2(0, 1))
	assert.Len(t, s.ledger.open, 2)
}

func TestExpand_CostUsesDestinationWeight(t *testing.T) {
	w, err := NewWeights(2, 2, 1, []float64{9, 3, 5, 7}, 0)
	require.NoError(t, err)
	costs := DefaultCosts()
	s := newStepper(w, neighborModel(1, costs), Manhattan.Func(1, costs), ReopenNever, P2(0, 0), P2(1, 1))

	s.expand(s.ledger.closeBest())
	assert.Equal(t, 3.0, s.ledger.open[P2(0, 1)].g)
	assert.Equal(t, 5.0, s.ledger.open[P2(1, 0)].g)
	assert.InDelta(t, 7*1.4142135623730951, s.ledger.open[P2(1, 1)].g, 1e-12)
}

func TestExpand_KeepsCheaperOpenEntry(t *testing.T) {
	w, err := NewWeights(1, 3, 1, filled(3, 1), 0)
	require.NoError(t, err)
	costs := DefaultCosts()
	s := newStepper(w, neighborModel(1, costs), Manhattan.Func(1, costs), ReopenNever, P2(0, 0), P2(0, 2))
	s.ledger.closeBest()
	s.ledger.offer(P2(0, 1), P2(0, 0), 0.5, 1)

	s.relax(relaxProposal{from: P2(0, 2), to: P2(0, 1), g: 4, h: 1})
	assert.Equal(t, 0.5, s.ledger.open[P2(0, 1)].g)

	s.relax(relaxProposal{from: P2(0, 2), to: P2(0, 1), g: 0.25, h: 1})
	assert.Equal(t, 0.25, s.ledger.open[P2(0, 1)].g)
	assert.Equal(t, P2(0, 2), s.ledger.open[P2(0, 1)].parent)
}
