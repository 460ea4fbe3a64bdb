package astar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeighborModel_Planar(t *testing.T) {
	moves := neighborModel(1, DefaultCosts())
	require.Len(t, moves, 8)

	var linear, diagonal int
	for _, m := range moves {
		assert.Zero(t, m.offset.Layer)
		switch m.factor {
		case 1:
			linear++
		case math.Sqrt2:
			diagonal++
		default:
			t.Errorf("unexpected factor %v for %v", m.factor, m.offset)
		}
	}
	assert.Equal(t, 4, linear)
	assert.Equal(t, 4, diagonal)
}

func TestNeighborModel_Volume(t *testing.T) {
	costs := DefaultCosts()
	moves := neighborModel(3, costs)
	require.Len(t, moves, 26)

	seen := make(map[Point]bool)
	for _, m := range moves {
		assert.False(t, seen[m.offset], "duplicate offset %v", m.offset)
		assert.NotEqual(t, Point{}, m.offset)
		seen[m.offset] = true
	}

	byOffset := make(map[Point]float64)
	for _, m := range moves {
		byOffset[m.offset] = m.factor
	}
	sqrt3 := math.Sqrt(3)
	tests := []struct {
		offset Point
		want   float64
	}{
		{P3(0, 1, 0), 1},
		{P3(1, 1, 0), math.Sqrt2},
		{P3(0, 0, 1), 2},
		{P3(0, 0, -1), 0.5},
		{P3(1, 0, 1), math.Sqrt2 * 2},
		{P3(0, -1, -1), math.Sqrt2 * 0.5},
		{P3(1, 1, 1), sqrt3 * 2},
		{P3(-1, 1, -1), sqrt3 * 0.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, byOffset[tt.offset], 1e-12, "offset %v", tt.offset)
	}
}

func TestCosts_Validate(t *testing.T) {
	require.NoError(t, DefaultCosts().validate())

	bad := DefaultCosts()
	bad.Up = 0
	assert.ErrorIs(t, bad.validate(), ErrConstruction)

	bad = DefaultCosts()
	bad.Diagonal3 = math.NaN()
	assert.ErrorIs(t, bad.validate(), ErrConstruction)

	bad = DefaultCosts()
	bad.Linear = math.Inf(1)
	assert.ErrorIs(t, bad.validate(), ErrConstruction)
}
