package astar

import (
	"fmt"
	"math"
)

// Costs holds the move factors of the neighbor model. The cost of a move is
// its factor times the weight of the destination cell.
type Costs struct {
	Linear    float64 // one axis
	Diagonal2 float64 // two axes
	Diagonal3 float64 // three axes, 3D only
	Up        float64 // multiplier for moves to a higher layer
	Down      float64 // multiplier for moves to a lower layer
}

// DefaultCosts returns unit orthogonal moves, exact diagonals, and climbing
// four times as expensive as descending.
func DefaultCosts() Costs {
	return Costs{
		Linear:    1.0,
		Diagonal2: math.Sqrt2,
		Diagonal3: math.Sqrt(3),
		Up:        2.0,
		Down:      0.5,
	}
}

func (c Costs) validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"linear", c.Linear}, {"diagonal2", c.Diagonal2}, {"diagonal3", c.Diagonal3},
		{"up", c.Up}, {"down", c.Down},
	} {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return fmt.Errorf("cost factor %s = %v: %w", f.name, f.v, ErrConstruction)
		}
	}
	return nil
}

// factor returns the move factor for an offset.
func (c Costs) factor(d Point) float64 {
	axes := 0
	for _, v := range [3]int{d.Row, d.Col, d.Layer} {
		if v != 0 {
			axes++
		}
	}
	var f float64
	switch axes {
	case 1:
		f = c.Linear
	case 2:
		f = c.Diagonal2
	default:
		f = c.Diagonal3
	}
	switch {
	case d.Layer > 0:
		f *= c.Up
	case d.Layer < 0:
		f *= c.Down
	}
	return f
}

// planarOffsets are the 8 moves within a layer: diagonals first, then
// orthogonals. The order only matters for tie-breaking.
var planarOffsets = [8]Point{
	{-1, -1, 0}, {1, -1, 0}, {-1, 1, 0}, {1, 1, 0},
	{0, -1, 0}, {-1, 0, 0}, {0, 1, 0}, {1, 0, 0},
}

// volumeOffsets are the 26 moves of a 3D grid: the layer below, the current
// layer, then the layer above.
var volumeOffsets = [26]Point{
	{-1, -1, -1}, {1, -1, -1}, {-1, 1, -1}, {1, 1, -1},
	{0, 0, -1}, {0, -1, -1}, {-1, 0, -1}, {0, 1, -1}, {1, 0, -1},

	{-1, -1, 0}, {1, -1, 0}, {-1, 1, 0}, {1, 1, 0},
	{0, -1, 0}, {-1, 0, 0}, {0, 1, 0}, {1, 0, 0},

	{-1, -1, 1}, {1, -1, 1}, {-1, 1, 1}, {1, 1, 1},
	{0, 0, 1}, {0, -1, 1}, {-1, 0, 1}, {0, 1, 1}, {1, 0, 1},
}

// move is an offset with its precomputed factor.
type move struct {
	offset Point
	factor float64
}

// neighborModel picks the offset table for the grid's dimensionality and
// prices every offset once.
func neighborModel(layers int, costs Costs) []move {
	var offsets []Point
	if layers > 1 {
		offsets = volumeOffsets[:]
	} else {
		offsets = planarOffsets[:]
	}
	moves := make([]move, len(offsets))
	for i, o := range offsets {
		moves[i] = move{offset: o, factor: costs.factor(o)}
	}
	return moves
}
