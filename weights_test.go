package astar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled(n int, v float64) []float64 {
	cells := make([]float64, n)
	for i := range cells {
		cells[i] = v
	}
	return cells
}

func TestNewWeights_Validation(t *testing.T) {
	tests := []struct {
		name               string
		rows, cols, layers int
		cells               []float64
	}{
		{"zero rows", 0, 3, 1, filled(0, 1)},
		{"negative cols", 3, -1, 1, filled(3, 1)},
		{"zero layers", 2, 2, 0, filled(4, 1)},
		{"nil buffer", 2, 2, 1, nil},
		{"short buffer", 2, 2, 1, filled(3, 1)},
		{"long buffer", 2, 2, 2, filled(9, 1)},
		{"nan weight", 1, 2, 1, []float64{1, math.NaN()}},
		{"negative weight", 1, 2, 1, []float64{1, -0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWeights(tt.rows, tt.cols, tt.layers, tt.cells, 0)
			require.ErrorIs(t, err, ErrConstruction)
		})
	}
}

func TestWeights_CopiesInput(t *testing.T) {
	cells := []float64{1, 2, 3, 4}
	w, err := NewWeights(2, 2, 1, cells, 0)
	require.NoError(t, err)

	cells[0] = 99
	assert.Equal(t, 1.0, w.At(P2(0, 0)))

	values := w.Values()
	values[1] = 99
	assert.Equal(t, 2.0, w.At(P2(0, 1)))
}

func TestWeights_Access(t *testing.T) {
	// 2 layers of 2x3, layer-major then row-major
	cells := []float64{
		1, 2, 3,
		4, 5, 1000,

		7, 8, 9,
		10, 11, 12,
	}
	w, err := NewWeights(2, 3, 2, cells, 0)
	require.NoError(t, err)

	assert.Equal(t, 12, w.Len())
	assert.Equal(t, DefaultThreshold, w.Threshold())
	assert.Equal(t, 5.0, w.At(P3(1, 1, 0)))
	assert.Equal(t, 8.0, w.At(P3(0, 1, 1)))
	assert.Equal(t, 10.0, w.At(P3(1, 0, 1)))
	assert.Equal(t, 9, w.Index(P3(1, 0, 1)))

	for _, off := range []Point{P3(-1, 0, 0), P3(0, 3, 0), P3(2, 0, 0), P3(0, 0, 2), P3(0, 0, -1)} {
		assert.True(t, math.IsInf(w.At(off), 1), "%v should read as impassable", off)
		assert.False(t, w.Passable(off))
		assert.Equal(t, -1, w.Index(off))
	}

	assert.True(t, w.Passable(P3(1, 1, 0)))
	assert.False(t, w.Passable(P3(1, 2, 0)), "weight at threshold is a wall")

	assert.Equal(t, [][]float64{{7, 8, 9}, {10, 11, 12}}, w.Layer(1))
	assert.Nil(t, w.Layer(2))
}

func TestWeights_CustomThreshold(t *testing.T) {
	w, err := NewWeights(1, 3, 1, []float64{1, 5, 10}, 5)
	require.NoError(t, err)
	assert.True(t, w.Passable(P2(0, 0)))
	assert.False(t, w.Passable(P2(0, 1)))
	assert.False(t, w.Passable(P2(0, 2)))
}

func TestWeights_Clamp(t *testing.T) {
	w, err := NewWeights(4, 5, 3, filled(60, 1), 0)
	require.NoError(t, err)

	assert.Equal(t, P3(0, 0, 0), w.Clamp(P3(-7, -1, -3)))
	assert.Equal(t, P3(3, 4, 2), w.Clamp(P3(40, 5, 9)))
	assert.Equal(t, P3(2, 4, 0), w.Clamp(P3(2, 100, -1)))
}

func TestWeights_Fingerprint(t *testing.T) {
	a, err := NewWeights(2, 2, 1, []float64{1, 2, 3, 4}, 0)
	require.NoError(t, err)
	b, err := NewWeights(2, 2, 1, []float64{1, 2, 3, 4}, 0)
	require.NoError(t, err)
	c, err := NewWeights(2, 2, 1, []float64{1, 2, 3, 5}, 0)
	require.NoError(t, err)
	d, err := NewWeights(1, 4, 1, []float64{1, 2, 3, 4}, 0)
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())
}
