package astar

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultThreshold is the weight at and above which a cell is a wall.
	DefaultThreshold = 1000.0

	// MinWeight is the smallest weight a real cell is expected to carry.
	MinWeight = 1.0
)

// Impassable is returned for reads outside the grid.
var Impassable = math.Inf(1)

// Weights is an immutable dense grid of traversal weights, stored layer by
// layer, each layer row-major.
type Weights struct {
	rows      int
	cols      int
	layers    int
	threshold float64
	cells     []float64
}

// NewWeights copies cells into a new weight field. The buffer length must be
// rows*cols*layers and every weight must be a non-negative number. A
// threshold <= 0 selects DefaultThreshold.
func NewWeights(rows, cols, layers int, cells []float64, threshold float64) (*Weights, error) {
	if rows <= 0 || cols <= 0 || layers <= 0 {
		return nil, fmt.Errorf("dimensions %dx%dx%d: %w", rows, cols, layers, ErrConstruction)
	}
	if cells == nil {
		return nil, fmt.Errorf("nil weight buffer: %w", ErrConstruction)
	}
	if n := rows * cols * layers; len(cells) != n {
		return nil, fmt.Errorf("weight buffer has %d cells, want %d: %w", len(cells), n, ErrConstruction)
	}
	for i, w := range cells {
		if math.IsNaN(w) || w < 0 {
			return nil, fmt.Errorf("cell %d has weight %v: %w", i, w, ErrConstruction)
		}
	}
	if threshold <= 0 || math.IsNaN(threshold) {
		threshold = DefaultThreshold
	}

	buf := make([]float64, len(cells))
	copy(buf, cells)
	return &Weights{rows: rows, cols: cols, layers: layers, threshold: threshold, cells: buf}, nil
}

func (w *Weights) Rows() int   { return w.rows }
func (w *Weights) Cols() int   { return w.cols }
func (w *Weights) Layers() int { return w.layers }

// Len is the number of cells in the grid.
func (w *Weights) Len() int { return len(w.cells) }

// Threshold is the weight at which cells become impassable.
func (w *Weights) Threshold() float64 { return w.threshold }

// Contains reports whether p lies inside the grid.
func (w *Weights) Contains(p Point) bool {
	return p.Row >= 0 && p.Row < w.rows &&
		p.Col >= 0 && p.Col < w.cols &&
		p.Layer >= 0 && p.Layer < w.layers
}

// Index returns the buffer offset of p, or -1 when p is off the grid.
func (w *Weights) Index(p Point) int {
	if !w.Contains(p) {
		return -1
	}
	return (p.Layer*w.rows+p.Row)*w.cols + p.Col
}

// At returns the weight of p, or Impassable when p is off the grid.
func (w *Weights) At(p Point) float64 {
	i := w.Index(p)
	if i < 0 {
		return Impassable
	}
	return w.cells[i]
}

// Passable reports whether p is on the grid and below the threshold.
func (w *Weights) Passable(p Point) bool {
	return w.At(p) < w.threshold
}

// Clamp pulls every coordinate of p into [0, dim-1].
func (w *Weights) Clamp(p Point) Point {
	return Point{
		Row:   clamp(p.Row, w.rows),
		Col:   clamp(p.Col, w.cols),
		Layer: clamp(p.Layer, w.layers),
	}
}

// Values returns a copy of the weight buffer.
func (w *Weights) Values() []float64 {
	out := make([]float64, len(w.cells))
	copy(out, w.cells)
	return out
}

// Layer returns a copy of one layer as rows of weights.
func (w *Weights) Layer(layer int) [][]float64 {
	if layer < 0 || layer >= w.layers {
		return nil
	}
	out := make([][]float64, w.rows)
	for r := range out {
		start := (layer*w.rows + r) * w.cols
		out[r] = append([]float64(nil), w.cells[start:start+w.cols]...)
	}
	return out
}

// Fingerprint hashes the dimensions, threshold and buffer. Two fields with
// the same fingerprint hold the same cells under the same threshold. Search
// results also depend on the move costs, see Engine.Fingerprint.
func (w *Weights) Fingerprint() uint64 {
	d := xxhash.New()
	writeWords(d, uint64(w.rows), uint64(w.cols), uint64(w.layers), math.Float64bits(w.threshold))
	for _, c := range w.cells {
		writeWords(d, math.Float64bits(c))
	}
	return d.Sum64()
}

func writeWords(d *xxhash.Digest, words ...uint64) {
	var buf [8]byte
	for _, v := range words {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
}

func clamp(v, size int) int {
	if v < 0 {
		return 0
	}
	if v >= size {
		return size - 1
	}
	return v
}
