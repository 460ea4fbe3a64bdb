package astar

import (
	"fmt"
	"math"
	"strings"
)

// HeuristicFunc returns the estimated cost from node a to node b. It must be
// pure and never negative.
type HeuristicFunc func(a, b Point) float64

// Heuristic selects one of the built-in estimates. The numeric values are
// stable and may be stored or sent over the wire.
type Heuristic int

const (
	Manhattan        Heuristic = iota // sum of axis deltas
	ManhattanMin                      // smallest axis delta
	ManhattanMax                      // largest axis delta (Chebyshev)
	EuclideanSquared                  // squared straight-line distance
	Euclidean                         // straight-line distance
	Diagonal                          // octile distance over the two largest deltas
)

var heuristicNames = [...]string{
	Manhattan:        "manhattan",
	ManhattanMin:     "manhattan_min",
	ManhattanMax:     "manhattan_max",
	EuclideanSquared: "euclidean_sqr",
	Euclidean:        "euclidean",
	Diagonal:         "diagonal",
}

func (h Heuristic) String() string {
	if h < 0 || int(h) >= len(heuristicNames) {
		return fmt.Sprintf("heuristic(%d)", int(h))
	}
	return heuristicNames[h]
}

// ParseHeuristic accepts the names produced by String, case-insensitively.
func ParseHeuristic(name string) (Heuristic, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range heuristicNames {
		if n == name {
			return Heuristic(i), nil
		}
	}
	return Manhattan, fmt.Errorf("unknown heuristic %q", name)
}

// Func resolves the selector into an estimate for a grid with the given
// number of layers. Unknown selectors fall back to Manhattan. On a planar
// grid the layer axis does not exist, so ManhattanMin is the smaller of the
// row and column deltas. Diagonal reads its move constants from costs so
// that it tracks the engine's neighbor model.
func (h Heuristic) Func(layers int, costs Costs) HeuristicFunc {
	switch h {
	case ManhattanMin:
		if layers <= 1 {
			return manhattanMinPlanar
		}
		return manhattanMin
	case ManhattanMax:
		return manhattanMax
	case EuclideanSquared:
		return euclideanSquared
	case Euclidean:
		return euclidean
	case Diagonal:
		linear, diagonal := costs.Linear, costs.Diagonal2
		return func(a, b Point) float64 {
			return diagonalDistance(a, b, linear, diagonal)
		}
	default:
		return manhattan
	}
}

func deltas(a, b Point) (dr, dc, dl float64) {
	return math.Abs(float64(a.Row - b.Row)), math.Abs(float64(a.Col - b.Col)), math.Abs(float64(a.Layer - b.Layer))
}

func manhattan(a, b Point) float64 {
	dr, dc, dl := deltas(a, b)
	return dr + dc + dl
}

func manhattanMin(a, b Point) float64 {
	dr, dc, dl := deltas(a, b)
	return math.Min(math.Min(dr, dc), dl)
}

func manhattanMinPlanar(a, b Point) float64 {
	dr, dc, _ := deltas(a, b)
	return math.Min(dr, dc)
}

func manhattanMax(a, b Point) float64 {
	dr, dc, dl := deltas(a, b)
	return math.Max(math.Max(dr, dc), dl)
}

func euclideanSquared(a, b Point) float64 {
	dr, dc, dl := deltas(a, b)
	return dr*dr + dc*dc + dl*dl
}

func euclidean(a, b Point) float64 {
	return math.Sqrt(euclideanSquared(a, b))
}

// diagonalDistance applies the planar octile formula to the two largest
// deltas. On a 2D grid the layer delta is zero, which leaves the classic
// linear*(dx+dy) + (diagonal-2*linear)*min(dx,dy).
func diagonalDistance(a, b Point, linear, diagonal float64) float64 {
	dr, dc, dl := deltas(a, b)
	hi, mid := dr, dc
	if mid > hi {
		hi, mid = mid, hi
	}
	if dl > hi {
		hi, mid = dl, hi
	} else if dl > mid {
		mid = dl
	}
	return linear*(hi+mid) + (diagonal-2*linear)*mid
}
