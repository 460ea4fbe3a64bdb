package astar

import "fmt"

// Point is a grid cell. 2D grids only use Row and Col; Layer stays zero.
type Point struct {
	Row   int
	Col   int
	Layer int
}

// None marks the missing parent of the start node.
var None = Point{Row: -1, Col: -1, Layer: -1}

// P2 returns a point on layer 0.
func P2(row, col int) Point { return Point{Row: row, Col: col} }

// P3 returns a point on the given layer.
func P3(row, col, layer int) Point { return Point{Row: row, Col: col, Layer: layer} }

// Add returns the point shifted by o.
func (p Point) Add(o Point) Point {
	return Point{Row: p.Row + o.Row, Col: p.Col + o.Col, Layer: p.Layer + o.Layer}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.Row, p.Col, p.Layer)
}
