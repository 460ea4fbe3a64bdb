// Package astar provides an A* pathfinding engine for weighted 2D and 3D grids.
//
// It exposes two main entry points:
//
//   - Engine.Search: run the algorithm to completion and get a Path.
//   - Stepper: iterate the search one expansion at a time to drive UIs or debugging tools.
//
// A grid is a dense buffer of per-cell traversal weights. Moving into a cell
// costs the move's factor (orthogonal, diagonal, or cross-layer, see Costs)
// times the destination weight. Cells whose weight reaches the engine's
// threshold, and every cell outside the grid, are impassable.
//
// One engine handles both dimensionalities: a 2D grid is a grid with a single
// layer and an 8-neighbor model, a 3D grid uses all 26 neighbors.
package astar
