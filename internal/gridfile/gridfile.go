// Package gridfile loads weight grids from YAML map files.
//
// A map file either draws each layer as text:
//
//	name: shaft
//	legend: {".": 1, "~": 4, "#": 1000}
//	tiles:
//	  - |
//	    .......
//	    ..~~...
//
// or lists weights explicitly under cells (layers of rows of numbers). Both
// forms accept a walls list of [row, col] or [row, col, layer] cells that are
// forced to the impassable threshold.
package gridfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	astar "github.com/pdrpinto/gridastar"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a map file.
type File struct {
	Name      string             `yaml:"name"`
	Rows      int                `yaml:"rows"`
	Cols      int                `yaml:"cols"`
	Layers    int                `yaml:"layers"`
	Fill      float64            `yaml:"fill"`
	Threshold float64            `yaml:"threshold"`
	Legend    map[string]float64 `yaml:"legend"`
	Tiles     []string           `yaml:"tiles"`
	Cells     [][][]float64      `yaml:"cells"`
	Walls     [][]int            `yaml:"walls"`
}

// Grid is a decoded map, ready to build an engine from.
type Grid struct {
	Name      string
	Rows      int
	Cols      int
	Layers    int
	Threshold float64
	Weights   []float64 // layer by layer, each layer row-major
}

// Index returns the buffer offset of a cell.
func (g *Grid) Index(row, col, layer int) int {
	return (layer*g.Rows+row)*g.Cols + col
}

// Engine builds a search engine over the grid. The file's threshold is
// applied first so that options can override it.
func (g *Grid) Engine(options ...astar.Option) (*astar.Engine, error) {
	opts := make([]astar.Option, 0, len(options)+1)
	opts = append(opts, astar.WithThreshold(g.Threshold))
	opts = append(opts, options...)
	return astar.New3(g.Rows, g.Cols, g.Layers, g.Weights, opts...)
}

// Load reads and decodes one map file. A missing name defaults to the file
// name without extension.
func Load(path string) (*Grid, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grid %s: %w", path, err)
	}
	grid, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse grid %s: %w", path, err)
	}
	if grid.Name == "" {
		grid.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return grid, nil
}

// LoadDir loads every .yaml and .yml file in dir, keyed by grid name.
func LoadDir(dir string) (map[string]*Grid, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read grid dir %s: %w", dir, err)
	}
	grids := make(map[string]*Grid)
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		grid, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := grids[grid.Name]; dup {
			return nil, fmt.Errorf("duplicate grid name %q in %s", grid.Name, dir)
		}
		grids[grid.Name] = grid
	}
	return grids, nil
}

// Parse decodes a map file from memory.
func Parse(raw []byte) (*Grid, error) {
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	return file.Grid()
}

// Grid validates the file and expands it into a dense buffer.
func (f *File) Grid() (*Grid, error) {
	threshold := f.Threshold
	if threshold <= 0 {
		threshold = astar.DefaultThreshold
	}
	fill := f.Fill
	if fill <= 0 {
		fill = astar.MinWeight
	}

	grid := &Grid{Name: f.Name, Threshold: threshold}
	var err error
	switch {
	case len(f.Tiles) > 0 && len(f.Cells) > 0:
		return nil, fmt.Errorf("grid %q sets both tiles and cells", f.Name)
	case len(f.Tiles) > 0:
		err = f.decodeTiles(grid, fill, threshold)
	case len(f.Cells) > 0:
		err = f.decodeCells(grid)
	default:
		err = f.decodeFill(grid, fill)
	}
	if err != nil {
		return nil, err
	}

	for _, wall := range f.Walls {
		if len(wall) != 2 && len(wall) != 3 {
			return nil, fmt.Errorf("wall %v: want [row, col] or [row, col, layer]", wall)
		}
		row, col, layer := wall[0], wall[1], 0
		if len(wall) == 3 {
			layer = wall[2]
		}
		if row < 0 || row >= grid.Rows || col < 0 || col >= grid.Cols || layer < 0 || layer >= grid.Layers {
			return nil, fmt.Errorf("wall %v outside %dx%dx%d grid", wall, grid.Rows, grid.Cols, grid.Layers)
		}
		grid.Weights[grid.Index(row, col, layer)] = threshold
	}
	return grid, nil
}

func (f *File) decodeFill(grid *Grid, fill float64) error {
	grid.Rows, grid.Cols, grid.Layers = f.Rows, f.Cols, f.Layers
	if grid.Layers == 0 {
		grid.Layers = 1
	}
	if grid.Rows <= 0 || grid.Cols <= 0 || grid.Layers <= 0 {
		return fmt.Errorf("grid %q: dimensions %dx%dx%d", f.Name, grid.Rows, grid.Cols, grid.Layers)
	}
	grid.Weights = make([]float64, grid.Rows*grid.Cols*grid.Layers)
	for i := range grid.Weights {
		grid.Weights[i] = fill
	}
	return nil
}

func (f *File) decodeCells(grid *Grid) error {
	grid.Layers = len(f.Cells)
	grid.Rows = len(f.Cells[0])
	if grid.Rows == 0 {
		return fmt.Errorf("grid %q: empty first layer", f.Name)
	}
	grid.Cols = len(f.Cells[0][0])
	if err := f.checkDims(grid); err != nil {
		return err
	}
	grid.Weights = make([]float64, 0, grid.Rows*grid.Cols*grid.Layers)
	for l, layer := range f.Cells {
		if len(layer) != grid.Rows {
			return fmt.Errorf("grid %q: layer %d has %d rows, want %d", f.Name, l, len(layer), grid.Rows)
		}
		for r, row := range layer {
			if len(row) != grid.Cols {
				return fmt.Errorf("grid %q: layer %d row %d has %d cells, want %d", f.Name, l, r, len(row), grid.Cols)
			}
			grid.Weights = append(grid.Weights, row...)
		}
	}
	return nil
}

func (f *File) decodeTiles(grid *Grid, fill, threshold float64) error {
	legend := map[rune]float64{'.': fill, '#': threshold}
	for symbol, weight := range f.Legend {
		runes := []rune(symbol)
		if len(runes) != 1 {
			return fmt.Errorf("grid %q: legend key %q must be one character", f.Name, symbol)
		}
		legend[runes[0]] = weight
	}

	layers := make([][]string, len(f.Tiles))
	for l, text := range f.Tiles {
		layers[l] = tileLines(text)
	}
	grid.Layers = len(layers)
	grid.Rows = len(layers[0])
	if grid.Rows == 0 {
		return fmt.Errorf("grid %q: empty first layer", f.Name)
	}
	grid.Cols = len([]rune(layers[0][0]))
	if err := f.checkDims(grid); err != nil {
		return err
	}

	grid.Weights = make([]float64, 0, grid.Rows*grid.Cols*grid.Layers)
	for l, lines := range layers {
		if len(lines) != grid.Rows {
			return fmt.Errorf("grid %q: layer %d has %d rows, want %d", f.Name, l, len(lines), grid.Rows)
		}
		for r, line := range lines {
			runes := []rune(line)
			if len(runes) != grid.Cols {
				return fmt.Errorf("grid %q: layer %d row %d has %d tiles, want %d", f.Name, l, r, len(runes), grid.Cols)
			}
			for c, symbol := range runes {
				weight, ok := legend[symbol]
				if !ok {
					return fmt.Errorf("grid %q: unknown tile %q at (%d,%d,%d)", f.Name, symbol, r, c, l)
				}
				grid.Weights = append(grid.Weights, weight)
			}
		}
	}
	return nil
}

// checkDims compares decoded dimensions with any declared in the file.
func (f *File) checkDims(grid *Grid) error {
	for _, d := range []struct {
		name          string
		declared, got int
	}{
		{"rows", f.Rows, grid.Rows},
		{"cols", f.Cols, grid.Cols},
		{"layers", f.Layers, grid.Layers},
	} {
		if d.declared != 0 && d.declared != d.got {
			return fmt.Errorf("grid %q: declares %d %s, data has %d", f.Name, d.declared, d.name, d.got)
		}
	}
	if grid.Cols == 0 {
		return fmt.Errorf("grid %q: empty first row", f.Name)
	}
	return nil
}

// tileLines splits a layer drawing into rows, skipping blank lines and
// lines starting with '#' followed by a space (comments).
func tileLines(text string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "# ") {
			continue
		}
		lines = append(lines, strings.TrimLeft(line, " \t"))
	}
	return lines
}

// Names returns the grid names in a map, sorted.
func Names(grids map[string]*Grid) []string {
	names := make([]string, 0, len(grids))
	for name := range grids {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
