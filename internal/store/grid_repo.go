package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	astar "github.com/pdrpinto/gridastar"
	"github.com/pdrpinto/gridastar/internal/gridfile"
)

// ErrNotFound is returned when a named grid does not exist.
var ErrNotFound = errors.New("grid not found")

// GridSummary is a grids row without its weights.
type GridSummary struct {
	Name        string
	Rows        int
	Cols        int
	Layers      int
	Fingerprint string
}

// GridRepo handles all grid-related database operations.
type GridRepo struct {
	db *DB
}

func NewGridRepo(db *DB) *GridRepo {
	return &GridRepo{db: db}
}

// Save inserts or replaces a grid. The weights are validated first so that
// nothing unloadable reaches the table.
func (r *GridRepo) Save(ctx context.Context, g *gridfile.Grid) error {
	w, err := astar.NewWeights(g.Rows, g.Cols, g.Layers, g.Weights, g.Threshold)
	if err != nil {
		return fmt.Errorf("save grid %s: %w", g.Name, err)
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO grids (name, rows, cols, layers, threshold, weights, fingerprint, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		 ON CONFLICT (name) DO UPDATE SET
		     rows = EXCLUDED.rows, cols = EXCLUDED.cols, layers = EXCLUDED.layers,
		     threshold = EXCLUDED.threshold, weights = EXCLUDED.weights,
		     fingerprint = EXCLUDED.fingerprint, updated_at = now()`,
		g.Name, g.Rows, g.Cols, g.Layers, w.Threshold(), g.Weights, fingerprint(w))
	if err != nil {
		return fmt.Errorf("save grid %s: %w", g.Name, err)
	}
	return nil
}

// Load reads one grid by name.
func (r *GridRepo) Load(ctx context.Context, name string) (*gridfile.Grid, error) {
	g := &gridfile.Grid{Name: name}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT rows, cols, layers, threshold, weights FROM grids WHERE name = $1`, name,
	).Scan(&g.Rows, &g.Cols, &g.Layers, &g.Threshold, &g.Weights)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load grid %s: %w", name, err)
	}
	return g, nil
}

// LoadAll reads every stored grid, keyed by name.
func (r *GridRepo) LoadAll(ctx context.Context) (map[string]*gridfile.Grid, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT name, rows, cols, layers, threshold, weights FROM grids ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grids := make(map[string]*gridfile.Grid)
	for rows.Next() {
		g := &gridfile.Grid{}
		if err := rows.Scan(&g.Name, &g.Rows, &g.Cols, &g.Layers, &g.Threshold, &g.Weights); err != nil {
			return nil, err
		}
		grids[g.Name] = g
	}
	return grids, rows.Err()
}

// List returns the stored grids without their weights.
func (r *GridRepo) List(ctx context.Context) ([]GridSummary, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT name, rows, cols, layers, fingerprint FROM grids ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GridSummary
	for rows.Next() {
		var s GridSummary
		if err := rows.Scan(&s.Name, &s.Rows, &s.Cols, &s.Layers, &s.Fingerprint); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a grid. Deleting a missing grid returns ErrNotFound.
func (r *GridRepo) Delete(ctx context.Context, name string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM grids WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete grid %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

func fingerprint(w *astar.Weights) string {
	return fmt.Sprintf("%016x", w.Fingerprint())
}
