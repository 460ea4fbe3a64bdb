package store

import (
	"context"
	"time"

	astar "github.com/pdrpinto/gridastar"
)

// SearchRecord is one row of the search history.
type SearchRecord struct {
	ID        int64
	Grid      string
	Start     astar.Point
	End       astar.Point
	Heuristic string
	Status    string
	Cost      *float64 // nil when no path was found
	Expanded  int
	Elapsed   time.Duration
	CreatedAt time.Time
}

// SearchRepo appends to and reads the search history.
type SearchRepo struct {
	db *DB
}

func NewSearchRepo(db *DB) *SearchRepo {
	return &SearchRepo{db: db}
}

// Record stores one finished search.
func (r *SearchRepo) Record(ctx context.Context, rec SearchRecord) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO searches (grid, start_point, end_point, heuristic, status, cost, expanded, elapsed_us)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.Grid, pointArray(rec.Start), pointArray(rec.End), rec.Heuristic, rec.Status,
		rec.Cost, rec.Expanded, rec.Elapsed.Microseconds())
	return err
}

// Recent returns the latest searches on a grid, newest first.
func (r *SearchRepo) Recent(ctx context.Context, grid string, limit int) ([]SearchRecord, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, grid, start_point, end_point, heuristic, status, cost, expanded, elapsed_us, created_at
		 FROM searches WHERE grid = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, grid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SearchRecord
	for rows.Next() {
		var (
			rec        SearchRecord
			start, end []int32
			elapsedUS  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Grid, &start, &end, &rec.Heuristic, &rec.Status,
			&rec.Cost, &rec.Expanded, &elapsedUS, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Start, rec.End = arrayPoint(start), arrayPoint(end)
		rec.Elapsed = time.Duration(elapsedUS) * time.Microsecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

func pointArray(p astar.Point) []int32 {
	return []int32{int32(p.Row), int32(p.Col), int32(p.Layer)}
}

func arrayPoint(a []int32) astar.Point {
	if len(a) != 3 {
		return astar.None
	}
	return astar.P3(int(a[0]), int(a[1]), int(a[2]))
}
