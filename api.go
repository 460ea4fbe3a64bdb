package astar

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Path contains the outcome of a successful search.
type Path struct {
	Points   []Point // start to goal, both inclusive
	Cost     float64 // accumulated cost of the goal
	Expanded int     // nodes closed by the search that produced the path
}

// Len is the number of cells on the path.
func (p Path) Len() int { return len(p.Points) }

// clone returns a copy that does not share the point slice.
func (p Path) clone() Path {
	p.Points = append([]Point(nil), p.Points...)
	return p
}

// Observer receives one call per finished search. Implementations must be
// safe for concurrent use when the engine is shared.
type Observer interface {
	SearchFinished(layers int, heuristic string, status Status, expanded int, elapsed time.Duration)
	CacheLookup(hit bool)
}

// Options defines parameters for the engine.
type Options struct {
	Costs     Costs
	Threshold float64
	Reopen    ReopenPolicy
	Cache     Cache
	Logger    *zap.Logger
	Observer  Observer
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithCosts replaces the move factors of the neighbor model.
func WithCosts(costs Costs) Option {
	return func(options *Options) { options.Costs = costs }
}

// WithThreshold sets the weight at which cells become impassable.
func WithThreshold(threshold float64) Option {
	return func(options *Options) { options.Threshold = threshold }
}

// WithReopen selects how closed cells are treated when reached again.
func WithReopen(policy ReopenPolicy) Option {
	return func(options *Options) { options.Reopen = policy }
}

// WithCache memoizes successful searches by (start, end, heuristic). Entries
// are never invalidated: if the grid changes, build a new engine.
func WithCache(cache Cache) Option {
	return func(options *Options) { options.Cache = cache }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(options *Options) { options.Logger = logger }
}

// WithObserver reports finished searches and cache lookups.
func WithObserver(observer Observer) Option {
	return func(options *Options) { options.Observer = observer }
}

// Engine searches one immutable grid. It is safe for concurrent searches:
// every call owns its ledger and the grid is never written.
type Engine struct {
	weights  *Weights
	costs    Costs
	moves    []move
	reopen   ReopenPolicy
	cache    Cache
	flight   singleflight.Group
	log      *zap.Logger
	observer Observer

	fingerprint uint64

	expansions atomic.Uint64
}

// New builds an engine over a rows x cols grid. weights is row-major and is
// copied.
func New(rows, cols int, weights []float64, options ...Option) (*Engine, error) {
	return New3(rows, cols, 1, weights, options...)
}

// New3 builds an engine over a rows x cols x layers grid. weights is stored
// layer by layer, each layer row-major, and is copied. A grid with a single
// layer uses the planar 8-neighbor model.
func New3(rows, cols, layers int, weights []float64, options ...Option) (*Engine, error) {
	engineOptions := Options{
		Costs:     DefaultCosts(),
		Threshold: DefaultThreshold,
	}
	for _, option := range options {
		option(&engineOptions)
	}
	if err := engineOptions.Costs.validate(); err != nil {
		return nil, err
	}

	field, err := NewWeights(rows, cols, layers, weights, engineOptions.Threshold)
	if err != nil {
		return nil, err
	}

	logger := engineOptions.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		weights:  field,
		costs:    engineOptions.Costs,
		moves:    neighborModel(layers, engineOptions.Costs),
		reopen:   engineOptions.Reopen,
		cache:    engineOptions.Cache,
		log:      logger,
		observer: engineOptions.Observer,
	}
	e.fingerprint = e.configFingerprint()
	return e, nil
}

func (e *Engine) configFingerprint() uint64 {
	d := xxhash.New()
	c := e.costs
	writeWords(d,
		e.weights.Fingerprint(),
		math.Float64bits(c.Linear),
		math.Float64bits(c.Diagonal2),
		math.Float64bits(c.Diagonal3),
		math.Float64bits(c.Up),
		math.Float64bits(c.Down),
		uint64(e.reopen))
	return d.Sum64()
}

func (e *Engine) Rows() int   { return e.weights.Rows() }
func (e *Engine) Cols() int   { return e.weights.Cols() }
func (e *Engine) Layers() int { return e.weights.Layers() }

// Weights exposes the read-only weight field.
func (e *Engine) Weights() *Weights { return e.weights }

// Costs returns the move factors in use.
func (e *Engine) Costs() Costs { return e.costs }

// WeightAt returns the weight of p, or Impassable off the grid.
func (e *Engine) WeightAt(p Point) float64 { return e.weights.At(p) }

// Fingerprint identifies everything that decides a search result: the
// weights, the move costs and the reopen policy. Engines with equal
// fingerprints return equal paths for equal keys, so a cache shared between
// engines must be namespaced by it.
func (e *Engine) Fingerprint() uint64 { return e.fingerprint }

// Expansions counts expansion steps across every search run by this engine.
func (e *Engine) Expansions() uint64 { return e.expansions.Load() }

// Search finds the cheapest path from start to end. Coordinates outside the
// grid are clamped to its edges first. Failures are *SearchError values that
// match ErrUnreachable or ErrExhausted with errors.Is.
func (e *Engine) Search(start, end Point, heuristic Heuristic) (Path, error) {
	start, end = e.weights.Clamp(start), e.weights.Clamp(end)
	if e.cache == nil {
		return e.search(start, end, heuristic.String(), heuristic.Func(e.Layers(), e.costs))
	}

	key := CacheKey{Start: start, End: end, Heuristic: heuristic}
	if path, ok := e.cache.Get(key); ok {
		e.cacheLookup(true)
		return path.clone(), nil
	}
	e.cacheLookup(false)

	v, err, _ := e.flight.Do(key.String(), func() (any, error) {
		if path, ok := e.cache.Get(key); ok {
			return path, nil
		}
		path, err := e.search(start, end, heuristic.String(), heuristic.Func(e.Layers(), e.costs))
		if err != nil {
			return nil, err
		}
		e.cache.Put(key, path.clone())
		return path, nil
	})
	if err != nil {
		return Path{}, err
	}
	return v.(Path).clone(), nil
}

// SearchDefault searches from the first cell of the grid to the last.
func (e *Engine) SearchDefault(heuristic Heuristic) (Path, error) {
	return e.Search(Point{}, Point{Row: e.Rows() - 1, Col: e.Cols() - 1, Layer: e.Layers() - 1}, heuristic)
}

// SearchFunc is Search with a caller-supplied heuristic. Results are never
// cached since the function has no identity to key on.
func (e *Engine) SearchFunc(start, end Point, heuristic HeuristicFunc) (Path, error) {
	if heuristic == nil {
		return Path{}, errors.New("astar: nil heuristic")
	}
	start, end = e.weights.Clamp(start), e.weights.Clamp(end)
	return e.search(start, end, "custom", heuristic)
}

// NewStepper prepares a search that advances one expansion per Step.
func (e *Engine) NewStepper(start, end Point, heuristic Heuristic) *Stepper {
	start, end = e.weights.Clamp(start), e.weights.Clamp(end)
	return e.stepper(start, end, heuristic.Func(e.Layers(), e.costs))
}

func (e *Engine) stepper(start, end Point, heuristic HeuristicFunc) *Stepper {
	s := newStepper(e.weights, e.moves, heuristic, e.reopen, start, end)
	s.onExpand = func() { e.expansions.Add(1) }
	return s
}

func (e *Engine) search(start, end Point, name string, heuristic HeuristicFunc) (Path, error) {
	began := time.Now()
	s := e.stepper(start, end, heuristic)
	path, err := s.Run()
	elapsed := time.Since(began)

	fields := []zap.Field{
		zap.Stringer("start", start),
		zap.Stringer("end", end),
		zap.String("heuristic", name),
		zap.Stringer("status", s.Status()),
		zap.Int("iterations", s.Iterations()),
		zap.Int("cells", e.weights.Len()),
		zap.Duration("elapsed", elapsed),
	}
	if s.reopened > 0 {
		fields = append(fields, zap.Int("reopened", s.reopened))
	}
	if s.Status() == FailedExhausted {
		e.log.Warn("search hit the iteration bound", fields...)
	} else {
		e.log.Debug("search finished", fields...)
	}

	if e.observer != nil {
		e.observer.SearchFinished(e.Layers(), name, s.Status(), s.Iterations(), elapsed)
	}
	if err != nil {
		return Path{}, err
	}
	return path, nil
}

func (e *Engine) cacheLookup(hit bool) {
	if e.observer != nil {
		e.observer.CacheLookup(hit)
	}
}

// String describes the grid, for logs.
func (e *Engine) String() string {
	return fmt.Sprintf("astar.Engine(%dx%dx%d)", e.Rows(), e.Cols(), e.Layers())
}
