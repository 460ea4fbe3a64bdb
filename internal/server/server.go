// Package server exposes grids over HTTP: one-shot searches, a step-through
// debugger driven by astar.Stepper, and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	astar "github.com/pdrpinto/gridastar"
	"github.com/pdrpinto/gridastar/internal/config"
	"github.com/pdrpinto/gridastar/internal/gridfile"
	"github.com/pdrpinto/gridastar/internal/metrics"
	"github.com/pdrpinto/gridastar/internal/store"
)

// History receives one record per search served. store.SearchRepo
// implements it.
type History interface {
	Record(ctx context.Context, rec store.SearchRecord) error
}

// Config contains all dependencies needed to construct a Server.
type Config struct {
	// Grids are served under their names (required).
	Grids map[string]*gridfile.Grid

	// EngineOptions apply to every grid's engine.
	EngineOptions []astar.Option

	// CacheFor returns the path cache for engines configured like the one
	// given, or nil for no cache. If CacheFor itself is nil each engine gets
	// an astar.MemoryCache.
	CacheFor func(*astar.Engine) astar.Cache

	// Heuristic is used when a request names none.
	Heuristic astar.Heuristic

	// Metrics is optional; when set engines report to it and /metrics is
	// served.
	Metrics *metrics.Metrics

	// History is optional.
	History History

	Logger *zap.Logger

	// RateLimit caps API requests per second per client address. Zero
	// disables limiting; RateBurst defaults to 1.
	RateLimit float64
	RateBurst int

	// DisableLogging drops the per-request log line (useful for benchmarks).
	DisableLogging bool
}

type gridEntry struct {
	grid   *gridfile.Grid
	engine *astar.Engine
}

// session is one step-through search. The stepper is not safe for
// concurrent use, so every access holds mu.
type session struct {
	id      string
	mu      sync.Mutex
	stepper *astar.Stepper
	started time.Time
}

// Server owns one engine per grid and the open stepper sessions.
type Server struct {
	grids     map[string]*gridEntry
	heuristic astar.Heuristic
	metrics   *metrics.Metrics
	history   History
	log       *zap.Logger
	quiet     bool
	limiter   *ipLimiter

	mu       sync.Mutex
	sessions map[string]*session
}

// New builds an engine for every grid.
func New(cfg Config) (*Server, error) {
	if len(cfg.Grids) == 0 {
		return nil, errors.New("server: no grids to serve")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		grids:     make(map[string]*gridEntry, len(cfg.Grids)),
		heuristic: cfg.Heuristic,
		metrics:   cfg.Metrics,
		history:   cfg.History,
		log:       log,
		quiet:     cfg.DisableLogging,
		sessions:  make(map[string]*session),
	}
	if cfg.RateLimit > 0 {
		s.limiter = newIPLimiter(cfg.RateLimit, cfg.RateBurst, time.Minute, func() {
			if s.metrics != nil {
				s.metrics.RecordRejected("rate_limit")
			}
		})
	}
	cacheFor := cfg.CacheFor
	if cacheFor == nil {
		cacheFor = func(*astar.Engine) astar.Cache { return astar.NewMemoryCache() }
	}
	for name, grid := range cfg.Grids {
		opts := append([]astar.Option{}, cfg.EngineOptions...)
		opts = append(opts, astar.WithLogger(log.With(zap.String("grid", name))))
		if cfg.Metrics != nil {
			opts = append(opts, astar.WithObserver(cfg.Metrics))
		}
		engine, err := grid.Engine(opts...)
		if err != nil {
			return nil, fmt.Errorf("grid %s: %w", name, err)
		}
		// the cache is keyed on the final configuration, so it is attached second
		if cache := cacheFor(engine); cache != nil {
			if engine, err = grid.Engine(append(opts, astar.WithCache(cache))...); err != nil {
				return nil, fmt.Errorf("grid %s: %w", name, err)
			}
		}
		s.grids[name] = &gridEntry{grid: grid, engine: engine}
	}
	log.Info("grids ready", zap.Strings("names", s.names()))
	return s, nil
}

// Engine returns the engine serving a grid.
func (s *Server) Engine(name string) (*astar.Engine, bool) {
	entry, ok := s.grids[name]
	if !ok {
		return nil, false
	}
	return entry.engine, true
}

func (s *Server) names() []string {
	names := make([]string, 0, len(s.grids))
	for name := range s.grids {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close stops background work. The server must not be used afterwards.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.stop()
	}
}

// ListenAndServe serves the router until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.BindAddress,
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", cfg.BindAddress))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}
