// Package pathcache persists found paths in badger so that repeated queries
// survive restarts.
//
// Keys are namespaced by the engine fingerprint:
//
//	path/<fingerprint>/<heuristic>:<start>:<end>
//
// so a store shared by many grids, or reused after the move costs change,
// never serves a path computed under another configuration. Values are JSON.
package pathcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	astar "github.com/pdrpinto/gridastar"
	"github.com/pdrpinto/gridastar/internal/config"
)

// Store owns the badger database and its value log GC loop.
type Store struct {
	db     *badger.DB
	log    *zap.Logger
	ttl    time.Duration
	stopCh chan struct{}
	doneCh chan struct{}
}

// Open opens the database described by cfg. With InMemory set nothing
// touches the disk and GC is not started.
func Open(cfg config.CacheConfig, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent cache")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{log.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}

	s := &Store{db: db, log: log, ttl: cfg.TTL}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stopCh = make(chan struct{})
		s.doneCh = make(chan struct{})
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

// OpenInMemory opens a throwaway store, for tests.
func OpenInMemory() (*Store, error) {
	return Open(config.CacheConfig{InMemory: true}, nil)
}

// Close stops GC and closes the database.
func (s *Store) Close() error {
	if s.stopCh != nil {
		close(s.stopCh)
		<-s.doneCh
		s.stopCh = nil
	}
	return s.db.Close()
}

func (s *Store) runGC(interval time.Duration, ratio float64) {
	defer close(s.doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(ratio)
			switch {
			case err == nil:
				s.log.Debug("path cache value log GC completed")
			case !errors.Is(err, badger.ErrNoRewrite):
				s.log.Warn("path cache value log GC failed", zap.Error(err))
			}
		}
	}
}

// For returns the cache view for engines configured like e. The view is
// usually attached to a second engine built with the same options plus
// astar.WithCache.
func (s *Store) For(e *astar.Engine) *Cache {
	return &Cache{
		store:  s,
		prefix: fmt.Sprintf("path/%016x/", e.Fingerprint()),
	}
}

// Cache is an astar.Cache backed by a Store. Storage errors never fail a
// search: a failed read is a miss and a failed write is logged.
type Cache struct {
	store  *Store
	prefix string
}

var _ astar.Cache = (*Cache)(nil)

type entry struct {
	Points   [][3]int `json:"points"`
	Cost     float64  `json:"cost"`
	Expanded int      `json:"expanded"`
}

func (c *Cache) key(k astar.CacheKey) []byte {
	return []byte(c.prefix + k.String())
}

func (c *Cache) Get(k astar.CacheKey) (astar.Path, bool) {
	var e entry
	err := c.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(k))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.store.log.Warn("path cache read failed", zap.Stringer("key", k), zap.Error(err))
		}
		return astar.Path{}, false
	}

	path := astar.Path{
		Points:   make([]astar.Point, len(e.Points)),
		Cost:     e.Cost,
		Expanded: e.Expanded,
	}
	for i, p := range e.Points {
		path.Points[i] = astar.P3(p[0], p[1], p[2])
	}
	return path, true
}

func (c *Cache) Put(k astar.CacheKey, path astar.Path) {
	e := entry{
		Points:   make([][3]int, len(path.Points)),
		Cost:     path.Cost,
		Expanded: path.Expanded,
	}
	for i, p := range path.Points {
		e.Points[i] = [3]int{p.Row, p.Col, p.Layer}
	}
	val, err := json.Marshal(e)
	if err != nil {
		c.store.log.Warn("path cache encode failed", zap.Stringer("key", k), zap.Error(err))
		return
	}

	err = c.store.db.Update(func(txn *badger.Txn) error {
		be := badger.NewEntry(c.key(k), val)
		if c.store.ttl > 0 {
			be = be.WithTTL(c.store.ttl)
		}
		return txn.SetEntry(be)
	})
	if err != nil {
		c.store.log.Warn("path cache write failed", zap.Stringer("key", k), zap.Error(err))
	}
}

// Len counts the entries stored in this namespace.
func (c *Cache) Len() int {
	n := 0
	_ = c.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(c.prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n
}

// Purge drops every entry stored in this namespace.
func (c *Cache) Purge() error {
	return c.store.db.DropPrefix([]byte(c.prefix))
}

// badgerLogger routes badger's internal logging through zap.
type badgerLogger struct {
	log *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...interface{})   { l.log.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...interface{}) { l.log.Warnf(format, args...) }
func (l badgerLogger) Infof(format string, args ...interface{})    { l.log.Debugf(format, args...) }
func (l badgerLogger) Debugf(format string, args ...interface{})   { l.log.Debugf(format, args...) }
