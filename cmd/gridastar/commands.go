package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	astar "github.com/pdrpinto/gridastar"
	"github.com/pdrpinto/gridastar/internal/config"
	"github.com/pdrpinto/gridastar/internal/gridfile"
	"github.com/pdrpinto/gridastar/internal/logging"
	"github.com/pdrpinto/gridastar/internal/metrics"
	"github.com/pdrpinto/gridastar/internal/pathcache"
	"github.com/pdrpinto/gridastar/internal/script"
	"github.com/pdrpinto/gridastar/internal/server"
	"github.com/pdrpinto/gridastar/internal/store"
)

// app carries what every subcommand needs once the root has loaded the
// configuration.
type app struct {
	configPath string
	cfg        *config.Config
	log        *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "gridastar",
		Short:         "Weighted grid pathfinding",
		Long:          `gridastar finds lowest-cost paths on weighted 2D and 3D grids, from the command line or over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a TOML config file")

	root.AddCommand(
		a.searchCmd(),
		a.serveCmd(),
		a.migrateCmd(),
		a.importCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		if cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.cfg, a.log = cfg, log
	return nil
}

func (a *app) searchCmd() *cobra.Command {
	var (
		gridPath, from, to, heuristic, scriptPath string
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find a path on a grid file and print it as JSON",
		Example: `  gridastar search --grid testdata/wall8.yaml --from 0,0 --to 0,7
  gridastar search --grid testdata/shaft.yaml --from 0,0,0 --to 6,6,2 --heuristic euclidean`,
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := gridfile.Load(gridPath)
			if err != nil {
				return err
			}

			opts := a.cfg.EngineOptions()
			opts = append(opts, astar.WithLogger(a.log))
			cache, closeCache, err := a.openCache()
			if err != nil {
				return err
			}
			defer closeCache()

			engine, err := grid.Engine(opts...)
			if err != nil {
				return err
			}
			if c := cache(engine); c != nil {
				if engine, err = grid.Engine(append(opts, astar.WithCache(c))...); err != nil {
					return err
				}
			}

			start := astar.Point{}
			end := astar.P3(engine.Rows()-1, engine.Cols()-1, engine.Layers()-1)
			if from != "" {
				if start, err = parsePoint(from); err != nil {
					return fmt.Errorf("--from: %w", err)
				}
			}
			if to != "" {
				if end, err = parsePoint(to); err != nil {
					return fmt.Errorf("--to: %w", err)
				}
			}

			var path astar.Path
			if scriptPath != "" {
				var lh *script.Heuristic
				if lh, err = script.Load(scriptPath, a.cfg.Script.Function, engine.Costs(), a.log); err != nil {
					return err
				}
				defer lh.Close()
				path, err = engine.SearchFunc(start, end, lh.Func())
			} else {
				h := a.cfg.Heuristic()
				if heuristic != "" {
					if h, err = astar.ParseHeuristic(heuristic); err != nil {
						return err
					}
				}
				path, err = engine.Search(start, end, h)
			}
			if err != nil {
				return err
			}
			return writePath(cmd, path)
		},
	}
	cmd.Flags().StringVarP(&gridPath, "grid", "g", "", "grid file (YAML)")
	cmd.Flags().StringVar(&from, "from", "", "start cell as row,col[,layer] (default: first cell)")
	cmd.Flags().StringVar(&to, "to", "", "goal cell as row,col[,layer] (default: last cell)")
	cmd.Flags().StringVar(&heuristic, "heuristic", "", "heuristic name (default from config)")
	cmd.Flags().StringVar(&scriptPath, "script", "", "Lua file defining the heuristic function")
	_ = cmd.MarkFlagRequired("grid")
	cmd.MarkFlagsMutuallyExclusive("heuristic", "script")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var (
		gridDir         string
		fromDB, history bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve grids over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var db *store.DB
			if fromDB || history {
				var err error
				if db, err = a.openDB(ctx); err != nil {
					return err
				}
				defer db.Close()
			}

			var (
				grids map[string]*gridfile.Grid
				err   error
			)
			if fromDB {
				grids, err = store.NewGridRepo(db).LoadAll(ctx)
			} else {
				if gridDir == "" {
					gridDir = a.cfg.Server.GridDir
				}
				grids, err = gridfile.LoadDir(gridDir)
			}
			if err != nil {
				return err
			}

			cache, closeCache, err := a.openCache()
			if err != nil {
				return err
			}
			defer closeCache()

			srvCfg := server.Config{
				Grids:         grids,
				EngineOptions: a.cfg.EngineOptions(),
				CacheFor:      cache,
				Heuristic:     a.cfg.Heuristic(),
				Metrics:       metrics.NewWith(prometheus.DefaultRegisterer, prometheus.DefaultGatherer),
				Logger:        a.log,
				RateLimit:     a.cfg.Server.RateLimit,
				RateBurst:     a.cfg.Server.RateBurst,
			}
			if history {
				srvCfg.History = store.NewSearchRepo(db)
			}
			srv, err := server.New(srvCfg)
			if err != nil {
				return err
			}
			defer srv.Close()
			return srv.ListenAndServe(ctx, a.cfg.Server)
		},
	}
	cmd.Flags().StringVar(&gridDir, "grids", "", "directory of grid files (default from config)")
	cmd.Flags().BoolVar(&fromDB, "from-db", false, "serve the grids stored in the database instead of files")
	cmd.Flags().BoolVar(&history, "history", false, "record every search in the database")
	cmd.MarkFlagsMutuallyExclusive("grids", "from-db")
	return cmd
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			db.Close()
			a.log.Info("migrations applied")
			return nil
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE...",
		Short: "Store grid files in the database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := store.NewGridRepo(db)
			for _, path := range args {
				grid, err := gridfile.Load(path)
				if err != nil {
					return err
				}
				if err := repo.Save(ctx, grid); err != nil {
					return err
				}
				a.log.Info("grid imported",
					zap.String("name", grid.Name),
					zap.Int("rows", grid.Rows),
					zap.Int("cols", grid.Cols),
					zap.Int("layers", grid.Layers))
			}
			return nil
		},
	}
}

// openDB connects and brings the schema up to date.
func (a *app) openDB(ctx context.Context) (*store.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := store.NewDB(ctx, a.cfg.Database, a.log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := store.RunMigrations(ctx, db.Pool); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return db, nil
}

// openCache returns the per-grid cache factory selected by engine.cache and
// a function releasing it.
func (a *app) openCache() (func(*astar.Engine) astar.Cache, func(), error) {
	switch a.cfg.Engine.Cache {
	case "none":
		return func(*astar.Engine) astar.Cache { return nil }, func() {}, nil
	case "badger":
		st, err := pathcache.Open(a.cfg.Cache, a.log)
		if err != nil {
			return nil, nil, err
		}
		closeStore := func() {
			if err := st.Close(); err != nil {
				a.log.Warn("close path cache", zap.Error(err))
			}
		}
		return func(e *astar.Engine) astar.Cache { return st.For(e) }, closeStore, nil
	default:
		return func(*astar.Engine) astar.Cache { return astar.NewMemoryCache() }, func() {}, nil
	}
}

type pathOutput struct {
	Points   [][3]int `json:"points"`
	Cost     float64  `json:"cost"`
	Expanded int      `json:"expanded"`
}

func writePath(cmd *cobra.Command, path astar.Path) error {
	out := pathOutput{
		Points:   make([][3]int, len(path.Points)),
		Cost:     path.Cost,
		Expanded: path.Expanded,
	}
	for i, p := range path.Points {
		out.Points[i] = [3]int{p.Row, p.Col, p.Layer}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// parsePoint reads "row,col" or "row,col,layer".
func parsePoint(s string) (astar.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 && len(parts) != 3 {
		return astar.None, errors.New("want row,col or row,col,layer")
	}
	var v [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return astar.None, fmt.Errorf("coordinate %q: %w", part, err)
		}
		v[i] = n
	}
	return astar.P3(v[0], v[1], v[2]), nil
}
