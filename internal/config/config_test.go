package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	astar "github.com/pdrpinto/gridastar"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gridastar.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, astar.Diagonal, cfg.Heuristic())
	assert.Equal(t, astar.DefaultCosts(), cfg.MoveCosts())
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[engine]
heuristic = "euclidean"
reopen = "better"

[costs]
up = 3.0

[server]
bind_address = "0.0.0.0:9000"
read_timeout = "2s"

[cache]
in_memory = true
path = ""
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, astar.Euclidean, cfg.Heuristic())
	assert.Equal(t, "better", cfg.Engine.Reopen)
	assert.Equal(t, astar.DefaultThreshold, cfg.Engine.Threshold)
	assert.Equal(t, 3.0, cfg.MoveCosts().Up)
	assert.Equal(t, 0.5, cfg.MoveCosts().Down)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.BindAddress)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.True(t, cfg.Cache.InMemory)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown heuristic", "[engine]\nheuristic = \"zigzag\"\n"},
		{"bad reopen policy", "[engine]\nreopen = \"sometimes\"\n"},
		{"zero cost factor", "[costs]\nlinear = 0.0\n"},
		{"bad log format", "[logging]\nformat = \"xml\"\n"},
		{"idle above open", "[database]\nmax_open_conns = 2\nmax_idle_conns = 5\n"},
		{"negative rate limit", "[server]\nrate_limit = -1.0\n"},
		{"cache without path", "[cache]\npath = \"\"\n"},
		{"malformed toml", "[engine\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEngineOptions(t *testing.T) {
	cfg := Default()
	cfg.Engine.Threshold = 10
	cfg.Engine.Reopen = "better"
	cfg.Costs.Diagonal2 = 3

	engine, err := astar.New(1, 3, []float64{1, 10, 1}, cfg.EngineOptions()...)
	require.NoError(t, err)
	assert.Equal(t, 10.0, engine.Weights().Threshold())
	assert.Equal(t, 3.0, engine.Costs().Diagonal2)

	_, err = engine.Search(astar.P2(0, 0), astar.P2(0, 2), astar.Manhattan)
	assert.ErrorIs(t, err, astar.ErrUnreachable)
}
