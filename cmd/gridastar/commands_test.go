package main

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	astar "github.com/pdrpinto/gridastar"
)

func execute(t *testing.T, args ...string) (pathOutput, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		return pathOutput{}, err
	}
	var got pathOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got), out.String())
	return got, nil
}

func TestSearchCommand(t *testing.T) {
	got, err := execute(t, "search", "--grid", "../../testdata/wall8.yaml", "--from", "0,0", "--to", "0,7")
	require.NoError(t, err)
	assert.InDelta(t, 5+7*math.Sqrt2, got.Cost, 1e-9)
	assert.Len(t, got.Points, 13)
	assert.Equal(t, [3]int{6, 1, 0}, got.Points[6])
}

func TestSearchCommand_DefaultsToCorners(t *testing.T) {
	got, err := execute(t, "search", "--grid", "../../testdata/shaft.yaml", "--heuristic", "diagonal")
	require.NoError(t, err)
	assert.Equal(t, [3]int{0, 0, 0}, got.Points[0])
	assert.Equal(t, [3]int{6, 6, 2}, got.Points[len(got.Points)-1])
	assert.InDelta(t, 6*math.Sqrt2+4, got.Cost, 1e-9)
}

func TestSearchCommand_Script(t *testing.T) {
	got, err := execute(t, "search", "--grid", "../../testdata/wall8.yaml", "--from", "0,0", "--to", "0,7",
		"--script", "../../internal/script/testdata/octile.lua")
	require.NoError(t, err)
	assert.InDelta(t, 5+7*math.Sqrt2, got.Cost, 1e-9)
}

func TestSearchCommand_Config(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "gridastar.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
[engine]
cache = "badger"

[cache]
path = "`+filepath.ToSlash(filepath.Join(dir, "cache"))+`"

[logging]
level = "error"
`), 0o644))

	for i := 0; i < 2; i++ {
		got, err := execute(t, "--config", cfgPath, "search", "--grid", "../../testdata/marsh.yaml")
		require.NoError(t, err)
		assert.Equal(t, [3]int{3, 4, 0}, got.Points[len(got.Points)-1])
	}
	assert.DirExists(t, filepath.Join(dir, "cache"))
}

func TestSearchCommand_BadgerCacheFollowsCosts(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.ToSlash(filepath.Join(dir, "cache"))
	writeCfg := func(name, cache, costs string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(`
[engine]
cache = "`+cache+`"

[cache]
path = "`+cachePath+`"

[logging]
level = "error"
`+costs), 0o644))
		return path
	}
	args := []string{"search", "--grid", "../../testdata/wall8.yaml", "--from", "0,0", "--to", "0,7",
		"--heuristic", "manhattan_max"}
	steep := "\n[costs]\ndiagonal2 = 10.0\n"

	warm, err := execute(t, append([]string{"--config", writeCfg("default.toml", "badger", "")}, args...)...)
	require.NoError(t, err)
	require.InDelta(t, 5+7*math.Sqrt2, warm.Cost, 1e-9)

	cached, err := execute(t, append([]string{"--config", writeCfg("steep.toml", "badger", steep)}, args...)...)
	require.NoError(t, err)
	fresh, err := execute(t, append([]string{"--config", writeCfg("steep-nocache.toml", "none", steep)}, args...)...)
	require.NoError(t, err)

	assert.InDelta(t, fresh.Cost, cached.Cost, 1e-9, "changed costs must not hit paths cached under the old ones")
	assert.Equal(t, fresh.Points, cached.Points)
	assert.NotEqual(t, warm.Points, cached.Points)
}

func TestSearchCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing grid flag", []string{"search"}},
		{"missing file", []string{"search", "--grid", "nope.yaml"}},
		{"bad point", []string{"search", "--grid", "../../testdata/wall8.yaml", "--from", "a,b"}},
		{"bad heuristic", []string{"search", "--grid", "../../testdata/wall8.yaml", "--heuristic", "zigzag"}},
		{"unreachable", []string{"search", "--grid", "../../testdata/wall8.yaml", "--to", "0,1"}},
		{"both heuristics", []string{"search", "--grid", "../../testdata/wall8.yaml", "--heuristic", "diagonal", "--script", "x.lua"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("3, 4")
	require.NoError(t, err)
	assert.Equal(t, astar.P2(3, 4), p)

	p, err = parsePoint("1,2,3")
	require.NoError(t, err)
	assert.Equal(t, astar.P3(1, 2, 3), p)

	for _, bad := range []string{"", "1", "1,2,3,4", "x,1"} {
		_, err := parsePoint(bad)
		assert.Error(t, err, bad)
	}
}
