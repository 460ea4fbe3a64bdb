package script

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	astar "github.com/pdrpinto/gridastar"
)

func TestLoad_File(t *testing.T) {
	h, err := Load("testdata/octile.lua", "heuristic", astar.DefaultCosts(), nil)
	require.NoError(t, err)
	defer h.Close()

	v, err := h.Eval(astar.P2(0, 0), astar.P2(3, 5))
	require.NoError(t, err)
	assert.InDelta(t, 2+3*math.Sqrt2, v, 1e-12)
}

func TestLoad_Errors(t *testing.T) {
	_, err := LoadString("function heuristic(a, b", "heuristic", astar.DefaultCosts(), nil)
	assert.Error(t, err, "syntax error")

	_, err = LoadString("heuristic = 3", "heuristic", astar.DefaultCosts(), nil)
	assert.Error(t, err, "not a function")

	_, err = Load("testdata/missing.lua", "heuristic", astar.DefaultCosts(), nil)
	assert.Error(t, err)
}

func TestEval_SeesCostsAndLayers(t *testing.T) {
	costs := astar.DefaultCosts()
	costs.Up = 7
	h, err := LoadString(`function h(a, b) return math.abs(a.layer - b.layer) * costs.up end`, "h", costs, nil)
	require.NoError(t, err)
	defer h.Close()

	v, err := h.Eval(astar.P3(0, 0, 0), astar.P3(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 14.0, v)
}

func TestEval_BadReturns(t *testing.T) {
	tests := map[string]string{
		"string":   `function h(a, b) return "far" end`,
		"negative": `function h(a, b) return -1 end`,
		"nan":      `function h(a, b) return 0/0 end`,
		"raises":   `function h(a, b) error("boom") end`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			h, err := LoadString(src, "h", astar.DefaultCosts(), nil)
			require.NoError(t, err)
			defer h.Close()
			_, err = h.Eval(astar.P2(0, 0), astar.P2(1, 1))
			assert.Error(t, err)
		})
	}
}

func TestFunc_FailuresEstimateZero(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h, err := LoadString(`function h(a, b) error("boom") end`, "h", astar.DefaultCosts(), zap.New(core))
	require.NoError(t, err)
	defer h.Close()

	fn := h.Func()
	assert.Zero(t, fn(astar.P2(0, 0), astar.P2(2, 2)))
	assert.Zero(t, fn(astar.P2(0, 0), astar.P2(2, 2)))
	assert.Equal(t, 2, h.Errors())
	assert.Equal(t, 1, logs.Len(), "only the first failure is logged")
}

func TestFunc_DrivesEngine(t *testing.T) {
	h, err := Load("testdata/octile.lua", "heuristic", astar.DefaultCosts(), nil)
	require.NoError(t, err)
	defer h.Close()

	cells := make([]float64, 64)
	for i := range cells {
		cells[i] = 1
	}
	for r := 0; r < 6; r++ {
		cells[r*8+1] = astar.DefaultThreshold
	}
	engine, err := astar.New(8, 8, cells)
	require.NoError(t, err)

	scripted, err := engine.SearchFunc(astar.P2(0, 0), astar.P2(0, 7), h.Func())
	require.NoError(t, err)
	builtin, err := engine.Search(astar.P2(0, 0), astar.P2(0, 7), astar.Diagonal)
	require.NoError(t, err)

	assert.Equal(t, builtin.Points, scripted.Points)
	assert.InDelta(t, 5+7*math.Sqrt2, scripted.Cost, 1e-9)
	assert.Zero(t, h.Errors())
}

func TestFunc_Concurrent(t *testing.T) {
	h, err := Load("testdata/octile.lua", "heuristic", astar.DefaultCosts(), nil)
	require.NoError(t, err)
	defer h.Close()
	fn := h.Func()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, float64(i), fn(astar.P2(0, 0), astar.P2(0, i)))
			}
		}(i)
	}
	wg.Wait()
}

func TestClose(t *testing.T) {
	h, err := LoadString(`function h(a, b) return 1 end`, "h", astar.DefaultCosts(), nil)
	require.NoError(t, err)
	h.Close()
	h.Close()
	_, err = h.Eval(astar.P2(0, 0), astar.P2(1, 1))
	assert.Error(t, err)
}
