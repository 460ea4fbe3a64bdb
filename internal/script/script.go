// Package script evaluates A* heuristics written in Lua.
//
// A script defines a global function taking the candidate and goal cells as
// tables {row=, col=, layer=} and returning a non-negative number:
//
//	function heuristic(a, b)
//	  return math.abs(a.row - b.row) + math.abs(a.col - b.col)
//	end
//
// Scripts also see the engine's move factors in the global table costs
// (linear, diagonal2, diagonal3, up, down).
package script

import (
	"errors"
	"fmt"
	"math"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	astar "github.com/pdrpinto/gridastar"
)

// Heuristic wraps one Lua VM. Calls are serialized, so a single Heuristic
// may back concurrent searches.
type Heuristic struct {
	mu   sync.Mutex
	vm   *lua.LState
	fn   lua.LValue
	name string
	log  *zap.Logger

	a, b *lua.LTable
	errs int
}

// Load runs the script at path and binds the global function name.
func Load(path, name string, costs astar.Costs, log *zap.Logger) (*Heuristic, error) {
	return load(name, costs, log, func(vm *lua.LState) error { return vm.DoFile(path) })
}

// LoadString is Load for a script held in memory.
func LoadString(source, name string, costs astar.Costs, log *zap.Logger) (*Heuristic, error) {
	return load(name, costs, log, func(vm *lua.LState) error { return vm.DoString(source) })
}

func load(name string, costs astar.Costs, log *zap.Logger, run func(*lua.LState) error) (*Heuristic, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})

	ct := vm.NewTable()
	ct.RawSetString("linear", lua.LNumber(costs.Linear))
	ct.RawSetString("diagonal2", lua.LNumber(costs.Diagonal2))
	ct.RawSetString("diagonal3", lua.LNumber(costs.Diagonal3))
	ct.RawSetString("up", lua.LNumber(costs.Up))
	ct.RawSetString("down", lua.LNumber(costs.Down))
	vm.SetGlobal("costs", ct)

	if err := run(vm); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load heuristic script: %w", err)
	}
	fn := vm.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		vm.Close()
		return nil, fmt.Errorf("heuristic script: global %q is %s, want function", name, fn.Type())
	}

	log.Debug("loaded lua heuristic", zap.String("function", name))
	return &Heuristic{
		vm:   vm,
		fn:   fn,
		name: name,
		log:  log,
		a:    vm.NewTable(),
		b:    vm.NewTable(),
	}, nil
}

// Eval calls the script for one pair of cells.
func (h *Heuristic) Eval(a, b astar.Point) (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.vm == nil {
		return 0, errors.New("heuristic script closed")
	}

	setPoint(h.a, a)
	setPoint(h.b, b)
	if err := h.vm.CallByParam(lua.P{
		Fn:      h.fn,
		NRet:    1,
		Protect: true,
	}, h.a, h.b); err != nil {
		return 0, err
	}
	ret := h.vm.Get(-1)
	h.vm.Pop(1)

	n, ok := ret.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("%s returned %s, want number", h.name, ret.Type())
	}
	v := float64(n)
	if math.IsNaN(v) || v < 0 {
		return 0, fmt.Errorf("%s returned %v, want a non-negative number", h.name, v)
	}
	return v, nil
}

// Func adapts the script to the engine. A failing call estimates 0, which
// keeps the search correct (it degrades toward Dijkstra); the first failure
// is logged and later ones are only counted.
func (h *Heuristic) Func() astar.HeuristicFunc {
	return func(a, b astar.Point) float64 {
		v, err := h.Eval(a, b)
		if err != nil {
			h.mu.Lock()
			h.errs++
			first := h.errs == 1
			h.mu.Unlock()
			if first {
				h.log.Error("lua heuristic error", zap.String("function", h.name), zap.Error(err))
			}
			return 0
		}
		return v
	}
}

// Errors is the number of failed calls so far.
func (h *Heuristic) Errors() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errs
}

// Close releases the VM.
func (h *Heuristic) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.vm != nil {
		h.vm.Close()
		h.vm = nil
	}
}

func setPoint(t *lua.LTable, p astar.Point) {
	t.RawSetString("row", lua.LNumber(p.Row))
	t.RawSetString("col", lua.LNumber(p.Col))
	t.RawSetString("layer", lua.LNumber(p.Layer))
}
