package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/data"
	"github.com/shardfall/server/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

var ErrOutsideTick = errors.New("event producers are only callable from on_tick")

// Engine wraps a single gopher-lua VM running scenario scripts.
// Single-goroutine access only: Setup at bootstrap, OnTick from the one
// script job of each tick.
type Engine struct {
	vm     *lua.LState
	log    *zap.Logger
	state  *world.State
	levels *data.LevelTable

	// Bound for the duration of Setup.
	world *ecs.World

	// Bound for the duration of OnTick.
	view    ecs.View
	cb      *ecs.CommandBuffer
	frame   uint64
	ticking bool

	emitted int
}

// NewEngine creates a Lua engine and loads all scripts from scriptsDir,
// then from its scenario subdirectory.
func NewEngine(scriptsDir string, state *world.State, levels *data.LevelTable, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, state: state, levels: levels}
	e.register()

	for _, dir := range []string{scriptsDir, filepath.Join(scriptsDir, "scenario")} {
		if err := e.loadDir(dir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs src as an extra chunk. Tests and the console use it.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// Setup calls the scripts' setup() with w bound for spawning. Missing
// setup is not an error.
func (e *Engine) Setup(w *ecs.World) error {
	fn := e.vm.GetGlobal("setup")
	if fn == lua.LNil {
		return nil
	}
	e.world = w
	defer func() { e.world = nil }()
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
		return fmt.Errorf("lua setup: %w", err)
	}
	return nil
}

// OnTick calls on_tick(frame). Events the script produces are queued on cb
// and appear in the store at the end of the calling phase.
func (e *Engine) OnTick(frame uint64, v ecs.View, cb *ecs.CommandBuffer) error {
	fn := e.vm.GetGlobal("on_tick")
	if fn == lua.LNil {
		return nil
	}
	e.view, e.cb, e.frame, e.ticking = v, cb, frame, true
	defer func() {
		e.view, e.cb, e.ticking = ecs.View{}, nil, false
	}()
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LNumber(frame)); err != nil {
		return fmt.Errorf("lua on_tick(%d): %w", frame, err)
	}
	return nil
}

// Emitted returns how many events scripts have produced so far.
func (e *Engine) Emitted() int { return e.emitted }

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
