package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/wheel/internal/game/event"
)

// ErrClosed is returned by Load after Close.
var ErrClosed = errors.New("scripting: manager is closed")

// Manager owns one sandboxed LState loaded from a script directory and
// dispatches events to the hooks it defines.
//
// Manager is safe for concurrent use; calls into the VM are serialized.
type Manager struct {
	mu        sync.Mutex
	state     *lua.LState
	instLimit int
	closed    bool
	logger    *zap.Logger

	// Announce receives every string passed to wheel.announce. Injected after
	// construction; nil discards announcements. It runs with the VM locked and
	// must not call back into the Manager.
	Announce func(msg string)
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager; hooks are no-ops until Load succeeds.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{logger: logger}
}

// Load creates a fresh VM, registers the wheel.* module, and executes every
// *.lua file in scriptDir in lexicographic order. A previously loaded VM is
// replaced only if the new one loads cleanly.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Each file runs under its own budget of instLimit opcodes
// (0 uses DefaultInstructionLimit); returns an error naming the failing file.
func (m *Manager) Load(scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState()
	m.RegisterModules(L)
	for _, path := range luaFiles {
		if err := withBudget(L, instLimit, func() error { return L.DoFile(path) }); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		L.Close()
		return ErrClosed
	}
	if m.state != nil {
		m.state.Close()
	}
	m.state = L
	m.instLimit = instLimit
	m.logger.Info("scripts loaded",
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// Close releases the VM. Subsequent hook calls are no-ops.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		m.state.Close()
		m.state = nil
	}
	m.closed = true
}

// CallHook calls the named Lua global function. Returns (LNil, nil) if no
// scripts are loaded or the hook is not defined.
//
// Postcondition: Returns the first return value of the hook, or LNil with the
// Lua runtime error (including an exhausted instruction budget).
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return lua.LNil, nil
	}
	return m.call(hook, args...)
}

// call invokes hook on the loaded VM.
//
// Precondition: m.mu is held and m.state is non-nil.
func (m *Manager) call(hook string, args ...lua.LValue) (lua.LValue, error) {
	L := m.state
	fn := L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, nil
	}

	err := withBudget(L, m.instLimit, func() error {
		return L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, args...)
	})
	if err != nil {
		return lua.LNil, fmt.Errorf("scripting: hook %q: %w", hook, err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// HookName returns the Lua global called for events of kind k.
func HookName(k event.Kind) string {
	return "on_" + string(k)
}

// OnEvent dispatches e to its hook with a table describing the event.
// Frame events are not dispatched. Hook errors are logged at Warn level and
// never reach the emitter.
func (m *Manager) OnEvent(e event.Event) {
	if e.Kind() == event.KindFrame {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return
	}
	hook := HookName(e.Kind())
	if _, err := m.call(hook, eventTable(m.state, e)); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
	}
}

// eventTable converts e to a Lua table. Tables are built on L; callers must
// not share them across VMs.
func eventTable(L *lua.LState, e event.Event) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("kind", lua.LString(e.Kind()))
	switch ev := e.(type) {
	case event.Tick:
		t.RawSetString("spin_id", lua.LString(ev.SpinID))
		t.RawSetString("candidate", lua.LString(ev.CandidateID))
		t.RawSetString("index", lua.LNumber(ev.Index))
	case event.Settled:
		t.RawSetString("spin_id", lua.LString(ev.SpinID))
		if ev.HasWinner {
			t.RawSetString("winner", lua.LString(ev.WinnerID))
		}
		t.RawSetString("rotation", lua.LNumber(ev.Rotation))
	case event.RoundStarted:
		t.RawSetString("round", lua.LNumber(ev.Round))
		t.RawSetString("remaining", lua.LNumber(ev.Remaining))
		t.RawSetString("final", lua.LBool(ev.Final))
	case event.Eliminated:
		t.RawSetString("candidate", lua.LString(ev.CandidateID))
		t.RawSetString("order", lua.LNumber(ev.Order))
	case event.Champion:
		t.RawSetString("candidate", lua.LString(ev.CandidateID))
		t.RawSetString("order", lua.LNumber(ev.Order))
	case event.Inconclusive:
		rem := L.NewTable()
		for _, id := range ev.Remaining {
			rem.Append(lua.LString(id))
		}
		t.RawSetString("remaining", rem)
	}
	return t
}
