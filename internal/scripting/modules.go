package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the wheel.* Lua table into L:
//
//	wheel.log.debug/info/warn/error(msg)  write to the Manager's logger
//	wheel.announce(msg)                   forward msg to Manager.Announce
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: wheel global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	mod := L.NewTable()

	logTbl := L.NewTable()
	scriptLog := m.logger.Named("lua")
	levels := map[string]func(string, ...zap.Field){
		"debug": scriptLog.Debug,
		"info":  scriptLog.Info,
		"warn":  scriptLog.Warn,
		"error": scriptLog.Error,
	}
	for name, fn := range levels {
		logFn := fn
		L.SetField(logTbl, name, L.NewFunction(func(L *lua.LState) int {
			logFn(L.CheckString(1))
			return 0
		}))
	}
	L.SetField(mod, "log", logTbl)

	L.SetField(mod, "announce", L.NewFunction(func(L *lua.LState) int {
		msg := L.CheckString(1)
		if m.Announce != nil {
			m.Announce(msg)
		}
		return 0
	}))

	L.SetGlobal("wheel", mod)
}
