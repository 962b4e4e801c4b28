package sandbox

import (
	"context"
	"strings"

	"gptxt/internal/logging"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"
)

const luaChunkName = "<candidate>"

// LuaExecutor runs Lua candidates on gopher-lua.
type LuaExecutor struct{}

// NewLuaExecutor creates a Lua executor.
func NewLuaExecutor() *LuaExecutor {
	return &LuaExecutor{}
}

// Execute compiles script, runs it in a new LState with the standard
// libraries, the json table and `data` bound, and returns `result`.
func (le *LuaExecutor) Execute(ctx context.Context, input, script string) (string, error) {
	log := logging.Get(logging.CategorySandbox)

	chunk, err := parse.Parse(strings.NewReader(script), luaChunkName)
	if err != nil {
		return "", &CompileError{Message: err.Error()}
	}
	proto, err := lua.Compile(chunk, luaChunkName)
	if err != nil {
		return "", &CompileError{Message: err.Error()}
	}

	L := lua.NewState()
	defer L.Close()
	if ctx != nil {
		L.SetContext(ctx)
	}

	openJSON(L)
	L.SetGlobal("data", lua.LString(input))

	L.Push(L.NewFunctionFromProto(proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		log.Debug("lua candidate raised", zap.Error(err))
		return "", &ExecutionError{Trace: err.Error()}
	}

	value := L.GetGlobal("result")
	switch v := value.(type) {
	case lua.LString:
		return normalizeResult(string(v)), nil
	case *lua.LNilType:
		return "", ErrResultNotFound
	default:
		return "", &ResultConversionError{TypeName: value.Type().String()}
	}
}
