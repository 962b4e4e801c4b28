// Package sandbox runs candidate scripts against the gptxt data contract.
//
// A script reads its input from the variable `data` and leaves its output in
// the variable `result`. Each call to Execute builds a fresh interpreter, so
// nothing a script defines survives into the next run.
package sandbox

import (
	"context"
	"fmt"
	"strings"
)

// Executor compiles and runs a script with `data` bound to input and returns
// the normalized value of `result`.
type Executor interface {
	Execute(ctx context.Context, input, script string) (string, error)
}

// Dialect names the scripting language candidates are written in.
type Dialect string

const (
	DialectLua Dialect = "lua"
	DialectGo  Dialect = "go"
)

// ParseDialect maps a user-supplied language name onto a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lua":
		return DialectLua, nil
	case "go", "golang":
		return DialectGo, nil
	default:
		return "", fmt.Errorf("unsupported script language %q (expected lua or go)", name)
	}
}

// Extension is the file extension editors should see for this dialect.
func (d Dialect) Extension() string {
	if d == DialectGo {
		return ".go"
	}
	return ".lua"
}

// New returns the executor for a dialect.
func New(d Dialect) (Executor, error) {
	switch d {
	case DialectLua:
		return NewLuaExecutor(), nil
	case DialectGo:
		return NewGoExecutor(), nil
	default:
		return nil, fmt.Errorf("no executor for dialect %q", d)
	}
}

// Only the two-character sequences \r and \n are rewritten.
var escapeNormalizer = strings.NewReplacer(`\r`, "\r", `\n`, "\n")

// normalizeResult turns literal \r and \n escapes left in a result string into
// real carriage returns and line feeds.
func normalizeResult(s string) string {
	return escapeNormalizer.Replace(s)
}
