package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeResult(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"literal newline escape", `a\nb`, "a\nb"},
		{"literal carriage return escape", `a\r\nb`, "a\r\nb"},
		{"real newline untouched", "a\nb", "a\nb"},
		{"other escapes untouched", `a\tb\\x`, `a\tb\\x`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeResult(tt.in))
		})
	}
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("")
	require.NoError(t, err)
	assert.Equal(t, DialectLua, d)

	d, err = ParseDialect("Golang")
	require.NoError(t, err)
	assert.Equal(t, DialectGo, d)

	_, err = ParseDialect("python")
	assert.Error(t, err)
}

func TestNewSelectsExecutor(t *testing.T) {
	exec, err := New(DialectLua)
	require.NoError(t, err)
	assert.IsType(t, &LuaExecutor{}, exec)

	exec, err = New(DialectGo)
	require.NoError(t, err)
	assert.IsType(t, &GoExecutor{}, exec)

	_, err = New(Dialect("cobol"))
	assert.Error(t, err)
}

func TestDialectExtension(t *testing.T) {
	assert.Equal(t, ".lua", DialectLua.Extension())
	assert.Equal(t, ".go", DialectGo.Extension())
}
