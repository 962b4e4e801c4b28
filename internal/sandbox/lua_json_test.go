package sandbox

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLuaJSON_Encode(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"array default separators", `result = json.encode({1, 2, 3})`, `[1, 2, 3]`},
		{"array compact separators", `result = json.encode({1, 2, 3}, {separators = {",", ":"}})`, `[1,2,3]`},
		{"object sorted keys", `result = json.encode({b = 1, a = "x"})`, `{"a": "x", "b": 1}`},
		{"object compact", `result = json.encode({b = true, a = 1.5}, {separators = {",", ":"}})`, `{"a":1.5,"b":true}`},
		{"indented", `result = json.encode({a = {1}}, {indent = 2})`, "{\n  \"a\": [\n    1\n  ]\n}"},
		{"string escapes", `result = json.encode("say \"hi\" <b>")`, `"say \"hi\" <b>"`},
		{"empty table", `result = json.encode({})`, `{}`},
		{"nested", `result = json.encode({{name = "a"}, {name = "b"}}, {separators = {",", ":"}})`, `[{"name":"a"},{"name":"b"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runLua(t, "", tt.script)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestLuaJSON_EncodeRejectsFunctions(t *testing.T) {
	_, err := runLua(t, "", `result = json.encode({f = print})`)
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr), "got %T", err)
	assert.Contains(t, execErr.Trace, "json.encode")
}

func TestLuaJSON_EncodeRejectsCycles(t *testing.T) {
	_, err := runLua(t, "", "local t = {}\nt.self = t\nresult = json.encode(t)")
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr), "got %T", err)
	assert.Contains(t, execErr.Trace, "circular")
}

func TestLuaJSON_Decode(t *testing.T) {
	out, err := runLua(t, `{"name": "gptxt", "tags": ["a", "b"]}`,
		`local doc = json.decode(data)
result = doc.name .. ":" .. doc.tags[2]`)
	require.NoError(t, err)
	assert.Equal(t, "gptxt:b", out)
}

func TestLuaJSON_DecodeRoundTrip(t *testing.T) {
	out, err := runLua(t, `{"counts": {"a": 2}, "missing": null}`,
		`local doc = json.decode(data)
result = json.encode({a = doc.counts.a + 1, gone = doc.missing == nil}, {separators = {",", ":"}})`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"gone":true}`, out)
}

func TestLuaJSON_DecodeRejectsInvalidText(t *testing.T) {
	_, err := runLua(t, "{not json", `result = json.decode(data)`)
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr), "got %T", err)
	assert.Contains(t, execErr.Trace, "json.decode")
}

func TestLuaJSON_Require(t *testing.T) {
	out, err := runLua(t, "", `local j = require("json")
result = j.encode({"x"})`)
	require.NoError(t, err)
	assert.Equal(t, `["x"]`, out)
}
