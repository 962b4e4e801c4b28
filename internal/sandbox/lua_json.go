package sandbox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

// openJSON installs the json table as a global and as a require-able module.
//
//	json.encode(value [, {separators = {item, key}, indent = n|str}])
//	json.decode(text)
func openJSON(L *lua.LState) {
	L.SetGlobal("json", newJSONModule(L))
	L.PreloadModule("json", func(L *lua.LState) int {
		L.Push(newJSONModule(L))
		return 1
	})
}

func newJSONModule(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"encode": luaJSONEncode,
		"decode": luaJSONDecode,
	})
}

type jsonFormat struct {
	itemSep string
	keySep  string
	indent  string
}

func luaJSONEncode(L *lua.LState) int {
	value := L.CheckAny(1)
	format := jsonFormat{itemSep: ", ", keySep: ": "}
	if opts, ok := L.Get(2).(*lua.LTable); ok {
		format = parseJSONFormat(L, opts)
	}

	var b strings.Builder
	enc := &jsonEncoder{format: format, seen: make(map[*lua.LTable]bool)}
	if err := enc.encode(&b, value, 0); err != nil {
		L.RaiseError("json.encode: %s", err.Error())
		return 0
	}
	L.Push(lua.LString(b.String()))
	return 1
}

func parseJSONFormat(L *lua.LState, opts *lua.LTable) jsonFormat {
	format := jsonFormat{itemSep: ", ", keySep: ": "}

	switch indent := opts.RawGetString("indent").(type) {
	case lua.LNumber:
		format.indent = strings.Repeat(" ", int(indent))
	case lua.LString:
		format.indent = string(indent)
	}
	if format.indent != "" {
		format.itemSep = ","
	}

	if seps, ok := opts.RawGetString("separators").(*lua.LTable); ok {
		item, itemOK := seps.RawGetInt(1).(lua.LString)
		key, keyOK := seps.RawGetInt(2).(lua.LString)
		if !itemOK || !keyOK {
			L.ArgError(2, "separators must be a pair of strings")
		}
		format.itemSep = string(item)
		format.keySep = string(key)
	}
	return format
}

type jsonEncoder struct {
	format jsonFormat
	seen   map[*lua.LTable]bool
}

func (e *jsonEncoder) encode(b *strings.Builder, value lua.LValue, depth int) error {
	switch v := value.(type) {
	case *lua.LNilType:
		b.WriteString("null")
	case lua.LBool:
		b.WriteString(strconv.FormatBool(bool(v)))
	case lua.LNumber:
		s, err := formatJSONNumber(float64(v))
		if err != nil {
			return err
		}
		b.WriteString(s)
	case lua.LString:
		b.WriteString(quoteJSON(string(v)))
	case *lua.LTable:
		if e.seen[v] {
			return fmt.Errorf("circular reference")
		}
		e.seen[v] = true
		defer delete(e.seen, v)
		if n, ok := arrayLength(v); ok {
			return e.encodeArray(b, v, n, depth)
		}
		return e.encodeObject(b, v, depth)
	default:
		return fmt.Errorf("cannot encode value of type %s", value.Type().String())
	}
	return nil
}

func (e *jsonEncoder) encodeArray(b *strings.Builder, t *lua.LTable, n, depth int) error {
	b.WriteByte('[')
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteString(e.format.itemSep)
		}
		e.newline(b, depth+1)
		if err := e.encode(b, t.RawGetInt(i), depth+1); err != nil {
			return err
		}
	}
	e.newline(b, depth)
	b.WriteByte(']')
	return nil
}

func (e *jsonEncoder) encodeObject(b *strings.Builder, t *lua.LTable, depth int) error {
	type member struct {
		key   string
		value lua.LValue
	}
	var members []member
	var keyErr error
	t.ForEach(func(k, v lua.LValue) {
		switch key := k.(type) {
		case lua.LString:
			members = append(members, member{key: string(key), value: v})
		case lua.LNumber:
			s, err := formatJSONNumber(float64(key))
			if err != nil {
				keyErr = err
				return
			}
			members = append(members, member{key: s, value: v})
		default:
			keyErr = fmt.Errorf("object keys must be strings or numbers, got %s", k.Type().String())
		}
	})
	if keyErr != nil {
		return keyErr
	}
	if len(members) == 0 {
		b.WriteString("{}")
		return nil
	}
	sort.Slice(members, func(i, j int) bool { return members[i].key < members[j].key })

	b.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			b.WriteString(e.format.itemSep)
		}
		e.newline(b, depth+1)
		b.WriteString(quoteJSON(m.key))
		b.WriteString(e.format.keySep)
		if err := e.encode(b, m.value, depth+1); err != nil {
			return err
		}
	}
	e.newline(b, depth)
	b.WriteByte('}')
	return nil
}

func (e *jsonEncoder) newline(b *strings.Builder, depth int) {
	if e.format.indent == "" {
		return
	}
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(e.format.indent, depth))
}

// arrayLength reports whether t is a non-empty sequence 1..n with no other keys.
func arrayLength(t *lua.LTable) (int, bool) {
	n := t.Len()
	if n == 0 {
		return 0, false
	}
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })
	return n, count == n
}

func formatJSONNumber(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("cannot encode %v", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10), nil
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

func quoteJSON(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func luaJSONDecode(L *lua.LState) int {
	value, err := luajson.Decode(L, []byte(L.CheckString(1)))
	if err != nil {
		L.RaiseError("json.decode: %s", err.Error())
		return 0
	}
	L.Push(value)
	return 1
}
