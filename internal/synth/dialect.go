package synth

import "gptxt/internal/sandbox"

// template is the per-language text the synthesizer wraps around a task.
type template struct {
	comment  string
	preamble string

	// Appended to a candidate to turn `result` into JSON. A nil result is
	// left alone so the run still fails with a missing result.
	jsonOneLine string
	jsonDefault string
}

const luaPreamble = `-- You are part of a tool that creates Lua code for text processing.
-- You should return only Lua code with no comments.
-- Do not describe the code or add any additional information about the code.
-- Data to process is already stored in the string variable ` + "`data`" + `.
-- Do not read standard input.
-- Results should be stored in the variable ` + "`result`" + `.
-- A ` + "`json`" + ` table with json.encode(value) and json.decode(text) is available.
`

const goPreamble = `// You are part of a tool that creates Go code for text processing.
// You should return only Go statements with no comments.
// Do not describe the code or add any additional information about the code.
// Do not declare a package or functions named main; write statements only.
// Import standard library packages with single-line import statements.
// Data to process is already stored in the string variable ` + "`data`" + `.
// Do not read standard input.
// Results should be assigned with = to the predeclared variable ` + "`result`" + ` (type interface{}).
`

var templates = map[sandbox.Dialect]template{
	sandbox.DialectLua: {
		comment:     "--",
		preamble:    luaPreamble,
		jsonOneLine: `if result ~= nil then result = json.encode(result, {separators = {",", ":"}}) end`,
		jsonDefault: `if result ~= nil then result = json.encode(result) end`,
	},
	sandbox.DialectGo: {
		comment:  "//",
		preamble: goPreamble,
		jsonOneLine: "import \"encoding/json\"\n" +
			"if result != nil { if b, err := json.Marshal(result); err != nil { panic(err) } else { result = string(b) } }",
		jsonDefault: "import \"encoding/json\"\n" +
			"if result != nil { if b, err := json.MarshalIndent(result, \"\", \"  \"); err != nil { panic(err) } else { result = string(b) } }",
	},
}

func templateFor(d sandbox.Dialect) template {
	if t, ok := templates[d]; ok {
		return t
	}
	return templates[sandbox.DialectLua]
}
