package sandbox

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"gptxt/internal/logging"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"
)

// =============================================================================
// YAEGI INTERPRETER EXECUTOR
// =============================================================================
// Go candidates are statement lists. Import lines may appear anywhere in the
// candidate; they are hoisted into the file's import block and the remaining
// statements become the body of a closure that sees `data` and assigns the
// predeclared `result` (type interface{}).

// GoExecutor runs Go candidates on the yaegi interpreter.
type GoExecutor struct {
	// Packages every wrapped program imports for its own bookkeeping.
	requiredImports []string
}

// NewGoExecutor creates a Go executor.
func NewGoExecutor() *GoExecutor {
	return &GoExecutor{
		requiredImports: []string{`"fmt"`},
	}
}

type goRunResult struct {
	value    string
	typeName string
	found    bool
	panicked bool
	trace    string
}

// Execute compiles the wrapped candidate in a new interpreter and calls its
// Run function with input.
func (ge *GoExecutor) Execute(ctx context.Context, input, script string) (string, error) {
	log := logging.Get(logging.CategorySandbox)

	imports, body := splitImports(script)
	src := ge.wrapCode(imports, body)

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return "", fmt.Errorf("failed to load stdlib: %w", err)
	}

	if _, err := i.Eval(src); err != nil {
		return "", &CompileError{Message: err.Error()}
	}

	runValue, err := i.Eval("main.Run")
	if err != nil {
		return "", &CompileError{Message: fmt.Sprintf("Run function not found: %v", err)}
	}
	run, ok := runValue.Interface().(func(string) (string, string, bool))
	if !ok {
		return "", &CompileError{Message: "Run has an unexpected signature"}
	}

	done := make(chan goRunResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- goRunResult{
					panicked: true,
					trace:    fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack()),
				}
			}
		}()
		value, typeName, found := run(input)
		done <- goRunResult{value: value, typeName: typeName, found: found}
	}()

	var res goRunResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return "", fmt.Errorf("program execution interrupted: %w", ctx.Err())
	}

	switch {
	case res.panicked:
		log.Debug("go candidate panicked", zap.String("trace", res.trace))
		return "", &ExecutionError{Trace: res.trace}
	case !res.found:
		return "", ErrResultNotFound
	case res.typeName != "string":
		return "", &ResultConversionError{TypeName: res.typeName}
	}
	return normalizeResult(res.value), nil
}

// wrapCode builds a complete main package around the candidate body.
func (ge *GoExecutor) wrapCode(imports []string, body string) string {
	all := dedupeImports(append(append([]string{}, ge.requiredImports...), imports...))

	var b strings.Builder
	b.WriteString("package main\n\nimport (\n")
	for _, imp := range all {
		b.WriteString("\t")
		b.WriteString(imp)
		b.WriteString("\n")
	}
	b.WriteString(")\n\n")
	b.WriteString("func Run(data string) (string, string, bool) {\n")
	b.WriteString("\tvar result interface{}\n")
	b.WriteString("\tfunc() {\n")
	b.WriteString(body)
	b.WriteString("\n\t}()\n")
	b.WriteString("\tif result == nil {\n\t\treturn \"\", \"\", false\n\t}\n")
	b.WriteString("\tif s, ok := result.(string); ok {\n\t\treturn s, \"string\", true\n\t}\n")
	b.WriteString("\treturn \"\", fmt.Sprintf(\"%T\", result), true\n")
	b.WriteString("}\n")
	return b.String()
}

// splitImports separates import declarations from the statements of a
// candidate. Both single-line imports and parenthesized blocks are recognized.
func splitImports(code string) (imports []string, body string) {
	lines := strings.Split(code, "\n")
	var rest []string

	inImportBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if inImportBlock {
			if strings.HasPrefix(trimmed, ")") {
				inImportBlock = false
				continue
			}
			imports = append(imports, importSpecs(trimmed)...)
			continue
		}

		after := strings.TrimPrefix(trimmed, "import")
		if after == trimmed || after == "" || !strings.ContainsAny(after[:1], " \t(") {
			// not the keyword, e.g. importance := 1
			rest = append(rest, line)
			continue
		}
		spec := strings.TrimSpace(after)
		switch {
		case spec == "(":
			inImportBlock = true
		case strings.HasPrefix(spec, "(") && strings.HasSuffix(spec, ")"):
			imports = append(imports, importSpecs(strings.TrimSuffix(strings.TrimPrefix(spec, "("), ")"))...)
		default:
			imports = append(imports, importSpecs(spec)...)
		}
	}
	return imports, strings.Join(rest, "\n")
}

// importSpecs splits a line of import specs separated by semicolons.
func importSpecs(line string) []string {
	var specs []string
	for _, part := range strings.Split(line, ";") {
		part = strings.TrimSpace(part)
		if part == "" || strings.HasPrefix(part, "//") {
			continue
		}
		specs = append(specs, part)
	}
	return specs
}

func dedupeImports(imports []string) []string {
	seen := make(map[string]bool, len(imports))
	var out []string
	for _, imp := range imports {
		if seen[imp] {
			continue
		}
		seen[imp] = true
		out = append(out, imp)
	}
	return out
}
