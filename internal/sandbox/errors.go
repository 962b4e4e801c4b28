package sandbox

import (
	"errors"
	"fmt"
)

// ErrResultNotFound is returned when a script ran but never set `result`.
var ErrResultNotFound = errors.New("'result' variable not found")

// CompileError wraps a parse or type-check failure.
type CompileError struct {
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("error compiling program: %s", e.Message)
}

// ExecutionError carries the interpreter's full rendering of a runtime fault.
type ExecutionError struct {
	Trace string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("error executing program: %s", e.Trace)
}

// ResultConversionError reports a `result` whose type has no string form.
type ResultConversionError struct {
	TypeName string
}

func (e *ResultConversionError) Error() string {
	return fmt.Sprintf("failed to convert 'result' to a string; type is: %s", e.TypeName)
}
