// Package session drives one synthesize-review-execute session: it owns the
// candidate history and moves between phases in response to key commands.
package session

import (
	"gptxt/internal/synth"

	"github.com/google/uuid"
)

// Params are the fixed inputs of a session. They are set once at startup.
type Params struct {
	ID          uuid.UUID
	Task        string
	Input       string
	Temperature float32
	MaxTokens   int
	Jsonify     bool
	JSONOneLine bool
	// ShowLines previews that many input lines in the prompt when set.
	ShowLines  *int
	ShowPrompt bool
}

// NewParams returns Params with a fresh session ID.
func NewParams(task, input string) Params {
	return Params{
		ID:    uuid.New(),
		Task:  task,
		Input: input,
	}
}

func (p Params) request() synth.Request {
	return synth.Request{
		Task:        p.Task,
		Input:       p.Input,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		Jsonify:     p.Jsonify,
		JSONOneLine: p.JSONOneLine,
		ShowLines:   p.ShowLines,
	}
}
