// Package synth turns a task description into a candidate script by prompting
// the completion service and cleaning up what it returns.
package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gptxt/internal/logging"
	"gptxt/internal/perception"
	"gptxt/internal/sandbox"

	"go.uber.org/zap"
)

// ErrNoChoices is returned when the completion service answers with nothing.
var ErrNoChoices = errors.New("completion returned no choices")

// Completer is the completion service.
type Completer interface {
	Complete(ctx context.Context, req perception.CompletionRequest) (*perception.Completion, error)
}

// Request carries the session parameters that shape a candidate.
type Request struct {
	Task        string
	Input       string
	Temperature float32
	MaxTokens   int
	Jsonify     bool
	JSONOneLine bool
	// ShowLines, when set, previews that many leading input lines in the prompt.
	ShowLines *int
}

// Result is the assembled prompt and the finished candidate text.
type Result struct {
	Prompt    string
	Candidate string
}

// Synthesizer builds prompts for one script dialect.
type Synthesizer struct {
	client  Completer
	model   string
	dialect sandbox.Dialect
}

// New creates a Synthesizer.
func New(client Completer, model string, dialect sandbox.Dialect) *Synthesizer {
	return &Synthesizer{client: client, model: model, dialect: dialect}
}

// Synthesize prompts the completion service and returns the prompt together
// with the post-processed first choice.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (Result, error) {
	log := logging.Get(logging.CategorySynth)

	prompt := s.BuildPrompt(req)
	completion, err := s.client.Complete(ctx, perception.CompletionRequest{
		Model:       s.model,
		Prompt:      prompt,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return Result{}, err
	}
	if completion == nil || len(completion.Choices) == 0 {
		return Result{}, ErrNoChoices
	}

	candidate := PostProcess(s.dialect, cleanCompletion(completion.Choices[0].Text), req.Jsonify, req.JSONOneLine)
	log.Debug("candidate synthesized",
		zap.String("dialect", string(s.dialect)),
		zap.Int("choices", len(completion.Choices)),
		zap.Int("candidate_bytes", len(candidate)))
	return Result{Prompt: prompt, Candidate: candidate}, nil
}

// BuildPrompt assembles the preamble, the optional input preview and the task.
func (s *Synthesizer) BuildPrompt(req Request) string {
	tmpl := templateFor(s.dialect)

	var b strings.Builder
	b.WriteString(tmpl.preamble)

	if req.ShowLines != nil {
		n := *req.ShowLines
		fmt.Fprintf(&b, "\n%s First %d lines of `data`:\n", tmpl.comment, n)
		for _, line := range firstLines(req.Input, n) {
			b.WriteString(tmpl.comment)
			b.WriteString(">")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\n%s %s:", tmpl.comment, req.Task)
	return b.String()
}

// PostProcess appends the JSON serialization of `result` when requested.
// The one-line form wins over the default form.
func PostProcess(dialect sandbox.Dialect, candidate string, jsonify, oneLine bool) string {
	tmpl := templateFor(dialect)
	switch {
	case oneLine:
		return candidate + "\n" + tmpl.jsonOneLine
	case jsonify:
		return candidate + "\n" + tmpl.jsonDefault
	default:
		return candidate
	}
}

// cleanCompletion trims whitespace and a Markdown code fence around the text.
func cleanCompletion(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		return ""
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}

// firstLines returns up to n lines of s, without line terminators.
func firstLines(s string, n int) []string {
	if n <= 0 || s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		out = append(out, line)
	}
	return out
}
