// Package perception talks to the text-completion service that turns a task
// description into a candidate script.
package perception

import "context"

// CompletionRequest is a single prompt sent to the completion service.
type CompletionRequest struct {
	Model       string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Choice is one completion returned by the service.
type Choice struct {
	Text string
}

// Completion holds the service's choices in the order returned.
type Completion struct {
	Choices []Choice
}

// Client is a completion provider.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}
