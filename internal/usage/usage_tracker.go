// Package usage counts completion tokens spent during a session.
package usage

import (
	"context"
	"sync"
	"time"
)

type contextKey struct{}

type operationKey struct{}

// Tracker accumulates token usage in memory. It is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	events []Event
	stats  Stats
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		stats: Stats{
			ByModel:     make(map[string]TokenCounts),
			ByOperation: make(map[string]TokenCounts),
		},
	}
}

// Track records one completion call. The operation is taken from ctx
// (see WithOperation) and defaults to "unknown".
func (t *Tracker) Track(ctx context.Context, model string, input, output int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	operation := OperationFrom(ctx)
	t.events = append(t.events, Event{
		Timestamp:    time.Now(),
		Model:        model,
		InputTokens:  input,
		OutputTokens: output,
		Operation:    operation,
	})

	t.stats.Calls++
	t.stats.Total.Add(input, output)
	addToMap(t.stats.ByModel, model, input, output)
	addToMap(t.stats.ByOperation, operation, input, output)
}

// Events returns a copy of the recorded calls in order.
func (t *Tracker) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.events...)
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.stats
	stats.ByModel = copyTokenCountsMap(stats.ByModel)
	stats.ByOperation = copyTokenCountsMap(stats.ByOperation)
	return stats
}

func copyTokenCountsMap(src map[string]TokenCounts) map[string]TokenCounts {
	dst := make(map[string]TokenCounts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]TokenCounts, key string, input, output int) {
	entry := m[key]
	entry.Add(input, output)
	m[key] = entry
}

// Context Helpers

// NewContext returns a new context carrying the tracker.
func NewContext(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext retrieves the tracker from the context, or nil.
func FromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(contextKey{}).(*Tracker)
	return t
}

// WithOperation labels completion calls made with the returned context.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationKey{}, operation)
}

// OperationFrom returns the operation label carried by ctx.
func OperationFrom(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey{}).(string); ok && op != "" {
		return op
	}
	return "unknown"
}
