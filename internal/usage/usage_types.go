package usage

import "time"

// Event is a single completion call.
type Event struct {
	Timestamp    time.Time
	Model        string
	InputTokens  int
	OutputTokens int
	Operation    string // synthesize, regenerate
}

// Stats holds counters for one session.
type Stats struct {
	Calls       int
	Total       TokenCounts
	ByModel     map[string]TokenCounts
	ByOperation map[string]TokenCounts
}

// TokenCounts holds input/output sums.
type TokenCounts struct {
	Input  int64
	Output int64
	Total  int64
}

func (tc *TokenCounts) Add(input, output int) {
	tc.Input += int64(input)
	tc.Output += int64(output)
	tc.Total += int64(input + output)
}
