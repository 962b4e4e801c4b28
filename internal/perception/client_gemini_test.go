package perception

import (
	"context"
	"errors"
	"testing"

	"gptxt/internal/usage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func textCandidate(parts ...*genai.Part) *genai.Candidate {
	return &genai.Candidate{Content: &genai.Content{Role: genai.RoleModel, Parts: parts}}
}

func TestGeminiClient_Complete(t *testing.T) {
	gen := &fakeGenerator{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			textCandidate(
				&genai.Part{Text: "thinking...", Thought: true},
				&genai.Part{Text: "result = "},
				&genai.Part{Text: "data:upper()"},
			),
		},
	}}
	client := newGeminiClient(gen, GeminiConfig{Model: "gemini-test"})

	out, err := client.Complete(context.Background(), CompletionRequest{
		Prompt:      "-- uppercase the text:",
		Temperature: 0.25,
		MaxTokens:   512,
	})
	require.NoError(t, err)
	require.Len(t, out.Choices, 1)
	assert.Equal(t, "result = data:upper()", out.Choices[0].Text)

	assert.Equal(t, "gemini-test", gen.model)
	require.Len(t, gen.contents, 1)
	assert.Equal(t, "-- uppercase the text:", gen.contents[0].Parts[0].Text)
	require.NotNil(t, gen.config.Temperature)
	assert.Equal(t, float32(0.25), *gen.config.Temperature)
	assert.Equal(t, int32(512), gen.config.MaxOutputTokens)
	assert.Equal(t, int32(1), gen.config.CandidateCount)
}

func TestGeminiClient_RequestModelOverrides(t *testing.T) {
	gen := &fakeGenerator{resp: &genai.GenerateContentResponse{}}
	client := newGeminiClient(gen, GeminiConfig{})

	out, err := client.Complete(context.Background(), CompletionRequest{Model: "other", Prompt: "x"})
	require.NoError(t, err)
	assert.Empty(t, out.Choices)
	assert.Equal(t, "other", gen.model)
}

func TestGeminiClient_DefaultModel(t *testing.T) {
	client := newGeminiClient(&fakeGenerator{}, GeminiConfig{Model: "  "})
	assert.Equal(t, "gemini-2.5-flash", client.model)
}

func TestGeminiClient_PropagatesErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	client := newGeminiClient(&fakeGenerator{err: boom}, GeminiConfig{})

	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), GeminiConfig{})
	assert.Error(t, err)
}

func TestGeminiClient_TracksUsage(t *testing.T) {
	gen := &fakeGenerator{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{textCandidate(&genai.Part{Text: "result = data"})},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     40,
			CandidatesTokenCount: 7,
		},
	}}
	client := newGeminiClient(gen, GeminiConfig{Model: "gemini-2.5-flash"})

	tracker := usage.NewTracker()
	ctx := usage.WithOperation(usage.NewContext(context.Background(), tracker), "regenerate")
	_, err := client.Complete(ctx, CompletionRequest{Prompt: "p"})
	require.NoError(t, err)

	stats := tracker.Stats()
	assert.Equal(t, 1, stats.Calls)
	assert.Equal(t, usage.TokenCounts{Input: 40, Output: 7, Total: 47}, stats.ByOperation["regenerate"])
}
