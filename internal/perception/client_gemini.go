package perception

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gptxt/internal/logging"
	"gptxt/internal/usage"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// =============================================================================
// GOOGLE GENAI COMPLETION CLIENT
// =============================================================================

// contentGenerator is the slice of genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GeminiClient implements Client on the Google GenAI SDK.
type GeminiClient struct {
	models  contentGenerator
	model   string
	timeout time.Duration
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:  apiKey,
		Model:   "gemini-2.5-flash",
		Timeout: 120 * time.Second,
	}
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, config GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newGeminiClient(client.Models, config), nil
}

func newGeminiClient(models contentGenerator, config GeminiConfig) *GeminiClient {
	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiClient{
		models:  models,
		model:   model,
		timeout: config.Timeout,
	}
}

// Complete sends the prompt and returns one choice per response candidate.
func (c *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	log := logging.Get(logging.CategoryAPI)

	model := req.Model
	if model == "" {
		model = c.model
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:    genai.Ptr(req.Temperature),
		CandidateCount: 1,
	}
	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.MaxTokens)
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, model, genai.Text(req.Prompt), genConfig)
	if err != nil {
		log.Warn("generate content failed", zap.String("model", model), zap.Error(err))
		return nil, fmt.Errorf("GenAI generate failed: %w", err)
	}

	completion := &Completion{}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var text strings.Builder
		for _, part := range cand.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text.WriteString(part.Text)
		}
		completion.Choices = append(completion.Choices, Choice{Text: text.String()})
	}

	if tracker := usage.FromContext(ctx); tracker != nil && resp.UsageMetadata != nil {
		tracker.Track(ctx, model,
			int(resp.UsageMetadata.PromptTokenCount),
			int(resp.UsageMetadata.CandidatesTokenCount))
	}

	log.Debug("generate content",
		zap.String("model", model),
		zap.Int("prompt_bytes", len(req.Prompt)),
		zap.Int("choices", len(completion.Choices)),
		zap.Duration("elapsed", time.Since(start)))
	return completion, nil
}
