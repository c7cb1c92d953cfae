package query

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIGenerator implements Generator via langchaingo against OpenAI or
// any OpenAI-compatible endpoint.
type OpenAIGenerator struct {
	llm *openai.LLM
}

// NewOpenAIGenerator builds a generator for one of the supported models.
func NewOpenAIGenerator(baseURL, model, apiKey string) (*OpenAIGenerator, error) {
	if !IsSupportedModel(model) {
		return nil, fmt.Errorf("unsupported model %q (supported: %v)", model, SupportedModels)
	}

	opts := []openai.Option{
		openai.WithModel(model),
		openai.WithToken(apiKey),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}
	return &OpenAIGenerator{llm: llm}, nil
}

// Generate produces a completion for prompt.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, g.llm, prompt)
}

var _ Generator = (*OpenAIGenerator)(nil)
