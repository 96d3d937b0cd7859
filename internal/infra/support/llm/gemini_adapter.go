package llm

import (
	"context"
	"strings"

	"github.com/yanqian/support-assistant/internal/domain/support"
	"github.com/yanqian/support-assistant/internal/infra/llm/gemini"
	"github.com/yanqian/support-assistant/pkg/metrics"
)

// GeminiGenerator adapts the Gemini SDK wrapper to the support domain.
type GeminiGenerator struct {
	client       *gemini.Client
	defaultModel string
}

// NewGeminiGenerator constructs the adapter.
func NewGeminiGenerator(client *gemini.Client, defaultModel string) *GeminiGenerator {
	return &GeminiGenerator{client: client, defaultModel: defaultModel}
}

// Generate maps assistant turns to Gemini's "model" role.
func (g *GeminiGenerator) Generate(ctx context.Context, req support.GenerateRequest) (support.GenerateResult, error) {
	turns := make([]gemini.Turn, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		turns = append(turns, gemini.Turn{Role: role, Text: msg.Content})
	}
	resp, err := g.client.Generate(ctx, gemini.GenerateRequest{
		Model:       pickModel(req.Model, g.defaultModel),
		System:      req.System,
		Turns:       turns,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return support.GenerateResult{}, err
	}
	return support.GenerateResult{
		Text:  strings.TrimSpace(resp.Text),
		Model: resp.Model,
		Usage: metrics.TokenUsage{
			PromptTokens:     resp.PromptTokens,
			CompletionTokens: resp.CompletionTokens,
			TotalTokens:      resp.TotalTokens,
		},
	}, nil
}

// ListModels implements support.ModelLister.
func (g *GeminiGenerator) ListModels(ctx context.Context) ([]string, error) {
	return g.client.ListModels(ctx)
}

var (
	_ support.Generator   = (*GeminiGenerator)(nil)
	_ support.ModelLister = (*GeminiGenerator)(nil)
)
