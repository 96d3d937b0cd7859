package llm

import (
	"context"
	"strings"

	"github.com/yanqian/support-assistant/internal/domain/support"
	"github.com/yanqian/support-assistant/internal/infra/llm/anthropic"
	"github.com/yanqian/support-assistant/pkg/metrics"
)

// AnthropicGenerator adapts the Messages API client to the support domain.
type AnthropicGenerator struct {
	client       *anthropic.Client
	defaultModel string
}

// NewAnthropicGenerator constructs the adapter.
func NewAnthropicGenerator(client *anthropic.Client, defaultModel string) *AnthropicGenerator {
	return &AnthropicGenerator{client: client, defaultModel: defaultModel}
}

// Generate sends the trimmed conversation with the system prompt split out.
func (g *AnthropicGenerator) Generate(ctx context.Context, req support.GenerateRequest) (support.GenerateResult, error) {
	model := pickModel(req.Model, g.defaultModel)
	payload := anthropic.MessagesRequest{
		Model:     model,
		System:    req.System,
		MaxTokens: req.MaxTokens,
		Messages:  make([]anthropic.Message, 0, len(req.Messages)),
	}
	if req.Temperature > 0 {
		temperature := req.Temperature
		payload.Temperature = &temperature
	}
	for _, msg := range req.Messages {
		payload.Messages = append(payload.Messages, anthropic.Message{Role: msg.Role, Content: msg.Content})
	}
	resp, err := g.client.CreateMessage(ctx, payload)
	if err != nil {
		return support.GenerateResult{}, err
	}
	if resp.Model != "" {
		model = resp.Model
	}
	return support.GenerateResult{
		Text:  strings.TrimSpace(resp.Text()),
		Model: model,
		Usage: metrics.TokenUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}

// ListModels implements support.ModelLister.
func (g *AnthropicGenerator) ListModels(ctx context.Context) ([]string, error) {
	return g.client.ListModels(ctx)
}

var (
	_ support.Generator   = (*AnthropicGenerator)(nil)
	_ support.ModelLister = (*AnthropicGenerator)(nil)
)

func pickModel(requested, fallback string) string {
	if strings.TrimSpace(requested) != "" {
		return requested
	}
	return fallback
}
