package llm

import (
	"context"
	"strings"

	"github.com/yanqian/support-assistant/internal/domain/support"
	"github.com/yanqian/support-assistant/internal/infra/llm/chatgpt"
	"github.com/yanqian/support-assistant/pkg/metrics"
)

// ChatGPTGenerator adapts the existing ChatGPT client to the support domain.
type ChatGPTGenerator struct {
	client       *chatgpt.Client
	defaultModel string
}

// NewChatGPTGenerator constructs the adapter.
func NewChatGPTGenerator(client *chatgpt.Client, defaultModel string) *ChatGPTGenerator {
	return &ChatGPTGenerator{client: client, defaultModel: defaultModel}
}

// Generate sends a chat completion request with the system prompt as the first message.
func (g *ChatGPTGenerator) Generate(ctx context.Context, req support.GenerateRequest) (support.GenerateResult, error) {
	model := pickModel(req.Model, g.defaultModel)
	payload := chatgpt.ChatCompletionRequest{
		Model:       model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages:    make([]chatgpt.Message, 0, len(req.Messages)+1),
	}
	if req.System != "" {
		payload.Messages = append(payload.Messages, chatgpt.Message{Role: "system", Content: req.System})
	}
	for _, msg := range req.Messages {
		payload.Messages = append(payload.Messages, chatgpt.Message{Role: msg.Role, Content: msg.Content})
	}
	resp, err := g.client.CreateChatCompletion(ctx, payload)
	if err != nil {
		return support.GenerateResult{}, err
	}
	if resp.Model != "" {
		model = resp.Model
	}
	out := support.GenerateResult{
		Model: model,
		Usage: metrics.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if len(resp.Choices) > 0 {
		out.Text = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	return out, nil
}

// ListModels implements support.ModelLister.
func (g *ChatGPTGenerator) ListModels(ctx context.Context) ([]string, error) {
	return g.client.ListModels(ctx)
}

var (
	_ support.Generator   = (*ChatGPTGenerator)(nil)
	_ support.ModelLister = (*ChatGPTGenerator)(nil)
)
