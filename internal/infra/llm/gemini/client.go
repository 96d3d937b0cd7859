package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Client wraps the Gemini API SDK with the two calls the assistant needs.
type Client struct {
	client *genai.Client
}

// NewClient constructs a Gemini client. baseURL is only set for tests and proxies.
func NewClient(ctx context.Context, apiKey, baseURL string, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key cannot be empty")
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: client}, nil
}

// Turn is one conversation message using Gemini roles ("user" or "model").
type Turn struct {
	Role string
	Text string
}

// GenerateRequest carries a single non streaming generation.
type GenerateRequest struct {
	Model       string
	System      string
	Turns       []Turn
	Temperature float32
	MaxTokens   int
}

// GenerateResponse is the flattened SDK reply.
type GenerateResponse struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Generate calls models.generateContent.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	contents := make([]*genai.Content, 0, len(req.Turns))
	for _, turn := range req.Turns {
		role := genai.Role(genai.RoleUser)
		if turn.Role == string(genai.RoleModel) {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	resp, err := c.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("generate content: %w", err)
	}
	out := GenerateResponse{Text: resp.Text(), Model: resp.ModelVersion}
	if out.Model == "" {
		out.Model = req.Model
	}
	if usage := resp.UsageMetadata; usage != nil {
		out.PromptTokens = int(usage.PromptTokenCount)
		out.CompletionTokens = int(usage.CandidatesTokenCount)
		out.TotalTokens = int(usage.TotalTokenCount)
	}
	return out, nil
}

// ListModels returns model names that support generateContent, without the "models/" prefix.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var out []string
	for model, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
		if !supportsGeneration(model.SupportedActions) {
			continue
		}
		out = append(out, strings.TrimPrefix(model.Name, "models/"))
	}
	return out, nil
}

func supportsGeneration(actions []string) bool {
	if len(actions) == 0 {
		return true
	}
	for _, action := range actions {
		if action == "generateContent" {
			return true
		}
	}
	return false
}
