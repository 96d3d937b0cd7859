package support

import (
	"context"

	"github.com/yanqian/support-assistant/internal/domain/qa"
	"github.com/yanqian/support-assistant/pkg/metrics"
)

// Matcher picks a canned answer for a message.
type Matcher interface {
	FindBestMatch(message string, lang qa.Language) qa.MatchResult
}

// LanguageDetector chooses the collection to search.
type LanguageDetector interface {
	Detect(text string) qa.Language
}

// Generator produces an answer when no canned answer is confident enough.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
}

// GenerateRequest is provider agnostic; adapters translate it.
type GenerateRequest struct {
	Model       string
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// GenerateResult is the provider reply.
type GenerateResult struct {
	Text  string
	Model string
	Usage metrics.TokenUsage
}

// ModelLister probes a provider for the models it currently serves.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// TokenCounter estimates how many tokens a text consumes.
type TokenCounter interface {
	Count(text string) int
}
