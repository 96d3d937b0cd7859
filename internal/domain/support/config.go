package support

import (
	"time"

	"github.com/yanqian/support-assistant/internal/domain/qa"
)

// Config holds runtime knobs for the support service.
type Config struct {
	Prompt             string
	Temperature        float32
	MaxTokens          int
	CacheTTL           time.Duration
	TopRecommendations int

	// HistoryTokenBudget caps the conversation sent to the generator.
	HistoryTokenBudget int

	// Links expands [LINK:key] tags in generated replies.
	Links map[string]string

	FallbackMessages map[qa.Language]string
}
