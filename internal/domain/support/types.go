package support

import (
	"time"

	"github.com/yanqian/support-assistant/internal/domain/qa"
	"github.com/yanqian/support-assistant/pkg/metrics"
)

// Source identifies where a reply came from.
type Source string

const (
	// SourceKnowledgeBase is a canned answer chosen by the offline matcher.
	SourceKnowledgeBase Source = "knowledge_base"
	// SourceCache is a previously generated answer for the same question.
	SourceCache Source = "cache"
	// SourceLLM is a freshly generated answer.
	SourceLLM Source = "llm"
	// SourceFallback is the static per-language message.
	SourceFallback Source = "fallback"
)

// Message is one turn of the conversation sent by the chat widget.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries the conversation so far; the last user turn is the query.
type Request struct {
	Messages []Message `json:"messages"`
	Language string    `json:"language,omitempty"`
}

// Response is returned to the HTTP transport.
type Response struct {
	Reply           string              `json:"reply"`
	Source          Source              `json:"source"`
	Language        qa.Language         `json:"language"`
	Category        string              `json:"category,omitempty"`
	MatchedQuestion string              `json:"matchedQuestion,omitempty"`
	Score           int                 `json:"score"`
	Links           []qa.Link           `json:"links,omitempty"`
	Model           string              `json:"model,omitempty"`
	DurationMs      int64               `json:"durationMs,omitempty"`
	TokenUsage      *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// TrendingQuery represents a frequently matched question.
type TrendingQuery struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// AnswerRecord captures a generated answer persisted in the KV cache.
type AnswerRecord struct {
	Key       string      `json:"key"`
	Language  qa.Language `json:"language"`
	Question  string      `json:"question"`
	Answer    string      `json:"answer"`
	Model     string      `json:"model,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// ModelSnapshot describes which generative models are believed usable.
type ModelSnapshot struct {
	Models      []string  `json:"models"`
	Ready       bool      `json:"ready"`
	RefreshedAt time.Time `json:"refreshedAt,omitempty"`
	Error       string    `json:"error,omitempty"`
}
