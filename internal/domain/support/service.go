package support

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/support-assistant/internal/domain/qa"
	apperrors "github.com/yanqian/support-assistant/pkg/errors"
	"github.com/yanqian/support-assistant/pkg/metrics"
	"github.com/yanqian/support-assistant/pkg/util"
)

// Service answers support questions, preferring canned answers over generated ones.
type Service interface {
	Reply(ctx context.Context, req Request) (Response, error)
	Trending(ctx context.Context) ([]TrendingQuery, error)
	Models(ctx context.Context) ModelSnapshot
}

type service struct {
	cfg       Config
	matcher   Matcher
	detector  LanguageDetector
	store     Store
	generator Generator
	catalog   *ModelCatalog
	counter   TokenCounter
	recorder  *metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires up the support domain. generator may be nil, in which
// case unmatched questions get the static fallback message.
func NewService(
	cfg Config,
	matcher Matcher,
	detector LanguageDetector,
	store Store,
	generator Generator,
	catalog *ModelCatalog,
	counter TokenCounter,
	recorder *metrics.Recorder,
	logger *slog.Logger,
) Service {
	return &service{
		cfg:       cfg,
		matcher:   matcher,
		detector:  detector,
		store:     store,
		generator: generator,
		catalog:   catalog,
		counter:   counter,
		recorder:  recorder,
		logger:    logger.With("component", "support.service"),
		now:       util.NowUTC,
	}
}

func (s *service) Reply(ctx context.Context, req Request) (Response, error) {
	start := s.now()
	query, ok := lastUserMessage(req.Messages)
	if !ok {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "messages must contain a user question", nil)
	}

	lang := s.resolveLanguage(req.Language, query)
	result := s.matcher.FindBestMatch(query, lang)
	s.recorder.ObserveScore(result.Score)

	if result.Matched() {
		entry := *result.Entry
		if err := s.store.IncrementQuery(ctx, qa.Normalize(entry.Question), entry.Question); err != nil {
			s.logger.Warn("trending increment failed", "error", err)
		}
		return s.finish(Response{
			Reply:           composeAnswer(entry),
			Source:          SourceKnowledgeBase,
			Language:        lang,
			Category:        entry.Category,
			MatchedQuestion: entry.Question,
			Score:           result.Score,
			Links:           entry.Links,
		}, start), nil
	}

	key := cacheKey(lang, query)
	cached, found, err := s.store.GetAnswer(ctx, key)
	if err != nil {
		s.logger.Warn("answer cache lookup failed", "error", err)
	}
	if found {
		return s.finish(Response{
			Reply:    cached.Answer,
			Source:   SourceCache,
			Language: lang,
			Score:    result.Score,
			Model:    cached.Model,
		}, start), nil
	}

	if s.generator == nil {
		return s.finish(s.fallback(lang, result.Score), start), nil
	}

	generated, err := s.generate(ctx, lang, req.Messages)
	if err != nil {
		s.logger.Warn("generative fallback failed, serving static reply", "error", err, "language", lang)
		return s.finish(s.fallback(lang, result.Score), start), nil
	}

	record := AnswerRecord{
		Key:       key,
		Language:  lang,
		Question:  query,
		Answer:    generated.Text,
		Model:     generated.Model,
		CreatedAt: s.now(),
	}
	if err := s.store.SaveAnswer(ctx, record, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("answer cache save failed", "error", err)
	}

	resp := Response{
		Reply:    generated.Text,
		Source:   SourceLLM,
		Language: lang,
		Score:    result.Score,
		Model:    generated.Model,
	}
	if !generated.Usage.IsZero() {
		usage := generated.Usage
		resp.TokenUsage = &usage
		s.recorder.ObserveUsage(usage)
	}
	return s.finish(resp, start), nil
}

func (s *service) Trending(ctx context.Context) ([]TrendingQuery, error) {
	recs, err := s.store.TopQueries(ctx, s.cfg.TopRecommendations)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStoreError, "failed to load trending queries", err)
	}
	return recs, nil
}

func (s *service) Models(_ context.Context) ModelSnapshot {
	return s.catalog.Snapshot()
}

func (s *service) generate(ctx context.Context, lang qa.Language, messages []Message) (GenerateResult, error) {
	history := trimHistory(messages, s.cfg.HistoryTokenBudget, s.counter)
	if len(history) == 0 {
		return GenerateResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "no conversation to send", nil)
	}
	model := s.catalog.Preferred()
	out, err := s.generator.Generate(ctx, GenerateRequest{
		Model:       model,
		System:      s.systemPrompt(lang),
		Messages:    history,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return GenerateResult{}, apperrors.Wrap(apperrors.CodeLLMError, "generation failed", err)
	}
	text := expandLinkTags(out.Text, s.cfg.Links)
	if text == "" {
		return GenerateResult{}, apperrors.Wrap(apperrors.CodeLLMError, "generator returned empty reply", nil)
	}
	out.Text = text
	if out.Model == "" {
		out.Model = model
	}
	return out, nil
}

func (s *service) systemPrompt(lang qa.Language) string {
	prompt := strings.TrimSpace(s.cfg.Prompt)
	if prompt == "" {
		prompt = "You are a concise, friendly support assistant for an online learning platform."
	}
	switch lang {
	case qa.LanguageSpanish:
		return prompt + "\n\nResponde en español."
	default:
		return prompt + "\n\nAnswer in English."
	}
}

func (s *service) fallback(lang qa.Language, score int) Response {
	msg := s.cfg.FallbackMessages[lang]
	if msg == "" {
		msg = s.cfg.FallbackMessages[qa.LanguageEnglish]
	}
	return Response{
		Reply:    msg,
		Source:   SourceFallback,
		Language: lang,
		Score:    score,
	}
}

func (s *service) finish(resp Response, start time.Time) Response {
	resp.DurationMs = s.now().Sub(start).Milliseconds()
	s.recorder.ObserveReply(string(resp.Source), string(resp.Language))
	return resp
}

func (s *service) resolveLanguage(requested, query string) qa.Language {
	if lang, ok := qa.ParseLanguage(requested); ok {
		return lang
	}
	return s.detector.Detect(query)
}

func cacheKey(lang qa.Language, query string) string {
	canonical := strings.Join(strings.Fields(qa.Normalize(query)), " ")
	sum := sha256.Sum256([]byte(string(lang) + "\x00" + canonical))
	return string(lang) + ":" + hex.EncodeToString(sum[:12])
}
