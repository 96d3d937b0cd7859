package support

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/support-assistant/internal/domain/qa"
	apperrors "github.com/yanqian/support-assistant/pkg/errors"
	"github.com/yanqian/support-assistant/pkg/metrics"
)

func TestReplyServesCannedAnswer(t *testing.T) {
	store := newStubStore()
	gen := &stubGenerator{}
	svc := newServiceUnderTest(t, store, gen)

	resp, err := svc.Reply(context.Background(), Request{Messages: []Message{
		{Role: "user", Content: "hola"},
		{Role: "assistant", Content: "¿En qué te ayudo?"},
		{Role: "user", Content: "Mi código no sirve"},
	}})
	require.NoError(t, err)
	require.Equal(t, SourceKnowledgeBase, resp.Source)
	require.Equal(t, qa.LanguageSpanish, resp.Language)
	require.Equal(t, "registro", resp.Category)
	require.Equal(t, "¿Dónde encuentro mi código de acceso?", resp.MatchedQuestion)
	require.Equal(t, 2, resp.Score)
	require.Equal(t, "Revisa la portada interna de tu libro.\n\n- Registro: https://www.richmondlp.com/register", resp.Reply)
	require.Zero(t, gen.calls)

	trending, err := svc.Trending(context.Background())
	require.NoError(t, err)
	require.Equal(t, []TrendingQuery{{Query: "¿Dónde encuentro mi código de acceso?", Count: 1}}, trending)
}

func TestReplyRejectsMissingQuestion(t *testing.T) {
	svc := newServiceUnderTest(t, newStubStore(), &stubGenerator{})

	_, err := svc.Reply(context.Background(), Request{Messages: []Message{{Role: "assistant", Content: "hi"}, {Role: "user", Content: "   "}}})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestReplyGeneratesAndCachesOnMiss(t *testing.T) {
	store := newStubStore()
	gen := &stubGenerator{result: GenerateResult{
		Text:  "You can buy a license from your local office. [LINK:contacto]",
		Usage: metrics.TokenUsage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30},
	}}
	svc := newServiceUnderTest(t, store, gen)

	req := Request{Messages: []Message{{Role: "user", Content: "Where can I purchase a licence?"}}}
	first, err := svc.Reply(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, SourceLLM, first.Source)
	require.Equal(t, qa.LanguageEnglish, first.Language)
	require.Equal(t, "You can buy a license from your local office. https://www.richmond.com.mx", first.Reply)
	require.Equal(t, "claude-3-haiku-20240307", first.Model)
	require.NotNil(t, first.TokenUsage)
	require.Equal(t, 30, first.TokenUsage.TotalTokens)

	require.Equal(t, 1, gen.calls)
	require.Equal(t, "claude-3-haiku-20240307", gen.last.Model)
	require.Contains(t, gen.last.System, "Answer in English.")
	require.Equal(t, []Message{{Role: "user", Content: "Where can I purchase a licence?"}}, gen.last.Messages)

	second, err := svc.Reply(context.Background(), Request{Messages: []Message{{Role: "user", Content: "  where can i PURCHASE a licence? "}}})
	require.NoError(t, err)
	require.Equal(t, SourceCache, second.Source)
	require.Equal(t, first.Reply, second.Reply)
	require.Equal(t, 1, gen.calls)
}

func TestReplyFallsBackWhenGeneratorFails(t *testing.T) {
	store := newStubStore()
	gen := &stubGenerator{err: errors.New("upstream 529")}
	svc := newServiceUnderTest(t, store, gen)

	resp, err := svc.Reply(context.Background(), Request{Messages: []Message{{Role: "user", Content: "¿qué hora es?"}}})
	require.NoError(t, err)
	require.Equal(t, SourceFallback, resp.Source)
	require.Equal(t, qa.LanguageSpanish, resp.Language)
	require.Equal(t, "Lo siento, no encontré una respuesta.", resp.Reply)
	require.Empty(t, store.answers)
}

func TestReplyWithoutGeneratorUsesFallback(t *testing.T) {
	svc := newServiceUnderTest(t, newStubStore(), nil)

	resp, err := svc.Reply(context.Background(), Request{Messages: []Message{{Role: "user", Content: "xyz unrelated text"}}})
	require.NoError(t, err)
	require.Equal(t, SourceFallback, resp.Source)
	require.Equal(t, "Sorry, I could not find an answer.", resp.Reply)
}

func TestReplyHonoursExplicitLanguage(t *testing.T) {
	gen := &stubGenerator{result: GenerateResult{Text: "ok"}}
	svc := newServiceUnderTest(t, newStubStore(), gen)

	resp, err := svc.Reply(context.Background(), Request{
		Language: "en",
		Messages: []Message{{Role: "user", Content: "hola, mi password"}},
	})
	require.NoError(t, err)
	require.Equal(t, qa.LanguageEnglish, resp.Language)
	require.Equal(t, SourceKnowledgeBase, resp.Source)
	require.Equal(t, "access", resp.Category)
}

func TestReplyEmptyGeneratedTextFallsBack(t *testing.T) {
	gen := &stubGenerator{result: GenerateResult{Text: " [LINK:unknown] "}}
	svc := newServiceUnderTest(t, newStubStore(), gen)

	resp, err := svc.Reply(context.Background(), Request{Messages: []Message{{Role: "user", Content: "tell me a joke"}}})
	require.NoError(t, err)
	require.Equal(t, SourceFallback, resp.Source)
}

func TestTrendingWrapsStoreErrors(t *testing.T) {
	store := newStubStore()
	store.topErr = errors.New("valkey down")
	svc := newServiceUnderTest(t, store, nil)

	_, err := svc.Trending(context.Background())
	require.True(t, apperrors.IsCode(err, apperrors.CodeStoreError))
}

func TestCacheKeyIgnoresCaseAccentsAndSpacing(t *testing.T) {
	require.Equal(t, cacheKey(qa.LanguageSpanish, "¿Cómo   me registro?"), cacheKey(qa.LanguageSpanish, "¿como me REGISTRO?"))
	require.NotEqual(t, cacheKey(qa.LanguageSpanish, "registro"), cacheKey(qa.LanguageEnglish, "registro"))
}

func newServiceUnderTest(t *testing.T, store Store, gen Generator) Service {
	t.Helper()
	collections := qa.Collections{
		qa.LanguageSpanish: {
			{
				Question: "¿Dónde encuentro mi código de acceso?",
				Category: "registro",
				Keywords: []string{"codigo", "token"},
				Answer:   "Revisa la portada interna de tu libro.",
				Links:    []qa.Link{{Label: "Registro", URL: "https://www.richmondlp.com/register"}},
			},
		},
		qa.LanguageEnglish: {
			{
				Question: "I forgot my password",
				Category: "access",
				Keywords: []string{"password", "forgot password"},
				Answer:   "Reset your password via the login page.",
			},
		},
	}
	cfg := Config{
		Prompt:             "You are a support assistant.",
		MaxTokens:          300,
		CacheTTL:           time.Hour,
		TopRecommendations: 5,
		HistoryTokenBudget: 500,
		Links: map[string]string{
			"contacto": "https://www.richmond.com.mx",
		},
		FallbackMessages: map[qa.Language]string{
			qa.LanguageSpanish: "Lo siento, no encontré una respuesta.",
			qa.LanguageEnglish: "Sorry, I could not find an answer.",
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := NewModelCatalog(nil, []string{"claude-3-haiku-20240307"}, nil, logger)
	return NewService(cfg, qa.NewMatcher(collections, qa.MatcherConfig{}), qa.NewDetector(qa.DetectorConfig{}), store, gen, catalog, nil, nil, logger)
}

type stubGenerator struct {
	result GenerateResult
	err    error
	calls  int
	last   GenerateRequest
}

func (g *stubGenerator) Generate(_ context.Context, req GenerateRequest) (GenerateResult, error) {
	g.calls++
	g.last = req
	if g.err != nil {
		return GenerateResult{}, g.err
	}
	return g.result, nil
}

type stubStore struct {
	mu       sync.Mutex
	answers  map[string]AnswerRecord
	counts   map[string]int64
	displays map[string]string
	topErr   error
}

func newStubStore() *stubStore {
	return &stubStore{
		answers:  make(map[string]AnswerRecord),
		counts:   make(map[string]int64),
		displays: make(map[string]string),
	}
}

func (s *stubStore) GetAnswer(_ context.Context, key string) (AnswerRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.answers[key]
	return rec, ok, nil
}

func (s *stubStore) SaveAnswer(_ context.Context, record AnswerRecord, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[record.Key] = record
	return nil
}

func (s *stubStore) IncrementQuery(_ context.Context, canonical, display string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[canonical]++
	s.displays[canonical] = display
	return nil
}

func (s *stubStore) TopQueries(_ context.Context, limit int) ([]TrendingQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.topErr != nil {
		return nil, s.topErr
	}
	out := make([]TrendingQuery, 0, len(s.counts))
	for canonical, count := range s.counts {
		out = append(out, TrendingQuery{Query: s.displays[canonical], Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
