package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/support-assistant/internal/domain/qa"
	"github.com/yanqian/support-assistant/internal/domain/support"
	"github.com/yanqian/support-assistant/internal/infra/config"
	apperrors "github.com/yanqian/support-assistant/pkg/errors"
	"github.com/yanqian/support-assistant/pkg/metrics"
)

func TestRouter_ChatSuccess(t *testing.T) {
	resp := support.Response{
		Reply:    "Tu código está en la portada interna.",
		Source:   support.SourceKnowledgeBase,
		Language: qa.LanguageSpanish,
		Category: "registro",
		Score:    2,
	}
	svc := &stubSupport{
		replyFn: func(ctx context.Context, req support.Request) (support.Response, error) {
			require.Len(t, req.Messages, 1)
			require.Equal(t, "¿dónde está mi código?", req.Messages[0].Content)
			return resp, nil
		},
	}
	server := newRouterUnderTest(t, svc, config.HTTPConfig{})

	for _, path := range []string{"/api/chat", "/api/v1/chat"} {
		recorder := performRequest(http.MethodPost, path, `{"messages":[{"role":"user","content":"¿dónde está mi código?"}]}`, server)
		require.Equal(t, http.StatusOK, recorder.Code, path)
		require.NotEmpty(t, recorder.Header().Get(requestIDHeader))

		var got support.Response
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
		require.Equal(t, resp, got)
	}
}

func TestRouter_ChatInvalidJSON(t *testing.T) {
	recorder := performRequest(http.MethodPost, "/api/chat", `{"messages":"nope"}`, newRouterUnderTest(t, &stubSupport{}, config.HTTPConfig{}))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.NotEmpty(t, errBody["error"]["message"])
	require.NotEmpty(t, errBody["error"]["requestId"])
}

func TestRouter_ChatErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid input", apperrors.Wrap(apperrors.CodeInvalidInput, "messages must contain a user question", nil), http.StatusBadRequest, "invalid_request"},
		{"llm", apperrors.Wrap(apperrors.CodeLLMError, "generation failed", errors.New("timeout")), http.StatusBadGateway, apperrors.CodeLLMError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "chat_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubSupport{
				replyFn: func(context.Context, support.Request) (support.Response, error) {
					return support.Response{}, tc.err
				},
			}
			recorder := performRequest(http.MethodPost, "/api/chat", `{"messages":[]}`, newRouterUnderTest(t, svc, config.HTTPConfig{}))
			require.Equal(t, tc.status, recorder.Code)
			require.Equal(t, tc.code, decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
		})
	}
}

func TestRouter_TrendingAndModels(t *testing.T) {
	svc := &stubSupport{
		trendingFn: func(context.Context) ([]support.TrendingQuery, error) {
			return []support.TrendingQuery{{Query: "I forgot my password", Count: 3}}, nil
		},
		models: support.ModelSnapshot{Models: []string{"claude-3-haiku-20240307"}, Ready: true},
	}
	server := newRouterUnderTest(t, svc, config.HTTPConfig{})

	recorder := performRequest(http.MethodGet, "/api/v1/faq/trending", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var trending struct {
		Recommendations []support.TrendingQuery `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &trending))
	require.Equal(t, []support.TrendingQuery{{Query: "I forgot my password", Count: 3}}, trending.Recommendations)

	recorder = performRequest(http.MethodGet, "/api/v1/models", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var snapshot support.ModelSnapshot
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &snapshot))
	require.True(t, snapshot.Ready)
	require.Equal(t, []string{"claude-3-haiku-20240307"}, snapshot.Models)

	recorder = performRequest(http.MethodGet, "/healthz", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"status":"ok","modelsReady":true}`, recorder.Body.String())
}

func TestRouter_TrendingFailure(t *testing.T) {
	svc := &stubSupport{
		trendingFn: func(context.Context) ([]support.TrendingQuery, error) {
			return nil, apperrors.Wrap(apperrors.CodeStoreError, "failed to load trending queries", errors.New("valkey down"))
		},
	}
	recorder := performRequest(http.MethodGet, "/api/v1/faq/trending", "", newRouterUnderTest(t, svc, config.HTTPConfig{}))
	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	require.Equal(t, "trending_failed", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)
	recorder.ObserveReply("knowledge_base", "es")

	handler := NewHandler(&stubSupport{}, newTestLogger())
	server := NewRouter(&config.Config{HTTP: config.HTTPConfig{Address: ":0"}}, handler, registry)

	rec := performRequest(http.MethodGet, "/metrics", "", server)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `support_replies_total{language="es",source="knowledge_base"} 1`)
}

func TestRouter_RateLimit(t *testing.T) {
	server := newRouterUnderTest(t, &stubSupport{}, config.HTTPConfig{
		RateLimit: config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1},
	})

	first := performRequest(http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hi"}]}`, server)
	require.Equal(t, http.StatusOK, first.Code)
	second := performRequest(http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hi"}]}`, server)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, second.Body.Bytes())["error"]["code"])

	health := performRequest(http.MethodGet, "/healthz", "", server)
	require.Equal(t, http.StatusOK, health.Code)
}

func TestRouter_RetriesServerErrors(t *testing.T) {
	attempts := 0
	svc := &stubSupport{
		replyFn: func(context.Context, support.Request) (support.Response, error) {
			attempts++
			if attempts < 2 {
				return support.Response{}, errors.New("transient")
			}
			return support.Response{Reply: "ok", Source: support.SourceFallback}, nil
		},
	}
	server := newRouterUnderTest(t, svc, config.HTTPConfig{
		Retry: config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond},
	})

	recorder := performRequest(http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hi"}]}`, server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, 2, attempts)
}

func TestRouter_CORSPreflight(t *testing.T) {
	server := newRouterUnderTest(t, &stubSupport{}, config.HTTPConfig{AllowedOrigins: []string{"https://widget.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://widget.example")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://widget.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_ServesStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>chat</h1>"), 0o600))
	server := newRouterUnderTest(t, &stubSupport{}, config.HTTPConfig{StaticDir: dir})

	rec := performRequest(http.MethodGet, "/", "", server)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "<h1>chat</h1>")
}

func performRequest(method, path, body string, server *http.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, svc support.Service, httpCfg config.HTTPConfig) *http.Server {
	t.Helper()
	handler := NewHandler(svc, newTestLogger())
	httpCfg.Address = ":0"
	httpCfg.ReadTimeout = time.Second
	httpCfg.WriteTimeout = time.Second
	return NewRouter(&config.Config{HTTP: httpCfg}, handler, nil)
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubSupport struct {
	replyFn    func(ctx context.Context, req support.Request) (support.Response, error)
	trendingFn func(ctx context.Context) ([]support.TrendingQuery, error)
	models     support.ModelSnapshot
}

func (s *stubSupport) Reply(ctx context.Context, req support.Request) (support.Response, error) {
	if s.replyFn != nil {
		return s.replyFn(ctx, req)
	}
	return support.Response{Reply: "ok", Source: support.SourceFallback, Language: qa.LanguageEnglish}, nil
}

func (s *stubSupport) Trending(ctx context.Context) ([]support.TrendingQuery, error) {
	if s.trendingFn != nil {
		return s.trendingFn(ctx)
	}
	return nil, nil
}

func (s *stubSupport) Models(context.Context) support.ModelSnapshot {
	return s.models
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
