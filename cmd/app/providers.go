package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/support-assistant/internal/domain/qa"
	"github.com/yanqian/support-assistant/internal/domain/support"
	"github.com/yanqian/support-assistant/internal/infra/config"
	"github.com/yanqian/support-assistant/internal/infra/knowledge"
	"github.com/yanqian/support-assistant/internal/infra/llm/anthropic"
	"github.com/yanqian/support-assistant/internal/infra/llm/chatgpt"
	"github.com/yanqian/support-assistant/internal/infra/llm/gemini"
	"github.com/yanqian/support-assistant/internal/infra/llm/tokens"
	supportllm "github.com/yanqian/support-assistant/internal/infra/support/llm"
	"github.com/yanqian/support-assistant/internal/infra/supportstore"
	apperrors "github.com/yanqian/support-assistant/pkg/errors"
	"github.com/yanqian/support-assistant/pkg/metrics"
)

var supportedLanguages = []qa.Language{qa.LanguageSpanish, qa.LanguageEnglish}

// llmBackend is a provider adapter that can both generate and list models.
type llmBackend interface {
	support.Generator
	support.ModelLister
}

func provideRecorder(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.NewRecorder(reg)
}

func provideKnowledgeSource(cfg *config.Config, logger *slog.Logger) (knowledge.Source, error) {
	switch cfg.Knowledge.Source {
	case config.SourcePostgres:
		pool, err := newPostgresPool(cfg.Knowledge.Postgres)
		if err != nil {
			logger.Error("knowledge postgres unavailable, using bundled files", "error", err)
			return knowledge.NewFileSource(languageMap(cfg.Knowledge.Files, logger)), nil
		}
		logger.Info("knowledge source: postgres", "table", cfg.Knowledge.Postgres.Table)
		return knowledge.NewPostgresSource(pool, cfg.Knowledge.Postgres.Table), nil
	case config.SourceS3:
		s3 := cfg.Knowledge.S3
		src, err := knowledge.NewObjectSource(knowledge.ObjectSourceConfig{
			Endpoint:        s3.Endpoint,
			AccessKeyID:     s3.AccessKeyID,
			SecretAccessKey: s3.SecretAccessKey,
			Bucket:          s3.Bucket,
			Region:          s3.Region,
			Objects:         languageMap(s3.Objects, logger),
		}, logger)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeKnowledge, "init knowledge object storage", err)
		}
		logger.Info("knowledge source: s3", "bucket", s3.Bucket)
		return src, nil
	default:
		logger.Info("knowledge source: files", "files", cfg.Knowledge.Files)
		return knowledge.NewFileSource(languageMap(cfg.Knowledge.Files, logger)), nil
	}
}

func newPostgresPool(cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(strings.TrimSpace(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

func languageMap(raw map[string]string, logger *slog.Logger) map[qa.Language]string {
	out := make(map[qa.Language]string, len(raw))
	for key, value := range raw {
		lang, ok := qa.ParseLanguage(key)
		if !ok {
			logger.Warn("ignoring unsupported knowledge language", "language", key)
			continue
		}
		out[lang] = value
	}
	return out
}

func provideCollections(src knowledge.Source, logger *slog.Logger) qa.Collections {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return knowledge.Load(ctx, src, supportedLanguages, logger)
}

func provideMatcher(cfg *config.Config, collections qa.Collections) *qa.Matcher {
	return qa.NewMatcher(collections, qa.MatcherConfig{MinScore: cfg.Matcher.MinScore})
}

func provideDetector(cfg *config.Config) *qa.Detector {
	detectorCfg := qa.DetectorConfig{Markers: cfg.Language.Markers}
	if lang, ok := qa.ParseLanguage(cfg.Language.Default); ok {
		detectorCfg.Default = lang
	}
	if lang, ok := qa.ParseLanguage(cfg.Language.Alternate); ok {
		detectorCfg.Alternate = lang
	}
	return qa.NewDetector(detectorCfg)
}

func provideSupportConfig(cfg *config.Config) support.Config {
	fallbacks := make(map[qa.Language]string, len(cfg.Support.FallbackMessages))
	for key, msg := range cfg.Support.FallbackMessages {
		if lang, ok := qa.ParseLanguage(key); ok {
			fallbacks[lang] = msg
		}
	}
	links := make(map[string]string, len(cfg.Support.Links))
	for key, url := range cfg.Support.Links {
		links[strings.ToLower(key)] = url
	}
	return support.Config{
		Prompt:             cfg.Support.Prompt,
		Temperature:        cfg.LLM.Temperature,
		MaxTokens:          cfg.LLM.MaxTokens,
		CacheTTL:           cfg.Support.CacheTTL,
		TopRecommendations: cfg.Support.TopRecommendations,
		HistoryTokenBudget: cfg.Support.HistoryTokenBudget,
		Links:              links,
		FallbackMessages:   fallbacks,
	}
}

func provideSupportStore(cfg *config.Config, logger *slog.Logger) support.Store {
	if cfg.Support.Redis.Enabled {
		opt, err := buildValkeyOptions(cfg.Support.Redis.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			return supportstore.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			return supportstore.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
			client.Close()
		} else {
			logger.Info("support valkey store enabled", "addr", cfg.Support.Redis.Addr)
			return supportstore.NewValkeyStore(client, cfg.Support.Redis.Prefix)
		}
	}
	return supportstore.NewMemoryStore()
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

// provideLLMBackend returns nil when generation is disabled or no key is set;
// unmatched questions then get the static fallback reply.
func provideLLMBackend(cfg *config.Config, logger *slog.Logger) (llmBackend, error) {
	llmCfg := cfg.LLM
	if llmCfg.Provider == config.ProviderNone || llmCfg.Provider == "" {
		logger.Info("generative fallback disabled")
		return nil, nil
	}
	if strings.TrimSpace(llmCfg.APIKey) == "" {
		logger.Warn("llm api key missing, generative fallback disabled", "provider", llmCfg.Provider)
		return nil, nil
	}
	switch llmCfg.Provider {
	case config.ProviderGemini:
		client, err := gemini.NewClient(context.Background(), llmCfg.APIKey, llmCfg.BaseURL, &http.Client{Timeout: llmCfg.Timeout})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeLLMError, "init gemini client", err)
		}
		return supportllm.NewGeminiGenerator(client, llmCfg.Model), nil
	case config.ProviderOpenAI:
		client, err := chatgpt.NewClient(llmCfg.APIKey, llmCfg.BaseURL, llmCfg.Timeout)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeLLMError, "init chatgpt client", err)
		}
		return supportllm.NewChatGPTGenerator(client, llmCfg.Model), nil
	default:
		client, err := anthropic.NewClient(llmCfg.APIKey, llmCfg.BaseURL, llmCfg.Timeout)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeLLMError, "init anthropic client", err)
		}
		return supportllm.NewAnthropicGenerator(client, llmCfg.Model), nil
	}
}

func provideGenerator(backend llmBackend) support.Generator {
	if backend == nil {
		return nil
	}
	return backend
}

func provideModelCatalog(cfg *config.Config, backend llmBackend, logger *slog.Logger) *support.ModelCatalog {
	var lister support.ModelLister
	if backend != nil {
		lister = backend
	}
	preferred := []string{cfg.LLM.Model}
	return support.NewModelCatalog(lister, preferred, cfg.LLM.FallbackModels, logger)
}

func provideTokenCounter(cfg *config.Config, logger *slog.Logger) *tokens.Counter {
	return tokens.NewCounter(cfg.LLM.TokenEncoding, logger)
}
