package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	LLM       LLMConfig       `yaml:"llm"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Support   SupportConfig   `yaml:"support"`
	Matcher   MatcherConfig   `yaml:"matcher"`
	Language  LanguageConfig  `yaml:"language"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	StaticDir      string          `yaml:"staticDir"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// Generator providers understood by the LLM section.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderNone      = "none"
)

// LLMConfig selects the generative provider used when no canned answer matches.
type LLMConfig struct {
	Provider       string        `yaml:"provider"`
	APIKey         string        `yaml:"apiKey"`
	BaseURL        string        `yaml:"baseUrl"`
	Model          string        `yaml:"model"`
	FallbackModels []string      `yaml:"fallbackModels"`
	Temperature    float32       `yaml:"temperature"`
	MaxTokens      int           `yaml:"maxTokens"`
	Timeout        time.Duration `yaml:"timeout"`
	TokenEncoding  string        `yaml:"tokenEncoding"`
}

// Knowledge sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceS3       = "s3"
)

// KnowledgeConfig describes where the Q&A collections are loaded from.
type KnowledgeConfig struct {
	Source   string            `yaml:"source"`
	Files    map[string]string `yaml:"files"`
	Postgres PostgresConfig    `yaml:"postgres"`
	S3       S3Config          `yaml:"s3"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	Table    string `yaml:"table"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// S3Config points at an S3-compatible bucket (R2, MinIO) holding the collection files.
type S3Config struct {
	Endpoint        string            `yaml:"endpoint"`
	AccessKeyID     string            `yaml:"accessKeyId"`
	SecretAccessKey string            `yaml:"secretAccessKey"`
	Bucket          string            `yaml:"bucket"`
	Region          string            `yaml:"region"`
	Objects         map[string]string `yaml:"objects"`
}

// SupportConfig controls the reply pipeline.
type SupportConfig struct {
	Prompt             string            `yaml:"prompt"`
	CacheTTL           time.Duration     `yaml:"cacheTtl"`
	TopRecommendations int               `yaml:"topRecommendations"`
	HistoryTokenBudget int               `yaml:"historyTokenBudget"`
	Links              map[string]string `yaml:"links"`
	FallbackMessages   map[string]string `yaml:"fallbackMessages"`
	Redis              RedisConfig       `yaml:"redis"`
}

// RedisConfig contains connection information for cache storage.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// MatcherConfig tunes the offline matcher.
type MatcherConfig struct {
	MinScore int `yaml:"minScore"`
}

// LanguageConfig tunes the marker based language detector.
type LanguageConfig struct {
	Default   string   `yaml:"default"`
	Alternate string   `yaml:"alternate"`
	Markers   []string `yaml:"markers"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	} else if v := os.Getenv("PORT"); v != "" {
		cfg.HTTP.Address = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("HTTP_STATIC_DIR"); v != "" {
		cfg.HTTP.StaticDir = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}

	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	applyAPIKey(cfg)
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_FALLBACK_MODELS"); v != "" {
		cfg.LLM.FallbackModels = splitList(v)
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.LLM.MaxTokens = parsed
		}
	}

	if v := os.Getenv("KNOWLEDGE_SOURCE"); v != "" {
		cfg.Knowledge.Source = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("KNOWLEDGE_FILE_ES"); v != "" {
		setEntry(&cfg.Knowledge.Files, "es", v)
	}
	if v := os.Getenv("KNOWLEDGE_FILE_EN"); v != "" {
		setEntry(&cfg.Knowledge.Files, "en", v)
	}
	if v := os.Getenv("KNOWLEDGE_POSTGRES_DSN"); v != "" {
		cfg.Knowledge.Postgres.DSN = v
	}
	if v := os.Getenv("KNOWLEDGE_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Knowledge.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("KNOWLEDGE_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Knowledge.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("KNOWLEDGE_S3_ENDPOINT"); v != "" {
		cfg.Knowledge.S3.Endpoint = v
	}
	if v := os.Getenv("KNOWLEDGE_S3_ACCESS_KEY_ID"); v != "" {
		cfg.Knowledge.S3.AccessKeyID = v
	}
	if v := os.Getenv("KNOWLEDGE_S3_SECRET_ACCESS_KEY"); v != "" {
		cfg.Knowledge.S3.SecretAccessKey = v
	}
	if v := os.Getenv("KNOWLEDGE_S3_BUCKET"); v != "" {
		cfg.Knowledge.S3.Bucket = v
	}
	if v := os.Getenv("KNOWLEDGE_S3_REGION"); v != "" {
		cfg.Knowledge.S3.Region = v
	}

	if v := os.Getenv("SUPPORT_PROMPT"); v != "" {
		cfg.Support.Prompt = v
	}
	if v := os.Getenv("SUPPORT_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Support.CacheTTL = parsed
		}
	}
	if v := os.Getenv("SUPPORT_RECOMMENDATIONS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Support.TopRecommendations = parsed
		}
	}
	if v := os.Getenv("SUPPORT_HISTORY_TOKEN_BUDGET"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Support.HistoryTokenBudget = parsed
		}
	}
	if v := os.Getenv("SUPPORT_REDIS_ENABLED"); v != "" {
		cfg.Support.Redis.Enabled = parseBool(v)
	}
	if v := os.Getenv("SUPPORT_REDIS_ADDR"); v != "" {
		cfg.Support.Redis.Addr = v
	}

	if v := os.Getenv("MATCHER_MIN_SCORE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Matcher.MinScore = parsed
		}
	}
}

// applyAPIKey prefers the provider specific variable used by the hosted setup
// and falls back to the generic LLM_API_KEY.
func applyAPIKey(cfg *Config) {
	var specific string
	switch cfg.LLM.Provider {
	case ProviderAnthropic:
		specific = os.Getenv("ANTHROPIC_API_KEY")
	case ProviderGemini:
		specific = os.Getenv("GEMINI_API_KEY")
	case ProviderOpenAI:
		specific = os.Getenv("OPENAI_API_KEY")
	}
	if specific != "" {
		cfg.LLM.APIKey = specific
		return
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func setEntry(m *map[string]string, key, value string) {
	if *m == nil {
		*m = make(map[string]string)
	}
	(*m)[key] = value
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":3000",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   30 * time.Second,
			AllowedOrigins: []string{"*"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/metrics",
					"/healthz",
				},
			},
		},
		LLM: LLMConfig{
			Provider:       ProviderAnthropic,
			Model:          "claude-3-haiku-20240307",
			FallbackModels: []string{"claude-3-haiku-20240307"},
			Temperature:    0.2,
			MaxTokens:      1000,
			Timeout:        30 * time.Second,
			TokenEncoding:  "cl100k_base",
		},
		Knowledge: KnowledgeConfig{
			Source: SourceFile,
			Files: map[string]string{
				"es": "qa-data/spanish.json",
				"en": "qa-data/english.json",
			},
			Postgres: PostgresConfig{
				Table:    "qa_entries",
				MaxConns: 4,
			},
			S3: S3Config{
				Objects: map[string]string{
					"es": "qa-data/spanish.json",
					"en": "qa-data/english.json",
				},
			},
		},
		Support: SupportConfig{
			Prompt:             "Eres un asistente de soporte para Richmond Learning Platform (RLP). Responde en el mismo idioma de la pregunta, de forma concisa, amable y útil, en menos de 150 palabras. Cuando sea útil menciona [LINK:registro], [LINK:login], [LINK:ayuda], [LINK:productos], [LINK:contacto] o [LINK:app]. Ofrece siempre contactar soporte si el problema persiste.",
			CacheTTL:           6 * time.Hour,
			TopRecommendations: 10,
			HistoryTokenBudget: 1500,
			Links: map[string]string{
				"registro":  "https://www.richmondlp.com/register",
				"login":     "https://www.richmondlp.com",
				"ayuda":     "https://rlp-ug.knowledgeowl.com/help",
				"productos": "https://www.richmondlp.com",
				"contacto":  "https://www.richmond.com.mx",
				"app":       "https://rlp-ug.knowledgeowl.com/help",
			},
			FallbackMessages: map[string]string{
				"es": "Lo siento, no encontré una respuesta para tu pregunta. Consulta el centro de ayuda en https://rlp-ug.knowledgeowl.com/help o contacta a tu profesor.",
				"en": "Sorry, I could not find an answer to your question. Please check the help center at https://rlp-ug.knowledgeowl.com/help or contact your teacher.",
			},
			Redis: RedisConfig{
				Prefix: "support",
			},
		},
		Matcher: MatcherConfig{
			MinScore: 1,
		},
		Language: LanguageConfig{
			Default:   "en",
			Alternate: "es",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	switch c.LLM.Provider {
	case ProviderAnthropic, ProviderGemini, ProviderOpenAI, ProviderNone, "":
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	if c.LLM.MaxTokens < 0 {
		return errors.New("llm.maxTokens cannot be negative")
	}
	switch c.Knowledge.Source {
	case SourceFile:
		if len(c.Knowledge.Files) == 0 {
			return errors.New("knowledge.files cannot be empty when source is file")
		}
	case SourcePostgres:
		if strings.TrimSpace(c.Knowledge.Postgres.DSN) == "" {
			return errors.New("knowledge.postgres.dsn cannot be empty when source is postgres")
		}
	case SourceS3:
		if strings.TrimSpace(c.Knowledge.S3.Endpoint) == "" || strings.TrimSpace(c.Knowledge.S3.Bucket) == "" {
			return errors.New("knowledge.s3.endpoint and knowledge.s3.bucket are required when source is s3")
		}
	default:
		return fmt.Errorf("knowledge.source %q is not supported", c.Knowledge.Source)
	}
	if c.Support.CacheTTL < 0 {
		return errors.New("support.cacheTtl cannot be negative")
	}
	if c.Support.TopRecommendations < 0 {
		return errors.New("support.topRecommendations cannot be negative")
	}
	if c.Support.HistoryTokenBudget < 0 {
		return errors.New("support.historyTokenBudget cannot be negative")
	}
	if c.Support.Redis.Enabled && strings.TrimSpace(c.Support.Redis.Addr) == "" {
		return errors.New("support.redis.addr cannot be empty when redis cache is enabled")
	}
	if c.Language.Default != "" && c.Language.Default == c.Language.Alternate {
		return errors.New("language.default and language.alternate must differ")
	}
	return nil
}
