package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "{}\n"))
	t.Setenv("HTTP_ADDRESS", "")
	t.Setenv("PORT", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":3000", cfg.HTTP.Address)
	require.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	require.Equal(t, "claude-3-haiku-20240307", cfg.LLM.Model)
	require.Equal(t, 1000, cfg.LLM.MaxTokens)
	require.Equal(t, SourceFile, cfg.Knowledge.Source)
	require.Equal(t, "qa-data/spanish.json", cfg.Knowledge.Files["es"])
	require.Equal(t, 1, cfg.Matcher.MinScore)
	require.Equal(t, "https://www.richmondlp.com/register", cfg.Support.Links["registro"])
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, `
http:
  address: ":9000"
llm:
  provider: gemini
  model: gemini-1.5-flash
support:
  cacheTtl: 1h
matcher:
  minScore: 3
language:
  markers: ["hola"]
`))
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("LLM_API_KEY", "generic-key")
	t.Setenv("SUPPORT_HISTORY_TOKEN_BUDGET", "200")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTP.Address)
	require.Equal(t, ProviderGemini, cfg.LLM.Provider)
	require.Equal(t, "gem-key", cfg.LLM.APIKey)
	require.Equal(t, "gemini-1.5-flash", cfg.LLM.Model)
	require.Equal(t, time.Hour, cfg.Support.CacheTTL)
	require.Equal(t, 200, cfg.Support.HistoryTokenBudget)
	require.Equal(t, 3, cfg.Matcher.MinScore)
	require.Equal(t, []string{"hola"}, cfg.Language.Markers)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
}

func TestPortEnvSetsAddress(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "{}\n"))
	t.Setenv("HTTP_ADDRESS", "")
	t.Setenv("PORT", "8081")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8081", cfg.HTTP.Address)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"provider":    func(c *Config) { c.LLM.Provider = "llama" },
		"source":      func(c *Config) { c.Knowledge.Source = "ftp" },
		"postgresDSN": func(c *Config) { c.Knowledge.Source = SourcePostgres },
		"s3Bucket":    func(c *Config) { c.Knowledge.Source = SourceS3 },
		"redisAddr":   func(c *Config) { c.Support.Redis.Enabled = true },
		"languages":   func(c *Config) { c.Language.Alternate = "en" },
		"cacheTtl":    func(c *Config) { c.Support.CacheTTL = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
