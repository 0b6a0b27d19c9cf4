package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleConfig = `
llm:
  provider: openai
  base_url: https://api.example.com
  api_key: dummy
  model: gpt-4o
  temperature: 0.2
server:
  host: 127.0.0.1
  port: "9090"
catalog:
  db_path: /tmp/listings.db
  seed_file: ./seed.yaml
chat:
  context_limit: 6
  timeout: 5s
  language: pidgin
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := tmp.WriteString(body); err != nil {
		t.Fatalf("write: %v", err)
	}
	tmp.Close()
	return tmp.Name()
}

// TestLoad_FromConfigPath verifies that Load reads every section from CONFIG_PATH.
func TestLoad_FromConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleConfig))

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "gpt-4o", cfg.LLM.Model)
	require.Equal(t, "dummy", cfg.LLM.APIKey)
	require.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-6)
	require.True(t, cfg.LLM.Configured())
	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, "/tmp/listings.db", cfg.Catalog.DBPath)
	require.Equal(t, "./seed.yaml", cfg.Catalog.SeedFile)
	require.Equal(t, 6, cfg.Chat.ContextLimit)
	require.Equal(t, 5*time.Second, cfg.Chat.Timeout)
	require.Equal(t, "pidgin", cfg.Chat.Language)
}

// TestLoad_Defaults verifies the defaults that apply to keys the file omits.
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "llm:\n  model: m\n"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 600, cfg.LLM.MaxTokens)
	require.Equal(t, 10, cfg.Chat.ContextLimit)
	require.Equal(t, 30*time.Second, cfg.Chat.Timeout)
	require.Equal(t, "en", cfg.Chat.Language)
	require.Equal(t, "8000", cfg.Server.Port)
	require.False(t, cfg.LLM.Configured())
}

// TestLoad_EnvOverride verifies BODI_* variables win over the file.
func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleConfig))
	t.Setenv("BODI_LLM_API_KEY", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.LLM.APIKey)
}

// TestLoad_MissingConfigPath verifies an explicit path must exist.
func TestLoad_MissingConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", t.TempDir()+"/nope.yaml")

	_, err := Load()
	require.Error(t, err)
}
