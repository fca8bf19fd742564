package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scout/internal/domain"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Server.Addr != ":5001" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":5001")
	}
	if cfg.Agent.MaxIterations != 10 {
		t.Errorf("MaxIterations = %d, want 10", cfg.Agent.MaxIterations)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("LLM.Model = %q, want %q", cfg.LLM.Model, "gpt-4o-mini")
	}
	if cfg.LLM.Temperature != 0.7 {
		t.Errorf("LLM.Temperature = %v, want 0.7", cfg.LLM.Temperature)
	}
	if cfg.Tools.Search.Variant != "enhanced" || cfg.Tools.Search.MaxResults != 6 {
		t.Errorf("Search = %+v, want enhanced with 6 results", cfg.Tools.Search)
	}
	if cfg.Threads.Store != "memory" {
		t.Errorf("Threads.Store = %q, want memory", cfg.Threads.Store)
	}
}

func TestLoadNonExistentReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Agent.MaxIterations != 10 {
		t.Errorf("expected defaults, got MaxIterations=%d", cfg.Agent.MaxIterations)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  addr: "127.0.0.1:8080"
agent:
  max_iterations: 4
  system_prompt: "short answers"
llm:
  model: "gpt-4o"
  temperature: 0.2
tools:
  search:
    variant: minimal
    backend: searxng
    searxng_url: "http://search.local"
threads:
  store: sqlite
  sqlite_path: "/tmp/threads.db"
  max_age: 2h
logger:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Agent.MaxIterations != 4 || cfg.Agent.SystemPrompt != "short answers" {
		t.Errorf("Agent = %+v", cfg.Agent)
	}
	if cfg.LLM.Model != "gpt-4o" || cfg.LLM.Temperature != 0.2 {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.Tools.Search.Variant != "minimal" || cfg.Tools.Search.Backend != "searxng" {
		t.Errorf("Search = %+v", cfg.Tools.Search)
	}
	if cfg.Threads.Store != "sqlite" || cfg.Threads.MaxAge != 2*time.Hour {
		t.Errorf("Threads = %+v", cfg.Threads)
	}
	// Untouched sections keep their defaults.
	if cfg.Tools.Search.MaxResults != 6 {
		t.Errorf("MaxResults = %d, want default 6", cfg.Tools.Search.MaxResults)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("tools:\n  search:\n    backend: bing\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "tools.search.backend") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadInsecurePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, 0o666); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "insecure permissions") {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCOUT_SERVER_ADDR", ":9000")
	t.Setenv("SCOUT_LLM_MODEL", "gpt-4.1")
	t.Setenv("SCOUT_LLM_TEMPERATURE", "0.1")
	t.Setenv("SCOUT_AGENT_MAX_ITERATIONS", "3")
	t.Setenv("SCOUT_AGENT_TIMEOUT", "30s")
	t.Setenv("SCOUT_SEARCH_VARIANT", "minimal")
	t.Setenv("SCOUT_THREADS_STORE", "sqlite")
	t.Setenv("SCOUT_LOGGER_LEVEL", "debug")
	t.Setenv("SCOUT_TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)

	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.LLM.Model != "gpt-4.1" || cfg.LLM.Temperature != 0.1 {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.Agent.MaxIterations != 3 || cfg.Agent.Timeout != 30*time.Second {
		t.Errorf("Agent = %+v", cfg.Agent)
	}
	if cfg.Tools.Search.Variant != "minimal" {
		t.Errorf("Variant = %q", cfg.Tools.Search.Variant)
	}
	if cfg.Threads.Store != "sqlite" {
		t.Errorf("Threads.Store = %q", cfg.Threads.Store)
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("Logger.Level = %q", cfg.Logger.Level)
	}
	if len(cfg.Server.TrustedProxies) != 2 || cfg.Server.TrustedProxies[1] != "10.0.0.2" {
		t.Errorf("TrustedProxies = %v", cfg.Server.TrustedProxies)
	}
}

func TestEnvOverridesIgnoreMalformedNumbers(t *testing.T) {
	t.Setenv("SCOUT_AGENT_MAX_ITERATIONS", "lots")
	t.Setenv("SCOUT_LLM_TEMPERATURE", "warm")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)

	if cfg.Agent.MaxIterations != 10 {
		t.Errorf("MaxIterations = %d, want 10", cfg.Agent.MaxIterations)
	}
	if cfg.LLM.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", cfg.LLM.Temperature)
	}
}

func TestProviderKeysFillBlanksOnly(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("TAVILY_API_KEY", "tvly-env")

	cfg := Defaults()
	cfg.LLM.APIKey = "sk-file"
	ApplyEnvOverrides(cfg)

	if cfg.LLM.APIKey != "sk-file" {
		t.Errorf("APIKey = %q, explicit value should win", cfg.LLM.APIKey)
	}
	if cfg.LLM.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("BaseURL = %q", cfg.LLM.BaseURL)
	}
	if cfg.Tools.Search.TavilyAPIKey != "tvly-env" {
		t.Errorf("TavilyAPIKey = %q", cfg.Tools.Search.TavilyAPIKey)
	}
}

func TestSecretRoundTrip(t *testing.T) {
	sealed, err := EncryptValue("sk-secret", "passphrase")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "sk-secret")

	again, err := EncryptValue("sk-secret", "passphrase")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "fresh salt and nonce per call")

	got, err := DecryptValue(sealed, "passphrase")
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", got)

	_, err = DecryptValue(sealed, "wrong")
	assert.ErrorIs(t, err, domain.ErrDecryption)
}

func TestDecryptValueMalformed(t *testing.T) {
	for _, in := range []string{"", "nocolon", "zz:00", "00:zz", "00:00"} {
		_, err := DecryptValue(in, "k")
		assert.ErrorIs(t, err, domain.ErrDecryption, in)
	}
}

func TestLoadWrongKeyFails(t *testing.T) {
	sealed, err := EncryptValue("sk-real", "master")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tools:\n  search:\n    tavily_api_key: enc:"+sealed+"\n"), 0o600))
	t.Setenv(KeyEnv, "other")

	_, err = Load(path)
	assert.ErrorIs(t, err, domain.ErrDecryption)
	assert.ErrorContains(t, err, "tools.search.tavily_api_key")
}

func TestLoadErrorsWrapConfigLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [1"), 0o600))
	_, err := Load(path)
	assert.ErrorIs(t, err, domain.ErrConfigLoad)
}

func TestLoadDecryptsSecrets(t *testing.T) {
	enc, err := EncryptValue("sk-real", "master")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "llm:\n  api_key: \"enc:" + enc + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCOUT_CONFIG_KEY", "master")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "sk-real" {
		t.Errorf("APIKey = %q, want decrypted value", cfg.LLM.APIKey)
	}
}
