package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scout/internal/infra/config"
	"scout/internal/infra/logger"
)

// runCLI executes the root command with args and returns what it printed.
func runCLI(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		configPath, logLevel = "config.yaml", ""
		serveAddr, searchVariant = "", ""
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	var out bytes.Buffer
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestEncryptSecret(t *testing.T) {
	t.Setenv(configKeyEnv, "master")

	out, err := runCLI(t, strings.NewReader("sk-live-123\n"), "encrypt-secret")
	require.NoError(t, err)

	line := strings.TrimSpace(out)
	require.True(t, strings.HasPrefix(line, "enc:"), "got %q", line)
	plain, err := config.DecryptValue(strings.TrimPrefix(line, "enc:"), "master")
	require.NoError(t, err)
	assert.Equal(t, "sk-live-123", plain)
}

func TestEncryptSecretErrors(t *testing.T) {
	t.Setenv(configKeyEnv, "")
	_, err := runCLI(t, strings.NewReader("secret"), "encrypt-secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), configKeyEnv)

	t.Setenv(configKeyEnv, "master")
	_, err = runCLI(t, strings.NewReader("   \n"), "encrypt-secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty secret")
}

func TestLoadConfigOverrides(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "missing.yaml")
	logLevel = "debug"
	t.Cleanup(func() { configPath, logLevel = "config.yaml", "" })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, config.Defaults().Server.Addr, cfg.Server.Addr)

	logLevel = "loud"
	_, err = loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logger.level")
}

func TestSearchCommand(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "Go", "url": "https://go.dev", "content": "Go is an open source language."},
			},
		})
	}))
	defer ts.Close()

	path := writeConfig(t, `
tools:
  search:
    variant: minimal
    backend: searxng
    searxng_url: `+ts.URL+`
logger:
  output: `+filepath.Join(t.TempDir(), "scout.log")+`
`)

	out, err := runCLI(t, nil, "--config", path, "search", "golang", "release")
	require.NoError(t, err)
	assert.Equal(t, "golang release", gotQuery)
	assert.Contains(t, out, "Go is an open source language.")
}

func TestSearchCommandReportsFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	path := writeConfig(t, `
tools:
  search:
    backend: searxng
    searxng_url: `+ts.URL+`
logger:
  output: `+filepath.Join(t.TempDir(), "scout.log")+`
`)

	out, err := runCLI(t, nil, "--config", path, "search", "anything")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(out, "Search failed: "), "got %q", out)
}

func TestBuildChatWiring(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLM.APIKey = "sk-test"
	cfg.Tools.Fetch.Enabled = true
	cfg.Threads.Store = "memory"

	a := &app{cfg: cfg, logger: logger.Discard()}
	require.NoError(t, a.buildChat())
	defer func() { assert.NoError(t, a.Close(context.Background())) }()

	assert.ElementsMatch(t, []string{"web_search", "web_fetch"}, a.tools.Names())
	assert.NotNil(t, a.reaper)
	assert.NotNil(t, a.chat)
}

func TestBuildChatUnknownStore(t *testing.T) {
	cfg := config.Defaults()
	cfg.Threads.Store = "redis"

	a := &app{cfg: cfg, logger: logger.Discard()}
	err := a.buildChat()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thread store")
}

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"serve", "ask", "chat", "mcp", "search", "encrypt-secret"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}
