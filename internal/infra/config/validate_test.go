package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDefaultsPass(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Fatalf("Defaults should pass validation: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr must not be empty"},
		{"bad addr", func(c *Config) { c.Server.Addr = "5001" }, "is not host:port"},
		{"rate limit", func(c *Config) { c.Server.RateLimit.RequestsPerMin = 0 }, "requests_per_min must be > 0"},
		{"burst", func(c *Config) { c.Server.RateLimit.Burst = 0 }, "burst must be > 0"},
		{"proxy", func(c *Config) { c.Server.TrustedProxies = []string{"proxy.local"} }, "not an IP address"},
		{"iterations", func(c *Config) { c.Agent.MaxIterations = 0 }, "agent.max_iterations must be > 0"},
		{"history", func(c *Config) { c.Agent.MaxHistory = -1 }, "agent.max_history must be >= 0"},
		{"tokens", func(c *Config) { c.Agent.MaxContextTokens = -5 }, "agent.max_context_tokens must be >= 0"},
		{"timeout", func(c *Config) { c.Agent.Timeout = 0 }, "agent.timeout must be > 0"},
		{"provider", func(c *Config) { c.LLM.Provider = "bedrock" }, "llm.provider"},
		{"model", func(c *Config) { c.LLM.Model = "" }, "llm.model must not be empty"},
		{"temperature", func(c *Config) { c.LLM.Temperature = 3 }, "llm.temperature"},
		{"breaker", func(c *Config) { c.LLM.CircuitBreaker.MaxFailures = 0 }, "max_failures must be > 0"},
		{"variant", func(c *Config) { c.Tools.Search.Variant = "fancy" }, "tools.search.variant"},
		{"backend", func(c *Config) { c.Tools.Search.Backend = "bing" }, "tools.search.backend"},
		{"max results", func(c *Config) { c.Tools.Search.MaxResults = 50 }, "max_results must be 1-20"},
		{"searxng url", func(c *Config) {
			c.Tools.Search.Backend = "searxng"
			c.Tools.Search.SearXNGURL = ""
		}, "searxng_url is required"},
		{"fetch chars", func(c *Config) {
			c.Tools.Fetch.Enabled = true
			c.Tools.Fetch.MaxChars = 0
		}, "tools.fetch.max_chars"},
		{"store", func(c *Config) { c.Threads.Store = "redis" }, "threads.store"},
		{"sqlite path", func(c *Config) {
			c.Threads.Store = "sqlite"
			c.Threads.SQLitePath = ""
		}, "sqlite_path is required"},
		{"reap schedule", func(c *Config) { c.Threads.ReapSchedule = "" }, "reap_schedule is required"},
		{"log level", func(c *Config) { c.Logger.Level = "loud" }, "logger.level"},
		{"log format", func(c *Config) { c.Logger.Format = "xml" }, "logger.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Agent.MaxIterations = 0
	cfg.LLM.Model = ""
	cfg.Threads.Store = "nope"

	err := Validate(cfg)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(ve.Errors) != 3 {
		t.Errorf("got %d errors, want 3: %v", len(ve.Errors), ve.Errors)
	}
}

func TestValidateReaperDisabled(t *testing.T) {
	cfg := Defaults()
	cfg.Threads.MaxAge = 0
	cfg.Threads.ReapSchedule = ""
	if err := Validate(cfg); err != nil {
		t.Fatalf("reaper disabled should validate: %v", err)
	}
}
