package config

import (
	"fmt"
	"net"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
// Missing API keys are not checked here; the provider constructors fail at startup.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateServer(cfg, ve)
	validateAgent(cfg, ve)
	validateLLM(cfg, ve)
	validateTools(cfg, ve)
	validateThreads(cfg, ve)
	validateLogger(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateServer(cfg *Config, ve *ValidationError) {
	if cfg.Server.Addr == "" {
		ve.Add("server.addr must not be empty")
	} else if _, _, err := net.SplitHostPort(cfg.Server.Addr); err != nil {
		ve.Add("server.addr %q is not host:port: %v", cfg.Server.Addr, err)
	}
	if cfg.Server.RateLimit.RequestsPerMin <= 0 {
		ve.Add("server.rate_limit.requests_per_min must be > 0")
	}
	if cfg.Server.RateLimit.Burst <= 0 {
		ve.Add("server.rate_limit.burst must be > 0")
	}
	for _, p := range cfg.Server.TrustedProxies {
		if net.ParseIP(p) == nil {
			ve.Add("server.trusted_proxies: %q is not an IP address", p)
		}
	}
}

func validateAgent(cfg *Config, ve *ValidationError) {
	if cfg.Agent.MaxIterations <= 0 {
		ve.Add("agent.max_iterations must be > 0")
	}
	if cfg.Agent.MaxHistory < 0 {
		ve.Add("agent.max_history must be >= 0")
	}
	if cfg.Agent.MaxContextTokens < 0 {
		ve.Add("agent.max_context_tokens must be >= 0")
	}
	if cfg.Agent.Timeout <= 0 {
		ve.Add("agent.timeout must be > 0")
	}
}

func validateLLM(cfg *Config, ve *ValidationError) {
	if cfg.LLM.Provider != "openai" {
		ve.Add("llm.provider %q is not supported (want: openai)", cfg.LLM.Provider)
	}
	if cfg.LLM.Model == "" {
		ve.Add("llm.model must not be empty")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		ve.Add("llm.temperature must be within [0, 2]")
	}
	if cfg.LLM.CircuitBreaker.Enabled && cfg.LLM.CircuitBreaker.MaxFailures == 0 {
		ve.Add("llm.circuit_breaker.max_failures must be > 0 when enabled")
	}
}

var (
	validSearchVariants = map[string]bool{"enhanced": true, "minimal": true}
	validSearchBackends = map[string]bool{"duckduckgo": true, "tavily": true, "searxng": true}
)

func validateTools(cfg *Config, ve *ValidationError) {
	s := cfg.Tools.Search
	if !validSearchVariants[s.Variant] {
		ve.Add("tools.search.variant %q is invalid (want: enhanced, minimal)", s.Variant)
	}
	if !validSearchBackends[s.Backend] {
		ve.Add("tools.search.backend %q is invalid (want: duckduckgo, tavily, searxng)", s.Backend)
	}
	if s.MaxResults <= 0 || s.MaxResults > 20 {
		ve.Add("tools.search.max_results must be 1-20")
	}
	if s.Backend == "searxng" && s.SearXNGURL == "" {
		ve.Add("tools.search.searxng_url is required for the searxng backend")
	}
	if cfg.Tools.Fetch.Enabled && cfg.Tools.Fetch.MaxChars <= 0 {
		ve.Add("tools.fetch.max_chars must be > 0 when fetch is enabled")
	}
}

func validateThreads(cfg *Config, ve *ValidationError) {
	switch cfg.Threads.Store {
	case "memory":
	case "sqlite":
		if cfg.Threads.SQLitePath == "" {
			ve.Add("threads.sqlite_path is required for the sqlite store")
		}
	default:
		ve.Add("threads.store %q is invalid (want: memory, sqlite)", cfg.Threads.Store)
	}
	if cfg.Threads.MaxAge < 0 {
		ve.Add("threads.max_age must be >= 0")
	}
	if cfg.Threads.MaxAge > 0 && cfg.Threads.ReapSchedule == "" {
		ve.Add("threads.reap_schedule is required when threads.max_age is set")
	}
}

func validateLogger(cfg *Config, ve *ValidationError) {
	switch strings.ToLower(cfg.Logger.Level) {
	case "debug", "info", "warn", "warning", "error", "":
	default:
		ve.Add("logger.level %q is invalid", cfg.Logger.Level)
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "text", "json", "":
	default:
		ve.Add("logger.format %q is invalid (want: text, json)", cfg.Logger.Format)
	}
}
