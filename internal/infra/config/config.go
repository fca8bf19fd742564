package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"scout/internal/domain"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Agent   AgentConfig   `yaml:"agent"`
	LLM     LLMConfig     `yaml:"llm"`
	Tools   ToolsConfig   `yaml:"tools"`
	Threads ThreadsConfig `yaml:"threads"`
	Logger  LoggerConfig  `yaml:"logger"`
	Tracer  TracerConfig  `yaml:"tracer"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string          `yaml:"addr"`
	ReadTimeout     time.Duration   `yaml:"read_timeout"`
	WriteTimeout    time.Duration   `yaml:"write_timeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	TrustedProxies  []string        `yaml:"trusted_proxies,omitempty"`
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	RequestsPerMin int `yaml:"requests_per_min"`
	Burst          int `yaml:"burst"`
}

// AgentConfig controls the reasoning loop.
type AgentConfig struct {
	SystemPrompt     string        `yaml:"system_prompt"`
	MaxIterations    int           `yaml:"max_iterations"`
	MaxHistory       int           `yaml:"max_history"`
	MaxContextTokens int           `yaml:"max_context_tokens"` // 0 = no token budget
	Timeout          time.Duration `yaml:"timeout"`
}

// LLMConfig holds chat model settings.
type LLMConfig struct {
	Provider       string               `yaml:"provider"`
	BaseURL        string               `yaml:"base_url"`
	APIKey         string               `yaml:"api_key"`
	Model          string               `yaml:"model"`
	Temperature    float64              `yaml:"temperature"`
	MaxTokens      int                  `yaml:"max_tokens"`
	ConnTimeout    time.Duration        `yaml:"conn_timeout"`
	RespTimeout    time.Duration        `yaml:"resp_timeout"`
	Pool           PoolConfig           `yaml:"pool"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig holds circuit breaker settings for the LLM provider.
type CircuitBreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// PoolConfig holds HTTP connection pool settings for the LLM provider.
type PoolConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// ToolsConfig holds tool settings.
type ToolsConfig struct {
	Search SearchConfig `yaml:"search"`
	Fetch  FetchConfig  `yaml:"fetch"`
}

// SearchConfig selects the search tool variant and its backend.
type SearchConfig struct {
	Variant       string        `yaml:"variant"` // "enhanced" or "minimal"
	Backend       string        `yaml:"backend"` // "duckduckgo", "tavily", "searxng"
	MaxResults    int           `yaml:"max_results"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	Timeout       time.Duration `yaml:"timeout"`
	SearXNGURL    string        `yaml:"searxng_url"`
	TavilyAPIKey  string        `yaml:"tavily_api_key"`
	TavilyBaseURL string        `yaml:"tavily_base_url"`
}

// FetchConfig controls the optional page fetch tool.
type FetchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	MaxChars int           `yaml:"max_chars"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ThreadsConfig controls conversation persistence.
type ThreadsConfig struct {
	Store        string        `yaml:"store"` // "memory" or "sqlite"
	SQLitePath   string        `yaml:"sqlite_path"`
	MaxAge       time.Duration `yaml:"max_age"` // 0 = never reap
	ReapSchedule string        `yaml:"reap_schedule"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// defaultDataDir returns the persistent data directory under $HOME/.scout.
// Falls back to "./data" if $HOME cannot be determined.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".scout")
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":5001",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    150 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				RequestsPerMin: 100,
				Burst:          20,
			},
		},
		Agent: AgentConfig{
			SystemPrompt: "You are a helpful assistant with access to real-time web search. " +
				"Search the web whenever a question depends on recent or changing information.",
			MaxIterations: 10,
			MaxHistory:    50,
			Timeout:       120 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:     true,
				MaxFailures: 5,
				Timeout:     30 * time.Second,
				Interval:    60 * time.Second,
			},
		},
		Tools: ToolsConfig{
			Search: SearchConfig{
				Variant:       "enhanced",
				Backend:       "duckduckgo",
				MaxResults:    6,
				CacheTTL:      15 * time.Minute,
				Timeout:       15 * time.Second,
				SearXNGURL:    "http://localhost:6060",
				TavilyBaseURL: "https://api.tavily.com",
			},
			Fetch: FetchConfig{
				Enabled:  false,
				MaxChars: 8000,
				Timeout:  20 * time.Second,
			},
		},
		Threads: ThreadsConfig{
			Store:        "memory",
			SQLitePath:   filepath.Join(defaultDataDir(), "threads.db"),
			MaxAge:       24 * time.Hour,
			ReapSchedule: "@every 10m",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads a YAML config file, applies env var overrides, and decrypts secrets.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return finish(cfg)
		}
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrConfigLoad, path, err)
	}

	if err := validatePermissions(path); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfigLoad, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config: %w", domain.ErrConfigLoad, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	ApplyEnvOverrides(cfg)

	if key := os.Getenv(KeyEnv); key != "" {
		if err := decryptSecrets(cfg, key); err != nil {
			return nil, err
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps SCOUT_* and provider env vars to config fields.
// Provider keys only fill in blanks so an explicit config value wins.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" && cfg.Tools.Search.TavilyAPIKey == "" {
		cfg.Tools.Search.TavilyAPIKey = v
	}

	if v := os.Getenv("SCOUT_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SCOUT_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("SCOUT_LLM_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.LLM.Temperature = f
		}
	}
	if v := os.Getenv("SCOUT_AGENT_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Agent.MaxIterations = n
		}
	}
	if v := os.Getenv("SCOUT_AGENT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Agent.Timeout = d
		}
	}
	if v := os.Getenv("SCOUT_SEARCH_VARIANT"); v != "" {
		cfg.Tools.Search.Variant = v
	}
	if v := os.Getenv("SCOUT_SEARCH_BACKEND"); v != "" {
		cfg.Tools.Search.Backend = v
	}
	if v := os.Getenv("SCOUT_SEARXNG_URL"); v != "" {
		cfg.Tools.Search.SearXNGURL = v
	}
	if v := os.Getenv("SCOUT_FETCH_ENABLED"); v == "true" {
		cfg.Tools.Fetch.Enabled = true
	}
	if v := os.Getenv("SCOUT_THREADS_STORE"); v != "" {
		cfg.Threads.Store = v
	}
	if v := os.Getenv("SCOUT_THREADS_SQLITE_PATH"); v != "" {
		cfg.Threads.SQLitePath = v
	}
	if v := os.Getenv("SCOUT_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("SCOUT_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("SCOUT_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("SCOUT_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
	if v := os.Getenv("SCOUT_TRUSTED_PROXIES"); v != "" {
		cfg.Server.TrustedProxies = splitAndTrim(v, ",")
	}
}

// splitAndTrim splits s by sep and trims whitespace from each element.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// validatePermissions rejects config files writable by group or others.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	if mode&0o022 != 0 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
