// Package llm adapts OpenAI-compatible chat completion APIs to
// domain.LLMProvider.
package llm

import (
	"fmt"
	"log/slog"

	"scout/internal/domain"
	"scout/internal/infra/config"
)

// New builds the configured provider, wrapped in a circuit breaker when
// cfg.CircuitBreaker.Enabled is set.
func New(cfg config.LLMConfig, logger *slog.Logger) (domain.LLMProvider, error) {
	var provider domain.LLMProvider
	switch cfg.Provider {
	case "openai", "":
		provider = NewOpenAIProvider(cfg, nil, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	if cfg.CircuitBreaker.Enabled {
		provider = NewCircuitBreakerProvider(provider, cfg.CircuitBreaker, logger)
	}

	logger.Info("llm provider ready",
		"provider", provider.Name(),
		"model", cfg.Model,
		"base_url", cfg.BaseURL,
		"circuit_breaker", cfg.CircuitBreaker.Enabled,
	)
	return provider, nil
}
