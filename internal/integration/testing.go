// Package integration holds end-to-end tests that talk to real model and
// search providers. They only build with -tags integration.
package integration

import (
	"context"
	"os"
	"testing"
	"time"
)

const liveTimeout = 90 * time.Second

// Env is what the live tests read from the environment.
type Env struct {
	OpenAIKey   string
	OpenAIModel string
	// SearXNGURL switches the live search test from DuckDuckGo to a
	// SearXNG instance.
	SearXNGURL string
	SkipSlow   bool
}

// Live skips t in -short mode, and also when needLLM is set but no OpenAI
// key is configured. It returns the environment together with a context
// bounded by liveTimeout.
func Live(t *testing.T, needLLM bool) (*Env, context.Context) {
	t.Helper()
	if testing.Short() {
		t.Skip("live test skipped in -short mode")
	}

	env := &Env{
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: os.Getenv("SCOUT_LLM_MODEL"),
		SearXNGURL:  os.Getenv("SCOUT_SEARXNG_URL"),
		SkipSlow:    os.Getenv("SKIP_SLOW_TESTS") == "1",
	}
	if env.OpenAIModel == "" {
		env.OpenAIModel = "gpt-4o-mini"
	}
	if needLLM && env.OpenAIKey == "" {
		t.Skip("OPENAI_API_KEY not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), liveTimeout)
	t.Cleanup(cancel)
	return env, ctx
}
