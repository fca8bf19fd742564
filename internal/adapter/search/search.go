// Package search holds the web search engines behind the search tool.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"scout/internal/domain"
	"scout/internal/infra/config"
	"scout/internal/infra/tracer"
)

// New builds the backend named by cfg.Backend, wrapped with tracing.
func New(cfg config.SearchConfig, logger *slog.Logger) (domain.SearchBackend, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	var backend domain.SearchBackend
	switch cfg.Backend {
	case "duckduckgo", "":
		backend = NewDuckDuckGo(client, logger)
	case "tavily":
		tv, err := NewTavily(cfg.TavilyAPIKey, cfg.TavilyBaseURL, client, logger)
		if err != nil {
			return nil, err
		}
		backend = tv
	case "searxng":
		if cfg.SearXNGURL == "" {
			return nil, fmt.Errorf("searxng: instance URL is required")
		}
		backend = NewSearXNG(cfg.SearXNGURL, client, logger)
	default:
		return nil, fmt.Errorf("unknown search backend %q (want: duckduckgo, tavily, searxng)", cfg.Backend)
	}
	return &traced{inner: backend}, nil
}

// traced records a "search.<backend>" span around every query.
type traced struct {
	inner domain.SearchBackend
}

func (t *traced) Name() string { return t.inner.Name() }

func (t *traced) Search(ctx context.Context, query string, count int) ([]domain.SearchResult, error) {
	ctx, span := tracer.StartSpan(ctx, "search."+t.inner.Name(),
		tracer.StringAttr("search.query", query),
		tracer.IntAttr("search.count", count),
	)
	defer span.End()

	results, err := t.inner.Search(ctx, query, count)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(tracer.IntAttr("search.results", len(results)))
	tracer.SetOK(span)
	return results, nil
}
