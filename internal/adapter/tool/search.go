package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"scout/internal/domain"
	"scout/internal/infra/tracer"
)

// Variant selects the behaviour of a SearchTool.
type Variant string

const (
	// VariantEnhanced biases queries toward recent results and returns a
	// numbered summary.
	VariantEnhanced Variant = "enhanced"
	// VariantMinimal returns the raw result snippets.
	VariantMinimal Variant = "minimal"
)

// SearchFailedPrefix starts every rendered backend failure.
const SearchFailedPrefix = "Search failed: "

const (
	defaultSearchResults = 6
	defaultCacheTTL      = 15 * time.Minute
	maxCacheEntries      = 100

	minimalNoResults = "No good DuckDuckGo Search Result was found"
)

type variantInfo struct {
	name        string
	description string
}

var variants = map[Variant]variantInfo{
	VariantEnhanced: {
		name:        "web_search",
		description: "Useful for searching the internet for real-time information.",
	},
	VariantMinimal: {
		name: "duckduckgo_search",
		description: "A wrapper around DuckDuckGo Search. Useful for when you need to answer " +
			"questions about current events. Input should be a search query.",
	},
}

// SearchOptions tunes a SearchTool.
type SearchOptions struct {
	MaxResults int           // results requested from the backend (default 6)
	CacheTTL   time.Duration // lifetime of cached outputs (default 15m)
}

// cacheEntry holds a cached search output with its expiration time.
type cacheEntry struct {
	result    string
	expiresAt time.Time
}

// SearchTool runs web searches through a domain.SearchBackend. It satisfies
// both domain.QueryTool and domain.Tool.
type SearchTool struct {
	variant    Variant
	info       variantInfo
	backend    domain.SearchBackend
	maxResults int
	cacheTTL   time.Duration
	logger     *slog.Logger
	now        func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewSearchTool creates the search tool for variant.
func NewSearchTool(variant Variant, backend domain.SearchBackend, opts SearchOptions, logger *slog.Logger) (*SearchTool, error) {
	info, ok := variants[variant]
	if !ok {
		return nil, fmt.Errorf("unknown search variant %q (want: enhanced, minimal)", variant)
	}
	if backend == nil {
		return nil, fmt.Errorf("search variant %q: backend is required", variant)
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultSearchResults
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	return &SearchTool{
		variant:    variant,
		info:       info,
		backend:    backend,
		maxResults: opts.MaxResults,
		cacheTTL:   opts.CacheTTL,
		logger:     logger,
		now:        time.Now,
		cache:      make(map[string]cacheEntry),
	}, nil
}

func (t *SearchTool) Name() string        { return t.info.name }
func (t *SearchTool) Description() string { return t.info.description }

// Variant reports which variant this tool implements.
func (t *SearchTool) Variant() Variant { return t.variant }

func (t *SearchTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "minLength": 1, "description": "The search query"}
			},
			"required": ["query"]
		}`),
	}
}

// Run searches without cancellation.
func (t *SearchTool) Run(query string) string {
	return t.RunContext(context.Background(), query)
}

// RunContext searches and renders the result. Backend failures come back as
// "Search failed: <err>" rather than as an error.
func (t *SearchTool) RunContext(ctx context.Context, query string) string {
	out, err := t.search(ctx, query)
	if err != nil {
		return SearchFailedPrefix + err.Error()
	}
	return out
}

type searchParams struct {
	Query string `json:"query"`
}

// Execute adapts the tool to LLM function calling.
func (t *SearchTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool."+t.Name(), t.logger, params,
		func(ctx context.Context, span trace.Span, p searchParams) (any, error) {
			if err := RequireField("query", strings.TrimSpace(p.Query)); err != nil {
				return nil, err
			}
			span.SetAttributes(tracer.StringAttr("tool.query", p.Query))

			out, err := t.search(ctx, p.Query)
			if err != nil {
				return &domain.ToolResult{
					IsError:     true,
					IsRetryable: classifyToolError(err),
					Content:     SearchFailedPrefix + err.Error(),
				}, nil
			}
			return out, nil
		},
	)
}

func (t *SearchTool) search(ctx context.Context, query string) (string, error) {
	if t.variant == VariantEnhanced {
		t.logger.Info("real-time search", "query", query)
		query = EnhanceQueryAt(query, t.now())
	}

	if cached, ok := t.getCached(query); ok {
		t.logger.Debug("search cache hit", "tool", t.Name(), "query", query)
		return cached, nil
	}

	results, err := t.backend.Search(ctx, query, t.maxResults)
	if err != nil {
		return "", err
	}
	if len(results) > t.maxResults {
		results = results[:t.maxResults]
	}

	var out string
	switch t.variant {
	case VariantEnhanced:
		t.logger.Info("search results found", "count", len(results))
		out = FormatResults(EncodeResults(results))
	default:
		out = joinSnippets(results)
	}

	t.putCache(query, out)
	return out, nil
}

func joinSnippets(results []domain.SearchResult) string {
	snippets := make([]string, 0, len(results))
	for _, r := range results {
		if s := strings.TrimSpace(r.Snippet); s != "" {
			snippets = append(snippets, s)
		}
	}
	if len(snippets) == 0 {
		return minimalNoResults
	}
	return strings.Join(snippets, " ")
}

// getCached returns a cached result if it exists and has not expired.
func (t *SearchTool) getCached(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.cache[key]
	if !ok {
		return "", false
	}
	if t.now().After(entry.expiresAt) {
		delete(t.cache, key)
		return "", false
	}
	return entry.result, true
}

// putCache stores a result with the configured TTL. Once the cache grows
// past maxCacheEntries expired entries are swept, and if none had expired
// the entry closest to expiry is evicted.
func (t *SearchTool) putCache(key, result string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.cache[key] = cacheEntry{result: result, expiresAt: now.Add(t.cacheTTL)}

	if len(t.cache) <= maxCacheEntries {
		return
	}
	for k, v := range t.cache {
		if now.After(v.expiresAt) {
			delete(t.cache, k)
		}
	}
	for len(t.cache) > maxCacheEntries {
		var oldest string
		var oldestAt time.Time
		for k, v := range t.cache {
			if oldest == "" || v.expiresAt.Before(oldestAt) {
				oldest, oldestAt = k, v.expiresAt
			}
		}
		delete(t.cache, oldest)
	}
}

// IsSearchFailure reports whether out is a rendered backend failure.
func IsSearchFailure(out string) bool {
	return strings.HasPrefix(out, SearchFailedPrefix)
}
