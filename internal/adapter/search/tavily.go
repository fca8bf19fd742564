package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"scout/internal/domain"
)

const (
	defaultTavilyURL  = "https://api.tavily.com"
	maxTavilyBodySize = 1 << 20
	tavilySearchDepth = "basic"
)

// ErrMissingAPIKey is returned by backends that need a key when none is set.
var ErrMissingAPIKey = errors.New("API key is missing")

// Tavily calls the Tavily search API.
type Tavily struct {
	apiKey  string
	baseURL string
	client  *http.Client
	retry   retryPolicy
	logger  *slog.Logger
}

// NewTavily creates a Tavily backend. An empty baseURL uses the public API.
func NewTavily(apiKey, baseURL string, client *http.Client, logger *slog.Logger) (*Tavily, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("tavily: %w (set TAVILY_API_KEY)", ErrMissingAPIKey)
	}
	if baseURL == "" {
		baseURL = defaultTavilyURL
	}
	return &Tavily{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		retry:   defaultRetryPolicy(),
		logger:  logger,
	}, nil
}

func (t *Tavily) Name() string { return "tavily" }

type tavilyRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []jsonHit `json:"results"`
}

func (t *Tavily) Search(ctx context.Context, query string, count int) ([]domain.SearchResult, error) {
	payload, err := json.Marshal(tavilyRequest{Query: query, MaxResults: count, SearchDepth: tavilySearchDepth})
	if err != nil {
		return nil, fmt.Errorf("tavily: marshal request: %w", err)
	}

	resp, err := t.retry.do(ctx, t.client, t.Name(), func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed tavilyResponse
	if err := readJSON(resp, t.Name(), maxTavilyBodySize, &parsed); err != nil {
		return nil, err
	}
	results := hitsToResults(parsed.Results, count)
	t.logger.Debug("tavily search completed", "query", query, "results", len(results))
	return results, nil
}
