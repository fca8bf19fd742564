package search

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"scout/internal/domain"
)

const maxSearXNGBodySize = 512 << 10

// SearXNG queries a self-hosted SearXNG instance through its JSON API. The
// instance must have the json format enabled in settings.yml.
type SearXNG struct {
	endpoint string
	client   *http.Client
	retry    retryPolicy
	logger   *slog.Logger
}

func NewSearXNG(instanceURL string, client *http.Client, logger *slog.Logger) *SearXNG {
	return &SearXNG{
		endpoint: strings.TrimRight(instanceURL, "/") + "/search",
		client:   client,
		retry:    defaultRetryPolicy(),
		logger:   logger,
	}
}

func (s *SearXNG) Name() string { return "searxng" }

func (s *SearXNG) Search(ctx context.Context, query string, count int) ([]domain.SearchResult, error) {
	params := url.Values{"q": {query}, "format": {"json"}, "pageno": {"1"}}
	resp, err := s.retry.do(ctx, s.client, s.Name(), func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var page struct {
		Results []jsonHit `json:"results"`
	}
	if err := readJSON(resp, s.Name(), maxSearXNGBodySize, &page); err != nil {
		return nil, err
	}
	results := hitsToResults(page.Results, count)
	s.logger.Debug("searxng search completed", "query", query, "results", len(results))
	return results, nil
}
