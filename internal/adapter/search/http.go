package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scout/internal/domain"
)

const (
	maxAttempts    = 4
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// StatusError is a non-200 answer from a search engine.
type StatusError struct {
	Backend string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Backend, e.Code, e.Body)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Backend, e.Code)
}

// Unwrap maps the status onto a domain sentinel so callers can classify it.
func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusTooManyRequests:
		return domain.ErrRateLimit
	case e.Code >= 500:
		return domain.ErrProviderError
	default:
		return domain.ErrSearchFailed
	}
}

// retryPolicy retries HTTP 429 answers with exponential backoff.
type retryPolicy struct {
	attempts int
	initial  time.Duration
	max      time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{attempts: maxAttempts, initial: initialBackoff, max: maxBackoff}
}

// do sends the request built by newReq, retrying on 429. The body of the
// returned response is open; on exhaustion the last 429 is returned as a
// *StatusError.
func (p retryPolicy) do(ctx context.Context, client *http.Client, backend string, newReq func() (*http.Request, error)) (*http.Response, error) {
	delay := p.initial
	for attempt := 1; ; attempt++ {
		req, err := newReq()
		if err != nil {
			return nil, fmt.Errorf("%s: create request: %w", backend, err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s: request: %w", backend, err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()

		if attempt >= p.attempts {
			return nil, &StatusError{Backend: backend, Code: http.StatusTooManyRequests}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, p.max)
	}
}

const maxErrorBody = 256

// readJSON decodes a JSON answer of at most limit bytes into v. A non-200
// answer becomes a *StatusError carrying the start of the body.
func readJSON(resp *http.Response, backend string, limit int64, v any) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", backend, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := body[:min(len(body), maxErrorBody)]
		return &StatusError{Backend: backend, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%s: parse response: %w", backend, err)
	}
	return nil
}

// jsonHit is the result shape Tavily and SearXNG share.
type jsonHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

func hitsToResults(hits []jsonHit, count int) []domain.SearchResult {
	if count > 0 && len(hits) > count {
		hits = hits[:count]
	}
	out := make([]domain.SearchResult, len(hits))
	for i, h := range hits {
		out[i] = domain.SearchResult{Title: h.Title, URL: h.URL, Snippet: h.Content}
	}
	return out
}
