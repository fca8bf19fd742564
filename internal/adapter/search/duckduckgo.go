package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"scout/internal/domain"
)

const (
	ddgLiteURL     = "https://lite.duckduckgo.com/lite/"
	ddgUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxDDGBodySize = 1 << 20
)

// ddgLimiter keeps every DuckDuckGo client in the process at one query per
// second.
var ddgLimiter = rate.NewLimiter(rate.Every(time.Second), 1)

// DuckDuckGo scrapes the DuckDuckGo lite HTML endpoint. It needs no API key.
type DuckDuckGo struct {
	client   *http.Client
	endpoint string
	limiter  *rate.Limiter
	retry    retryPolicy
	logger   *slog.Logger
}

// NewDuckDuckGo creates a DuckDuckGo backend using client.
func NewDuckDuckGo(client *http.Client, logger *slog.Logger) *DuckDuckGo {
	return &DuckDuckGo{
		client:   client,
		endpoint: ddgLiteURL,
		limiter:  ddgLimiter,
		retry:    defaultRetryPolicy(),
		logger:   logger,
	}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string, count int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("duckduckgo: query is empty")
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("duckduckgo: rate limiter: %w", err)
	}

	form := url.Values{"q": {query}}.Encode()
	resp, err := d.retry.do(ctx, d.client, d.Name(), func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form))
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", ddgUserAgent)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Backend: d.Name(), Code: resp.StatusCode}
	}

	results, err := parseLiteResults(io.LimitReader(resp.Body, maxDDGBodySize), count)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("duckduckgo search completed", "query", query, "results", len(results))
	return results, nil
}

// parseLiteResults reads result links and their snippets from a lite page.
// Each result-link anchor is paired with the next result-snippet cell.
func parseLiteResults(r io.Reader, count int) ([]domain.SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: parse html: %w", err)
	}

	snippets := doc.Find("td.result-snippet").Map(func(_ int, s *goquery.Selection) string {
		return strings.Join(strings.Fields(s.Text()), " ")
	})

	var results []domain.SearchResult
	doc.Find("a.result-link").EachWithBreak(func(i int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		link := decodeRedirect(href)
		title := strings.TrimSpace(s.Text())
		if link == "" || title == "" || isAdLink(link) {
			return true
		}
		var snippet string
		if i < len(snippets) {
			snippet = snippets[i]
		}
		results = append(results, domain.SearchResult{Title: title, URL: link, Snippet: snippet})
		return count <= 0 || len(results) < count
	})
	return results, nil
}

// decodeRedirect unwraps DuckDuckGo "/l/?uddg=<target>" links. Other links
// are returned with a scheme added when protocol-relative.
func decodeRedirect(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" && strings.HasSuffix(u.Hostname(), "duckduckgo.com") {
		return target
	}
	if u.Host == "" {
		// Relative link into duckduckgo itself; not a result.
		return ""
	}
	return u.String()
}

func isAdLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.HasSuffix(u.Hostname(), "duckduckgo.com") && strings.HasPrefix(u.Path, "/y.js")
}
