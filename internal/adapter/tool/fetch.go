package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/trace"

	"scout/internal/domain"
	"scout/internal/infra/tracer"
	"scout/internal/security"
)

const (
	maxFetchBodySize  = 2 * 1024 * 1024
	defaultFetchChars = 8000
	fetchUserAgent    = "Mozilla/5.0 (compatible; scout/1.0)"
	truncatedMarker   = "\n[truncated]"
)

// FetchTool reads a web page and returns its visible text.
type FetchTool struct {
	client   *http.Client
	maxChars int
	logger   *slog.Logger
	// checkURL vets the target before any request is made.
	checkURL func(ctx context.Context, rawURL string) error
}

// NewFetchTool creates a fetch tool. client should come from
// security.NewSafeClient so private addresses are unreachable.
func NewFetchTool(client *http.Client, maxChars int, logger *slog.Logger) *FetchTool {
	if maxChars <= 0 {
		maxChars = defaultFetchChars
	}
	return &FetchTool{client: client, maxChars: maxChars, logger: logger, checkURL: security.CheckURL}
}

func (t *FetchTool) Name() string { return "web_fetch" }
func (t *FetchTool) Description() string {
	return "Fetch a web page by URL and return its readable text. Use it to read a result found by search."
}

func (t *FetchTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"url": {"type": "string", "description": "Absolute http(s) URL to fetch"}
			},
			"required": ["url"]
		}`),
	}
}

type fetchParams struct {
	URL string `json:"url"`
}

func (t *FetchTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, "tool.web_fetch", t.logger, params,
		func(ctx context.Context, span trace.Span, p fetchParams) (any, error) {
			if err := ValidateURL("url", p.URL); err != nil {
				return ErrResult("%v", err)
			}
			if err := t.checkURL(ctx, p.URL); err != nil {
				return nil, err
			}
			span.SetAttributes(tracer.StringAttr("tool.url", p.URL))

			text, status, err := t.fetch(ctx, p.URL)
			if err != nil {
				return nil, err
			}
			span.SetAttributes(tracer.IntAttr("http.status_code", status))
			t.logger.Debug("web fetch completed", "url", p.URL, "status", status, "chars", len(text))

			if status >= 400 {
				return ErrResult("HTTP %d fetching %s", status, p.URL)
			}
			return truncateText(text, t.maxChars), nil
		},
	)
}

func (t *FetchTool) fetch(ctx context.Context, rawURL string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9,*/*;q=0.5")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxFetchBodySize)
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != "" && mediaType != "text/html" && mediaType != "application/xhtml+xml" {
		if !strings.HasPrefix(mediaType, "text/") {
			return "", resp.StatusCode, fmt.Errorf("unsupported content type %q", mediaType)
		}
		data, err := io.ReadAll(body)
		if err != nil {
			return "", resp.StatusCode, fmt.Errorf("read body: %w", err)
		}
		return strings.Join(strings.Fields(string(data)), " "), resp.StatusCode, nil
	}

	text, err := ExtractText(body)
	if err != nil {
		return "", resp.StatusCode, err
	}
	return text, resp.StatusCode, nil
}

// ExtractText returns the visible text of an HTML document with scripts and
// styles removed and whitespace collapsed. The page title, if any, leads.
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, template, svg").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find("head").Remove()

	body := strings.Join(strings.Fields(doc.Text()), " ")
	if title != "" && !strings.HasPrefix(body, title) {
		return title + "\n\n" + body, nil
	}
	return body, nil
}

// truncateText cuts s to at most max bytes on a rune boundary.
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncatedMarker
}
