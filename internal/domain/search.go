package domain

import "context"

// SearchResult is one hit from a search engine, already stripped of markup.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchBackend queries one web search engine. Search returns at most
// count results, in engine ranking order.
type SearchBackend interface {
	Search(ctx context.Context, query string, count int) ([]SearchResult, error)
	Name() string
}
