package tool

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"scout/internal/domain"
)

func nopLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

// mockSearchBackend answers every query with results, or err when set, and
// records what it was asked.
type mockSearchBackend struct {
	results []domain.SearchResult
	err     error

	mu      sync.Mutex
	queries []string
	counts  []int
}

func (m *mockSearchBackend) Name() string { return "mock" }

func (m *mockSearchBackend) Search(_ context.Context, query string, count int) ([]domain.SearchResult, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.counts = append(m.counts, count)
	m.mu.Unlock()
	return m.results, m.err
}

func (m *mockSearchBackend) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// stubTool returns result from every call and counts the calls.
type stubTool struct {
	name   string
	schema json.RawMessage
	result *domain.ToolResult
	calls  int
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub" }

func (s *stubTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{Name: s.name, Description: s.Description(), Parameters: s.schema}
}

func (s *stubTool) Execute(context.Context, json.RawMessage) (*domain.ToolResult, error) {
	s.calls++
	return s.result, nil
}
