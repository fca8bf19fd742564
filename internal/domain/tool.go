package domain

import (
	"context"
	"encoding/json"
)

// ToolSchema advertises a tool to the model. Parameters is a JSON Schema
// object.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolCall is the model asking for Name to run with JSON Arguments.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult is fed back to the model as a tool message. A failed call is
// still a result: IsError is set and Content explains what went wrong.
type ToolResult struct {
	ToolCallID  string `json:"tool_call_id"`
	Content     string `json:"content"`
	IsError     bool   `json:"is_error"`
	IsRetryable bool   `json:"is_retryable,omitempty"`
}

// Tool is what the agent loop dispatches tool calls to.
type Tool interface {
	Name() string
	Description() string
	Schema() ToolSchema
	Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error)
}

// ToolExecutor resolves tool calls by name.
type ToolExecutor interface {
	Get(name string) (Tool, error)
	Schemas() []ToolSchema
}

// QueryTool takes a plain query string and always answers with a string.
// Failures become text in the answer so a reasoning loop can carry on.
type QueryTool interface {
	Name() string
	Description() string
	Run(query string) string
	RunContext(ctx context.Context, query string) string
}
