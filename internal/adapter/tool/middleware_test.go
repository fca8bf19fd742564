package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"scout/internal/domain"
)

type nameParams struct {
	Name string `json:"name"`
}

func TestExecuteJSONResult(t *testing.T) {
	result, err := Execute(context.Background(), "test.tool", nopLogger(), json.RawMessage(`{"name":"alice"}`),
		func(_ context.Context, _ trace.Span, p nameParams) (any, error) {
			return map[string]string{"greeting": "hello " + p.Name}, nil
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError || !strings.Contains(result.Content, `"greeting": "hello alice"`) {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestExecuteStringResult(t *testing.T) {
	result, _ := Execute(context.Background(), "test.tool", nopLogger(), json.RawMessage(`{}`),
		func(_ context.Context, _ trace.Span, _ nameParams) (any, error) {
			return "plain text", nil
		},
	)
	if result.Content != "plain text" || result.IsError {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestExecutePassthroughResult(t *testing.T) {
	want := &domain.ToolResult{IsError: true, Content: "custom"}
	result, _ := Execute(context.Background(), "test.tool", nopLogger(), json.RawMessage(`{}`),
		func(_ context.Context, _ trace.Span, _ nameParams) (any, error) {
			return want, nil
		},
	)
	if result != want {
		t.Errorf("got %+v, want passthrough", result)
	}
}

func TestExecuteInvalidParams(t *testing.T) {
	called := false
	result, err := Execute(context.Background(), "test.tool", nopLogger(), json.RawMessage(`[1,2]`),
		func(_ context.Context, _ trace.Span, _ nameParams) (any, error) {
			called = true
			return nil, nil
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("handler should not run on bad params")
	}
	if !result.IsError || !strings.HasPrefix(result.Content, "invalid params") {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestExecuteHandlerError(t *testing.T) {
	tests := []struct {
		err       error
		retryable bool
	}{
		{errors.New("bad input"), false},
		{fmt.Errorf("backend: %w", domain.ErrTimeout), true},
		{errors.New("dial tcp: connection refused"), true},
	}
	for _, tt := range tests {
		result, err := Execute(context.Background(), "test.tool", nopLogger(), json.RawMessage(`{}`),
			func(_ context.Context, _ trace.Span, _ nameParams) (any, error) {
				return nil, tt.err
			},
		)
		if err != nil {
			t.Fatal(err)
		}
		if !result.IsError || result.IsRetryable != tt.retryable {
			t.Errorf("%v: got %+v", tt.err, result)
		}
		if tt.retryable && !strings.HasSuffix(result.Content, "(transient error, may succeed on retry)") {
			t.Errorf("%v: missing retry hint: %q", tt.err, result.Content)
		}
	}
}

func TestExecuteUnmarshalableResult(t *testing.T) {
	result, _ := Execute(context.Background(), "test.tool", nopLogger(), json.RawMessage(`{}`),
		func(_ context.Context, _ trace.Span, _ nameParams) (any, error) {
			return map[string]any{"ch": make(chan int)}, nil
		},
	)
	if !result.IsError || !strings.Contains(result.Content, "failed to format response") {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestClassifyToolError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{domain.ErrRateLimit, true},
		{fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", domain.ErrProviderError)), true},
		{domain.ErrSSRFBlocked, false},
		{domain.ErrInvalidInput, false},
		{errors.New("Service Unavailable"), true},
		{errors.New("HTTP 429 Too Many Requests"), true},
		{errors.New("i/o timeout"), true},
		{errors.New("permission denied"), false},
	}
	for _, tt := range tests {
		if got := classifyToolError(tt.err); got != tt.want {
			t.Errorf("classifyToolError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestValidateURL(t *testing.T) {
	for _, ok := range []string{"http://example.com", "https://example.com/a?b=c"} {
		if err := ValidateURL("url", ok); err != nil {
			t.Errorf("ValidateURL(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "example.com", "ftp://example.com", "https://", "http://%zz"} {
		if err := ValidateURL("url", bad); err == nil {
			t.Errorf("ValidateURL(%q) should fail", bad)
		}
	}
}

func TestRequireField(t *testing.T) {
	if err := RequireField("query", "go"); err != nil {
		t.Errorf("RequireField = %v", err)
	}
	err := RequireField("query", "")
	if !errors.Is(err, domain.ErrInvalidInput) || !strings.Contains(err.Error(), "'query' is required") {
		t.Errorf("RequireField(empty) = %v", err)
	}
	if classifyToolError(err) {
		t.Error("missing argument must not be retryable")
	}
}
