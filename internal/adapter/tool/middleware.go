package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"scout/internal/domain"
	"scout/internal/infra/tracer"
)

const retryHint = " (transient error, may succeed on retry)"

// Handler does the work of one tool call with decoded params P. It may
// return a string, a *domain.ToolResult, or any value that marshals to JSON.
type Handler[P any] func(ctx context.Context, span trace.Span, params P) (any, error)

// Execute decodes rawParams into P, runs h inside a span named spanName and
// converts whatever comes back into a tool result. The returned error is
// always nil: a failing tool answers the model instead of ending the turn.
func Execute[P any](
	ctx context.Context,
	spanName string,
	logger *slog.Logger,
	rawParams json.RawMessage,
	h Handler[P],
) (*domain.ToolResult, error) {
	ctx, span := tracer.StartSpan(ctx, spanName, tracer.StringAttr("tool.name", spanName))
	defer span.End()

	var params P
	if err := json.Unmarshal(rawParams, &params); err != nil {
		tracer.RecordError(span, err)
		return ErrResult("invalid params: %v", err)
	}

	out, err := h(ctx, span, params)
	if err != nil {
		tracer.RecordError(span, err)
		logger.Warn("tool call failed", "tool", spanName, "error", err)
		return failureResult(err), nil
	}

	res := toResult(out)
	if res.IsError {
		tracer.RecordError(span, errors.New(res.Content))
	} else {
		tracer.SetOK(span)
	}
	return res, nil
}

func failureResult(err error) *domain.ToolResult {
	res := &domain.ToolResult{IsError: true, Content: err.Error()}
	if classifyToolError(err) {
		res.IsRetryable = true
		res.Content += retryHint
	}
	return res
}

func toResult(out any) *domain.ToolResult {
	switch v := out.(type) {
	case *domain.ToolResult:
		return v
	case string:
		return TextResult(v)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return &domain.ToolResult{IsError: true, Content: "failed to format response: " + err.Error()}
	}
	return TextResult(string(data))
}

// ErrResult is a failed tool result the caller does not want logged.
func ErrResult(format string, args ...any) (*domain.ToolResult, error) {
	return &domain.ToolResult{IsError: true, Content: fmt.Sprintf(format, args...)}, nil
}

func TextResult(s string) *domain.ToolResult {
	return &domain.ToolResult{Content: s}
}
