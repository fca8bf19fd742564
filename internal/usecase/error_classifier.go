package usecase

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"scout/internal/domain"
)

// LLMFailure is the classifier's reading of one failed model call.
type LLMFailure struct {
	Err       error
	Retryable bool
	// Cause is the domain sentinel the failure maps to, or nil.
	Cause error
	// Status is the HTTP status found in the provider error, or 0.
	Status int
}

// ErrorClassifier decides whether a failed model call is worth repeating
// and, for context overflow, whether the history should shrink first.
type ErrorClassifier struct{}

// NewErrorClassifier creates a classifier.
func NewErrorClassifier() *ErrorClassifier {
	return &ErrorClassifier{}
}

// statusPattern finds the "API error NNN:" detail the llm adapter attaches.
var statusPattern = regexp.MustCompile(`API error (\d{3})`)

var sentinelRules = []struct {
	cause error
	retry bool
}{
	{domain.ErrRateLimit, true},
	{domain.ErrContextOverflow, true},
	{domain.ErrAuthInvalid, false},
	{domain.ErrTimeout, true},
	{domain.ErrProviderError, true},
}

var textRules = []struct {
	needles []string
	cause   error
}{
	{[]string{"rate limit", "too many requests"}, domain.ErrRateLimit},
	{[]string{"context length", "context window", "token limit", "maximum context"}, domain.ErrContextOverflow},
	{[]string{"connection refused", "connection reset", "no such host", "timeout", "deadline exceeded"}, nil},
}

// Classify inspects err. Cancellation is never retried. Domain sentinels
// win over the HTTP status, which wins over message text.
func (c *ErrorClassifier) Classify(err error) LLMFailure {
	if err == nil {
		return LLMFailure{}
	}
	f := LLMFailure{Err: err, Status: statusOf(err)}
	if errors.Is(err, context.Canceled) {
		return f
	}

	for _, r := range sentinelRules {
		if errors.Is(err, r.cause) {
			f.Cause, f.Retryable = r.cause, r.retry
			return f
		}
	}

	if f.Status != 0 {
		f.Cause, f.Retryable = causeOfStatus(f.Status, err.Error())
		return f
	}

	lower := strings.ToLower(err.Error())
	for _, r := range textRules {
		for _, n := range r.needles {
			if strings.Contains(lower, n) {
				f.Cause, f.Retryable = r.cause, true
				return f
			}
		}
	}
	return f
}

func statusOf(err error) int {
	m := statusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

func causeOfStatus(status int, msg string) (cause error, retry bool) {
	switch {
	case status == http.StatusTooManyRequests:
		return domain.ErrRateLimit, true
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.ErrAuthInvalid, false
	case status == http.StatusRequestEntityTooLarge:
		return domain.ErrContextOverflow, true
	case status == http.StatusBadRequest:
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "context") || strings.Contains(lower, "too long") || strings.Contains(lower, "maximum") {
			return domain.ErrContextOverflow, true
		}
		return nil, false
	case status >= 500 && status < 600:
		return domain.ErrProviderError, true
	default:
		return nil, false
	}
}
