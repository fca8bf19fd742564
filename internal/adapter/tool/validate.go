package tool

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"scout/internal/domain"
)

// RequireField rejects an empty argument. Tool argument errors wrap
// domain.ErrInvalidInput so the model is told to fix its call rather than
// retry it.
func RequireField(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: '%s' is required", domain.ErrInvalidInput, name)
	}
	return nil
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(name, value string) error {
	u, err := url.Parse(value)
	switch {
	case err != nil:
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, name, err)
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("%w: %s: scheme must be http or https", domain.ErrInvalidInput, name)
	case u.Host == "":
		return fmt.Errorf("%w: %s: missing host", domain.ErrInvalidInput, name)
	}
	return nil
}

// transientHints mark raw network and engine failures that tend to clear
// on their own.
var transientHints = []string{
	"connection refused", "connection reset", "no such host",
	"timeout", "deadline exceeded",
	"temporarily unavailable", "service unavailable", "too many requests", "try again",
}

// classifyToolError reports whether the model may usefully repeat a tool
// call that failed with err.
func classifyToolError(err error) bool {
	switch {
	case err == nil, errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrSSRFBlocked):
		return false
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, domain.ErrRateLimit), errors.Is(err, domain.ErrProviderError):
		return true
	}
	lower := strings.ToLower(err.Error())
	for _, h := range transientHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}
