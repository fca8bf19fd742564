package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"scout/internal/domain"
)

// statusSentinels maps provider HTTP statuses to domain sentinels. 400 is
// handled separately because only some bad requests are overflows.
var statusSentinels = map[int]error{
	http.StatusTooManyRequests:       domain.ErrRateLimit,
	http.StatusUnauthorized:          domain.ErrAuthInvalid,
	http.StatusForbidden:             domain.ErrAuthInvalid,
	http.StatusRequestEntityTooLarge: domain.ErrContextOverflow,
}

var overflowPhrases = []string{"context length", "context_length", "context window", "maximum context"}

// mapAPIError rewrites go-openai errors in terms of domain sentinels. The
// "API error NNN" text is kept so the usecase classifier can read the
// status back out.
func mapAPIError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}

	if apiErr, ok := errors.AsType[*openai.APIError](err); ok {
		return statusError(apiErr.HTTPStatusCode, apiErr.Message)
	}
	if reqErr, ok := errors.AsType[*openai.RequestError](err); ok {
		msg := reqErr.HTTPStatus
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return statusError(reqErr.HTTPStatusCode, msg)
	}
	return fmt.Errorf("%w: %v", domain.ErrProviderError, err)
}

func statusError(status int, msg string) error {
	detail := fmt.Sprintf("API error %d: %s", status, msg)

	sentinel := statusSentinels[status]
	switch {
	case sentinel != nil:
	case status == http.StatusBadRequest && isOverflowMessage(msg):
		sentinel = domain.ErrContextOverflow
	case status >= 500:
		sentinel = domain.ErrProviderError
	default:
		return errors.New(detail)
	}
	return fmt.Errorf("%w: %s", sentinel, detail)
}

func isOverflowMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, p := range overflowPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
