package domain

import (
	"errors"
	"fmt"
)

// Broad categories. More specific sentinels may wrap one of these.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrTimeout       = errors.New("operation timed out")
	ErrProviderError = errors.New("provider error")
)

var (
	ErrNoQuery         = fmt.Errorf("no query provided: %w", ErrInvalidInput)
	ErrToolNotFound    = errors.New("tool not found")
	ErrMaxIterations   = errors.New("agent reached max iterations")
	ErrThreadNotFound  = errors.New("thread not found")
	ErrThreadStore     = errors.New("thread store failed")
	ErrSearchFailed    = errors.New("search failed")
	ErrSSRFBlocked     = errors.New("request to private/reserved IP blocked")
	ErrConfigLoad      = errors.New("failed to load configuration")
	ErrDecryption      = errors.New("decryption failed")
	ErrContextOverflow = errors.New("context window exceeded")
	ErrRateLimit       = errors.New("rate limit exceeded")
	ErrAuthInvalid     = errors.New("authentication failed")
)

// DomainError records which operation failed and on what. Err is usually
// one of the sentinels above.
type DomainError struct {
	Op     string
	Err    error
	Detail string
}

func (e *DomainError) Error() string {
	if e.Detail == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Detail + ": " + e.Err.Error()
}

func (e *DomainError) Unwrap() error { return e.Err }

// Code is ErrorCodeOf(e).
func (e *DomainError) Code() ErrorCode { return ErrorCodeOf(e) }

func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp prefixes err with op, passing nil through so callers can write
// return domain.WrapOp("op", f()).
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsRetryableError reports whether err is transient: throttling, a timeout
// or a provider-side failure.
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrProviderError)
}

// ErrorCode labels an error for logs and HTTP error bodies.
type ErrorCode string

const (
	CodeUnknown         ErrorCode = "UNKNOWN"
	CodeTimeout         ErrorCode = "TIMEOUT"
	CodeInvalidInput    ErrorCode = "INVALID_INPUT"
	CodeProviderError   ErrorCode = "PROVIDER_ERROR"
	CodeToolNotFound    ErrorCode = "TOOL_NOT_FOUND"
	CodeMaxIterations   ErrorCode = "MAX_ITERATIONS"
	CodeThreadNotFound  ErrorCode = "THREAD_NOT_FOUND"
	CodeThreadStore     ErrorCode = "THREAD_STORE"
	CodeSearchFailed    ErrorCode = "SEARCH_FAILED"
	CodeSSRFBlocked     ErrorCode = "SSRF_BLOCKED"
	CodeConfigLoad      ErrorCode = "CONFIG_LOAD"
	CodeDecryption      ErrorCode = "DECRYPTION"
	CodeContextOverflow ErrorCode = "CONTEXT_OVERFLOW"
	CodeRateLimit       ErrorCode = "RATE_LIMIT"
	CodeAuthInvalid     ErrorCode = "AUTH_INVALID"
)

// errorCodes is searched in order, so the categories sit at the end and
// only match when nothing more specific does.
var errorCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrToolNotFound, CodeToolNotFound},
	{ErrMaxIterations, CodeMaxIterations},
	{ErrThreadNotFound, CodeThreadNotFound},
	{ErrThreadStore, CodeThreadStore},
	{ErrSearchFailed, CodeSearchFailed},
	{ErrSSRFBlocked, CodeSSRFBlocked},
	{ErrConfigLoad, CodeConfigLoad},
	{ErrDecryption, CodeDecryption},
	{ErrContextOverflow, CodeContextOverflow},
	{ErrRateLimit, CodeRateLimit},
	{ErrAuthInvalid, CodeAuthInvalid},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrTimeout, CodeTimeout},
	{ErrProviderError, CodeProviderError},
}

// ErrorCodeOf returns the code of the most specific sentinel in err's
// chain, or CodeUnknown.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return CodeUnknown
}
