// Package uxerror turns failures from a chat turn into something a person
// at the terminal can act on.
package uxerror

import (
	"errors"
	"strings"

	"scout/internal/adapter/tui/theme"
	"scout/internal/domain"
)

// FriendlyError is what the chat shows instead of a raw error string.
type FriendlyError struct {
	Title   string
	Message string
	Hints   []string
	Raw     string
}

// Render lays the error out as a title, an indented message and a bullet
// list of hints.
func (fe FriendlyError) Render() string {
	var b strings.Builder
	b.WriteString(fe.Title)
	if fe.Message != "" {
		b.WriteString("\n  " + fe.Message)
	}
	if len(fe.Hints) == 0 {
		return b.String()
	}
	b.WriteString("\n  Suggestions:")
	for _, h := range fe.Hints {
		b.WriteString("\n    " + theme.Symbols.Bullet + " " + h)
	}
	return b.String()
}

// rule matches an error by sentinel or, failing that, by any of the
// lower-case substrings in text.
type rule struct {
	sentinel error
	text     []string
	title    string
	message  string
	hints    []string
}

func (r rule) matches(err error) bool {
	if r.sentinel != nil {
		return errors.Is(err, r.sentinel)
	}
	msg := strings.ToLower(err.Error())
	for _, s := range r.text {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// Sentinel rules come before text rules.
var rules = []rule{
	{
		sentinel: domain.ErrMaxIterations,
		title:    "Agent Loop Limit Reached",
		message:  "The agent kept calling tools without reaching an answer.",
		hints:    []string{"Ask a narrower question", "Increase agent.max_iterations in config"},
	},
	{
		sentinel: domain.ErrAuthInvalid,
		title:    "Authentication Failed",
		message:  "The model provider rejected the API key.",
		hints:    []string{"Check OPENAI_API_KEY or llm.api_key", "Make sure the key is still active"},
	},
	{
		sentinel: domain.ErrRateLimit,
		title:    "Rate Limited",
		message:  "The model provider is throttling requests.",
		hints:    []string{"Wait a moment and ask again"},
	},
	{
		sentinel: domain.ErrContextOverflow,
		title:    "Conversation Too Long",
		message:  "The thread no longer fits in the model's context window.",
		hints:    []string{"Start a new thread with --thread", "Lower agent.max_history in config"},
	},
	{
		sentinel: domain.ErrTimeout,
		title:    "Request Timed Out",
		message:  "The turn took longer than agent.timeout.",
		hints:    []string{"Try a simpler question", "Increase agent.timeout in config"},
	},
	{
		sentinel: domain.ErrThreadStore,
		title:    "Thread Storage Failed",
		message:  "The conversation history could not be read or written.",
		hints:    []string{"Check threads.sqlite_path is writable", "Use threads.store: memory"},
	},
	{
		sentinel: domain.ErrProviderError,
		title:    "Model Provider Error",
		message:  "The model provider returned an error.",
		hints:    []string{"Try again in a moment", "Check llm.base_url and llm.model in config"},
	},
	{
		text:    []string{"connection refused", "dial tcp", "no such host"},
		title:   "Connection Failed",
		message: "Could not reach the remote service.",
		hints:   []string{"Check your internet connection", "Verify llm.base_url in config"},
	},
	{
		text:    []string{"deadline exceeded", "timeout"},
		title:   "Request Timed Out",
		message: "The request took too long to complete.",
		hints:   []string{"Try again", "Check your network connection"},
	},
}

// Humanize maps err onto the first matching rule.
func Humanize(err error) FriendlyError {
	if err == nil {
		return FriendlyError{Title: "Unknown Error", Raw: "nil"}
	}
	for _, r := range rules {
		if r.matches(err) {
			return FriendlyError{Title: r.title, Message: r.message, Hints: r.hints, Raw: err.Error()}
		}
	}
	return FriendlyError{
		Title:   "Unexpected Error",
		Message: err.Error(),
		Hints:   []string{"Try again", "Run with --log-level debug for more details"},
		Raw:     err.Error(),
	}
}
