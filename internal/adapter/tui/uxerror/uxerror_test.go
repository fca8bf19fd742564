package uxerror

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"scout/internal/domain"
)

func TestHumanize(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		title string
	}{
		{"max iterations", domain.NewDomainError("Agent.HandleTurn", domain.ErrMaxIterations, ""), "Agent Loop Limit Reached"},
		{"auth", fmt.Errorf("openai: %w", domain.ErrAuthInvalid), "Authentication Failed"},
		{"rate limit", domain.ErrRateLimit, "Rate Limited"},
		{"overflow", domain.ErrContextOverflow, "Conversation Too Long"},
		{"turn timeout", domain.NewDomainError("ChatService.Chat", domain.ErrTimeout, ""), "Request Timed Out"},
		{"store", fmt.Errorf("save: %w", domain.ErrThreadStore), "Thread Storage Failed"},
		{"dial", errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), "Connection Failed"},
		{"unknown", errors.New("weird"), "Unexpected Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := Humanize(tt.err)
			if fe.Title != tt.title {
				t.Errorf("Title = %q, want %q", fe.Title, tt.title)
			}
			if fe.Raw != tt.err.Error() {
				t.Errorf("Raw = %q", fe.Raw)
			}
		})
	}
}

func TestHumanizeNil(t *testing.T) {
	if fe := Humanize(nil); fe.Title != "Unknown Error" {
		t.Errorf("Title = %q", fe.Title)
	}
}

func TestRender(t *testing.T) {
	out := FriendlyError{Title: "T", Message: "M", Hints: []string{"a", "b"}}.Render()
	for _, want := range []string{"T", "\n  M", "Suggestions:", " a", " b"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() = %q, missing %q", out, want)
		}
	}
}
