package usecase

import (
	"slices"
	"time"

	"scout/internal/domain"
)

// missingResultContent answers a tool call that never got a result, for
// example because the turn timed out between the call and its execution.
const missingResultContent = "[error] tool call did not produce a result"

// RepairTranscript returns a copy of messages that an OpenAI-style API
// accepts: every assistant tool call is followed by exactly one tool
// result before the next non-tool message. Missing results are filled in
// call order with missingResultContent; results nobody asked for are
// dropped.
func RepairTranscript(messages []domain.Message) []domain.Message {
	if len(messages) == 0 {
		return messages
	}

	out := make([]domain.Message, 0, len(messages))
	var open []domain.ToolCall // calls still waiting for a result, in call order

	closeOpen := func() {
		for _, call := range open {
			out = append(out, toolMessage(call, missingResultContent))
		}
		open = nil
	}

	for _, msg := range messages {
		if msg.Role != domain.RoleTool {
			closeOpen()
			if msg.Role == domain.RoleAssistant {
				for _, call := range msg.ToolCalls {
					if call.ID != "" {
						open = append(open, call)
					}
				}
			}
			out = append(out, msg)
			continue
		}

		id := toolResultCallID(msg)
		i := slices.IndexFunc(open, func(c domain.ToolCall) bool { return id != "" && c.ID == id })
		if i < 0 {
			continue
		}
		open = slices.Delete(open, i, i+1)
		out = append(out, msg)
	}
	closeOpen()
	return out
}

// toolResultCallID is the ID of the call a tool-role message answers.
func toolResultCallID(msg domain.Message) string {
	if len(msg.ToolCalls) == 0 {
		return ""
	}
	return msg.ToolCalls[0].ID
}

// toolMessage builds the tool-role message answering call.
func toolMessage(call domain.ToolCall, content string) domain.Message {
	return domain.Message{
		Role:      domain.RoleTool,
		Name:      call.Name,
		Content:   content,
		ToolCalls: []domain.ToolCall{{ID: call.ID, Name: call.Name}},
		Timestamp: time.Now(),
	}
}
