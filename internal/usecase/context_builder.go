package usecase

import (
	"time"

	"scout/internal/domain"
)

// ContextBuilder constructs the prompt message array for LLM calls.
type ContextBuilder struct {
	systemPrompt string
	model        string
	maxMessages  int
	maxTokens    int
	counter      TokenCounter
}

// NewContextBuilder creates a builder. maxMessages and maxTokens of zero
// disable the corresponding budget. A nil counter uses the 4-chars-per-token
// estimate.
func NewContextBuilder(systemPrompt, model string, maxMessages, maxTokens int, counter TokenCounter) *ContextBuilder {
	if counter == nil {
		counter = lengthCounter{}
	}
	return &ContextBuilder{
		systemPrompt: systemPrompt,
		model:        model,
		maxMessages:  maxMessages,
		maxTokens:    maxTokens,
		counter:      counter,
	}
}

// Build assembles the optional system prompt plus the repaired, truncated
// conversation history.
func (cb *ContextBuilder) Build(history []domain.Message, tools []domain.ToolSchema) domain.ChatRequest {
	return cb.build(history, tools, cb.maxMessages)
}

// BuildShrunk is Build with the message budget halved shrink times. The
// agent uses it to retry after the provider reports a context overflow.
func (cb *ContextBuilder) BuildShrunk(history []domain.Message, tools []domain.ToolSchema, shrink int) domain.ChatRequest {
	limit := cb.maxMessages
	if limit <= 0 {
		limit = len(history)
	}
	for range shrink {
		limit /= 2
	}
	return cb.build(history, tools, max(limit, 1))
}

func (cb *ContextBuilder) build(history []domain.Message, tools []domain.ToolSchema, maxMessages int) domain.ChatRequest {
	var system []domain.Message
	if cb.systemPrompt != "" {
		system = append(system, domain.Message{
			Role:      domain.RoleSystem,
			Content:   cb.systemPrompt,
			Timestamp: time.Now(),
		})
	}

	groups := groupMessages(RepairTranscript(history))
	groups = keepLastGroups(groups, maxMessages)
	groups = cb.fitTokenBudget(system, groups)

	messages := make([]domain.Message, 0, len(system)+len(history))
	messages = append(messages, system...)
	for _, g := range groups {
		messages = append(messages, g...)
	}

	return domain.ChatRequest{
		Model:    cb.model,
		Messages: messages,
		Tools:    tools,
	}
}

// keepLastGroups keeps whole groups from the end while they fit in
// maxMessages. The newest group is always kept.
func keepLastGroups(groups [][]domain.Message, maxMessages int) [][]domain.Message {
	if maxMessages <= 0 {
		return groups
	}
	total := 0
	start := len(groups)
	for i := len(groups) - 1; i >= 0; i-- {
		n := len(groups[i])
		if total+n > maxMessages && total > 0 {
			break
		}
		total += n
		start = i
	}
	return groups[start:]
}

// fitTokenBudget drops the oldest groups until the prompt fits maxTokens.
// The newest group is always kept.
func (cb *ContextBuilder) fitTokenBudget(system []domain.Message, groups [][]domain.Message) [][]domain.Message {
	if cb.maxTokens <= 0 || len(groups) == 0 {
		return groups
	}

	costs := make([]int, len(groups))
	total := cb.counter.CountMessages(system)
	for i, g := range groups {
		costs[i] = cb.counter.CountMessages(g)
		total += costs[i]
	}

	start := 0
	for total > cb.maxTokens && start < len(groups)-1 {
		total -= costs[start]
		start++
	}
	return groups[start:]
}

// groupMessages partitions messages into atomic groups.
// An assistant message with tool calls and its immediately following
// tool result messages form a single group. All other messages are
// individual groups.
func groupMessages(msgs []domain.Message) [][]domain.Message {
	var groups [][]domain.Message
	i := 0
	for i < len(msgs) {
		msg := msgs[i]
		if msg.Role == domain.RoleAssistant && len(msg.ToolCalls) > 0 {
			j := i + 1
			for j < len(msgs) && msgs[j].Role == domain.RoleTool {
				j++
			}
			groups = append(groups, msgs[i:j])
			i = j
		} else {
			groups = append(groups, msgs[i:i+1])
			i++
		}
	}
	return groups
}
