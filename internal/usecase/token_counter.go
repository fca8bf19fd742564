package usecase

import (
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"scout/internal/domain"
)

// perMessageOverhead approximates the role and framing tokens OpenAI adds
// around each chat message.
const perMessageOverhead = 4

// TokenCounter estimates how many prompt tokens a history costs.
type TokenCounter interface {
	CountMessages(msgs []domain.Message) int
}

// TiktokenCounter counts tokens with the cl100k_base BPE encoding. When the
// encoding cannot be loaded (it is fetched on first use), it falls back to
// four characters per token.
type TiktokenCounter struct {
	once   sync.Once
	enc    *tiktoken.Tiktoken
	logger *slog.Logger
}

// NewTiktokenCounter creates a counter. The encoding loads lazily.
func NewTiktokenCounter(logger *slog.Logger) *TiktokenCounter {
	return &TiktokenCounter{logger: logger}
}

func (c *TiktokenCounter) encoding() *tiktoken.Tiktoken {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			c.logger.Warn("token counting falls back to length estimate", "error", err)
			return
		}
		c.enc = enc
	})
	return c.enc
}

// CountMessages implements TokenCounter.
func (c *TiktokenCounter) CountMessages(msgs []domain.Message) int {
	enc := c.encoding()
	total := 0
	for _, m := range msgs {
		total += perMessageOverhead
		total += countText(enc, m.Content)
		for _, tc := range m.ToolCalls {
			total += countText(enc, tc.Name) + countText(enc, string(tc.Arguments))
		}
	}
	return total
}

func countText(enc *tiktoken.Tiktoken, s string) int {
	if s == "" {
		return 0
	}
	if enc == nil {
		return estimateTokens(s)
	}
	return len(enc.Encode(s, nil, nil))
}

// estimateTokens is the 4-chars-per-token heuristic, rounded up.
func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// lengthCounter always uses the character heuristic.
type lengthCounter struct{}

func (lengthCounter) CountMessages(msgs []domain.Message) int {
	total := 0
	for _, m := range msgs {
		total += perMessageOverhead + estimateTokens(m.Content)
		for _, tc := range m.ToolCalls {
			total += estimateTokens(tc.Name) + estimateTokens(string(tc.Arguments))
		}
	}
	return total
}
