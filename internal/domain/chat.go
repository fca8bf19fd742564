package domain

import "context"

// ChatTurn is one user message addressed to a conversation thread.
type ChatTurn struct {
	Query    string `json:"query"`
	ThreadID string `json:"thread_id,omitempty"`
}

// ChatReply is the agent's final answer for a ChatTurn.
type ChatReply struct {
	Response string `json:"response"`
	ThreadID string `json:"thread_id"`
}

// ChatService runs chat turns. Transports (HTTP, websocket, terminal)
// depend on this port rather than on the agent directly.
type ChatService interface {
	Chat(ctx context.Context, turn ChatTurn) (ChatReply, error)
}
