package domain

import (
	"context"
	"time"
)

// DefaultThreadID is used when a client does not name a conversation thread.
const DefaultThreadID = "default_thread"

// ThreadSnapshot is the persisted state of one conversation thread.
type ThreadSnapshot struct {
	ID        string    `json:"id"`        // ULID, internal
	ThreadID  string    `json:"thread_id"` // client-supplied key
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ThreadStore persists conversation threads between turns.
type ThreadStore interface {
	// Load returns the snapshot for threadID, or ErrThreadNotFound.
	Load(ctx context.Context, threadID string) (*ThreadSnapshot, error)
	Save(ctx context.Context, snap *ThreadSnapshot) error
	Delete(ctx context.Context, threadID string) error
	// List returns every stored thread ID.
	List(ctx context.Context) ([]string, error)
	// DeleteStale removes threads not updated since cutoff and returns
	// how many were removed.
	DeleteStale(ctx context.Context, cutoff time.Time) (int, error)
	Close() error
}
