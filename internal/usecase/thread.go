package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"scout/internal/domain"
)

// Thread is one conversation: the message history the agent replays on
// every turn.
type Thread struct {
	mu        sync.RWMutex
	ID        string // ULID, internal
	ThreadID  string // client-supplied key
	Msgs      []domain.Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewThread creates an empty thread with a generated ULID.
func NewThread(threadID string) *Thread {
	now := time.Now()
	return &Thread{
		ID:        generateULID(now),
		ThreadID:  threadID,
		Msgs:      make([]domain.Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func generateULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// AddMessage appends a message and updates the timestamp (thread-safe).
func (t *Thread) AddMessage(msg domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	t.Msgs = append(t.Msgs, msg)
	t.UpdatedAt = time.Now()
}

// Messages returns a copy of the message history (thread-safe).
func (t *Thread) Messages() []domain.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.Msgs)
}

// Snapshot returns the persistable state of the thread.
func (t *Thread) Snapshot() *domain.ThreadSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return &domain.ThreadSnapshot{
		ID:        t.ID,
		ThreadID:  t.ThreadID,
		Messages:  slices.Clone(t.Msgs),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func threadFromSnapshot(snap *domain.ThreadSnapshot) *Thread {
	t := &Thread{
		ID:        snap.ID,
		ThreadID:  snap.ThreadID,
		Msgs:      snap.Messages,
		CreatedAt: snap.CreatedAt,
		UpdatedAt: snap.UpdatedAt,
	}
	if t.ID == "" {
		t.ID = generateULID(time.Now())
	}
	if t.Msgs == nil {
		t.Msgs = make([]domain.Message, 0)
	}
	return t
}

// ThreadManager loads and persists threads through a domain.ThreadStore.
type ThreadManager struct {
	store  domain.ThreadStore
	logger *slog.Logger
}

// NewThreadManager creates a manager over store.
func NewThreadManager(store domain.ThreadStore, logger *slog.Logger) *ThreadManager {
	return &ThreadManager{store: store, logger: logger}
}

// GetOrCreate returns the stored thread for threadID, or a new empty one.
func (m *ThreadManager) GetOrCreate(ctx context.Context, threadID string) (*Thread, error) {
	snap, err := m.store.Load(ctx, threadID)
	switch {
	case err == nil:
		return threadFromSnapshot(snap), nil
	case errors.Is(err, domain.ErrThreadNotFound):
		t := NewThread(threadID)
		m.logger.Debug("thread created", "thread_id", threadID, "id", t.ID)
		return t, nil
	default:
		return nil, domain.WrapOp("ThreadManager.GetOrCreate", err)
	}
}

// Get returns the stored thread or ErrThreadNotFound.
func (m *ThreadManager) Get(ctx context.Context, threadID string) (*Thread, error) {
	snap, err := m.store.Load(ctx, threadID)
	if err != nil {
		return nil, domain.WrapOp("ThreadManager.Get", err)
	}
	return threadFromSnapshot(snap), nil
}

// Save persists the thread.
func (m *ThreadManager) Save(ctx context.Context, t *Thread) error {
	return domain.WrapOp("ThreadManager.Save", m.store.Save(ctx, t.Snapshot()))
}

// Delete removes a thread.
func (m *ThreadManager) Delete(ctx context.Context, threadID string) error {
	return domain.WrapOp("ThreadManager.Delete", m.store.Delete(ctx, threadID))
}

// List returns all stored thread IDs.
func (m *ThreadManager) List(ctx context.Context) ([]string, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, domain.WrapOp("ThreadManager.List", err)
	}
	return ids, nil
}

// ReapStale deletes threads not updated within maxAge and returns the
// count of reaped threads. A non-positive maxAge reaps nothing.
func (m *ThreadManager) ReapStale(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	n, err := m.store.DeleteStale(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("reap stale threads: %w", err)
	}
	if n > 0 {
		m.logger.Info("reaped stale threads", "count", n, "max_age", maxAge)
	}
	return n, nil
}
