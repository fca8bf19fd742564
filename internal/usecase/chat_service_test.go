package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scout/internal/domain"
	"scout/internal/infra/logger"
)

// turnFunc adapts a function to TurnHandler.
type turnFunc func(ctx context.Context, thread *Thread, userMsg string) (string, error)

func (f turnFunc) HandleTurn(ctx context.Context, thread *Thread, userMsg string) (string, error) {
	return f(ctx, thread, userMsg)
}

func newTestChatService(llm *scriptedLLM, store *memStore) *ChatService {
	agent := newTestAgent(llm, newToolExecutor(&echoTool{name: "web_search"}), 5)
	threads := NewThreadManager(store, logger.Discard())
	return NewChatService(agent, threads, NewThreadLocker(), time.Minute, logger.Discard())
}

func TestChatService_EmptyQuery(t *testing.T) {
	llm := &scriptedLLM{}
	svc := newTestChatService(llm, newMemStore())

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := svc.Chat(context.Background(), domain.ChatTurn{Query: q})
		assert.ErrorIs(t, err, domain.ErrNoQuery)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
	assert.Empty(t, llm.calls())
}

func TestChatService_DefaultThread(t *testing.T) {
	store := newMemStore()
	svc := newTestChatService(&scriptedLLM{replies: []scriptedReply{answer("Hello there!")}}, store)

	reply, err := svc.Chat(context.Background(), domain.ChatTurn{Query: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", reply.Response)
	assert.Equal(t, domain.DefaultThreadID, reply.ThreadID)

	snap := store.snapshot(domain.DefaultThreadID)
	require.NotNil(t, snap)
	assert.Len(t, snap.Messages, 2)
}

func TestChatService_HistoryPersistsAcrossTurns(t *testing.T) {
	llm := &scriptedLLM{replies: []scriptedReply{answer("first answer"), answer("second answer")}}
	store := newMemStore()
	svc := newTestChatService(llm, store)
	ctx := context.Background()

	_, err := svc.Chat(ctx, domain.ChatTurn{Query: "first", ThreadID: "t1"})
	require.NoError(t, err)
	reply, err := svc.Chat(ctx, domain.ChatTurn{Query: "second", ThreadID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "second answer", reply.Response)
	assert.Equal(t, "t1", reply.ThreadID)

	calls := llm.calls()
	require.Len(t, calls, 2)
	var contents []string
	for _, m := range calls[1].Messages {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"You are a test bot.", "first", "first answer", "second"}, contents)
	assert.Len(t, store.snapshot("t1").Messages, 4)
}

func TestChatService_ThreadsAreIsolated(t *testing.T) {
	llm := &scriptedLLM{replies: []scriptedReply{answer("a1"), answer("b1")}}
	svc := newTestChatService(llm, newMemStore())
	ctx := context.Background()

	_, err := svc.Chat(ctx, domain.ChatTurn{Query: "secret about a", ThreadID: "a"})
	require.NoError(t, err)
	_, err = svc.Chat(ctx, domain.ChatTurn{Query: "hello from b", ThreadID: "b"})
	require.NoError(t, err)

	calls := llm.calls()
	require.Len(t, calls, 2)
	require.Len(t, calls[1].Messages, 2)
	assert.Equal(t, "hello from b", calls[1].Messages[1].Content)
}

func TestChatService_TrimsQuery(t *testing.T) {
	llm := &scriptedLLM{}
	svc := newTestChatService(llm, newMemStore())

	_, err := svc.Chat(context.Background(), domain.ChatTurn{Query: "  padded  ", ThreadID: "  "})
	require.NoError(t, err)

	calls := llm.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "padded", calls[0].Messages[1].Content)
}

func TestChatService_TimeoutSavesThread(t *testing.T) {
	store := newMemStore()
	blocking := turnFunc(func(ctx context.Context, thread *Thread, msg string) (string, error) {
		thread.AddMessage(domain.Message{Role: domain.RoleUser, Content: msg})
		<-ctx.Done()
		return "", ctx.Err()
	})
	svc := NewChatService(blocking, NewThreadManager(store, logger.Discard()), nil, 20*time.Millisecond, logger.Discard())

	_, err := svc.Chat(context.Background(), domain.ChatTurn{Query: "slow", ThreadID: "t1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.Equal(t, domain.CodeTimeout, domain.ErrorCodeOf(err))

	snap := store.snapshot("t1")
	require.NotNil(t, snap, "failed turn should still be saved")
	assert.Len(t, snap.Messages, 1)
}

func TestChatService_AgentErrorPropagates(t *testing.T) {
	llm := &scriptedLLM{replies: []scriptedReply{failWith(domain.ErrAuthInvalid)}}
	store := newMemStore()
	svc := newTestChatService(llm, store)

	_, err := svc.Chat(context.Background(), domain.ChatTurn{Query: "hi", ThreadID: "t1"})
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
	assert.Equal(t, 1, store.saves)
}

func TestChatService_SaveFailure(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	svc := newTestChatService(&scriptedLLM{}, store)

	_, err := svc.Chat(context.Background(), domain.ChatTurn{Query: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestChatService_StoreLoadFailure(t *testing.T) {
	svc := NewChatService(
		turnFunc(func(context.Context, *Thread, string) (string, error) { return "unreachable", nil }),
		NewThreadManager(failingLoadStore{newMemStore()}, logger.Discard()),
		nil, 0, logger.Discard(),
	)

	_, err := svc.Chat(context.Background(), domain.ChatTurn{Query: "hi"})
	assert.ErrorIs(t, err, domain.ErrThreadStore)
}

type failingLoadStore struct {
	*memStore
}

func (failingLoadStore) Load(context.Context, string) (*domain.ThreadSnapshot, error) {
	return nil, domain.NewDomainError("failingLoadStore.Load", domain.ErrThreadStore, "unavailable")
}

// slowLLM delays every reply so that concurrent turns overlap.
type slowLLM struct {
	scriptedLLM
	delay time.Duration
}

func (s *slowLLM) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	time.Sleep(s.delay)
	return s.scriptedLLM.Chat(ctx, req)
}

func TestChatService_ConcurrentTurnsOnOneThread(t *testing.T) {
	llm := &slowLLM{delay: 30 * time.Millisecond}
	store := newMemStore()
	agent := newTestAgent(llm, newToolExecutor(), 5)
	svc := NewChatService(agent, NewThreadManager(store, logger.Discard()), NewThreadLocker(), time.Minute, logger.Discard())

	var wg sync.WaitGroup
	for _, q := range []string{"weather in Oslo", "weather in Rome"} {
		wg.Go(func() {
			_, err := svc.Chat(context.Background(), domain.ChatTurn{Query: q, ThreadID: "t"})
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	snap := store.snapshot("t")
	require.NotNil(t, snap)
	assert.Len(t, snap.Messages, 4, "both turns must be persisted")

	calls := llm.calls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[0].Messages, 2, "first turn sees system prompt and its query")
	assert.Len(t, calls[1].Messages, 4, "second turn sees the first turn")
}

func TestChatService_LockWaitCountsTowardTimeout(t *testing.T) {
	store := newMemStore()
	locker := NewThreadLocker()
	ran := false
	svc := NewChatService(
		turnFunc(func(context.Context, *Thread, string) (string, error) { ran = true; return "", nil }),
		NewThreadManager(store, logger.Discard()),
		locker, 20*time.Millisecond, logger.Discard(),
	)

	unlock, err := locker.Lock(context.Background(), "busy")
	require.NoError(t, err)
	defer unlock()

	_, err = svc.Chat(context.Background(), domain.ChatTurn{Query: "hi", ThreadID: "busy"})
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.False(t, ran)
	assert.Nil(t, store.snapshot("busy"))
}
