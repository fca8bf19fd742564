package usecase

import (
	"context"
	"fmt"
	"sync"
)

// ThreadLocker serialises agent turns per conversation thread so two
// requests on the same thread never interleave their messages.
type ThreadLocker struct {
	mu    sync.Mutex
	locks map[string]*threadSlot
}

// threadSlot is a one-token semaphore; waiters counts holders plus
// goroutines queued for the token.
type threadSlot struct {
	token   chan struct{}
	waiters int
}

// NewThreadLocker creates an empty locker.
func NewThreadLocker() *ThreadLocker {
	return &ThreadLocker{locks: make(map[string]*threadSlot)}
}

// Lock acquires the lock for threadID, blocking until it is free or ctx
// is done. The returned unlock function must be called exactly once.
func (tl *ThreadLocker) Lock(ctx context.Context, threadID string) (unlock func(), err error) {
	tl.mu.Lock()
	slot, ok := tl.locks[threadID]
	if !ok {
		slot = &threadSlot{token: make(chan struct{}, 1)}
		tl.locks[threadID] = slot
	}
	slot.waiters++
	tl.mu.Unlock()

	select {
	case slot.token <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.token
				tl.release(threadID, slot)
			})
		}, nil
	case <-ctx.Done():
		tl.release(threadID, slot)
		return nil, fmt.Errorf("thread lock: %w", ctx.Err())
	}
}

func (tl *ThreadLocker) release(threadID string, slot *threadSlot) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	slot.waiters--
	if slot.waiters == 0 {
		delete(tl.locks, threadID)
	}
}

// ActiveCount returns the number of threads with active or pending locks.
func (tl *ThreadLocker) ActiveCount() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return len(tl.locks)
}
