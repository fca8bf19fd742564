package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"scout/internal/domain"
	"scout/internal/infra/logger"
)

// TurnHandler runs one user turn against a thread. *Agent implements it.
type TurnHandler interface {
	HandleTurn(ctx context.Context, thread *Thread, userMsg string) (string, error)
}

// ChatService implements domain.ChatService: it resolves the thread, runs
// the agent, and persists the result. Turns on one thread hold its lock
// from load to save, so each turn starts from the previous turn's saved
// transcript.
type ChatService struct {
	agent   TurnHandler
	threads *ThreadManager
	locker  *ThreadLocker
	timeout time.Duration
	logger  *slog.Logger
}

// NewChatService creates a service. A nil locker lets turns on the same
// thread overwrite each other; a non-positive timeout disables the
// per-turn deadline.
func NewChatService(agent TurnHandler, threads *ThreadManager, locker *ThreadLocker, timeout time.Duration, logger *slog.Logger) *ChatService {
	return &ChatService{agent: agent, threads: threads, locker: locker, timeout: timeout, logger: logger}
}

// Chat implements domain.ChatService.
func (s *ChatService) Chat(ctx context.Context, turn domain.ChatTurn) (domain.ChatReply, error) {
	query := strings.TrimSpace(turn.Query)
	if query == "" {
		return domain.ChatReply{}, domain.ErrNoQuery
	}
	threadID := strings.TrimSpace(turn.ThreadID)
	if threadID == "" {
		threadID = domain.DefaultThreadID
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	ctx = domain.ContextWithThreadID(ctx, threadID)
	log := logger.FromContext(ctx, s.logger)

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, threadID)
		if err != nil {
			return domain.ChatReply{}, turnError(domain.NewDomainError("ChatService.Chat", err, "thread lock"))
		}
		defer unlock()
	}

	thread, err := s.threads.GetOrCreate(ctx, threadID)
	if err != nil {
		return domain.ChatReply{}, err
	}

	start := time.Now()
	response, runErr := s.agent.HandleTurn(ctx, thread, query)

	// Failed turns are saved too; transcript repair closes dangling calls.
	// The save outlives the turn deadline.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.threads.Save(saveCtx, thread); err != nil {
		log.Error("thread save failed", "error", err)
		if runErr == nil {
			return domain.ChatReply{}, err
		}
	}

	if runErr != nil {
		runErr = turnError(runErr)
		log.Error("chat turn failed",
			"error", runErr,
			"code", domain.ErrorCodeOf(runErr),
			"duration", time.Since(start),
		)
		return domain.ChatReply{}, runErr
	}

	log.Info("chat turn completed", "duration", time.Since(start))
	return domain.ChatReply{Response: response, ThreadID: threadID}, nil
}

// turnError reports an expired turn deadline as domain.ErrTimeout.
func turnError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewDomainError("ChatService.Chat", domain.ErrTimeout, err.Error())
	}
	return err
}

var _ domain.ChatService = (*ChatService)(nil)
