package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"scout/internal/domain"
	"scout/internal/infra/logger"
	"scout/internal/infra/tracer"
)

const (
	maxLLMRetries  = 3
	baseRetryDelay = 500 * time.Millisecond
	maxRetryDelay  = 10 * time.Second

	defaultMaxIterations = 10
)

// AgentDeps wires an Agent. ErrorClassifier is optional: without it model
// failures are never retried.
type AgentDeps struct {
	LLM             domain.LLMProvider
	Tools           domain.ToolExecutor
	ContextBuilder  *ContextBuilder
	Logger          *slog.Logger
	MaxIterations   int
	ErrorClassifier *ErrorClassifier
}

// Agent answers a user message by alternating model calls and tool calls
// until the model replies without asking for a tool.
type Agent struct {
	deps  AgentDeps
	sleep func(ctx context.Context, d time.Duration) error
}

func NewAgent(deps AgentDeps) *Agent {
	if deps.MaxIterations <= 0 {
		deps.MaxIterations = defaultMaxIterations
	}
	return &Agent{deps: deps, sleep: sleepCtx}
}

// HandleTurn records userMsg on thread and drives the loop to a final
// answer. The assistant and tool messages of every round are appended to
// thread as they happen, so a failed turn still leaves its partial
// transcript behind.
func (a *Agent) HandleTurn(ctx context.Context, thread *Thread, userMsg string) (string, error) {
	ctx, span := tracer.StartSpan(ctx, "agent.handle_turn", tracer.StringAttr("thread.id", thread.ThreadID))
	defer span.End()

	answer, rounds, usage, err := a.run(ctx, span, thread, userMsg)
	span.SetAttributes(
		tracer.IntAttr("agent.iterations", rounds),
		tracer.IntAttr("llm.total_tokens", usage.TotalTokens),
	)
	if err != nil {
		tracer.RecordError(span, err)
		return "", err
	}
	tracer.SetOK(span)
	return answer, nil
}

func (a *Agent) run(ctx context.Context, span trace.Span, thread *Thread, userMsg string) (string, int, domain.Usage, error) {
	var usage domain.Usage
	ctx = domain.ContextWithThreadID(ctx, thread.ThreadID)
	log := logger.FromContext(ctx, a.deps.Logger)

	thread.AddMessage(domain.Message{Role: domain.RoleUser, Content: userMsg, Timestamp: time.Now()})
	schemas := a.deps.Tools.Schemas()

	for round := 1; round <= a.deps.MaxIterations; round++ {
		span.AddEvent("agent.iteration", trace.WithAttributes(tracer.IntAttr("iteration", round)))

		resp, err := a.complete(ctx, log, thread.Messages(), schemas)
		if err != nil {
			return "", round, usage, err
		}
		usage.Add(resp.Usage)

		msg := resp.Message
		msg.Role = domain.RoleAssistant
		thread.AddMessage(msg)
		log.Debug("llm response", "iteration", round, "tool_calls", len(msg.ToolCalls), "tokens", resp.Usage.TotalTokens)

		if len(msg.ToolCalls) == 0 {
			return msg.Content, round, usage, nil
		}

		for _, m := range a.runTools(ctx, log, msg.ToolCalls) {
			thread.AddMessage(m)
		}
		if err := ctx.Err(); err != nil {
			return "", round, usage, err
		}
	}

	log.Warn("agent reached max iterations", "max_iterations", a.deps.MaxIterations)
	return "", a.deps.MaxIterations, usage, domain.NewDomainError("Agent.HandleTurn", domain.ErrMaxIterations, "")
}

// runTools executes calls concurrently and returns their tool messages in
// call order.
func (a *Agent) runTools(ctx context.Context, log *slog.Logger, calls []domain.ToolCall) []domain.Message {
	out := make([]domain.Message, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Go(func() { out[i] = a.runTool(ctx, log, call) })
	}
	wg.Wait()
	return out
}

// runTool never fails: lookup and execution errors become the content of
// the tool message so the model can react to them.
func (a *Agent) runTool(ctx context.Context, log *slog.Logger, call domain.ToolCall) domain.Message {
	ctx, span := tracer.StartSpan(ctx, "agent.execute_tool", tracer.StringAttr("tool.name", call.Name))
	defer span.End()

	t, err := a.deps.Tools.Get(call.Name)
	if err != nil {
		tracer.RecordError(span, err)
		log.Warn("unknown tool requested", "tool", call.Name)
		return toolMessage(call, err.Error())
	}

	start := time.Now()
	res, err := t.Execute(ctx, call.Arguments)
	switch {
	case err != nil:
		tracer.RecordError(span, err)
		log.Warn("tool execution failed", "tool", call.Name, "error", err)
		return toolMessage(call, err.Error())
	case res == nil:
		return toolMessage(call, "")
	case res.IsError:
		span.SetAttributes(tracer.StringAttr("tool.error", res.Content))
	default:
		tracer.SetOK(span)
	}
	log.Debug("tool executed", "tool", call.Name, "is_error", res.IsError, "duration", time.Since(start))
	return toolMessage(call, res.Content)
}

// complete asks the model for the next message. With a classifier set,
// retryable failures are tried again up to maxLLMRetries times: a context
// overflow shrinks the history window, anything else backs off first.
func (a *Agent) complete(ctx context.Context, log *slog.Logger, history []domain.Message, schemas []domain.ToolSchema) (*domain.ChatResponse, error) {
	req := a.deps.ContextBuilder.Build(history, schemas)
	attempts := 1
	if a.deps.ErrorClassifier != nil {
		attempts = maxLLMRetries
	}

	for attempt, shrink := 0, 0; ; attempt++ {
		resp, err := a.callLLM(ctx, req, attempt)
		if err == nil {
			return resp, nil
		}
		if attempt+1 >= attempts {
			return nil, err
		}
		failure := a.deps.ErrorClassifier.Classify(err)
		if !failure.Retryable {
			return nil, err
		}

		if errors.Is(failure.Cause, domain.ErrContextOverflow) {
			shrink++
			req = a.deps.ContextBuilder.BuildShrunk(history, schemas, shrink)
			log.Info("retrying LLM call with smaller history", "attempt", attempt+1, "messages", len(req.Messages), "error", err)
			continue
		}

		delay := retryBackoff(attempt)
		log.Info("retrying LLM call after error", "attempt", attempt+1, "delay", delay, "error", err)
		if err := a.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (a *Agent) callLLM(ctx context.Context, req domain.ChatRequest, attempt int) (*domain.ChatResponse, error) {
	ctx, span := tracer.StartSpan(ctx, "agent.llm_call",
		tracer.IntAttr("llm.attempt", attempt),
		tracer.IntAttr("llm.messages", len(req.Messages)),
	)
	defer span.End()
	resp, err := a.deps.LLM.Chat(ctx, req)
	if err != nil {
		tracer.RecordError(span, err)
	}
	return resp, err
}

// retryBackoff doubles baseRetryDelay per attempt up to maxRetryDelay and
// adds up to 25% jitter.
func retryBackoff(attempt int) time.Duration {
	d := min(baseRetryDelay<<attempt, maxRetryDelay)
	return d + rand.N(d/4+1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
