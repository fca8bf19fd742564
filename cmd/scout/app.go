package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"scout/internal/adapter/llm"
	"scout/internal/adapter/search"
	"scout/internal/adapter/store"
	"scout/internal/adapter/tool"
	"scout/internal/infra/config"
	"scout/internal/infra/logger"
	"scout/internal/infra/tracer"
	"scout/internal/security"
	"scout/internal/usecase"
)

const fetchMaxRedirects = 5

// app holds the wired components shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	search  *tool.SearchTool
	tools   *tool.Registry
	threads *usecase.ThreadManager
	reaper  *usecase.Reaper
	chat    *usecase.ChatService

	closers []func(context.Context) error
}

// newApp sets up logging and tracing. The returned app carries their
// shutdown hooks.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	a := &app{cfg: cfg, logger: log}
	a.closers = append(a.closers, func(context.Context) error { return logCloser() })

	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("tracer: %w", err)
	}
	a.closers = append(a.closers, tracerShutdown)
	return a, nil
}

// buildSearch wires the search backend and the query tool on top of it.
func (a *app) buildSearch() error {
	backend, err := search.New(a.cfg.Tools.Search, a.logger)
	if err != nil {
		return fmt.Errorf("search backend: %w", err)
	}
	st, err := tool.NewSearchTool(tool.Variant(a.cfg.Tools.Search.Variant), backend, tool.SearchOptions{
		MaxResults: a.cfg.Tools.Search.MaxResults,
		CacheTTL:   a.cfg.Tools.Search.CacheTTL,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("search tool: %w", err)
	}
	a.search = st
	return nil
}

// buildChat wires everything a conversation needs: LLM, tools, thread
// storage and the agent.
func (a *app) buildChat() error {
	cfg := a.cfg

	// 1. LLM provider
	provider, err := llm.New(cfg.LLM, a.logger)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}

	// 2. Tools
	if a.search == nil {
		if err := a.buildSearch(); err != nil {
			return err
		}
	}
	a.tools = tool.NewRegistry(a.logger)
	if err := a.tools.Register(a.search); err != nil {
		return fmt.Errorf("register search tool: %w", err)
	}
	if cfg.Tools.Fetch.Enabled {
		client := security.NewSafeClient(cfg.Tools.Fetch.Timeout, fetchMaxRedirects)
		if err := a.tools.Register(tool.NewFetchTool(client, cfg.Tools.Fetch.MaxChars, a.logger)); err != nil {
			return fmt.Errorf("register fetch tool: %w", err)
		}
	}

	// 3. Thread storage
	threadStore, err := store.New(cfg.Threads)
	if err != nil {
		return fmt.Errorf("thread store: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return threadStore.Close() })
	a.threads = usecase.NewThreadManager(threadStore, a.logger)

	if cfg.Threads.MaxAge > 0 {
		reaper, err := usecase.NewReaper(a.threads, cfg.Threads.ReapSchedule, cfg.Threads.MaxAge, a.logger)
		if err != nil {
			return fmt.Errorf("thread reaper: %w", err)
		}
		reaper.Start()
		a.reaper = reaper
	}

	// 4. Agent and chat service
	builder := usecase.NewContextBuilder(
		cfg.Agent.SystemPrompt,
		cfg.LLM.Model,
		cfg.Agent.MaxHistory,
		cfg.Agent.MaxContextTokens,
		usecase.NewTiktokenCounter(a.logger),
	)
	agent := usecase.NewAgent(usecase.AgentDeps{
		LLM:             provider,
		Tools:           a.tools,
		ContextBuilder:  builder,
		Logger:          a.logger,
		MaxIterations:   cfg.Agent.MaxIterations,
		ErrorClassifier: usecase.NewErrorClassifier(),
	})
	a.chat = usecase.NewChatService(agent, a.threads, usecase.NewThreadLocker(), cfg.Agent.Timeout, a.logger)

	a.logger.Info("chat ready",
		"tools", a.tools.Names(),
		"thread_store", cfg.Threads.Store,
		"max_iterations", cfg.Agent.MaxIterations,
	)
	return nil
}

// Close stops the reaper and releases resources in reverse order of
// acquisition.
func (a *app) Close(ctx context.Context) error {
	if a.reaper != nil {
		a.reaper.Stop(ctx)
		a.reaper = nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
