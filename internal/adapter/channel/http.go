// Package channel holds the transports that carry chat turns into the
// ChatService: the HTTP API with its embedded web page, the websocket chat
// and the MCP stdio server.
package channel

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"scout/internal/domain"
	"scout/internal/infra/config"
	"scout/internal/infra/logger"
	"scout/internal/infra/middleware"
)

// maxBodyBytes caps a POST /chat body.
const maxBodyBytes = 1 << 20

// noQueryMessage is the client-facing text for an empty query.
const noQueryMessage = "No query provided"

//go:embed static
var staticFiles embed.FS

// HTTPServer serves the chat API, the websocket chat and the static page.
type HTTPServer struct {
	cfg    config.ServerConfig
	chat   domain.ChatService
	logger *slog.Logger

	server    *http.Server
	boundAddr string

	// Lifecycle of the rate limiter janitor.
	cancel context.CancelFunc
}

type chatError struct {
	Error string `json:"error"`
}

// NewHTTPServer creates a server for cfg. Call Start to begin listening.
func NewHTTPServer(cfg config.ServerConfig, chat domain.ChatService, logger *slog.Logger) *HTTPServer {
	return &HTTPServer{cfg: cfg, chat: chat, logger: logger}
}

// Handler returns the routed handler wrapped in the middleware chain.
// The rate limiter janitor stops when ctx is cancelled.
func (s *HTTPServer) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /static/", http.FileServerFS(staticFiles))
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	mws := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.SecurityHeaders,
	}
	if rl := s.cfg.RateLimit; rl.RequestsPerMin > 0 {
		limiter := middleware.NewRateLimiter(ctx, middleware.RateLimitConfig{
			RequestsPerMin: rl.RequestsPerMin,
			BurstSize:      rl.Burst,
			TrustedProxies: s.cfg.TrustedProxies,
		})
		mws = append(mws, limiter.Middleware)
	}
	return middleware.Chain(mux, mws...)
}

// Start binds the listener and serves in the background.
func (s *HTTPServer) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.boundAddr = ln.Addr().String()

	go func() {
		s.logger.Info("http server started", "addr", s.boundAddr)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts the server down, waiting for in-flight turns
// until ctx is done.
func (s *HTTPServer) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Addr returns the bound address. Only valid after Start.
func (s *HTTPServer) Addr() string { return s.boundAddr }

func (s *HTTPServer) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var turn domain.ChatTurn
	if err := json.NewDecoder(r.Body).Decode(&turn); err != nil {
		msg := "invalid JSON: " + err.Error()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "request body too large (max 1MB)"
		}
		writeJSON(w, http.StatusBadRequest, chatError{Error: msg})
		return
	}

	reply, err := s.chat.Chat(r.Context(), turn)
	if err != nil {
		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			logger.FromContext(r.Context(), s.logger).Error("chat request failed",
				"error", err,
				"code", domain.ErrorCodeOf(err),
			)
		}
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func (s *HTTPServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, staticFiles, "static/index.html")
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorResponse maps a ChatService error to a status and payload.
func errorResponse(err error) (int, chatError) {
	switch {
	case errors.Is(err, domain.ErrNoQuery):
		return http.StatusBadRequest, chatError{Error: noQueryMessage}
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, chatError{Error: err.Error()}
	default:
		return http.StatusInternalServerError, chatError{Error: err.Error()}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
