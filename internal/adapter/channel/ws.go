package channel

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"scout/internal/domain"
	"scout/internal/infra/logger"
)

// wsWriteTimeout bounds a single reply frame write.
const wsWriteTimeout = 5 * time.Second

// wsReply is the frame written back for each inbound ChatTurn.
type wsReply struct {
	Response string `json:"response,omitempty"`
	ThreadID string `json:"thread_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// handleWebSocket upgrades the request and runs chat turns until the
// client goes away. Turns on one connection run in order.
func (s *HTTPServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{
			"localhost",
			"localhost:*",
			"127.0.0.1",
			"127.0.0.1:*",
			"[::1]",
			"[::1]:*",
		},
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err)
		return
	}
	conn.SetReadLimit(maxBodyBytes)

	ctx := r.Context()
	log := logger.FromContext(ctx, s.logger)
	log.Info("websocket client connected")

	status, reason := s.wsLoop(ctx, conn)
	conn.Close(status, reason)
	log.Info("websocket client disconnected", "status", status)
}

func (s *HTTPServer) wsLoop(ctx context.Context, conn *websocket.Conn) (websocket.StatusCode, string) {
	for {
		var turn domain.ChatTurn
		if err := wsjson.Read(ctx, conn, &turn); err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				return websocket.StatusNormalClosure, ""
			}
			if errors.Is(err, context.Canceled) {
				return websocket.StatusGoingAway, "server shutting down"
			}
			return websocket.StatusUnsupportedData, "invalid frame"
		}

		reply := s.wsTurn(ctx, turn)

		writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
		err := wsjson.Write(writeCtx, conn, reply)
		cancel()
		if err != nil {
			return websocket.StatusInternalError, "write failed"
		}
	}
}

func (s *HTTPServer) wsTurn(ctx context.Context, turn domain.ChatTurn) wsReply {
	reply, err := s.chat.Chat(ctx, turn)
	if err != nil {
		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			logger.FromContext(ctx, s.logger).Error("websocket turn failed", "error", err)
		}
		return wsReply{Error: body.Error, ThreadID: turn.ThreadID}
	}
	return wsReply{Response: reply.Response, ThreadID: reply.ThreadID}
}
