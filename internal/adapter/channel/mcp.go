package channel

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"scout/internal/adapter/tool"
	"scout/internal/domain"
)

// MCPServer exposes a search QueryTool over the Model Context Protocol.
type MCPServer struct {
	tool   domain.QueryTool
	mcp    *server.MCPServer
	logger *slog.Logger
}

// NewMCPServer registers qt as the server's only tool.
func NewMCPServer(qt domain.QueryTool, version string, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		tool:   qt,
		logger: logger,
		mcp: server.NewMCPServer(
			"scout",
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}

	s.mcp.AddTool(mcp.NewTool(
		qt.Name(),
		mcp.WithDescription(qt.Description()),
		mcp.WithString(
			"query",
			mcp.Required(),
			mcp.Description("Plain text search query."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	), s.handleQuery)

	return s
}

// Serve speaks MCP over in/out until ctx is cancelled or in is closed.
func (s *MCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("mcp server started", "tool", s.tool.Name())
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *MCPServer) handleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return mcp.NewToolResultError("query cannot be empty"), nil
	}

	out := s.tool.RunContext(ctx, query)
	if tool.IsSearchFailure(out) {
		s.logger.Warn("mcp search failed", "tool", s.tool.Name(), "result", out)
		return mcp.NewToolResultError(out), nil
	}
	return mcp.NewToolResultText(out), nil
}
