package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"scout/internal/adapter/channel"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the search tool over MCP stdio",
	Long: `Expose the configured search tool to MCP clients over stdin/stdout.

Only the search tool is served; no LLM or API key is needed.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// stdout carries the protocol.
	if strings.EqualFold(cfg.Logger.Output, "stdout") {
		cfg.Logger.Output = "stderr"
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	if err := a.buildSearch(); err != nil {
		return err
	}

	a.logger.Info("mcp server started", "tool", a.search.Name(), "version", version)
	return channel.NewMCPServer(a.search, version, a.logger).Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}
