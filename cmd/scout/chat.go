package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scout/internal/adapter/tui/chat"
	"scout/internal/domain"
)

var chatThread string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive terminal chat",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatThread, "thread", domain.DefaultThreadID, "conversation thread to continue")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The alternate screen owns stdout, so logs only go to a file.
	if cfg.Logger.Output == "" || cfg.Logger.Output == "stdout" || cfg.Logger.Output == "stderr" {
		cfg.Logger.Output = os.DevNull
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	if err := a.buildChat(); err != nil {
		return err
	}
	return chat.Run(ctx, a.chat, chatThread)
}
