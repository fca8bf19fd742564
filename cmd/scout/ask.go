package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scout/internal/domain"
)

var askThread string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and print the answer",
	Example: `  scout ask "what changed in Go 1.26?"
  scout ask --thread work "and the release date?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askThread, "thread", domain.DefaultThreadID, "conversation thread to continue")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	if err := a.buildChat(); err != nil {
		return err
	}

	reply, err := a.chat.Chat(ctx, domain.ChatTurn{
		Query:    strings.Join(args, " "),
		ThreadID: askThread,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply.Response)
	return nil
}
