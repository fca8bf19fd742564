package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scout/internal/adapter/tool"
)

var searchVariant string

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run the search tool directly and print its output",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchVariant, "variant", "", "override tools.search.variant (enhanced, minimal)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if searchVariant != "" {
		cfg.Tools.Search.Variant = searchVariant
	}
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	if err := a.buildSearch(); err != nil {
		return err
	}

	out := a.search.RunContext(ctx, strings.Join(args, " "))
	fmt.Fprintln(cmd.OutOrStdout(), out)
	if tool.IsSearchFailure(out) {
		return errors.New("search failed")
	}
	return nil
}
