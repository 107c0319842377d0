package main

import (
	"fmt"
	"os"

	tooltracker "podtool/agents/tool-tracker"
	"podtool/shared/monitoring"
	"podtool/shared/scheduler"

	"github.com/spf13/cobra"
)

func newRunOnceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run-once",
		Short: "Import the watchlist once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := ctx.newAgent()
			if err != nil {
				return err
			}
			monitor, err := runWatchlist(cmd, ctx, agent)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), monitor.GetStatusSummary())
			if ranked := agent.Store().Ranked(); len(ranked) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), renderLeaderboard(ranked))
			}
			return nil
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Import the watchlist and print the markdown leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := ctx.newAgent()
			if err != nil {
				return err
			}
			if _, err := runWatchlist(cmd, ctx, agent); err != nil {
				return err
			}
			if output == "" {
				return agent.Store().WriteMarkdown(cmd.OutOrStdout())
			}
			return writeMarkdownFile(output, agent)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the markdown to a file instead of stdout")
	return cmd
}

func runWatchlist(cmd *cobra.Command, ctx *commandContext, agent *tooltracker.TrackerAgent) (*monitoring.Monitor, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Watchlist.Empty() {
		return nil, fmt.Errorf("watchlist is empty, add watchlist.urls or watchlist.feeds to the config")
	}
	monitor := monitoring.NewMonitor()
	if err := scheduler.New(cfg.Schedule, agent, monitor).RunOnce(cmd.Context()); err != nil {
		return nil, err
	}
	return monitor, nil
}

func writeMarkdownFile(path string, agent *tooltracker.TrackerAgent) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := agent.Store().WriteMarkdown(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
