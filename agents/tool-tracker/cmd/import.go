package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tooltracker "podtool/agents/tool-tracker"
	"podtool/internal/models"

	"github.com/spf13/cobra"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var file string
	var markdown string

	cmd := &cobra.Command{
		Use:   "import [url...]",
		Short: "Process a batch of episode URLs and print the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readURLInput(args, file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			agent, err := ctx.newAgent()
			if err != nil {
				return err
			}
			urls, err := agent.ParseURLs(raw)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result, report, err := agent.Import(cmd.Context(), urls, func(item models.BatchItem) {
				fmt.Fprintln(out, formatProgress(item, len(urls)))
			})
			if result != nil {
				fmt.Fprintf(out, "\n%d succeeded, %d failed, %d new episodes, %d new tools\n",
					result.Count(models.StatusSucceeded), result.Count(models.StatusFailed),
					len(report.NewEpisodes), report.NewTools)
			}
			if err != nil {
				if errors.Is(err, tooltracker.ErrBatchExhausted) && result != nil {
					fmt.Fprintln(out, renderFailures(result.Items))
				}
				return err
			}

			fmt.Fprintln(out, renderLeaderboard(agent.Store().Ranked()))
			if markdown != "" {
				if err := writeMarkdownFile(markdown, agent); err != nil {
					return err
				}
				fmt.Fprintf(out, "Markdown written to %s\n", markdown)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read URLs from a file, one per line (- for stdin)")
	cmd.Flags().StringVar(&markdown, "markdown", "", "Also write the markdown leaderboard to this path")
	return cmd
}

// readURLInput joins the URL arguments and the optional file into the
// newline separated form the batch parser expects.
func readURLInput(args []string, file string, stdin io.Reader) (string, error) {
	lines := append([]string(nil), args...)
	if file != "" {
		var data []byte
		var err error
		if file == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(file)
		}
		if err != nil {
			return "", fmt.Errorf("read URL list: %w", err)
		}
		lines = append(lines, string(data))
	}
	return strings.Join(lines, "\n"), nil
}

func formatProgress(item models.BatchItem, total int) string {
	prefix := fmt.Sprintf("[%d/%d] %-11s %s", item.Index+1, total, item.Status, item.URL)
	switch item.Status {
	case models.StatusSucceeded:
		return fmt.Sprintf("%s (%d episodes, %d tools)", prefix, item.Episodes, item.Tools)
	case models.StatusFailed:
		return fmt.Sprintf("%s: %s", prefix, item.Error)
	}
	return prefix
}
