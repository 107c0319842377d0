package catalog

import (
	"fmt"
	"io"
	"time"

	"podtool/internal/models"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	exportTitle   = "PodTool Leaderboard"
	exportCaption = "Generated by PodTool Tracker"
)

// Markdown renders ranked tools as a markdown leaderboard table with the
// columns Rank, Tool, Category, Mentions and URL.
func Markdown(ranked []models.RankedTool) string {
	tw := table.NewWriter()
	tw.SetTitle(exportTitle)
	tw.AppendHeader(table.Row{"Rank", "Tool", "Category", "Mentions", "URL"})
	for _, t := range ranked {
		link := ""
		if t.URL != "" {
			link = fmt.Sprintf("[Link](%s)", t.URL)
		}
		tw.AppendRow(table.Row{t.Rank, "**" + t.Name + "**", t.Category, t.MentionCount, link})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 4, Align: text.AlignLeft},
	})
	tw.SetCaption(exportCaption)
	return tw.RenderMarkdown() + "\n"
}

// WriteMarkdown writes the markdown leaderboard of the store to w.
func (s *Store) WriteMarkdown(w io.Writer) error {
	_, err := io.WriteString(w, Markdown(s.Ranked()))
	return err
}

// ExportFileName returns the download name for a markdown export made at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("podtool-leaderboard-%s.md", t.Format("2006-01-02"))
}
