package main

import (
	"strconv"

	"podtool/internal/models"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func renderLeaderboard(ranked []models.RankedTool) string {
	if len(ranked) == 0 {
		return "No tools cataloged yet."
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Rank", "Tool", "Category", "Mentions", "URL"})
	for _, t := range ranked {
		tw.AppendRow(table.Row{strconv.Itoa(t.Rank), t.Name, t.Category, strconv.Itoa(t.MentionCount), t.URL})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func renderFailures(items []models.BatchItem) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "URL", "Error"})
	for _, item := range items {
		if item.Status != models.StatusFailed {
			continue
		}
		tw.AppendRow(table.Row{strconv.Itoa(item.Index + 1), item.URL, item.Error})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 60},
	})
	return tw.Render()
}
