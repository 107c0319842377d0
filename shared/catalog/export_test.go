package catalog

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"podtool/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownRanksWithStableTies(t *testing.T) {
	ranked := Rank([]models.Tool{
		{Name: "X", Category: "AI", URL: "https://x.example", MentionCount: 5},
		{Name: "Y", Category: "Dev", URL: "https://y.example", MentionCount: 5},
		{Name: "Z", Category: "Ops", URL: "https://z.example", MentionCount: 1},
	})

	md := Markdown(ranked)

	assert.True(t, strings.HasPrefix(md, "# PodTool Leaderboard"))
	assert.Contains(t, md, "| Rank | Tool | Category | Mentions | URL |")
	assert.Contains(t, md, "| 1 | **X** | AI | 5 | [Link](https://x.example) |")
	assert.Contains(t, md, "| 2 | **Y** | Dev | 5 | [Link](https://y.example) |")
	assert.Contains(t, md, "| 3 | **Z** | Ops | 1 | [Link](https://z.example) |")
	assert.Contains(t, md, "Generated by PodTool Tracker")

	x := strings.Index(md, "**X**")
	y := strings.Index(md, "**Y**")
	z := strings.Index(md, "**Z**")
	assert.True(t, x < y && y < z, "expected X, Y, Z order")
}

func TestMarkdownEscapesPipes(t *testing.T) {
	md := Markdown(Rank([]models.Tool{{Name: "A|B", MentionCount: 1}}))
	assert.Contains(t, md, `**A\|B**`)
}

func TestStoreWriteMarkdown(t *testing.T) {
	s := NewStore(sequentialIDs())
	s.Merge(
		result(episode("https://youtu.be/1", "Cursor", "GitHub")),
		result(episode("https://youtu.be/2", "GitHub")),
	)

	var buf bytes.Buffer
	require.NoError(t, s.WriteMarkdown(&buf))
	out := buf.String()
	assert.Less(t, strings.Index(out, "**GitHub**"), strings.Index(out, "**Cursor**"))
}

func TestExportFileName(t *testing.T) {
	ts := time.Date(2025, 3, 9, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "podtool-leaderboard-2025-03-09.md", ExportFileName(ts))
}
