package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podtool/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "import", "run-once", "export"} {
		assert.Contains(t, names, want)
	}

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
}

func TestRootHelpSkipsConfig(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml")})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "podtool")
}

func TestSubcommandRequiresValidConfig(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("CONFIG_FILE", "")

	t.Run("MissingFile", func(t *testing.T) {
		root := newRootCommand()
		root.SetArgs([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml"), "export"})
		err := root.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing.yaml")
	})

	t.Run("MissingAPIKey", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("batch:\n  max_urls: 5\n"), 0600))

		root := newRootCommand()
		root.SetArgs([]string{"--config", path, "import", "https://youtu.be/aaaaaaaaaaa"})
		err := root.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GEMINI_API_KEY")
	})
}

func TestReadURLInput(t *testing.T) {
	t.Run("ArgsOnly", func(t *testing.T) {
		raw, err := readURLInput([]string{"https://a", "https://b"}, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "https://a\nhttps://b", raw)
	})

	t.Run("ArgsAndFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "urls.txt")
		require.NoError(t, os.WriteFile(path, []byte("https://b\n\nhttps://c\n"), 0600))

		raw, err := readURLInput([]string{"https://a"}, path, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://a\nhttps://b\n\nhttps://c\n", raw)
	})

	t.Run("Stdin", func(t *testing.T) {
		raw, err := readURLInput(nil, "-", strings.NewReader("https://x\n"))
		require.NoError(t, err)
		assert.Equal(t, "https://x\n", raw)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := readURLInput(nil, filepath.Join(t.TempDir(), "nope.txt"), nil)
		assert.ErrorContains(t, err, "read URL list")
	})
}

func TestFormatProgress(t *testing.T) {
	tests := []struct {
		name string
		item models.BatchItem
		want string
	}{
		{
			name: "in progress",
			item: models.BatchItem{Index: 0, URL: "https://a", Status: models.StatusInProgress},
			want: "[1/3] in-progress https://a",
		},
		{
			name: "succeeded",
			item: models.BatchItem{Index: 1, URL: "https://b", Status: models.StatusSucceeded, Episodes: 1, Tools: 4},
			want: "[2/3] succeeded   https://b (1 episodes, 4 tools)",
		},
		{
			name: "failed",
			item: models.BatchItem{Index: 2, URL: "https://c", Status: models.StatusFailed, Error: "quota"},
			want: "[3/3] failed      https://c: quota",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatProgress(tt.item, 3))
		})
	}
}

func TestRenderLeaderboard(t *testing.T) {
	assert.Equal(t, "No tools cataloged yet.", renderLeaderboard(nil))

	out := renderLeaderboard([]models.RankedTool{
		{Rank: 1, Tool: models.Tool{Name: "Cursor", Category: "Editor", MentionCount: 3, URL: "https://cursor.com"}},
		{Rank: 2, Tool: models.Tool{Name: "Linear", Category: "Planning", MentionCount: 1}},
	})
	assert.Contains(t, out, "Cursor")
	assert.Contains(t, out, "https://cursor.com")
	assert.Less(t, strings.Index(out, "Cursor"), strings.Index(out, "Linear"))
}

func TestRenderFailures(t *testing.T) {
	out := renderFailures([]models.BatchItem{
		{Index: 0, URL: "https://ok", Status: models.StatusSucceeded},
		{Index: 1, URL: "https://bad", Status: models.StatusFailed, Error: "429 resource exhausted"},
	})
	assert.NotContains(t, out, "https://ok")
	assert.Contains(t, out, "https://bad")
	assert.Contains(t, out, "429 resource exhausted")
}
