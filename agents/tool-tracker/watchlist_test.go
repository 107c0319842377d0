package tooltracker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"podtool/shared/config"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const channelFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:yt="http://www.youtube.com/xml/schemas/2015">
  <title>How I AI</title>
  <entry>
    <title>Older episode</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=aaaaaaaaaaa"/>
    <published>2025-01-01T10:00:00+00:00</published>
  </entry>
  <entry>
    <title>Newest episode</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=ccccccccccc"/>
    <published>2025-03-01T10:00:00+00:00</published>
  </entry>
  <entry>
    <title>Middle episode</title>
    <link rel="alternate" href="https://youtu.be/bbbbbbbbbbb"/>
    <published>2025-02-01T10:00:00+00:00</published>
  </entry>
</feed>`

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(channelFeed))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestWatchlistCollect(t *testing.T) {
	srv := feedServer(t)
	w := NewWatchlist(&config.WatchlistConfig{
		URLs:      []string{"https://www.youtube.com/watch?v=bbbbbbbbbbb", " "},
		Feeds:     []string{srv.URL + "/feed"},
		FeedItems: 2,
	})

	urls, err := w.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.youtube.com/watch?v=bbbbbbbbbbb",
		"https://www.youtube.com/watch?v=ccccccccccc",
	}, urls, "newest two feed entries, canonicalized and deduplicated")
}

func TestWatchlistBrokenFeedKeepsOthers(t *testing.T) {
	srv := feedServer(t)
	w := NewWatchlist(&config.WatchlistConfig{
		Feeds:     []string{srv.URL + "/broken", srv.URL + "/feed"},
		FeedItems: 1,
	})

	urls, err := w.Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/broken")
	assert.Equal(t, []string{"https://www.youtube.com/watch?v=ccccccccccc"}, urls)
}

func TestWatchlistCanonicalizesConfiguredURLs(t *testing.T) {
	w := NewWatchlist(&config.WatchlistConfig{
		URLs: []string{
			"https://youtu.be/dQw4w9WgXcQ",
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42",
			" https://example.com/episode-1 ",
		},
	})

	urls, err := w.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://example.com/episode-1",
	}, urls)
}

func TestPublishedBefore(t *testing.T) {
	at := func(day int) *gofeed.Item {
		ts := time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC)
		return &gofeed.Item{Link: fmt.Sprintf("day-%d", day), PublishedParsed: &ts}
	}
	undated := &gofeed.Item{Link: "undated"}

	assert.True(t, publishedBefore(at(1), at(2)))
	assert.False(t, publishedBefore(at(2), at(1)))
	assert.True(t, publishedBefore(undated, at(1)))
	assert.False(t, publishedBefore(at(1), undated))
	assert.False(t, publishedBefore(undated, undated))

	items := []*gofeed.Item{at(1), undated, at(3), at(2)}
	sort.SliceStable(items, func(i, j int) bool { return publishedBefore(items[j], items[i]) })

	var links []string
	for _, item := range items {
		links = append(links, item.Link)
	}
	assert.Equal(t, []string{"day-3", "day-2", "day-1", "undated"}, links)
}
