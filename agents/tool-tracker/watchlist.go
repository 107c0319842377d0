package tooltracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"podtool/internal/models"
	"podtool/shared/config"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"
)

// Watchlist expands the configured episode URLs and channel feeds into the
// URL list of a scheduled import.
type Watchlist struct {
	urls    []string
	feeds   []string
	perFeed int
	parser  *gofeed.Parser
}

func NewWatchlist(cfg *config.WatchlistConfig) *Watchlist {
	return &Watchlist{
		urls:    cfg.URLs,
		feeds:   cfg.Feeds,
		perFeed: cfg.FeedItems,
		parser:  gofeed.NewParser(),
	}
}

// Collect returns the configured URLs followed by the newest entries of
// every feed, without duplicates. A failing feed is skipped and reported
// in the returned error alongside the URLs that could be collected.
func (w *Watchlist) Collect(ctx context.Context) ([]string, error) {
	var urls []string
	seen := make(map[string]bool)
	add := func(url string) {
		url = canonicalURL(url)
		if url == "" || seen[url] {
			return
		}
		seen[url] = true
		urls = append(urls, url)
	}

	for _, url := range w.urls {
		add(url)
	}

	var errs []error
	for _, feedURL := range w.feeds {
		links, err := w.feedLinks(ctx, feedURL)
		if err != nil {
			log.Warn().Err(err).Str("feed", feedURL).Msg("Skipping feed")
			errs = append(errs, err)
			continue
		}
		for _, link := range links {
			add(link)
		}
	}

	return urls, errors.Join(errs...)
}

func (w *Watchlist) feedLinks(ctx context.Context, feedURL string) ([]string, error) {
	feed, err := w.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", feedURL, err)
	}

	items := feed.Items
	sort.SliceStable(items, func(i, j int) bool {
		return publishedBefore(items[j], items[i])
	})

	var links []string
	for _, item := range items {
		if w.perFeed > 0 && len(links) >= w.perFeed {
			break
		}
		if link := canonicalURL(item.Link); link != "" {
			links = append(links, link)
		}
	}

	log.Debug().Str("feed", feedURL).Str("title", feed.Title).Int("links", len(links)).Msg("Parsed feed")
	return links, nil
}

// canonicalURL rewrites any YouTube video link to the watch URL the catalog
// keys episodes on. Other URLs are only trimmed.
func canonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if id := models.VideoIDFromURL(raw); id != "" {
		return models.WatchURL(id)
	}
	return raw
}

// publishedBefore orders items by publish date, undated items first, so a
// descending sort puts them last.
func publishedBefore(a, b *gofeed.Item) bool {
	switch {
	case a.PublishedParsed == nil:
		return b.PublishedParsed != nil
	case b.PublishedParsed == nil:
		return false
	}
	return a.PublishedParsed.Before(*b.PublishedParsed)
}
