package models

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Video is authoritative YouTube metadata for an episode.
type Video struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ChannelTitle    string    `json:"channel_title"`
	PublishedAt     time.Time `json:"published_at"`
	Duration        string    `json:"duration"`
	DurationSeconds int       `json:"duration_seconds"`
	URL             string    `json:"url"`
	Thumbnail       string    `json:"thumbnail"`
}

// UploadDate returns the publish date as YYYY-MM-DD, or "" when unknown.
func (v *Video) UploadDate() string {
	if v.PublishedAt.IsZero() {
		return ""
	}
	return v.PublishedAt.Format("2006-01-02")
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// VideoIDFromURL extracts the 11-character video id from the common YouTube
// URL shapes (watch, youtu.be, shorts, embed, live). It returns "" when no
// id can be found.
func VideoIDFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if v := u.Query().Get("v"); v != "" {
			id = v
			break
		}
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segments) == 2 {
			switch segments[0] {
			case "shorts", "embed", "live", "v":
				id = segments[1]
			}
		}
	}
	if !videoIDPattern.MatchString(id) {
		return ""
	}
	return id
}

// WatchURL returns the canonical watch URL for a video id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// ThumbnailURL returns the max-resolution thumbnail for a video id.
func ThumbnailURL(id string) string {
	return "https://img.youtube.com/vi/" + id + "/maxresdefault.jpg"
}
