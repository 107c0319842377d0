package models

// Episode is one processed YouTube video.
type Episode struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	PodcastName string   `json:"podcastName"`
	YouTubeURL  string   `json:"youtubeUrl"`
	Thumbnail   string   `json:"thumbnail"`
	DateAdded   string   `json:"dateAdded"` // upload date, YYYY-MM-DD
	ToolsFound  []string `json:"toolsFound"`
}

// EpisodeView is an episode with its tool IDs resolved.
type EpisodeView struct {
	Episode
	Tools []Tool `json:"tools"`
}

// CatalogStats summarizes the catalog for dashboards.
type CatalogStats struct {
	ToolCount    int `json:"toolCount"`
	EpisodeCount int `json:"episodeCount"`
	MentionCount int `json:"mentionCount"`
}
