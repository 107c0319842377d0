package models

// ToolRecord is one tool as returned by the structuring stage.
type ToolRecord struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// EpisodeRecord is one episode as returned by the structuring stage.
type EpisodeRecord struct {
	EpisodeTitle string       `json:"episodeTitle"`
	PodcastName  string       `json:"podcastName"`
	YouTubeURL   string       `json:"youtubeUrl"`
	ThumbnailURL string       `json:"thumbnailUrl"`
	UploadDate   string       `json:"uploadDate"`
	Tools        []ToolRecord `json:"tools"`
}

// Valid reports whether the record carries the fields the catalog keys on.
func (r *EpisodeRecord) Valid() bool {
	return r.EpisodeTitle != "" && r.YouTubeURL != ""
}

// ExtractionResult is the structured output of processing one episode URL.
type ExtractionResult struct {
	Episodes []EpisodeRecord `json:"episodes"`
}

// ToolCount returns the number of tool records across all episodes.
func (r *ExtractionResult) ToolCount() int {
	n := 0
	for _, ep := range r.Episodes {
		n += len(ep.Tools)
	}
	return n
}
