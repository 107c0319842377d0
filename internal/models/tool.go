package models

// Tool is a deduplicated software product referenced across episodes.
type Tool struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	MentionCount int      `json:"mentionCount"`
	Episodes     []string `json:"episodes"` // episode IDs, first mention first
}

// MentionedIn reports whether the tool is linked to the given episode.
func (t *Tool) MentionedIn(episodeID string) bool {
	for _, id := range t.Episodes {
		if id == episodeID {
			return true
		}
	}
	return false
}

// RankedTool is a Tool with its 1-based leaderboard position.
type RankedTool struct {
	Rank int `json:"rank"`
	Tool
}

// ToolView is a tool together with the episodes that mention it.
type ToolView struct {
	Tool
	MentionedIn []Episode `json:"mentionedIn"`
}
