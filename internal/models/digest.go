package models

import "time"

// ImportDigest summarizes a scheduled import for the email report.
type ImportDigest struct {
	Date        time.Time
	NewEpisodes []EpisodeView
	TopTools    []RankedTool
	Failed      []BatchItem
	Stats       CatalogStats
}
