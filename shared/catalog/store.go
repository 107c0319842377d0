package catalog

import (
	"sort"
	"strings"
	"sync"

	"podtool/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Store is the in-memory catalog of tools and episodes. Merge is the only
// mutation; readers get copies and may run concurrently with it.
type Store struct {
	mu sync.RWMutex

	tools      []*models.Tool // insertion order
	toolsByKey map[string]*models.Tool
	toolsByID  map[string]*models.Tool

	episodes      []*models.Episode // insertion order, oldest first
	episodesByURL map[string]*models.Episode
	episodesByID  map[string]*models.Episode

	newID func(prefix string) string
}

// Option customizes a Store.
type Option func(*Store)

// WithIDGenerator overrides how entity IDs are minted.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		toolsByKey:    make(map[string]*models.Tool),
		toolsByID:     make(map[string]*models.Tool),
		episodesByURL: make(map[string]*models.Episode),
		episodesByID:  make(map[string]*models.Episode),
		newID:         uuidID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func uuidID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// NormalizeName returns the dedup key for a tool name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MergeReport describes what a Merge changed.
type MergeReport struct {
	NewEpisodes     []string `json:"newEpisodes"` // IDs, in merge order
	SkippedEpisodes int      `json:"skippedEpisodes"`
	InvalidRecords  int      `json:"invalidRecords"`
	NewTools        int      `json:"newTools"`
	UpdatedTools    int      `json:"updatedTools"`
}

// Changed reports whether the merge added anything.
func (r MergeReport) Changed() bool {
	return len(r.NewEpisodes) > 0
}

// Merge folds extraction results into the catalog. Episodes whose YouTube URL
// is already cataloged are skipped, so merging the same result twice is a
// no-op the second time.
func (s *Store) Merge(results ...*models.ExtractionResult) MergeReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report MergeReport
	updated := make(map[string]bool)

	for _, result := range results {
		if result == nil {
			continue
		}
		for i := range result.Episodes {
			rec := &result.Episodes[i]
			if !rec.Valid() {
				report.InvalidRecords++
				log.Warn().Str("title", rec.EpisodeTitle).Str("url", rec.YouTubeURL).
					Msg("Ignoring episode record with missing required fields")
				continue
			}
			url := strings.TrimSpace(rec.YouTubeURL)
			if _, exists := s.episodesByURL[url]; exists {
				report.SkippedEpisodes++
				continue
			}

			episode := &models.Episode{
				ID:          s.newID("e"),
				Title:       rec.EpisodeTitle,
				PodcastName: rec.PodcastName,
				YouTubeURL:  url,
				Thumbnail:   rec.ThumbnailURL,
				DateAdded:   rec.UploadDate,
				ToolsFound:  []string{},
			}

			for _, tr := range rec.Tools {
				key := NormalizeName(tr.Name)
				if key == "" {
					continue
				}

				tool, exists := s.toolsByKey[key]
				if exists {
					if !tool.MentionedIn(episode.ID) {
						tool.Episodes = append(tool.Episodes, episode.ID)
						tool.MentionCount++
						if filled := fillEmpty(tool, tr); len(filled) > 0 {
							log.Debug().
								Str("tool", tool.Name).
								Strs("fields", filled).
								Str("episode", episode.ID).
								Msg("Filled empty tool metadata from a later mention")
						}
						if !updated[tool.ID] {
							updated[tool.ID] = true
							report.UpdatedTools++
						}
					}
				} else {
					tool = &models.Tool{
						ID:           s.newID("t"),
						Name:         strings.TrimSpace(tr.Name),
						URL:          tr.URL,
						Description:  tr.Description,
						Category:     tr.Category,
						MentionCount: 1,
						Episodes:     []string{episode.ID},
					}
					s.tools = append(s.tools, tool)
					s.toolsByKey[key] = tool
					s.toolsByID[tool.ID] = tool
					updated[tool.ID] = true
					report.NewTools++
				}

				if !contains(episode.ToolsFound, tool.ID) {
					episode.ToolsFound = append(episode.ToolsFound, tool.ID)
				}
			}

			s.episodes = append(s.episodes, episode)
			s.episodesByURL[url] = episode
			s.episodesByID[episode.ID] = episode
			report.NewEpisodes = append(report.NewEpisodes, episode.ID)
		}
	}

	log.Info().
		Int("new_episodes", len(report.NewEpisodes)).
		Int("skipped_episodes", report.SkippedEpisodes).
		Int("new_tools", report.NewTools).
		Int("updated_tools", report.UpdatedTools).
		Msg("Catalog merge complete")

	return report
}

// fillEmpty keeps first-seen metadata and only fills fields that were empty.
// It returns the names of the filled fields.
func fillEmpty(tool *models.Tool, rec models.ToolRecord) []string {
	var filled []string
	if tool.URL == "" && rec.URL != "" {
		tool.URL = rec.URL
		filled = append(filled, "url")
	}
	if tool.Description == "" && rec.Description != "" {
		tool.Description = rec.Description
		filled = append(filled, "description")
	}
	if tool.Category == "" && rec.Category != "" {
		tool.Category = rec.Category
		filled = append(filled, "category")
	}
	return filled
}

func contains(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

// HasEpisode reports whether an episode with the given YouTube URL exists.
func (s *Store) HasEpisode(youtubeURL string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.episodesByURL[strings.TrimSpace(youtubeURL)]
	return ok
}

// Tools returns a copy of all tools in insertion order.
func (s *Store) Tools() []models.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, copyTool(t))
	}
	return out
}

// Ranked returns tools by mention count, highest first. Ties keep insertion order.
func (s *Store) Ranked() []models.RankedTool {
	return Rank(s.Tools())
}

// Rank orders tools by mention count descending, stable on ties.
func Rank(tools []models.Tool) []models.RankedTool {
	sorted := make([]models.Tool, len(tools))
	copy(sorted, tools)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MentionCount > sorted[j].MentionCount
	})

	ranked := make([]models.RankedTool, len(sorted))
	for i, t := range sorted {
		ranked[i] = models.RankedTool{Rank: i + 1, Tool: t}
	}
	return ranked
}

// Episodes returns a copy of the episode history, most recently added first.
func (s *Store) Episodes() []models.Episode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Episode, 0, len(s.episodes))
	for i := len(s.episodes) - 1; i >= 0; i-- {
		out = append(out, copyEpisode(s.episodes[i]))
	}
	return out
}

// Tool returns the tool with the given ID and the episodes mentioning it.
func (s *Store) Tool(id string) (models.ToolView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.toolsByID[id]
	if !ok {
		return models.ToolView{}, false
	}
	view := models.ToolView{Tool: copyTool(t), MentionedIn: make([]models.Episode, 0, len(t.Episodes))}
	for _, epID := range t.Episodes {
		if ep, ok := s.episodesByID[epID]; ok {
			view.MentionedIn = append(view.MentionedIn, copyEpisode(ep))
		}
	}
	return view, true
}

// Episode returns the episode with the given ID and its resolved tools.
func (s *Store) Episode(id string) (models.EpisodeView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ep, ok := s.episodesByID[id]
	if !ok {
		return models.EpisodeView{}, false
	}
	view := models.EpisodeView{Episode: copyEpisode(ep), Tools: make([]models.Tool, 0, len(ep.ToolsFound))}
	for _, toolID := range ep.ToolsFound {
		if t, ok := s.toolsByID[toolID]; ok {
			view.Tools = append(view.Tools, copyTool(t))
		}
	}
	return view, true
}

// Stats returns catalog totals.
func (s *Store) Stats() models.CatalogStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.CatalogStats{ToolCount: len(s.tools), EpisodeCount: len(s.episodes)}
	for _, t := range s.tools {
		stats.MentionCount += t.MentionCount
	}
	return stats
}

func copyTool(t *models.Tool) models.Tool {
	c := *t
	c.Episodes = append([]string(nil), t.Episodes...)
	return c
}

func copyEpisode(e *models.Episode) models.Episode {
	c := *e
	c.ToolsFound = append([]string(nil), e.ToolsFound...)
	return c
}
