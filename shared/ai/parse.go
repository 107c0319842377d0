package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"podtool/internal/models"

	"github.com/rs/zerolog/log"
)

const unknownPodcast = "Unknown Podcast"

// ParseError reports a structuring response that could not be decoded.
type ParseError struct {
	URL string
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse extraction for %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// parseExtraction decodes the structuring stage output. An empty body is an
// empty result.
func parseExtraction(url, raw string) (*models.ExtractionResult, error) {
	body := stripFences(raw)
	result := &models.ExtractionResult{Episodes: []models.EpisodeRecord{}}
	if body == "" {
		return result, nil
	}

	if err := json.Unmarshal([]byte(body), result); err != nil {
		sanitized := sanitizeJSON(body)
		result = &models.ExtractionResult{Episodes: []models.EpisodeRecord{}}
		if serr := json.Unmarshal([]byte(sanitized), result); serr != nil {
			return nil, &ParseError{
				URL: url,
				Raw: raw,
				Err: fmt.Errorf("%w (sanitized version also failed: %v)", err, serr),
			}
		}
		log.Warn().Str("url", url).Msg("Had to sanitize malformed extraction JSON")
	}
	if result.Episodes == nil {
		result.Episodes = []models.EpisodeRecord{}
	}
	return result, nil
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// sanitizeJSON escapes stray quotes inside single-line string values, the
// most common defect in model-written JSON.
func sanitizeJSON(jsonStr string) string {
	lines := strings.Split(jsonStr, "\n")
	sanitized := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		colonIdx := strings.Index(line, "\":")
		if colonIdx != -1 {
			key := line[:colonIdx+2]
			value := strings.TrimSpace(line[colonIdx+2:])
			if strings.HasPrefix(value, "\"") {
				if lastQuote := strings.LastIndex(value, "\""); lastQuote > 0 {
					content := value[1:lastQuote]
					content = strings.ReplaceAll(content, `\"`, `"`)
					content = strings.ReplaceAll(content, `"`, `\"`)
					line = key + " \"" + content + "\"" + value[lastQuote+1:]
				}
			}
		}

		sanitized = append(sanitized, line)
	}

	return strings.Join(sanitized, "\n")
}

// normalize trims every field, drops unusable records and fills the fields
// that can be derived from the submitted URL.
func normalize(url string, result *models.ExtractionResult) {
	videoID := models.VideoIDFromURL(url)
	kept := result.Episodes[:0]

	for _, ep := range result.Episodes {
		ep.EpisodeTitle = strings.TrimSpace(ep.EpisodeTitle)
		ep.PodcastName = strings.TrimSpace(ep.PodcastName)
		ep.YouTubeURL = strings.TrimSpace(ep.YouTubeURL)
		ep.ThumbnailURL = strings.TrimSpace(ep.ThumbnailURL)
		ep.UploadDate = strings.TrimSpace(ep.UploadDate)

		if ep.PodcastName == "" {
			ep.PodcastName = unknownPodcast
		}
		ep.Tools = normalizeTools(ep.Tools)
		kept = append(kept, ep)
	}

	if videoID != "" && len(kept) == 1 {
		kept[0].YouTubeURL = models.WatchURL(videoID)
		kept[0].ThumbnailURL = models.ThumbnailURL(videoID)
	}

	valid := kept[:0]
	for _, ep := range kept {
		if !ep.Valid() {
			log.Debug().Str("url", url).Str("title", ep.EpisodeTitle).Msg("Dropping episode record without title or URL")
			continue
		}
		if ep.ThumbnailURL == "" {
			if id := models.VideoIDFromURL(ep.YouTubeURL); id != "" {
				ep.ThumbnailURL = models.ThumbnailURL(id)
			}
		}
		valid = append(valid, ep)
	}
	result.Episodes = valid
}

func normalizeTools(tools []models.ToolRecord) []models.ToolRecord {
	out := make([]models.ToolRecord, 0, len(tools))
	seen := make(map[string]bool, len(tools))
	for _, t := range tools {
		t.Name = strings.TrimSpace(t.Name)
		t.URL = strings.TrimSpace(t.URL)
		t.Description = strings.TrimSpace(t.Description)
		t.Category = strings.TrimSpace(t.Category)

		key := strings.ToLower(t.Name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
