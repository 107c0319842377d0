package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"podtool/internal/models"
	"podtool/shared/config"
	"podtool/shared/retry"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

var (
	ErrEmptyURL   = errors.New("episode URL is required")
	ErrNoFindings = errors.New("search returned no findings")
)

// ContentGenerator is the subset of the Gemini models service the extractor
// uses. *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// MetadataSource looks up authoritative metadata for a video id.
type MetadataSource interface {
	LookupVideo(ctx context.Context, videoID string) (*models.Video, error)
}

// Source is one web page the search stage grounded its answer on.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// SearchFindings is the unstructured output of the search stage.
type SearchFindings struct {
	URL     string   `json:"url"`
	VideoID string   `json:"videoId,omitempty"`
	Text    string   `json:"text"`
	Sources []Source `json:"sources,omitempty"`
	Queries []string `json:"queries,omitempty"`
}

type Extractor struct {
	gen         ContentGenerator
	model       string
	searchModel string
	policy      retry.Policy
	metadata    MetadataSource
}

type Option func(*Extractor)

// WithGenerator replaces the Gemini client, mainly for tests.
func WithGenerator(g ContentGenerator) Option {
	return func(e *Extractor) { e.gen = g }
}

// WithMetadataSource enables verification of title, channel and upload date.
func WithMetadataSource(m MetadataSource) Option {
	return func(e *Extractor) { e.metadata = m }
}

func WithRetryPolicy(p retry.Policy) Option {
	return func(e *Extractor) { e.policy = p }
}

func NewExtractor(cfg *config.Config, opts ...Option) (*Extractor, error) {
	e := &Extractor{
		model:       cfg.AI.Model,
		searchModel: cfg.AI.SearchModel,
		policy: retry.Policy{
			MaxRetries:   cfg.AI.MaxRetries,
			InitialDelay: cfg.AI.InitialBackoff,
		},
	}
	if e.searchModel == "" {
		e.searchModel = e.model
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.gen == nil {
		client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:  cfg.AI.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		e.gen = client.Models
	}

	return e, nil
}

// Extract runs both stages for one episode URL and returns the normalized
// result. The result may hold zero episodes.
func (e *Extractor) Extract(ctx context.Context, url string) (*models.ExtractionResult, error) {
	start := time.Now()

	findings, err := e.Discover(ctx, url)
	if err != nil {
		return nil, err
	}

	result, err := e.Structure(ctx, findings)
	if err != nil {
		return nil, err
	}

	normalize(findings.URL, result)
	e.verify(ctx, findings.VideoID, result)

	log.Info().
		Str("url", findings.URL).
		Int("episodes", len(result.Episodes)).
		Int("tools", result.ToolCount()).
		Dur("elapsed", time.Since(start)).
		Msg("Extracted episode tools")

	return result, nil
}

// Discover is the search stage: a web-grounded model call that gathers the
// episode's metadata and mentioned tools as free text.
func (e *Extractor) Discover(ctx context.Context, url string) (*SearchFindings, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrEmptyURL
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(buildSearchPrompt(url))}, genai.RoleUser),
	}
	genCfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	log.Debug().Str("url", url).Str("model", e.searchModel).Msg("Searching episode")
	resp, err := retry.Do(ctx, e.policy, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return e.gen.GenerateContent(ctx, e.searchModel, contents, genCfg)
	})
	if err != nil {
		return nil, fmt.Errorf("search stage failed for %s: %w", url, err)
	}

	text := ""
	if resp != nil {
		text = strings.TrimSpace(resp.Text())
	}
	if text == "" {
		return nil, fmt.Errorf("search stage failed for %s: %w", url, ErrNoFindings)
	}

	findings := &SearchFindings{
		URL:     url,
		VideoID: models.VideoIDFromURL(url),
		Text:    text,
	}
	collectGrounding(resp, findings)
	return findings, nil
}

// Structure is the structuring stage: a schema-constrained model call that
// turns the findings into an ExtractionResult.
func (e *Extractor) Structure(ctx context.Context, findings *SearchFindings) (*models.ExtractionResult, error) {
	if findings == nil || findings.URL == "" {
		return nil, ErrEmptyURL
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(buildStructurePrompt(findings))}, genai.RoleUser),
	}
	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   extractionSchema(),
	}

	resp, err := retry.Do(ctx, e.policy, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return e.gen.GenerateContent(ctx, e.model, contents, genCfg)
	})
	if err != nil {
		return nil, fmt.Errorf("structure stage failed for %s: %w", findings.URL, err)
	}

	raw := ""
	if resp != nil {
		raw = resp.Text()
	}
	return parseExtraction(findings.URL, raw)
}

func (e *Extractor) verify(ctx context.Context, videoID string, result *models.ExtractionResult) {
	if e.metadata == nil || videoID == "" || len(result.Episodes) != 1 {
		return
	}

	video, err := e.metadata.LookupVideo(ctx, videoID)
	if err != nil {
		log.Warn().Err(err).Str("video_id", videoID).Msg("Metadata lookup failed, keeping extracted values")
		return
	}

	ep := &result.Episodes[0]
	if video.Title != "" {
		ep.EpisodeTitle = video.Title
	}
	if video.ChannelTitle != "" {
		ep.PodcastName = video.ChannelTitle
	}
	if date := video.UploadDate(); date != "" {
		ep.UploadDate = date
	}
}

func collectGrounding(resp *genai.GenerateContentResponse, f *SearchFindings) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return
	}
	gm := resp.Candidates[0].GroundingMetadata
	for _, chunk := range gm.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		f.Sources = append(f.Sources, Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	f.Queries = append(f.Queries, gm.WebSearchQueries...)
}
