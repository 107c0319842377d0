package tooltracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"podtool/agents/tool-tracker/youtube"
	"podtool/internal/models"
	"podtool/shared/ai"
	"podtool/shared/catalog"
	"podtool/shared/config"
	"podtool/shared/email"
	"podtool/shared/scheduler"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const digestTopTools = 5

// ImportMetrics represents the metrics collected during a scheduled import
type ImportMetrics struct {
	Submitted   int  `json:"submitted"`
	Succeeded   int  `json:"succeeded"`
	Failed      int  `json:"failed"`
	NewEpisodes int  `json:"new_episodes"`
	NewTools    int  `json:"new_tools"`
	EmailSent   bool `json:"email_sent"`
}

// GetSummary implements the scheduler.Metrics interface
func (m ImportMetrics) GetSummary() string {
	if m.Submitted == 0 {
		return "no new episodes to import"
	}
	summary := fmt.Sprintf("processed %d URLs (%d failed), %d new episodes, %d new tools",
		m.Submitted, m.Failed, m.NewEpisodes, m.NewTools)
	if m.EmailSent {
		summary += ", digest sent"
	}
	return summary
}

// DigestSender delivers the email digest of a scheduled import.
type DigestSender interface {
	SendDigest(digest *models.ImportDigest) error
}

// TrackerAgent owns the catalog and runs one import batch at a time. It
// implements the scheduler.Agent interface for watchlist imports.
type TrackerAgent struct {
	config      *config.Config
	extractor   Extractor
	coordinator *Coordinator
	coordOpts   []CoordinatorOption
	store       *catalog.Store
	watchlist   *Watchlist
	digest      DigestSender

	mu      sync.Mutex
	running bool
	current *models.BatchSnapshot
}

type AgentOption func(*TrackerAgent)

func WithExtractor(e Extractor) AgentOption {
	return func(a *TrackerAgent) { a.extractor = e }
}

func WithStore(s *catalog.Store) AgentOption {
	return func(a *TrackerAgent) { a.store = s }
}

func WithDigestSender(d DigestSender) AgentOption {
	return func(a *TrackerAgent) { a.digest = d }
}

// WithCoordinatorOptions adds options applied after the configured ones.
func WithCoordinatorOptions(opts ...CoordinatorOption) AgentOption {
	return func(a *TrackerAgent) { a.coordOpts = append(a.coordOpts, opts...) }
}

func NewTrackerAgent(cfg *config.Config, opts ...AgentOption) *TrackerAgent {
	a := &TrackerAgent{config: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.store == nil {
		a.store = catalog.NewStore()
	}
	return a
}

func (a *TrackerAgent) Name() string {
	return "Tool Tracker"
}

func (a *TrackerAgent) Initialize() error {
	log.Info().Str("agent", a.Name()).Msg("Initializing")

	if a.extractor == nil {
		var opts []ai.Option
		if a.config.YouTube.Enabled() {
			client, err := youtube.NewClient(context.Background(), &a.config.YouTube)
			if err != nil {
				return fmt.Errorf("failed to create YouTube client: %w", err)
			}
			opts = append(opts, ai.WithMetadataSource(client))
			log.Info().Msg("YouTube metadata verification enabled")
		}

		extractor, err := ai.NewExtractor(a.config, opts...)
		if err != nil {
			return fmt.Errorf("failed to create episode extractor: %w", err)
		}
		a.extractor = extractor
		log.Info().Str("model", a.config.AI.Model).Msg("Episode extractor initialized")
	}

	if a.coordinator == nil {
		opts := append([]CoordinatorOption{
			WithItemDelay(a.config.Batch.ItemDelay),
			WithLanes(a.config.Batch.Lanes),
		}, a.coordOpts...)
		a.coordinator = NewCoordinator(a.extractor, opts...)
	}

	if a.watchlist == nil {
		a.watchlist = NewWatchlist(&a.config.Watchlist)
	}

	if a.digest == nil && a.config.Email.Enabled() {
		a.digest = email.NewSender(&a.config.Email)
		log.Info().Str("to", a.config.Email.ToEmail).Msg("Email digest enabled")
	}

	return nil
}

// Store returns the catalog owned by the agent.
func (a *TrackerAgent) Store() *catalog.Store {
	return a.store
}

// ParseURLs validates a raw multi-line URL list against the batch ceiling.
func (a *TrackerAgent) ParseURLs(raw string) ([]string, error) {
	return ParseURLList(raw, a.config.Batch.MaxURLs)
}

// Import runs one batch to completion and merges the successful results.
// A cancelled batch is not merged.
func (a *TrackerAgent) Import(ctx context.Context, urls []string, progress ProgressFunc) (*BatchResult, catalog.MergeReport, error) {
	if err := a.reserve(urls); err != nil {
		return nil, catalog.MergeReport{}, err
	}
	return a.run(ctx, urls, progress)
}

// StartImport validates raw and runs the batch in the background on ctx,
// which should outlive the caller's request. It returns the initial
// snapshot.
func (a *TrackerAgent) StartImport(ctx context.Context, raw string) (models.BatchSnapshot, error) {
	urls, err := a.ParseURLs(raw)
	if err != nil {
		return models.BatchSnapshot{}, err
	}
	if err := a.reserve(urls); err != nil {
		return models.BatchSnapshot{}, err
	}

	snapshot, _ := a.CurrentBatch()
	go func() {
		if _, _, err := a.run(ctx, urls, nil); err != nil {
			log.Error().Err(err).Str("batch", snapshot.ID).Msg("Background batch failed")
		}
	}()
	return snapshot, nil
}

// CurrentBatch returns the running or most recent batch.
func (a *TrackerAgent) CurrentBatch() (models.BatchSnapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return models.BatchSnapshot{}, false
	}
	return a.current.Copy(), true
}

func (a *TrackerAgent) reserve(urls []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return ErrBatchInProgress
	}
	if a.coordinator == nil {
		return fmt.Errorf("%s is not initialized", a.Name())
	}

	items := make([]models.BatchItem, len(urls))
	for i, url := range urls {
		items[i] = models.BatchItem{Index: i, URL: url, Status: models.StatusPending}
	}
	a.running = true
	a.current = &models.BatchSnapshot{
		ID:        uuid.NewString(),
		State:     models.BatchRunning,
		Items:     items,
		StartedAt: time.Now(),
	}
	return nil
}

func (a *TrackerAgent) run(ctx context.Context, urls []string, progress ProgressFunc) (*BatchResult, catalog.MergeReport, error) {
	observe := func(item models.BatchItem) {
		a.mu.Lock()
		if item.Index < len(a.current.Items) {
			a.current.Items[item.Index] = item
		}
		a.mu.Unlock()
		if progress != nil {
			progress(item)
		}
	}

	result, err := a.coordinator.Run(ctx, urls, observe)

	var report catalog.MergeReport
	if result != nil && result.State != models.BatchCancelled && len(result.Results) > 0 {
		report = a.store.Merge(result.Results...)
		log.Info().
			Int("new_episodes", len(report.NewEpisodes)).
			Int("skipped_episodes", report.SkippedEpisodes).
			Int("new_tools", report.NewTools).
			Msg("Merged batch into catalog")
	}

	a.mu.Lock()
	now := time.Now()
	a.current.FinishedAt = &now
	a.current.NewEpisodes = len(report.NewEpisodes)
	a.current.NewTools = report.NewTools
	if result != nil {
		a.current.State = result.State
		a.current.Items = append([]models.BatchItem(nil), result.Items...)
	}
	if err != nil {
		a.current.Error = err.Error()
	}
	a.running = false
	a.mu.Unlock()

	return result, report, err
}

// RunOnce imports the watchlist URLs that are not cataloged yet and mails
// a digest when new episodes were added.
func (a *TrackerAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	metrics := ImportMetrics{}

	urls, err := a.watchlist.Collect(ctx)
	if err != nil {
		if events != nil && events.OnPartialFailure != nil {
			events.OnPartialFailure(fmt.Errorf("failed to read watchlist feeds: %w", err), time.Since(startTime))
		}
	}

	var pending []string
	for _, url := range urls {
		if !a.store.HasEpisode(url) {
			pending = append(pending, url)
		}
	}
	if limit := a.config.Batch.MaxURLs; limit > 0 && len(pending) > limit {
		log.Warn().Int("pending", len(pending)).Int("max", limit).Msg("Watchlist exceeds batch size, deferring the rest")
		pending = pending[:limit]
	}

	if len(pending) == 0 {
		log.Info().Int("watchlist", len(urls)).Msg("No new watchlist episodes")
		if events != nil && events.OnSuccess != nil {
			events.OnSuccess(metrics, time.Since(startTime))
		}
		return nil
	}

	metrics.Submitted = len(pending)
	result, report, err := a.Import(ctx, pending, nil)
	if err != nil {
		if errors.Is(err, ErrBatchInProgress) {
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(err, time.Since(startTime))
			}
			return nil
		}
		// the scheduler records returned errors as critical failures
		return fmt.Errorf("watchlist import failed: %w", err)
	}

	metrics.Succeeded = result.Count(models.StatusSucceeded)
	metrics.Failed = result.Count(models.StatusFailed)
	metrics.NewEpisodes = len(report.NewEpisodes)
	metrics.NewTools = report.NewTools

	if metrics.Failed > 0 && events != nil && events.OnPartialFailure != nil {
		events.OnPartialFailure(fmt.Errorf("%d of %d URLs failed", metrics.Failed, metrics.Submitted), time.Since(startTime))
	}

	if a.digest != nil && report.Changed() {
		if err := a.digest.SendDigest(a.buildDigest(report, result)); err != nil {
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(fmt.Errorf("failed to send digest: %w", err), time.Since(startTime))
			}
		} else {
			metrics.EmailSent = true
		}
	}

	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, time.Since(startTime))
	}
	return nil
}

func (a *TrackerAgent) buildDigest(report catalog.MergeReport, result *BatchResult) *models.ImportDigest {
	digest := &models.ImportDigest{
		Date:  time.Now(),
		Stats: a.store.Stats(),
	}
	for _, id := range report.NewEpisodes {
		if view, ok := a.store.Episode(id); ok {
			digest.NewEpisodes = append(digest.NewEpisodes, view)
		}
	}
	ranked := a.store.Ranked()
	if len(ranked) > digestTopTools {
		ranked = ranked[:digestTopTools]
	}
	digest.TopTools = ranked
	for _, item := range result.Items {
		if item.Status == models.StatusFailed {
			digest.Failed = append(digest.Failed, item)
		}
	}
	return digest
}
