package tooltracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"podtool/internal/models"

	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyBatch      = errors.New("no URLs provided")
	ErrBatchTooLarge   = errors.New("too many URLs")
	ErrBatchExhausted  = errors.New("none of the URLs could be processed, check your API quota")
	ErrBatchInProgress = conflictError("a batch is already running")
)

// conflictError is a request that cannot run alongside the current state.
type conflictError string

func (e conflictError) Error() string { return string(e) }

// StatusCode maps the error to 409 Conflict for HTTP callers.
func (e conflictError) StatusCode() int { return 409 }

// BatchInputError rejects a URL list before any remote call is made.
type BatchInputError struct {
	Count int
	Max   int
	Err   error
}

func (e *BatchInputError) Error() string {
	if errors.Is(e.Err, ErrBatchTooLarge) {
		return fmt.Sprintf("%v: %d submitted, at most %d per batch", e.Err, e.Count, e.Max)
	}
	return e.Err.Error()
}

func (e *BatchInputError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error to 400 Bad Request for HTTP callers.
func (e *BatchInputError) StatusCode() int {
	return 400
}

// ParseURLList splits raw on newlines, trims every entry, drops blanks and
// repeated URLs, and enforces the batch ceiling.
func ParseURLList(raw string, limit int) ([]string, error) {
	var urls []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(raw, "\n") {
		url := strings.TrimSpace(line)
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		urls = append(urls, url)
	}

	if len(urls) == 0 {
		return nil, &BatchInputError{Max: limit, Err: ErrEmptyBatch}
	}
	if limit > 0 && len(urls) > limit {
		return nil, &BatchInputError{Count: len(urls), Max: limit, Err: ErrBatchTooLarge}
	}
	return urls, nil
}

// Extractor turns one episode URL into structured records.
type Extractor interface {
	Extract(ctx context.Context, url string) (*models.ExtractionResult, error)
}

// ProgressFunc observes every item transition. It receives a copy and may
// be called from several lanes, one call at a time.
type ProgressFunc func(item models.BatchItem)

// BatchResult holds per-item outcomes and the successful extractions in
// submission order.
type BatchResult struct {
	Items   []models.BatchItem
	Results []*models.ExtractionResult
	State   models.BatchState
}

func (r *BatchResult) Count(status models.ItemStatus) int {
	n := 0
	for _, item := range r.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}

type Coordinator struct {
	extractor Extractor
	delay     time.Duration
	lanes     int
	sleep     func(ctx context.Context, d time.Duration) error
}

type CoordinatorOption func(*Coordinator)

// WithItemDelay sets the pause between consecutive items of a lane.
func WithItemDelay(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.delay = d }
}

// WithLanes processes the batch on n sequential lanes. One lane is fully
// sequential.
func WithLanes(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.lanes = n
		}
	}
}

// WithSleeper replaces the delay implementation, for tests.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) CoordinatorOption {
	return func(c *Coordinator) { c.sleep = sleep }
}

func NewCoordinator(extractor Extractor, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		extractor: extractor,
		delay:     time.Second,
		lanes:     1,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run extracts every URL. Item failures are recorded on the item and never
// stop the batch. When every item fails the error is ErrBatchExhausted; when
// ctx is cancelled before every item started, unstarted items stay pending
// and ctx.Err() is returned.
func (c *Coordinator) Run(ctx context.Context, urls []string, progress ProgressFunc) (*BatchResult, error) {
	items := make([]models.BatchItem, len(urls))
	for i, url := range urls {
		items[i] = models.BatchItem{Index: i, URL: url, Status: models.StatusPending}
	}
	results := make([]*models.ExtractionResult, len(urls))

	var mu sync.Mutex
	update := func(i int, fn func(item *models.BatchItem)) {
		mu.Lock()
		defer mu.Unlock()
		fn(&items[i])
		if progress != nil {
			progress(items[i])
		}
	}

	lanes := c.lanes
	if lanes > len(urls) {
		lanes = len(urls)
	}

	log.Info().Int("urls", len(urls)).Int("lanes", lanes).Msg("Starting batch")

	var wg sync.WaitGroup
	for lane := 0; lane < lanes; lane++ {
		wg.Add(1)
		go func(lane int) {
			defer wg.Done()
			for i := lane; i < len(urls); i += lanes {
				if i != lane {
					if err := c.sleep(ctx, c.delay); err != nil {
						return
					}
				}
				if ctx.Err() != nil {
					return
				}
				results[i] = c.runItem(ctx, i, urls[i], update)
			}
		}(lane)
	}
	wg.Wait()

	result := &BatchResult{Items: items, State: models.BatchSucceeded}
	for _, r := range results {
		if r != nil {
			result.Results = append(result.Results, r)
		}
	}

	failed := result.Count(models.StatusFailed)
	switch {
	case ctx.Err() != nil && result.Count(models.StatusPending) > 0:
		result.State = models.BatchCancelled
		log.Warn().Int("completed", len(result.Results)).Msg("Batch cancelled")
		return result, ctx.Err()
	case len(urls) > 0 && len(result.Results) == 0:
		result.State = models.BatchExhausted
		log.Error().Int("failed", failed).Msg("Every URL in the batch failed")
		return result, ErrBatchExhausted
	}

	log.Info().
		Int("succeeded", len(result.Results)).
		Int("failed", failed).
		Msg("Batch complete")
	return result, nil
}

func (c *Coordinator) runItem(ctx context.Context, i int, url string, update func(int, func(*models.BatchItem))) *models.ExtractionResult {
	update(i, func(item *models.BatchItem) { item.Status = models.StatusInProgress })

	res, err := c.extractor.Extract(ctx, url)
	if err == nil && res == nil {
		res = &models.ExtractionResult{Episodes: []models.EpisodeRecord{}}
	}
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Failed to process URL")
		update(i, func(item *models.BatchItem) {
			item.Status = models.StatusFailed
			item.Error = err.Error()
		})
		return nil
	}

	update(i, func(item *models.BatchItem) {
		item.Status = models.StatusSucceeded
		item.Episodes = len(res.Episodes)
		item.Tools = res.ToolCount()
	})
	return res
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
