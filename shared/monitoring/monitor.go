package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Monitor remembers the outcome of the most recent import run.
type Monitor struct {
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
	lastError      string
	runs           int
	failures       int
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary
	m.lastError = ""
	m.runs++
	m.mu.Unlock()

	log.Info().Dur("duration", duration).Msgf("Run completed successfully - %s", summary)
}

// RecordPartialFailure logs a degraded run without changing health.
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	log.Warn().Err(err).Dur("duration", duration).Msg("Partial failure")
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastError = err.Error()
	m.runs++
	m.failures++
	m.mu.Unlock()

	log.Error().Err(err).Dur("duration", duration).Msg("Critical failure")
}

// IsHealthy is true before the first run and after every successful one.
func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}

	when := m.lastRunTime.Format("Jan 2 15:04")
	if m.lastRunSuccess {
		if m.lastSummary != "" {
			return fmt.Sprintf("Last run: %s (%s)", when, m.lastSummary)
		}
		return fmt.Sprintf("Last run: %s", when)
	}
	return fmt.Sprintf("Last run failed: %s (%s)", when, m.lastError)
}

// Runs returns the number of recorded runs and how many of them failed.
func (m *Monitor) Runs() (total, failed int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runs, m.failures
}
