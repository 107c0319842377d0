package models

import "time"

// ItemStatus is the progress state of one URL in a batch.
type ItemStatus string

const (
	StatusPending    ItemStatus = "pending"
	StatusInProgress ItemStatus = "in-progress"
	StatusSucceeded  ItemStatus = "succeeded"
	StatusFailed     ItemStatus = "failed"
)

// Done reports whether the item reached a terminal state.
func (s ItemStatus) Done() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// BatchItem tracks one URL through a batch run.
type BatchItem struct {
	Index    int        `json:"index"`
	URL      string     `json:"url"`
	Status   ItemStatus `json:"status"`
	Error    string     `json:"error,omitempty"`
	Episodes int        `json:"episodes"` // episode records extracted
	Tools    int        `json:"tools"`    // tool records extracted
}

// BatchState is the overall state of a batch.
type BatchState string

const (
	BatchRunning   BatchState = "running"
	BatchSucceeded BatchState = "succeeded"
	BatchExhausted BatchState = "exhausted"
	BatchCancelled BatchState = "cancelled"
)

// BatchSnapshot is the observable state of the current or latest batch.
type BatchSnapshot struct {
	ID          string      `json:"id"`
	State       BatchState  `json:"state"`
	Items       []BatchItem `json:"items"`
	Error       string      `json:"error,omitempty"`
	StartedAt   time.Time   `json:"startedAt"`
	FinishedAt  *time.Time  `json:"finishedAt,omitempty"`
	NewEpisodes int         `json:"newEpisodes"`
	NewTools    int         `json:"newTools"`
}

// Copy returns a snapshot that shares no memory with s.
func (s *BatchSnapshot) Copy() BatchSnapshot {
	c := *s
	c.Items = append([]BatchItem(nil), s.Items...)
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		c.FinishedAt = &t
	}
	return c
}
