package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) StatusCode() int { return int(e) }

type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"gemini 429", genai.APIError{Code: 429}, true},
		{"gemini 503", genai.APIError{Code: 503}, true},
		{"gemini 500 pointer", &genai.APIError{Code: 500}, true},
		{"gemini 400", genai.APIError{Code: 400}, false},
		{"gemini 403", genai.APIError{Code: 403}, false},
		{"wrapped gemini 429", fmt.Errorf("stage a: %w", genai.APIError{Code: 429}), true},
		{"youtube 502", &googleapi.Error{Code: 502}, true},
		{"youtube 404", &googleapi.Error{Code: 404}, false},
		{"status coder 504", statusErr(504), true},
		{"status coder 401", statusErr(401), false},
		{"plain error", errors.New("boom"), false},
		{"context canceled", context.Canceled, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	s := &recordingSleeper{}
	calls := 0
	got, err := Do(context.Background(), Policy{MaxRetries: 3, InitialDelay: time.Second, Sleep: s.sleep},
		func(context.Context) (string, error) {
			calls++
			return "ok", nil
		})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
	assert.Empty(t, s.waits)
}

func TestDoRetriesRateLimitWithDoublingBackoff(t *testing.T) {
	s := &recordingSleeper{}
	d := 1500 * time.Millisecond
	calls := 0
	got, err := Do(context.Background(), Policy{MaxRetries: 3, InitialDelay: d, Sleep: s.sleep},
		func(context.Context) (int, error) {
			calls++
			if calls <= 2 {
				return 0, genai.APIError{Code: 429, Message: "quota"}
			}
			return 42, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{d, 2 * d}, s.waits)
}

func TestDoExhaustsBudget(t *testing.T) {
	s := &recordingSleeper{}
	lastErr := genai.APIError{Code: 503, Message: "unavailable"}
	calls := 0
	_, err := Do(context.Background(), Policy{MaxRetries: 2, InitialDelay: time.Second, Sleep: s.sleep},
		func(context.Context) (string, error) {
			calls++
			return "", lastErr
		})
	require.Error(t, err)
	assert.Equal(t, lastErr, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, s.waits)
}

func TestDoPermanentErrorNotRetried(t *testing.T) {
	s := &recordingSleeper{}
	permanent := genai.APIError{Code: 401, Message: "bad key"}
	calls := 0
	_, err := Do(context.Background(), Policy{MaxRetries: 3, InitialDelay: time.Second, Sleep: s.sleep},
		func(context.Context) (string, error) {
			calls++
			return "", permanent
		})
	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, s.waits)
}

func TestDoStopsWhenSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	_, err := Do(ctx, Policy{MaxRetries: 3, InitialDelay: time.Hour},
		func(context.Context) (string, error) {
			calls++
			cancel()
			return "", statusErr(429)
		})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoUsesRealTimer(t *testing.T) {
	calls := 0
	start := time.Now()
	_, err := Do(context.Background(), Policy{MaxRetries: 1, InitialDelay: 5 * time.Millisecond},
		func(context.Context) (string, error) {
			calls++
			if calls == 1 {
				return "", statusErr(500)
			}
			return "done", nil
		})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}
