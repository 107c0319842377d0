package retry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// Policy controls how Do retries a failing operation.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy allows three retries starting at two seconds.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: 2 * time.Second,
	}
}

// Do runs op and retries it while it fails with a transient error and the
// retry budget lasts. The delay doubles after every retry. Permanent errors
// and the error of the last attempt are returned unchanged.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	delay := p.InitialDelay
	retriesLeft := p.MaxRetries

	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if retriesLeft <= 0 || !IsTransient(err) {
			return result, err
		}

		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("retries_left", retriesLeft).
			Dur("backoff", delay).
			Msg("Transient remote error, retrying")

		if serr := sleep(ctx, delay); serr != nil {
			var zero T
			return zero, serr
		}
		delay *= 2
		retriesLeft--
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StatusCoder is implemented by errors that carry an HTTP-like status code.
type StatusCoder interface {
	StatusCode() int
}

// IsTransient reports whether err signals rate limiting (429) or a server
// error (5xx). Context cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	code, ok := StatusCode(err)
	if !ok {
		return false
	}
	return transientStatus(code)
}

// StatusCode extracts the status code carried by err, if any.
func StatusCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code, true
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode(), true
	}
	return 0, false
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}
