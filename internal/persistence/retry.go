package persistence

import (
	"context"
	"errors"
	"net/url"
	"time"
)

// RetryPolicy retries remote writes with capped exponential backoff.
type RetryPolicy struct {
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:       3,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}
}

// temporary is implemented by errors that know whether a retry may help.
type temporary interface {
	Temporary() bool
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// *url.Error answers Temporary false for resets, EOF and refused
	// connections, so transport failures are classified before status errors.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var t temporary
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return true
}

// Do runs fn until it succeeds, fails permanently or the attempts run out.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := max(p.Attempts, 1)
	backoff := p.InitialBackoff

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return errors.Join(err, ctx.Err())
			case <-t.C:
			}
			backoff = min(backoff*2, p.MaxBackoff)
		}
		if err = fn(ctx); err == nil || !retryable(err) {
			return err
		}
	}
	return err
}
