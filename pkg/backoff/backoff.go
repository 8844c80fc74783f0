// Package backoff retries flaky outbound deliveries with exponential waits.
package backoff

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy describes how many attempts to make and the first wait between them.
// Waits double after each failure: base, 2*base, 4*base...
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
}

func Default() Policy {
	return Policy{Attempts: 3, BaseDelay: time.Second}
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do calls fn until it succeeds, returns a permanent error, runs out of
// attempts, or ctx is done.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = time.Millisecond
	}

	b := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(base))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil || IsPermanent(err) {
			return err
		}
		return retry.RetryableError(err)
	})
}
