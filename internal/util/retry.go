package util

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type RetryPolicy struct {
	// Attempts counts the first try.
	Attempts  int
	BaseDelay time.Duration
}

// Retry runs op until it succeeds, fails with an error retryable rejects,
// or has been tried policy.Attempts times. The wait doubles after every
// failure starting from BaseDelay. notify may be nil.
func Retry(
	ctx context.Context,
	policy RetryPolicy,
	retryable func(error) bool,
	op func() error,
	notify func(err error, attempt int, wait time.Duration),
) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = policy.BaseDelay << uint(attempts)
	b.MaxElapsedTime = 0

	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			err := op()
			if err != nil && !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		},
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx),
		func(err error, wait time.Duration) {
			if notify != nil {
				notify(err, attempt, wait)
			}
		},
	)
}
