package services

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// withRetry runs op up to attempts times with exponential backoff and jitter
// between tries. attempts <= 1 means a single call.
func withRetry(ctx context.Context, attempts int, name string, op func() error) error {
	if attempts <= 1 {
		return op()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(attempts-1)), ctx)

	return backoff.RetryNotify(func() error {
		err := op()
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("call", name).Dur("wait", wait).Msg("retrying external call")
	})
}
