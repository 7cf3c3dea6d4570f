package util

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.ytsaurus.tech/library/go/core/log"
)

const backoffLoggerMsg string = "Will sleep %s and then retry %s because of an error."

func BackoffLoggerWarn(logger log.Logger, msg string) func(error, time.Duration) {
	return func(err error, sleep time.Duration) {
		logger.Warn(fmt.Sprintf(backoffLoggerMsg, sleep, msg), log.Error(err))
	}
}

// RetryPolicy retries an operation forever with a fixed delay between attempts.
// There is no attempt ceiling and no growth of the delay.
type RetryPolicy struct {
	Delay time.Duration
	// Retryable decides whether a failed attempt is repeated. Nil means every error is retried.
	Retryable func(error) bool
}

func NewRetryPolicy(delay time.Duration, retryable func(error) bool) RetryPolicy {
	return RetryPolicy{Delay: delay, Retryable: retryable}
}

// Do runs op until it succeeds, returns a non-retryable error or ctx is done.
// notify is called before every sleep and may be nil.
func (p RetryPolicy) Do(ctx context.Context, op func() error, notify backoff.Notify) error {
	b := backoff.WithContext(backoff.NewConstantBackOff(p.Delay), ctx)
	return backoff.RetryNotify(func() error {
		err := op()
		if err != nil && p.Retryable != nil && !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, notify)
}
