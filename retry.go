package taskrun

import (
	"context"
	"math/rand"
	"time"
)

type BackoffStrategy string

const (
	BackoffNone        BackoffStrategy = "none"
	BackoffFixed       BackoffStrategy = "fixed"
	BackoffExponential BackoffStrategy = "exponential"
)

// BackoffConfig configures the wait between download attempts.
type BackoffConfig struct {
	Strategy    BackoffStrategy `yaml:"strategy" mapstructure:"strategy"`
	Interval    time.Duration   `yaml:"interval" mapstructure:"interval"`
	MaxInterval time.Duration   `yaml:"max_interval" mapstructure:"max_interval"`
	Jitter      bool            `yaml:"jitter" mapstructure:"jitter"`
}

// RetryPolicy bounds how often FetchOnce retries a failed transfer. Only
// transport errors and 5xx responses are retried.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     BackoffConfig
}

// DefaultRetryPolicy makes a single attempt. Raise MaxAttempts to retry.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 1,
	Backoff: BackoffConfig{
		Strategy:    BackoffExponential,
		Interval:    500 * time.Millisecond,
		MaxInterval: 5 * time.Second,
		Jitter:      true,
	},
}

const (
	defaultBackoffInterval    = 100 * time.Millisecond
	defaultBackoffMaxInterval = 5 * time.Second
)

var (
	backoffSleep = waitBeforeRetry
	backoffRand  = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// delay returns the pause before the given retry of a download, retry 1
// being the second attempt. Exponential delays double per retry up to
// MaxInterval.
func (c BackoffConfig) delay(retry int) time.Duration {
	if retry <= 0 {
		return 0
	}

	interval := c.Interval
	if interval <= 0 {
		interval = defaultBackoffInterval
	}
	ceiling := c.MaxInterval
	if ceiling <= 0 {
		ceiling = defaultBackoffMaxInterval
	}

	var wait time.Duration
	switch c.Strategy {
	case BackoffFixed:
		wait = interval
	case BackoffExponential:
		wait = ceiling
		if shift := uint(retry - 1); shift < 63 && interval <= ceiling>>shift {
			wait = interval << shift
		}
	default:
		return 0
	}

	if c.Jitter {
		wait = jitter(wait)
	}
	return wait
}

// jitter picks a delay uniformly in [wait/2, 3*wait/2].
func jitter(wait time.Duration) time.Duration {
	if wait <= 0 {
		return wait
	}
	return wait/2 + time.Duration(backoffRand.Int63n(int64(wait)+1))
}

func waitBeforeRetry(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
