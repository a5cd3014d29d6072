package taskrun

import (
	"context"
	"math/rand"
	"time"
)

// SetBackoffSleep replaces the sleeper used between download attempts.
func SetBackoffSleep(sleeper func(context.Context, time.Duration) error) func() {
	old := backoffSleep
	if sleeper != nil {
		backoffSleep = sleeper
	}
	return func() { backoffSleep = old }
}

// SetBackoffRand replaces the jitter random source.
func SetBackoffRand(r *rand.Rand) func() {
	old := backoffRand
	if r != nil {
		backoffRand = r
	}
	return func() { backoffRand = old }
}

// ComputeBackoffDelay returns the pause before the given download retry.
func ComputeBackoffDelay(retry int, cfg BackoffConfig) time.Duration {
	return cfg.delay(retry)
}
