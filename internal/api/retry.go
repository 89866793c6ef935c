package api

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the wait before the first retry
	DefaultBaseDelay = 200 * time.Millisecond
	// DefaultMaxDelay caps a single wait between attempts
	DefaultMaxDelay = 5 * time.Second
	// DefaultMaxElapsed caps the total time spent waiting between attempts
	DefaultMaxElapsed = 30 * time.Second
	// DefaultMultiplier grows the delay after each retry
	DefaultMultiplier = 2.0
	// DefaultJitter is the randomization factor applied to each delay
	DefaultJitter = 0.2
)

// DefaultRetryableStatus lists the statuses retried unless a policy overrides
// them. Only 5xx statuses belong here; every 4xx is surfaced immediately.
var DefaultRetryableStatus = []int{
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// RetryPolicy controls how transient failures are retried. A call makes at
// most MaxRetries+1 attempts.
type RetryPolicy struct {
	MaxRetries      int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	MaxElapsed      time.Duration // 0 = no overall limit
	Multiplier      float64
	Jitter          float64 // randomization factor in [0, 1]
	RetryableStatus []int
}

// DefaultRetryPolicy returns the policy used when Config.Retry is nil.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:      DefaultMaxRetries,
		BaseDelay:       DefaultBaseDelay,
		MaxDelay:        DefaultMaxDelay,
		MaxElapsed:      DefaultMaxElapsed,
		Multiplier:      DefaultMultiplier,
		Jitter:          DefaultJitter,
		RetryableStatus: slices.Clone(DefaultRetryableStatus),
	}
}

// NoRetry returns a policy that makes a single attempt.
func NoRetry() *RetryPolicy {
	p := DefaultRetryPolicy()
	p.MaxRetries = 0
	return p
}

// Attempts returns the maximum number of attempts per call.
func (p *RetryPolicy) Attempts() int {
	if p == nil || p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// IsRetryableStatus reports whether a status code is treated as transient.
func (p *RetryPolicy) IsRetryableStatus(code int) bool {
	if p == nil || p.RetryableStatus == nil {
		return slices.Contains(DefaultRetryableStatus, code)
	}
	return slices.Contains(p.RetryableStatus, code)
}

// newBackOff builds the schedule for one call. The returned BackOff stops as
// soon as ctx is done.
func (p *RetryPolicy) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.BaseDelay
	eb.MaxInterval = p.MaxDelay
	if eb.MaxInterval < eb.InitialInterval {
		eb.MaxInterval = eb.InitialInterval
	}
	eb.MaxElapsedTime = p.MaxElapsed
	eb.Multiplier = p.Multiplier
	if eb.Multiplier < 1 {
		eb.Multiplier = DefaultMultiplier
	}
	eb.RandomizationFactor = min(max(p.Jitter, 0), 1)
	eb.Reset()

	retries := max(p.MaxRetries, 0)
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}
