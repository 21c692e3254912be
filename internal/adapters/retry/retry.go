// Package retry bounds calls to external providers with a per-attempt
// timeout and exponential backoff on transient failures.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"voidsyn/internal/adapters/http/perf"
)

// Defaults used when a Policy field is zero.
const (
	DefaultTimeout         = 10 * time.Second
	DefaultMaxRetries      = 2
	DefaultInitialInterval = 200 * time.Millisecond
)

// Policy describes how provider calls are bounded.
// The zero value uses the defaults and records nothing.
type Policy struct {
	Timeout         time.Duration
	MaxRetries      int
	InitialInterval time.Duration
	Collector       *perf.Collector
	// Retryable overrides the transient-error classifier.
	Retryable func(error) bool
}

// Do runs fn until it succeeds, fails permanently, or exhausts the retry
// budget. Each attempt gets its own deadline derived from ctx. op names the
// call in logs and the perf collector, e.g. "stripe.checkout_create".
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	} else if retries == 0 {
		retries = DefaultMaxRetries
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = Transient
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	if eb.InitialInterval <= 0 {
		eb.InitialInterval = DefaultInitialInterval
	}
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)

	start := time.Now()
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		actx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		err := fn(actx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !retryable(err) {
			return backoff.Permanent(err)
		}
		slog.Warn("provider_retry", "op", op, "attempt", attempt, "error", err)
		return err
	}, b)

	elapsed := time.Since(start)
	p.Collector.Record(perf.Entry{
		Kind:       perf.KindProvider,
		Path:       op,
		Failed:     err != nil,
		DurationMs: float64(elapsed.Microseconds()) / 1000.0,
		Timestamp:  start,
	})
	if err != nil {
		slog.Debug("provider_call_failed", "op", op, "attempts", attempt, "error", err)
	}
	return err
}

// Transient reports whether err looks like a network hiccup or timeout
// rather than a rejection by the provider.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
