// Package retry re-issues a single provider call on transient failure.
// It never spans reconciliation rounds; the round loop has its own budget.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/lite-lake/zonesync/internal/domain"
	"github.com/lite-lake/zonesync/internal/infrastructure/logger"
)

var (
	ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")
	ErrContextCanceled     = errors.New("context canceled")
)

type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	IsRetryable  func(error) bool
	OnRetry      func(attempt int, delay time.Duration, err error)
}

type Option func(*Policy)

func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.MaxAttempts = n
		}
	}
}

func WithInitialDelay(d time.Duration) Option {
	return func(p *Policy) { p.InitialDelay = d }
}

func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) { p.MaxDelay = d }
}

func WithMultiplier(m float64) Option {
	return func(p *Policy) { p.Multiplier = m }
}

func WithIsRetryable(fn func(error) bool) Option {
	return func(p *Policy) { p.IsRetryable = fn }
}

func WithOnRetry(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(p *Policy) { p.OnRetry = fn }
}

func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts:  domain.DefaultRetryMaxAttempts,
		InitialDelay: domain.DefaultRetryInitialDelay,
		MaxDelay:     domain.DefaultRetryMaxDelay,
		Multiplier:   domain.DefaultRetryMultiplier,
		IsRetryable:  func(err error) bool { return err != nil },
		OnRetry: func(attempt int, delay time.Duration, err error) {
			logger.Debug("retrying provider call", "attempt", attempt, "delay", delay, "error", err)
		},
	}
}

func (p *Policy) next(delay time.Duration) time.Duration {
	delay = time.Duration(float64(delay) * p.Multiplier)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

func Do(ctx context.Context, fn func() error, opts ...Option) error {
	_, err := DoWithResult(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	}, opts...)
	return err
}

func DoWithResult[T any](ctx context.Context, fn func() (T, error), opts ...Option) (T, error) {
	var zero T

	p := DefaultPolicy()
	for _, opt := range opts {
		opt(p)
	}

	var lastErr error
	delay := p.InitialDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, errors.Join(ErrContextCanceled, err)
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !p.IsRetryable(err) {
			return zero, err
		}
		if attempt == p.MaxAttempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, errors.Join(ErrContextCanceled, ctx.Err())
		case <-timer.C:
		}
		delay = p.next(delay)
	}

	return zero, errors.Join(ErrMaxAttemptsExceeded, lastErr)
}
