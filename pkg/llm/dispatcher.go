// Package llm dispatches prompts to a primary provider with a single fallback.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smelty/pkg/ratelimit"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const DefaultTimeout = 10 * time.Second

// ErrProvidersUnavailable means every configured provider failed.
var ErrProvidersUnavailable = errors.New("all providers unavailable")

// RateLimitError is returned before any provider call when the window is full.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter.Round(time.Second))
}

// RetrySeconds rounds RetryAfter up to whole seconds, never below 1.
func (e *RateLimitError) RetrySeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Dispatcher tries its providers in order, primary first.
type Dispatcher struct {
	limiter   *ratelimit.Limiter
	providers []Provider
	timeout   time.Duration
	logger    *zap.Logger
}

// NewDispatcher builds a dispatcher. Nil providers are skipped so a missing
// API key simply removes that provider from the chain.
func NewDispatcher(limiter *ratelimit.Limiter, timeout time.Duration, logger *zap.Logger, providers ...Provider) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var chain []Provider
	for _, p := range providers {
		if p != nil && !isNilProvider(p) {
			chain = append(chain, p)
		}
	}
	return &Dispatcher{
		limiter:   limiter,
		providers: chain,
		timeout:   timeout,
		logger:    logger,
	}
}

// Providers returns the names of the configured chain in order.
func (d *Dispatcher) Providers() []string {
	names := make([]string, len(d.providers))
	for i, p := range d.providers {
		names[i] = p.Name()
	}
	return names
}

// Generate returns generated text, a *RateLimitError, or an error wrapping
// ErrProvidersUnavailable. Only a successful call consumes rate-limit budget.
func (d *Dispatcher) Generate(ctx context.Context, system, user string) (string, error) {
	reservation, decision := d.limiter.Reserve()
	if !decision.Allowed {
		d.logger.Warn("Rate limit exceeded", zap.Duration("retry_after", decision.RetryAfter))
		return "", &RateLimitError{RetryAfter: decision.RetryAfter}
	}

	var lastErr error
	for _, p := range d.providers {
		start := time.Now()
		text, err := d.call(ctx, p, system, user)
		if err == nil {
			reservation.Commit()
			d.logger.Info("Provider call succeeded",
				zap.String("provider", p.Name()),
				zap.Duration("took", time.Since(start)))
			return text, nil
		}

		d.logger.Warn("Provider call failed",
			zap.String("provider", p.Name()),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		lastErr = errors.Wrapf(err, "provider %s", p.Name())
	}

	reservation.Cancel()
	if lastErr == nil {
		return "", errors.Wrap(ErrProvidersUnavailable, "no providers configured")
	}
	d.logger.Error("All providers failed", zap.Error(lastErr))
	return "", errors.Wrapf(ErrProvidersUnavailable, "last error: %v", lastErr)
}

func (d *Dispatcher) call(ctx context.Context, p Provider, system, user string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	text, err := p.Complete(callCtx, system, user)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty response")
	}
	return text, nil
}
