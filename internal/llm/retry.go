package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/tildaslashalef/methodgen/internal/config"
	"github.com/tildaslashalef/methodgen/internal/loggy"
)

// ErrRetriesExhausted is returned once every attempt allowed by the policy failed
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryPolicy is the bounded exponential backoff applied to model calls
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// NewRetryPolicy builds a policy from configuration
func NewRetryPolicy(cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     cfg.MaxAttempts,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
		Multiplier:      cfg.Multiplier,
	}
}

// BackOff returns a fresh backoff for one call. Elapsed time is unbounded;
// the attempt count is the only ceiling.
func (p RetryPolicy) BackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.MaxInterval = p.MaxInterval
	exp.Multiplier = p.Multiplier
	exp.MaxElapsedTime = 0

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}

// StatusError carries the HTTP status of a failed provider call
type StatusError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %v", e.Provider, e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Temporary reports whether the status is worth retrying
func (e *StatusError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// temporary is implemented by the typed API errors of every provider
type temporary interface {
	Temporary() bool
}

// IsRetryable reports whether a failed call should be attempted again.
// Errors without a status (network failures, malformed responses) are retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var t temporary
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return true
}

// retryingClient wraps a provider client with rate limiting and the retry policy
type retryingClient struct {
	provider string
	next     Client
	limiter  *rate.Limiter
	policy   RetryPolicy
	logger   *loggy.Logger
}

func newRetryingClient(provider string, next Client, limiter *rate.Limiter, policy RetryPolicy, logger *loggy.Logger) *retryingClient {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &retryingClient{
		provider: provider,
		next:     next,
		limiter:  limiter,
		policy:   policy,
		logger:   logger,
	}
}

// GenerateChat implements Client
func (c *retryingClient) GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var (
		resp      *ChatResponse
		lastErr   error
		attempts  int
		permanent bool
	)

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			permanent = true
			return backoff.Permanent(fmt.Errorf("waiting for rate limiter: %w", err))
		}

		attempts++
		r, err := c.next.GenerateChat(ctx, req)
		if err != nil {
			lastErr = err
			if !IsRetryable(err) {
				permanent = true
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("model call failed, retrying",
			"provider", c.provider,
			"attempt", attempts,
			"max_attempts", c.policy.MaxAttempts,
			"wait", wait,
			"error", err)
	}

	err := backoff.RetryNotify(operation, c.policy.BackOff(ctx), notify)
	if err == nil {
		return resp, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s chat generation: %w", c.provider, ctxErr)
	}
	if permanent {
		return nil, fmt.Errorf("%s chat generation: %w", c.provider, err)
	}
	return nil, fmt.Errorf("%s chat generation: %w after %d attempts: %w", c.provider, ErrRetriesExhausted, attempts, lastErr)
}
