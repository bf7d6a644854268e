package ai

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultMaxAttempts is the total attempt ceiling before degrading
	// to the fallback backend
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the initial backoff delay; it doubles on each
	// rate-limited attempt
	DefaultBaseDelay = time.Second
)

// Gateway wraps a Provider with retry, exponential backoff and a
// deterministic fallback. All backends get the same policy: adding a
// provider never touches retry logic.
//
// Per call: rate-limit signals are retried with base<<attempt waits up
// to the attempt ceiling; any other error gets one short retry. Once
// attempts are exhausted the fallback output is returned instead of an
// error, so callers see success or degraded text, never a retryable
// failure. Context cancellation aborts immediately and is propagated.
type Gateway struct {
	provider    Provider
	fallback    Provider
	maxAttempts int
	baseDelay   time.Duration
	logger      zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error // Overridable for tests
}

// GatewayOption configures the gateway
type GatewayOption func(*Gateway)

// WithMaxAttempts sets the total attempt ceiling
func WithMaxAttempts(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the initial backoff delay
func WithBaseDelay(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.baseDelay = d
		}
	}
}

// WithLogger sets the gateway logger
func WithLogger(logger zerolog.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = logger }
}

// WithFallback overrides the fallback backend
func WithFallback(p Provider) GatewayOption {
	return func(g *Gateway) { g.fallback = p }
}

// NewGateway wraps a provider with the retry/fallback policy
func NewGateway(provider Provider, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		provider:    provider,
		fallback:    NewFallback(),
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		logger:      zerolog.Nop(),
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Provider returns the wrapped backend
func (g *Gateway) Provider() Provider { return g.provider }

// Complete generates text, degrading to the fallback backend after the
// retry budget is spent
func (g *Gateway) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		out, err := g.provider.Complete(ctx, prompt, maxTokens)
		if err == nil {
			return out, nil
		}
		if isCancellation(ctx, err) {
			return "", err
		}

		if IsRateLimited(err) {
			if attempt == g.maxAttempts-1 {
				g.logger.Warn().Str("provider", g.provider.Name()).
					Msg("rate limit retries exhausted, using fallback")
				break
			}
			// Delays double per attempt, so waits within one call are
			// monotonically non-decreasing.
			wait := g.baseDelay << attempt
			g.logger.Warn().Str("provider", g.provider.Name()).
				Int("attempt", attempt+1).Dur("wait", wait).
				Msg("rate limited, backing off")
			if err := g.sleep(ctx, wait); err != nil {
				return "", err
			}
			continue
		}

		// Other errors get a single short retry before degrading.
		if attempt >= 1 {
			g.logger.Error().Err(err).Str("provider", g.provider.Name()).
				Msg("provider error, using fallback")
			break
		}
		g.logger.Warn().Err(err).Str("provider", g.provider.Name()).
			Msg("provider error, retrying once")
		if err := g.sleep(ctx, g.baseDelay); err != nil {
			return "", err
		}
	}

	return g.fallback.Complete(ctx, prompt, maxTokens)
}

// isCancellation reports whether the failure came from the caller going
// away rather than the backend
func isCancellation(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// sleepCtx waits for d within the calling goroutine only, honoring
// cancellation so an abandoned request does not finish its retries
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
