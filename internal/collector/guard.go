package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"HedgeRatio/internal/model"
)

// GuardSettings configures GuardedFetcher.
type GuardSettings struct {
	RatePerSecond       float64
	Burst               int
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// GuardedFetcher wraps a Fetcher with a token-bucket rate limiter and a
// circuit breaker. It never retries.
type GuardedFetcher struct {
	inner   Fetcher
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuardedFetcher wraps inner. Zero settings fall back to 2 req/s, burst 2,
// tripping after 5 consecutive failures for 30s.
func NewGuardedFetcher(inner Fetcher, s GuardSettings) *GuardedFetcher {
	if s.RatePerSecond <= 0 {
		s.RatePerSecond = 2
	}
	if s.Burst <= 0 {
		s.Burst = 2
	}
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	threshold := s.ConsecutiveFailures
	return &GuardedFetcher{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(s.RatePerSecond), s.Burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    inner.Name(),
			Timeout: s.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			// An unknown ticker is a valid answer, not a provider outage.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrTickerNotFound) || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			},
		}),
	}
}

func (g *GuardedFetcher) Name() string { return g.inner.Name() }

// State returns the breaker state, for status output.
func (g *GuardedFetcher) State() gobreaker.State { return g.breaker.State() }

func (g *GuardedFetcher) FetchPrices(ctx context.Context, symbol string, start, end time.Time) ([]model.PricePoint, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.FetchPrices(ctx, symbol, start, end)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s provider unavailable: %w", g.inner.Name(), err)
		}
		return nil, err
	}
	return out.([]model.PricePoint), nil
}
