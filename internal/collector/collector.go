package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"HedgeRatio/internal/metrics"
	"HedgeRatio/internal/model"
)

// Collector fetches the spot and futures series for one calculation.
type Collector struct {
	Fetcher Fetcher
	Metrics *metrics.Metrics
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, m *metrics.Metrics) *Collector {
	return &Collector{Fetcher: fetcher, Metrics: m}
}

// Collect fetches one symbol. An empty result is reported as ErrTickerNotFound.
func (c *Collector) Collect(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	began := time.Now()
	points, err := c.Fetcher.FetchPrices(ctx, symbol, start, end)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), time.Since(began), err)
	if err != nil {
		if errors.Is(err, ErrTickerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}
	log.Debug().Str("symbol", symbol).Int("points", len(points)).Str("source", c.Fetcher.Name()).Msg("fetched prices")
	return &model.PriceSeries{Symbol: symbol, Points: points, FetchedAt: time.Now()}, nil
}

// CollectPair fetches both series concurrently and returns once both are in.
// The first failure cancels the other fetch.
func (c *Collector) CollectPair(ctx context.Context, spotSymbol, futuresSymbol string, start, end time.Time) (spot, futures *model.PriceSeries, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		spot, err = c.Collect(gctx, spotSymbol, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		futures, err = c.Collect(gctx, futuresSymbol, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return spot, futures, nil
}
