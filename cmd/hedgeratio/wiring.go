package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"HedgeRatio/internal/collector"
	"HedgeRatio/internal/config"
	"HedgeRatio/internal/hedge"
	"HedgeRatio/internal/metrics"
	"HedgeRatio/internal/model"
	"HedgeRatio/internal/recorder"
)

// Data source names accepted by --source.
const (
	sourceAuto     = ""
	sourceYahoo    = "yahoo"
	sourceVsTrader = "vstrader"
	sourceMock     = "mock"
)

// app holds the components shared by every command.
type app struct {
	metrics  *metrics.Metrics
	recorder recorder.Recorder
	service  *hedge.Service
}

func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		log.Warn().Err(err).Msg("close recorder")
	}
}

// newApp wires fetcher, guard, collector, recorder and metrics. mockSymbols
// seeds the mock source with synthetic series.
func newApp(cfg *config.Config, source string, mockSymbols ...string) (*app, error) {
	fetcher, err := newFetcher(cfg, source, mockSymbols)
	if err != nil {
		return nil, err
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source")

	guarded := collector.NewGuardedFetcher(fetcher, collector.GuardSettings{
		RatePerSecond: cfg.DataSource.RatePerSecond,
		Burst:         cfg.DataSource.Burst,
	})

	m := metrics.New()
	rec := openRecorder(cfg.Database.SQLitePath)
	svc := hedge.NewService(collector.NewCollector(guarded, m), rec, m)
	return &app{metrics: m, recorder: rec, service: svc}, nil
}

func newFetcher(cfg *config.Config, source string, mockSymbols []string) (collector.Fetcher, error) {
	switch source {
	case sourceAuto:
		if cfg.DataSource.BaseURL != "" {
			return collector.NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.Timeout), nil
		}
		return collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.Timeout), nil
	case sourceYahoo:
		return collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.Timeout), nil
	case sourceVsTrader:
		if cfg.DataSource.BaseURL == "" {
			return nil, fmt.Errorf("source %q needs data_source.base_url", source)
		}
		return collector.NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.Timeout), nil
	case sourceMock:
		return collector.NewMockFetcher(mockSeries(mockSymbols)), nil
	default:
		return nil, fmt.Errorf("unknown source %q (want yahoo, vstrader or mock)", source)
	}
}

// mockSeries builds a synthetic series per symbol, each with its own base
// price and phase so that pairs are correlated but not identical.
func mockSeries(symbols []string) map[string][]model.PricePoint {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(map[string][]model.PricePoint, len(symbols))
	for i, sym := range symbols {
		if _, ok := out[sym]; ok {
			continue
		}
		base := 50 + float64(len(out))*25
		out[sym] = collector.GenerateMockSeries(start, 8*365, base, 0.02+0.01*float64(i%3), i)
	}
	return out
}

func openRecorder(path string) recorder.Recorder {
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

// watchSymbols lists every symbol the watchlist and the defaults reference.
func watchSymbols(cfg *config.Config) []string {
	syms := []string{defaultSpot, defaultFutures}
	for _, p := range cfg.Watch.Pairs {
		syms = append(syms, p.Spot, p.Futures)
	}
	return syms
}
