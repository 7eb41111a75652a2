package hedge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"HedgeRatio/internal/calculator"
	"HedgeRatio/internal/collector"
	"HedgeRatio/internal/metrics"
	"HedgeRatio/internal/model"
	"HedgeRatio/internal/recorder"
)

// Service runs the fetch, returns, statistics and sizing pipeline.
type Service struct {
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

// NewService creates a Service. rec may be nil.
func NewService(col *collector.Collector, rec recorder.Recorder, m *metrics.Metrics) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Service{Collector: col, Recorder: rec, Metrics: m, Now: time.Now}
}

// Calculate runs one hedge calculation. On error no partial result is returned.
func (s *Service) Calculate(ctx context.Context, req Request) (*model.HedgeResult, error) {
	res, err := s.calculate(ctx, &req)
	s.Metrics.ObserveCalculation(Outcome(err))
	s.record(&req, res, err)
	if err != nil {
		log.Warn().Err(err).Str("spot", req.SpotSymbol).Str("futures", req.FuturesSymbol).Msg("hedge calculation failed")
		return nil, err
	}
	s.Metrics.SetHedgeRatio(res.SpotSymbol, res.FuturesSymbol, res.Estimate.HedgeRatio)
	log.Info().
		Str("spot", res.SpotSymbol).
		Str("futures", res.FuturesSymbol).
		Int("observations", res.Estimate.Observations).
		Float64("hedge_ratio", res.Estimate.HedgeRatio).
		Msg("hedge calculation done")
	return res, nil
}

func (s *Service) calculate(ctx context.Context, req *Request) (*model.HedgeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	spot, futures, err := s.Collector.CollectPair(ctx, req.SpotSymbol, req.FuturesSymbol, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	returns, err := calculator.CalculateReturns(spot.Points, futures.Points)
	if err != nil {
		return nil, fmt.Errorf("%s vs %s: %w", req.SpotSymbol, req.FuturesSymbol, err)
	}
	est, err := calculator.EstimateHedge(returns)
	if err != nil {
		return nil, fmt.Errorf("%s vs %s: %w", req.SpotSymbol, req.FuturesSymbol, err)
	}
	contracts, err := calculator.SizeContracts(est.HedgeRatio, req.Contract)
	if err != nil {
		return nil, err
	}

	return &model.HedgeResult{
		SpotSymbol:    req.SpotSymbol,
		FuturesSymbol: req.FuturesSymbol,
		Start:         req.Start,
		End:           req.End,
		Estimate:      *est,
		Contracts:     contracts,
		Returns:       *returns,
		ComputedAt:    s.Now(),
	}, nil
}

func (s *Service) record(req *Request, res *model.HedgeResult, calcErr error) {
	run := &recorder.RunRecord{
		RecordedAt:    s.Now(),
		Source:        s.Collector.Fetcher.Name(),
		SpotSymbol:    req.SpotSymbol,
		FuturesSymbol: req.FuturesSymbol,
		Start:         req.Start,
		End:           req.End,
	}
	if calcErr != nil {
		run.Error = UserMessage(calcErr)
	} else {
		e := res.Estimate
		run.Observations = e.Observations
		run.Correlation = e.Correlation
		run.SigmaSpot = e.SigmaSpot
		run.SigmaFutures = e.SigmaFutures
		run.HedgeRatio = e.HedgeRatio
		if res.Contracts != nil {
			n := res.Contracts.Contracts
			run.Contracts = &n
		}
	}
	if err := s.Recorder.RecordRun(run); err != nil {
		log.Error().Err(err).Msg("record run")
	}
}

// Outcome classifies err for metrics labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, collector.ErrTickerNotFound):
		return "ticker_not_found"
	case errors.Is(err, calculator.ErrEmptyData):
		return "empty_data"
	case errors.Is(err, calculator.ErrDegenerateSeries):
		return "degenerate_series"
	case errors.Is(err, calculator.ErrInvalidContractParameters):
		return "invalid_contract_parameters"
	default:
		return "error"
	}
}

// UserMessage turns any calculation failure into one human-readable line.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch Outcome(err) {
	case "invalid_request":
		return fmt.Sprintf("Invalid input: %v.", err)
	case "ticker_not_found":
		return fmt.Sprintf("No data found (%v). Check spelling or date range.", err)
	case "empty_data":
		return fmt.Sprintf("Not enough overlapping prices to compute returns (%v). Widen the date range.", err)
	case "degenerate_series":
		return fmt.Sprintf("A price series never changes in this range, so the correlation and hedge ratio are undefined (%v).", err)
	case "invalid_contract_parameters":
		return fmt.Sprintf("Contract inputs must be finite, with futures price and contract size positive, to compute N* (%v).", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
