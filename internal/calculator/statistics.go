package calculator

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"HedgeRatio/internal/model"
)

// minVolatility is the smallest futures std-dev treated as non-zero.
const minVolatility = 1e-12

// EstimateHedge computes the correlation, sample standard deviations and
// minimum-variance hedge ratio of an aligned return series.
func EstimateHedge(r *model.AlignedReturns) (*model.HedgeEstimate, error) {
	if r == nil || r.Len() < 2 {
		return nil, ErrEmptyData
	}
	rs, rf := r.SpotReturns(), r.FuturesReturns()

	sigmaS, err := stats.StandardDeviationSample(rs)
	if err != nil {
		return nil, fmt.Errorf("spot std-dev: %w", err)
	}
	sigmaF, err := stats.StandardDeviationSample(rf)
	if err != nil {
		return nil, fmt.Errorf("futures std-dev: %w", err)
	}
	if !isFinite(sigmaF) || sigmaF < minVolatility {
		return nil, fmt.Errorf("futures returns: %w over %d observations", ErrDegenerateSeries, r.Len())
	}
	// stats.Correlation reports 0 here, but 0/0 is undefined.
	if !isFinite(sigmaS) || sigmaS < minVolatility {
		return nil, fmt.Errorf("spot returns: %w over %d observations, correlation undefined", ErrDegenerateSeries, r.Len())
	}

	corr, err := stats.Correlation(rs, rf)
	if err != nil {
		return nil, fmt.Errorf("correlation: %w", err)
	}
	corr = math.Max(-1, math.Min(1, corr))

	return &model.HedgeEstimate{
		Correlation:  corr,
		SigmaSpot:    sigmaS,
		SigmaFutures: sigmaF,
		HedgeRatio:   corr * (sigmaS / sigmaF),
		Observations: r.Len(),
	}, nil
}
