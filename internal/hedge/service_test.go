package hedge

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HedgeRatio/internal/calculator"
	"HedgeRatio/internal/collector"
	"HedgeRatio/internal/metrics"
	"HedgeRatio/internal/model"
	"HedgeRatio/internal/recorder"
)

var (
	start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
)

func pts(prices ...float64) []model.PricePoint {
	out := make([]model.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = model.PricePoint{Date: start.AddDate(0, 0, i+1), Price: p}
	}
	return out
}

func newService(t *testing.T, series map[string][]model.PricePoint) (*Service, *collector.MockFetcher, recorder.Recorder) {
	t.Helper()
	fetcher := collector.NewMockFetcher(series)
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })
	svc := NewService(collector.NewCollector(fetcher, metrics.New()), rec, metrics.New())
	svc.Now = func() time.Time { return end }
	return svc, fetcher, rec
}

func TestService_WorkedExample(t *testing.T) {
	svc, _, rec := newService(t, map[string][]model.PricePoint{
		"S": pts(100, 102, 101),
		"F": pts(50, 51, 50.5),
	})

	res, err := svc.Calculate(context.Background(), Request{SpotSymbol: " S ", FuturesSymbol: "F", Start: start, End: end})
	require.NoError(t, err)

	assert.Equal(t, "S", res.SpotSymbol)
	assert.InDelta(t, 1.0, res.Estimate.Correlation, 1e-9)
	assert.InDelta(t, 1.0, res.Estimate.HedgeRatio, 1e-9)
	assert.InDelta(t, res.Estimate.SigmaSpot, res.Estimate.SigmaFutures, 1e-9)
	assert.Nil(t, res.Contracts)
	require.Equal(t, 2, res.Returns.Len())
	assert.InDelta(t, 2.0, res.Returns.Rows[0].SpotReturn, 1e-9)
	assert.InDelta(t, -0.9804, res.Returns.Rows[1].FuturesReturn, 1e-4)
	assert.Equal(t, end, res.ComputedAt)

	runs, err := rec.RecentRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "mock", runs[0].Source)
	assert.Empty(t, runs[0].Error)
	assert.InDelta(t, 1.0, runs[0].HedgeRatio, 1e-9)
}

func TestService_ContractRecommendation(t *testing.T) {
	svc, _, _ := newService(t, map[string][]model.PricePoint{
		"S": pts(100, 101.5, 99.8, 102.3, 103.1),
		"F": pts(80, 80.9, 79.5, 81.6, 81.9),
	})
	req := Request{SpotSymbol: "S", FuturesSymbol: "F", Start: start, End: end,
		Contract: model.ContractInputs{
			PositionValue: model.Float(1_000_000),
			FuturesPrice:  model.Float(80),
			ContractSize:  model.Float(1000),
		}}

	res, err := svc.Calculate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res.Contracts)
	assert.InDelta(t, res.Estimate.HedgeRatio*1_000_000/80_000, res.Contracts.Contracts, 1e-9)

	req.Contract.PositionValue = model.Float(2_000_000)
	doubled, err := svc.Calculate(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 2*res.Contracts.Contracts, doubled.Contracts.Contracts, 1e-9)

	req.Contract.FuturesPrice = nil
	absent, err := svc.Calculate(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, absent.Contracts)
}

func TestService_Deterministic(t *testing.T) {
	svc, _, _ := newService(t, map[string][]model.PricePoint{
		"S": pts(100, 101.5, 99.8, 102.3, 103.1, 101.7),
		"F": pts(80, 80.9, 79.5, 81.6, 81.9, 81.0),
	})
	req := Request{SpotSymbol: "S", FuturesSymbol: "F", Start: start, End: end}
	a, err := svc.Calculate(context.Background(), req)
	require.NoError(t, err)
	b, err := svc.Calculate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, a.Estimate, b.Estimate)
	assert.GreaterOrEqual(t, a.Estimate.Correlation, -1.0)
	assert.LessOrEqual(t, a.Estimate.Correlation, 1.0)
}

func TestService_TickerNotFound(t *testing.T) {
	svc, fetcher, rec := newService(t, map[string][]model.PricePoint{"S": pts(100, 102, 101)})

	res, err := svc.Calculate(context.Background(), Request{SpotSymbol: "S", FuturesSymbol: "NOPE", Start: start, End: end})
	assert.Nil(t, res)
	require.ErrorIs(t, err, collector.ErrTickerNotFound)
	assert.Len(t, fetcher.Calls, 2)

	msg := UserMessage(err)
	assert.Contains(t, msg, "NOPE")
	assert.Contains(t, msg, "Check spelling or date range")

	runs, err := rec.RecentRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, msg, runs[0].Error)
	assert.Zero(t, runs[0].HedgeRatio)
}

func TestService_Errors(t *testing.T) {
	series := map[string][]model.PricePoint{
		"S":     pts(100, 102, 101, 103),
		"FLAT":  pts(50, 50, 50, 50),
		"SHORT": pts(1, 2),
		"F":     pts(50, 51, 50.5, 52),
	}
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"missing spot", Request{FuturesSymbol: "F", Start: start, End: end}, ErrInvalidRequest},
		{"missing dates", Request{SpotSymbol: "S", FuturesSymbol: "F"}, ErrInvalidRequest},
		{"constant futures", Request{SpotSymbol: "S", FuturesSymbol: "FLAT", Start: start, End: end}, calculator.ErrDegenerateSeries},
		{"too little overlap", Request{SpotSymbol: "S", FuturesSymbol: "SHORT", Start: start, End: end}, calculator.ErrEmptyData},
		{"zero contract size", Request{SpotSymbol: "S", FuturesSymbol: "F", Start: start, End: end,
			Contract: model.ContractInputs{PositionValue: model.Float(1), FuturesPrice: model.Float(80), ContractSize: model.Float(0)}},
			calculator.ErrInvalidContractParameters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newService(t, series)
			res, err := svc.Calculate(context.Background(), tt.req)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
			assert.NotEmpty(t, UserMessage(err))
		})
	}
}

func TestService_ProviderFailure(t *testing.T) {
	svc, fetcher, _ := newService(t, nil)
	fetcher.Err = errors.New("connection reset")

	_, err := svc.Calculate(context.Background(), Request{SpotSymbol: "S", FuturesSymbol: "F", Start: start, End: end})
	require.Error(t, err)
	assert.Equal(t, "error", Outcome(err))
	assert.Contains(t, UserMessage(err), "connection reset")
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "ticker_not_found", Outcome(fmt.Errorf("wrap: %w", collector.ErrTickerNotFound)))
	assert.Equal(t, "empty_data", Outcome(calculator.ErrEmptyData))
	assert.Equal(t, "", UserMessage(nil))
}

func TestParseHelpers(t *testing.T) {
	d, err := ParseDate("2020-01-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("01/01/2020")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	v, err := ParseOptionalFloat("V_A", "1,000,000")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 1_000_000.0, *v)

	v, err = ParseOptionalFloat("V_A", "  ")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ParseOptionalFloat("V_A", "lots")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	for _, s := range []string{"NaN", "Inf", "-inf", "+Infinity"} {
		_, err = ParseOptionalFloat("V_A", s)
		assert.ErrorIs(t, err, ErrInvalidRequest, s)
	}
}
