package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HedgeRatio/internal/collector"
	"HedgeRatio/internal/hedge"
	"HedgeRatio/internal/metrics"
	"HedgeRatio/internal/model"
	"HedgeRatio/internal/recorder"
)

func init() { gin.SetMode(gin.TestMode) }

func series(start time.Time, prices ...float64) []model.PricePoint {
	out := make([]model.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = model.PricePoint{Date: start.AddDate(0, 0, i), Price: p}
	}
	return out
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	fetcher := collector.NewMockFetcher(map[string][]model.PricePoint{
		"S":    series(d, 100, 101.5, 99.8, 102.3, 103.1, 101.7),
		"F":    series(d, 80, 80.9, 79.5, 81.6, 81.9, 81.0),
		"FLAT": series(d, 5, 5, 5, 5, 5, 5),
	})
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	m := metrics.New()
	svc := hedge.NewService(collector.NewCollector(fetcher, m), rec, m)
	return New(svc, rec, m).Handler()
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

const window = "&start=2024-01-01&end=2024-12-31"

func TestHedgeEndpoint(t *testing.T) {
	h := newTestServer(t)
	w := get(h, "/api/v1/hedge?spot=S&futures=F"+window+"&position_value=1,000,000&futures_price=80&contract_size=1000")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Estimate  model.HedgeEstimate           `json:"estimate"`
		Contracts *model.ContractRecommendation `json:"contracts"`
		Recent    []model.ReturnRow             `json:"recent"`
		Returns   []model.ReturnRow             `json:"returns"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 5, body.Estimate.Observations)
	assert.Len(t, body.Returns, 5)
	assert.Len(t, body.Recent, 5)
	require.NotNil(t, body.Contracts)
	assert.InDelta(t, body.Estimate.HedgeRatio*1_000_000/80_000, body.Contracts.Contracts, 1e-9)
	assert.InDelta(t, 80_000, body.Contracts.FuturesContractValue, 1e-9)
}

func TestHedgeEndpoint_OptionalInputsOmitted(t *testing.T) {
	h := newTestServer(t)
	w := get(h, "/api/v1/hedge?spot=S&futures=F"+window+"&position_value=1000000&contract_size=1000")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"contracts":null`)
}

func TestHedgeEndpoint_Errors(t *testing.T) {
	h := newTestServer(t)
	tests := []struct {
		query  string
		status int
		text   string
	}{
		{"spot=S&futures=NOPE" + window, http.StatusNotFound, "Check spelling or date range"},
		{"spot=S&futures=FLAT" + window, http.StatusUnprocessableEntity, "never changes"},
		{"spot=S&futures=F&start=yesterday", http.StatusBadRequest, "YYYY-MM-DD"},
		{"spot=S&futures=F" + window + "&position_value=1&futures_price=0&contract_size=10", http.StatusUnprocessableEntity, "contract size positive"},
		{"spot=S&futures=F" + window + "&contract_size=abc", http.StatusBadRequest, "not a number"},
		{"spot=S&futures=F" + window + "&position_value=NaN&futures_price=80&contract_size=1000", http.StatusBadRequest, "must be a finite number"},
		{"spot=S&futures=F" + window + "&futures_price=Inf", http.StatusBadRequest, "must be a finite number"},
		{"spot=%20&futures=F" + window, http.StatusBadRequest, "spot ticker is required"},
	}
	for _, tt := range tests {
		w := get(h, "/api/v1/hedge?"+tt.query)
		assert.Equal(t, tt.status, w.Code, tt.query)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Contains(t, body["error"], tt.text, tt.query)
	}
}

func TestPlotEndpoint(t *testing.T) {
	h := newTestServer(t)
	w := get(h, "/api/v1/hedge/plot.svg?spot=S&futures=F"+window)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "<svg"))
}

func TestRunsAndMetricsEndpoints(t *testing.T) {
	h := newTestServer(t)
	get(h, "/api/v1/hedge?spot=S&futures=F"+window)
	get(h, "/api/v1/hedge?spot=S&futures=NOPE"+window)

	w := get(h, "/api/v1/runs?limit=10")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Runs []recorder.RunRecord `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Runs, 2)

	assert.Equal(t, http.StatusBadRequest, get(h, "/api/v1/runs?limit=-1").Code)

	w = get(h, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `hedgeratio_calculations_total{outcome="ok"} 1`)
	assert.Contains(t, w.Body.String(), `hedgeratio_calculations_total{outcome="ticker_not_found"} 1`)

	assert.Equal(t, http.StatusOK, get(h, "/healthz").Code)
}

type slowCalculator struct{}

func (slowCalculator) Calculate(ctx context.Context, _ hedge.Request) (*model.HedgeResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestHedgeEndpoint_Cancelled(t *testing.T) {
	h := New(slowCalculator{}, nil, nil).Handler()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/hedge", nil).WithContext(ctx))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}
