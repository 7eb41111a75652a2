package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HedgeRatio/internal/model"
)

var (
	jan2 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	jan5 = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
)

func points(prices ...float64) []model.PricePoint {
	out := make([]model.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = model.PricePoint{Date: jan2.AddDate(0, 0, i), Price: p}
	}
	return out
}

const yahooBody = `{"chart":{"result":[{
  "meta":{"gmtoffset":-18000},
  "timestamp":[1704205800,1704292200,1704378600],
  "indicators":{
    "quote":[{"close":[100.0,101.0,102.0]}],
    "adjclose":[{"adjclose":[99.0,null,101.5]}]
  }}],"error":null}}`

func TestYahooFetcher_FetchPrices(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, yahooBody)
	}))
	defer srv.Close()

	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL

	pts, err := f.FetchPrices(context.Background(), "WTI", jan2, jan5)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/CL=F", gotPath)
	assert.Contains(t, gotQuery, "interval=1d")
	assert.Contains(t, gotQuery, fmt.Sprintf("period1=%d", jan2.Unix()))

	// Adjusted closes win; the null bar is skipped.
	require.Len(t, pts, 2)
	assert.Equal(t, model.PricePoint{Date: jan2, Price: 99.0}, pts[0])
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), pts[1].Date)
	assert.Equal(t, 101.5, pts[1].Price)
}

func TestYahooFetcher_FallsBackToClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{"gmtoffset":0},"timestamp":[1704153600,1704240000],
		  "indicators":{"quote":[{"close":[10.0,11.0]}]}}],"error":null}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL
	pts, err := f.FetchPrices(context.Background(), "XYZ", jan2, jan5)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, 10.0, pts[0].Price)
	assert.Equal(t, 11.0, pts[1].Price)
}

func TestYahooFetcher_NotFound(t *testing.T) {
	tests := map[string]struct {
		status int
		body   string
	}{
		"404":          {http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`},
		"empty result": {http.StatusOK, `{"chart":{"result":[],"error":null}}`},
		"no bars":      {http.StatusOK, `{"chart":{"result":[{"meta":{},"timestamp":[],"indicators":{"quote":[{}]}}],"error":null}}`},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			f := NewYahooFetcher("", time.Second)
			f.BaseURL = srv.URL
			_, err := f.FetchPrices(context.Background(), "NOPE", jan2, jan5)
			assert.ErrorIs(t, err, ErrTickerNotFound)
		})
	}
}

func TestYahooFetcher_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL
	_, err := f.FetchPrices(context.Background(), "PSX", jan2, jan5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTickerNotFound)
	assert.Contains(t, err.Error(), "status 503")
}

func TestVsTraderFetcher_FetchPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bars/daily", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "PSX", r.URL.Query().Get("symbol"))
		assert.Equal(t, "2024-01-02", r.URL.Query().Get("start"))
		// Deliberately out of order.
		fmt.Fprintf(w, `[{"timestamp":%d,"close":11,"adj_close":0},{"timestamp":%d,"close":10,"adj_close":9.5}]`,
			jan2.AddDate(0, 0, 1).Unix(), jan2.Unix())
	}))
	defer srv.Close()

	f := NewVsTraderFetcher(srv.URL, "secret", "", time.Second)
	pts, err := f.FetchPrices(context.Background(), "PSX", jan2, jan5)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, model.PricePoint{Date: jan2, Price: 9.5}, pts[0])
	assert.Equal(t, 11.0, pts[1].Price)
}

func TestVsTraderFetcher_EmptyIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	f := NewVsTraderFetcher(srv.URL, "", "", time.Second)
	_, err := f.FetchPrices(context.Background(), "PSX", jan2, jan5)
	assert.ErrorIs(t, err, ErrTickerNotFound)
}

func TestMockFetcher_FiltersRange(t *testing.T) {
	m := NewMockFetcher(map[string][]model.PricePoint{"A": points(1, 2, 3, 4, 5)})
	pts, err := m.FetchPrices(context.Background(), "A", jan2.AddDate(0, 0, 1), jan2.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, []model.PricePoint{points(1, 2, 3, 4, 5)[1], points(1, 2, 3, 4, 5)[2]}, pts)

	_, err = m.FetchPrices(context.Background(), "B", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrTickerNotFound)
}

func TestGenerateMockSeries_SkipsWeekends(t *testing.T) {
	pts := GenerateMockSeries(jan2, 14, 100, 0.02, 0)
	require.Len(t, pts, 10)
	for _, p := range pts {
		assert.NotEqual(t, time.Saturday, p.Date.Weekday())
		assert.NotEqual(t, time.Sunday, p.Date.Weekday())
		assert.Greater(t, p.Price, 0.0)
	}
}

func TestCollector_CollectPair(t *testing.T) {
	m := NewMockFetcher(map[string][]model.PricePoint{
		"PSX":  points(100, 102, 101),
		"CL=F": points(50, 51, 50.5),
	})
	c := NewCollector(m, nil)

	spot, futures, err := c.CollectPair(context.Background(), "PSX", "CL=F", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "PSX", spot.Symbol)
	assert.Equal(t, "CL=F", futures.Symbol)
	assert.Equal(t, 3, spot.Len())
	assert.ElementsMatch(t, []string{"PSX", "CL=F"}, m.Calls)
}

func TestCollector_CollectPair_TickerNotFound(t *testing.T) {
	m := NewMockFetcher(map[string][]model.PricePoint{"PSX": points(100, 102, 101)})
	c := NewCollector(m, nil)

	spot, futures, err := c.CollectPair(context.Background(), "PSX", "ZZZ", time.Time{}, time.Time{})
	require.ErrorIs(t, err, ErrTickerNotFound)
	assert.Contains(t, err.Error(), "ZZZ")
	assert.Nil(t, spot)
	assert.Nil(t, futures)
}

type emptyFetcher struct{}

func (emptyFetcher) Name() string { return "empty" }
func (emptyFetcher) FetchPrices(context.Context, string, time.Time, time.Time) ([]model.PricePoint, error) {
	return nil, nil
}

func TestCollector_EmptySeriesIsNotFound(t *testing.T) {
	_, err := NewCollector(emptyFetcher{}, nil).Collect(context.Background(), "PSX", jan2, jan5)
	assert.ErrorIs(t, err, ErrTickerNotFound)
}

type countingFetcher struct {
	calls atomic.Int32
	err   error
}

func (c *countingFetcher) Name() string { return "counting" }
func (c *countingFetcher) FetchPrices(context.Context, string, time.Time, time.Time) ([]model.PricePoint, error) {
	c.calls.Add(1)
	return nil, c.err
}

func TestGuardedFetcher_TripsOnOutage(t *testing.T) {
	inner := &countingFetcher{err: errors.New("connection refused")}
	g := NewGuardedFetcher(inner, GuardSettings{RatePerSecond: 1000, Burst: 100, ConsecutiveFailures: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := g.FetchPrices(context.Background(), "PSX", jan2, jan5)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, g.State())

	_, err := g.FetchPrices(context.Background(), "PSX", jan2, jan5)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.True(t, strings.Contains(err.Error(), "unavailable"))
	assert.Equal(t, int32(2), inner.calls.Load(), "open breaker must not reach the provider")
}

func TestGuardedFetcher_NotFoundDoesNotTrip(t *testing.T) {
	inner := &countingFetcher{err: fmt.Errorf("%w: NOPE", ErrTickerNotFound)}
	g := NewGuardedFetcher(inner, GuardSettings{RatePerSecond: 1000, Burst: 100, ConsecutiveFailures: 1})

	for i := 0; i < 3; i++ {
		_, err := g.FetchPrices(context.Background(), "NOPE", jan2, jan5)
		require.ErrorIs(t, err, ErrTickerNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, g.State())
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestGuardedFetcher_PassesThrough(t *testing.T) {
	m := NewMockFetcher(map[string][]model.PricePoint{"A": points(1, 2)})
	g := NewGuardedFetcher(m, GuardSettings{})
	assert.Equal(t, "mock", g.Name())
	pts, err := g.FetchPrices(context.Background(), "A", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, pts, 2)
}
