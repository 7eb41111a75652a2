package collector

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"HedgeRatio/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu     sync.Mutex
	Series map[string][]model.PricePoint
	Err    error
	Calls  []string
}

// NewMockFetcher creates a MockFetcher serving the given series by symbol.
func NewMockFetcher(series map[string][]model.PricePoint) *MockFetcher {
	return &MockFetcher{Series: series}
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchPrices(_ context.Context, symbol string, start, end time.Time) ([]model.PricePoint, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, symbol)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	var out []model.PricePoint
	for _, p := range m.Series[symbol] {
		if !start.IsZero() && p.Date.Before(start) {
			continue
		}
		if !end.IsZero() && !p.Date.Before(end) {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// GenerateMockSeries builds a deterministic daily series for demos. The
// series oscillates around basePrice with the given amplitude (as a fraction).
func GenerateMockSeries(start time.Time, days int, basePrice, amplitude float64, phase int) []model.PricePoint {
	pts := make([]model.PricePoint, 0, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		wave := float64((i+phase)%7-3) / 3
		trend := 1 + float64(i)*0.0005
		pts = append(pts, model.PricePoint{
			Date:  time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
			Price: basePrice * trend * (1 + amplitude*wave),
		})
	}
	return pts
}
