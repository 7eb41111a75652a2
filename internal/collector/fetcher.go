package collector

import (
	"context"
	"errors"
	"time"

	"HedgeRatio/internal/model"
)

// ErrTickerNotFound means the provider returned no data for a symbol and date range.
var ErrTickerNotFound = errors.New("no data found for ticker")

// Fetcher defines the interface for fetching daily price history.
// Returned points are ordered by date; end is exclusive.
type Fetcher interface {
	FetchPrices(ctx context.Context, symbol string, start, end time.Time) ([]model.PricePoint, error)
	Name() string
}

// tradingDay truncates a unix timestamp to its calendar date at the given UTC offset.
func tradingDay(ts int64, gmtOffset int64) time.Time {
	t := time.Unix(ts+gmtOffset, 0).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
