package calculator

import (
	"fmt"
	"math"
	"sort"
	"time"

	"HedgeRatio/internal/model"
)

// CalculateReturns inner-joins spot and futures prices by date and computes
// the percentage change of each series between consecutive shared dates.
// A date repeated within one series keeps its last finite price.
func CalculateReturns(spot, futures []model.PricePoint) (*model.AlignedReturns, error) {
	spotByDate, dates := byDate(spot)
	futuresByDate, _ := byDate(futures)

	type joined struct {
		date          time.Time
		spot, futures float64
	}
	rows := make([]joined, 0, len(dates))
	for _, d := range dates {
		f, ok := futuresByDate[d]
		if !ok {
			continue
		}
		rows = append(rows, joined{date: d, spot: spotByDate[d], futures: f})
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %d shared dates", ErrEmptyData, len(rows))
	}

	out := &model.AlignedReturns{Rows: make([]model.ReturnRow, 0, len(rows)-1)}
	for i := 1; i < len(rows); i++ {
		rs := percentChange(rows[i-1].spot, rows[i].spot)
		rf := percentChange(rows[i-1].futures, rows[i].futures)
		if !isFinite(rs) || !isFinite(rf) {
			continue
		}
		out.Rows = append(out.Rows, model.ReturnRow{
			Date:          rows[i].date,
			Spot:          rows[i].spot,
			Futures:       rows[i].futures,
			SpotReturn:    rs,
			FuturesReturn: rf,
		})
	}
	if out.Len() < 2 {
		return nil, fmt.Errorf("%w: %d return rows", ErrEmptyData, out.Len())
	}
	return out, nil
}

// percentChange returns NaN or ±Inf when prev is zero; callers drop those rows.
func percentChange(prev, cur float64) float64 {
	return (cur - prev) / prev * 100
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// byDate indexes finite prices by date, last one winning, and returns the
// distinct dates in ascending order.
func byDate(points []model.PricePoint) (map[time.Time]float64, []time.Time) {
	prices := make(map[time.Time]float64, len(points))
	dates := make([]time.Time, 0, len(points))
	for _, p := range points {
		if !isFinite(p.Price) {
			continue
		}
		if _, seen := prices[p.Date]; !seen {
			dates = append(dates, p.Date)
		}
		prices[p.Date] = p.Price
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return prices, dates
}
