package model

import "time"

// ReturnRow is one date present in both series, with the percentage change
// of each price since the previous shared date.
type ReturnRow struct {
	Date          time.Time `json:"date"`
	Spot          float64   `json:"spot"`
	Futures       float64   `json:"futures"`
	SpotReturn    float64   `json:"r_s"`
	FuturesReturn float64   `json:"r_f"`
}

// AlignedReturns holds index-aligned spot and futures returns.
type AlignedReturns struct {
	Rows []ReturnRow `json:"rows"`
}

func (a *AlignedReturns) Len() int { return len(a.Rows) }

// SpotReturns returns rS in date order.
func (a *AlignedReturns) SpotReturns() []float64 {
	out := make([]float64, len(a.Rows))
	for i, r := range a.Rows {
		out[i] = r.SpotReturn
	}
	return out
}

// FuturesReturns returns rF in date order.
func (a *AlignedReturns) FuturesReturns() []float64 {
	out := make([]float64, len(a.Rows))
	for i, r := range a.Rows {
		out[i] = r.FuturesReturn
	}
	return out
}

// Tail returns the last n rows (all rows if fewer).
func (a *AlignedReturns) Tail(n int) []ReturnRow {
	if n <= 0 || n >= len(a.Rows) {
		return a.Rows
	}
	return a.Rows[len(a.Rows)-n:]
}

// HedgeEstimate is the minimum-variance hedge estimate over an aligned return series.
type HedgeEstimate struct {
	Correlation  float64 `json:"correlation"`
	SigmaSpot    float64 `json:"sigma_spot"`
	SigmaFutures float64 `json:"sigma_futures"`
	HedgeRatio   float64 `json:"hedge_ratio"`
	Observations int     `json:"observations"`
}

// ContractInputs are the optional contract sizing parameters. A nil field
// means the value was not supplied.
type ContractInputs struct {
	PositionValue *float64 `json:"position_value,omitempty"`
	FuturesPrice  *float64 `json:"futures_price,omitempty"`
	ContractSize  *float64 `json:"contract_size,omitempty"`
}

// Complete reports whether all three inputs were supplied.
func (c ContractInputs) Complete() bool {
	return c.PositionValue != nil && c.FuturesPrice != nil && c.ContractSize != nil
}

// ContractRecommendation is the optimal number of futures contracts N*.
type ContractRecommendation struct {
	FuturesContractValue float64 `json:"futures_contract_value"`
	Contracts            float64 `json:"contracts"`
}

// HedgeResult bundles everything a presenter needs.
type HedgeResult struct {
	SpotSymbol    string                  `json:"spot_symbol"`
	FuturesSymbol string                  `json:"futures_symbol"`
	Start         time.Time               `json:"start"`
	End           time.Time               `json:"end"`
	Estimate      HedgeEstimate           `json:"estimate"`
	Contracts     *ContractRecommendation `json:"contracts,omitempty"`
	Returns       AlignedReturns          `json:"returns"`
	ComputedAt    time.Time               `json:"computed_at"`
}

// Float returns a pointer to v, for building ContractInputs.
func Float(v float64) *float64 { return &v }
