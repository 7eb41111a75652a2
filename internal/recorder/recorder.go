package recorder

import "time"

// RunRecord is one hedge calculation, successful or not.
type RunRecord struct {
	ID            string    `json:"id"`
	RecordedAt    time.Time `json:"recorded_at"`
	Source        string    `json:"source"`
	SpotSymbol    string    `json:"spot_symbol"`
	FuturesSymbol string    `json:"futures_symbol"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Observations  int       `json:"observations"`
	Correlation   float64   `json:"correlation"`
	SigmaSpot     float64   `json:"sigma_spot"`
	SigmaFutures  float64   `json:"sigma_futures"`
	HedgeRatio    float64   `json:"hedge_ratio"`
	Contracts     *float64  `json:"contracts,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// Recorder persists calculation history for later review.
type Recorder interface {
	RecordRun(run *RunRecord) error
	RecentRuns(limit int) ([]RunRecord, error)
	Close() error
}
