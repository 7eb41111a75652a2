package hedge

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"HedgeRatio/internal/model"
)

// DateLayout is the input format for start and end dates.
const DateLayout = "2006-01-02"

// ErrInvalidRequest means the caller supplied unusable inputs.
var ErrInvalidRequest = errors.New("invalid request")

// Request is one hedge calculation.
type Request struct {
	SpotSymbol    string
	FuturesSymbol string
	Start         time.Time
	End           time.Time
	Contract      model.ContractInputs
}

// Validate checks the inputs the calculation cannot run without. Start < End is
// not enforced; an empty range surfaces as a missing ticker.
func (r *Request) Validate() error {
	r.SpotSymbol = strings.TrimSpace(r.SpotSymbol)
	r.FuturesSymbol = strings.TrimSpace(r.FuturesSymbol)
	if r.SpotSymbol == "" {
		return fmt.Errorf("%w: spot ticker is required", ErrInvalidRequest)
	}
	if r.FuturesSymbol == "" {
		return fmt.Errorf("%w: futures ticker is required", ErrInvalidRequest)
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidRequest)
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidRequest, s)
	}
	return t, nil
}

// ParseOptionalFloat parses a form value; blank means absent.
func ParseOptionalFloat(name, s string) (*float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q is not a number", ErrInvalidRequest, name, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %s %q must be a finite number", ErrInvalidRequest, name, s)
	}
	return &v, nil
}
