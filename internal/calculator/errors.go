package calculator

import "errors"

var (
	// ErrEmptyData means fewer than two aligned return rows survived the join.
	ErrEmptyData = errors.New("not enough overlapping data")
	// ErrDegenerateSeries means one of the return series has zero volatility,
	// leaving the correlation (and, for futures, the ratio) undefined.
	ErrDegenerateSeries = errors.New("zero volatility")
	// ErrInvalidContractParameters means the futures contract value is zero or negative.
	ErrInvalidContractParameters = errors.New("invalid contract parameters")
)
