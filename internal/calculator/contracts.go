package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"HedgeRatio/internal/model"
)

// SizeContracts computes N* = h*V_A / (F_price*contract_size).
// Returns (nil, nil) when any input was not supplied.
func SizeContracts(hedgeRatio float64, in model.ContractInputs) (*model.ContractRecommendation, error) {
	if !in.Complete() {
		return nil, nil
	}
	if !isFinite(hedgeRatio) || !isFinite(*in.PositionValue) || !isFinite(*in.FuturesPrice) || !isFinite(*in.ContractSize) {
		return nil, fmt.Errorf("%w: position value %v, futures price %v, contract size %v must be finite",
			ErrInvalidContractParameters, *in.PositionValue, *in.FuturesPrice, *in.ContractSize)
	}
	price := decimal.NewFromFloat(*in.FuturesPrice)
	size := decimal.NewFromFloat(*in.ContractSize)
	if price.Sign() <= 0 || size.Sign() <= 0 {
		return nil, fmt.Errorf("%w: futures price %s, contract size %s", ErrInvalidContractParameters, price, size)
	}

	contractValue := price.Mul(size)
	n := decimal.NewFromFloat(hedgeRatio).
		Mul(decimal.NewFromFloat(*in.PositionValue)).
		Div(contractValue)

	return &model.ContractRecommendation{
		FuturesContractValue: contractValue.InexactFloat64(),
		Contracts:            n.InexactFloat64(),
	}, nil
}
