package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"StockSentinel/internal/model"
)

// SMA computes the simple moving average of the last period prices.
func SMA(prices []decimal.Decimal, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, errors.New("period must be positive")
	}
	if len(prices) < period {
		return decimal.Zero, errors.New("not enough data for SMA calculation")
	}
	sum := decimal.Sum(decimal.Zero, prices[len(prices)-period:]...)
	return sum.Div(decimal.NewFromInt(int64(period))), nil
}

// ObservationSMA averages the last period observation prices, or all of them
// when fewer are buffered.
func ObservationSMA(obs []model.Observation, period int) (decimal.Decimal, error) {
	if len(obs) == 0 {
		return decimal.Zero, errors.New("no observations provided")
	}
	if period > len(obs) {
		period = len(obs)
	}
	return SMA(prices(obs), period)
}

func prices(obs []model.Observation) []decimal.Decimal {
	out := make([]decimal.Decimal, len(obs))
	for i, o := range obs {
		out[i] = o.Price
	}
	return out
}
