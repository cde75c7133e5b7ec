package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"StockSentinel/internal/model"
)

// PriceRange returns the highest and lowest observed price.
func PriceRange(obs []model.Observation) (high, low decimal.Decimal, err error) {
	if len(obs) == 0 {
		return decimal.Zero, decimal.Zero, errors.New("no observations provided")
	}
	high, low = obs[0].Price, obs[0].Price
	for _, o := range obs[1:] {
		high = decimal.Max(high, o.Price)
		low = decimal.Min(low, o.Price)
	}
	return high, low, nil
}

// Position returns where current sits within [low, high], clamped to 0.0~1.0.
// A flat range maps to the middle.
func Position(current, high, low decimal.Decimal) (float64, error) {
	if high.Equal(low) {
		return 0.5, nil
	}
	if high.LessThan(low) {
		return 0, errors.New("high must be >= low")
	}
	pos := current.Sub(low).Div(high.Sub(low)).InexactFloat64()
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
