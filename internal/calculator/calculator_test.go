package calculator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSentinel/internal/model"
)

func series(values ...string) []model.Observation {
	start := time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)
	out := make([]model.Observation, len(values))
	for i, v := range values {
		out[i] = model.Observation{Time: start.Add(time.Duration(i) * time.Minute), Price: decimal.RequireFromString(v), Symbol: "DIA"}
	}
	return out
}

func TestSMA(t *testing.T) {
	prices := []decimal.Decimal{
		decimal.NewFromInt(1), decimal.NewFromInt(2), decimal.NewFromInt(3), decimal.NewFromInt(4),
	}

	got, err := SMA(prices, 2)
	require.NoError(t, err)
	assert.Equal(t, "3.5", got.String())

	_, err = SMA(prices, 5)
	assert.Error(t, err)

	_, err = SMA(prices, 0)
	assert.Error(t, err)
}

func TestObservationSMA_ShortSeries(t *testing.T) {
	got, err := ObservationSMA(series("390", "391", "392"), 20)
	require.NoError(t, err)
	assert.Equal(t, "391", got.String())

	_, err = ObservationSMA(nil, 20)
	assert.Error(t, err)
}

func TestPriceRange(t *testing.T) {
	high, low, err := PriceRange(series("390.5", "392.25", "389.75", "391"))
	require.NoError(t, err)
	assert.Equal(t, "392.25", high.String())
	assert.Equal(t, "389.75", low.String())

	_, _, err = PriceRange(nil)
	assert.Error(t, err)
}

func TestPosition(t *testing.T) {
	d := decimal.RequireFromString
	tests := []struct {
		name            string
		current, hi, lo string
		want            float64
		wantErr         bool
	}{
		{"middle", "15", "20", "10", 0.5, false},
		{"at low", "10", "20", "10", 0, false},
		{"above high clamps", "25", "20", "10", 1, false},
		{"below low clamps", "5", "20", "10", 0, false},
		{"flat", "10", "10", "10", 0.5, false},
		{"inverted", "10", "10", "20", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Position(d(tt.current), d(tt.hi), d(tt.lo))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
