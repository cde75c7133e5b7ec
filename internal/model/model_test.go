package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApproxIndexPoints(t *testing.T) {
	q := &QuoteSnapshot{Symbol: "DIA", Price: decimal.RequireFromString("390.476")}
	pts, ok := q.ApproxIndexPoints()
	assert.True(t, ok)
	assert.Equal(t, "39048", pts.String())

	q.Symbol = "SPY"
	_, ok = q.ApproxIndexPoints()
	assert.False(t, ok)
}

func TestListingFor(t *testing.T) {
	tests := []struct {
		symbol, exchange, timezone string
	}{
		{"DIA", "NYSE Arca", "America/New_York"},
		{"SPY", "NYSE Arca", "America/New_York"},
		{"QQQ", "NASDAQ", "America/New_York"},
		{"IBM", "NYSE", "America/New_York"},
		{"ZZZT", "unknown", "unknown"},
	}
	for _, tt := range tests {
		ex, tz := ListingFor(tt.symbol)
		assert.Equal(t, tt.exchange, ex, tt.symbol)
		assert.Equal(t, tt.timezone, tz, tt.symbol)
	}
}

func TestChartPoints(t *testing.T) {
	origin := time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)
	obs := []Observation{
		{Time: origin.Add(-5 * time.Minute), Price: decimal.RequireFromString("389.5"), Symbol: "DIA"},
		{Time: origin.Add(15 * time.Second), Price: decimal.RequireFromString("390.25"), Symbol: "DIA"},
		{Time: origin.Add(30 * time.Second), Price: decimal.RequireFromString("170"), Symbol: "IBM"},
	}

	points := ChartPoints(obs, origin, "DIA")

	assert.Equal(t, []ChartPoint{{Seconds: -300, Price: 389.5}, {Seconds: 15, Price: 390.25}}, points)
}

func TestQuoteObservation(t *testing.T) {
	at := time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)
	q := &QuoteSnapshot{Symbol: "IBM", Price: decimal.RequireFromString("170.1")}

	o := q.Observation(at)

	assert.Equal(t, "IBM", o.Symbol)
	assert.True(t, o.Time.Equal(at))
	assert.True(t, o.Price.Equal(q.Price))
}
