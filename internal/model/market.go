package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultSymbol is tracked when no symbol is given. DIA is the ETF proxy for the DJIA.
const DefaultSymbol = "DIA"

// Observation is a single timestamped price for a symbol.
type Observation struct {
	Time   time.Time       `json:"time"`
	Price  decimal.Decimal `json:"price"`
	Symbol string          `json:"symbol"`
}

// QuoteSnapshot is the most recent quote record for a symbol.
type QuoteSnapshot struct {
	Symbol           string          `json:"symbol"`
	Price            decimal.Decimal `json:"price"`
	Open             decimal.Decimal `json:"open"`
	High             decimal.Decimal `json:"high"`
	Low              decimal.Decimal `json:"low"`
	PreviousClose    decimal.Decimal `json:"previous_close"`
	Change           decimal.Decimal `json:"change"`
	ChangePercent    string          `json:"change_percent"`
	Volume           int64           `json:"volume"`
	LatestTradingDay time.Time       `json:"latest_trading_day"`
	Currency         string          `json:"currency"`
	Exchange         string          `json:"exchange"`
	Timezone         string          `json:"timezone"`
}

// Observation converts the quote into a buffer entry stamped at t.
func (q *QuoteSnapshot) Observation(t time.Time) Observation {
	return Observation{Time: t, Price: q.Price, Symbol: q.Symbol}
}

// ApproxIndexPoints estimates the DJIA level from a DIA price (one share ~ 1/100 of the index).
func (q *QuoteSnapshot) ApproxIndexPoints() (decimal.Decimal, bool) {
	if q.Symbol != "DIA" {
		return decimal.Zero, false
	}
	return q.Price.Mul(decimal.NewFromInt(100)).Round(0), true
}

type listing struct {
	exchange string
	timezone string
}

var knownListings = map[string]listing{
	"DIA": {"NYSE Arca", "America/New_York"},
	"SPY": {"NYSE Arca", "America/New_York"},
	"QQQ": {"NASDAQ", "America/New_York"},
	"IBM": {"NYSE", "America/New_York"},
}

// ListingFor returns the exchange and timezone for recognized symbols, "unknown" otherwise.
func ListingFor(symbol string) (exchange, timezone string) {
	if l, ok := knownListings[symbol]; ok {
		return l.exchange, l.timezone
	}
	return "unknown", "unknown"
}
