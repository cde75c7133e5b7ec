package collector

import (
	"context"

	"StockSentinel/internal/model"
)

// QuoteFetcher retrieves the current quote snapshot for a symbol.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*model.QuoteSnapshot, error)
}

// IntradayFetcher retrieves the recent 5-minute series for a symbol.
type IntradayFetcher interface {
	FetchIntraday(ctx context.Context, symbol string) ([]model.Observation, error)
}

// Fetcher defines a market data source serving both requests.
type Fetcher interface {
	QuoteFetcher
	IntradayFetcher
	Name() string
}
