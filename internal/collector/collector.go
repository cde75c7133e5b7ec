package collector

import (
	"context"
	"fmt"
	"time"

	"StockSentinel/internal/marketclock"
	"StockSentinel/internal/model"
)

// Result describes what one collection did. It is returned even when the
// collection fails, so callers can tell which path was taken.
type Result struct {
	Symbol string
	// MarketClosed is set when the market clock said closed or the quote was stale.
	MarketClosed bool
	// Backfill means Observations replace the buffer instead of extending it.
	Backfill     bool
	Quote        *model.QuoteSnapshot
	Observations []model.Observation
}

// Collector runs the fetch decision for one polling cycle.
type Collector struct {
	Quotes   QuoteFetcher
	Intraday IntradayFetcher
	Exchange *marketclock.Exchange
}

// NewCollector creates a Collector serving both requests from fetcher.
func NewCollector(fetcher Fetcher, exchange *marketclock.Exchange) *Collector {
	return &Collector{Quotes: fetcher, Intraday: fetcher, Exchange: exchange}
}

// Collect fetches data for symbol as of now. A closed market, or an open market
// whose quote is from an earlier trading day, falls back to the intraday series.
func (c *Collector) Collect(ctx context.Context, symbol string, now time.Time) (*Result, error) {
	res := &Result{Symbol: symbol}

	if !c.Exchange.IsOpen(now) {
		res.MarketClosed = true
		return res, c.backfill(ctx, res)
	}

	quote, err := c.Quotes.FetchQuote(ctx, symbol)
	if err != nil {
		return res, fmt.Errorf("fetch quote: %w", err)
	}
	res.Quote = quote

	if c.Exchange.IsStale(quote.LatestTradingDay, now) {
		res.MarketClosed = true
		return res, c.backfill(ctx, res)
	}

	obs := quote.Observation(now)
	obs.Symbol = symbol
	res.Observations = []model.Observation{obs}
	return res, nil
}

func (c *Collector) backfill(ctx context.Context, res *Result) error {
	obs, err := c.Intraday.FetchIntraday(ctx, res.Symbol)
	if err != nil {
		return fmt.Errorf("fetch intraday: %w", err)
	}
	res.Backfill = true
	res.Observations = obs
	return nil
}
