package collector

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"StockSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and offline runs.
type MockFetcher struct {
	Price        decimal.Decimal
	Location     *time.Location
	QuoteData    *model.QuoteSnapshot
	IntradayData []model.Observation

	mu   sync.Mutex
	step int64
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) now() time.Time {
	if m.Location != nil {
		return time.Now().In(m.Location)
	}
	return time.Now()
}

// FetchQuote returns QuoteData, or a quote dated today that wobbles around Price.
func (m *MockFetcher) FetchQuote(_ context.Context, symbol string) (*model.QuoteSnapshot, error) {
	if m.QuoteData != nil {
		q := *m.QuoteData
		return &q, nil
	}

	m.mu.Lock()
	m.step++
	step := m.step
	m.mu.Unlock()

	price := wobble(m.Price, step)
	exchange, tz := model.ListingFor(symbol)
	now := m.now()
	return &model.QuoteSnapshot{
		Symbol:           symbol,
		Price:            price,
		Open:             m.Price,
		High:             decimal.Max(price, m.Price),
		Low:              decimal.Min(price, m.Price),
		PreviousClose:    m.Price,
		Change:           price.Sub(m.Price),
		Volume:           1000000 + step,
		LatestTradingDay: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		Currency:         "USD",
		Exchange:         exchange,
		Timezone:         tz,
	}, nil
}

// FetchIntraday returns IntradayData, or 100 generated 5-minute bars ending now.
func (m *MockFetcher) FetchIntraday(_ context.Context, symbol string) ([]model.Observation, error) {
	if m.IntradayData != nil {
		out := make([]model.Observation, len(m.IntradayData))
		copy(out, m.IntradayData)
		return out, nil
	}
	return generateMockBars(m.Price, 100, symbol, m.now()), nil
}

func generateMockBars(basePrice decimal.Decimal, count int, symbol string, end time.Time) []model.Observation {
	end = end.Truncate(5 * time.Minute)
	bars := make([]model.Observation, count)
	for i := 0; i < count; i++ {
		bars[i] = model.Observation{
			Time:   end.Add(-time.Duration(count-1-i) * 5 * time.Minute),
			Price:  wobble(basePrice, int64(i)),
			Symbol: symbol,
		}
	}
	return bars
}

// wobble moves base by up to +/-0.5% in 0.1% steps, cycling every 10 steps.
func wobble(base decimal.Decimal, step int64) decimal.Decimal {
	offset := decimal.NewFromInt(step%10 - 5).Mul(decimal.RequireFromString("0.001"))
	return base.Mul(decimal.NewFromInt(1).Add(offset)).Round(2)
}
