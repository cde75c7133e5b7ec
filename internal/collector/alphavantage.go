package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"StockSentinel/internal/model"
)

const (
	DefaultBaseURL = "https://www.alphavantage.co"

	intradayInterval   = "5min"
	intradaySeriesKey  = "Time Series (5min)"
	intradayTimeLayout = "2006-01-02 15:04:05"
	tradingDayLayout   = "2006-01-02"

	// A compact intraday series is well under 100KB.
	maxBodyBytes = 4 << 20
)

// AlphaVantageFetcher implements Fetcher using the Alpha Vantage query API.
type AlphaVantageFetcher struct {
	baseURL    string
	apiKey     string
	httpClient HTTPClient
	location   *time.Location
}

// AlphaVantageOption configures an AlphaVantageFetcher.
type AlphaVantageOption func(*AlphaVantageFetcher)

// WithBaseURL overrides the provider host.
func WithBaseURL(baseURL string) AlphaVantageOption {
	return func(f *AlphaVantageFetcher) {
		f.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c HTTPClient) AlphaVantageOption {
	return func(f *AlphaVantageFetcher) {
		f.httpClient = c
	}
}

// WithLocation sets the exchange zone used to read naive provider timestamps.
func WithLocation(loc *time.Location) AlphaVantageOption {
	return func(f *AlphaVantageFetcher) {
		f.location = loc
	}
}

// NewAlphaVantageFetcher creates a fetcher authenticating with apiKey.
func NewAlphaVantageFetcher(apiKey string, opts ...AlphaVantageOption) *AlphaVantageFetcher {
	f := &AlphaVantageFetcher{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		location:   time.UTC,
	}
	if loc, err := time.LoadLocation("America/New_York"); err == nil {
		f.location = loc
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

// providerMessages are the free-text fields the provider returns instead of data.
type providerMessages struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

// throttled reports whether the body is the provider's call-frequency notice,
// which arrives with HTTP 200.
func (m providerMessages) throttled() bool {
	if m.Note != "" {
		return true
	}
	info := strings.ToLower(m.Information)
	return strings.Contains(info, "rate limit") || strings.Contains(info, "call frequency")
}

func (m providerMessages) text() string {
	switch {
	case m.ErrorMessage != "":
		return m.ErrorMessage
	case m.Note != "":
		return m.Note
	default:
		return m.Information
	}
}

type globalQuote struct {
	Symbol           string `json:"01. symbol"`
	Open             string `json:"02. open"`
	High             string `json:"03. high"`
	Low              string `json:"04. low"`
	Price            string `json:"05. price"`
	Volume           string `json:"06. volume"`
	LatestTradingDay string `json:"07. latest trading day"`
	PreviousClose    string `json:"08. previous close"`
	Change           string `json:"09. change"`
	ChangePercent    string `json:"10. change percent"`
}

type globalQuoteResponse struct {
	providerMessages
	Quote *globalQuote `json:"Global Quote"`
}

type intradayBar struct {
	Close json.RawMessage `json:"4. close"`
}

type intradayResponse struct {
	providerMessages
	Series map[string]json.RawMessage `json:"Time Series (5min)"`
}

// FetchQuote issues one GLOBAL_QUOTE request. The caller decides whether the
// quote's trading day is current.
func (f *AlphaVantageFetcher) FetchQuote(ctx context.Context, symbol string) (*model.QuoteSnapshot, error) {
	body, err := f.query(ctx, symbol, url.Values{"function": {"GLOBAL_QUOTE"}})
	if err != nil {
		return nil, err
	}

	var resp globalQuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newFetchError(ErrMalformedResponse, symbol, err)
	}
	if resp.throttled() {
		return nil, newFetchError(ErrRateLimited, symbol, errors.New(resp.text()))
	}
	if resp.ErrorMessage != "" || resp.Quote == nil || resp.Quote.Symbol == "" {
		var detail error
		if msg := resp.text(); msg != "" {
			detail = errors.New(msg)
		}
		return nil, newFetchError(ErrInvalidSymbolOrNoData, symbol, detail)
	}
	return f.parseQuote(symbol, resp.Quote)
}

func (f *AlphaVantageFetcher) parseQuote(requested string, q *globalQuote) (*model.QuoteSnapshot, error) {
	price, err := decimal.NewFromString(q.Price)
	if err != nil {
		return nil, newFetchError(ErrMalformedResponse, requested, fmt.Errorf("price %q: %w", q.Price, err))
	}
	day, err := time.ParseInLocation(tradingDayLayout, q.LatestTradingDay, f.location)
	if err != nil {
		return nil, newFetchError(ErrMalformedResponse, requested, fmt.Errorf("latest trading day %q: %w", q.LatestTradingDay, err))
	}
	volume, _ := strconv.ParseInt(q.Volume, 10, 64)

	exchange, tz := model.ListingFor(q.Symbol)
	return &model.QuoteSnapshot{
		Symbol:           q.Symbol,
		Price:            price,
		Open:             optionalDecimal(q.Open),
		High:             optionalDecimal(q.High),
		Low:              optionalDecimal(q.Low),
		PreviousClose:    optionalDecimal(q.PreviousClose),
		Change:           optionalDecimal(q.Change),
		ChangePercent:    q.ChangePercent,
		Volume:           volume,
		LatestTradingDay: day,
		Currency:         "USD",
		Exchange:         exchange,
		Timezone:         tz,
	}, nil
}

func optionalDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FetchIntraday issues one TIME_SERIES_INTRADAY request and returns the bars'
// closing prices oldest first. Bars that are not objects, have a missing or
// non-numeric close, or an unreadable timestamp are skipped.
func (f *AlphaVantageFetcher) FetchIntraday(ctx context.Context, symbol string) ([]model.Observation, error) {
	body, err := f.query(ctx, symbol, url.Values{
		"function":   {"TIME_SERIES_INTRADAY"},
		"interval":   {intradayInterval},
		"outputsize": {"compact"},
	})
	if err != nil {
		return nil, err
	}

	var resp intradayResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newFetchError(ErrMalformedResponse, symbol, err)
	}
	if resp.throttled() {
		return nil, newFetchError(ErrRateLimited, symbol, errors.New(resp.text()))
	}
	if len(resp.Series) == 0 {
		var detail error
		if msg := resp.text(); msg != "" {
			detail = errors.New(msg)
		}
		return nil, newFetchError(ErrNoData, symbol, detail)
	}

	obs := make([]model.Observation, 0, len(resp.Series))
	for stamp, raw := range resp.Series {
		ts, err := time.ParseInLocation(intradayTimeLayout, stamp, f.location)
		if err != nil {
			continue
		}
		var bar intradayBar
		if err := json.Unmarshal(raw, &bar); err != nil {
			continue
		}
		price, ok := parseClose(bar.Close)
		if !ok {
			continue
		}
		obs = append(obs, model.Observation{Time: ts, Price: price, Symbol: symbol})
	}
	if len(obs) == 0 {
		return nil, newFetchError(ErrNoData, symbol, fmt.Errorf("no readable bars in %s", intradaySeriesKey))
	}

	sort.Slice(obs, func(i, j int) bool { return obs[i].Time.Before(obs[j].Time) })
	return obs, nil
}

// parseClose accepts the close as a JSON string or bare number.
func parseClose(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero, false
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, false
		}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func (f *AlphaVantageFetcher) query(ctx context.Context, symbol string, params url.Values) ([]byte, error) {
	params.Set("symbol", symbol)
	params.Set("apikey", f.apiKey)
	endpoint := f.baseURL + "/query?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, newFetchError(ErrTransport, symbol, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, newFetchError(ErrTransport, symbol, redact(err, f.apiKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, newFetchError(ErrTransport, symbol, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, newFetchError(ErrRateLimited, symbol, fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newFetchError(ErrTransport, symbol, fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(body, 200)))
	}
	return body, nil
}

// redact strips the API key from transport errors, which embed the request URL.
func redact(err error, apiKey string) error {
	if apiKey == "" || !strings.Contains(err.Error(), apiKey) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), apiKey, "***"))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
