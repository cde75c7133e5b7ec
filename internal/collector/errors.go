package collector

import (
	"errors"
	"fmt"
)

// Fetch error kinds. Match them with errors.Is.
var (
	ErrRateLimited           = errors.New("rate limited")
	ErrInvalidSymbolOrNoData = errors.New("invalid symbol or no data")
	ErrNoData                = errors.New("no data")
	ErrTransport             = errors.New("transport error")
	ErrMalformedResponse     = errors.New("malformed response")
)

// FetchError tags a failed request with its kind and the symbol it was issued for.
type FetchError struct {
	Kind   error
	Symbol string
	Err    error
}

func newFetchError(kind error, symbol string, err error) *FetchError {
	return &FetchError{Kind: kind, Symbol: symbol, Err: err}
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Symbol, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Symbol, e.Kind)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsRateLimited reports whether err was caused by provider throttling.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
