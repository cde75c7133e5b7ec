package marketclock

import (
	"fmt"
	"time"
)

const (
	DefaultOpenHour   = 9
	DefaultCloseHour  = 16
	DefaultTimezone   = "America/New_York"
	DefaultStaleGrace = 30 * time.Minute
)

// IsMarketOpen reports whether the market is open at now, read in now's own zone:
// Monday through Friday with the hour in [9,16).
func IsMarketOpen(now time.Time) bool {
	return isOpen(now, DefaultOpenHour, DefaultCloseHour)
}

func isOpen(t time.Time, openHour, closeHour int) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	h := t.Hour()
	return h >= openHour && h < closeHour
}

// Exchange holds the trading hours of a market in its local timezone.
type Exchange struct {
	Location  *time.Location
	OpenHour  int
	CloseHour int
	// StaleGrace accepts a previous-day quote for this long after the open,
	// while the provider catches up on the new session.
	StaleGrace time.Duration
}

// NewExchange loads the timezone and returns an exchange with the given hours.
func NewExchange(timezone string, openHour, closeHour int, staleGrace time.Duration) (*Exchange, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	if openHour < 0 || closeHour > 24 || openHour >= closeHour {
		return nil, fmt.Errorf("invalid trading hours [%d,%d)", openHour, closeHour)
	}
	return &Exchange{Location: loc, OpenHour: openHour, CloseHour: closeHour, StaleGrace: staleGrace}, nil
}

// IsOpen converts t into the exchange zone and applies the trading-hours policy.
func (e *Exchange) IsOpen(t time.Time) bool {
	return isOpen(t.In(e.Location), e.OpenHour, e.CloseHour)
}

// Today returns midnight of t's calendar day in the exchange zone.
func (e *Exchange) Today(t time.Time) time.Time {
	local := t.In(e.Location)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.Location)
}

// IsStale reports whether a quote's latest trading day is behind the exchange-local
// date of now. Within StaleGrace after the open the previous trading day is
// still accepted.
func (e *Exchange) IsStale(latestTradingDay, now time.Time) bool {
	today := e.Today(now)
	y, m, d := latestTradingDay.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, e.Location)
	if !day.Before(today) {
		return false
	}
	if e.StaleGrace <= 0 || !day.Equal(previousWeekday(today)) {
		return true
	}
	open := today.Add(time.Duration(e.OpenHour) * time.Hour)
	local := now.In(e.Location)
	inGrace := !local.Before(open) && local.Before(open.Add(e.StaleGrace))
	return !inGrace
}

func previousWeekday(day time.Time) time.Time {
	prev := day.AddDate(0, 0, -1)
	for prev.Weekday() == time.Saturday || prev.Weekday() == time.Sunday {
		prev = prev.AddDate(0, 0, -1)
	}
	return prev
}

// Timer is the handle of a scheduled one-shot callback.
type Timer interface {
	Stop() bool
}

// Clock supplies the current time and one-shot timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct {
	loc *time.Location
}

// RealClock returns wall-clock time expressed in loc.
func RealClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return realClock{loc: loc}
}

func (c realClock) Now() time.Time { return time.Now().In(c.loc) }

func (c realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
