package notifier

import (
	"fmt"
	"strings"
	"time"

	"StockSentinel/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// FormatQuote formats the quote summary shown next to the chart.
func FormatQuote(q *model.QuoteSnapshot, at time.Time) string {
	if q == nil {
		return "No quote yet"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s price: $%s", q.Symbol, q.Price.StringFixed(2)))
	if q.ChangePercent != "" {
		b.WriteString(fmt.Sprintf(" (%s %s)", signed(q.Change.StringFixed(2)), q.ChangePercent))
	}
	b.WriteString("\n")
	if pts, ok := q.ApproxIndexPoints(); ok {
		b.WriteString(fmt.Sprintf("Approx. DJIA: %s points\n", pts.String()))
	}
	b.WriteString(fmt.Sprintf("High: $%s | Low: $%s\n", q.High.StringFixed(2), q.Low.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Volume: %d\n", q.Volume))
	if !q.LatestTradingDay.IsZero() {
		b.WriteString(fmt.Sprintf("Latest trading day: %s\n", q.LatestTradingDay.Format("2006-01-02")))
	}
	b.WriteString(fmt.Sprintf("Updated: %s", at.Format(timeLayout)))
	return b.String()
}

func signed(s string) string {
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "+" + s
}

// FormatInfo formats the one-line listing details of a quote.
func FormatInfo(q *model.QuoteSnapshot) string {
	if q == nil {
		return ""
	}
	return fmt.Sprintf("%s | %s | %s | %s", q.Symbol, q.Currency, q.Exchange, q.Timezone)
}

// FormatNotice formats an event as the status line. now drives the rate-limit countdown.
func FormatNotice(ev model.Event, now time.Time) string {
	switch ev.Kind {
	case model.EventRateLimited:
		return fmt.Sprintf("%s: rate limited, resuming in %s", ev.Symbol, Countdown(ev.ResumeAt, now))
	case model.EventFetchFailed:
		return fmt.Sprintf("%s: fetch failed, retrying next cycle: %s", ev.Symbol, ev.Message)
	case model.EventMarketClosed:
		return fmt.Sprintf("%s: market closed, showing latest intraday data", ev.Symbol)
	case model.EventDataUpdated:
		if ev.Backfill {
			return fmt.Sprintf("%s: loaded %d intraday observations", ev.Symbol, len(ev.Observations))
		}
		return fmt.Sprintf("%s: %d observations", ev.Symbol, len(ev.Observations))
	default:
		return fmt.Sprintf("%s: %s", ev.Symbol, ev.Kind)
	}
}

// Countdown returns the whole seconds left until at, never negative.
func Countdown(at, now time.Time) time.Duration {
	left := at.Sub(now)
	if left <= 0 {
		return 0
	}
	return left.Round(time.Second)
}

// FormatStatus formats the controller status for the /status command.
func FormatStatus(st model.Status, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Tracking %s | state %s", st.Symbol, st.State))
	if !st.Running {
		b.WriteString(" | stopped")
	}
	if st.InFlight {
		b.WriteString(" | fetching")
	}
	b.WriteString(fmt.Sprintf("\nBuffered observations: %d\n", len(st.Observations)))
	if st.Latest != nil {
		b.WriteString(FormatInfo(st.Latest) + "\n")
		b.WriteString(FormatQuote(st.Latest, now) + "\n")
	}
	if st.LastNotice != nil {
		b.WriteString("Last notice: " + FormatNotice(*st.LastNotice, now))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatHelp lists the console commands.
func FormatHelp() string {
	return strings.Join([]string{
		"Commands:",
		"  <SYMBOL>      track a new symbol",
		"  /symbol <S>   same as above, no argument goes back to DIA",
		"  /start        resume polling",
		"  /stop         pause polling",
		"  /status       show polling state and latest quote",
		"  /chart        draw the buffered prices",
		"  /help         this text",
	}, "\n")
}
