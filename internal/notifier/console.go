package notifier

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"StockSentinel/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	symbolStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	gainStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Console renders events and command replies on a terminal.
type Console struct {
	mu         sync.Mutex
	out        io.Writer
	now        func() time.Time
	ChartWidth int
}

// NewConsole creates a console writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out, now: time.Now, ChartWidth: DefaultChartWidth}
}

// Send writes text as one block.
func (c *Console) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintln(c.out, text); err != nil {
		return fmt.Errorf("write console: %w", err)
	}
	return nil
}

// Render draws one controller event.
func (c *Console) Render(ev model.Event) error {
	now := c.now()
	switch ev.Kind {
	case model.EventDataUpdated:
		return c.Send(c.renderUpdate(ev, now))
	case model.EventRateLimited:
		return c.Send(warnStyle.Render(FormatNotice(ev, now)))
	case model.EventFetchFailed:
		return c.Send(errorStyle.Render(FormatNotice(ev, now)))
	default:
		return c.Send(dimStyle.Render(FormatNotice(ev, now)))
	}
}

func (c *Console) renderUpdate(ev model.Event, now time.Time) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(" "+FormatNotice(ev, now)+" ") + "\n")
	if ev.Quote != nil {
		b.WriteString(symbolStyle.Render(FormatInfo(ev.Quote)) + "\n")
		summary := FormatQuote(ev.Quote, ev.At)
		if ev.Quote.Change.IsNegative() {
			summary = lossStyle.Render(summary)
		} else {
			summary = gainStyle.Render(summary)
		}
		b.WriteString(summary + "\n")
	}
	st := model.Status{Symbol: ev.Symbol, Origin: ev.Origin, Observations: ev.Observations}
	b.WriteString(FormatChart(st, c.ChartWidth))
	return b.String()
}

// Run renders events until ctx is cancelled or events is closed.
func (c *Console) Run(ctx context.Context, events <-chan model.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := c.Render(ev); err != nil {
				return
			}
		}
	}
}
