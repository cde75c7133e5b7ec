// Package poller implements the polling controller: the state machine that
// decides when to fetch, owns the observation buffer and reports every outcome
// as an event.
//
// All controller state lives on the goroutine running Run. Public methods hand
// work to that loop and wait for it, so the buffer has exactly one writer.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"StockSentinel/internal/buffer"
	"StockSentinel/internal/collector"
	"StockSentinel/internal/logging"
	"StockSentinel/internal/marketclock"
	"StockSentinel/internal/model"
)

const (
	DefaultCooldown     = 60 * time.Second
	DefaultFetchTimeout = 10 * time.Second
	DefaultEventBuffer  = 64
)

var (
	// ErrStopped is returned by commands sent after Run has returned.
	ErrStopped = errors.New("poller: controller stopped")
	// ErrInvalidSymbol rejects tickers the provider could never resolve.
	ErrInvalidSymbol = errors.New("poller: invalid symbol")
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,11}$`)

// Collector runs the fetch decision for one symbol.
type Collector interface {
	Collect(ctx context.Context, symbol string, now time.Time) (*collector.Result, error)
}

// Options tunes a Controller. Zero values take the defaults.
type Options struct {
	Symbol       string
	Capacity     int
	Cooldown     time.Duration
	FetchTimeout time.Duration
	EventBuffer  int
	Clock        marketclock.Clock
}

type fetchOutcome struct {
	id         string
	generation uint64
	symbol     string
	result     *collector.Result
	err        error
}

// Controller polls one symbol at a time. Create it with New and drive it with Run.
type Controller struct {
	collector Collector
	clock     marketclock.Clock
	cooldown  time.Duration
	timeout   time.Duration

	cmds    chan func()
	results chan fetchOutcome
	resumes chan uint64
	events  chan model.Event
	done    chan struct{}

	// Owned by the Run loop.
	ctx         context.Context
	buf         *buffer.ObservationBuffer
	symbol      string
	state       model.PollingState
	running     bool
	inFlight    bool
	pending     bool
	generation  uint64
	origin      time.Time
	resumeAt    time.Time
	resumeSeq   uint64
	resumeTimer marketclock.Timer
	latest      *model.QuoteSnapshot
	lastNotice  *model.Event
}

// New creates a stopped controller tracking opts.Symbol.
func New(c Collector, opts Options) (*Controller, error) {
	if c == nil {
		return nil, errors.New("poller: collector is required")
	}
	symbol, err := NormalizeSymbol(opts.Symbol)
	if err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = marketclock.RealClock(time.Local)
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}
	return &Controller{
		collector: c,
		clock:     opts.Clock,
		cooldown:  opts.Cooldown,
		timeout:   opts.FetchTimeout,
		cmds:      make(chan func()),
		results:   make(chan fetchOutcome),
		resumes:   make(chan uint64),
		events:    make(chan model.Event, opts.EventBuffer),
		done:      make(chan struct{}),
		buf:       buffer.New(opts.Capacity),
		symbol:    symbol,
		state:     model.StateActive,
		origin:    opts.Clock.Now(),
	}, nil
}

// NormalizeSymbol upper-cases and trims s. An empty symbol selects the default.
func NormalizeSymbol(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return model.DefaultSymbol, nil
	}
	if !symbolPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	return s, nil
}

// Events returns the channel every notice and update is published on.
func (c *Controller) Events() <-chan model.Event { return c.events }

// Run owns the controller state until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	c.ctx = ctx
	log.Printf("[INFO] poller running for %s", c.symbol)

	for {
		select {
		case <-ctx.Done():
			if c.resumeTimer != nil {
				c.resumeTimer.Stop()
			}
			log.Println("[INFO] poller stopped")
			return nil
		case fn := <-c.cmds:
			fn()
		case o := <-c.results:
			c.handleResult(o)
		case seq := <-c.resumes:
			c.resume(seq)
		}
	}
}

func (c *Controller) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case c.cmds <- func() { fn(); close(finished) }:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

// Tick is the periodic timer callback. It fetches only when the controller is
// running, Active and idle.
func (c *Controller) Tick(ctx context.Context) error {
	return c.do(ctx, c.tick)
}

// Start resumes periodic polling and fetches immediately.
func (c *Controller) Start(ctx context.Context) error {
	return c.do(ctx, func() {
		if c.running {
			return
		}
		c.running = true
		log.Printf("[INFO] polling started for %s", c.symbol)
		c.requestFetch()
	})
}

// Stop halts polling. A fetch already in flight still lands in the buffer.
func (c *Controller) Stop(ctx context.Context) error {
	return c.do(ctx, func() {
		if !c.running {
			return
		}
		c.running = false
		c.pending = false
		log.Printf("[INFO] polling stopped for %s", c.symbol)
	})
}

// ChangeSymbol switches the tracked symbol. When it returns the buffer is
// already empty and the chart origin reset. The first fetch for the new symbol
// starts at once, after the in-flight fetch resolves, or after a rate-limit
// pause ends.
func (c *Controller) ChangeSymbol(ctx context.Context, symbol string) (string, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return "", err
	}
	err = c.do(ctx, func() {
		prev := c.symbol
		c.symbol = symbol
		c.buf.Clear()
		c.origin = c.clock.Now()
		c.generation++
		c.latest = nil
		c.lastNotice = nil
		log.Printf("[INFO] tracking %s (was %s)", symbol, prev)
		c.requestFetch()
	})
	return symbol, err
}

// Snapshot returns the current status, including a copy of the buffer.
func (c *Controller) Snapshot(ctx context.Context) (model.Status, error) {
	var st model.Status
	err := c.do(ctx, func() {
		st = model.Status{
			Symbol:       c.symbol,
			State:        c.state,
			Running:      c.running,
			InFlight:     c.inFlight,
			Origin:       c.origin,
			ResumeAt:     c.resumeAt,
			Latest:       c.latest,
			LastNotice:   c.lastNotice,
			Observations: c.buf.Snapshot(),
		}
	})
	return st, err
}

func (c *Controller) tick() {
	switch {
	case !c.running:
		logging.Debugf("tick ignored, polling stopped")
	case c.state == model.StatePaused:
		logging.Debugf("tick skipped, paused until %s", c.resumeAt.Format(time.TimeOnly))
	case c.inFlight:
		log.Printf("[WARN] tick skipped, fetch for %s still in flight", c.symbol)
	default:
		c.startFetch()
	}
}

func (c *Controller) canFetch() bool {
	return c.running && c.state == model.StateActive && !c.inFlight
}

// requestFetch fetches now if possible, otherwise remembers to fetch as soon as
// the in-flight guard clears or the pause ends.
func (c *Controller) requestFetch() {
	if !c.running {
		return
	}
	if c.canFetch() {
		c.startFetch()
		return
	}
	c.pending = true
}

func (c *Controller) startFetch() {
	c.inFlight = true
	c.pending = false

	o := fetchOutcome{id: uuid.NewString(), generation: c.generation, symbol: c.symbol}
	now := c.clock.Now()
	ctx := c.ctx
	logging.Debugf("fetch %s started for %s", o.id, o.symbol)

	go func() {
		fctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		o.result, o.err = c.collector.Collect(fctx, o.symbol, now)
		select {
		case c.results <- o:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) handleResult(o fetchOutcome) {
	c.inFlight = false
	if o.generation != c.generation || o.symbol != c.symbol {
		log.Printf("[INFO] discarding fetch %s for %s, now tracking %s", o.id, o.symbol, c.symbol)
	} else {
		c.apply(o)
	}
	if c.pending && c.canFetch() {
		c.startFetch()
	}
}

func (c *Controller) apply(o fetchOutcome) {
	res := o.result
	if res == nil {
		res = &collector.Result{Symbol: o.symbol}
	}
	if res.Quote != nil {
		c.latest = res.Quote
	}
	if res.MarketClosed {
		c.notice(model.Event{Kind: model.EventMarketClosed, Message: "market closed, showing latest intraday data"})
	}

	switch {
	case o.err == nil:
		c.update(res)
	case collector.IsRateLimited(o.err):
		log.Printf("[WARN] fetch %s: %v", o.id, o.err)
		c.pause(o.err)
	default:
		log.Printf("[ERROR] fetch %s: %v", o.id, o.err)
		c.notice(model.Event{Kind: model.EventFetchFailed, Message: o.err.Error()})
	}
}

func (c *Controller) update(res *collector.Result) {
	if res.Backfill {
		c.buf.Replace(res.Observations)
	} else {
		for _, obs := range res.Observations {
			c.buf.Push(obs)
		}
		c.lastNotice = nil
	}
	if last, ok := c.buf.Last(); ok {
		logging.Debugf("%s buffer now %d/%d, last %s at %s", c.symbol, c.buf.Len(), c.buf.Cap(), last.Price, last.Time.Format(time.TimeOnly))
	}
	c.emit(model.Event{
		Kind:         model.EventDataUpdated,
		Symbol:       c.symbol,
		At:           c.clock.Now(),
		Observations: c.buf.Snapshot(),
		Added:        res.Observations,
		Backfill:     res.Backfill,
		Quote:        c.latest,
		Origin:       c.origin,
	})
}

func (c *Controller) pause(cause error) {
	if c.state == model.StatePaused {
		return
	}
	c.state = model.StatePaused
	c.resumeAt = c.clock.Now().Add(c.cooldown)
	c.resumeSeq++
	seq := c.resumeSeq
	c.resumeTimer = c.clock.AfterFunc(c.cooldown, func() {
		select {
		case c.resumes <- seq:
		case <-c.done:
		}
	})
	log.Printf("[WARN] rate limited, polling paused until %s", c.resumeAt.Format(time.TimeOnly))
	c.notice(model.Event{Kind: model.EventRateLimited, ResumeAt: c.resumeAt, Message: cause.Error()})
}

func (c *Controller) resume(seq uint64) {
	if seq != c.resumeSeq || c.state != model.StatePaused {
		return
	}
	c.state = model.StateActive
	c.resumeAt = time.Time{}
	c.resumeTimer = nil
	log.Printf("[INFO] polling resumed for %s", c.symbol)
	if c.pending && c.canFetch() {
		c.startFetch()
	}
}

func (c *Controller) notice(ev model.Event) {
	ev.Symbol = c.symbol
	ev.At = c.clock.Now()
	c.lastNotice = &ev
	c.emit(ev)
}

func (c *Controller) emit(ev model.Event) {
	select {
	case c.events <- ev:
	default:
		log.Printf("[WARN] event queue full, dropping %s for %s", ev.Kind, ev.Symbol)
	}
}
