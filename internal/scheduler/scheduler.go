package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"StockSentinel/internal/model"
	"StockSentinel/internal/notifier"
	"StockSentinel/internal/poller"
)

// Poller is the controller surface the scheduler drives.
type Poller interface {
	Tick(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	ChangeSymbol(ctx context.Context, symbol string) (string, error)
	Snapshot(ctx context.Context) (model.Status, error)
}

// Scheduler drives the poller's periodic tick and dispatches user commands.
type Scheduler struct {
	Cron       *cron.Cron
	Poller     Poller
	Ctx        context.Context
	ChartWidth int
	Now        func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, p Poller) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Poller:     p,
		Ctx:        ctx,
		ChartWidth: notifier.DefaultChartWidth,
		Now:        time.Now,
	}
}

// RegisterAll registers the polling tick at the given interval.
func (s *Scheduler) RegisterAll(interval time.Duration) error {
	if interval < time.Second {
		return fmt.Errorf("poll interval %s is below one second", interval)
	}
	if _, err := s.Cron.AddFunc("@every "+interval.String(), s.tick); err != nil {
		return fmt.Errorf("register poll tick: %w", err)
	}
	return nil
}

// Start starts the cron scheduler and the poller.
func (s *Scheduler) Start() error {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
	if err := s.Poller.Start(s.Ctx); err != nil {
		return fmt.Errorf("start poller: %w", err)
	}
	return nil
}

// Stop stops the cron scheduler gracefully and waits for a running tick.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) tick() {
	if err := s.Poller.Tick(s.Ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[ERROR] poll tick: %v", err)
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	command = strings.TrimSpace(command)
	name, arg, _ := strings.Cut(command, " ")
	switch strings.ToLower(name) {
	case "/start":
		if err := s.Poller.Start(s.Ctx); err != nil {
			return fmt.Sprintf("Could not start polling: %v", err)
		}
		return "Polling started."
	case "/stop":
		if err := s.Poller.Stop(s.Ctx); err != nil {
			return fmt.Sprintf("Could not stop polling: %v", err)
		}
		return "Polling stopped."
	case "/status":
		st, err := s.Poller.Snapshot(s.Ctx)
		if err != nil {
			return fmt.Sprintf("Status unavailable: %v", err)
		}
		return notifier.FormatStatus(st, s.Now())
	case "/chart":
		st, err := s.Poller.Snapshot(s.Ctx)
		if err != nil {
			return fmt.Sprintf("Chart unavailable: %v", err)
		}
		return notifier.FormatChart(st, s.ChartWidth)
	case "/symbol":
		return s.changeSymbol(arg)
	case "/help":
		return notifier.FormatHelp()
	}
	if strings.HasPrefix(command, "/") {
		return "Unknown command " + name + "\n" + notifier.FormatHelp()
	}
	return s.changeSymbol(command)
}

func (s *Scheduler) changeSymbol(symbol string) string {
	got, err := s.Poller.ChangeSymbol(s.Ctx, symbol)
	if errors.Is(err, poller.ErrInvalidSymbol) {
		return fmt.Sprintf("%q is not a ticker symbol.", strings.TrimSpace(symbol))
	}
	if err != nil {
		return fmt.Sprintf("Could not change symbol: %v", err)
	}
	return fmt.Sprintf("Tracking %s.", got)
}
