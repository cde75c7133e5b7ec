package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"StockSentinel/internal/api"
	"StockSentinel/internal/collector"
	"StockSentinel/internal/config"
	"StockSentinel/internal/httpx"
	"StockSentinel/internal/logging"
	"StockSentinel/internal/marketclock"
	"StockSentinel/internal/notifier"
	"StockSentinel/internal/poller"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] StockSentinel starting...")

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] load .env: %v", err)
	}

	// Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	logging.Setup(cfg.LogLevel)

	exchange, err := marketclock.NewExchange(cfg.Market.Timezone, cfg.Market.OpenHour, cfg.Market.CloseHour, cfg.Market.StaleGrace.Duration)
	if err != nil {
		log.Fatalf("[FATAL] market clock: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case config.ProviderMock:
		fetcher = &collector.MockFetcher{Price: decimal.RequireFromString("390.00"), Location: exchange.Location}
	default:
		fetcher = collector.NewAlphaVantageFetcher(cfg.DataSource.APIKey,
			collector.WithBaseURL(cfg.DataSource.BaseURL),
			collector.WithHTTPClient(httpx.New(cfg.Polling.RequestTimeout.Duration, cfg.Proxy)),
			collector.WithLocation(exchange.Location),
		)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	ctrl, err := poller.New(collector.NewCollector(fetcher, exchange), poller.Options{
		Symbol:       cfg.DataSource.Symbol,
		Capacity:     cfg.Polling.BufferCapacity,
		Cooldown:     cfg.Polling.Cooldown.Duration,
		FetchTimeout: cfg.Polling.RequestTimeout.Duration,
		Clock:        marketclock.RealClock(exchange.Location),
	})
	if err != nil {
		log.Fatalf("[FATAL] init poller: %v", err)
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := ctrl.Run(ctx); err != nil {
			log.Printf("[ERROR] poller: %v", err)
		}
	}()

	hub := notifier.NewHub()
	consoleEvents, _ := hub.Subscribe(64)
	journalEvents, _ := hub.Subscribe(256)
	go hub.Run(ctx, ctrl.Events())

	console := notifier.NewConsole(os.Stdout)
	go console.Run(ctx, consoleEvents)
	journal := recorder.StartJournal(ctx, rec, journalEvents)

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, ctrl)
	if err := sched.RegisterAll(cfg.Polling.Interval.Duration); err != nil {
		log.Fatalf("[FATAL] register poll tick: %v", err)
	}
	if err := sched.Start(); err != nil {
		log.Fatalf("[FATAL] start scheduler: %v", err)
	}
	defer sched.Stop()

	go console.StartPolling(ctx, os.Stdin, sched.HandleCommand)
	log.Println("[INFO] console commands enabled, type /help")

	var srv *http.Server
	if cfg.Server.Addr != "" {
		srv = api.NewAPIHandler(ctrl, hub).NewServer(cfg.Server.Addr)
		go func() {
			log.Printf("[INFO] http api listening on %s", cfg.Server.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[ERROR] http api: %v", err)
			}
		}()
	}

	log.Printf("[INFO] StockSentinel is tracking %s every %s. Press Ctrl+C to stop.", cfg.DataSource.Symbol, cfg.Polling.Interval.Duration)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] http api shutdown: %v", err)
		}
		done()
	}
	cancel()
	if err := journal.Close(); err != nil {
		log.Printf("[WARN] close recorder: %v", err)
	}
	log.Println("[INFO] StockSentinel stopped")
}
