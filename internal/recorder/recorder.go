package recorder

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"StockSentinel/internal/model"
)

// Batch is the set of observations one DataUpdated event added to the buffer.
type Batch struct {
	ID           string
	Symbol       string
	Backfill     bool
	RecordedAt   time.Time
	Observations []model.Observation
}

// Notice is a rate-limit, failure or market-closed notice.
type Notice struct {
	Symbol   string
	Kind     model.EventKind
	At       time.Time
	ResumeAt time.Time
	Message  string
}

// Recorder journals what the poller saw. The journal is write-only: it is
// never read back into the buffer.
type Recorder interface {
	RecordBatch(b *Batch) error
	RecordNotice(n *Notice) error
	Close() error
}

// Record journals one controller event.
func Record(rec Recorder, ev model.Event) error {
	if ev.Kind == model.EventDataUpdated {
		if len(ev.Added) == 0 {
			return nil
		}
		return rec.RecordBatch(&Batch{
			ID:           uuid.NewString(),
			Symbol:       ev.Symbol,
			Backfill:     ev.Backfill,
			RecordedAt:   ev.At,
			Observations: ev.Added,
		})
	}
	return rec.RecordNotice(&Notice{
		Symbol:   ev.Symbol,
		Kind:     ev.Kind,
		At:       ev.At,
		ResumeAt: ev.ResumeAt,
		Message:  ev.Message,
	})
}

// Drain records events until ctx is cancelled or events is closed.
func Drain(ctx context.Context, rec Recorder, events <-chan model.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := Record(rec, ev); err != nil {
				log.Printf("[ERROR] record %s for %s: %v", ev.Kind, ev.Symbol, err)
			}
		}
	}
}

// Journal runs Drain on its own goroutine and owns the recorder's lifetime.
type Journal struct {
	rec Recorder
	wg  sync.WaitGroup
}

// StartJournal drains events into rec until ctx is cancelled or events closes.
func StartJournal(ctx context.Context, rec Recorder, events <-chan model.Event) *Journal {
	j := &Journal{rec: rec}
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		Drain(ctx, rec, events)
	}()
	return j
}

// Close waits for the drain goroutine, so a write in progress finishes, then
// closes the recorder. Cancel the journal's context first.
func (j *Journal) Close() error {
	j.wg.Wait()
	return j.rec.Close()
}
