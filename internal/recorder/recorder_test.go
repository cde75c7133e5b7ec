package recorder

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSentinel/internal/model"
)

var at = time.Date(2024, 6, 5, 15, 0, 0, 0, time.UTC)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func count(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}

func TestSQLiteRecorder_RecordBatch(t *testing.T) {
	r := openTestRecorder(t)

	err := r.RecordBatch(&Batch{
		ID:         "batch-1",
		Symbol:     "DIA",
		Backfill:   true,
		RecordedAt: at,
		Observations: []model.Observation{
			{Time: at.Add(-5 * time.Minute), Price: decimal.RequireFromString("390.1000"), Symbol: "DIA"},
			{Time: at, Price: decimal.RequireFromString("390.47"), Symbol: "DIA"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, count(t, r.db, `SELECT COUNT(*) FROM observations WHERE batch_id = ?`, "batch-1"))
	assert.Equal(t, 1, count(t, r.db, `SELECT backfill FROM observation_batches WHERE id = ?`, "batch-1"))

	var price string
	require.NoError(t, r.db.QueryRow(`SELECT price FROM observations WHERE observed_at = ?`, at.UnixMilli()).Scan(&price))
	assert.Equal(t, "390.47", price)

	// Same batch id again violates the primary key and leaves no partial rows.
	err = r.RecordBatch(&Batch{ID: "batch-1", Symbol: "DIA", Observations: []model.Observation{{Time: at, Price: decimal.NewFromInt(1), Symbol: "DIA"}}})
	require.Error(t, err)
	assert.Equal(t, 2, count(t, r.db, `SELECT COUNT(*) FROM observations`))
}

func TestSQLiteRecorder_RecordNotice(t *testing.T) {
	r := openTestRecorder(t)

	require.NoError(t, r.RecordNotice(&Notice{Symbol: "DIA", Kind: model.EventRateLimited, At: at, ResumeAt: at.Add(time.Minute), Message: "429"}))
	require.NoError(t, r.RecordNotice(&Notice{Symbol: "DIA", Kind: model.EventFetchFailed, At: at, Message: "timeout"}))

	assert.Equal(t, 2, count(t, r.db, `SELECT COUNT(*) FROM notices`))
	assert.Equal(t, 1, count(t, r.db, `SELECT COUNT(*) FROM notices WHERE resume_at IS NULL`))
}

type memRecorder struct {
	batches []*Batch
	notices []*Notice
	fail    bool
}

func (m *memRecorder) RecordBatch(b *Batch) error {
	if m.fail {
		return errors.New("disk full")
	}
	m.batches = append(m.batches, b)
	return nil
}

func (m *memRecorder) RecordNotice(n *Notice) error {
	m.notices = append(m.notices, n)
	return nil
}

func (m *memRecorder) Close() error { return nil }

func TestDrain(t *testing.T) {
	rec := &memRecorder{}
	added := []model.Observation{{Time: at, Price: decimal.NewFromInt(390), Symbol: "DIA"}}
	events := make(chan model.Event, 4)
	events <- model.Event{Kind: model.EventDataUpdated, Symbol: "DIA", At: at, Added: added}
	events <- model.Event{Kind: model.EventDataUpdated, Symbol: "DIA", At: at}
	events <- model.Event{Kind: model.EventMarketClosed, Symbol: "DIA", At: at}
	close(events)

	Drain(context.Background(), rec, events)

	require.Len(t, rec.batches, 1)
	assert.NotEmpty(t, rec.batches[0].ID)
	assert.Equal(t, added, rec.batches[0].Observations)
	require.Len(t, rec.notices, 1)
	assert.Equal(t, model.EventMarketClosed, rec.notices[0].Kind)
}

func TestDrain_KeepsGoingAfterErrors(t *testing.T) {
	rec := &memRecorder{fail: true}
	events := make(chan model.Event, 2)
	events <- model.Event{Kind: model.EventDataUpdated, Symbol: "DIA", Added: []model.Observation{{Symbol: "DIA"}}}
	events <- model.Event{Kind: model.EventFetchFailed, Symbol: "DIA"}
	close(events)

	Drain(context.Background(), rec, events)

	assert.Len(t, rec.notices, 1)
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	assert.NoError(t, Record(rec, model.Event{Kind: model.EventDataUpdated, Added: []model.Observation{{}}}))
	assert.NoError(t, rec.Close())
}

// slowRecorder blocks each batch write until release is closed.
type slowRecorder struct {
	started chan struct{}
	release chan struct{}

	mu    sync.Mutex
	order []string
}

func (s *slowRecorder) RecordBatch(_ *Batch) error {
	close(s.started)
	<-s.release
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append(s.order, "batch")
	return nil
}

func (s *slowRecorder) RecordNotice(_ *Notice) error { return nil }

func (s *slowRecorder) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append(s.order, "close")
	return nil
}

func TestJournal_CloseWaitsForWriteInProgress(t *testing.T) {
	rec := &slowRecorder{started: make(chan struct{}), release: make(chan struct{})}
	events := make(chan model.Event, 1)
	events <- model.Event{Kind: model.EventDataUpdated, Symbol: "DIA", Added: []model.Observation{{Symbol: "DIA"}}}

	ctx, cancel := context.WithCancel(context.Background())
	j := StartJournal(ctx, rec, events)
	<-rec.started
	cancel()

	closed := make(chan error, 1)
	go func() { closed <- j.Close() }()

	select {
	case <-closed:
		t.Fatal("Close returned while a batch was still being written")
	case <-time.After(50 * time.Millisecond):
	}

	close(rec.release)
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
	assert.Equal(t, []string{"batch", "close"}, rec.order)
}
