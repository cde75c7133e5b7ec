package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder journals observations and notices to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS observation_batches (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			backfill    INTEGER NOT NULL,
			size        INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS observations (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id    TEXT NOT NULL REFERENCES observation_batches(id),
			symbol      TEXT NOT NULL,
			observed_at INTEGER NOT NULL,
			price       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_symbol_ts ON observations(symbol, observed_at)`,

		`CREATE TABLE IF NOT EXISTS notices (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			kind        TEXT NOT NULL,
			resume_at   INTEGER,
			message     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notices_ts ON notices(timestamp)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordBatch stores a batch and its observations in one transaction. Prices
// are kept as decimal text.
func (r *SQLiteRecorder) RecordBatch(b *Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO observation_batches
		(id, timestamp, symbol, backfill, size)
		VALUES (?,?,?,?,?)`,
		b.ID, unixMilli(b.RecordedAt), b.Symbol, b.Backfill, len(b.Observations),
	); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO observations
		(batch_id, symbol, observed_at, price)
		VALUES (?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare observation insert: %w", err)
	}
	defer stmt.Close()
	for _, o := range b.Observations {
		if _, err := stmt.Exec(b.ID, o.Symbol, unixMilli(o.Time), o.Price.String()); err != nil {
			return fmt.Errorf("insert observation: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordNotice(n *Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var resumeAt any
	if !n.ResumeAt.IsZero() {
		resumeAt = unixMilli(n.ResumeAt)
	}
	_, err := r.db.Exec(`INSERT INTO notices
		(timestamp, symbol, kind, resume_at, message)
		VALUES (?,?,?,?,?)`,
		unixMilli(n.At), n.Symbol, string(n.Kind), resumeAt, n.Message,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return time.Now().UnixMilli()
	}
	return t.UnixMilli()
}
