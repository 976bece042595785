// Package journal persists refresh and build events in a local SQLite file.
// Writes are best effort: the journal is an observability aid backing the
// history command, never a build dependency.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/llmdocs/internal/logfields"
)

// Entry is one journal row.
type Entry struct {
	ID       int64     `json:"id"`
	RunID    string    `json:"run_id"`
	At       time.Time `json:"ts"`
	Kind     string    `json:"kind"`
	Document string    `json:"document,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}

// Journal is an append-mostly SQLite event log.
type Journal struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (and creates if needed) the journal database at path.
// Use ":memory:" for an ephemeral journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}
	j := &Journal{db: db}
	if err := j.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		ts TEXT NOT NULL,
		kind TEXT NOT NULL,
		document TEXT,
		detail TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_run_id ON events(run_id);
	CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Append inserts one event row.
func (j *Journal) Append(ctx context.Context, runID, kind, document, detail string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO events (run_id, ts, kind, document, detail) VALUES (?, ?, ?, ?, ?)",
		runID, time.Now().UTC().Format(time.RFC3339Nano), kind, document, detail,
	)
	if err != nil {
		return fmt.Errorf("insert journal event: %w", err)
	}
	return nil
}

// Query narrows an Events lookup. Zero values mean "no filter"; Limit
// defaults to 50.
type Query struct {
	RunID string
	Limit int
}

// Events returns journal rows newest first.
func (j *Journal) Events(ctx context.Context, q Query) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	var (
		rows *sql.Rows
		err  error
	)
	if q.RunID != "" {
		rows, err = j.db.QueryContext(ctx,
			"SELECT id, run_id, ts, kind, document, detail FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
			q.RunID, limit,
		)
	} else {
		rows, err = j.db.QueryContext(ctx,
			"SELECT id, run_id, ts, kind, document, detail FROM events ORDER BY id DESC LIMIT ?",
			limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("query journal events: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			ts string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &ts, &e.Kind, &e.Document, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		if at, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.At = at
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal rows: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}

// Sink adapts a Journal to the event recording interface the refresher and
// pipeline accept. Write failures are logged at warn level and swallowed.
type Sink struct {
	Journal *Journal
	RunID   string
	Logger  *slog.Logger
}

func (s *Sink) Record(ctx context.Context, kind, document, detail string) {
	if s == nil || s.Journal == nil {
		return
	}
	if err := s.Journal.Append(ctx, s.RunID, kind, document, detail); err != nil {
		logger := s.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("journal write failed", slog.String("kind", kind), logfields.Error(err))
	}
}
