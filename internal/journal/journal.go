// Package journal records pool events in a SQLite database for offline
// inspection. It is diagnostic only: nothing read back from a journal is
// ever loaded into a pool.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/kernelpool/pkg/types"
)

// FileName is the database file created inside the journal data directory.
const FileName = "journal.db"

// ErrClosed is returned by operations on a closed journal.
var ErrClosed = errors.New("journal is closed")

// ErrNoSession is returned by Events when the session is unknown, or when
// none is given and none is active.
var ErrNoSession = errors.New("no journal session")

// Entry is a recorded event.
type Entry struct {
	EventID   string `json:"event_id"`
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
	types.Event
}

// Session summarizes one recording session.
type Session struct {
	SessionID string     `json:"session_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Events    int        `json:"events"`
}

// Journal buffers pool events and writes them to SQLite in batches.
// It implements types.EventSink.
type Journal struct {
	mu        sync.Mutex
	db        *sql.DB
	session   string
	seq       int64
	batchSize int
	pending   []types.Event
	dropped   int
	log       *zap.Logger
}

var _ types.EventSink = (*Journal)(nil)

// Open opens (creating if needed) the journal database in cfg.DataDir.
// No session is active until Begin is called.
func Open(cfg types.JournalConfig, log *zap.Logger) (*Journal, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, FileName))
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("create journal schema: %w", err)
		}
	}

	return &Journal{
		db:        db,
		batchSize: cfg.GetBatchSize(),
		log:       log,
	}, nil
}

// Begin starts a new session and returns its ID (a UUID v7). A session that
// is already active is flushed and ended first.
func (j *Journal) Begin() (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return "", ErrClosed
	}
	if err := j.endLocked(); err != nil {
		return "", err
	}

	id := generateUUID()
	_, err := j.db.Exec(
		"INSERT INTO sessions (session_id, started_at) VALUES (?, ?)",
		id, formatTime(time.Now()),
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	j.session = id
	j.seq = 0
	j.log.Debug("journal session started", zap.String("session", id))
	return id, nil
}

// Session returns the active session ID, or "".
func (j *Journal) Session() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.session
}

// Record buffers ev and writes the buffer once it reaches the batch size.
// Write failures are logged and counted, never returned: the caller is a
// pool on its allocation path. Events outside a session are dropped.
func (j *Journal) Record(ev types.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil || j.session == "" {
		j.dropped++
		return
	}
	j.pending = append(j.pending, ev)
	if len(j.pending) < j.batchSize {
		return
	}
	if err := j.flushLocked(); err != nil {
		j.log.Warn("journal flush failed", zap.Error(err), zap.Int("events", len(j.pending)))
		j.dropped += len(j.pending)
		j.pending = nil
	}
}

// Flush writes all buffered events.
func (j *Journal) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return ErrClosed
	}
	return j.flushLocked()
}

// Dropped returns how many events were lost to write failures or arrived
// outside a session.
func (j *Journal) Dropped() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.dropped
}

// Close flushes pending events, ends the active session and closes the
// database. Close is idempotent.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return nil
	}
	endErr := j.endLocked()
	closeErr := j.db.Close()
	j.db = nil
	if endErr != nil {
		return endErr
	}
	return closeErr
}

// Events returns the events of session in recording order. An empty
// session selects the active one. Returns ErrNoSession for an ID that was
// never recorded.
func (j *Journal) Events(session string) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return nil, ErrClosed
	}
	if session == "" {
		session = j.session
	}
	if session == "" {
		return nil, ErrNoSession
	}
	if session == j.session {
		if err := j.flushLocked(); err != nil {
			return nil, err
		}
	} else {
		var one int
		err := j.db.QueryRow("SELECT 1 FROM sessions WHERE session_id = ?", session).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSession
		}
		if err != nil {
			return nil, fmt.Errorf("query session: %w", err)
		}
	}

	rows, err := j.db.Query(
		`SELECT event_id, session_id, seq, kind, pool, slot, pid, at
		 FROM events WHERE session_id = ? ORDER BY seq`,
		session,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			at string
		)
		if err := rows.Scan(&e.EventID, &e.SessionID, &e.Seq, &e.Kind, &e.Pool, &e.Slot, &e.PID, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if e.At, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("parse event time: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Sessions lists recorded sessions, oldest first.
func (j *Journal) Sessions() ([]Session, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return nil, ErrClosed
	}
	if err := j.flushLocked(); err != nil {
		return nil, err
	}

	rows, err := j.db.Query(
		`SELECT s.session_id, s.started_at, s.ended_at,
		        (SELECT COUNT(*) FROM events e WHERE e.session_id = s.session_id)
		 FROM sessions s ORDER BY s.started_at, s.session_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			s       Session
			started string
			ended   sql.NullString
		)
		if err := rows.Scan(&s.SessionID, &started, &ended, &s.Events); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if s.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse session start: %w", err)
		}
		if ended.Valid {
			t, err := time.Parse(timeLayout, ended.String)
			if err != nil {
				return nil, fmt.Errorf("parse session end: %w", err)
			}
			s.EndedAt = &t
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// flushLocked writes pending events in one transaction.
// The caller must hold j.mu.
func (j *Journal) flushLocked() error {
	if len(j.pending) == 0 {
		return nil
	}

	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("begin flush: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO events (event_id, session_id, seq, kind, pool, slot, pid, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare flush: %w", err)
	}
	defer stmt.Close()

	seq := j.seq
	for _, ev := range j.pending {
		seq++
		if _, err := stmt.Exec(generateUUID(), j.session, seq, ev.Kind, ev.Pool, ev.Slot, int64(ev.PID), formatTime(ev.At)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit flush: %w", err)
	}

	j.seq = seq
	j.pending = nil
	return nil
}

// endLocked flushes and closes the active session, if any.
// The caller must hold j.mu.
func (j *Journal) endLocked() error {
	if j.session == "" {
		return nil
	}
	if err := j.flushLocked(); err != nil {
		return fmt.Errorf("flush session: %w", err)
	}
	_, err := j.db.Exec(
		"UPDATE sessions SET ended_at = ? WHERE session_id = ?",
		formatTime(time.Now()), j.session,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	j.log.Debug("journal session ended", zap.String("session", j.session), zap.Int64("events", j.seq))
	j.session = ""
	return nil
}

// generateUUID generates a new UUID v7.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
