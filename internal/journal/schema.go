package journal

// Schema DDL. Tables are created if missing so sessions from earlier runs
// stay listable.
const (
	createSessions = `CREATE TABLE IF NOT EXISTS sessions (
    session_id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    ended_at TEXT
);`

	createEvents = `CREATE TABLE IF NOT EXISTS events (
    event_id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    kind TEXT NOT NULL,
    pool TEXT NOT NULL,
    slot INTEGER NOT NULL,
    pid INTEGER NOT NULL,
    at TEXT NOT NULL,
    FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);`
)

// Index DDL.
const (
	idxEventsSession = `CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, seq);`
	idxEventsKind    = `CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);`
)

// schemaDDL lists all statements in dependency order.
var schemaDDL = []string{
	createSessions,
	createEvents,
	idxEventsSession,
	idxEventsKind,
}
