// Package audit persists a record of every MCP tool invocation to SQLite.
// The trail backs the health_check tool's failure counts and gives
// operators an answer to "who changed what on which firewall, and when".
package audit

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS tool_calls (
	id          TEXT PRIMARY KEY,
	tool        TEXT NOT NULL,
	device_id   TEXT NOT NULL DEFAULT '',
	args        TEXT NOT NULL DEFAULT '',
	success     INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tool_calls_created_at ON tool_calls(created_at);
CREATE INDEX IF NOT EXISTS idx_tool_calls_device ON tool_calls(device_id);
`

// Record is one persisted tool invocation.
type Record struct {
	ID         string    `json:"id"`
	Tool       string    `json:"tool"`
	DeviceID   string    `json:"device_id"`
	Args       string    `json:"args"`
	Success    bool      `json:"success"`
	Error      string    `json:"error"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store is the SQLite-backed audit trail. Safe for concurrent use.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open creates or opens the audit database under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating audit data dir")
	}

	dbPath := filepath.Join(dataDir, "audit.db")
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "opening audit database")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "connecting to audit database")
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing audit schema")
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append writes one record. A zero ID and CreatedAt are filled in.
func (s *Store) Append(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO tool_calls (id, tool, device_id, args, success, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Tool, rec.DeviceID, rec.Args, rec.Success, rec.Error, rec.DurationMS, rec.CreatedAt,
	)
	return errors.Wrap(err, "inserting audit record")
}

// RecentFailures counts failed tool calls recorded within the window.
func (s *Store) RecentFailures(window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM tool_calls WHERE success = 0 AND created_at >= ?`,
		time.Now().UTC().Add(-window),
	).Scan(&count)
	return count, errors.Wrap(err, "counting recent failures")
}

// Recent returns the most recent records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, tool, device_id, args, success, error, duration_ms, created_at
		 FROM tool_calls ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying audit records")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Tool, &rec.DeviceID, &rec.Args,
			&rec.Success, &rec.Error, &rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning audit record")
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
