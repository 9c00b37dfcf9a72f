package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSink persists audit events in a local SQLite database. The
// table is append-only: there is no update or delete path, matching the
// immutability contract of Event.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the audit database under dataDir,
// applies the connection pragmas, and runs the idempotent migration.
func NewSQLiteSink(dataDir string) (*SQLiteSink, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("audit: create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "audit.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("audit: pragma %q: %w", p, err)
		}
	}

	s := &SQLiteSink{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("audit: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func (s *SQLiteSink) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS audit_events (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			operation      TEXT NOT NULL,
			agent          TEXT NOT NULL,
			result         TEXT NOT NULL,
			subject_type   TEXT NOT NULL,
			subject_id     TEXT,
			message        TEXT,
			correlation_id TEXT NOT NULL,
			timestamp      TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_audit_correlation ON audit_events(correlation_id);
		CREATE INDEX IF NOT EXISTS idx_audit_timestamp   ON audit_events(timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_audit_operation   ON audit_events(operation);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append implements Sink.
func (s *SQLiteSink) Append(ctx context.Context, e Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events
			(operation, agent, result, subject_type, subject_id, message, correlation_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Operation, e.Agent, string(e.Result),
		e.Details.SubjectType, e.Details.SubjectID, e.Details.Message,
		e.CorrelationID, e.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("audit: append event: %w", err)
	}
	return nil
}

// ByCorrelation returns all events for one correlation id in emission
// order (initiated first, terminal last).
func (s *SQLiteSink) ByCorrelation(ctx context.Context, correlationID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT operation, agent, result, subject_type, subject_id, message, correlation_id, timestamp
		FROM audit_events
		WHERE correlation_id = ?
		ORDER BY id ASC`, correlationID)
	if err != nil {
		return nil, fmt.Errorf("audit: query by correlation: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Recent returns the latest events, newest first, capped at limit.
func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT operation, agent, result, subject_type, subject_id, message, correlation_id, timestamp
		FROM audit_events
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query recent: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var out []Event
	for rows.Next() {
		var e Event
		var subjectID, message sql.NullString
		var ts string
		if err := rows.Scan(
			&e.Operation, &e.Agent, (*string)(&e.Result),
			&e.Details.SubjectType, &subjectID, &message,
			&e.CorrelationID, &ts,
		); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		e.Details.SubjectID = subjectID.String
		e.Details.Message = message.String
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("audit: parse timestamp %q: %w", ts, err)
		}
		e.Timestamp = parsed
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate events: %w", err)
	}
	return out, nil
}
