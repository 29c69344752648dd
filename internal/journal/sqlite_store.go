package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/TheMichaelB/togglecrypt/internal/events"
)

// SQLiteStore implements a SQLite-backed journal.
type SQLiteStore struct {
	db     *sql.DB
	logger *events.Logger
}

// NewSQLiteStore opens or creates the journal database at dbPath.
func NewSQLiteStore(dbPath string, logger *events.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		logger: logger.WithField("component", "sqlite_journal"),
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return store, nil
}

// initialize creates tables and indexes.
func (s *SQLiteStore) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS entries (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT NOT NULL UNIQUE,
        run_id TEXT NOT NULL,
        time TIMESTAMP NOT NULL,
        op TEXT NOT NULL,
        source TEXT NOT NULL,
        target TEXT,
        size INTEGER NOT NULL DEFAULT 0,
        status TEXT NOT NULL,
        error TEXT,
        cleanup TEXT
    );

    CREATE INDEX IF NOT EXISTS idx_entries_run ON entries(run_id);

    CREATE TABLE IF NOT EXISTS schema_info (
        version INTEGER PRIMARY KEY
    );

    INSERT OR IGNORE INTO schema_info (version) VALUES (?);
    `

	if _, err := s.db.Exec(schema, CurrentSchemaVersion); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Record inserts an entry.
func (s *SQLiteStore) Record(entry Entry) error {
	s.logger.WithFields(map[string]interface{}{
		"op":     entry.Op,
		"status": entry.Status,
	}).Debug("Recording journal entry")

	_, err := s.db.Exec(`
        INSERT INTO entries (id, run_id, time, op, source, target, size, status, error, cleanup)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, entry.ID, entry.RunID, entry.Time, entry.Op, entry.Source,
		nullString(entry.Target), entry.Size, entry.Status,
		nullString(entry.Error), nullString(entry.Cleanup))
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	return nil
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (s *SQLiteStore) Recent(n int) ([]Entry, error) {
	limit := n
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(`
        SELECT id, run_id, time, op, source, target, size, status, error, cleanup
        FROM entries
        ORDER BY seq DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var target, errMsg, cleanup sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.Time, &e.Op, &e.Source,
			&target, &e.Size, &e.Status, &errMsg, &cleanup); err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}
		e.Target = target.String
		e.Error = errMsg.String
		e.Cleanup = cleanup.String
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
