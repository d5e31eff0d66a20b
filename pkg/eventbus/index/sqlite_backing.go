package index

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// SQLiteStore persists subscriber handler records to SQLite. Suitable for
// single-process production use where startup reflection cost matters.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// NewSQLiteStore opens (creating if needed) a SQLite-backed Store at path,
// which may be a file path or ":memory:" for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS subscriber_handlers (
			subscriber_type TEXT NOT NULL,
			method_name     TEXT NOT NULL,
			event_type      TEXT NOT NULL,
			thread_mode     INTEGER NOT NULL,
			priority        INTEGER NOT NULL,
			sticky          INTEGER NOT NULL,
			PRIMARY KEY (subscriber_type, method_name, event_type)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(subscriberType string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM subscriber_handlers WHERE subscriber_type = ?`, subscriberType); err != nil {
		return fmt.Errorf("clear existing records: %w", err)
	}

	for _, r := range records {
		if _, err := tx.Exec(`
			INSERT INTO subscriber_handlers
				(subscriber_type, method_name, event_type, thread_mode, priority, sticky)
			VALUES (?, ?, ?, ?, ?, ?)
		`, subscriberType, r.MethodName, r.EventType, r.ThreadMode, r.Priority, boolToInt(r.Sticky)); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
	}

	return tx.Commit()
}

// Load implements Store. A subscriber type saved with no records has no
// rows, so Load reports it as not found.
func (s *SQLiteStore) Load(subscriberType string) ([]Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT method_name, event_type, thread_mode, priority, sticky
		FROM subscriber_handlers
		WHERE subscriber_type = ?
	`, subscriberType)
	if err != nil {
		return nil, false, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var sticky int
		r.SubscriberType = subscriberType
		if err := rows.Scan(&r.MethodName, &r.EventType, &r.ThreadMode, &r.Priority, &sticky); err != nil {
			return nil, false, fmt.Errorf("scan record: %w", err)
		}
		r.Sticky = sticky != 0
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate records: %w", err)
	}

	return records, len(records) > 0, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(subscriberType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`DELETE FROM subscriber_handlers WHERE subscriber_type = ?`, subscriberType)
	if err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
