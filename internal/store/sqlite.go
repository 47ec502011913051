package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/keyforge/internal/bindings"
)

// Current schema version
const SchemaVersion = "1"

// SQLite is a SQLite-backed store.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS presets (
			name TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			checksum TEXT NOT NULL,
			compiled_at TEXT NOT NULL,
			table_json TEXT NOT NULL,
			problems_json TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}

	version, err := s.getMetadataUnlocked("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}
	switch version {
	case "":
		if err := s.setMetadataUnlocked("schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	case SchemaVersion:
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}

	return s, nil
}

// Get retrieves an entry by preset name.
func (s *SQLite) Get(name string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		e          Entry
		compiledAt string
		tableJSON  string
		probsJSON  string
	)
	err := s.db.QueryRow(
		"SELECT id, checksum, compiled_at, table_json, problems_json FROM presets WHERE name = ?",
		name,
	).Scan(&e.ID, &e.Checksum, &compiledAt, &tableJSON, &probsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.Name = name
	e.CompiledAt, err = time.Parse(time.RFC3339Nano, compiledAt)
	if err != nil {
		return nil, fmt.Errorf("entry %s: parsing compiled_at: %w", name, err)
	}
	e.Table = &bindings.Table{}
	if err := json.Unmarshal([]byte(tableJSON), e.Table); err != nil {
		return nil, fmt.Errorf("entry %s: decoding table: %w", name, err)
	}
	if err := json.Unmarshal([]byte(probsJSON), &e.Problems); err != nil {
		return nil, fmt.Errorf("entry %s: decoding problems: %w", name, err)
	}
	return &e, nil
}

// Put stores an entry under its name.
func (s *SQLite) Put(e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tableJSON, err := json.Marshal(e.Table)
	if err != nil {
		return fmt.Errorf("entry %s: encoding table: %w", e.Name, err)
	}
	probs := e.Problems
	if probs == nil {
		probs = []string{}
	}
	probsJSON, err := json.Marshal(probs)
	if err != nil {
		return fmt.Errorf("entry %s: encoding problems: %w", e.Name, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO presets (name, id, checksum, compiled_at, table_json, problems_json)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			id = excluded.id,
			checksum = excluded.checksum,
			compiled_at = excluded.compiled_at,
			table_json = excluded.table_json,
			problems_json = excluded.problems_json
	`, e.Name, e.ID, e.Checksum, e.CompiledAt.Format(time.RFC3339Nano), string(tableJSON), string(probsJSON))
	return err
}

// Delete removes an entry by preset name.
func (s *SQLite) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM presets WHERE name = ?", name)
	return err
}

// Names lists the stored preset names in sorted order.
func (s *SQLite) Names() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT name FROM presets ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *SQLite) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *SQLite) setMetadataUnlocked(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Ensure both implementations satisfy Store.
var (
	_ Store = (*Memory)(nil)
	_ Store = (*SQLite)(nil)
)
