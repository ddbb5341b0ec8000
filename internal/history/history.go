// Package history keeps a SQLite ledger of completed downloads.
//
// The ledger is an independent subsystem: if it can't be opened the server
// keeps working and only the history tool is unavailable. It records what
// was downloaded, in which format, and where it ended up, so the assistant
// can answer "what have I already pulled down?" without re-listing the
// whole vault.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Kind distinguishes what was downloaded.
type Kind string

const (
	KindCourse  Kind = "course"
	KindArticle Kind = "article"
)

// Entry is one recorded download.
type Entry struct {
	ID        int64  `json:"id"`
	Kind      Kind   `json:"kind"`
	ContentID string `json:"content_id"`
	Format    string `json:"format"`
	Dest      string `json:"dest"`
	FileCount int    `json:"file_count"`
	CreatedAt string `json:"created_at"`
}

// Config holds ledger configuration.
type Config struct {
	DataDir string
}

// DefaultConfig returns the default ledger configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".taibai")}
}

// Store is the download ledger backed by SQLite.
type Store struct {
	db *sql.DB
}

// New opens the ledger, creating the data directory and schema as needed.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("history: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "taibai.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("history: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS downloads (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			kind       TEXT    NOT NULL,
			content_id TEXT    NOT NULL,
			format     TEXT    NOT NULL,
			dest       TEXT    NOT NULL,
			file_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_downloads_created ON downloads(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_downloads_content ON downloads(kind, content_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one completed download to the ledger.
func (s *Store) Record(kind Kind, contentID, format, dest string, fileCount int) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO downloads (kind, content_id, format, dest, file_count)
		 VALUES (?, ?, ?, ?, ?)`,
		string(kind), contentID, format, dest, fileCount,
	)
	if err != nil {
		return 0, fmt.Errorf("history: record download: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns the newest entries, most recent first. A limit <= 0
// defaults to 20.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, kind, content_id, format, dest, file_count, created_at
		 FROM downloads
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.ContentID, &e.Format, &e.Dest, &e.FileCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan entry: %w", err)
		}
		e.Kind = Kind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
