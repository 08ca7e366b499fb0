// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records pipeline runs in a SQLite database so past
// conversions can be listed from the CLI.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultLimit = 20

	// timeLayout has fixed-width fractional seconds so stored timestamps
	// sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Run is one recorded pipeline invocation. Error is empty for runs that
// produced a document.
type Run struct {
	ID           string    `json:"id" yaml:"id"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	ImageCount   int       `json:"image_count" yaml:"image_count"`
	DocxFileName string    `json:"docx_file_name,omitempty" yaml:"docx_file_name,omitempty"`
	Title        string    `json:"title,omitempty" yaml:"title,omitempty"`
	SectionCount int       `json:"section_count" yaml:"section_count"`
	Degraded     bool      `json:"degraded" yaml:"degraded"`
	Error        string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the run ended with an error.
func (r Run) Failed() bool { return r.Error != "" }

// Store manages the run history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			image_count INTEGER NOT NULL,
			docx_file_name TEXT,
			title TEXT,
			section_count INTEGER NOT NULL DEFAULT 0,
			degraded INTEGER NOT NULL DEFAULT 0,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts run, replacing any earlier record with the same ID.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run ID is empty")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, image_count, docx_file_name, title, section_count, degraded, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			created_at=excluded.created_at, image_count=excluded.image_count,
			docx_file_name=excluded.docx_file_name, title=excluded.title,
			section_count=excluded.section_count, degraded=excluded.degraded,
			error=excluded.error`,
		run.ID, run.CreatedAt.UTC().Format(timeLayout), run.ImageCount,
		run.DocxFileName, run.Title, run.SectionCount, run.Degraded, run.Error,
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", run.ID, err)
	}
	return nil
}

// List returns up to limit runs, newest first. A non-positive limit uses
// the default of 20.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, image_count, docx_file_name, title, section_count, degraded, error
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns the run with the given ID, or sql.ErrNoRows.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, image_count, docx_file_name, title, section_count, degraded, error
		 FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run       Run
		createdAt string
		docxName  sql.NullString
		title     sql.NullString
		errText   sql.NullString
	)
	if err := sc.Scan(&run.ID, &createdAt, &run.ImageCount, &docxName, &title,
		&run.SectionCount, &run.Degraded, &errText); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parsing created_at of run %s: %w", run.ID, err)
	}
	run.CreatedAt = t
	run.DocxFileName = docxName.String
	run.Title = title.String
	run.Error = errText.String
	return run, nil
}
