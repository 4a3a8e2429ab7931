// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus keeps acquired records in a local SQLite index so past
// runs can be searched and re-exported. Acquisition never reads from it:
// each run still starts from scratch.
package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/medsft/internal/acquire"
	"github.com/pdiddy/medsft/pkg/types"
)

const (
	// DefaultDBPath is used when CorpusConfig.DBPath is empty.
	DefaultDBPath     = "corpus/corpus.db"
	defaultMaxResults = 20
)

// Store manages the corpus SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the corpus database and its schema.
func NewStore(cfg types.CorpusConfig) (*Store, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating corpus directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults}
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
			source TEXT,
			query TEXT,
			ingested_at TEXT NOT NULL,
			record_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			abstract TEXT NOT NULL,
			year TEXT,
			month TEXT,
			day TEXT,
			UNIQUE(run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_year ON records(year)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run describes one ingested acquisition output.
type Run struct {
	ID          string    `json:"id" yaml:"id"`
	Source      string    `json:"source" yaml:"source"`
	Query       string    `json:"query,omitempty" yaml:"query,omitempty"`
	IngestedAt  time.Time `json:"ingested_at" yaml:"ingested_at"`
	RecordCount int       `json:"record_count" yaml:"record_count"`
}

// Ingest stores records under run. An empty run.ID gets a new UUID. A run
// that was ingested before is replaced. The stored Run is returned.
func (s *Store) Ingest(ctx context.Context, run Run, records []types.NormalizedRecord) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	run.IngestedAt = time.Now().UTC()
	run.RecordCount = len(records)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE run_id = ?`, run.ID); err != nil {
		return Run{}, fmt.Errorf("deleting old records: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, query, ingested_at, record_count) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			source=excluded.source, query=excluded.query,
			ingested_at=excluded.ingested_at, record_count=excluded.record_count`,
		run.ID, run.Source, run.Query, run.IngestedAt.Format(time.RFC3339Nano), run.RecordCount,
	)
	if err != nil {
		return Run{}, fmt.Errorf("upserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (run_id, position, title, abstract, year, month, day)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		_, err := stmt.ExecContext(ctx,
			run.ID, i, r.ArticleTitle, r.ArticleAbstract,
			r.PubDate.Year, r.PubDate.Month, r.PubDate.Day,
		)
		if err != nil {
			return Run{}, fmt.Errorf("inserting record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("committing: %w", err)
	}
	return run, nil
}

// IngestFile stores an acquisition output file. When a run manifest sits
// next to it, the manifest's run ID and query are used.
func (s *Store) IngestFile(ctx context.Context, path string) (Run, error) {
	records, err := acquire.ReadRecords(path)
	if err != nil {
		return Run{}, err
	}

	run := Run{Source: path}
	m, err := acquire.ReadManifest(acquire.ManifestPath(path))
	switch {
	case err == nil:
		run.ID = m.RunID
		run.Query = m.Query.Term
	case !errors.Is(err, os.ErrNotExist):
		return Run{}, err
	}
	return s.Ingest(ctx, run, records)
}

// Runs lists ingested runs, most recent first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, query, ingested_at, record_count FROM runs ORDER BY ingested_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			source     sql.NullString
			query      sql.NullString
			ingestedAt string
		)
		if err := rows.Scan(&r.ID, &source, &query, &ingestedAt, &r.RecordCount); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Source = source.String
		r.Query = query.String
		if t, err := time.Parse(time.RFC3339Nano, ingestedAt); err == nil {
			r.IngestedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
