// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive records completed research runs in a SQLite
// database so past reports stay queryable after the files move.
//
// docs/ARCHITECTURE § Archive.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/deep-research/pkg/types"
)

const dbFile = "research.db"

// Run is one recorded research run.
type Run struct {
	ID          string
	Topic       string
	Model       string
	Language    string
	ReportPath  string
	WebVerified bool
	SourceCount int
	CreatedAt   time.Time
}

// Store manages the run archive SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the archive database at dir/research.db,
// creating the schema on first use.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
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
			topic TEXT NOT NULL,
			model TEXT,
			language TEXT,
			report_path TEXT,
			web_verified INTEGER NOT NULL DEFAULT 0,
			source_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sources (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			title TEXT,
			url TEXT NOT NULL,
			provider TEXT,
			reliability INTEGER,
			reason TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sources_run_id ON sources(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun inserts a completed run and its sources in one
// transaction and returns the run ID.
func (s *Store) RecordRun(ctx context.Context, rep *types.ResearchReport, reportPath string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	runID := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, topic, model, language, report_path, web_verified, source_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rep.Topic, rep.ModelUsed, rep.Language, reportPath,
		boolInt(rep.WebVerified), len(rep.Items), rep.GeneratedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sources (run_id, title, url, provider, reliability, reason)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range rep.Items {
		if _, err := stmt.ExecContext(ctx,
			runID, it.Source, it.URL, it.Provider, it.ReliabilityScore, it.ReliabilityReason,
		); err != nil {
			return "", fmt.Errorf("inserting source %s: %w", it.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// ListRecent returns the most recent runs, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, model, language, report_path, web_verified, source_count, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var verified int
		var created string
		if err := rows.Scan(&r.ID, &r.Topic, &r.Model, &r.Language, &r.ReportPath, &verified, &r.SourceCount, &created); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.WebVerified = verified != 0
		if t, parseErr := time.Parse(time.RFC3339, created); parseErr == nil {
			r.CreatedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Sources returns the recorded sources for one run.
func (s *Store) Sources(ctx context.Context, runID string) ([]types.EvidenceItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, url, provider, reliability, reason FROM sources WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var items []types.EvidenceItem
	for rows.Next() {
		var it types.EvidenceItem
		if err := rows.Scan(&it.Source, &it.URL, &it.Provider, &it.ReliabilityScore, &it.ReliabilityReason); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
