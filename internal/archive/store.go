// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive keeps a history of digest runs in SQLite. Each run
// stores its metadata and the ranked sections with their raw scores and
// refined text; an FTS5 index over section text backs history search.
// The pipeline only writes here, it never reads past runs back.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/persona-digest/pkg/types"
)

const defaultMaxResults = 20

// Store manages the archive database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the archive database at path, creating the parent
// directory and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, maxResults: defaultMaxResults}
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
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			processed_at TEXT NOT NULL,
			persona TEXT NOT NULL,
			job TEXT NOT NULL,
			input_path TEXT,
			documents TEXT,
			skipped TEXT,
			candidates INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			rank INTEGER NOT NULL,
			score INTEGER NOT NULL,
			document TEXT NOT NULL,
			doc_title TEXT,
			title TEXT NOT NULL,
			page INTEGER NOT NULL,
			content TEXT NOT NULL,
			refined_text TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sections_run_id ON sections(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sections_document ON sections(document)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='sections_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE sections_fts USING fts5(title, content, refined_text, content=sections, content_rowid=rowid)`,
			`CREATE TRIGGER sections_ai AFTER INSERT ON sections BEGIN
				INSERT INTO sections_fts(rowid, title, content, refined_text)
				VALUES (new.rowid, new.title, new.content, new.refined_text);
			END`,
			`CREATE TRIGGER sections_ad AFTER DELETE ON sections BEGIN
				INSERT INTO sections_fts(sections_fts, rowid, title, content, refined_text)
				VALUES ('delete', old.rowid, old.title, old.content, old.refined_text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Section is one archived selection entry.
type Section struct {
	Rank        int    `json:"rank" yaml:"rank"`
	Score       int    `json:"score" yaml:"score"`
	Document    string `json:"document" yaml:"document"`
	DocTitle    string `json:"doc_title,omitempty" yaml:"doc_title,omitempty"`
	Title       string `json:"title" yaml:"title"`
	Page        int    `json:"page" yaml:"page"`
	Content     string `json:"content" yaml:"content"`
	RefinedText string `json:"refined_text" yaml:"refined_text"`
}

// Run is one archived batch.
type Run struct {
	ID          int64    `json:"id" yaml:"id"`
	ProcessedAt string   `json:"processed_at" yaml:"processed_at"`
	Persona     string   `json:"persona" yaml:"persona"`
	Job         string   `json:"job_to_be_done" yaml:"job_to_be_done"`
	InputPath   string   `json:"input_path,omitempty" yaml:"input_path,omitempty"`
	Documents   []string `json:"documents" yaml:"documents"`

	// Skipped lists the documents that were missing or unreadable.
	Skipped []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	// Candidates is the size of the ranked pool.
	Candidates int `json:"candidates" yaml:"candidates"`

	Sections []Section `json:"sections" yaml:"sections"`
}

// NewRun builds the archive record of a batch from its output and the
// selected sections. selected and out.SubsectionAnalysis share an order.
func NewRun(out *types.Output, selected []types.ScoredSection, docs []types.DocumentResult, candidates int) Run {
	r := Run{
		ProcessedAt: out.Metadata.ProcessingTimestamp,
		Persona:     out.Metadata.Persona,
		Job:         out.Metadata.JobToBeDone,
		Documents:   out.Metadata.InputDocuments,
		Candidates:  candidates,
		Sections:    make([]Section, len(selected)),
	}
	for _, d := range docs {
		if d.Skipped() {
			r.Skipped = append(r.Skipped, d.Ref.Filename)
		}
	}
	for i, s := range selected {
		r.Sections[i] = Section{
			Rank:     i + 1,
			Score:    s.Score,
			Document: s.Document,
			DocTitle: s.DocTitle,
			Title:    s.Title,
			Page:     s.PageNum,
			Content:  s.Content,
		}
		if i < len(out.SubsectionAnalysis) {
			r.Sections[i].RefinedText = out.SubsectionAnalysis[i].RefinedText
		}
	}
	return r
}

// Record stores run and its sections in one transaction and returns the
// new run ID.
func (s *Store) Record(ctx context.Context, run Run) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	docsJSON, _ := json.Marshal(run.Documents)
	skippedJSON, _ := json.Marshal(run.Skipped)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (processed_at, persona, job, input_path, documents, skipped, candidates)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ProcessedAt, run.Persona, run.Job, run.InputPath,
		string(docsJSON), string(skippedJSON), run.Candidates,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sections (run_id, rank, score, document, doc_title, title, page, content, refined_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, sec := range run.Sections {
		if _, err := stmt.ExecContext(ctx,
			runID, sec.Rank, sec.Score, sec.Document, sec.DocTitle,
			sec.Title, sec.Page, sec.Content, sec.RefinedText,
		); err != nil {
			return 0, fmt.Errorf("inserting section %d: %w", sec.Rank, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// Delete removes a run and its sections.
func (s *Store) Delete(ctx context.Context, runID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("deleting sections: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, runID)
	}
	return tx.Commit()
}
