// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrRunNotFound reports a run ID that is not in the archive.
var ErrRunNotFound = errors.New("run not found")

// QueryOptions holds parameters for archive queries.
type QueryOptions struct {
	// Query is an FTS5 full-text search over section titles, content and
	// refined text.
	Query string

	// Document filters by source document file name.
	Document string

	// Persona filters by exact persona role.
	Persona string

	// RunID filters by run. Zero matches every run.
	RunID int64

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Hit is an archived section together with the run it belongs to.
type Hit struct {
	Section     `yaml:",inline"`
	RunID       int64  `json:"run_id" yaml:"run_id"`
	ProcessedAt string `json:"processed_at" yaml:"processed_at"`
	Persona     string `json:"persona" yaml:"persona"`
	Job         string `json:"job_to_be_done" yaml:"job_to_be_done"`
}

// Retrieve queries archived sections with optional full-text search and
// filters. Full-text results are ordered by FTS rank; filter-only results
// by newest run first, then section rank.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]Hit, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	const cols = `s.rank, s.score, s.document, s.doc_title, s.title, s.page,
		s.content, s.refined_text, r.id, r.processed_at, r.persona, r.job`
	if useFTS {
		qb.WriteString(`SELECT ` + cols + `
			FROM sections_fts
			JOIN sections s ON s.rowid = sections_fts.rowid
			JOIN runs r ON r.id = s.run_id
			WHERE sections_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(`SELECT ` + cols + `
			FROM sections s
			JOIN runs r ON r.id = s.run_id
			WHERE 1=1`)
	}

	if opts.Document != "" {
		qb.WriteString(` AND s.document = ?`)
		args = append(args, opts.Document)
	}
	if opts.Persona != "" {
		qb.WriteString(` AND r.persona = ?`)
		args = append(args, opts.Persona)
	}
	if opts.RunID != 0 {
		qb.WriteString(` AND s.run_id = ?`)
		args = append(args, opts.RunID)
	}

	if useFTS {
		qb.WriteString(` ORDER BY sections_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.id DESC, s.rank`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			h        Hit
			docTitle sql.NullString
		)
		if err := rows.Scan(
			&h.Rank, &h.Score, &h.Document, &docTitle, &h.Title, &h.Page,
			&h.Content, &h.RefinedText, &h.RunID, &h.ProcessedAt, &h.Persona, &h.Job,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		h.DocTitle = docTitle.String
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Runs lists archived runs, newest first, without their sections.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, processed_at, persona, job, input_path, documents, skipped, candidates
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run loads one run with its sections in rank order.
func (s *Store) Run(ctx context.Context, id int64) (*Run, error) {
	r, err := s.runHeader(ctx, id)
	if err != nil {
		return nil, err
	}

	hits, err := s.Retrieve(ctx, QueryOptions{RunID: id, MaxResults: exportLimit})
	if err != nil {
		return nil, err
	}
	r.Sections = make([]Section, len(hits))
	for i, h := range hits {
		r.Sections[i] = h.Section
	}
	return r, nil
}

// runHeader loads one run without its sections.
func (s *Store) runHeader(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, processed_at, persona, job, input_path, documents, skipped, candidates
		 FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
		}
		return nil, err
	}
	return &r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (Run, error) {
	var (
		r           Run
		inputPath   sql.NullString
		docsJSON    sql.NullString
		skippedJSON sql.NullString
	)
	if err := sc.Scan(&r.ID, &r.ProcessedAt, &r.Persona, &r.Job,
		&inputPath, &docsJSON, &skippedJSON, &r.Candidates); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}
	r.InputPath = inputPath.String
	if docsJSON.Valid {
		json.Unmarshal([]byte(docsJSON.String), &r.Documents)
	}
	if skippedJSON.Valid {
		json.Unmarshal([]byte(skippedJSON.String), &r.Skipped)
	}
	return r, nil
}
