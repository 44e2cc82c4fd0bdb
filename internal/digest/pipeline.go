// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package digest runs one persona-digest batch: it extracts candidate
// sections from every configured document, ranks the pooled sections
// against the persona and task, refines the top ones, and assembles the
// output record.
package digest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/persona-digest/internal/pages"
	"github.com/pdiddy/persona-digest/internal/rank"
	"github.com/pdiddy/persona-digest/internal/refine"
	"github.com/pdiddy/persona-digest/internal/sections"
	"github.com/pdiddy/persona-digest/pkg/types"
)

// TimestampLayout formats processing_timestamp as ISO-8601 local time with
// microseconds and no zone offset. FormatTimestamp drops the fraction when
// it is zero.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// FormatTimestamp renders t in TimestampLayout, leaving out the fraction
// when t falls on a whole second.
func FormatTimestamp(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(time.DateOnly + "T" + time.TimeOnly)
	}
	return t.Format(TimestampLayout)
}

// Summary counts the per-document outcomes of a batch.
type Summary struct {
	Extracted int
	NotFound  int
	Failed    int

	// Sections is the size of the candidate pool.
	Sections int
}

// Total returns the number of documents processed.
func (s Summary) Total() int {
	return s.Extracted + s.NotFound + s.Failed
}

// HasFailures reports whether any document was unreadable.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Result is everything a batch produced.
type Result struct {
	Output *types.Output

	// Documents holds one outcome per configured document, in input order.
	Documents []types.DocumentResult

	// Selected are the top ranked sections, in output order.
	Selected []types.ScoredSection

	Summary Summary
}

// Pipeline holds the collaborators and settings of a batch run. The zero
// value of every field except Source is usable.
type Pipeline struct {
	Source    pages.Source
	Extractor sections.Extractor

	// Dirs are searched in order for each document file name.
	Dirs []string

	// TopN is the number of sections kept. Zero uses rank.DefaultTopN.
	TopN int

	// Workers bounds concurrent document extraction. Values below 2 extract
	// documents one at a time.
	Workers int

	Logger zerolog.Logger

	// Out receives one status line per document and a batch summary.
	// Nil discards them.
	Out io.Writer

	// Now supplies the processing timestamp. Nil uses time.Now.
	Now func() time.Time
}

// New returns a pipeline reading documents with src and the default
// extraction and selection settings.
func New(src pages.Source) *Pipeline {
	return &Pipeline{
		Source: src,
		Dirs:   DefaultInputDirs,
		TopN:   rank.DefaultTopN,
		Logger: zerolog.Nop(),
	}
}

// Run processes one batch. Missing or unreadable documents are skipped
// with a warning; the only errors are an invalid input and cancellation
// of ctx.
func (p *Pipeline) Run(ctx context.Context, in *types.Input) (*Result, error) {
	if in == nil || in.Persona == nil || in.JobToBeDone == nil {
		return nil, fmt.Errorf("%w: persona and job_to_be_done are required", ErrInvalidInput)
	}

	docs, err := p.ExtractAll(ctx, in.Documents)
	if err != nil {
		return nil, err
	}

	var pool []types.CandidateSection
	for _, d := range docs {
		pool = append(pool, d.Sections...)
	}
	summary := summarize(docs, len(pool))
	p.reportBatch(docs, summary)

	ranked := rank.Rank(pool, rank.NewQuery(in.Role(), in.Task()))
	selected := rank.Top(ranked, p.TopN)

	return &Result{
		Output:    Assemble(in, selected, p.now()),
		Documents: docs,
		Selected:  selected,
		Summary:   summary,
	}, nil
}

// ExtractAll extracts every document and returns the outcomes in input
// order, whatever the number of workers.
func (p *Pipeline) ExtractAll(ctx context.Context, refs []types.DocumentRef) ([]types.DocumentResult, error) {
	results := make([]types.DocumentResult, len(refs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Workers, 1))
	for i, ref := range refs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = p.ExtractDocument(gCtx, ref)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extracting documents: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extracting documents: %w", err)
	}
	return results, nil
}

// ExtractDocument resolves one document, reads its pages and extracts its
// candidate sections. Problems are recorded in the result, never returned.
func (p *Pipeline) ExtractDocument(ctx context.Context, ref types.DocumentRef) types.DocumentResult {
	path := pages.Resolve(ref.Filename, p.Dirs)
	res := types.DocumentResult{Ref: ref, Path: path}

	if !pages.Exists(path) {
		res.Status = types.DocumentNotFound
		res.Err = fmt.Errorf("%w: %s", pages.ErrNotFound, ref.Filename)
		p.Logger.Warn().Str("document", ref.Filename).Msg("document not found, skipping")
		return res
	}

	pgs, err := p.Source.Pages(ctx, path)
	if err != nil {
		res.Status = types.DocumentFailed
		if errors.Is(err, pages.ErrNotFound) {
			res.Status = types.DocumentNotFound
		}
		res.Err = err
		p.Logger.Warn().Str("document", ref.Filename).Err(err).Msg("reading document failed, skipping")
		return res
	}

	res.Status = types.DocumentExtracted
	res.Sections = p.Extractor.Extract(ref, pgs)
	p.Logger.Debug().Str("document", ref.Filename).Int("pages", len(pgs)).
		Int("sections", len(res.Sections)).Msg("document extracted")
	return res
}

// Assemble builds the output record from the selected sections. Ranks are
// 1-based positions; input_documents lists every configured file,
// including skipped ones.
func Assemble(in *types.Input, selected []types.ScoredSection, now time.Time) *types.Output {
	extracted := make([]types.ExtractedSection, len(selected))
	for i, s := range selected {
		extracted[i] = types.ExtractedSection{
			Document:       s.Document,
			SectionTitle:   s.Title,
			ImportanceRank: i + 1,
			PageNumber:     s.PageNum,
		}
	}
	return &types.Output{
		Metadata: types.Metadata{
			InputDocuments:      in.Filenames(),
			Persona:             in.Role(),
			JobToBeDone:         in.Task(),
			ProcessingTimestamp: FormatTimestamp(now),
		},
		ExtractedSections:  extracted,
		SubsectionAnalysis: refine.All(selected),
	}
}

func summarize(docs []types.DocumentResult, sections int) Summary {
	s := Summary{Sections: sections}
	for _, d := range docs {
		switch d.Status {
		case types.DocumentExtracted:
			s.Extracted++
		case types.DocumentNotFound:
			s.NotFound++
		case types.DocumentFailed:
			s.Failed++
		}
	}
	return s
}

func (p *Pipeline) reportBatch(docs []types.DocumentResult, s Summary) {
	w := p.Out
	if w == nil {
		return
	}
	for _, d := range docs {
		switch d.Status {
		case types.DocumentExtracted:
			fmt.Fprintf(w, "extracted: %s (%d sections)\n", d.Ref.Filename, len(d.Sections))
		case types.DocumentNotFound:
			fmt.Fprintf(w, "skipped: %s (not found)\n", d.Ref.Filename)
		case types.DocumentFailed:
			fmt.Fprintf(w, "failed:  %s (%v)\n", d.Ref.Filename, d.Err)
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d extracted, %d not found, %d failed (total: %d), %d candidate sections\n",
		s.Extracted, s.NotFound, s.Failed, s.Total(), s.Sections)
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
