// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/persona-digest/internal/refine"
	"github.com/pdiddy/persona-digest/pkg/types"
)

// filler is lowercase body text; it never looks like a heading.
const filler = "the local guide describes each stop in detail, with notes on timing, " +
	"costs for groups of friends, and where to eat near the old town. " +
	"visitors should plan at least two hours for the walking route, " +
	"and bring water because the afternoon sun is strong in summer."

// fakeSource implements pages.Source with canned pages keyed by base name.
type fakeSource struct {
	mu    sync.Mutex
	pages map[string][]string
	errs  map[string]error
	calls []string
}

func (f *fakeSource) Pages(_ context.Context, path string) ([]string, error) {
	name := filepath.Base(path)
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	if err := f.errs[name]; err != nil {
		return nil, err
	}
	return f.pages[name], nil
}

// page builds one page with a section per title.
func page(titles ...string) string {
	var b strings.Builder
	for i, title := range titles {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(title + "\n" + filler + "\n" + filler)
	}
	return b.String()
}

// touch creates placeholder files so document paths resolve.
func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
}

func testInput(files ...string) *types.Input {
	in := &types.Input{
		Persona:     &types.Persona{Role: "Travel Planner"},
		JobToBeDone: &types.JobToBeDone{Task: "Plan a trip for a group of friends"},
	}
	for _, f := range files {
		in.Documents = append(in.Documents, types.DocumentRef{Filename: f, Title: strings.TrimSuffix(f, ".pdf")})
	}
	return in
}

var fixedNow = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 123456000, time.Local) }

func newTestPipeline(t *testing.T, src *fakeSource) (*Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	p := New(src)
	p.Dirs = []string{dir}
	p.Now = fixedNow
	return p, dir
}

func TestRunSkipsMissingDocument(t *testing.T) {
	src := &fakeSource{pages: map[string][]string{
		"cities.pdf": {page("Nice Overview:", "Summary of Markets:")},
	}}
	p, dir := newTestPipeline(t, src)
	touch(t, dir, "cities.pdf")
	var out bytes.Buffer
	p.Out = &out

	res, err := p.Run(context.Background(), testInput("cities.pdf", "missing.pdf"))
	require.NoError(t, err)

	assert.Equal(t, []string{"cities.pdf", "missing.pdf"}, res.Output.Metadata.InputDocuments)
	assert.Equal(t, Summary{Extracted: 1, NotFound: 1, Sections: 2}, res.Summary)
	assert.Equal(t, []string{"cities.pdf"}, src.calls, "missing files are never opened")
	require.Len(t, res.Documents, 2)
	assert.Equal(t, types.DocumentNotFound, res.Documents[1].Status)
	assert.True(t, res.Documents[1].Skipped())

	for _, s := range res.Output.ExtractedSections {
		assert.Equal(t, "cities.pdf", s.Document)
	}
	assert.Contains(t, out.String(), "extracted: cities.pdf (2 sections)")
	assert.Contains(t, out.String(), "skipped: missing.pdf (not found)")
	assert.Contains(t, out.String(), "Batch summary: 1 extracted, 1 not found, 0 failed (total: 2), 2 candidate sections")
}

func TestRunSkipsUnreadableDocument(t *testing.T) {
	src := &fakeSource{
		pages: map[string][]string{"good.pdf": {page("Summary:")}},
		errs:  map[string]error{"broken.pdf": errors.New("xref table corrupt")},
	}
	p, dir := newTestPipeline(t, src)
	touch(t, dir, "broken.pdf", "good.pdf")
	var out bytes.Buffer
	p.Out = &out

	res, err := p.Run(context.Background(), testInput("broken.pdf", "good.pdf"))
	require.NoError(t, err)

	assert.True(t, res.Summary.HasFailures())
	assert.Equal(t, 2, res.Summary.Total())
	assert.Equal(t, types.DocumentFailed, res.Documents[0].Status)
	assert.EqualError(t, res.Documents[0].Err, "xref table corrupt")
	require.Len(t, res.Output.ExtractedSections, 1)
	assert.Equal(t, "good.pdf", res.Output.ExtractedSections[0].Document)
	assert.Contains(t, out.String(), "failed:  broken.pdf (xref table corrupt)")
}

func TestRunRanksAndRefines(t *testing.T) {
	src := &fakeSource{pages: map[string][]string{
		"a.pdf": {page("Old Town Walk:", "Group Dining Options:"), page("Summary of the Trip:")},
		"b.pdf": {"", page("Beach Days:", "Evening Plans:", "Budget Notes:")},
	}}
	p, dir := newTestPipeline(t, src)
	touch(t, dir, "a.pdf", "b.pdf")

	res, err := p.Run(context.Background(), testInput("a.pdf", "b.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 6, res.Summary.Sections)

	out := res.Output
	require.Len(t, out.ExtractedSections, 5)
	require.Len(t, out.SubsectionAnalysis, 5)
	for i, s := range out.ExtractedSections {
		assert.Equal(t, i+1, s.ImportanceRank)
		assert.Equal(t, res.Selected[i].Title, s.SectionTitle)
		assert.Equal(t, res.Selected[i].PageNum, s.PageNumber)
		assert.Equal(t, s.Document, out.SubsectionAnalysis[i].Document)
		assert.Equal(t, s.PageNumber, out.SubsectionAnalysis[i].PageNumber)
		assert.True(t, strings.HasPrefix(out.SubsectionAnalysis[i].RefinedText, refine.Prefix))
		if i > 0 {
			assert.GreaterOrEqual(t, res.Selected[i-1].Score, res.Selected[i].Score)
		}
	}

	// The summary title term lifts it above otherwise identical sections.
	assert.Equal(t, "Summary of the Trip:", out.ExtractedSections[0].SectionTitle)
	assert.Equal(t, 2, out.ExtractedSections[0].PageNumber)

	assert.Equal(t, "Travel Planner", out.Metadata.Persona)
	assert.Equal(t, "Plan a trip for a group of friends", out.Metadata.JobToBeDone)
	assert.Equal(t, "2026-03-01T09:30:00.123456", out.Metadata.ProcessingTimestamp)
}

func TestRunTopN(t *testing.T) {
	src := &fakeSource{pages: map[string][]string{"a.pdf": {page("One:", "Two:", "Three:")}}}
	p, dir := newTestPipeline(t, src)
	touch(t, dir, "a.pdf")

	p.TopN = 2
	res, err := p.Run(context.Background(), testInput("a.pdf"))
	require.NoError(t, err)
	assert.Len(t, res.Output.ExtractedSections, 2)

	p.TopN = 10
	res, err = p.Run(context.Background(), testInput("a.pdf"))
	require.NoError(t, err)
	assert.Len(t, res.Output.ExtractedSections, 3)
}

func TestRunNoSections(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeSource{})

	res, err := p.Run(context.Background(), testInput("nowhere.pdf"))
	require.NoError(t, err)
	assert.Empty(t, res.Output.ExtractedSections)

	data, err := MarshalJSON(res.Output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"extracted_sections": []`)
	assert.Contains(t, string(data), `"subsection_analysis": []`)
}

func TestRunDeterministic(t *testing.T) {
	src := &fakeSource{pages: map[string][]string{
		"a.pdf": {page("Alpha:", "Beta:")},
		"b.pdf": {page("Gamma:", "Delta:")},
		"c.pdf": {page("Epsilon:", "Summary:")},
	}}
	p, dir := newTestPipeline(t, src)
	touch(t, dir, "a.pdf", "b.pdf", "c.pdf")
	in := testInput("a.pdf", "b.pdf", "c.pdf")

	render := func(workers int) []byte {
		p.Workers = workers
		res, err := p.Run(context.Background(), in)
		require.NoError(t, err)
		data, err := MarshalJSON(res.Output)
		require.NoError(t, err)
		return data
	}

	first := render(1)
	assert.Equal(t, first, render(1))
	assert.Equal(t, first, render(4), "parallel extraction keeps pool order")
}

func TestRunCancelled(t *testing.T) {
	p, dir := newTestPipeline(t, &fakeSource{})
	touch(t, dir, "a.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx, testInput("a.pdf"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRejectsIncompleteInput(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeSource{})

	_, err := p.Run(context.Background(), &types.Input{Persona: &types.Persona{Role: "x"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = p.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAssemble(t *testing.T) {
	selected := []types.ScoredSection{
		{CandidateSection: types.CandidateSection{Document: "b.pdf", Title: "Second:", Content: "short", PageNum: 3}, Score: 9},
		{CandidateSection: types.CandidateSection{Document: "a.pdf", Title: "First:", Content: "short", PageNum: 1}, Score: 4},
	}
	out := Assemble(testInput("a.pdf", "b.pdf", "c.pdf"), selected, fixedNow())

	assert.Equal(t, []types.ExtractedSection{
		{Document: "b.pdf", SectionTitle: "Second:", ImportanceRank: 1, PageNumber: 3},
		{Document: "a.pdf", SectionTitle: "First:", ImportanceRank: 2, PageNumber: 1},
	}, out.ExtractedSections)
	assert.Equal(t, refine.Fallback, out.SubsectionAnalysis[0].RefinedText)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, out.Metadata.InputDocuments)
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{name: "microseconds", at: fixedNow(), want: "2026-03-01T09:30:00.123456"},
		{name: "leading zeros kept", at: time.Date(2026, 3, 1, 9, 30, 0, 4000, time.Local), want: "2026-03-01T09:30:00.000004"},
		{name: "whole second", at: time.Date(2026, 3, 1, 9, 30, 5, 0, time.Local), want: "2026-03-01T09:30:05"},
		{name: "sub-microsecond dropped", at: time.Date(2026, 3, 1, 9, 30, 5, 999, time.Local), want: "2026-03-01T09:30:05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTimestamp(tt.at))
		})
	}
}
