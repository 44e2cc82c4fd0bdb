// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CandidateSection is a heading-delimited block of text from one page of
// one document, before scoring. Values are never modified after extraction.
type CandidateSection struct {
	// Document is the source document file name.
	Document string `json:"document" yaml:"document"`

	// DocTitle is the display title of the source document.
	DocTitle string `json:"doc_title" yaml:"doc_title"`

	// Title is the first non-blank line of the block.
	Title string `json:"title" yaml:"title"`

	// Content is the remaining non-blank lines joined by single spaces.
	Content string `json:"content" yaml:"content"`

	// PageNum is the 1-based page the block was found on.
	PageNum int `json:"page_num" yaml:"page_num"`
}

// ScoredSection pairs a candidate with its additive relevance score.
// Higher scores are more relevant.
type ScoredSection struct {
	CandidateSection `yaml:",inline"`

	Score int `json:"score" yaml:"score"`
}

// DocumentStatus is the outcome of extracting sections from one document.
type DocumentStatus string

const (
	DocumentExtracted DocumentStatus = "extracted"
	DocumentNotFound  DocumentStatus = "not_found"
	DocumentFailed    DocumentStatus = "failed"
)

// DocumentResult is the per-document outcome of the extraction phase:
// either the sections found, or the reason the document was skipped.
type DocumentResult struct {
	Ref      DocumentRef
	Path     string
	Status   DocumentStatus
	Sections []CandidateSection

	// Err records why the document was skipped. Nil when Status is DocumentExtracted.
	Err error
}

// Skipped reports whether the document contributed nothing to the pool
// because it was missing or unreadable.
func (r DocumentResult) Skipped() bool {
	return r.Status != DocumentExtracted
}
