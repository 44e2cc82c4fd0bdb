// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Output is the digest written for one batch. Field order and key names
// are the external contract.
type Output struct {
	Metadata           Metadata             `json:"metadata" yaml:"metadata"`
	ExtractedSections  []ExtractedSection   `json:"extracted_sections" yaml:"extracted_sections"`
	SubsectionAnalysis []SubsectionAnalysis `json:"subsection_analysis" yaml:"subsection_analysis"`
}

// Metadata records what the digest was computed from.
type Metadata struct {
	// InputDocuments lists every configured file name, including skipped ones.
	InputDocuments []string `json:"input_documents" yaml:"input_documents"`

	Persona     string `json:"persona" yaml:"persona"`
	JobToBeDone string `json:"job_to_be_done" yaml:"job_to_be_done"`

	// ProcessingTimestamp is an ISO-8601 local timestamp taken when the
	// metadata was created.
	ProcessingTimestamp string `json:"processing_timestamp" yaml:"processing_timestamp"`
}

// ExtractedSection is one entry of the ranked selection.
type ExtractedSection struct {
	Document     string `json:"document" yaml:"document"`
	SectionTitle string `json:"section_title" yaml:"section_title"`

	// ImportanceRank is the 1-based position in the selection, not the raw score.
	ImportanceRank int `json:"importance_rank" yaml:"importance_rank"`

	PageNumber int `json:"page_number" yaml:"page_number"`
}

// SubsectionAnalysis is the refined summary of one selected section, in
// the same order as ExtractedSections.
type SubsectionAnalysis struct {
	Document    string `json:"document" yaml:"document"`
	RefinedText string `json:"refined_text" yaml:"refined_text"`
	PageNumber  int    `json:"page_number" yaml:"page_number"`
}
