// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PageBackend identifies the tool used to pull page text out of documents.
type PageBackend string

const (
	BackendPDFCPU    PageBackend = "pdfcpu"
	BackendPdftotext PageBackend = "pdftotext"
)

// OutputFormat selects an output file written next to output.json.
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
	FormatPDF  OutputFormat = "pdf"
)

// SelectionConfig holds the ranking and selection settings.
type SelectionConfig struct {
	// TopN is the number of sections kept after ranking (default 5).
	TopN int `json:"top_n" yaml:"top_n"`

	// MinSectionWords is the content word count a section must exceed to be
	// kept (default 30).
	MinSectionWords int `json:"min_section_words" yaml:"min_section_words"`
}

// DigestConfig holds the settings for one persona-digest run.
type DigestConfig struct {
	SelectionConfig `yaml:",inline"`

	// InputPath is the batch description file (JSON or YAML).
	InputPath string `json:"input" yaml:"input"`

	// InputDirs are searched in order for each document file name.
	InputDirs []string `json:"input_dirs" yaml:"input_dirs"`

	// OutputDir receives output.json and any additional formats.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Workers bounds concurrent document extraction (default 1).
	Workers int `json:"workers" yaml:"workers"`

	// Backend selects the page text extractor: pdfcpu or pdftotext.
	Backend PageBackend `json:"backend" yaml:"backend"`

	// Formats lists output formats; json is always written.
	Formats []OutputFormat `json:"formats" yaml:"formats"`

	// ArchivePath is the SQLite run archive. Empty disables archiving.
	ArchivePath string `json:"archive,omitempty" yaml:"archive,omitempty"`
}
