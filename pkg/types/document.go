// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the persona-digest pipeline:
// the input description of a batch (documents, persona, job), the sections
// carried between stages, and the output digest.
package types

// DocumentRef identifies a source document in the input batch.
type DocumentRef struct {
	// Filename is the document file name, resolved against the input directories.
	Filename string `json:"filename" yaml:"filename"`

	// Title is the display title of the document.
	Title string `json:"title" yaml:"title"`
}

// Persona describes who is reading.
type Persona struct {
	Role string `json:"role" yaml:"role"`
}

// JobToBeDone describes what the reader is trying to accomplish.
type JobToBeDone struct {
	Task string `json:"task" yaml:"task"`
}

// ChallengeInfo is optional bookkeeping carried by some input files. It does
// not influence ranking.
type ChallengeInfo struct {
	ChallengeID  string `json:"challenge_id,omitempty" yaml:"challenge_id,omitempty"`
	TestCaseName string `json:"test_case_name,omitempty" yaml:"test_case_name,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Input is the batch description: which documents to read, who is reading,
// and why. Documents, Persona and JobToBeDone are required; pointer fields
// let the loader tell a missing key from an empty one.
type Input struct {
	ChallengeInfo *ChallengeInfo `json:"challenge_info,omitempty" yaml:"challenge_info,omitempty"`
	Documents     []DocumentRef  `json:"documents" yaml:"documents"`
	Persona       *Persona       `json:"persona" yaml:"persona"`
	JobToBeDone   *JobToBeDone   `json:"job_to_be_done" yaml:"job_to_be_done"`
}

// Filenames returns the configured document file names in input order.
func (in *Input) Filenames() []string {
	names := make([]string, len(in.Documents))
	for i, d := range in.Documents {
		names[i] = d.Filename
	}
	return names
}

// Role returns the persona role, or "" when no persona is set.
func (in *Input) Role() string {
	if in.Persona == nil {
		return ""
	}
	return in.Persona.Role
}

// Task returns the job-to-be-done task, or "" when no job is set.
func (in *Input) Task() string {
	if in.JobToBeDone == nil {
		return ""
	}
	return in.JobToBeDone.Task
}
