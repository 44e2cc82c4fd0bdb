// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/persona-digest/internal/archive"
	"github.com/pdiddy/persona-digest/internal/digest"
	"github.com/pdiddy/persona-digest/pkg/types"
)

const body = "travellers on a budget can reach every district by tram, with day passes " +
	"sold at each stop for a few euros. groups of friends often split a rental " +
	"apartment near the harbour, which keeps costs low and puts the night markets " +
	"within walking distance."

func writeBatch(t *testing.T) (dir string, cfg types.DigestConfig) {
	t.Helper()
	dir = t.TempDir()
	docs := filepath.Join(dir, "input")
	require.NoError(t, os.MkdirAll(docs, 0o755))

	guide := "Getting Around:\n" + body + "\nWhere to Stay:\n" + body + "\fNightlife Summary:\n" + body
	require.NoError(t, os.WriteFile(filepath.Join(docs, "guide.txt"), []byte(guide), 0o644))

	input := `{
		"documents": [
			{"filename": "guide.txt", "title": "City Guide"},
			{"filename": "missing.pdf", "title": "Missing"}
		],
		"persona": {"role": "Travel Planner"},
		"job_to_be_done": {"task": "Plan a cheap trip for a group of friends"}
	}`
	inputPath := filepath.Join(dir, "challenge1b_input.json")
	require.NoError(t, os.WriteFile(inputPath, []byte(input), 0o644))

	cfg = types.DigestConfig{
		SelectionConfig: types.SelectionConfig{TopN: 5, MinSectionWords: 30},
		InputPath:       inputPath,
		InputDirs:       []string{docs},
		OutputDir:       filepath.Join(dir, "output"),
		Workers:         2,
		Backend:         types.BackendPDFCPU,
		Formats:         []types.OutputFormat{types.FormatJSON},
	}
	return dir, cfg
}

func TestRunDigest(t *testing.T) {
	dir, cfg := writeBatch(t)
	cfg.Formats = []types.OutputFormat{types.FormatJSON, types.FormatYAML, types.FormatPDF}
	cfg.ArchivePath = filepath.Join(dir, "runs.db")

	var out bytes.Buffer
	require.NoError(t, runDigest(context.Background(), cfg, true, &out))

	text := out.String()
	assert.Contains(t, text, "extracted: guide.txt (3 sections)")
	assert.Contains(t, text, "skipped: missing.pdf (not found)")
	assert.Contains(t, text, "title/task")
	assert.True(t, strings.HasSuffix(text, "Processing completed successfully\n"))

	for _, name := range []string{digest.OutputFile, digest.YAMLFile, "output.pdf"} {
		assert.FileExists(t, filepath.Join(cfg.OutputDir, name))
	}

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, digest.OutputFile))
	require.NoError(t, err)
	var got types.Output
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, []string{"guide.txt", "missing.pdf"}, got.Metadata.InputDocuments)
	require.Len(t, got.ExtractedSections, 3)
	assert.Equal(t, "Nightlife Summary:", got.ExtractedSections[0].SectionTitle)
	assert.Equal(t, 2, got.ExtractedSections[0].PageNumber)

	store, err := archive.Open(cfg.ArchivePath)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Runs(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, []string{"missing.pdf"}, runs[0].Skipped)
	assert.Equal(t, cfg.InputPath, runs[0].InputPath)
}

func TestRunDigestInvalidInput(t *testing.T) {
	dir, cfg := writeBatch(t)
	require.NoError(t, os.WriteFile(cfg.InputPath, []byte(`{"documents": []}`), 0o644))

	err := runDigest(context.Background(), cfg, false, &bytes.Buffer{})
	assert.ErrorIs(t, err, digest.ErrInvalidInput)
	assert.NoFileExists(t, filepath.Join(dir, "output", digest.OutputFile))
}

func TestRunDigestRejectsSettings(t *testing.T) {
	_, cfg := writeBatch(t)

	bad := cfg
	bad.Formats = []types.OutputFormat{"docx"}
	assert.ErrorContains(t, runDigest(context.Background(), bad, false, &bytes.Buffer{}), `unsupported format "docx"`)

	bad = cfg
	bad.Backend = "ocr"
	assert.ErrorContains(t, runDigest(context.Background(), bad, false, &bytes.Buffer{}), `unsupported backend "ocr"`)
}

func TestDigestConfig(t *testing.T) {
	set := map[string]any{
		"input":      "batch.yaml",
		"input_dirs": []string{"docs"},
		"output_dir": "out",
		"formats":    []string{"JSON", " yaml"},
		"backend":    "PDFCPU",
	}
	for k, v := range set {
		viper.Set(k, v)
	}
	t.Cleanup(func() {
		for k := range set {
			viper.Set(k, nil)
		}
	})

	cfg := digestConfig()
	assert.Equal(t, "batch.yaml", cfg.InputPath)
	assert.Equal(t, []string{"docs"}, cfg.InputDirs)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, []types.OutputFormat{types.FormatJSON, types.FormatYAML}, cfg.Formats)
	assert.Equal(t, types.BackendPDFCPU, cfg.Backend)
	assert.Equal(t, 5, cfg.TopN)
	assert.Equal(t, 30, cfg.MinSectionWords)
	assert.Equal(t, 1, cfg.Workers)
}
