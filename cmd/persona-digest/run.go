// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/persona-digest/internal/archive"
	"github.com/pdiddy/persona-digest/internal/container"
	"github.com/pdiddy/persona-digest/internal/digest"
	"github.com/pdiddy/persona-digest/internal/pages"
	"github.com/pdiddy/persona-digest/internal/rank"
	"github.com/pdiddy/persona-digest/internal/report"
	"github.com/pdiddy/persona-digest/internal/sections"
	"github.com/pdiddy/persona-digest/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process one batch and write output.json",
	Long: `Run loads the batch description (documents, persona, job to be done),
extracts candidate sections from every document it can find, ranks them,
and writes the top sections with refined excerpts to the output directory.

Missing or unreadable documents are reported and skipped. Settings come
from flags, PERSONA_DIGEST_* environment variables, or persona-digest.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		explain, _ := cmd.Flags().GetBool("explain")
		return runDigest(cmd.Context(), digestConfig(), explain, cmd.OutOrStdout())
	},
}

func init() {
	viper.SetDefault("top_n", rank.DefaultTopN)
	viper.SetDefault("min_section_words", sections.DefaultMinWords)
	viper.SetDefault("workers", 1)
	viper.SetDefault("backend", string(types.BackendPDFCPU))
	viper.SetDefault("formats", []string{string(types.FormatJSON)})
	viper.SetDefault("pdftotext_image", pages.DefaultPdftotextImage)

	f := runCmd.Flags()
	f.String("input", "", "batch description file (default: /app/challenge1b_input.json or ./challenge1b_input.json)")
	f.StringSlice("input-dir", nil, "directories searched for documents (default: /app/input, input)")
	f.String("output-dir", "", "output directory (default: /app/output if present, else output)")
	f.Int("top-n", rank.DefaultTopN, "number of sections to keep")
	f.Int("min-section-words", sections.DefaultMinWords, "content word count a section must exceed")
	f.Int("workers", 1, "documents extracted concurrently")
	f.String("backend", string(types.BackendPDFCPU), "page text backend: pdfcpu or pdftotext")
	f.StringSlice("format", []string{string(types.FormatJSON)}, "output formats: json, yaml, pdf")
	f.String("archive", "", "SQLite archive to record the run in")
	f.Bool("explain", false, "print the score breakdown of each selected section")

	for key, flag := range map[string]string{
		"input":             "input",
		"input_dirs":        "input-dir",
		"output_dir":        "output-dir",
		"top_n":             "top-n",
		"min_section_words": "min-section-words",
		"workers":           "workers",
		"backend":           "backend",
		"formats":           "format",
		"archive":           "archive",
	} {
		viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(runCmd)
}

// digestConfig assembles the run settings from viper, filling path
// defaults that depend on the filesystem.
func digestConfig() types.DigestConfig {
	cfg := types.DigestConfig{
		SelectionConfig: types.SelectionConfig{
			TopN:            viper.GetInt("top_n"),
			MinSectionWords: viper.GetInt("min_section_words"),
		},
		InputPath:   viper.GetString("input"),
		InputDirs:   viper.GetStringSlice("input_dirs"),
		OutputDir:   viper.GetString("output_dir"),
		Workers:     viper.GetInt("workers"),
		Backend:     types.PageBackend(strings.ToLower(viper.GetString("backend"))),
		ArchivePath: viper.GetString("archive"),
	}
	for _, f := range viper.GetStringSlice("formats") {
		cfg.Formats = append(cfg.Formats, types.OutputFormat(strings.ToLower(strings.TrimSpace(f))))
	}

	if cfg.InputPath == "" {
		cfg.InputPath = digest.DefaultInputPath()
	}
	if len(cfg.InputDirs) == 0 {
		cfg.InputDirs = digest.DefaultInputDirs
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = digest.DefaultOutputDir()
	}
	return cfg
}

// runDigest processes one batch with cfg, printing progress to w.
func runDigest(ctx context.Context, cfg types.DigestConfig, explain bool, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := checkFormats(cfg.Formats); err != nil {
		return err
	}

	in, err := digest.LoadInput(cfg.InputPath)
	if err != nil {
		return err
	}

	src, err := pageSource(ctx, cfg.Backend)
	if err != nil {
		return err
	}

	p := digest.New(src)
	p.Extractor = sections.Extractor{MinWords: cfg.MinSectionWords}
	p.Dirs = cfg.InputDirs
	p.TopN = cfg.TopN
	p.Workers = cfg.Workers
	p.Logger = log.Logger
	p.Out = w

	log.Info().Str("input", cfg.InputPath).Int("documents", len(in.Documents)).
		Str("persona", in.Role()).Msg("processing batch")

	res, err := p.Run(ctx, in)
	if err != nil {
		return err
	}

	if explain {
		printExplain(w, rank.NewQuery(in.Role(), in.Task()), res.Selected)
	}

	if err := writeOutputs(cfg, res.Output, w); err != nil {
		return err
	}

	if cfg.ArchivePath != "" {
		run := archive.NewRun(res.Output, res.Selected, res.Documents, res.Summary.Sections)
		run.InputPath = cfg.InputPath
		if id, err := recordRun(ctx, cfg.ArchivePath, run); err != nil {
			log.Warn().Err(err).Str("archive", cfg.ArchivePath).Msg("archiving run failed")
		} else {
			log.Info().Int64("run", id).Str("archive", cfg.ArchivePath).Msg("run archived")
		}
	}

	fmt.Fprintln(w, "Processing completed successfully")
	return nil
}

// pageSource builds the document reader for backend. Plain .txt files are
// always read directly.
func pageSource(ctx context.Context, backend types.PageBackend) (pages.Source, error) {
	switch backend {
	case types.BackendPDFCPU, "":
		return pages.NewAutoSource(pages.PDFSource{}), nil
	case types.BackendPdftotext:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		pdf, err := pages.NewPdftotextSource(ctx, rt, viper.GetString("pdftotext_image"))
		if err != nil {
			return nil, err
		}
		return pages.NewAutoSource(pdf), nil
	default:
		return nil, fmt.Errorf("unsupported backend %q: use pdfcpu or pdftotext", backend)
	}
}

func checkFormats(formats []types.OutputFormat) error {
	for _, f := range formats {
		switch f {
		case types.FormatJSON, types.FormatYAML, types.FormatPDF:
		default:
			return fmt.Errorf("unsupported format %q: use json, yaml or pdf", f)
		}
	}
	return nil
}

// writeOutputs always writes output.json, then any additional formats.
func writeOutputs(cfg types.DigestConfig, out *types.Output, w io.Writer) error {
	path, err := digest.WriteJSON(cfg.OutputDir, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %s\n", path)

	for _, f := range cfg.Formats {
		switch f {
		case types.FormatYAML:
			path, err = digest.WriteYAML(cfg.OutputDir, out)
		case types.FormatPDF:
			path, err = report.WriteFile(cfg.OutputDir, out)
		default:
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %s\n", path)
	}
	return nil
}

func recordRun(ctx context.Context, path string, run archive.Run) (int64, error) {
	store, err := archive.Open(path)
	if err != nil {
		return 0, err
	}
	defer store.Close()
	return store.Record(ctx, run)
}

// printExplain prints the score terms of each selected section.
func printExplain(w io.Writer, q rank.Query, selected []types.ScoredSection) {
	fmt.Fprintf(w, "\n%-4s  %-5s  %-30s  %-4s  %s\n", "Rank", "Score", "Document", "Page", "Section")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for i, s := range selected {
		fmt.Fprintf(w, "%-4d  %-5d  %-30s  %-4d  %s\n", i+1, s.Score, truncate(s.Document, 30), s.PageNum, s.Title)

		b := q.Explain(s.CandidateSection)
		fmt.Fprintf(w, "      title/task %d, content/query %d, common words %d, doc title %d, title keyword %d, long %d, numeric %d\n",
			b.TitleTask, b.ContentQuery, b.CommonWords, b.DocTitle, b.TitleKeyword, b.LongContent, b.NumericDetail)
	}
	fmt.Fprintln(w)
}
