// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/persona-digest/internal/archive"
)

const defaultArchive = "persona-digest.db"

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect archived runs (list, show, search, export, delete)",
	Long: `History reads the SQLite archive written by run --archive. Use
subcommands to list past runs, show one run, search archived sections with
full-text queries, export runs to YAML or JSON, or delete a run.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := store.Runs(cmd.Context(), limit)
		if err != nil {
			return err
		}
		return formatRuns(cmd.OutOrStdout(), runs)
	},
}

func formatRuns(w io.Writer, runs []archive.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs archived.")
		return nil
	}
	fmt.Fprintf(w, "%-5s  %-26s  %-24s  %-5s  %s\n", "Run", "Processed", "Persona", "Docs", "Job")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range runs {
		fmt.Fprintf(w, "%-5d  %-26s  %-24s  %-5d  %s\n",
			r.ID, r.ProcessedAt, truncate(r.Persona, 24), len(r.Documents), truncate(r.Job, 40))
	}
	fmt.Fprintf(w, "\n%d runs\n", len(runs))
	return nil
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one archived run with its ranked sections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRunID(args[0])
		if err != nil {
			return err
		}
		store, err := openArchive(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		run, err := store.Run(cmd.Context(), id)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Run %d  %s\n", run.ID, run.ProcessedAt)
		fmt.Fprintf(w, "Persona: %s\nJob:     %s\n", run.Persona, run.Job)
		fmt.Fprintf(w, "Documents: %s\n", strings.Join(run.Documents, ", "))
		if len(run.Skipped) > 0 {
			fmt.Fprintf(w, "Skipped:   %s\n", strings.Join(run.Skipped, ", "))
		}
		fmt.Fprintf(w, "Candidates: %d\n\n", run.Candidates)
		for _, s := range run.Sections {
			fmt.Fprintf(w, "%d. %s (%s, page %d, score %d)\n   %s\n",
				s.Rank, s.Title, s.Document, s.Page, s.Score, s.RefinedText)
		}
		return nil
	},
}

// --- search subcommand ---

var historySearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search archived sections with full-text search and filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := historyQuery(cmd, args)
		if opts.Query == "" && opts.Document == "" && opts.Persona == "" {
			return fmt.Errorf("query or filter required: provide a search query, --document, or --persona")
		}

		store, err := openArchive(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		hits, err := store.Retrieve(cmd.Context(), opts)
		if err != nil {
			return err
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		return formatHits(cmd.OutOrStdout(), hits, jsonOutput)
	},
}

func formatHits(w io.Writer, hits []archive.Hit, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(hits) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-5s  %-4s  %-40s  %-24s  %s\n", "Run", "Rank", "Section", "Document", "Page")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, h := range hits {
		fmt.Fprintf(w, "%-5d  %-4d  %-40s  %-24s  %d\n",
			h.RunID, h.Rank, truncate(h.Title, 40), truncate(h.Document, 24), h.Page)
	}
	fmt.Fprintf(w, "\n%d results\n", len(hits))
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived runs to YAML or JSON",
	Long: `Export writes archived runs (or a filtered subset) with their sections
to stdout, or to the file named by --out. Supports the same filters as
search.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")

		store, err := openArchive(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		w := cmd.OutOrStdout()
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating %s: %w", outPath, err)
			}
			defer f.Close()
			w = f
		}

		return exportRuns(cmd.Context(), store, w, format, historyQuery(cmd, args))
	},
}

func exportRuns(ctx context.Context, store *archive.Store, w io.Writer, format string, opts archive.QueryOptions) error {
	switch format {
	case "yaml", "":
		return store.ExportYAML(ctx, w, opts)
	case "json":
		return store.ExportJSON(ctx, w, opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
}

// --- delete subcommand ---

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete an archived run and its sections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRunID(args[0])
		if err != nil {
			return err
		}
		store, err := openArchive(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		return deleteRun(cmd.Context(), store, id, cmd.OutOrStdout())
	},
}

func deleteRun(ctx context.Context, store *archive.Store, id int64, w io.Writer) error {
	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(w, "Deleted run %d\n", id)
	return nil
}

// --- shared helpers ---

func parseRunID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run id %q", arg)
	}
	return id, nil
}

func openArchive(cmd *cobra.Command) (*archive.Store, error) {
	path, _ := cmd.Flags().GetString("archive")
	if path == "" {
		path = defaultArchive
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("archive %s: %w", path, err)
	}
	return archive.Open(path)
}

func historyQuery(cmd *cobra.Command, args []string) archive.QueryOptions {
	document, _ := cmd.Flags().GetString("document")
	persona, _ := cmd.Flags().GetString("persona")
	limit, _ := cmd.Flags().GetInt("limit")
	return archive.QueryOptions{
		Query:      strings.Join(args, " "),
		Document:   document,
		Persona:    persona,
		MaxResults: limit,
	}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	historyCmd.PersistentFlags().String("archive", defaultArchive, "SQLite archive written by run --archive")

	historyListCmd.Flags().Int("limit", 0, "maximum runs to list (0 = use default)")

	historySearchCmd.Flags().String("document", "", "filter by document file name")
	historySearchCmd.Flags().String("persona", "", "filter by persona role")
	historySearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	historySearchCmd.Flags().Bool("json", false, "output results as JSON")

	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("out", "", "write to this file instead of stdout")
	historyExportCmd.Flags().String("document", "", "filter by document file name")
	historyExportCmd.Flags().String("persona", "", "filter by persona role")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	rootCmd.AddCommand(historyCmd)
}
