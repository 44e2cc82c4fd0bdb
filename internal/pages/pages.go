// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pages turns a document file into the ordered text of its pages.
// Backends are pluggable: pdfcpu parses PDFs in-process, pdftotext runs
// poppler in a container, and plain text files split pages on form feeds.
package pages

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrNotFound reports that a document file does not exist.
var ErrNotFound = errors.New("document not found")

// Source extracts page texts from a document. The result has one entry per
// page, in order; pages without extractable text are empty strings. An
// error means the document could not be read at all.
type Source interface {
	Pages(ctx context.Context, path string) ([]string, error)
}

// Resolve returns the first dir/filename that exists, searching dirs in
// order. When none exists it returns filename unchanged.
func Resolve(filename string, dirs []string) string {
	for _, dir := range dirs {
		p := filepath.Join(dir, filename)
		if Exists(p) {
			return p
		}
	}
	return filename
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Normalize folds compatibility characters (ligatures, full-width forms)
// with NFKC and converts CRLF/CR line endings to LF.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return norm.NFKC.String(text)
}

// splitPages splits text on form feeds. A trailing form feed does not
// start an extra page.
func splitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if len(pages) > 1 && pages[len(pages)-1] == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

// TextSource reads plain text files whose pages are separated by form
// feed characters.
type TextSource struct{}

// Pages implements Source.
func (TextSource) Pages(_ context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return splitPages(Normalize(string(data))), nil
}

// AutoSource picks a backend by file extension: .txt files go to Text,
// everything else to PDF.
type AutoSource struct {
	PDF  Source
	Text Source
}

// NewAutoSource pairs a PDF backend with the plain text reader.
func NewAutoSource(pdf Source) AutoSource {
	return AutoSource{PDF: pdf, Text: TextSource{}}
}

// Pages implements Source.
func (a AutoSource) Pages(ctx context.Context, path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		return a.Text.Pages(ctx, path)
	}
	return a.PDF.Pages(ctx, path)
}
