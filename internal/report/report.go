// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a digest as a printable PDF: the batch metadata
// followed by each selected section with its refined text.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/pdiddy/persona-digest/pkg/types"
)

// File is the name of the PDF digest inside the output directory.
const File = "output.pdf"

const (
	fontFamily = "Helvetica"
	bodySize   = 11.0
	lineHeight = 5.5
)

// Render writes out as a PDF to w.
func Render(out *types.Output, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Persona Digest", true)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, 10, "Persona Digest", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	m := out.Metadata
	field(pdf, tr, "Persona", m.Persona)
	field(pdf, tr, "Job to be done", m.JobToBeDone)
	field(pdf, tr, "Processed", m.ProcessingTimestamp)
	field(pdf, tr, "Documents", strings.Join(m.InputDocuments, ", "))
	pdf.Ln(4)

	if len(out.ExtractedSections) == 0 {
		pdf.SetFont(fontFamily, "I", bodySize)
		pdf.CellFormat(0, lineHeight, "No sections were selected.", "", 1, "L", false, 0, "")
	}

	for i, s := range out.ExtractedSections {
		pdf.SetFont(fontFamily, "B", 12)
		heading := fmt.Sprintf("%d. %s", s.ImportanceRank, s.SectionTitle)
		pdf.MultiCell(0, 7, tr(heading), "", "L", false)

		pdf.SetFont(fontFamily, "I", 9)
		pdf.CellFormat(0, lineHeight, tr(fmt.Sprintf("%s, page %d", s.Document, s.PageNumber)), "", 1, "L", false, 0, "")

		if i < len(out.SubsectionAnalysis) {
			pdf.SetFont(fontFamily, "", bodySize)
			pdf.MultiCell(0, lineHeight, tr(out.SubsectionAnalysis[i].RefinedText), "", "L", false)
		}
		pdf.Ln(4)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return nil
}

func field(pdf *gofpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont(fontFamily, "B", bodySize)
	pdf.CellFormat(32, lineHeight, label+":", "", 0, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", bodySize)
	pdf.MultiCell(0, lineHeight, tr(value), "", "L", false)
}

// WriteFile renders out to dir/output.pdf and returns the file path.
func WriteFile(dir string, out *types.Output) (string, error) {
	var buf bytes.Buffer
	if err := Render(out, &buf); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	p := filepath.Join(dir, File)
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", p, err)
	}
	return p, nil
}
