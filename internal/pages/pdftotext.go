// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pages

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/persona-digest/internal/container"
)

// DefaultPdftotextImage is the container image that provides poppler's
// pdftotext on its PATH.
const DefaultPdftotextImage = "poppler-utils:latest"

// PdftotextSource extracts page text by piping the PDF through pdftotext
// inside a container. pdftotext separates pages with form feeds.
type PdftotextSource struct {
	runtime container.Runtime
	image   string
}

// NewPdftotextSource creates a source that runs image on rt. It verifies
// the image exists locally before returning.
func NewPdftotextSource(ctx context.Context, rt container.Runtime, image string) (*PdftotextSource, error) {
	if image == "" {
		image = DefaultPdftotextImage
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("pdftotext image not available in %s: %w", rt.Name(), err)
	}
	return &PdftotextSource{runtime: rt, image: image}, nil
}

// Pages implements Source.
func (p *PdftotextSource) Pages(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var out bytes.Buffer
	job := container.Job{
		Image:  p.image,
		Args:   []string{"pdftotext", "-enc", "UTF-8", "-", "-"},
		Stdin:  f,
		Stdout: &out,
	}
	if err := p.runtime.Run(ctx, job); err != nil {
		return nil, fmt.Errorf("converting %s with pdftotext: %w", path, err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("pdftotext produced empty output for %s", path)
	}
	return splitPages(Normalize(out.String())), nil
}
