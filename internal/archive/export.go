// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

const exportLimit = 100000

// ExportYAML writes every run matching opts, with its matching sections,
// to w as a YAML list. It supports the same filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, opts QueryOptions) error {
	runs, err := s.exportRuns(ctx, opts)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the same content as ExportYAML as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, opts QueryOptions) error {
	runs, err := s.exportRuns(ctx, opts)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// exportRuns groups matching sections under their runs, newest run first.
func (s *Store) exportRuns(ctx context.Context, opts QueryOptions) ([]Run, error) {
	opts.MaxResults = exportLimit
	hits, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	byID := make(map[int64]int)
	runs := []Run{}
	for _, h := range hits {
		i, ok := byID[h.RunID]
		if !ok {
			r, err := s.runHeader(ctx, h.RunID)
			if err != nil {
				return nil, err
			}
			i = len(runs)
			byID[h.RunID] = i
			runs = append(runs, *r)
		}
		runs[i].Sections = append(runs[i].Sections, h.Section)
	}
	return runs, nil
}
