// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/persona-digest/internal/pages"
	"github.com/pdiddy/persona-digest/pkg/types"
)

// ErrInvalidInput reports a batch description that cannot be processed:
// unreadable, malformed, or missing a required key.
var ErrInvalidInput = errors.New("invalid input")

// InputFile is the default batch description file name.
const InputFile = "challenge1b_input.json"

// DefaultInputDirs are searched, in order, for document files.
var DefaultInputDirs = []string{"/app/input", "input"}

// DefaultInputPath returns /app/challenge1b_input.json when it exists and
// the bare file name otherwise.
func DefaultInputPath() string {
	return firstExisting(filepath.Join("/app", InputFile), InputFile)
}

// requiredKeys maps each required top-level key to the key it must hold,
// if any.
var requiredKeys = []struct{ key, field string }{
	{key: "documents"},
	{key: "persona", field: "role"},
	{key: "job_to_be_done", field: "task"},
}

// LoadInput reads and validates the batch description at path. Files with
// a .yaml or .yml extension are parsed as YAML, everything else as JSON.
func LoadInput(path string) (*types.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidInput, path, err)
	}
	in, err := ParseInput(data, isYAML(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// ParseInput decodes a batch description and checks that documents,
// persona.role and job_to_be_done.task are present.
func ParseInput(data []byte, yamlFormat bool) (*types.Input, error) {
	unmarshal := json.Unmarshal
	if yamlFormat {
		unmarshal = yaml.Unmarshal
	}

	var raw map[string]any
	if err := unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing: %v", ErrInvalidInput, err)
	}
	for _, rk := range requiredKeys {
		v, ok := raw[rk.key]
		if !ok || v == nil {
			return nil, fmt.Errorf("%w: missing %q", ErrInvalidInput, rk.key)
		}
		if rk.field == "" {
			continue
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %q must be an object", ErrInvalidInput, rk.key)
		}
		if _, ok := m[rk.field]; !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrInvalidInput, rk.key+"."+rk.field)
		}
	}

	var in types.Input
	if err := unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrInvalidInput, err)
	}
	for i, d := range in.Documents {
		if d.Filename == "" {
			return nil, fmt.Errorf("%w: document %d has no filename", ErrInvalidInput, i)
		}
	}
	return &in, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func firstExisting(candidates ...string) string {
	for _, c := range candidates {
		if pages.Exists(c) {
			return c
		}
	}
	return candidates[len(candidates)-1]
}
