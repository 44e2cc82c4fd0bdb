// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/persona-digest/pkg/types"
)

const (
	// OutputFile is the name of the JSON digest inside the output directory.
	OutputFile = "output.json"
	// YAMLFile is the name of the optional YAML copy.
	YAMLFile = "output.yaml"
)

// DefaultOutputDir returns /app/output when that directory exists and
// "output" otherwise.
func DefaultOutputDir() string {
	if info, err := os.Stat("/app/output"); err == nil && info.IsDir() {
		return "/app/output"
	}
	return "output"
}

// MarshalJSON encodes out as JSON indented with four spaces, without HTML
// escaping and with a trailing newline.
func MarshalJSON(out *types.Output) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encoding output: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalYAML encodes out as YAML with the same keys as the JSON digest.
func MarshalYAML(out *types.Output) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encoding output: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding output: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteJSON writes out to dir/output.json, creating dir if needed, and
// returns the file path.
func WriteJSON(dir string, out *types.Output) (string, error) {
	data, err := MarshalJSON(out)
	if err != nil {
		return "", err
	}
	return writeOutput(dir, OutputFile, data)
}

// WriteYAML writes out to dir/output.yaml and returns the file path.
func WriteYAML(dir string, out *types.Output) (string, error) {
	data, err := MarshalYAML(out)
	if err != nil {
		return "", err
	}
	return writeOutput(dir, YAMLFile, data)
}

func writeOutput(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", p, err)
	}
	return p, nil
}
