//go:build mage

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPackageLines(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "internal", "rank", "rank.go"), "package rank\n\nfunc A() {}\n")
	writeFile(t, filepath.Join(root, "internal", "rank", "rank_test.go"), "package rank\n\n\nfunc TestA() {}\n")
	writeFile(t, filepath.Join(root, "internal", "rank", "notes.md"), "not go\n")
	writeFile(t, filepath.Join(root, "_examples", "x", "x.go"), "package x\n")
	writeFile(t, filepath.Join(root, ".cache", "y.go"), "package y\n")

	counts, err := packageLines(root)
	require.NoError(t, err)

	dir := filepath.ToSlash(filepath.Join(root, "internal", "rank"))
	assert.Equal(t, map[string]lineCount{dir: {prod: 2, test: 2}}, counts)
}

func TestInputDocuments(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.PDF", "c.txt", "d.json"} {
		writeFile(t, filepath.Join(dir, name), "x")
	}

	n, err := inputDocuments(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = inputDocuments(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Zero(t, n)
}
