//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Run builds the CLI and processes the batch in ./challenge1b_input.json,
// reading documents from ./input and writing ./output/output.json.
func Run() error {
	mg.Deps(Build, Init)
	return sh.RunV(filepath.Join(binDir, binName), "run",
		"--input-dir", "input", "--output-dir", "output")
}

// Explain runs the batch and prints the score breakdown of each selected section.
func Explain() error {
	mg.Deps(Build, Init)
	return sh.RunV(filepath.Join(binDir, binName), "run",
		"--input-dir", "input", "--output-dir", "output", "--explain")
}

// History lists the runs recorded in the local archive.
func History() error {
	mg.Deps(Build)
	if _, err := os.Stat("persona-digest.db"); err != nil {
		fmt.Println("[history] No archive yet: run with --archive persona-digest.db first.")
		return nil
	}
	return sh.RunV(filepath.Join(binDir, binName), "history", "list")
}
