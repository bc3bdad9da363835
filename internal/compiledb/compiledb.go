// Package compiledb emits a compile_commands.json document: one entry
// per analyzed source file recording the directory, the resolved
// compiler invocation, and the source path, the de facto format clangd
// and other tooling consume.
//
// The JSON field names (directory/command/file) are grounded on the
// Chromium package_index tool's clangUnit struct
// (other_examples/.../index-compdb.go.go), the one example in the
// retrieved pack that builds this exact compilation-database shape.
package compiledb

import (
	"encoding/json"
	"fmt"
)

// Entry is one compilation database record.
type Entry struct {
	Directory string `json:"directory"`
	Command   string `json:"command"`
	File      string `json:"file"`
}

// Builder accumulates entries across a run's positional source
// arguments, in the order they were analyzed.
type Builder struct {
	entries []Entry
}

// Add appends one entry. command should be the full resolved compiler
// invocation (compiler name, variant flags, magic-extracted CXXFLAGS,
// the -I/-isystem search path) as a single shell-quoted string, matching
// the compile_commands.json convention.
func (b *Builder) Add(directory, command, file string) {
	b.entries = append(b.entries, Entry{Directory: directory, Command: command, File: file})
}

// MarshalJSON renders the accumulated entries as a JSON array, pretty
// printed for readability since this file is meant to be checked by
// humans and IDEs alike.
func (b *Builder) MarshalJSON() ([]byte, error) {
	if b.entries == nil {
		return []byte("[]"), nil
	}
	out, err := json.MarshalIndent(b.entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling compile_commands.json: %w", err)
	}
	return out, nil
}

// Len reports how many entries have been accumulated so far.
func (b *Builder) Len() int {
	return len(b.entries)
}
