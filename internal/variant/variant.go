// Package variant loads named compiler/flag profiles for the
// `--variant=<name>` CLI flag. The spec names the flag but not a file
// format; this is the chosen YAML schema (SPEC_FULL.md's DOMAIN STACK),
// seeding a variant's core macro partition and default include search
// path in one place instead of scattering compiler-specific built-ins
// across the CLI.
package variant

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ct-build/ct-cppdeps/internal/macro"
)

// Profile is one named variant's configuration, as loaded from YAML.
type Profile struct {
	Name      string            `yaml:"-"`
	Compiler  string            `yaml:"compiler"`
	CXXFlags  []string          `yaml:"cxxflags"`
	CPPFlags  []string          `yaml:"cppflags"`
	CFlags    []string          `yaml:"cflags"`
	LinkFlags []string          `yaml:"linkflags"`
	Includes  []string          `yaml:"includes"`
	Defines   map[string]string `yaml:"defines"`
}

// File is the on-disk shape: a map of variant name to Profile, so one
// file can describe every profile a project needs (e.g. gcc.debug,
// gcc.release, clang.asan).
type File struct {
	Variants map[string]Profile `yaml:"variants"`
}

// Load parses a variant profile file and returns its profiles keyed by
// name, with Name filled in on each (yaml:"-" keeps it out of the
// decoded struct so the map key is the single source of truth).
func Load(path string) (map[string]Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading variant profile file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parsing variant profile file %s: %w", path, err)
	}
	for name, p := range f.Variants {
		p.Name = name
		f.Variants[name] = p
	}
	return f.Variants, nil
}

// Core builds the immutable macro.Core a preprocessing run should start
// from: the profile's `defines` entries as object-like macros, per
// spec §4.4's core/variable partition (compiler built-ins belong in
// core, never variable).
func (p Profile) Core() *macro.Core {
	macros := make(map[string]*macro.Macro, len(p.Defines))
	for name, body := range p.Defines {
		macros[name] = &macro.Macro{Name: name, Body: []byte(body)}
	}
	return macro.NewCore(macros)
}

// AllFlags concatenates cppflags then cxxflags, the order a compile step
// appends them in (preprocess flags apply before language-specific
// flags).
func (p Profile) AllFlags() []string {
	out := make([]string, 0, len(p.CPPFlags)+len(p.CXXFlags))
	out = append(out, p.CPPFlags...)
	out = append(out, p.CXXFlags...)
	return out
}
