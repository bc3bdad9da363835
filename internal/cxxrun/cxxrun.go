// Package cxxrun implements the `--headerdeps=cpp` delegate: rather than
// running this repo's own Simple Preprocessor, shell out to the real
// system preprocessor (`$CPP -MM -MF depfile`) and parse its Makefile
// dependency output. Useful when a translation unit relies on behavior
// the built-in preprocessor doesn't emulate exactly (boost-style
// macro-computed includes, compiler-specific builtins).
//
// Adapted from internal/client/includes-collector.go's
// CollectDependentIncludesByCxxM / GetDefaultCxxIncludeDirsOnLocal /
// parseCxxDefaultIncludeDirsFromWpStderr: that code runs `cxx -M` and
// parses its stdout token stream directly; this version asks for
// `-MM -MF <tmp>` instead (so user headers are listed without system
// ones, matching `--headerdeps`'s purpose of a dependency list rather
// than a full remote-upload manifest) and reads the generated depfile,
// but the token-scanning shape (split on Makefile continuation
// backslashes, skip the target itself) is the same idiom.
package cxxrun

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Run invokes cppPath (typically the configured $CPP, e.g. "cc -E" or
// "g++") against sourcePath with -MM -MF, returning the dependency list
// it reports (the translation unit's transitive header set, as the real
// preprocessor sees it, excluding system headers).
func Run(cppPath string, args []string, sourcePath string) ([]string, error) {
	depFile, err := os.CreateTemp("", "ct-cppdeps-*.d")
	if err != nil {
		return nil, fmt.Errorf("creating temp depfile: %w", err)
	}
	depFilePath := depFile.Name()
	_ = depFile.Close()
	defer os.Remove(depFilePath)

	cmdArgs := make([]string, 0, len(args)+4)
	cmdArgs = append(cmdArgs, args...)
	cmdArgs = append(cmdArgs, "-MM", "-MF", depFilePath, "-c", sourcePath)

	fields := strings.Fields(cppPath)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty $CPP invocation")
	}
	cmd := exec.Command(fields[0], append(fields[1:], cmdArgs...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", cppPath, err, stderr.String())
	}

	b, err := os.ReadFile(depFilePath)
	if err != nil {
		return nil, fmt.Errorf("reading depfile: %w", err)
	}
	return parseMakeDepfile(b)
}

// parseMakeDepfile extracts every prerequisite path from a Makefile-rule
// depfile ("target: dep1 dep2 \\\n  dep3 ..."), skipping the target
// itself and continuation backslashes — the same token-splitting
// approach as the teacher's extractIncludesFromCxxMStdout, adjusted for
// the rule-colon prefix -MF emits that -M's plain stdout form doesn't
// have.
func parseMakeDepfile(b []byte) ([]string, error) {
	text := strings.ReplaceAll(string(b), "\\\n", " ")
	text = strings.ReplaceAll(text, "\\\r\n", " ")

	_, rest, found := strings.Cut(text, ":")
	if !found {
		return nil, fmt.Errorf("depfile missing target separator")
	}

	var out []string
	for _, field := range strings.Fields(rest) {
		abs, err := filepath.Abs(field)
		if err != nil {
			abs = field
		}
		out = append(out, abs)
	}
	return out, nil
}
