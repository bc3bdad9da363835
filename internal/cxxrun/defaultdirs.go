package cxxrun

import (
	"bytes"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ct-build/ct-cppdeps/internal/walker"
)

// DefaultIncludeDirs probes cppPath's own default search path by asking
// it to preprocess /dev/null verbosely (`-Wp,-v`) and parsing the
// resulting "#include <...> search starts here" block from stderr.
// Adapted directly from GetDefaultCxxIncludeDirsOnLocal /
// parseCxxDefaultIncludeDirsFromWpStderr in
// internal/client/includes-collector.go, generalized from a hardcoded
// g++/clang invocation to the configured $CPP.
func DefaultIncludeDirs(cppPath string) (walker.IncludeDirs, error) {
	fields := strings.Fields(cppPath)
	cmd := exec.Command(fields[0], append(fields[1:], "-Wp,-v", "-x", "c++", "/dev/null", "-fsyntax-only")...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return walker.IncludeDirs{}, err
	}
	return parseDefaultIncludeDirs(stderr.String()), nil
}

func parseDefaultIncludeDirs(wpStderr string) walker.IncludeDirs {
	const (
		quoteStart = `#include "..."`
		angleStart = "#include <...>"
		listEnd    = "End of search list"

		stateUnknown = 0
		stateQuote   = 1
		stateAngle   = 2
	)

	state := stateUnknown
	var dirs walker.IncludeDirs
	for _, line := range strings.Split(wpStderr, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, quoteStart):
			state = stateQuote
		case strings.HasPrefix(line, angleStart):
			state = stateAngle
		case strings.HasPrefix(line, listEnd):
			return dirs
		case strings.HasPrefix(line, "/"):
			if strings.HasSuffix(line, "(framework directory)") {
				continue
			}
			switch state {
			case stateQuote:
				dirs.Quote = append(dirs.Quote, line)
			case stateAngle:
				if abs, err := filepath.Abs(line); err == nil {
					dirs.System = append(dirs.System, abs)
				} else {
					dirs.System = append(dirs.System, line)
				}
			}
		}
	}
	return dirs
}
