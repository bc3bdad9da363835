// Package pkgconfig resolves `//#PKG-CONFIG=<pkg>` annotations (spec
// §4.7) by shelling out to `pkg-config --cflags <pkg>` and
// `pkg-config --libs <pkg>` for compile vs link flags, the external
// collaborator spec §4.7 describes: "PKG-CONFIG=foo entries are later
// resolved by an external collaborator that shells out to pkg-config
// --cflags --libs foo and feeds results back as CXX/LINK flags."
//
// Adapted from the shell-out idiom in
// internal/client/includes-collector.go's cxx -M invocation (build an
// exec.Cmd, capture stdout/stderr into buffers, wrap a non-zero exit
// with the captured stderr) rather than any pkg-config-specific teacher
// code, since nocc never shells out to pkg-config itself.
package pkgconfig

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// Flags is one package's resolved compile/link flags.
type Flags struct {
	Package   string
	CXXFlags  []string // -I, -D and other --cflags output
	LinkFlags []string // -l, -L and other --libs output
}

// Resolve runs `pkg-config --cflags pkg` and `pkg-config --libs pkg` as
// two separate invocations; every field of the --cflags output goes to
// CXXFlags and every field of the --libs output to LinkFlags, unfiltered.
func Resolve(pkg string) (Flags, error) {
	cflags, err := run("--cflags", pkg)
	if err != nil {
		return Flags{}, fmt.Errorf("pkg-config --cflags %s: %w", pkg, err)
	}
	libs, err := run("--libs", pkg)
	if err != nil {
		return Flags{}, fmt.Errorf("pkg-config --libs %s: %w", pkg, err)
	}
	return Flags{Package: pkg, CXXFlags: splitFields(cflags), LinkFlags: splitFields(libs)}, nil
}

func run(mode, pkg string) (string, error) {
	cmd := exec.Command("pkg-config", mode, pkg)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func splitFields(s string) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	return fields
}
