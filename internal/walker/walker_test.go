package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ct-build/ct-cppdeps/internal/analyzer"
	"github.com/ct-build/ct-cppdeps/internal/cache"
	"github.com/ct-build/ct-cppdeps/internal/content"
	"github.com/ct-build/ct-cppdeps/internal/macro"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestClosureFollowsQuotedIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.h", "int b_value;\n")
	main := writeFile(t, dir, "main.cpp", "#include \"b.h\"\nint main_body;\n")

	reg := content.NewRegistry()
	c := cache.New(nil)
	w := New(reg, c, IncludeDirs{})

	closure := w.Closure(main, macro.NewState(nil))

	if len(closure.Files) != 2 || closure.Files[0] != main {
		t.Fatalf("expected [main.cpp, b.h], got %v", closure.Files)
	}
	if len(closure.Unresolved) != 0 {
		t.Fatalf("expected no unresolved includes, got %v", closure.Unresolved)
	}
}

func TestClosureRespectsConditionalCompilation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "only_on_posix.h", "int posix_thing;\n")
	main := writeFile(t, dir, "main.cpp", "#ifdef _WIN32\n#include \"only_on_posix.h\"\n#endif\nint x;\n")

	reg := content.NewRegistry()
	c := cache.New(nil)
	w := New(reg, c, IncludeDirs{})

	closure := w.Closure(main, macro.NewState(nil))

	if len(closure.Files) != 1 {
		t.Fatalf("expected the inactive #include to not be followed, got %v", closure.Files)
	}
}

func TestClosureDiscoversImpliedSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "widget.h", "void widget_init();\n")
	writeFile(t, dir, "widget.cpp", "#include \"widget.h\"\nvoid widget_init() {}\n")
	main := writeFile(t, dir, "main.cpp", "#include \"widget.h\"\nint x;\n")

	reg := content.NewRegistry()
	c := cache.New(nil)
	w := New(reg, c, IncludeDirs{})

	closure := w.Closure(main, macro.NewState(nil))

	found := false
	for _, s := range closure.ImpliedSources {
		if filepath.Base(s) == "widget.cpp" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected widget.cpp to be discovered as an implied source, got %v", closure.ImpliedSources)
	}
}

func TestClosureRecordsUnresolvedIncludes(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.cpp", "#include \"does_not_exist.h\"\nint x;\n")

	reg := content.NewRegistry()
	c := cache.New(nil)
	w := New(reg, c, IncludeDirs{})

	closure := w.Closure(main, macro.NewState(nil))

	if len(closure.Unresolved) != 1 || closure.Unresolved[0].HeaderName != "does_not_exist.h" {
		t.Fatalf("expected one unresolved include, got %v", closure.Unresolved)
	}
}

// TestClosureResolvesComputedInclude is the S2 scenario (spec §8): a
// computed #include whose payload is an object-like macro that expands to
// a quoted header-name literal must be macro-expanded, tokenized, and
// resolved like any other include.
func TestClosureResolvesComputedInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "linux/cfg.h", "int platform_cfg;\n")
	main := writeFile(t, dir, "main.cpp", "#define PLATFORM_HEADER \"linux/cfg.h\"\n#include PLATFORM_HEADER\nint x;\n")

	reg := content.NewRegistry()
	c := cache.New(nil)
	w := New(reg, c, IncludeDirs{})

	closure := w.Closure(main, macro.NewState(nil))

	found := false
	for _, f := range closure.Files {
		if filepath.Base(f) == "cfg.h" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected linux/cfg.h to be resolved via computed #include, got %v", closure.Files)
	}
	if len(closure.Unresolved) != 0 {
		t.Fatalf("expected no unresolved includes, got %v", closure.Unresolved)
	}
}

func TestClosureAggregatesMagicFlagsInOrderDeduped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dep.h", "//#CXXFLAGS=-DFROM_DEP\nint d;\n")
	main := writeFile(t, dir, "main.cpp", "//#CXXFLAGS=-O2\n#include \"dep.h\"\n//#CXXFLAGS=-O2\nint x;\n")

	reg := content.NewRegistry()
	c := cache.New(nil)
	w := New(reg, c, IncludeDirs{})

	closure := w.Closure(main, macro.NewState(nil))

	flags := closure.MagicFlags[analyzer.KeyCXXFLAGS]
	if len(flags) != 2 || flags[0] != "-O2" || flags[1] != "-DFROM_DEP" {
		t.Fatalf("expected deduped [-O2, -DFROM_DEP] in first-occurrence order, got %v", flags)
	}
}
