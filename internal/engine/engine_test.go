package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ct-build/ct-cppdeps/internal/variant"
	"github.com/ct-build/ct-cppdeps/internal/walker"
)

func TestEngineAnalyzeSourceWalksClosure(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "util.h"), []byte("//#CXXFLAGS=-DUTIL\nint util();\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	main := filepath.Join(dir, "main.cpp")
	if err := os.WriteFile(main, []byte("#include \"util.h\"\nint main(){}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	e, err := New(Options{
		Variant:    variant.Profile{Defines: map[string]string{"PLATFORM_LINUX": "1"}},
		IncludeDir: walker.IncludeDirs{},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	closure, diags := e.AnalyzeSource(main)
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if len(closure.Files) != 2 {
		t.Fatalf("expected [main.cpp, util.h], got %v", closure.Files)
	}
	if flags := closure.MagicFlags["CXXFLAGS"]; len(flags) != 1 || flags[0] != "-DUTIL" {
		t.Errorf("expected aggregated CXXFLAGS=[-DUTIL], got %v", flags)
	}
}

func TestEngineWithObjDirCreatesCache(t *testing.T) {
	objDir := filepath.Join(t.TempDir(), "objdir")
	e, err := New(Options{ObjDir: objDir}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.Cache == nil {
		t.Fatalf("expected a non-nil cache")
	}
}
