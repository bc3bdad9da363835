package analyzer

import "testing"

func findDirective(t *testing.T, res *AnalysisResult, kind DirectiveKind) *Directive {
	t.Helper()
	for i := range res.Directives {
		if res.Directives[i].Kind == kind {
			return &res.Directives[i]
		}
	}
	return nil
}

func TestBasicDirectives(t *testing.T) {
	src := `#include "a.h"
#include <vector>
#define FOO 1
#undef BAR
#ifdef BAZ
#endif
`
	res := Analyze("t.h", []byte(src))

	if d := findDirective(t, res, DirInclude); d == nil || d.HeaderName != "a.h" || !d.Quoted {
		t.Fatalf("expected quoted include a.h, got %+v", d)
	}
	var sawAngled bool
	for _, d := range res.Directives {
		if d.Kind == DirInclude && d.HeaderName == "vector" && !d.Quoted {
			sawAngled = true
		}
	}
	if !sawAngled {
		t.Errorf("expected angled include <vector>")
	}
	if d := findDirective(t, res, DirDefine); d == nil || d.Name != "FOO" {
		t.Fatalf("expected #define FOO, got %+v", d)
	}
	if d := findDirective(t, res, DirUndef); d == nil || d.Name != "BAR" {
		t.Fatalf("expected #undef BAR, got %+v", d)
	}
	if d := findDirective(t, res, DirIfdef); d == nil || d.Name != "BAZ" {
		t.Fatalf("expected #ifdef BAZ, got %+v", d)
	}

	foundFOO, foundBAZ := false, false
	for _, n := range res.DefinedMacros {
		if n == "FOO" {
			foundFOO = true
		}
	}
	for _, n := range res.ReferencedMacros {
		if n == "BAZ" {
			foundBAZ = true
		}
	}
	if !foundFOO {
		t.Errorf("DefinedMacros should include FOO, got %v", res.DefinedMacros)
	}
	if !foundBAZ {
		t.Errorf("ReferencedMacros should include BAZ, got %v", res.ReferencedMacros)
	}
}

func TestLineContinuation(t *testing.T) {
	src := "#define LONG_MACRO(a, b) \\\n    (a) + (b)\nint x;\n"
	res := Analyze("t.h", []byte(src))
	d := findDirective(t, res, DirDefine)
	if d == nil {
		t.Fatal("expected #define directive")
	}
	if d.Name != "LONG_MACRO(a, b)" {
		// the head token keeps the whole parameter list, spaces included;
		// splitting it into name and parameters is macro.ParseDefine's job.
		t.Errorf("define name token: %q, want %q", d.Name, "LONG_MACRO(a, b)")
	}
}

func TestCommentsDoNotTriggerDirectives(t *testing.T) {
	src := "/* #include \"fake.h\" */\nint x;\n// #define ALSO_FAKE\n"
	res := Analyze("t.h", []byte(src))
	if len(res.Directives) != 0 {
		t.Errorf("expected no directives inside comments, got %+v", res.Directives)
	}
	if len(res.CommentSpans) == 0 {
		t.Errorf("expected at least one comment span recorded")
	}
}

func TestStringLiteralDoesNotConfuseScanner(t *testing.T) {
	src := "const char *s = \"#include not a directive\";\n#define REAL 1\n"
	res := Analyze("t.h", []byte(src))
	if len(res.Directives) != 1 {
		t.Fatalf("expected exactly 1 directive, got %d: %+v", len(res.Directives), res.Directives)
	}
	if res.Directives[0].Name != "REAL" {
		t.Errorf("expected REAL, got %+v", res.Directives[0])
	}
}

func TestMagicComment(t *testing.T) {
	src := "int x; //#CXXFLAGS=-O3 -Wall\n"
	res := Analyze("t.cpp", []byte(src))
	if len(res.MagicTokens) != 1 {
		t.Fatalf("expected 1 magic token, got %d", len(res.MagicTokens))
	}
	mt := res.MagicTokens[0]
	if mt.Key != KeyCXXFLAGS || mt.Value != "-O3 -Wall" {
		t.Errorf("got %+v", mt)
	}
}

func TestComputedInclude(t *testing.T) {
	src := "#include PLATFORM_HEADER\n"
	res := Analyze("t.h", []byte(src))
	d := findDirective(t, res, DirIncludeComputed)
	if d == nil {
		t.Fatal("expected a computed include directive")
	}
	if string(d.Payload) != "PLATFORM_HEADER" {
		t.Errorf("payload = %q, want PLATFORM_HEADER", d.Payload)
	}
	found := false
	for _, n := range res.ReferencedMacros {
		if n == "PLATFORM_HEADER" {
			found = true
		}
	}
	if !found {
		t.Errorf("ReferencedMacros should include PLATFORM_HEADER, got %v", res.ReferencedMacros)
	}
}

func TestPragmaOnce(t *testing.T) {
	src := "#pragma once\nint x;\n"
	res := Analyze("t.h", []byte(src))
	if d := findDirective(t, res, DirPragmaOnce); d == nil {
		t.Errorf("expected #pragma once directive")
	}
}

func TestIfElifReferencedMacros(t *testing.T) {
	src := "#if defined(A) && B > 1\n#elif C\n#endif\n"
	res := Analyze("t.h", []byte(src))
	want := map[string]bool{"A": true, "B": true, "C": true}
	got := map[string]bool{}
	for _, n := range res.ReferencedMacros {
		got[n] = true
	}
	for k := range want {
		if !got[k] {
			t.Errorf("expected %s in ReferencedMacros, got %v", k, res.ReferencedMacros)
		}
	}
}
