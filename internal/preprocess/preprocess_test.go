package preprocess

import (
	"strings"
	"testing"

	"github.com/ct-build/ct-cppdeps/internal/analyzer"
	"github.com/ct-build/ct-cppdeps/internal/macro"
)

func run(t *testing.T, src string, base *macro.State) *Result {
	t.Helper()
	if base == nil {
		base = macro.NewState(nil)
	}
	b := []byte(src)
	res := analyzer.Analyze("t.cpp", b)
	totalLines := strings.Count(src, "\n")
	if !strings.HasSuffix(src, "\n") {
		totalLines++
	}
	return Run("t.cpp", totalLines, res, base)
}

func cxxflags(r *Result) []string {
	var out []string
	for _, tok := range r.ActiveMagic {
		if tok.Key == analyzer.KeyCXXFLAGS {
			out = append(out, tok.Value)
		}
	}
	return out
}

// TestConditionalFlagSelection is the S3 scenario (spec §8): with VER=1,
// `#if VER<2` must win, so only -DUSE_LEGACY survives, never -DUSE_MODERN.
func TestConditionalFlagSelection(t *testing.T) {
	base := macro.NewState(nil)
	base.Define("VER", &macro.Macro{Name: "VER", Body: []byte("1")})

	src := "#if VER<2\n" +
		"//#CXXFLAGS=-DUSE_LEGACY\n" +
		"#else\n" +
		"//#CXXFLAGS=-DUSE_MODERN\n" +
		"#endif\n"

	r := run(t, src, base)

	flags := cxxflags(r)
	if len(flags) != 1 || flags[0] != "-DUSE_LEGACY" {
		t.Fatalf("expected only -DUSE_LEGACY, got %v", flags)
	}
}

// TestConditionalFlagSelectionModernBranch is the same scenario with
// VER=2, where the #else arm must win instead.
func TestConditionalFlagSelectionModernBranch(t *testing.T) {
	base := macro.NewState(nil)
	base.Define("VER", &macro.Macro{Name: "VER", Body: []byte("2")})

	src := "#if VER<2\n" +
		"//#CXXFLAGS=-DUSE_LEGACY\n" +
		"#else\n" +
		"//#CXXFLAGS=-DUSE_MODERN\n" +
		"#endif\n"

	r := run(t, src, base)

	flags := cxxflags(r)
	if len(flags) != 1 || flags[0] != "-DUSE_MODERN" {
		t.Fatalf("expected only -DUSE_MODERN, got %v", flags)
	}
}

// TestElifChainPicksFirstTakenBranch exercises a three-arm #if/#elif/#elif/
// #else chain: once an earlier arm is taken, later #elif conditions must
// not be evaluated as active, even if they would themselves be true.
func TestElifChainPicksFirstTakenBranch(t *testing.T) {
	base := macro.NewState(nil)
	base.Define("A", &macro.Macro{Name: "A", Body: []byte("0")})
	base.Define("B", &macro.Macro{Name: "B", Body: []byte("1")})
	base.Define("C", &macro.Macro{Name: "C", Body: []byte("1")})

	src := "#if A\n" +
		"//#CXXFLAGS=-DARM_A\n" +
		"#elif B\n" +
		"//#CXXFLAGS=-DARM_B\n" +
		"#elif C\n" +
		"//#CXXFLAGS=-DARM_C\n" +
		"#else\n" +
		"//#CXXFLAGS=-DARM_ELSE\n" +
		"#endif\n"

	r := run(t, src, base)

	flags := cxxflags(r)
	if len(flags) != 1 || flags[0] != "-DARM_B" {
		t.Fatalf("expected only the first-taken arm -DARM_B, got %v", flags)
	}
}

// TestNestedConditionalRequiresBothParentsActive covers a nested #if whose
// inner branch must only be active when the outer frame is also active,
// per the frame.active() = parentActive && branchTaken rule.
func TestNestedConditionalRequiresBothParentsActive(t *testing.T) {
	base := macro.NewState(nil)
	base.Define("OUTER", &macro.Macro{Name: "OUTER", Body: []byte("0")})
	base.Define("INNER", &macro.Macro{Name: "INNER", Body: []byte("1")})

	src := "#if OUTER\n" +
		"#if INNER\n" +
		"//#CXXFLAGS=-DNESTED\n" +
		"#endif\n" +
		"#endif\n"

	r := run(t, src, base)

	if flags := cxxflags(r); len(flags) != 0 {
		t.Fatalf("expected no flags (outer frame inactive), got %v", flags)
	}

	base2 := macro.NewState(nil)
	base2.Define("OUTER", &macro.Macro{Name: "OUTER", Body: []byte("1")})
	base2.Define("INNER", &macro.Macro{Name: "INNER", Body: []byte("1")})

	r2 := run(t, src, base2)
	if flags := cxxflags(r2); len(flags) != 1 || flags[0] != "-DNESTED" {
		t.Fatalf("expected -DNESTED with both frames active, got %v", flags)
	}
}

// TestUndefMasksSubsequentIfdef verifies the preprocessor applies #undef
// to the live state in directive order, so a later #ifdef on the same
// name sees it as undefined within the same run.
func TestUndefMasksSubsequentIfdef(t *testing.T) {
	base := macro.NewState(nil)
	base.Define("TEMP_BUFFER_SIZE", &macro.Macro{Name: "TEMP_BUFFER_SIZE", Body: []byte("1024")})

	src := "#undef TEMP_BUFFER_SIZE\n" +
		"#ifndef TEMP_BUFFER_SIZE\n" +
		"//#CXXFLAGS=-DNO_BUFFER\n" +
		"#endif\n"

	r := run(t, src, base)

	if flags := cxxflags(r); len(flags) != 1 || flags[0] != "-DNO_BUFFER" {
		t.Fatalf("expected -DNO_BUFFER after #undef, got %v", flags)
	}
}

// TestShortCircuitReadSetExcludesUnevaluatedOperand is Property 5 / S6
// (spec §6/§8): in `defined(A) && (B+1)` with A undefined, B must never be
// added to the read set.
func TestShortCircuitReadSetExcludesUnevaluatedOperand(t *testing.T) {
	base := macro.NewState(nil)

	src := "#if defined(A) && (B+1)\n" +
		"int x;\n" +
		"#endif\n"

	r := run(t, src, base)

	sawA, sawB := false, false
	for _, n := range r.ReadSet {
		if n == "A" {
			sawA = true
		}
		if n == "B" {
			sawB = true
		}
	}
	if !sawA {
		t.Fatalf("expected A in read set, got %v", r.ReadSet)
	}
	if sawB {
		t.Fatalf("expected B NOT in read set (short-circuited), got %v", r.ReadSet)
	}
}
