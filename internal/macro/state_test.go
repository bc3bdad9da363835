package macro

import "testing"

func obj(name, body string) *Macro {
	return &Macro{Name: name, Body: []byte(body)}
}

func TestLookupPrefersVariableOverCore(t *testing.T) {
	core := NewCore(map[string]*Macro{"__GNUC__": obj("__GNUC__", "9")})
	s := NewState(core)

	if !s.IsDefined("__GNUC__") {
		t.Fatalf("expected core macro to be visible before any override")
	}

	s.Define("__GNUC__", obj("__GNUC__", "12"))
	v := s.Lookup("__GNUC__")
	if !v.IsDefined() || string(v.Macro.Body) != "12" {
		t.Errorf("variable definition should shadow core, got %+v", v)
	}
}

func TestUndefMasksCoreBuiltin(t *testing.T) {
	core := NewCore(map[string]*Macro{"__STDC__": obj("__STDC__", "1")})
	s := NewState(core)

	s.Undef("__STDC__")
	if s.IsDefined("__STDC__") {
		t.Errorf("expected __STDC__ to be masked after #undef")
	}

	s.Define("__STDC__", obj("__STDC__", "1"))
	if !s.IsDefined("__STDC__") {
		t.Errorf("expected a later #define to un-mask __STDC__")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := NewState(nil)
	s.Define("BASE", obj("BASE", "1"))

	snap := s.Snapshot()
	snap.Define("ONLY_IN_SNAPSHOT", obj("ONLY_IN_SNAPSHOT", "2"))

	if s.IsDefined("ONLY_IN_SNAPSHOT") {
		t.Errorf("mutating a snapshot must not affect the original state")
	}
	if !snap.IsDefined("BASE") {
		t.Errorf("snapshot should still see macros defined before it was taken")
	}
}

func TestReplaceVariableAppliesUndefCorrectly(t *testing.T) {
	base := NewState(nil)
	base.Define("TEMP_BUFFER_SIZE", obj("TEMP_BUFFER_SIZE", "1024"))

	delta := []DefinesDeltaOp{
		{Op: OpUndef, Name: "TEMP_BUFFER_SIZE"},
	}
	result := ReplaceVariable(base, delta)

	if result.IsDefined("TEMP_BUFFER_SIZE") {
		t.Errorf("ReplaceVariable must apply #undef from the delta, not merge over the base's #define")
	}
	// the base itself must remain untouched
	if !base.IsDefined("TEMP_BUFFER_SIZE") {
		t.Errorf("ReplaceVariable must not mutate the base state")
	}
}

func TestRestrictedFingerprintOrderIndependence(t *testing.T) {
	s1 := NewState(nil)
	s1.Define("A", obj("A", "1"))
	s1.Define("B", obj("B", "2"))

	s2 := NewState(nil)
	s2.Define("B", obj("B", "2"))
	s2.Define("A", obj("A", "1"))

	f1 := s1.RestrictedFingerprint([]string{"A", "B"})
	f2 := s2.RestrictedFingerprint([]string{"B", "A"})

	if f1 != f2 {
		t.Errorf("fingerprint must not depend on insertion order or the order of names passed in")
	}
}

func TestRestrictedFingerprintIgnoresUnrelatedMacros(t *testing.T) {
	s := NewState(nil)
	s.Define("A", obj("A", "1"))

	before := s.RestrictedFingerprint([]string{"A"})
	s.Define("UNRELATED", obj("UNRELATED", "999"))
	after := s.RestrictedFingerprint([]string{"A"})

	if before != after {
		t.Errorf("fingerprint restricted to {A} must not change when an unrelated macro changes")
	}
}

func TestRestrictedFingerprintTreatsUndefLikeUnset(t *testing.T) {
	s1 := NewState(nil) // C never mentioned
	s2 := NewState(nil)
	s2.Define("C", obj("C", "1"))
	s2.Undef("C")

	f1 := s1.RestrictedFingerprint([]string{"C"})
	f2 := s2.RestrictedFingerprint([]string{"C"})

	if f1 != f2 {
		t.Errorf("an explicitly undef'd name and a never-defined name should fingerprint identically (both Undefined), got different hashes")
	}
}
