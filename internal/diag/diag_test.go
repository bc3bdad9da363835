package diag

import "testing"

func TestBagHasFatal(t *testing.T) {
	tests := []struct {
		name  string
		items []*Diagnostic
		want  bool
	}{
		{"empty", nil, false},
		{"warning only", []*Diagnostic{New(TagAnalysis, "a.h", 3, "unknown directive")}, false},
		{"fatal present", []*Diagnostic{
			New(TagAnalysis, "a.h", 3, "unknown directive"),
			Fatal(TagInputError, "", 0, "missing seed file"),
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Bag
			for _, d := range tt.items {
				b.Add(d)
			}
			if got := b.HasFatal(); got != tt.want {
				t.Errorf("HasFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiagnosticErrorString(t *testing.T) {
	d := New(TagResolutionMiss, "foo.h", 12, "include not found: %s", "bar.h")
	want := "foo.h:12: [resolution-miss] include not found: bar.h"
	if got := d.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestBagAddNilIgnored(t *testing.T) {
	var b Bag
	b.Add(nil)
	if len(b.Items()) != 0 {
		t.Errorf("Items() len = %d, want 0", len(b.Items()))
	}
}
