package content

import "testing"

func TestLineIndexLineAt(t *testing.T) {
	src := []byte("line1\nline2\nline3")
	idx := BuildLineIndex(src)

	tests := []struct {
		name string
		pos  int
		want int
	}{
		{"first byte", 0, 1},
		{"mid line1", 3, 1},
		{"start of line2", 6, 2},
		{"mid line3", 14, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := idx.LineAt(tt.pos); got != tt.want {
				t.Errorf("LineAt(%d) = %d, want %d", tt.pos, got, tt.want)
			}
		})
	}
}

func TestRegistryInternDedupesByHash(t *testing.T) {
	r := NewRegistry()
	f1 := r.Intern("/a/foo.h", []byte("same bytes"))
	f2 := r.Intern("/b/foo_copy.h", []byte("same bytes"))

	if f1 != f2 {
		t.Errorf("expected identical bytes from different paths to intern to the same *File")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
	if r.Get("/a/foo.h") == nil || r.Get("/b/foo_copy.h") == nil {
		t.Errorf("Get() should resolve both paths")
	}
}

func TestRegistryDistinctBytes(t *testing.T) {
	r := NewRegistry()
	r.Intern("/a.h", []byte("alpha"))
	r.Intern("/b.h", []byte("beta"))

	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}
}
