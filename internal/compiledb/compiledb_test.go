package compiledb

import (
	"encoding/json"
	"testing"
)

func TestBuilderMarshalsEntriesInAppendOrder(t *testing.T) {
	var b Builder
	b.Add("/src", "g++ -c a.cpp", "a.cpp")
	b.Add("/src", "g++ -c b.cpp", "b.cpp")

	raw, err := b.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		t.Fatalf("round-trip unmarshal: %v", err)
	}
	if len(entries) != 2 || entries[0].File != "a.cpp" || entries[1].File != "b.cpp" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if b.Len() != 2 {
		t.Errorf("Len() = %d, want 2", b.Len())
	}
}

func TestBuilderEmptyMarshalsEmptyArray(t *testing.T) {
	var b Builder
	raw, err := b.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(raw) != "[]" {
		t.Errorf("expected [], got %s", raw)
	}
}
