// Package magic implements the Magic-Flag Extractor (spec §4.7): it takes
// the active_magic tokens a preprocessing run produced for one or many
// files and partitions them by key into ordered, deduplicated flag sets,
// the shape the aggregated build-flag output is built from.
//
// There is no single teacher file that does this — nocc has no concept of
// build flags embedded in source comments — so this package's structural
// precedent is the KEY=value header-line parsing in
// internal/common/own-pch-files.go (PCH_HASH=/ORIG_HDR= style lines),
// generalized to the //#KEY=value comment grammar.
package magic

import "github.com/ct-build/ct-cppdeps/internal/analyzer"

// Set collects one key's values across however many files contributed
// them, preserving first-occurrence order and dropping exact duplicates.
type Set struct {
	Key    analyzer.MagicKey
	Values []string
	seen   map[string]bool
}

func (s *Set) add(value string) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[value] {
		return
	}
	s.seen[value] = true
	s.Values = append(s.Values, value)
}

// Aggregator accumulates magic tokens from many files in traversal order
// (the walker feeds it depth-first, pre-order per spec §5's ordering
// guarantee) and partitions/dedupes them by key on demand.
type Aggregator struct {
	order []analyzer.MagicKey
	sets  map[analyzer.MagicKey]*Set
}

func NewAggregator() *Aggregator {
	return &Aggregator{sets: map[analyzer.MagicKey]*Set{}}
}

// Add folds in every magic token active in one file's preprocessing
// result, in the order they were found.
func (a *Aggregator) Add(tokens []analyzer.MagicToken) {
	for _, t := range tokens {
		set, ok := a.sets[t.Key]
		if !ok {
			set = &Set{Key: t.Key}
			a.sets[t.Key] = set
			a.order = append(a.order, t.Key)
		}
		set.add(t.Value)
	}
}

// Sets returns every key's deduplicated values, in first-seen key order.
func (a *Aggregator) Sets() []*Set {
	out := make([]*Set, 0, len(a.order))
	for _, k := range a.order {
		out = append(out, a.sets[k])
	}
	return out
}

// Values returns the deduplicated values for one key, or nil if the key
// was never seen.
func (a *Aggregator) Values(key analyzer.MagicKey) []string {
	if set, ok := a.sets[key]; ok {
		return set.Values
	}
	return nil
}
