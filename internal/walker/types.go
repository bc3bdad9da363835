// Package walker implements the Header-Dependency Walker (spec §4.6): it
// drives the preprocessor and the content registry together across an
// include graph starting from one seed file, producing the transitive
// closure of files reached, the aggregated magic flags, and any implied
// source files discovered along the way.
//
// Grounded on internal/client/own-includes-parser.go's
// CollectDependentIncludesByOwnParser: a recursive, visited-set-guarded
// walk over #include edges using a caller-supplied search-path
// configuration (IncludeDirs). This package keeps that shape — visited
// set, search-path precedence, recording-but-continuing on resolution
// failure — and adds the conditional-compilation awareness and
// implied-source discovery the teacher's parser deliberately skips (it
// is conditional-blind by design; see that file's package doc).
package walker

import (
	"github.com/ct-build/ct-cppdeps/internal/analyzer"
	"github.com/ct-build/ct-cppdeps/internal/diag"
)

// IncludeDirs mirrors the teacher's IncludeDirs: the search-path
// configuration for one translation unit, generalized only in naming.
type IncludeDirs struct {
	Quote  []string // -iquote: searched first for a quoted #include
	User   []string // -I: searched for quoted includes after Quote; angled includes do not look here
	System []string // -isystem: the only dirs searched for angled includes
}

// searchOrder returns the directories to probe, in order, for a
// quoted vs angled #include, per spec §4.6: "quoted: source-relative
// first, then user includes; angled: system includes only."
func (d IncludeDirs) searchOrder(quoted bool) []string {
	if quoted {
		out := make([]string, 0, len(d.Quote)+len(d.User))
		out = append(out, d.Quote...)
		out = append(out, d.User...)
		return out
	}
	return d.System
}

// Closure is the result of walking one seed file to completion.
type Closure struct {
	// Files lists every distinct file reached, in traversal (depth-first,
	// pre-order) order, including the seed itself.
	Files []string
	// ImpliedSources lists sibling implementation files discovered for an
	// included header, each a separate traversal root (spec §4.6).
	ImpliedSources []string
	// MagicFlags is the per-key, deduplicated, first-occurrence-ordered
	// aggregation of every magic token seen across Files.
	MagicFlags map[analyzer.MagicKey][]string
	// Unresolved records #include directives that could not be resolved
	// against the search path; these are reported but never fatal (spec
	// §7, "Resolution misses").
	Unresolved []UnresolvedInclude

	Diagnostics []*diag.Diagnostic
}

// UnresolvedInclude is one #include the walker could not find on disk.
type UnresolvedInclude struct {
	FromFile   string
	Line       int
	HeaderName string
	Quoted     bool
}
