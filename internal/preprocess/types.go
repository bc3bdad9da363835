// Package preprocess implements the Simple Preprocessor (spec §4.3): it
// walks one file's directives against a macro environment, tracking
// conditional-compilation activity, and produces the precise, minimal
// result a cache entry is built from — as opposed to the File Analyzer's
// AnalysisResult, which is a conservative, macro-state-independent
// superset.
package preprocess

import (
	"github.com/ct-build/ct-cppdeps/internal/analyzer"
	"github.com/ct-build/ct-cppdeps/internal/diag"
	"github.com/ct-build/ct-cppdeps/internal/macro"
)

// LineRange is an inclusive [Start, End] physical line span that survived
// conditional compilation.
type LineRange struct {
	Start, End int
}

// IncludeRef is one #include reached while active, literal or computed.
type IncludeRef struct {
	Line       int
	HeaderName string // for Computed, the expanded name; empty if expansion failed
	Quoted     bool
	Computed   bool
	Payload    []byte // raw macro-expression text, set only when Computed
}

// Result is what a file's preprocessing pass produces: the shape a cache
// entry is assembled from (spec §3's CacheValue / §4.5).
type Result struct {
	ActiveLines    []LineRange
	ActiveIncludes []IncludeRef
	ActiveMagic    []analyzer.MagicToken
	DefinesDelta   []macro.DefinesDeltaOp
	ReadSet        []string
	State          *macro.State

	Diagnostics []*diag.Diagnostic
}

// frame is one entry of the conditional-nesting stack.
type frame struct {
	parentActive   bool // whether the enclosing scope was active when this #if/#ifdef was seen
	branchTaken    bool // whether the CURRENT arm (if/elif/else) is the active one
	anyBranchTaken bool // whether some earlier arm in this chain already won
}

func (f frame) active() bool {
	return f.parentActive && f.branchTaken
}
