// Package cache implements the Preprocessing Cache (spec §4.5): a
// two-tier, content-addressed cache over a file's preprocessing result,
// with an invariant tier for macro-state-independent files and a variant
// tier keyed by content hash plus a restricted macro fingerprint.
//
// Grounded directly on internal/server/file-cache.go (FileCache: a
// content-hash-keyed, concurrent, disk-backed store) and
// internal/server/obj-cache.go (ObjFileCache.MakeObjCacheKey: XOR-folded
// dependency hashing for a restricted fingerprint), with the persisted
// on-disk record format borrowed from internal/common/own-pch-files.go's
// self-describing KEY=value text layout and atomic temp-file+rename
// writes.
package cache

import (
	"github.com/ct-build/ct-cppdeps/internal/analyzer"
	"github.com/ct-build/ct-cppdeps/internal/common"
	"github.com/ct-build/ct-cppdeps/internal/macro"
	"github.com/ct-build/ct-cppdeps/internal/preprocess"
)

// Key identifies one cache entry. Invariant entries (HasVariant == false)
// are keyed by content hash alone; variant entries add a restricted
// macro-state fingerprint.
type Key struct {
	Hash        common.SHA256
	HasVariant  bool
	Fingerprint common.SHA256
}

// Value is CacheValue from spec §3: everything a cache hit needs to
// reproduce a preprocessing run's effect without re-running it.
type Value struct {
	ActiveLines    []preprocess.LineRange
	ActiveIncludes []preprocess.IncludeRef
	ActiveMagic    []analyzer.MagicToken
	DefinesDelta   []macro.DefinesDeltaOp
	ReadSet        []string

	// ConditionIndependent marks an invariant-tier entry whose output
	// never depends on macro state (no conditional directives, empty
	// read set) — the entry can be reused for any input MacroState as-is.
	ConditionIndependent bool
}

// fromResult builds a Value from one preprocessor run's Result.
func fromResult(r *preprocess.Result, hasConditionals bool) *Value {
	return &Value{
		ActiveLines:          r.ActiveLines,
		ActiveIncludes:       r.ActiveIncludes,
		ActiveMagic:          r.ActiveMagic,
		DefinesDelta:         r.DefinesDelta,
		ReadSet:              r.ReadSet,
		ConditionIndependent: !hasConditionals && len(r.ReadSet) == 0,
	}
}

func hasAnyConditional(directives []analyzer.Directive) bool {
	for _, d := range directives {
		switch d.Kind {
		case analyzer.DirIf, analyzer.DirIfdef, analyzer.DirIfndef, analyzer.DirElif:
			return true
		}
	}
	return false
}
