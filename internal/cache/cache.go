package cache

import (
	"sync"
	"sync/atomic"

	"github.com/ct-build/ct-cppdeps/internal/analyzer"
	"github.com/ct-build/ct-cppdeps/internal/common"
	"github.com/ct-build/ct-cppdeps/internal/content"
	"github.com/ct-build/ct-cppdeps/internal/diag"
	"github.com/ct-build/ct-cppdeps/internal/macro"
	"github.com/ct-build/ct-cppdeps/internal/preprocess"
)

// inflight is one in-progress (or just-finished) preprocessor run that
// other callers racing for the same pre-run key can wait on, implementing
// the per-key single-flight discipline of spec §5: "at most one
// preprocessor run per unique cache key in flight; others wait."
type inflight struct {
	done  chan struct{}
	value *Value
	state *macro.State
	diags []*diag.Diagnostic
}

// Cache is the Preprocessing Cache. Safe for concurrent use: analysis of
// independent translation units is expected to run in parallel (spec §5),
// while the cache itself serializes duplicate work for the same file seen
// along two include paths at once.
type Cache struct {
	mu          sync.Mutex
	invariant   map[common.SHA256]*Value
	variant     map[Key]*Value
	lastReadSet map[common.SHA256][]string // most recently learned minimal read set per file, used to probe the variant tier before running
	inflight    map[Key]*inflight

	objDir *ObjDir // nil when running without on-disk persistence

	hits   int64 // nb! atomic
	misses int64 // nb! atomic
}

// New creates an empty in-memory cache. objDir may be nil to disable
// on-disk persistence entirely.
func New(objDir *ObjDir) *Cache {
	return &Cache{
		invariant:   map[common.SHA256]*Value{},
		variant:     map[Key]*Value{},
		lastReadSet: map[common.SHA256][]string{},
		inflight:    map[Key]*inflight{},
		objDir:      objDir,
	}
}

// Resolve is the cache's single entry point, implementing the lookup
// protocol of spec §4.5 end to end: try the invariant tier, then probe the
// variant tier using the most recently learned read set for this file,
// and on a genuine miss invoke the preprocessor exactly once per unique
// pre-run key even under concurrent callers.
//
// It returns the resolved Value, the MacroState the caller should
// continue with past this file (base, with the file's own defines/undefs
// applied), and any diagnostics from a fresh run (nil on a cache hit).
func (c *Cache) Resolve(file *content.File, analysis *analyzer.AnalysisResult, base *macro.State) (*Value, *macro.State, []*diag.Diagnostic) {
	hash := file.Hash

	if v, ok := c.getInvariant(hash); ok {
		atomic.AddInt64(&c.hits, 1)
		return v, macro.ReplaceVariable(base, v.DefinesDelta), nil
	}

	if candidate, ok := c.getLastReadSet(hash); ok {
		fp := base.RestrictedFingerprint(candidate)
		key := Key{Hash: hash, HasVariant: true, Fingerprint: fp}
		if v, ok := c.getVariant(key); ok {
			atomic.AddInt64(&c.hits, 1)
			return v, macro.ReplaceVariable(base, v.DefinesDelta), nil
		}
	}

	atomic.AddInt64(&c.misses, 1)

	// Single-flight key: computed from the file's full referenced-macro
	// superset (known statically from the analyzer, before running), so
	// concurrent callers whose macro state agrees on every macro this file
	// could possibly inspect are guaranteed to get the same result and can
	// safely collapse onto one run.
	sfKey := Key{Hash: hash, HasVariant: true, Fingerprint: base.RestrictedFingerprint(analysis.ReferencedMacros)}

	c.mu.Lock()
	if running, ok := c.inflight[sfKey]; ok {
		c.mu.Unlock()
		<-running.done
		return running.value, macro.ReplaceVariable(base, running.value.DefinesDelta), running.diags
	}
	call := &inflight{done: make(chan struct{})}
	c.inflight[sfKey] = call
	c.mu.Unlock()

	result := preprocess.Run(file.Path, len(file.Lines), analysis, base)
	v := fromResult(result, hasAnyConditional(analysis.Directives))

	if v.ConditionIndependent {
		c.putInvariant(hash, v)
	} else {
		fp := base.RestrictedFingerprint(v.ReadSet)
		c.putVariant(Key{Hash: hash, HasVariant: true, Fingerprint: fp}, v)
		c.setLastReadSet(hash, v.ReadSet)
	}

	if c.objDir != nil {
		if err := c.objDir.Store(sfKey, v); err != nil {
			result.Diagnostics = append(result.Diagnostics, diag.Wrap(err, diag.TagCacheStoreFailure, file.Path, 0, "downgrading to in-memory-only cache"))
		}
	}

	call.value = v
	call.state = result.State
	call.diags = result.Diagnostics
	close(call.done)

	c.mu.Lock()
	delete(c.inflight, sfKey)
	c.mu.Unlock()

	return v, result.State, result.Diagnostics
}

func (c *Cache) getInvariant(h common.SHA256) (*Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.invariant[h]
	return v, ok
}

func (c *Cache) putInvariant(h common.SHA256, v *Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invariant[h] = v
}

func (c *Cache) getVariant(k Key) (*Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.variant[k]
	return v, ok
}

func (c *Cache) putVariant(k Key, v *Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variant[k] = v
}

func (c *Cache) getLastReadSet(h common.SHA256) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rs, ok := c.lastReadSet[h]
	return rs, ok
}

func (c *Cache) setLastReadSet(h common.SHA256, rs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastReadSet[h] = rs
}

// Stats reports cumulative hit/miss counts, used by -v diagnostics output.
func (c *Cache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}
