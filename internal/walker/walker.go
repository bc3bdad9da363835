package walker

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ct-build/ct-cppdeps/internal/analyzer"
	"github.com/ct-build/ct-cppdeps/internal/cache"
	"github.com/ct-build/ct-cppdeps/internal/common"
	"github.com/ct-build/ct-cppdeps/internal/content"
	"github.com/ct-build/ct-cppdeps/internal/diag"
	"github.com/ct-build/ct-cppdeps/internal/macro"
	"github.com/ct-build/ct-cppdeps/internal/magic"
)

// maxRecursionDepth bounds a guard-less cyclic #include chain (spec
// §4.6: "a bounded recursion depth aborts with a diagnostic").
const maxRecursionDepth = 512

var impliedSourceExts = []string{".cpp", ".cc", ".cxx", ".c"}

// Walker drives the preprocessor and content registry across an include
// graph. It holds no per-closure state, so one Walker can run many
// Closure calls concurrently (spec §5: translation units run in
// parallel).
type Walker struct {
	registry *content.Registry
	cache    *cache.Cache
	dirs     IncludeDirs
}

// New creates a Walker over a shared content registry and preprocessing
// cache, searching for includes per dirs.
func New(registry *content.Registry, c *cache.Cache, dirs IncludeDirs) *Walker {
	return &Walker{registry: registry, cache: c, dirs: dirs}
}

// visit tracks files already on the current path (for guard-less cycle
// detection) or already fully processed (content-hash deduplication),
// per spec §4.6: "skip a file if ... its content hash was already
// visited on this path."
type visit struct {
	byHash map[common.SHA256]bool
}

// Closure computes closure(seedPath) per spec §4.6: the transitive
// #include closure, implied sources, and aggregated magic flags reached
// from seedPath under the given initial MacroState.
func (w *Walker) Closure(seedPath string, initial *macro.State) *Closure {
	out := &Closure{}
	agg := magic.NewAggregator()
	headers := &headerSink{added: map[string]bool{}}

	seen := &visit{byHash: map[common.SHA256]bool{}}
	w.walk(seedPath, initial, seen, agg, headers, out, 0)

	var impliedRoots []string
	for _, header := range headers.candidates {
		if src, ok := w.findImpliedSource(header); ok {
			if headers.added[src] {
				continue
			}
			headers.added[src] = true
			out.ImpliedSources = append(out.ImpliedSources, src)
			impliedRoots = append(impliedRoots, src)
		}
	}

	// Implied sources are preprocessed with the translation unit's own
	// initial MacroState, not the header's post-include state (spec
	// §4.6), so each gets a fresh walk from the same `initial`.
	for _, src := range impliedRoots {
		w.walk(src, initial, seen, agg, headers, out, 0)
	}

	out.MagicFlags = map[analyzer.MagicKey][]string{}
	for _, set := range agg.Sets() {
		out.MagicFlags[set.Key] = set.Values
	}

	return out
}

// headerSink records every resolved header path seen during the walk,
// so implied sources can be probed for once all reachable headers are
// known, deduplicating which implied sources have already been queued.
type headerSink struct {
	candidates []string
	added      map[string]bool
}

func (h *headerSink) note(resolvedPath string) {
	h.candidates = append(h.candidates, resolvedPath)
}

// walk reaches one file, recurses into its active includes, and folds
// its magic flags into agg. It returns nothing; results land in out and
// agg as a side effect, matching the depth-first, pre-order traversal
// spec §5 requires for magic-flag ordering.
func (w *Walker) walk(path string, state *macro.State, seen *visit, agg *magic.Aggregator, headers *headerSink, out *Closure, depth int) {
	if depth > maxRecursionDepth {
		out.Diagnostics = append(out.Diagnostics, diag.Fatal(diag.TagInputError, path, 0, "include recursion exceeds bound %d, likely a guard-less cycle", maxRecursionDepth))
		return
	}

	file, err := w.registry.Load(path)
	if err != nil {
		out.Diagnostics = append(out.Diagnostics, diag.Wrap(err, diag.TagInputError, path, 0, "failed to read file"))
		return
	}

	if seen.byHash[file.Hash] {
		return
	}
	seen.byHash[file.Hash] = true

	analysis := analyzer.Analyze(file.Path, file.Bytes)
	value, nextState, diags := w.cache.Resolve(file, analysis, state)
	out.Diagnostics = append(out.Diagnostics, diags...)
	out.Files = append(out.Files, path)
	agg.Add(value.ActiveMagic)

	baseDir := filepath.Dir(path)
	for _, inc := range value.ActiveIncludes {
		if inc.Computed && inc.HeaderName == "" {
			// The preprocessor already tried to macro-expand this payload
			// into a header name and failed (spec §4.3/§9); there is
			// nothing left to resolve.
			out.Unresolved = append(out.Unresolved, UnresolvedInclude{FromFile: path, Line: inc.Line, HeaderName: string(inc.Payload), Quoted: false})
			continue
		}

		resolved, ok := w.resolve(baseDir, inc.HeaderName, inc.Quoted)
		if !ok {
			out.Unresolved = append(out.Unresolved, UnresolvedInclude{FromFile: path, Line: inc.Line, HeaderName: inc.HeaderName, Quoted: inc.Quoted})
			continue
		}

		headers.note(resolved)
		w.walk(resolved, nextState, seen, agg, headers, out, depth+1)
	}
}

// resolve implements spec §4.6's quoted/angled search-path precedence:
// quoted #include tries the including file's own directory first, then
// the configured search dirs (source-relative first, then user
// includes); angled #include only ever looks in system include dirs.
// Grounded on the teacher's own-includes-parser.go resolution loop,
// generalized from its hand-specific -I/-iquote/-isystem fields into
// IncludeDirs.searchOrder.
func (w *Walker) resolve(baseDir, headerName string, quoted bool) (string, bool) {
	if quoted {
		candidate := filepath.Join(baseDir, headerName)
		if fileExists(candidate) {
			return candidate, true
		}
	}
	for _, dir := range w.dirs.searchOrder(quoted) {
		candidate := filepath.Join(dir, headerName)
		if fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// findImpliedSource probes for a sibling implementation file (same stem,
// one of impliedSourceExts) next to a reached header, per spec §4.6's
// implied-source rule.
func (w *Walker) findImpliedSource(headerPath string) (string, bool) {
	return FindImpliedSource(headerPath)
}

// FindImpliedSource is the same probe, exported so other header-dependency
// drivers (internal/cxxrun's --headerdeps=cpp delegate, which discovers
// its own header list via $CPP -MM rather than this walker) can apply the
// identical implied-source rule without duplicating it.
func FindImpliedSource(headerPath string) (string, bool) {
	ext := filepath.Ext(headerPath)
	if !isHeaderExt(ext) {
		return "", false
	}
	stem := strings.TrimSuffix(headerPath, ext)
	for _, candExt := range impliedSourceExts {
		candidate := stem + candExt
		if fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isHeaderExt(ext string) bool {
	switch ext {
	case ".h", ".hpp", ".hh", ".hxx":
		return true
	}
	return false
}
