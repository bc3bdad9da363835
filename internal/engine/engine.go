// Package engine wires the Root Engine value (spec §9: "global mutable
// state becomes an explicit Engine value"): one struct holding the
// content registry, the preprocessing cache, the active variant profile,
// and the logger, so a run's state is passed explicitly instead of
// living in package-level globals.
//
// Grounded on the teacher's root-object pattern: internal/server's
// NoccServer and internal/client's Daemon each bundle their process's
// long-lived collaborators (caches, loggers, connection pools) into one
// struct threaded through every operation, rather than reaching for
// globals. Engine does the same for this analysis-only core.
package engine

import (
	"path/filepath"

	"github.com/ct-build/ct-cppdeps/internal/cache"
	"github.com/ct-build/ct-cppdeps/internal/common"
	"github.com/ct-build/ct-cppdeps/internal/content"
	"github.com/ct-build/ct-cppdeps/internal/diag"
	"github.com/ct-build/ct-cppdeps/internal/macro"
	"github.com/ct-build/ct-cppdeps/internal/variant"
	"github.com/ct-build/ct-cppdeps/internal/walker"
)

// Options bundles a run's configuration, populated from CLI flags and,
// optionally, a variant profile (spec §9's "explicit options record").
type Options struct {
	Variant    variant.Profile
	IncludeDir walker.IncludeDirs
	ObjDir     string // empty disables on-disk cache persistence
	Verbosity  int
}

// Engine is the root value a run is built around: every component that
// would otherwise be a package-level global lives here instead.
type Engine struct {
	Registry *content.Registry
	Cache    *cache.Cache
	Walker   *walker.Walker
	Logger   *common.LoggerWrapper

	baseState *macro.State
	opts      Options
}

// New constructs an Engine from Options, wiring the variant profile's
// macro core and include dirs into the walker, and opening the on-disk
// cache tier if opts.ObjDir is set.
func New(opts Options, logger *common.LoggerWrapper) (*Engine, error) {
	var objDir *cache.ObjDir
	if opts.ObjDir != "" {
		var err error
		objDir, err = cache.NewObjDir(filepath.Clean(opts.ObjDir))
		if err != nil {
			return nil, err
		}
	}

	registry := content.NewRegistry()
	c := cache.New(objDir)
	w := walker.New(registry, c, opts.IncludeDir)

	return &Engine{
		Registry:  registry,
		Cache:     c,
		Walker:    w,
		Logger:    logger,
		baseState: macro.NewState(opts.Variant.Core()),
		opts:      opts,
	}, nil
}

// AnalyzeSource runs the full closure(seed_file) → { files, magic_flags,
// implied_sources } operation for one source file, per spec §4.6's
// public operation. The walker has already partitioned and deduplicated
// magic flags via internal/magic internally; this is simply the
// top-level entry point a CLI command calls once per positional source
// argument.
func (e *Engine) AnalyzeSource(path string) (*walker.Closure, []*diag.Diagnostic) {
	closure := e.Walker.Closure(path, e.baseState)
	return closure, closure.Diagnostics
}
