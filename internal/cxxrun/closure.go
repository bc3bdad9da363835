package cxxrun

import (
	"os"

	"github.com/ct-build/ct-cppdeps/internal/analyzer"
	"github.com/ct-build/ct-cppdeps/internal/magic"
	"github.com/ct-build/ct-cppdeps/internal/walker"
)

// Closure runs Run and reshapes its plain dependency list into a
// walker.Closure, so `--headerdeps=cpp` can feed the CLI's existing
// printing and compile_commands.json paths exactly like the built-in
// preprocessor's walker.Closure does. The system preprocessor has
// already resolved every conditional directive by the time it reports
// this list, so every magic annotation found in a listed file is treated
// as active; there is no separate conditional re-evaluation to perform.
func Closure(cppPath string, args []string, sourcePath string) (*walker.Closure, error) {
	headers, err := Run(cppPath, args, sourcePath)
	if err != nil {
		return nil, err
	}

	out := &walker.Closure{MagicFlags: map[analyzer.MagicKey][]string{}}
	agg := magic.NewAggregator()
	seenImplied := map[string]bool{}

	for _, h := range headers {
		out.Files = append(out.Files, h)

		b, err := os.ReadFile(h)
		if err != nil {
			out.Unresolved = append(out.Unresolved, walker.UnresolvedInclude{FromFile: sourcePath, HeaderName: h})
			continue
		}
		agg.Add(analyzer.Analyze(h, b).MagicTokens)

		if src, ok := walker.FindImpliedSource(h); ok && !seenImplied[src] {
			seenImplied[src] = true
			out.ImpliedSources = append(out.ImpliedSources, src)
		}
	}

	for _, set := range agg.Sets() {
		out.MagicFlags[set.Key] = set.Values
	}
	return out, nil
}
