package preprocess

import (
	"github.com/ct-build/ct-cppdeps/internal/analyzer"
	"github.com/ct-build/ct-cppdeps/internal/diag"
	"github.com/ct-build/ct-cppdeps/internal/evalexpr"
	"github.com/ct-build/ct-cppdeps/internal/macro"
)

// Run walks res.Directives against the given base state, returning the
// file's own delta (defines/undefs it applied while active), the minimal
// read set actually consulted, and the line ranges/includes/magic tokens
// that survived conditional compilation. base is never mutated; the
// returned Result.State is a new snapshot layered on top of it, so
// callers can fork many files from one shared base cheaply (spec §4.4's
// Snapshot/ReplaceVariable discipline).
func Run(path string, totalLines int, res *analyzer.AnalysisResult, base *macro.State) *Result {
	state := base.Snapshot()
	readSet := evalexpr.NewReadSet()
	env := stateEnv{state: state}

	out := &Result{State: state}

	var stack []frame
	activeNow := func() bool {
		if len(stack) == 0 {
			return true
		}
		return stack[len(stack)-1].active()
	}

	rangeOpen := true
	rangeStart := 1
	closeRangeAt := func(endLine int) {
		if rangeOpen && endLine >= rangeStart {
			out.ActiveLines = append(out.ActiveLines, LineRange{Start: rangeStart, End: endLine})
		}
	}

	for _, dir := range res.Directives {
		wasActive := activeNow()

		switch dir.Kind {
		case analyzer.DirIf:
			parentActive := wasActive
			taken := false
			if parentActive {
				taken = evalCondition(dir.Payload, env, readSet, dir.Line, path, out)
			}
			stack = append(stack, frame{parentActive: parentActive, branchTaken: taken, anyBranchTaken: taken})

		case analyzer.DirIfdef:
			parentActive := wasActive
			taken := false
			if parentActive {
				readSet.Add(dir.Name)
				taken = state.IsDefined(dir.Name)
			}
			stack = append(stack, frame{parentActive: parentActive, branchTaken: taken, anyBranchTaken: taken})

		case analyzer.DirIfndef:
			parentActive := wasActive
			taken := false
			if parentActive {
				readSet.Add(dir.Name)
				taken = !state.IsDefined(dir.Name)
			}
			stack = append(stack, frame{parentActive: parentActive, branchTaken: taken, anyBranchTaken: taken})

		case analyzer.DirElif:
			if len(stack) > 0 {
				top := &stack[len(stack)-1]
				taken := false
				if top.parentActive && !top.anyBranchTaken {
					taken = evalCondition(dir.Payload, env, readSet, dir.Line, path, out)
				}
				top.branchTaken = taken
				if taken {
					top.anyBranchTaken = true
				}
			} else {
				out.Diagnostics = append(out.Diagnostics, diag.New(diag.TagInputError, path, dir.Line, "#elif without matching #if"))
			}

		case analyzer.DirElse:
			if len(stack) > 0 {
				top := &stack[len(stack)-1]
				top.branchTaken = top.parentActive && !top.anyBranchTaken
				if top.branchTaken {
					top.anyBranchTaken = true
				}
			} else {
				out.Diagnostics = append(out.Diagnostics, diag.New(diag.TagInputError, path, dir.Line, "#else without matching #if"))
			}

		case analyzer.DirEndif:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			} else {
				out.Diagnostics = append(out.Diagnostics, diag.New(diag.TagInputError, path, dir.Line, "#endif without matching #if"))
			}

		case analyzer.DirDefine:
			if wasActive {
				m := macro.ParseDefine(dir.Name, dir.Payload)
				state.Define(m.Name, m)
				out.DefinesDelta = append(out.DefinesDelta, macro.DefinesDeltaOp{Op: macro.OpDefine, Name: m.Name, Macro: m})
			}

		case analyzer.DirUndef:
			if wasActive {
				state.Undef(dir.Name)
				out.DefinesDelta = append(out.DefinesDelta, macro.DefinesDeltaOp{Op: macro.OpUndef, Name: dir.Name})
			}

		case analyzer.DirInclude:
			if wasActive {
				out.ActiveIncludes = append(out.ActiveIncludes, IncludeRef{Line: dir.Line, HeaderName: dir.HeaderName, Quoted: dir.Quoted})
			}

		case analyzer.DirIncludeComputed:
			if wasActive {
				for _, name := range scanIdentifiersForReadSet(dir.Payload) {
					readSet.Add(name)
				}
				out.ActiveIncludes = append(out.ActiveIncludes, resolveComputedInclude(state, dir, path, out))
			}
		}

		nowActive := activeNow()
		if nowActive != rangeOpen {
			closeRangeAt(dir.Line - 1)
			rangeOpen = nowActive
			rangeStart = dir.Line + 1
		}
	}
	closeRangeAt(totalLines)

	if len(stack) > 0 {
		out.Diagnostics = append(out.Diagnostics, diag.New(diag.TagInputError, path, 0, "unterminated #if at end of file"))
	}

	out.ReadSet = readSet.Names()
	out.ActiveMagic = filterActiveMagic(res.MagicTokens, out.ActiveLines)
	return out
}

func evalCondition(payload []byte, env stateEnv, rs *evalexpr.ReadSet, line int, path string, out *Result) bool {
	e, err := evalexpr.Parse(payload)
	if err != nil {
		out.Diagnostics = append(out.Diagnostics, diag.New(diag.TagEvalOddity, path, line, "malformed #if expression: "+err.Error()))
		return false
	}
	v, err := evalexpr.Eval(e, env, rs)
	if err != nil {
		out.Diagnostics = append(out.Diagnostics, diag.New(diag.TagEvalOddity, path, line, err.Error()))
		return false
	}
	return v != 0
}

// resolveComputedInclude expands a computed #include's payload against
// the live macro state and tokenizes the result into a header-name
// literal, per spec §4.3. On an expansion that doesn't bottom out to a
// quoted/angled header name (runaway expansion or an unresolvable
// result, e.g. spec §9's empty-expansion case), HeaderName is left empty
// and a diagnostic is recorded; the walker treats an empty HeaderName on
// a Computed include as unresolved.
func resolveComputedInclude(state *macro.State, dir analyzer.Directive, path string, out *Result) IncludeRef {
	ref := IncludeRef{Line: dir.Line, Computed: true, Payload: dir.Payload}

	expanded, ok := macro.ExpandText(state, dir.Payload)
	if !ok {
		out.Diagnostics = append(out.Diagnostics, diag.New(diag.TagEvalOddity, path, dir.Line, "computed #include macro expansion exceeded depth bound %d", macro.MaxTextExpansionDepth))
		return ref
	}

	name, quoted, ok := macro.ExtractHeaderName(expanded)
	if !ok {
		out.Diagnostics = append(out.Diagnostics, diag.New(diag.TagEvalOddity, path, dir.Line, "computed #include expanded to %q, not a resolvable header-name token", string(expanded)))
		return ref
	}

	ref.HeaderName = name
	ref.Quoted = quoted
	return ref
}

func filterActiveMagic(tokens []analyzer.MagicToken, ranges []LineRange) []analyzer.MagicToken {
	if len(tokens) == 0 {
		return nil
	}
	var out []analyzer.MagicToken
	for _, tok := range tokens {
		for _, r := range ranges {
			if tok.Line >= r.Start && tok.Line <= r.End {
				out = append(out, tok)
				break
			}
		}
	}
	return out
}

func scanIdentifiersForReadSet(payload []byte) []string {
	var out []string
	i := 0
	for i < len(payload) {
		c := payload[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			start := i
			for i < len(payload) {
				c2 := payload[i]
				if c2 == '_' || (c2 >= 'a' && c2 <= 'z') || (c2 >= 'A' && c2 <= 'Z') || (c2 >= '0' && c2 <= '9') {
					i++
					continue
				}
				break
			}
			out = append(out, string(payload[start:i]))
			continue
		}
		i++
	}
	return out
}

