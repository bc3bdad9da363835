package macro

import "strings"

// maxTextExpansionDepth bounds computed-include macro expansion, the same
// implementation-defined function-like-expansion bound §9's Open
// Questions settles on for evalexpr's arithmetic expansion (200),
// reapplied here since this is the same "keep substituting until stable"
// shape on text instead of integers.
const MaxTextExpansionDepth = 200

const maxTextExpansionDepth = MaxTextExpansionDepth

// ExpandText performs the textual macro substitution spec §4.3 requires
// for a computed #include: "compute by macro-expanding the payload."
// Identifiers bound to an object-like macro are replaced by their body,
// repeatedly, until a pass makes no further substitution or the depth
// bound is hit. Function-like macro names are left untouched since a
// computed-include payload is never itself a call. ok is false only on
// runaway expansion (the depth bound), not on an identifier that simply
// never resolves to a macro — those pass through unchanged, same as a
// real preprocessor leaves unexpandable identifiers in place.
func ExpandText(state *State, payload []byte) (expanded []byte, ok bool) {
	cur := payload
	for depth := 0; depth < maxTextExpansionDepth; depth++ {
		next, changed := expandTextOnce(state, cur)
		if !changed {
			return next, true
		}
		cur = next
	}
	return nil, false
}

func expandTextOnce(state *State, src []byte) (out []byte, changed bool) {
	i := 0
	for i < len(src) {
		c := src[i]
		if isIdentStart(c) {
			start := i
			for i < len(src) && isIdentCont(src[i]) {
				i++
			}
			name := string(src[start:i])
			if v := state.Lookup(name); v.IsDefined() && !v.Macro.IsFunctionLike() {
				out = append(out, v.Macro.Body...)
				changed = true
				continue
			}
			out = append(out, name...)
			continue
		}
		out = append(out, c)
		i++
	}
	return out, changed
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// ExtractHeaderName tokenizes a fully macro-expanded computed-include
// payload into a header name literal, per spec §4.3's "tokenize the
// result as a header-name" step. Returns ok=false (an unresolvable
// expansion, including the empty-string case spec §9 calls out) when the
// trimmed text isn't a single quoted or angle-bracketed header name.
func ExtractHeaderName(expanded []byte) (name string, quoted bool, ok bool) {
	s := strings.TrimSpace(string(expanded))
	if len(s) < 2 {
		return "", false, false
	}
	if s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1], true, true
	}
	if s[0] == '<' && s[len(s)-1] == '>' {
		return s[1 : len(s)-1], false, true
	}
	return "", false, false
}
