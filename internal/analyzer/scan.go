package analyzer

import "strings"

type lexState int

const (
	stNormal lexState = iota
	stLineComment
	stBlockComment
	stString
	stChar
)

// physicalLine describes one `\n`-terminated (or EOF-terminated) raw line.
type physicalLine struct {
	start, end    int  // byte offsets, end excludes the newline
	continuation  bool // true if this line ends with a lone '\' before the newline, in code (not inside a literal)
	startsInState lexState
}

// Analyze performs the single linear scan described in spec §4.1. It never
// returns an error: malformed input (unterminated comment/string) degrades
// to a diagnostic message and the analyzer keeps going on a best-effort
// basis, since one file's syntax error must not block analysis of every
// other file in the closure.
func Analyze(path string, src []byte) *AnalysisResult {
	res := &AnalysisResult{}

	lines, spans := splitLinesAndComments(src, res)
	res.CommentSpans = spans

	definedSeen := map[string]bool{}
	referencedSeen := map[string]bool{}

	i := 0
	for i < len(lines) {
		ln := lines[i]
		if ln.startsInState != stNormal {
			// continuation of a block comment/string from the previous
			// physical line: never a directive start.
			i++
			continue
		}

		// gather the logical line: this physical line plus any further
		// physical lines joined by trailing backslash-continuation.
		logicalStart := ln.start
		logicalEnd := ln.end
		j := i
		for lines[j].continuation && j+1 < len(lines) {
			j++
			logicalEnd = lines[j].end
		}

		raw := src[logicalStart:logicalEnd]
		lineNo := i + 1

		if d, key, val, ok := parseMagicComment(string(raw)); ok {
			res.MagicTokens = append(res.MagicTokens, MagicToken{Line: lineNo, Key: key, Value: val})
			_ = d
		}

		trimmed := strings.TrimLeft(stripContinuations(raw), " \t\r")
		if len(trimmed) > 0 && trimmed[0] == '#' {
			dir := parseDirective(lineNo, trimmed[1:])
			res.Directives = append(res.Directives, dir)

			switch dir.Kind {
			case DirDefine, DirUndef, DirIfdef, DirIfndef:
				if dir.Name != "" && !definedSeen[dir.Name] {
					if dir.Kind == DirDefine || dir.Kind == DirUndef {
						definedSeen[dir.Name] = true
						res.DefinedMacros = append(res.DefinedMacros, dir.Name)
					}
				}
				if (dir.Kind == DirIfdef || dir.Kind == DirIfndef) && dir.Name != "" && !referencedSeen[dir.Name] {
					referencedSeen[dir.Name] = true
					res.ReferencedMacros = append(res.ReferencedMacros, dir.Name)
				}
			case DirIf, DirElif, DirIncludeComputed:
				for _, name := range scanIdentifiers(dir.Payload) {
					if name == "defined" {
						continue
					}
					if !referencedSeen[name] {
						referencedSeen[name] = true
						res.ReferencedMacros = append(res.ReferencedMacros, name)
					}
				}
			}
		}

		i = j + 1
	}

	_ = path
	return res
}

// splitLinesAndComments performs the actual byte-by-byte state machine:
// one pass tracks comment/string/char-literal state and records comment
// spans and per-physical-line continuation flags.
func splitLinesAndComments(src []byte, res *AnalysisResult) ([]physicalLine, []CommentSpan) {
	var lines []physicalLine
	var spans []CommentSpan

	n := len(src)
	state := stNormal
	lineStart := 0
	lineStartState := stNormal
	commentStart := -1

	for i := 0; i < n; i++ {
		c := src[i]

		switch state {
		case stNormal:
			switch {
			case c == '/' && i+1 < n && src[i+1] == '/':
				state = stLineComment
				commentStart = i
				i++
			case c == '/' && i+1 < n && src[i+1] == '*':
				state = stBlockComment
				commentStart = i
				i++
			case c == '"':
				state = stString
			case c == '\'':
				state = stChar
			}

		case stLineComment:
			// terminated below on newline

		case stBlockComment:
			if c == '*' && i+1 < n && src[i+1] == '/' {
				i++
				spans = append(spans, CommentSpan{Start: commentStart, End: i + 1})
				state = stNormal
			}

		case stString:
			if c == '\\' && i+1 < n {
				i++
			} else if c == '"' {
				state = stNormal
			}

		case stChar:
			if c == '\\' && i+1 < n {
				i++
			} else if c == '\'' {
				state = stNormal
			}
		}

		if c == '\n' {
			lineEnd := i
			contin := false
			if state == stNormal && lineEnd > lineStart {
				k := lineEnd - 1
				for k > lineStart && (src[k] == '\r') {
					k--
				}
				if src[k] == '\\' {
					contin = true
				}
			}
			if state == stLineComment {
				spans = append(spans, CommentSpan{Start: commentStart, End: i})
				state = stNormal
			}
			lines = append(lines, physicalLine{start: lineStart, end: lineEnd, continuation: contin, startsInState: lineStartState})
			lineStart = i + 1
			lineStartState = state
		}
	}

	if lineStart < n || n == 0 {
		if state == stLineComment {
			spans = append(spans, CommentSpan{Start: commentStart, End: n})
			state = stNormal
		}
		if state == stBlockComment {
			res.Diagnostics = append(res.Diagnostics, "unterminated block comment at end of file")
		}
		if state == stString || state == stChar {
			res.Diagnostics = append(res.Diagnostics, "unterminated literal at end of file")
		}
		lines = append(lines, physicalLine{start: lineStart, end: n, continuation: false, startsInState: lineStartState})
	}

	return lines, spans
}

// stripContinuations removes trailing backslash-newline join markers so
// the remaining text reads as one logical line of code.
func stripContinuations(raw []byte) string {
	s := string(raw)
	s = strings.ReplaceAll(s, "\\\r\n", " ")
	s = strings.ReplaceAll(s, "\\\n", " ")
	return s
}

var magicKeyNames = func() []string {
	keys := make([]string, 0, len(recognizedMagicKeys))
	for k := range recognizedMagicKeys {
		keys = append(keys, k)
	}
	return keys
}()

// parseMagicComment recognizes a `//#KEY=value` annotation. It must be the
// entire trailing comment on the physical line (spec §4.7): text is taken
// from the first "//" onward.
func parseMagicComment(raw string) (int, MagicKey, string, bool) {
	idx := strings.Index(raw, "//")
	if idx < 0 {
		return 0, "", "", false
	}
	body := strings.TrimSpace(raw[idx+2:])
	if len(body) == 0 || body[0] != '#' {
		return 0, "", "", false
	}
	body = body[1:]
	eq := strings.IndexByte(body, '=')
	if eq < 0 {
		return 0, "", "", false
	}
	key := strings.TrimSpace(body[:eq])
	val := strings.TrimSpace(body[eq+1:])
	mk, ok := recognizedMagicKeys[key]
	if !ok {
		return 0, "", "", false
	}
	return idx, mk, val, true
}

func scanIdentifiers(payload []byte) []string {
	var out []string
	i := 0
	for i < len(payload) {
		c := payload[i]
		if isIdentStart(c) {
			start := i
			for i < len(payload) && isIdentCont(payload[i]) {
				i++
			}
			out = append(out, string(payload[start:i]))
			continue
		}
		i++
	}
	return out
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
