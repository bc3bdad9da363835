package analyzer

import "strings"

// parseDirective classifies the text following a leading '#' (already
// stripped) on a joined logical line. rest may have leading whitespace.
func parseDirective(line int, rest string) Directive {
	rest = strings.TrimLeft(rest, " \t")
	if rest == "" {
		return Directive{Line: line, Kind: DirEmpty}
	}

	kw, remainder := splitKeyword(rest)
	remainder = strings.TrimLeft(remainder, " \t")

	switch kw {
	case "include":
		return parseInclude(line, remainder, false)
	case "include_next":
		return parseInclude(line, remainder, false)
	case "define":
		name, body := splitKeyword(remainder)
		// A parameter list with spaces in it ("F(a, b)") is cut by
		// splitKeyword; extend the head token to the closing paren.
		if strings.IndexByte(name, '(') >= 0 && !strings.Contains(name, ")") {
			if end := strings.IndexByte(remainder, ')'); end >= 0 {
				name = remainder[:end+1]
				body = strings.TrimLeft(remainder[end+1:], " \t")
			}
		}
		return Directive{Line: line, Kind: DirDefine, Name: name, Payload: []byte(body)}
	case "undef":
		name, _ := splitKeyword(remainder)
		return Directive{Line: line, Kind: DirUndef, Name: name}
	case "if":
		return Directive{Line: line, Kind: DirIf, Payload: []byte(remainder)}
	case "ifdef":
		name, _ := splitKeyword(remainder)
		return Directive{Line: line, Kind: DirIfdef, Name: name}
	case "ifndef":
		name, _ := splitKeyword(remainder)
		return Directive{Line: line, Kind: DirIfndef, Name: name}
	case "elif":
		return Directive{Line: line, Kind: DirElif, Payload: []byte(remainder)}
	case "else":
		return Directive{Line: line, Kind: DirElse}
	case "endif":
		return Directive{Line: line, Kind: DirEndif}
	case "pragma":
		if strings.TrimSpace(remainder) == "once" {
			return Directive{Line: line, Kind: DirPragmaOnce}
		}
		return Directive{Line: line, Kind: DirPragmaOther, Payload: []byte(remainder)}
	case "error":
		return Directive{Line: line, Kind: DirError, Payload: []byte(remainder)}
	case "warning":
		return Directive{Line: line, Kind: DirWarning, Payload: []byte(remainder)}
	case "line":
		return Directive{Line: line, Kind: DirLine, Payload: []byte(remainder)}
	default:
		return Directive{Line: line, Kind: DirUnknown, Payload: []byte(rest)}
	}
}

// parseInclude handles both literal `"file.h"`/`<file.h>` forms and the
// computed-include form where the operand is a macro expansion rather
// than a literal header-name token (spec §4.1 computed #include support).
func parseInclude(line int, remainder string, next bool) Directive {
	remainder = strings.TrimSpace(remainder)
	if len(remainder) >= 2 && remainder[0] == '"' {
		if end := strings.IndexByte(remainder[1:], '"'); end >= 0 {
			return Directive{Line: line, Kind: DirInclude, HeaderName: remainder[1 : end+1], Quoted: true}
		}
	}
	if len(remainder) >= 2 && remainder[0] == '<' {
		if end := strings.IndexByte(remainder, '>'); end >= 0 {
			return Directive{Line: line, Kind: DirInclude, HeaderName: remainder[1:end], Quoted: false}
		}
	}
	// neither form matched literally: this is a computed include, to be
	// macro-expanded by the preprocessor before the header name is known.
	return Directive{Line: line, Kind: DirIncludeComputed, Payload: []byte(remainder)}
}

// splitKeyword splits "word rest-of-line" on the first run of whitespace.
func splitKeyword(s string) (string, string) {
	i := 0
	for i < len(s) && !isSpaceByte(s[i]) {
		i++
	}
	word := s[:i]
	for i < len(s) && isSpaceByte(s[i]) {
		i++
	}
	return word, s[i:]
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}
