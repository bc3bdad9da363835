package macro

import "strings"

// ParseDefine builds a Macro from a #define directive's head token (the
// name, optionally followed immediately by a parenthesized parameter
// list with no intervening space) and its body text.
func ParseDefine(head string, body []byte) *Macro {
	name := head
	var params []string
	variadic := false

	if paren := strings.IndexByte(head, '('); paren >= 0 && strings.HasSuffix(head, ")") {
		name = head[:paren]
		inner := head[paren+1 : len(head)-1]
		if strings.TrimSpace(inner) != "" {
			for _, p := range strings.Split(inner, ",") {
				p = strings.TrimSpace(p)
				if p == "..." {
					variadic = true
					continue
				}
				params = append(params, p)
			}
		} else {
			params = []string{} // FOO() is function-like with zero params, distinct from object-like FOO
		}
	}

	return &Macro{
		Name:     name,
		Params:   params,
		Variadic: variadic,
		Body:     body,
	}
}
