package directives

import (
	"fmt"
	"strings"
)

// parseDefine parses the text following "#define " into a Macro, handling
// all three shapes spec.md §4.1 documents: "NAME BODY", "NAME(a, b, ...)
// BODY", and "NAME[a] BODY".
func parseDefine(rest string) (*Macro, error) {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil, fmt.Errorf("empty #define")
	}

	nameEnd := 0
	for nameEnd < len(rest) && isIdentByte(rest[nameEnd]) {
		nameEnd++
	}
	if nameEnd == 0 {
		return nil, fmt.Errorf("malformed macro name in %q", rest)
	}
	name := rest[:nameEnd]
	tail := rest[nameEnd:]

	switch {
	case strings.HasPrefix(tail, "("):
		close := strings.Index(tail, ")")
		if close < 0 {
			return nil, fmt.Errorf("unterminated parameter list in #define %s", name)
		}
		paramList := tail[1:close]
		body := strings.TrimSpace(tail[close+1:])
		params, variadic, err := parseParamList(paramList)
		if err != nil {
			return nil, err
		}
		return &Macro{
			Name:     name,
			Kind:     FunctionLike,
			Params:   params,
			Variadic: variadic,
			RawBody:  body,
			Body:     splitBody(body, params),
		}, nil

	case strings.HasPrefix(tail, "["):
		close := strings.Index(tail, "]")
		if close < 0 {
			return nil, fmt.Errorf("unterminated index parameter in #define %s", name)
		}
		param := strings.TrimSpace(tail[1:close])
		body := strings.TrimSpace(tail[close+1:])
		params := []string{param}
		return &Macro{
			Name:     name,
			Kind:     ArrayLike,
			Params:   params,
			Variadic: -1,
			RawBody:  body,
			Body:     splitBody(body, params),
		}, nil

	default:
		body := strings.TrimSpace(tail)
		return &Macro{
			Name:     name,
			Kind:     Constant,
			Variadic: -1,
			RawBody:  body,
			Body:     splitBody(body, nil),
		}, nil
	}
}

// parseParamList splits a function-like macro's parameter list, marking at
// most one parameter variadic (trailing "...").
func parseParamList(raw string) (params []string, variadic int, err error) {
	raw = strings.TrimSpace(raw)
	variadic = -1
	if raw == "" {
		return nil, -1, nil
	}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.HasSuffix(p, "...") {
			if variadic >= 0 {
				return nil, -1, fmt.Errorf("at most one variadic parameter is permitted")
			}
			p = strings.TrimSpace(strings.TrimSuffix(p, "..."))
			variadic = len(params)
		}
		params = append(params, p)
	}
	return params, variadic, nil
}
