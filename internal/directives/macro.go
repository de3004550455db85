// Package directives implements the C-preprocessor-equivalent directive
// layer: conditional inclusion, macro expansion with variadics, pragmas and
// include-once tracking, producing macro-free text for the tokenizer.
package directives

import "strings"

// Kind distinguishes the three macro shapes spec.md §3 describes.
type Kind int

const (
	Constant Kind = iota
	FunctionLike
	ArrayLike
)

// Fragment is one piece of a macro body: either literal text or a reference
// to one of the macro's parameters. Splitting the body this way (rather
// than doing textual find/replace at expansion time) avoids misfiring when
// a parameter name is a substring of another identifier in the body.
type Fragment struct {
	Literal string // valid when ParamIndex < 0
	ParamIndex int  // index into Macro.Params, or -1 for a literal fragment
}

// Macro is one definition in a MacroTable's overload set.
type Macro struct {
	Name      string
	Kind      Kind
	Params    []string
	Variadic  int // index of the variadic parameter, or -1
	Body      []Fragment
	RawBody   string // original, unfragmented body text (used for #if constant bodies)
}

// Arity reports the fixed parameter count, excluding a trailing variadic.
func (m *Macro) Arity() int {
	if m.Variadic >= 0 {
		return m.Variadic
	}
	return len(m.Params)
}

// Matches reports whether this macro's signature accepts a call with argc
// arguments.
func (m *Macro) Matches(argc int) bool {
	if m.Variadic >= 0 {
		return argc >= m.Variadic
	}
	return argc == len(m.Params)
}

// splitBody breaks a macro body into alternating literal/parameter
// fragments, grounded on original_source/macros.py's body tokenization.
func splitBody(body string, params []string) []Fragment {
	if len(params) == 0 {
		return []Fragment{{Literal: body, ParamIndex: -1}}
	}
	var frags []Fragment
	i := 0
	for i < len(body) {
		matched := false
		for pi, p := range params {
			if !isIdentBoundary(body, i, p) {
				continue
			}
			frags = append(frags, Fragment{ParamIndex: pi})
			i += len(p)
			matched = true
			break
		}
		if matched {
			continue
		}
		start := i
		for i < len(body) && !startsAnyIdent(body, i, params) {
			i++
		}
		if i > start {
			frags = append(frags, Fragment{Literal: body[start:i], ParamIndex: -1})
		} else {
			// defensive: avoid an infinite loop on pathological input
			frags = append(frags, Fragment{Literal: string(body[i]), ParamIndex: -1})
			i++
		}
	}
	return frags
}

func startsAnyIdent(body string, i int, params []string) bool {
	for _, p := range params {
		if isIdentBoundary(body, i, p) {
			return true
		}
	}
	return false
}

func isIdentBoundary(body string, i int, name string) bool {
	if name == "" {
		// An anonymous trailing variadic parameter ("...") has no spelling
		// to search for in the body; its substitution happens entirely
		// through the ", ## __VA__" literal marker in Expand.
		return false
	}
	if !strings.HasPrefix(body[i:], name) {
		return false
	}
	if i > 0 && isIdentByte(body[i-1]) {
		return false
	}
	end := i + len(name)
	if end < len(body) && isIdentByte(body[end]) {
		return false
	}
	return true
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// Expand substitutes args, as written at the call site, for this macro's
// parameters (macros inside them are expanded by later ApplyMacros passes),
// honouring the ", ## __VA__" token-pasting elision
// rule for an empty variadic expansion.
func (m *Macro) Expand(args []string) string {
	variadicText := ""
	if m.Variadic >= 0 && len(args) > m.Variadic {
		variadicText = strings.Join(args[m.Variadic:], ", ")
	}

	var b strings.Builder
	for _, f := range m.Body {
		if f.ParamIndex < 0 {
			b.WriteString(f.Literal)
			continue
		}
		if m.Variadic >= 0 && f.ParamIndex == m.Variadic {
			b.WriteString(variadicText)
			continue
		}
		if f.ParamIndex < len(args) {
			b.WriteString(args[f.ParamIndex])
		}
	}
	out := b.String()
	if variadicText == "" {
		out = strings.ReplaceAll(out, ", ## __VA__", "")
		out = strings.ReplaceAll(out, ",## __VA__", "")
	} else {
		out = strings.ReplaceAll(out, ", ## __VA__", ", "+variadicText)
		out = strings.ReplaceAll(out, ",## __VA__", ", "+variadicText)
	}
	return out
}

// MacroTable maps a macro name to its ordered overload set. A later
// #define with a signature matching an existing entry (same arity, kind and
// variadic position) replaces it in place; otherwise it is appended,
// letting the two definitions coexist as overloads (spec.md §4.1).
type MacroTable map[string][]*Macro

func NewMacroTable() MacroTable { return make(MacroTable) }

func sameSignature(a, b *Macro) bool {
	return a.Kind == b.Kind && a.Arity() == b.Arity() && (a.Variadic >= 0) == (b.Variadic >= 0)
}

// Define adds m to the table, replacing a same-signature overload if one
// exists.
func (t MacroTable) Define(m *Macro) {
	set := t[m.Name]
	for i, existing := range set {
		if sameSignature(existing, m) {
			set[i] = m
			return
		}
	}
	t[m.Name] = append(set, m)
}

// Undefine removes every overload of name.
func (t MacroTable) Undefine(name string) { delete(t, name) }

// Lookup returns the overload set for name, or nil.
func (t MacroTable) Lookup(name string) []*Macro { return t[name] }

// Resolve picks the first declared overload of name whose arity matches
// argc, per spec.md §4.1 "expansion picks the first matching signature in
// declaration order".
func (t MacroTable) Resolve(name string, argc int) (*Macro, bool) {
	for _, m := range t[name] {
		if m.Matches(argc) {
			return m, true
		}
	}
	return nil, false
}

// IsDefinedNonZero reports whether name is defined at all and, for a
// Constant macro, whether its raw body after trimming whitespace is anything
// but "0". A name defined only as function-like or array-like reports
// nonZero true; #ifdef/#ifndef check the macro kind separately.
func (t MacroTable) IsDefinedNonZero(name string) (defined, nonZero bool) {
	for _, m := range t[name] {
		if m.Kind == Constant {
			return true, strings.TrimSpace(m.RawBody) != "0"
		}
	}
	_, exists := t[name]
	return exists, exists
}
