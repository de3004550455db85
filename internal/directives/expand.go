package directives

import (
	"fmt"
	"strings"
)

// ApplyMacros iteratively expands identifiers in text until a pass performs
// zero substitutions or a recursion depth of maxMacroDepth is reached
// (failing in the latter case), per spec.md §4.1's apply_macros().
func (p *Processor) ApplyMacros(text string) (string, error) {
	for depth := 0; depth < maxMacroDepth; depth++ {
		next, changed, err := p.expandOnce(text)
		if err != nil {
			return "", err
		}
		if !changed {
			return next, nil
		}
		text = next
	}
	return "", fmt.Errorf("macro expansion exceeded depth %d (possible recursive macro)", maxMacroDepth)
}

func (p *Processor) expandOnce(text string) (string, bool, error) {
	var out strings.Builder
	changed := false
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '"' || c == '\'':
			j := skipLiteral(text, i)
			out.WriteString(text[i:j])
			i = j

		case isIdentStart(c):
			j := i
			for j < len(text) && isIdentByte(text[j]) {
				j++
			}
			name := text[i:j]

			if k := skipSpaces(text, j); k < len(text) && text[k] == '(' {
				close, args, ok := splitCallArgs(text, k)
				if ok {
					if m, found := p.Macros.Resolve(name, len(args)); found && m.Kind == FunctionLike {
						out.WriteString(m.Expand(args))
						changed = true
						i = close
						continue
					}
				}
			}

			if k := skipSpaces(text, j); k < len(text) && text[k] == '[' {
				end := strings.IndexByte(text[k:], ']')
				if end >= 0 {
					arg := strings.TrimSpace(text[k+1 : k+end])
					if m, found := p.Macros.Resolve(name, 1); found && m.Kind == ArrayLike {
						out.WriteString(m.Expand([]string{arg}))
						changed = true
						i = k + end + 1
						continue
					}
				}
			}

			if m, found := p.Macros.Resolve(name, 0); found && m.Kind == Constant {
				out.WriteString(m.Expand(nil))
				changed = true
				i = j
				continue
			}

			out.WriteString(name)
			i = j

		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String(), changed, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func skipSpaces(text string, i int) int {
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	return i
}

func skipLiteral(text string, i int) int {
	quote := text[i]
	j := i + 1
	for j < len(text) && text[j] != quote {
		if text[j] == '\\' {
			j++
		}
		j++
	}
	if j < len(text) {
		j++
	}
	return j
}

// splitCallArgs splits a "(...)" call's top-level comma-separated argument
// list starting at openParen, returning the index just past the matching
// close paren and the trimmed argument texts.
func splitCallArgs(text string, openParen int) (closeIdx int, args []string, ok bool) {
	depth := 0
	start := openParen + 1
	i := openParen
	for i < len(text) {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				last := strings.TrimSpace(text[start:i])
				if last != "" || len(args) > 0 {
					args = append(args, last)
				}
				return i + 1, args, true
			}
		case ',':
			if depth == 1 {
				args = append(args, strings.TrimSpace(text[start:i]))
				start = i + 1
			}
		case '"', '\'':
			i = skipLiteral(text, i) - 1
		}
		i++
	}
	return 0, nil, false
}
