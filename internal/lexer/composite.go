package lexer

import "strings"

// tokenizeComposite re-tokenizes a composite token's inner source according
// to its Kind and Role, as described in spec.md §4.2. It is only ever called
// once per token, from Token.Children(), which caches the result.
func tokenizeComposite(t Token) []Token {
	inner := t.Inner()
	innerPos := t.Pos.AdvancedBy(t.Text[:1])

	switch t.Kind {
	case Block:
		return StatementTokens(inner, innerPos)

	case Bracket:
		return ExprTokens(inner, innerPos)

	case Paren:
		switch t.Role() {
		case RoleArgVals:
			return tokenizeCommaList(inner, innerPos, ExprTokens)
		case RoleArgNames:
			return tokenizeCommaList(inner, innerPos, tokenizeBareName)
		case RoleFor:
			return tokenizeForHeader(inner, innerPos)
		default: // RoleExpr and RoleNone both parse as a single expression
			return ExprTokens(inner, innerPos)
		}
	}
	return nil
}

// tokenizeCommaList splits inner on top-level commas (commas not nested
// inside their own brackets; splitTopLevel tracks nesting depth and skips
// string and character literals) and tokenizes
// each segment with tokenizeSegment, joining the results with synthetic
// Punct(",") separators so the parser can walk the flat stream uniformly.
func tokenizeCommaList(inner string, base Cursor, tokenizeSegment func(string, Cursor) []Token) []Token {
	segments, positions := splitTopLevel(inner, base, ',')
	var out []Token
	for i, seg := range segments {
		trimmed := strings.TrimSpace(seg)
		if trimmed == "" && len(segments) == 1 {
			continue // empty argument list: "()"
		}
		out = append(out, tokenizeSegment(seg, positions[i])...)
		if i < len(segments)-1 {
			out = append(out, NewAtom(Punct, ",", positions[i]))
		}
	}
	return out
}

// tokenizeBareName tokenizes a single identifier, as used in function
// parameter lists.
func tokenizeBareName(seg string, pos Cursor) []Token {
	name := strings.TrimSpace(seg)
	if name == "" {
		return nil
	}
	return []Token{NewAtom(Word, name, pos)}
}

// tokenizeForHeader splits a for(...) header's inner text into its three
// semicolon-separated sections (init; cond; iter), defaulting an empty
// condition to the literal 1 per spec.md §4.2. init and iter are tokenized
// as a single statement (they use the same assignment/call grammar as any
// other statement); cond is tokenized as a bare expression.
func tokenizeForHeader(inner string, base Cursor) []Token {
	segments, positions := splitTopLevel(inner, base, ';')
	for len(segments) < 3 {
		segments = append(segments, "")
		positions = append(positions, base)
	}

	var out []Token
	out = append(out, NewAtom(Word, "init", base))
	out = append(out, StatementTokens(ensureTerminated(segments[0]), positions[0])...)

	cond := strings.TrimSpace(segments[1])
	if cond == "" {
		cond = "1"
	}
	out = append(out, NewAtom(Word, "cond", positions[1]))
	out = append(out, ExprTokens(cond, positions[1])...)

	out = append(out, NewAtom(Word, "iter", positions[2]))
	out = append(out, StatementTokens(ensureTerminated(segments[2]), positions[2])...)
	return out
}

func ensureTerminated(s string) string {
	if strings.TrimSpace(s) == "" {
		return ";"
	}
	return s + ";"
}

// splitTopLevel splits s on occurrences of sep that are not nested inside
// parens, brackets, braces or a string/char literal, returning the segments
// and the source Cursor at which each segment begins.
func splitTopLevel(s string, base Cursor, sep byte) ([]string, []Cursor) {
	var segs []string
	var positions []Cursor
	depth := 0
	start := 0
	cur := base
	i := 0
	for i < len(s) {
		c := s[i]
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '"', '\'':
			j := i + 1
			for j < len(s) && s[j] != c {
				if s[j] == '\\' {
					j++
				}
				j++
			}
			i = j
		case sep:
			if depth == 0 {
				segs = append(segs, s[start:i])
				positions = append(positions, cur.AdvancedBy(s[start:start]))
				start = i + 1
			}
		}
		i++
	}
	segs = append(segs, s[start:])
	positions = append(positions, base)

	// Recompute each segment's starting cursor from the original text so
	// diagnostics point at the right line/column.
	offset := 0
	for k, seg := range segs {
		positions[k] = base.AdvancedBy(s[:offset])
		offset += len(seg) + 1
	}
	return segs, positions
}
