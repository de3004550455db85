package lexer

import "regexp"

// Operators recognised inside expressions, ordered longest-first so the
// matcher never mistakes a two/three-character operator for its prefix.
var exprOperators = []string{
	"<<=", ">>=",
	"==", "!=", "<=", ">=", "&&", "||", "<<", ">>", "**",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "++", "--",
	"+", "-", "*", "/", "%", "&", "|", "^", "~", "!", "<", ">", "=",
}

var (
	reNumber = regexp.MustCompile(`^(?i:0x[0-9a-f]+|0b[01]+|[0-9]+)`)
	reName   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)
)

// ExprTokens tokenizes a single expression's raw source into the flat atom
// stream (Name, Number, Operator, CharLit, StringLit, Paren, Bracket)
// described in spec.md §4.2. Every paren it encounters is tagged RoleExpr;
// a parenthesised group immediately following a Name (a call expression) is
// re-tagged to RoleArgVals by the expression parser once it recognises that
// shape, since ExprTokens itself has no call context of its own to key off.
func ExprTokens(raw string, base Cursor) []Token {
	sc := &Scanner{src: raw, cursor: base}
	var toks []Token
	for {
		sc.Sweep()
		if sc.Eof() {
			break
		}
		pos := sc.Cursor()
		switch c := sc.Peek(); {
		case c == '"':
			text, err := sc.ConsumeBlockQuoted('"')
			if err != nil {
				toks = append(toks, NewAtom(StringLit, text, pos))
				break
			}
			toks = append(toks, NewAtom(StringLit, text, pos))
		case c == '\'':
			text, _ := sc.ConsumeBlockQuoted('\'')
			toks = append(toks, NewAtom(CharLit, text, pos))
		case c == '(':
			raw, _ := sc.ConsumeBlock()
			toks = append(toks, NewComposite(Paren, raw, RoleExpr, pos))
		case c == '[':
			raw, _ := sc.ConsumeBlock()
			toks = append(toks, NewComposite(Bracket, raw, RoleNone, pos))
		case c == ',' || c == ';' || c == ':':
			toks = append(toks, NewAtom(Punct, sc.Consume(1), pos))
		case isDigit(c):
			if m, ok := sc.ConsumeMatch(reNumber); ok {
				toks = append(toks, NewAtom(Number, m, pos))
			} else {
				sc.Consume(1)
			}
		case isNameStart(c):
			m, _ := sc.ConsumeMatch(reName)
			toks = append(toks, NewAtom(Word, m, pos))
		default:
			matched := false
			for _, op := range exprOperators {
				if sc.Starts(op) {
					toks = append(toks, NewAtom(Operator, sc.ConsumeString(op), pos))
					matched = true
					break
				}
			}
			if !matched {
				sc.Consume(1) // unrecognised character; drop it rather than loop forever
			}
		}
	}
	retagUnaryOperators(toks)
	return toks
}

// retagUnaryOperators rewrites a '+' or '-' Operator token into the unary
// operator "@+"/"@-" whenever it appears at the start of the stream or
// immediately after another operator, per spec.md §4.2.
func retagUnaryOperators(toks []Token) {
	for i := range toks {
		if toks[i].Kind != Operator || (toks[i].Text != "+" && toks[i].Text != "-") {
			continue
		}
		if i == 0 || toks[i-1].Kind == Operator {
			toks[i].Text = "@" + toks[i].Text
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// ConsumeBlockQuoted consumes a string/char literal starting at the current
// position and returns its full text including delimiters.
func (s *Scanner) ConsumeBlockQuoted(quote byte) (string, error) {
	start := s.pos
	if err := s.skipQuoted(quote); err != nil {
		return s.src[start:s.pos], err
	}
	return s.src[start:s.pos], nil
}
