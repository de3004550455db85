package lexer

import "github.com/sdscp/sdscc/internal/collections"

// Keywords recognised at statement level. Any other leading identifier falls
// through to the CALL/FUNCTION/SET/LABEL dispatch described in spec.md §4.2.
var statementKeywords = collections.ToSet([]string{
	"if", "else", "while", "do", "for", "switch", "case", "default",
	"break", "continue", "goto", "return", "var", "label",
})

// compound assignment operators recognised by the SET dispatch rule, longest
// first so "+=" is not mistaken for "+".
var setOperators = []string{
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "++", "--", "=",
}

// StatementTokens tokenizes a block's source into the flat statement-level
// token stream spec.md §4.2/§4.3 describe: keyword Words, synthetic
// CALL/FUNCTION/SET/LABEL Words with their auxiliary composite tokens, and
// Block/Paren/Bracket composites for nested structure. The statement parser
// walks this stream with a parser.Walker and recurses through Block/Paren
// children via Token.Children() to parse nested statements and expressions.
func StatementTokens(src string, base Cursor) []Token {
	sc := &Scanner{src: src, cursor: base}
	var toks []Token
	lastKeyword := ""

	for {
		sc.Sweep()
		if sc.Eof() {
			break
		}
		pos := sc.Cursor()

		switch c := sc.Peek(); {
		case c == '{':
			raw, _ := sc.ConsumeBlock()
			toks = append(toks, NewComposite(Block, raw, RoleNone, pos))
			lastKeyword = ""

		case c == ';':
			toks = append(toks, NewAtom(Punct, sc.Consume(1), pos))
			lastKeyword = ""

		case c == ':':
			toks = append(toks, NewAtom(Punct, sc.Consume(1), pos))
			lastKeyword = ""

		case c == '(':
			raw, _ := sc.ConsumeBlock()
			role := RoleExpr
			if lastKeyword == "for" {
				role = RoleFor
			}
			toks = append(toks, NewComposite(Paren, raw, role, pos))
			lastKeyword = ""

		case isNameStart(c):
			name, _ := sc.ConsumeMatch(reName)

			if statementKeywords.Contains(name) {
				toks = append(toks, NewAtom(Word, name, pos))
				switch name {
				case "case":
					toks = append(toks, tokenizeCaseValue(sc)...)
				case "return":
					toks = append(toks, tokenizeReturnValue(sc)...)
				case "goto":
					toks = append(toks, tokenizeGotoLabel(sc)...)
				case "label":
					toks = append(toks, tokenizeLabelName(sc)...)
				case "var":
					toks = append(toks, tokenizeVarDecl(sc)...)
				case "for":
					lastKeyword = name
				}
				continue
			}

			toks = append(toks, dispatchIdentifier(sc, name, pos)...)
			lastKeyword = ""

		case c == '\n':
			sc.Consume(1)

		default:
			// Anything else at statement scope (stray punctuation from a
			// malformed input) is captured verbatim so the parser can report
			// a precise syntax error instead of the tokenizer silently
			// dropping it.
			toks = append(toks, NewAtom(Operator, sc.Consume(1), pos))
			lastKeyword = ""
		}
	}
	return toks
}

// dispatchIdentifier implements the "name (...)", "name (...) { }",
// "name[...] <assign-op> ..." and "name :" synthetic-keyword rules.
func dispatchIdentifier(sc *Scanner, name string, pos Cursor) []Token {
	sc.Sweep()

	switch {
	case sc.Peek() == '(':
		argsRaw, _ := sc.ConsumeBlock()
		sc.Sweep()
		if sc.Peek() == '{' {
			bodyRaw, _ := sc.ConsumeBlock()
			return []Token{
				NewAtom(Word, "FUNCTION", pos),
				NewAtom(Word, name, pos),
				NewComposite(Paren, argsRaw, RoleArgNames, pos),
				NewComposite(Block, bodyRaw, RoleNone, pos),
			}
		}
		return []Token{
			NewAtom(Word, "CALL", pos),
			NewAtom(Word, name, pos),
			NewComposite(Paren, argsRaw, RoleArgVals, pos),
		}

	case sc.Peek() == ':':
		sc.Consume(1)
		return []Token{NewAtom(Word, "LABEL", pos), NewAtom(Word, name, pos)}

	default:
		return tokenizeSetChain(sc, name, pos)
	}
}

// tokenizeSetChain handles "name[idx]? op rvalue" and recursively expands
// comma-separated assignment chains into repeated SET sequences joined by
// synthetic semicolons, per spec.md §4.2.
func tokenizeSetChain(sc *Scanner, name string, pos Cursor) []Token {
	var out []Token
	out = append(out, NewAtom(Word, "SET", pos), NewAtom(Word, name, pos))

	sc.Sweep()
	if sc.Peek() == '[' {
		raw, _ := sc.ConsumeBlock()
		out = append(out, NewComposite(Bracket, raw, RoleNone, pos))
		sc.Sweep()
	}

	op := ""
	for _, candidate := range setOperators {
		if sc.Starts(candidate) {
			op = sc.ConsumeString(candidate)
			break
		}
	}
	if op == "" {
		// Malformed input; emit what we can and let the parser complain.
		return out
	}
	out = append(out, NewAtom(Operator, op, pos))

	if op != "++" && op != "--" {
		rvalueRaw := sc.ConsumeUntil(func(b byte) bool { return b == ';' || b == ',' })
		out = append(out, synthExprToken(rvalueRaw, pos))
	}

	sc.Sweep()
	if sc.Peek() == ',' {
		sc.Consume(1)
		out = append(out, NewAtom(Punct, ";", pos)) // synthetic semicolon between chained assignments
		sc.Sweep()
		next, _ := sc.ConsumeMatch(reName)
		out = append(out, tokenizeSetChain(sc, next, sc.Cursor())...)
		return out
	}
	if sc.Peek() == ';' {
		sc.Consume(1)
	}
	out = append(out, NewAtom(Punct, ";", pos))
	return out
}

// tokenizeCaseValue consumes the expression between "case" and its
// terminating ':' and wraps it as a synthetic parenthesised expression so
// the same Children()-based expression machinery handles it uniformly.
func tokenizeCaseValue(sc *Scanner) []Token {
	pos := sc.Cursor()
	raw := sc.ConsumeUntil(func(b byte) bool { return b == ':' })
	var out []Token
	out = append(out, synthExprToken(raw, pos))
	if sc.Peek() == ':' {
		out = append(out, NewAtom(Punct, sc.Consume(1), pos))
	}
	return out
}

// tokenizeReturnValue consumes the optional expression between "return" and
// its terminating ";", wrapping it as a synthetic parenthesised expression.
// A bare "return;" yields no extra tokens.
func tokenizeReturnValue(sc *Scanner) []Token {
	sc.Sweep()
	pos := sc.Cursor()
	if sc.Peek() == ';' {
		return nil
	}
	raw := sc.ConsumeUntil(func(b byte) bool { return b == ';' })
	return []Token{synthExprToken(raw, pos)}
}

// tokenizeGotoLabel consumes the single identifier naming a goto's target.
func tokenizeGotoLabel(sc *Scanner) []Token {
	sc.Sweep()
	pos := sc.Cursor()
	name, _ := sc.ConsumeMatch(reName)
	return []Token{NewAtom(Word, name, pos)}
}

// tokenizeLabelName consumes "NAME" optionally followed by ":" for the
// explicit "label NAME:" statement form.
func tokenizeLabelName(sc *Scanner) []Token {
	sc.Sweep()
	pos := sc.Cursor()
	name, _ := sc.ConsumeMatch(reName)
	sc.Sweep()
	if sc.Peek() == ':' {
		sc.Consume(1)
	}
	return []Token{NewAtom(Word, name, pos)}
}

// tokenizeVarDecl consumes "NAME" optionally followed by "= EXPR" for a
// "var NAME;" / "var NAME = EXPR;" declaration.
func tokenizeVarDecl(sc *Scanner) []Token {
	sc.Sweep()
	pos := sc.Cursor()
	name, _ := sc.ConsumeMatch(reName)
	out := []Token{NewAtom(Word, name, pos)}
	sc.Sweep()
	if sc.Peek() == '=' && sc.PeekAt(1) != '=' {
		sc.Consume(1)
		raw := sc.ConsumeUntil(func(b byte) bool { return b == ';' })
		out = append(out, synthExprToken(raw, pos))
	}
	return out
}

// synthExprToken wraps raw expression text (which carries no literal
// delimiters of its own, e.g. the value after "case" or after an assignment
// operator) in a synthetic Paren(RoleExpr) so the lazily-computed Children()
// path works identically to a real parenthesised expression.
func synthExprToken(raw string, pos Cursor) Token {
	return NewComposite(Paren, "("+raw+")", RoleExpr, pos)
}
