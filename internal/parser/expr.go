package parser

import (
	"strconv"
	"strings"

	"github.com/sdscp/sdscc/internal/ast"
	"github.com/sdscp/sdscc/internal/lexer"
)

// ParseExprTokens converts a flat expression token stream (as produced by
// lexer.ExprTokens, or by a Paren(RoleExpr) composite's Children()) into a
// flat ast.Group, per spec.md §3: "Group (ordered list of children)". No
// precedence structure is imposed here; the lowering engine's operator
// re-grouping pass (§4.5.6) is responsible for folding this flat sequence
// into Left/Right/Operand trees.
func ParseExprTokens(toks []lexer.Token, file string) (ast.Expr, error) {
	children := make([]ast.Expr, 0, len(toks))
	w := NewWalker(toks, file)
	for !w.Eof() {
		e, err := parseOperand(w, file)
		if err != nil {
			return nil, err
		}
		children = append(children, e)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &ast.Group{Children: children}, nil
}

// parseOperand consumes exactly one token's worth of expression content:
// a literal, a name (bare, indexed, or a call), a parenthesised
// sub-expression, or a bare operator (left flat for the re-grouping pass).
func parseOperand(w *Walker, file string) (ast.Expr, error) {
	tok := w.Next()
	switch tok.Kind {
	case lexer.Number:
		return literalFromNumber(tok), nil

	case lexer.CharLit:
		return literalFromChar(tok), nil

	case lexer.StringLit:
		return &ast.Literal{Kind: ast.StringLiteral, Text: tok.Text}, nil

	case lexer.Operator:
		return &ast.Operator{Op: tok.Text}, nil

	case lexer.Paren:
		tok.SetRole(lexer.RoleExpr)
		return ParseExprTokens(tok.Children(), file)

	case lexer.Word:
		if w.Peek().Kind == lexer.Paren {
			paren := w.Next()
			paren.SetRole(lexer.RoleArgVals)
			args, err := parseExprList(paren.Children(), file)
			if err != nil {
				return nil, err
			}
			return &ast.Call{Name: tok.Text, Args: args}, nil
		}
		if w.Peek().Kind == lexer.Bracket {
			bracket := w.Next()
			idx, err := ParseExprTokens(bracket.Children(), file)
			if err != nil {
				return nil, err
			}
			return &ast.Variable{Name: tok.Text, Index: idx}, nil
		}
		return &ast.Variable{Name: tok.Text}, nil

	default:
		return nil, w.posErrorf(tok.Pos, "unexpected token %q in expression", tok.Text)
	}
}

// parseExprList splits a comma-delimited child token stream (as produced
// for a RoleArgVals paren) into its argument expressions.
func parseExprList(toks []lexer.Token, file string) ([]ast.Expr, error) {
	var args []ast.Expr
	var cur []lexer.Token
	flush := func() error {
		if len(cur) == 0 {
			return nil
		}
		e, err := ParseExprTokens(cur, file)
		if err != nil {
			return err
		}
		args = append(args, e)
		cur = nil
		return nil
	}
	for _, t := range toks {
		if t.Kind == lexer.Punct && t.Text == "," {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		cur = append(cur, t)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return args, nil
}

func literalFromNumber(tok lexer.Token) *ast.Literal {
	lower := strings.ToLower(tok.Text)
	var v int64
	switch {
	case strings.HasPrefix(lower, "0x"):
		v, _ = strconv.ParseInt(lower[2:], 16, 64)
	case strings.HasPrefix(lower, "0b"):
		v, _ = strconv.ParseInt(lower[2:], 2, 64)
	default:
		v, _ = strconv.ParseInt(tok.Text, 10, 64)
	}
	return &ast.Literal{Kind: ast.IntLiteral, Text: tok.Text, IntValue: int(v)}
}

func literalFromChar(tok lexer.Token) *ast.Literal {
	inner := tok.Text
	if len(inner) >= 2 {
		inner = inner[1 : len(inner)-1]
	}
	v := 0
	if strings.HasPrefix(inner, "\\") && len(inner) > 1 {
		v = int(decodeEscape(inner[1:]))
	} else if len(inner) > 0 {
		v = int(inner[0])
	}
	return &ast.Literal{Kind: ast.CharLiteral, Text: tok.Text, IntValue: v}
}

func decodeEscape(s string) byte {
	switch s {
	case "n":
		return '\n'
	case "t":
		return '\t'
	case "r":
		return '\r'
	case "0":
		return 0
	case "\\":
		return '\\'
	case "'":
		return '\''
	default:
		if len(s) > 0 {
			return s[0]
		}
		return 0
	}
}
