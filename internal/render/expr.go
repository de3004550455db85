package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sdscp/sdscc/internal/ast"
)

// ExprString renders e for the target dialect: identical shape to
// ast.Expr.String() except literals are rewritten per spec.md §4.7's
// "Simple target renderer" rules — double-quoted strings become
// single-quoted, char literals become their bare ASCII integer value — since
// both the Simple and Asm renderers share this target-facing literal form,
// while the Debug renderer keeps the source spelling via ast.Expr.String().
func ExprString(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.Group:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = ExprString(c)
		}
		return strings.Join(parts, " ")
	case *ast.Literal:
		return literalString(n)
	case *ast.Operator:
		switch {
		case n.Left != nil && n.Right != nil:
			return fmt.Sprintf("(%s %s %s)", ExprString(n.Left), n.Op, ExprString(n.Right))
		case n.Operand != nil:
			return fmt.Sprintf("(%s%s)", strings.TrimPrefix(n.Op, "@"), ExprString(n.Operand))
		default:
			return n.Op
		}
	case *ast.Variable:
		if n.Index == nil {
			return n.Name
		}
		return fmt.Sprintf("%s[%s]", n.Name, ExprString(n.Index))
	case *ast.Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = ExprString(a)
		}
		return fmt.Sprintf("%s(%s)", n.Name, strings.Join(args, ", "))
	default:
		return e.String()
	}
}

// literalString rewrites a literal to the target dialect's spelling.
func literalString(l *ast.Literal) string {
	switch l.Kind {
	case ast.CharLiteral:
		return strconv.Itoa(l.IntValue)
	case ast.StringLiteral:
		return requoteString(l.Text)
	default:
		return l.Text
	}
}

// requoteString converts a Go/C-style double-quoted literal (with backslash
// escapes) into the target dialect's single-quoted form, per spec.md §4.7:
// unescaping \" since the quote character no longer needs escaping, and
// escaping any literal ' since it now delimits the string.
func requoteString(text string) string {
	inner := text
	if len(inner) >= 2 && inner[0] == '"' && inner[len(inner)-1] == '"' {
		inner = inner[1 : len(inner)-1]
	}
	var out strings.Builder
	out.WriteByte('\'')
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '\\' && i+1 < len(inner) {
			next := inner[i+1]
			if next == '"' {
				out.WriteByte('"')
				i++
				continue
			}
			out.WriteByte(c)
			out.WriteByte(next)
			i++
			continue
		}
		if c == '\'' {
			out.WriteString(`\'`)
			continue
		}
		out.WriteByte(c)
	}
	out.WriteByte('\'')
	return out.String()
}
