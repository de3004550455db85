package ast

import (
	"fmt"
	"strings"
)

// Expr is implemented by every expression node. Unlike Stmt, expressions do
// not carry parent back-references: they are always owned by exactly one
// Stmt field and are rewritten by replacing that field outright, which is
// sufficient for every pass in the lowering engine.
type Expr interface {
	fmt.Stringer
	exprNode()
}

// Group is a flat, not-yet-precedence-grouped sequence of operands and
// operators as produced directly by the statement parser's expression
// reader. The operator re-grouping pass (spec.md §4.5.6) sweeps the fixed
// precedence table over a copy of a Group's Children and builds a new tree
// of *Operator nodes; the Group itself is left unchanged.
type Group struct {
	Children []Expr
}

// LiteralKind distinguishes the three literal shapes the dialect supports.
type LiteralKind int

const (
	IntLiteral LiteralKind = iota
	CharLiteral
	StringLiteral
)

// Literal is a number, char, or string literal. Text is the literal's
// original source spelling (e.g. "0x10"); IntValue is populated for
// IntLiteral and CharLiteral once parsed.
type Literal struct {
	Kind     LiteralKind
	Text     string
	IntValue int
}

// Operator is a bare operator token inside a Group, or after re-grouping the
// node of a binary/unary application: Operand is non-nil for a unary
// prefix op, Left/Right are both non-nil for a binary op.
type Operator struct {
	Op      string
	Operand Expr // unary
	Left    Expr // binary
	Right   Expr // binary
}

// Variable is a name reference, optionally indexed ("name[Index]").
type Variable struct {
	Name  string
	Index Expr // nil for a bare variable
}

// Call (defined in ast.go alongside the other Stmt types, since the source
// dialect has only one call shape "name(args)") doubles as both a Stmt
// (used directly, discarding any result) and an Expr operand (used inside
// a larger expression): its exprNode method lives here next to the rest of
// the Expr implementations.

func (*Group) exprNode()    {}
func (*Literal) exprNode()  {}
func (*Operator) exprNode() {}
func (*Variable) exprNode() {}
func (*Call) exprNode()     {}

func (g *Group) String() string {
	parts := make([]string, len(g.Children))
	for i, c := range g.Children {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func (l *Literal) String() string { return l.Text }

func (o *Operator) String() string {
	switch {
	case o.Left != nil && o.Right != nil:
		return fmt.Sprintf("(%s %s %s)", o.Left, o.Op, o.Right)
	case o.Operand != nil:
		return fmt.Sprintf("(%s%s)", strings.TrimPrefix(o.Op, "@"), o.Operand)
	default:
		return o.Op
	}
}

func (v *Variable) String() string {
	if v.Index == nil {
		return v.Name
	}
	return fmt.Sprintf("%s[%s]", v.Name, v.Index)
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ", "))
}

// IsLiteral reports whether e is a constant Literal, or a single-child Group
// wrapping one, as needed by the If/while literal-condition optimisation in
// spec.md §4.5.5.
func IsLiteral(e Expr) (*Literal, bool) {
	for {
		g, ok := e.(*Group)
		if !ok || len(g.Children) != 1 {
			break
		}
		e = g.Children[0]
	}
	lit, ok := e.(*Literal)
	return lit, ok
}
