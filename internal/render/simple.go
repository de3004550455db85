// The Simple renderer is for source that already targets the restricted
// SDS-C dialect directly: no structured loops, no function arguments, no
// non-void returns. It performs no lowering and adds no stack/trampoline
// machinery — it only validates the tree is already restricted and rewrites
// surface syntax (string/char quoting), per spec.md §4.7.
package render

import (
	"fmt"

	"github.com/sdscp/sdscc/internal/ast"
	"github.com/sdscp/sdscc/internal/diag"
	"github.com/sdscp/sdscc/internal/lower"
	"github.com/sdscp/sdscc/internal/pragma"
)

// Simple renders topLevel (global VarDecls plus exactly one argument-less
// "main" FunctionDecl) after validating it against the target dialect's
// restrictions. It returns a *diag.Error of Kind diag.TargetCompat on the
// first violation found.
func Simple(topLevel []ast.Stmt, bundle pragma.Bundle) (string, error) {
	var globals []*ast.VarDecl
	var main *ast.FunctionDecl
	for _, s := range topLevel {
		switch n := s.(type) {
		case *ast.VarDecl:
			globals = append(globals, n)
		case *ast.FunctionDecl:
			if main != nil {
				return "", targetErr(n.Pos.Line, n.Pos.Column, "the simple renderer accepts only a single %q function, found a second %q", "main", n.Name)
			}
			if n.Name != "main" {
				return "", targetErr(n.Pos.Line, n.Pos.Column, "the simple renderer requires the sole function to be named %q, found %q", "main", n.Name)
			}
			if len(n.Params) != 0 {
				return "", targetErr(n.Pos.Line, n.Pos.Column, "the target dialect does not support function arguments (main has %d)", len(n.Params))
			}
			main = n
		default:
			return "", targetErr(0, 0, "unexpected top-level statement %T", s)
		}
	}
	if main == nil {
		return "", targetErr(0, 0, "no main function defined")
	}
	if err := validateRestricted(main.Body); err != nil {
		return "", err
	}

	p := NewPrinter(bundle)
	p.Raw(Banner(bundle, "simple"))
	for _, g := range globals {
		if g.Value == nil {
			p.Line("var %s;", g.Name)
			continue
		}
		p.Line("var %s = %s;", g.Name, ExprString(g.Value))
	}
	p.Blank()
	p.Line("main() {")
	p.Indent()
	for _, s := range main.Body.Stmts {
		if err := restrictedStmt(p, bundle, s); err != nil {
			return "", err
		}
	}
	p.Dedent()
	p.Line("}")
	return p.String(), nil
}

// validateRestricted walks stmt rejecting every construct the target
// dialect cannot express: structured loops, switch, break/continue,
// non-void return, and (inside expressions) calls to user-defined functions
// or non-trivial array index expressions.
func validateRestricted(stmt ast.Stmt) error {
	switch n := stmt.(type) {
	case nil, *ast.Empty, *ast.Goto, *ast.Label, *ast.Comment:
		return nil
	case *ast.Block:
		for _, c := range n.Stmts {
			if err := validateRestricted(c); err != nil {
				return err
			}
		}
		return nil
	case *ast.If:
		if err := validateExpr(n.Cond); err != nil {
			return err
		}
		if err := validateRestricted(n.Then); err != nil {
			return err
		}
		return validateRestricted(n.Else)
	case *ast.While:
		return targetErr(n.Pos.Line, n.Pos.Column, "the target dialect has no structured while loop")
	case *ast.DoWhile:
		return targetErr(n.Pos.Line, n.Pos.Column, "the target dialect has no structured do-while loop")
	case *ast.For:
		return targetErr(n.Pos.Line, n.Pos.Column, "the target dialect has no structured for loop")
	case *ast.Switch:
		return targetErr(n.Pos.Line, n.Pos.Column, "the target dialect has no structured switch")
	case *ast.Break:
		return targetErr(n.Pos.Line, n.Pos.Column, "break has no structured loop/switch to resolve against in the target dialect")
	case *ast.Continue:
		return targetErr(n.Pos.Line, n.Pos.Column, "continue has no structured loop to resolve against in the target dialect")
	case *ast.Return:
		if n.Value != nil {
			return targetErr(n.Pos.Line, n.Pos.Column, "the target dialect forbids a non-void return")
		}
		return nil
	case *ast.Call:
		for _, a := range n.Args {
			if err := validateExpr(a); err != nil {
				return err
			}
		}
		return nil
	case *ast.VarDecl:
		return targetErr(n.Pos.Line, n.Pos.Column, "the target dialect has no local variables; declare %q as a global", n.Name)
	case *ast.Assign:
		if n.Index != nil {
			if err := validateIndexExpr(n.Index); err != nil {
				return err
			}
		}
		if n.Value != nil {
			return validateExpr(n.Value)
		}
		return nil
	default:
		return targetErr(0, 0, "statement %T cannot be expressed in the target dialect", stmt)
	}
}

// validateExpr rejects a call to a user-defined (non-builtin) function
// anywhere inside an expression, per spec.md §4.7: the simple renderer has
// no calling-convention lowering to fall back on.
func validateExpr(e ast.Expr) error {
	switch n := e.(type) {
	case nil, *ast.Literal, *ast.Operator:
		return walkOperands(e)
	case *ast.Group:
		for _, c := range n.Children {
			if err := validateExpr(c); err != nil {
				return err
			}
		}
		return nil
	case *ast.Variable:
		return validateIndexExpr(n.Index)
	case *ast.Call:
		if !lower.IsBuiltin(n.Name) {
			return targetErr(0, 0, "the simple renderer forbids calling user function %q inside an expression", n.Name)
		}
		for _, a := range n.Args {
			if err := validateExpr(a); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

func walkOperands(e ast.Expr) error {
	op, ok := e.(*ast.Operator)
	if !ok {
		return nil
	}
	if op.Operand != nil {
		return validateExpr(op.Operand)
	}
	if op.Left != nil {
		if err := validateExpr(op.Left); err != nil {
			return err
		}
	}
	if op.Right != nil {
		return validateExpr(op.Right)
	}
	return nil
}

// validateIndexExpr rejects a non-trivial array index expression (anything
// beyond a bare literal or variable), per spec.md §4.7 "forbids ... expression
// array indices" — the target dialect has no array-index lowering outside
// the Asm renderer's hoist-to-tmp pass.
func validateIndexExpr(idx ast.Expr) error {
	if idx == nil {
		return nil
	}
	switch idx.(type) {
	case *ast.Literal, *ast.Variable:
		return nil
	default:
		return targetErr(0, 0, "the simple renderer forbids a non-trivial array index expression %q", idx)
	}
}

func targetErr(line, col int, format string, args ...any) error {
	return diag.New(diag.TargetCompat, "", line, col, "", format, args...)
}
