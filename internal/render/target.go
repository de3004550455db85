package render

import (
	"fmt"

	"github.com/sdscp/sdscc/internal/ast"
	"github.com/sdscp/sdscc/internal/pragma"
)

// restrictedStmt prints one statement of the target output dialect (spec.md
// §6): assignments, "if (c) goto L;"/"if (c) goto L else goto L2;", plain
// goto, label, built-in calls, and a bare "return;". Simple and Asm share
// this one backbone; Simple calls it only after validating the whole tree
// is already restricted, Asm calls it over the lowering engine's output,
// which is restricted by construction except for the push/pop trampoline's
// braced "if (c) { ... }" dispatch blocks, which this also prints.
func restrictedStmt(p *Printer, bundle pragma.Bundle, s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.Empty:
		return nil

	case *ast.Comment:
		if bundle.Comments {
			p.Line("// %s", n.Text)
		}
		return nil

	case *ast.Label:
		p.Line("label %s:", n.Name)
		return nil

	case *ast.Goto:
		p.Line("goto %s;", n.Label)
		return nil

	case *ast.Block:
		for _, c := range n.Stmts {
			if err := restrictedStmt(p, bundle, c); err != nil {
				return err
			}
		}
		return nil

	case *ast.If:
		return restrictedIf(p, bundle, n)

	case *ast.Assign:
		return restrictedAssign(p, n)

	case *ast.Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = ExprString(a)
		}
		p.Line("%s(%s);", n.Name, joinArgs(args))
		return nil

	case *ast.Return:
		if n.Value != nil {
			return fmt.Errorf("target dialect forbids a non-void return")
		}
		p.Line("return;")
		return nil

	default:
		return fmt.Errorf("statement %T cannot be expressed in the target dialect", s)
	}
}

func restrictedAssign(p *Printer, n *ast.Assign) error {
	lhs := n.Name
	if n.Index != nil {
		lhs = fmt.Sprintf("%s[%s]", n.Name, ExprString(n.Index))
	}
	switch n.Op {
	case "++", "--":
		p.Line("%s%s;", lhs, n.Op)
		return nil
	default:
		p.Line("%s %s %s;", lhs, n.Op, ExprString(n.Value))
		return nil
	}
}

// restrictedIf prints the two shapes the target dialect accepts for a
// conditional: both branches are a plain goto ("if (c) goto L;" or "if (c)
// goto L else goto L2;"), or — only from the lowering engine's push/pop
// trampoline dispatch — a braced multi-statement Then.
func restrictedIf(p *Printer, bundle pragma.Bundle, n *ast.If) error {
	thenGoto, thenIsGoto := n.Then.(*ast.Goto)
	_, thenIsEmpty := n.Then.(*ast.Empty)
	elseGoto, elseIsGoto := n.Else.(*ast.Goto)
	_, elseIsEmpty := n.Else.(*ast.Empty)

	switch {
	case thenIsGoto && elseIsEmpty:
		p.Line("if (%s) goto %s;", ExprString(n.Cond), thenGoto.Label)
		return nil
	case thenIsGoto && elseIsGoto:
		p.Line("if (%s) goto %s else goto %s;", ExprString(n.Cond), thenGoto.Label, elseGoto.Label)
		return nil
	case thenIsEmpty && elseIsEmpty:
		return nil
	default:
		p.Line("if (%s) {", ExprString(n.Cond))
		p.Indent()
		if err := restrictedStmt(p, bundle, n.Then); err != nil {
			return err
		}
		p.Dedent()
		if !elseIsEmpty {
			p.Line("} else {")
			p.Indent()
			if err := restrictedStmt(p, bundle, n.Else); err != nil {
				return err
			}
			p.Dedent()
		}
		p.Line("}")
		return nil
	}
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}
