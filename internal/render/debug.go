// The Debug renderer prints the full structured C-like tree for inspection
// at any pipeline stage (spec.md §4.7), unlike Simple/Asm it never rejects
// a construct and never rewrites literal quoting — it exists so a developer
// can see exactly what the parser or a given pass produced.
package render

import (
	"github.com/sdscp/sdscc/internal/ast"
	"github.com/sdscp/sdscc/internal/pragma"
)

// Debug renders a top-level statement list (globals and function
// declarations) as structured C-like source.
func Debug(topLevel []ast.Stmt, bundle pragma.Bundle) string {
	p := NewPrinter(bundle)
	p.Raw(Banner(bundle, "debug"))
	for i, s := range topLevel {
		if i > 0 {
			p.Blank()
		}
		debugStmt(p, bundle, s)
	}
	return p.String()
}

func debugStmt(p *Printer, bundle pragma.Bundle, s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Empty:
		p.Line(";")

	case *ast.Comment:
		if bundle.Comments {
			p.Line("// %s", n.Text)
		}

	case *ast.Block:
		p.Line("{")
		p.Indent()
		for _, c := range n.Stmts {
			debugStmt(p, bundle, c)
		}
		p.Dedent()
		p.Line("}")

	case *ast.VarDecl:
		if n.Value == nil {
			p.Line("var %s;", n.Name)
		} else {
			p.Line("var %s = %s;", n.Name, n.Value.String())
		}

	case *ast.Assign:
		lhs := n.Name
		if n.Index != nil {
			lhs = n.Name + "[" + n.Index.String() + "]"
		}
		if n.Op == "++" || n.Op == "--" {
			p.Line("%s%s;", lhs, n.Op)
		} else {
			p.Line("%s %s %s;", lhs, n.Op, n.Value.String())
		}

	case *ast.Call:
		p.Line("%s;", n.String())

	case *ast.Goto:
		p.Line("goto %s;", n.Label)

	case *ast.Label:
		p.Line("%s:", n.Name)

	case *ast.Break:
		p.Line("break;")

	case *ast.Continue:
		p.Line("continue;")

	case *ast.Return:
		if n.Value == nil {
			p.Line("return;")
		} else {
			p.Line("return %s;", n.Value.String())
		}

	case *ast.If:
		p.Line("if (%s)", n.Cond.String())
		debugBranch(p, bundle, n.Then)
		if !isEmptyDebug(n.Else) {
			p.Line("else")
			debugBranch(p, bundle, n.Else)
		}

	case *ast.While:
		p.Line("while (%s)", n.Cond.String())
		debugBranch(p, bundle, n.Body)

	case *ast.DoWhile:
		p.Line("do")
		debugBranch(p, bundle, n.Body)
		p.Line("while (%s);", n.Cond.String())

	case *ast.For:
		p.Line("for (%s; %s; %s)", stmtList(n.Init), n.Cond.String(), stmtList(n.Iter))
		debugBranch(p, bundle, n.Body)

	case *ast.Switch:
		p.Line("switch (%s)", n.Value.String())
		debugBranch(p, bundle, n.Body)

	case *ast.Case:
		p.Line("case %s:", n.Value.String())

	case *ast.Default:
		p.Line("default:")

	case *ast.FunctionDecl:
		p.Line("%s(%s) {", n.Name, joinArgs(n.Params))
		p.Indent()
		for _, c := range n.Body.Stmts {
			debugStmt(p, bundle, c)
		}
		p.Dedent()
		p.Line("}")

	default:
		p.Line("/* unrenderable statement %T */", s)
	}
}

// debugBranch prints a structured statement's single-statement or block
// body, indented, without the surrounding braces AddBraces would otherwise
// require it to always carry (a raw single statement can still reach here
// from a tree that bypassed AddBraces, e.g. a direct parser snapshot).
func debugBranch(p *Printer, bundle pragma.Bundle, s ast.Stmt) {
	if b, ok := s.(*ast.Block); ok {
		debugStmt(p, bundle, b)
		return
	}
	p.Indent()
	debugStmt(p, bundle, s)
	p.Dedent()
}

func isEmptyDebug(s ast.Stmt) bool {
	_, ok := s.(*ast.Empty)
	return ok
}

func stmtList(stmts []ast.Stmt) string {
	out := ""
	for i, s := range stmts {
		if i > 0 {
			out += ", "
		}
		switch n := s.(type) {
		case *ast.VarDecl:
			if n.Value == nil {
				out += "var " + n.Name
			} else {
				out += "var " + n.Name + " = " + n.Value.String()
			}
		case *ast.Assign:
			if n.Value == nil {
				out += n.Name + n.Op
			} else {
				out += n.Name + " " + n.Op + " " + n.Value.String()
			}
		case *ast.Call:
			out += n.String()
		default:
			out += "?"
		}
	}
	return out
}
