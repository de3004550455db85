// Package passes implements the AST-rewriting passes that run between
// parsing and lowering: AddBraces (spec.md §4.4) and RemoveDeadCode
// (spec.md §4.6).
package passes

import (
	"github.com/sdscp/sdscc/internal/ast"
	"github.com/sdscp/sdscc/internal/lexer"
)

// AddBraces wraps every single-statement body of if/else/while/do-while/
// for/switch/function in a Block, except the degenerate "if (cond) goto
// L;" form, which is left unwrapped so the renderer can express it with
// the target's "goto ... else goto" shape.
func AddBraces(stmts []ast.Stmt) []ast.Stmt {
	for _, s := range stmts {
		addBracesStmt(s)
	}
	return stmts
}

func addBracesStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Block:
		for _, c := range s.Stmts {
			addBracesStmt(c)
		}

	case *ast.If:
		addBracesStmt(s.Then)
		addBracesStmt(s.Else)
		if !isDegenerateGotoBranch(s) {
			s.Then = wrapInBlock(s.Then)
		}
		if !isEmpty(s.Else) {
			s.Else = wrapInBlock(s.Else)
		}
		ast.SetParent(s)

	case *ast.While:
		addBracesStmt(s.Body)
		s.Body = wrapInBlock(s.Body)
		ast.SetParent(s)

	case *ast.DoWhile:
		addBracesStmt(s.Body)
		s.Body = wrapInBlock(s.Body)
		ast.SetParent(s)

	case *ast.For:
		addBracesStmt(s.Body)
		s.Body = wrapInBlock(s.Body)
		for _, c := range s.Init {
			addBracesStmt(c)
		}
		for _, c := range s.Iter {
			addBracesStmt(c)
		}
		ast.SetParent(s)

	case *ast.Switch:
		addBracesStmt(s.Body)
		s.Body = wrapInBlock(s.Body)
		ast.SetParent(s)

	case *ast.FunctionDecl:
		for _, c := range s.Body.Stmts {
			addBracesStmt(c)
		}
	}
}

// isDegenerateGotoBranch reports whether s is a bare "if (cond) goto L;"
// with no else branch, the one shape AddBraces leaves unwrapped.
func isDegenerateGotoBranch(s *ast.If) bool {
	_, isGoto := s.Then.(*ast.Goto)
	return isGoto && isEmpty(s.Else)
}

func isEmpty(s ast.Stmt) bool {
	_, ok := s.(*ast.Empty)
	return ok
}

func wrapInBlock(s ast.Stmt) ast.Stmt {
	if b, ok := s.(*ast.Block); ok {
		return b
	}
	if isEmpty(s) {
		return s
	}
	return &ast.Block{Pos: lexer.CursorInit, Stmts: []ast.Stmt{s}}
}
