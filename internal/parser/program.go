package parser

import (
	"github.com/sdscp/sdscc/internal/ast"
	"github.com/sdscp/sdscc/internal/lexer"
)

// ParseProgram tokenizes and parses a whole preprocessed source file into
// its top-level statement list (global VarDecls and FunctionDecls), per
// spec.md §4.3.
func ParseProgram(src, file string) ([]ast.Stmt, error) {
	toks := lexer.StatementTokens(src, lexer.CursorInit)
	return ParseStatements(toks, file)
}
