package passes

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sdscp/sdscc/internal/ast"
	"github.com/sdscp/sdscc/internal/parser"
)

func TestAddBracesWrapsSingleStatementBodies(t *testing.T) {
	src := `main() {
	if (1) echo("a");
	while (1) echo("b");
}`
	stmts, err := parser.ParseProgram(src, "t.sds")
	require.NoError(t, err)
	stmts = AddBraces(stmts)

	fn := stmts[0].(*ast.FunctionDecl)
	ifStmt := fn.Body.Stmts[0].(*ast.If)
	_, ok := ifStmt.Then.(*ast.Block)
	require.True(t, ok, "if-then body should be wrapped in a block")

	whileStmt := fn.Body.Stmts[1].(*ast.While)
	_, ok = whileStmt.Body.(*ast.Block)
	require.True(t, ok, "while body should be wrapped in a block")
}

func TestAddBracesLeavesDegenerateGotoUnwrapped(t *testing.T) {
	ifStmt := &ast.If{
		Cond: &ast.Literal{Kind: ast.IntLiteral, Text: "1", IntValue: 1},
		Then: &ast.Goto{Label: "L"},
		Else: &ast.Empty{},
	}
	AddBraces([]ast.Stmt{ifStmt})
	_, ok := ifStmt.Then.(*ast.Goto)
	require.True(t, ok, "a bare if-goto with no else must stay unwrapped")
}
