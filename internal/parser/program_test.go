package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sdscp/sdscc/internal/ast"
)

func TestParseProgramGlobalsAndMain(t *testing.T) {
	src := `var g = 7;
main() {
	echo("hi");
}`
	stmts, err := ParseProgram(src, "test.sds")
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	decl, ok := stmts[0].(*ast.VarDecl)
	require.True(t, ok)
	require.Equal(t, "g", decl.Name)

	fn, ok := stmts[1].(*ast.FunctionDecl)
	require.True(t, ok)
	require.Equal(t, "main", fn.Name)
	require.Empty(t, fn.Params)
	require.Len(t, fn.Body.Stmts, 1)

	call, ok := fn.Body.Stmts[0].(*ast.Call)
	require.True(t, ok)
	require.Equal(t, "echo", call.Name)
	require.Len(t, call.Args, 1)
}

func TestParseProgramIfWhileFor(t *testing.T) {
	src := `f(x) {
	if (x > 0)
		return x;
	else
		return 0;
}
main() {
	var i;
	for (i = 0; i < 3; i = i + 1)
		echo(i);
	while (i > 0)
		i = i - 1;
}`
	stmts, err := ParseProgram(src, "test.sds")
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	f := stmts[0].(*ast.FunctionDecl)
	require.Equal(t, []string{"x"}, f.Params)
	ifStmt, ok := f.Body.Stmts[0].(*ast.If)
	require.True(t, ok)
	require.NotNil(t, ifStmt.Cond)

	main := stmts[1].(*ast.FunctionDecl)
	require.Len(t, main.Body.Stmts, 3)
	_, ok = main.Body.Stmts[1].(*ast.For)
	require.True(t, ok)
	_, ok = main.Body.Stmts[2].(*ast.While)
	require.True(t, ok)
}

func TestParseProgramRejectsMalformedAssignment(t *testing.T) {
	_, err := ParseProgram(`main() { x 5; }`, "test.sds")
	require.Error(t, err)
}
