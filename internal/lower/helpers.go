package lower

import (
	"strconv"

	"github.com/sdscp/sdscc/internal/ast"
	"github.com/sdscp/sdscc/internal/collections"
)

// passthroughNames are built-in identifiers that never go through the
// global rename table or a function's local_tmp_dict (spec.md §4.5.6's
// "checked against built-in vars, tmps, args, and globals").
var passthroughNames = collections.ToSet([]string{"__rval", "__sp", "__addr", "ram", "sys"})

func intExpr(n int) ast.Expr {
	return &ast.Literal{Kind: ast.IntLiteral, Text: strconv.Itoa(n), IntValue: n}
}

func varExpr(name string) ast.Expr { return &ast.Variable{Name: name} }

// negate wraps e in a logical-not, used by the while/for literal-test
// lowering in spec.md §4.5.5's control-flow table.
func negate(e ast.Expr) ast.Expr { return &ast.Operator{Op: "!", Operand: e} }

// errCheck builds the "if (name op bound) goto label;" bounds-check
// statement spec.md §4.5.4 requires around every push/pop when safe_stack
// is enabled.
func errCheck(name, op string, bound int, label string) ast.Stmt {
	cond := &ast.Operator{Op: op, Left: varExpr(name), Right: intExpr(bound)}
	return &ast.If{Cond: cond, Then: &ast.Goto{Label: label}, Else: &ast.Empty{}}
}

func isEmptyStmt(s ast.Stmt) bool {
	_, ok := s.(*ast.Empty)
	return ok
}
