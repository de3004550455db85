package lower

import "github.com/sdscp/sdscc/internal/ast"

// collectCalls walks a function body and returns the name of every callee
// referenced by a statement-level Call or an expression-level Call,
// counting duplicates (spec.md §4.5.1 step 2's call graph traversal).
func collectCalls(body *ast.Block) []string {
	var out []string
	var walkStmt func(ast.Stmt)
	var walkExpr func(ast.Expr)

	walkExpr = func(e ast.Expr) {
		switch n := e.(type) {
		case nil:
		case *ast.Group:
			for _, c := range n.Children {
				walkExpr(c)
			}
		case *ast.Operator:
			walkExpr(n.Operand)
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *ast.Variable:
			walkExpr(n.Index)
		case *ast.Call:
			out = append(out, n.Name)
			for _, a := range n.Args {
				walkExpr(a)
			}
		}
	}

	walkStmt = func(s ast.Stmt) {
		switch n := s.(type) {
		case nil:
		case *ast.Block:
			for _, c := range n.Stmts {
				walkStmt(c)
			}
		case *ast.If:
			walkExpr(n.Cond)
			walkStmt(n.Then)
			walkStmt(n.Else)
		case *ast.While:
			walkExpr(n.Cond)
			walkStmt(n.Body)
		case *ast.DoWhile:
			walkExpr(n.Cond)
			walkStmt(n.Body)
		case *ast.For:
			for _, c := range n.Init {
				walkStmt(c)
			}
			walkExpr(n.Cond)
			for _, c := range n.Iter {
				walkStmt(c)
			}
			walkStmt(n.Body)
		case *ast.Switch:
			walkExpr(n.Value)
			walkStmt(n.Body)
		case *ast.Return:
			walkExpr(n.Value)
		case *ast.Call:
			out = append(out, n.Name)
			for _, a := range n.Args {
				walkExpr(a)
			}
		case *ast.VarDecl:
			walkExpr(n.Value)
		case *ast.Assign:
			walkExpr(n.Index)
			walkExpr(n.Value)
		}
	}

	for _, s := range body.Stmts {
		walkStmt(s)
	}
	return out
}

// callGraph maps every callee name to the list of caller-function names (or
// "init"/"main") that invoke it, plus the total number of call sites, which
// this implementation uses as the "at most one caller" inlining test
// (spec.md §4.5.1 step 3): a function invoked from exactly one call site
// across the whole program, from wherever, is eligible.
type callGraph struct {
	callSites map[string]int
	callers   map[string]map[string]bool
}

func buildCallGraph(fns map[string]*ast.FunctionDecl, extra map[string][]string) *callGraph {
	cg := &callGraph{callSites: map[string]int{}, callers: map[string]map[string]bool{}}
	record := func(caller string, callees []string) {
		for _, callee := range callees {
			cg.callSites[callee]++
			if cg.callers[callee] == nil {
				cg.callers[callee] = map[string]bool{}
			}
			cg.callers[callee][caller] = true
		}
	}
	for name, decl := range fns {
		record(name, collectCalls(decl.Body))
	}
	for name, callees := range extra {
		record(name, callees)
	}
	return cg
}

// reachableFrom computes the transitive closure of callees reachable from
// roots, per spec.md §4.5.1 step 5. init and main are ordinary entries in
// fns like any other function, so no special-casing is needed to walk
// their bodies.
func reachableFrom(roots []string, fns map[string]*ast.FunctionDecl) map[string]bool {
	seen := map[string]bool{}
	var stack []string
	for _, r := range roots {
		stack = append(stack, r)
	}
	callsOf := func(name string) []string {
		if decl, ok := fns[name]; ok {
			return collectCalls(decl.Body)
		}
		return nil
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		for _, callee := range callsOf(n) {
			if !seen[callee] {
				stack = append(stack, callee)
			}
		}
	}
	return seen
}
