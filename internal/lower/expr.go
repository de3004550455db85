package lower

import (
	"fmt"
	"strconv"

	"github.com/sdscp/sdscc/internal/ast"
	"github.com/sdscp/sdscc/internal/collections"
	"github.com/sdscp/sdscc/internal/directives"
)

// funcLowerer carries the per-function state a single pass over one
// function body (or, while inlining, one spliced-in callee body) needs:
// which pools it draws from, its label namespace, and — when it is lowering
// an inlined callee — where a bare "return" should land instead of the
// normal __fn<i>_end label (spec.md §4.5.7).
type funcLowerer struct {
	eng         *Lowerer
	fi          *FnInfo
	localTmp    map[string]string
	labelNS     string
	changedTmps collections.Set[string]

	returnTarget   string // set while inlining a callee; the tmp its return value goes to
	inlineEndLabel string // set while inlining a callee; where its "return" jumps
}

func newFuncLowerer(eng *Lowerer, fi *FnInfo) *funcLowerer {
	return &funcLowerer{
		eng:         eng,
		fi:          fi,
		localTmp:    map[string]string{},
		labelNS:     fi.LabelNamespace(),
		changedTmps: collections.Set[string]{},
	}
}

func (l *funcLowerer) namespaced(label string) string { return l.labelNS + label }

// renameVar resolves a source identifier to the slot it was lowered to: a
// local tmp bound by a var decl, parameter or inlined argument; a built-in
// passthrough name; or a renamed global. Unresolved names fall back to
// themselves; an undeclared identifier is not reported as an error.
func (l *funcLowerer) renameVar(name string) string {
	if tmp, ok := l.localTmp[name]; ok {
		return tmp
	}
	if passthroughNames.Contains(name) {
		return name
	}
	if g, ok := l.eng.globalRename[name]; ok {
		return g
	}
	return name
}

// hoistIfComplex assigns e into a fresh tmp and appends that assignment to
// *out, unless e is already a bare literal or unindexed variable reference —
// the array-index and builtin-argument hoisting rule of spec.md §4.5.6.
func (l *funcLowerer) hoistIfComplex(out *[]ast.Stmt, e ast.Expr) ast.Expr {
	switch v := e.(type) {
	case *ast.Literal:
		return v
	case *ast.Variable:
		if v.Index == nil {
			return v
		}
	}
	tmp := l.eng.tmp.Alloc()
	l.changedTmps.Add(tmp)
	*out = append(*out, &ast.Assign{Name: tmp, Op: "=", Value: e})
	return varExpr(tmp)
}

type exprResult struct {
	Init []ast.Stmt
	Expr ast.Expr
}

// lowerExpr lowers a single expression node. A *ast.Group is the flat
// operand/bare-operator sequence ParseExprTokens produces; every other node
// type is already shaped and is handled by lowerOperand.
func (l *funcLowerer) lowerExpr(e ast.Expr) (exprResult, error) {
	g, ok := e.(*ast.Group)
	if !ok {
		return l.lowerOperand(e)
	}

	var init []ast.Stmt
	flat := make([]ast.Expr, 0, len(g.Children))
	for _, c := range g.Children {
		if op, bare := isBareOperator(c, nil); bare {
			flat = append(flat, op)
			continue
		}
		r, err := l.lowerOperand(c)
		if err != nil {
			return exprResult{}, err
		}
		init = append(init, r.Init...)
		flat = append(flat, r.Expr)
	}

	grouped, err := regroup(flat)
	if err != nil {
		return exprResult{}, err
	}
	if l.eng.bundle.SimplifyExpressions {
		grouped = constantFold(grouped)
	}
	return exprResult{Init: init, Expr: grouped}, nil
}

func (l *funcLowerer) lowerOperand(e ast.Expr) (exprResult, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return exprResult{Expr: n}, nil
	case *ast.Operator:
		return exprResult{Expr: n}, nil
	case *ast.Variable:
		return l.lowerVariable(n)
	case *ast.Call:
		return l.lowerCallExpr(n)
	case *ast.Group:
		return l.lowerExpr(n)
	default:
		return exprResult{}, fmt.Errorf("unsupported expression node %T", e)
	}
}

func (l *funcLowerer) lowerVariable(n *ast.Variable) (exprResult, error) {
	name := l.renameVar(n.Name)
	if n.Index == nil {
		return exprResult{Expr: &ast.Variable{Name: name}}, nil
	}
	idxRes, err := l.lowerExpr(n.Index)
	if err != nil {
		return exprResult{}, err
	}
	init := idxRes.Init
	idx := l.hoistIfComplex(&init, idxRes.Expr)
	return exprResult{Init: init, Expr: &ast.Variable{Name: name, Index: idx}}, nil
}

// lowerCallExpr dispatches a call appearing inside an expression to a
// built-in rendering, an inline splice, or the full calling convention.
func (l *funcLowerer) lowerCallExpr(n *ast.Call) (exprResult, error) {
	if isBuiltin(n.Name) {
		var init []ast.Stmt
		args := make([]ast.Expr, len(n.Args))
		for i, a := range n.Args {
			r, err := l.lowerExpr(a)
			if err != nil {
				return exprResult{}, err
			}
			init = append(init, r.Init...)
			if _, isOp := r.Expr.(*ast.Operator); isOp {
				args[i] = l.hoistIfComplex(&init, r.Expr)
			} else {
				args[i] = r.Expr
			}
		}
		return exprResult{Init: init, Expr: &ast.Call{Name: n.Name, Args: args}}, nil
	}

	fi, ok := l.eng.fns.Lookup(n.Name)
	if !ok {
		return exprResult{}, fmt.Errorf("call to undefined function %q", n.Name)
	}
	if fi.Inline {
		return l.inlineCall(fi, n)
	}
	return l.emitCallConvention(fi, n)
}

// emitCallConvention lowers a call to a non-inlined function: copy arguments
// into __a0..__aN-1, allocate a return site, push its index (unless this is
// the callee's only call site), jump to the entry, land on the resume label
// and read __rval into a fresh tmp (spec.md §4.5.2).
func (l *funcLowerer) emitCallConvention(fi *FnInfo, n *ast.Call) (exprResult, error) {
	if len(n.Args) != len(fi.Params) {
		return exprResult{}, fmt.Errorf("call to %q expects %d argument(s), got %d", n.Name, len(fi.Params), len(n.Args))
	}
	l.fi.HasInnerCalls = true

	mark := l.eng.arg.Rewind()
	var init []ast.Stmt
	vals := make([]ast.Expr, len(n.Args))
	for i, a := range n.Args {
		r, err := l.lowerExpr(a)
		if err != nil {
			return exprResult{}, err
		}
		init = append(init, r.Init...)
		vals[i] = r.Expr
	}
	for i, v := range vals {
		init = append(init, &ast.Assign{Name: l.eng.arg.Mark(i), Op: "=", Value: v})
	}
	l.eng.arg.Restore(mark)

	k := l.eng.fns.NewReturnSite(fi.Name)
	rp := ReturnLabel(k)
	if l.eng.bundle.ShowTrace {
		init = append(init, traceEcho(fmt.Sprintf("[CALL] %s -> %s", l.fi.Name, fi.Name)))
	}
	if fi.CallerCount != 1 {
		init = append(init, l.emitPush(intExpr(k))...)
	}
	init = append(init, &ast.Goto{Label: fi.EntryLabel()}, &ast.Label{Name: rp})

	tmp := l.eng.tmp.Alloc()
	l.changedTmps.Add(tmp)
	init = append(init, &ast.Assign{Name: tmp, Op: "=", Value: varExpr("__rval")})
	return exprResult{Init: init, Expr: varExpr(tmp)}, nil
}

// inlineCall splices a callee marked inline directly into the caller: each
// parameter becomes a fresh tmp holding the lowered argument, the body is
// lowered sharing the caller's scope, and "return" resolves to a local end
// label instead of the callee's own (spec.md §4.5.7).
func (l *funcLowerer) inlineCall(fi *FnInfo, n *ast.Call) (exprResult, error) {
	if len(n.Args) != len(fi.Params) {
		return exprResult{}, fmt.Errorf("call to %q expects %d argument(s), got %d", n.Name, len(fi.Params), len(n.Args))
	}

	sub := &funcLowerer{
		eng:         l.eng,
		fi:          l.fi,
		localTmp:    map[string]string{},
		labelNS:     l.labelNS,
		changedTmps: l.changedTmps,
	}
	for k, v := range l.localTmp {
		sub.localTmp[k] = v
	}

	var init []ast.Stmt
	for i, p := range fi.Params {
		r, err := l.lowerExpr(n.Args[i])
		if err != nil {
			return exprResult{}, err
		}
		init = append(init, r.Init...)
		tmp := l.eng.tmp.Alloc()
		l.changedTmps.Add(tmp)
		init = append(init, &ast.Assign{Name: tmp, Op: "=", Value: r.Expr})
		sub.localTmp[p] = tmp
	}

	destTmp := l.eng.tmp.Alloc()
	l.changedTmps.Add(destTmp)
	sub.returnTarget = destTmp
	sub.inlineEndLabel = l.eng.labels.New(fmt.Sprintf("fn%s_end", fi.Name))

	body, err := sub.lowerBlock(fi.Decl.Body)
	if err != nil {
		return exprResult{}, err
	}
	if l.eng.bundle.ShowTrace {
		init = append(init, traceEcho(fmt.Sprintf("[ENTER] %s", fi.Name)))
	}
	init = append(init, body...)
	init = append(init, &ast.Label{Name: sub.inlineEndLabel})
	if l.eng.bundle.ShowTrace {
		init = append(init, traceEcho(fmt.Sprintf("[LEAVE] %s", fi.Name)))
	}

	l.fi.HasInnerCalls = l.fi.HasInnerCalls || sub.fi.HasInnerCalls
	return exprResult{Init: init, Expr: varExpr(destTmp)}, nil
}

// --- operator re-grouping and constant folding (spec.md §4.5.6) ---

var unaryOps = map[string]bool{"@+": true, "@-": true, "!": true, "~": true}

// precedenceLevels lists the binary operator groups from tightest to
// loosest binding. Unary operators are folded in a separate pass first.
var precedenceLevels = [][]string{
	{"*", "/", "%"},
	{"+", "-"},
	{"<<", ">>"},
	{"<", "<=", ">", ">="},
	{"==", "!="},
	{"&", "^", "|"},
	{"&&", "||"},
}

// isBareOperator reports whether e is an *ast.Operator token that has not
// yet been attached to any operand — the shape ParseExprTokens leaves
// inline among a Group's children. A non-nil set restricts which operator
// texts qualify.
func isBareOperator(e ast.Expr, set map[string]bool) (*ast.Operator, bool) {
	op, ok := e.(*ast.Operator)
	if !ok || op.Left != nil || op.Right != nil || op.Operand != nil {
		return nil, false
	}
	if set != nil && !set[op.Op] {
		return nil, false
	}
	return op, true
}

// regroup folds a flat operand/bare-operator sequence into a single
// expression tree by sweeping the fixed precedence table left to right,
// level by level (spec.md §4.5.6).
func regroup(children []ast.Expr) (ast.Expr, error) {
	children = regroupUnary(children)
	for _, level := range precedenceLevels {
		children = regroupBinaryLevel(children, level)
	}
	if len(children) != 1 {
		return nil, fmt.Errorf("could not fully re-group expression (%d residual operand(s))", len(children))
	}
	return children[0], nil
}

func regroupUnary(children []ast.Expr) []ast.Expr {
	for {
		changed := false
		out := make([]ast.Expr, 0, len(children))
		i := 0
		for i < len(children) {
			if op, ok := isBareOperator(children[i], unaryOps); ok && i+1 < len(children) {
				out = append(out, &ast.Operator{Op: op.Op, Operand: children[i+1]})
				i += 2
				changed = true
				continue
			}
			out = append(out, children[i])
			i++
		}
		children = out
		if !changed {
			return children
		}
	}
}

// regroupBinaryLevel folds every bare operator in ops, left to right,
// pulling the most recently accumulated result back as the left operand so
// chained operators at the same level associate left (e.g. "a - b - c").
func regroupBinaryLevel(children []ast.Expr, ops []string) []ast.Expr {
	set := map[string]bool{}
	for _, o := range ops {
		set[o] = true
	}
	var out []ast.Expr
	i := 0
	for i < len(children) {
		if op, ok := isBareOperator(children[i], set); ok && i+1 < len(children) {
			var left ast.Expr
			if len(out) > 0 {
				left = out[len(out)-1]
				out = out[:len(out)-1]
			}
			right := children[i+1]
			out = append(out, &ast.Operator{Op: op.Op, Left: left, Right: right})
			i += 2
			continue
		}
		out = append(out, children[i])
		i++
	}
	return out
}

// constantFold renders e back to source text and evaluates it with the same
// safe evaluator #if directives use, since spec.md §9 requires the two to
// agree. Evaluation failure leaves the expression symbolic.
func constantFold(e ast.Expr) ast.Expr {
	v, err := directives.EvaluateConstExpr(e.String())
	if err != nil {
		return e
	}
	return &ast.Literal{Kind: ast.IntLiteral, Text: formatFolded(v), IntValue: v}
}

// formatFolded clamps a folded constant to 32 bits, rendering negative
// results as hex literals since the target compiler's decimal parser
// rejects a leading minus inside some contexts (spec.md §4.5.6).
func formatFolded(v int) string {
	v32 := int32(v)
	if v32 < 0 {
		return "0x" + strconv.FormatUint(uint64(uint32(v32)), 16)
	}
	return strconv.Itoa(int(v32))
}
