package lower

import (
	"fmt"

	"github.com/sdscp/sdscc/internal/ast"
)

// lowerBlock lowers every statement in a block in order, concatenating
// their flattened output.
func (l *funcLowerer) lowerBlock(b *ast.Block) ([]ast.Stmt, error) {
	var out []ast.Stmt
	for _, s := range b.Stmts {
		lowered, err := l.lowerStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, lowered...)
	}
	return out, nil
}

// lowerStmt lowers a single statement to its flat goto/label/assign form,
// per the control-flow table in spec.md §4.5.5.
func (l *funcLowerer) lowerStmt(s ast.Stmt) ([]ast.Stmt, error) {
	switch n := s.(type) {
	case *ast.Empty:
		return nil, nil
	case *ast.Block:
		return l.lowerBlock(n)
	case *ast.Comment:
		return []ast.Stmt{n}, nil
	case *ast.VarDecl:
		return l.lowerVarDecl(n)
	case *ast.Assign:
		return l.lowerAssign(n)
	case *ast.Call:
		return l.lowerCallStmt(n)
	case *ast.Goto:
		return []ast.Stmt{&ast.Goto{Label: l.namespaced(n.Label)}}, nil
	case *ast.Label:
		return []ast.Stmt{&ast.Label{Name: l.namespaced(n.Name)}}, nil
	case *ast.Break:
		return l.lowerBreak(n)
	case *ast.Continue:
		return l.lowerContinue(n)
	case *ast.Return:
		return l.lowerReturn(n)
	case *ast.If:
		return l.lowerIf(n)
	case *ast.While:
		return l.lowerWhile(n)
	case *ast.DoWhile:
		return l.lowerDoWhile(n)
	case *ast.For:
		return l.lowerFor(n)
	case *ast.Switch:
		return l.lowerSwitch(n)
	case *ast.FunctionDecl:
		return nil, fmt.Errorf("nested function declarations are not supported")
	default:
		return nil, fmt.Errorf("unsupported statement in lowering: %T", s)
	}
}

func (l *funcLowerer) lowerVarDecl(n *ast.VarDecl) ([]ast.Stmt, error) {
	tmp := l.eng.tmp.Alloc()
	l.localTmp[n.Name] = tmp
	l.changedTmps.Add(tmp)
	if n.Value == nil {
		return nil, nil
	}
	res, err := l.lowerExpr(n.Value)
	if err != nil {
		return nil, err
	}
	return append(res.Init, &ast.Assign{Name: tmp, Op: "=", Value: res.Expr}), nil
}

func (l *funcLowerer) lowerAssign(n *ast.Assign) ([]ast.Stmt, error) {
	name := l.renameVar(n.Name)
	var out []ast.Stmt
	var idx ast.Expr
	if n.Index != nil {
		r, err := l.lowerExpr(n.Index)
		if err != nil {
			return nil, err
		}
		out = append(out, r.Init...)
		idx = l.hoistIfComplex(&out, r.Expr)
	}
	if n.Op == "++" || n.Op == "--" {
		return append(out, &ast.Assign{Name: name, Index: idx, Op: n.Op}), nil
	}
	r, err := l.lowerExpr(n.Value)
	if err != nil {
		return nil, err
	}
	out = append(out, r.Init...)
	return append(out, &ast.Assign{Name: name, Index: idx, Op: n.Op, Value: r.Expr}), nil
}

// lowerCallStmt handles the control primitives that are written as calls
// (reset/end/push/pop) and otherwise falls through to the general
// expression-call lowering, discarding any result.
func (l *funcLowerer) lowerCallStmt(n *ast.Call) ([]ast.Stmt, error) {
	switch n.Name {
	case "reset":
		return []ast.Stmt{&ast.Goto{Label: "__reset"}}, nil
	case "end":
		l.eng.needHalt = true
		return []ast.Stmt{&ast.Goto{Label: "__halt"}}, nil
	case "push":
		if len(n.Args) != 1 {
			return nil, fmt.Errorf("push() takes exactly one argument")
		}
		res, err := l.lowerExpr(n.Args[0])
		if err != nil {
			return nil, err
		}
		return append(res.Init, l.emitPush(res.Expr)...), nil
	case "pop":
		if len(n.Args) != 1 {
			return nil, fmt.Errorf("pop() takes exactly one argument")
		}
		v, ok := n.Args[0].(*ast.Variable)
		if !ok {
			return nil, fmt.Errorf("pop() argument must be a variable")
		}
		return l.emitPop(l.renameVar(v.Name)), nil
	default:
		res, err := l.lowerCallExpr(n)
		if err != nil {
			return nil, err
		}
		return append(res.Init, stmtFromExpr(res.Expr)...), nil
	}
}

// stmtFromExpr re-wraps a builtin call kept as the tail of an expression
// result into a bare statement. A user-function call's result is a
// Variable read of its saved __rval and is already fully emitted via Init,
// so its residual tail contributes nothing further as a statement.
func stmtFromExpr(e ast.Expr) []ast.Stmt {
	if c, ok := e.(*ast.Call); ok {
		return []ast.Stmt{&ast.Call{Name: c.Name, Args: c.Args}}
	}
	return nil
}

func (l *funcLowerer) lowerReturn(n *ast.Return) ([]ast.Stmt, error) {
	endLabel := l.fi.EndLabel()
	dest := "__rval"
	if l.returnTarget != "" {
		dest = l.returnTarget
		endLabel = l.inlineEndLabel
	}
	if n.Value == nil {
		return []ast.Stmt{&ast.Goto{Label: endLabel}}, nil
	}
	if lit, ok := n.Value.(*ast.Literal); ok && lit.Kind == ast.StringLiteral {
		return nil, fmt.Errorf("cannot return a string literal")
	}
	res, err := l.lowerExpr(n.Value)
	if err != nil {
		return nil, err
	}
	out := append(res.Init, &ast.Assign{Name: dest, Op: "=", Value: res.Expr})
	return append(out, &ast.Goto{Label: endLabel}), nil
}

// lowerIf lowers a conditional. A literal condition with simplify_ifs
// enabled drops the dead branch entirely; a bare "if (c) goto L;" shape
// left by AddBraces (or rediscovered after lowering both branches to single
// gotos) renders directly instead of synthesizing extra labels, since both
// are constructs the target dialect accepts natively (spec.md §6).
func (l *funcLowerer) lowerIf(n *ast.If) ([]ast.Stmt, error) {
	if lit, ok := ast.IsLiteral(n.Cond); ok && l.eng.bundle.SimplifyIfs {
		if lit.IntValue != 0 {
			thenStmts, err := l.lowerStmt(n.Then)
			if err != nil {
				return nil, err
			}
			return append([]ast.Stmt{&ast.Comment{Text: "constant-true condition: else branch eliminated"}}, thenStmts...), nil
		}
		elseStmts, err := l.lowerStmt(n.Else)
		if err != nil {
			return nil, err
		}
		return append([]ast.Stmt{&ast.Comment{Text: "constant-false condition: then branch eliminated"}}, elseStmts...), nil
	}

	cond, err := l.lowerExpr(n.Cond)
	if err != nil {
		return nil, err
	}

	if g, ok := n.Then.(*ast.Goto); ok && isEmptyStmt(n.Else) {
		return append(cond.Init, &ast.If{Cond: cond.Expr, Then: &ast.Goto{Label: l.namespaced(g.Label)}, Else: &ast.Empty{}}), nil
	}

	thenStmts, err := l.lowerStmt(n.Then)
	if err != nil {
		return nil, err
	}
	if isEmptyStmt(n.Else) {
		lEnd := l.eng.labels.New("if_end")
		var out []ast.Stmt
		out = append(out, cond.Init...)
		out = append(out, &ast.If{Cond: negate(cond.Expr), Then: &ast.Goto{Label: lEnd}, Else: &ast.Empty{}})
		out = append(out, thenStmts...)
		out = append(out, &ast.Label{Name: lEnd})
		return out, nil
	}

	elseStmts, err := l.lowerStmt(n.Else)
	if err != nil {
		return nil, err
	}
	if len(thenStmts) == 1 && len(elseStmts) == 1 {
		if tg, ok1 := thenStmts[0].(*ast.Goto); ok1 {
			if eg, ok2 := elseStmts[0].(*ast.Goto); ok2 {
				return append(cond.Init, &ast.If{Cond: cond.Expr, Then: tg, Else: eg}), nil
			}
		}
	}

	lElse := l.eng.labels.New("if_else")
	lEnd := l.eng.labels.New("if_end")
	var out []ast.Stmt
	out = append(out, cond.Init...)
	out = append(out, &ast.If{Cond: negate(cond.Expr), Then: &ast.Goto{Label: lElse}, Else: &ast.Empty{}})
	out = append(out, thenStmts...)
	out = append(out, &ast.Goto{Label: lEnd})
	out = append(out, &ast.Label{Name: lElse})
	out = append(out, elseStmts...)
	out = append(out, &ast.Label{Name: lEnd})
	return out, nil
}

// lowerWhile implements "Lc: if(!c) goto Lb; B; goto Lc; Lb:" (spec.md
// §4.5.5). Labels are stamped onto the node itself so break/continue inside
// B can recover them via the statement's parent chain.
func (l *funcLowerer) lowerWhile(n *ast.While) ([]ast.Stmt, error) {
	lc := l.eng.labels.New("while_test")
	lb := l.eng.labels.New("while_break")
	n.LoopLabel, n.BreakLabel = lc, lb

	if lit, ok := ast.IsLiteral(n.Cond); ok && l.eng.bundle.SimplifyIfs {
		if lit.IntValue == 0 {
			return []ast.Stmt{&ast.Comment{Text: "while(false) eliminated"}}, nil
		}
		body, err := l.lowerStmt(n.Body)
		if err != nil {
			return nil, err
		}
		out := []ast.Stmt{&ast.Label{Name: lc}}
		out = append(out, body...)
		out = append(out, &ast.Goto{Label: lc}, &ast.Label{Name: lb})
		return out, nil
	}

	cond, err := l.lowerExpr(n.Cond)
	if err != nil {
		return nil, err
	}
	body, err := l.lowerStmt(n.Body)
	if err != nil {
		return nil, err
	}
	var out []ast.Stmt
	out = append(out, &ast.Label{Name: lc})
	out = append(out, cond.Init...)
	out = append(out, &ast.If{Cond: negate(cond.Expr), Then: &ast.Goto{Label: lb}, Else: &ast.Empty{}})
	out = append(out, body...)
	out = append(out, &ast.Goto{Label: lc}, &ast.Label{Name: lb})
	return out, nil
}

// lowerDoWhile implements "Lb: B; Lc: if(c) goto Lb; Lk:".
func (l *funcLowerer) lowerDoWhile(n *ast.DoWhile) ([]ast.Stmt, error) {
	lb := l.eng.labels.New("do_body")
	lc := l.eng.labels.New("do_test")
	lk := l.eng.labels.New("do_break")
	n.LoopLabel, n.CondLabel, n.BreakLabel = lb, lc, lk

	body, err := l.lowerStmt(n.Body)
	if err != nil {
		return nil, err
	}
	cond, err := l.lowerExpr(n.Cond)
	if err != nil {
		return nil, err
	}
	var out []ast.Stmt
	out = append(out, &ast.Label{Name: lb})
	out = append(out, body...)
	out = append(out, &ast.Label{Name: lc})
	out = append(out, cond.Init...)
	out = append(out, &ast.If{Cond: cond.Expr, Then: &ast.Goto{Label: lb}, Else: &ast.Empty{}})
	out = append(out, &ast.Label{Name: lk})
	return out, nil
}

// lowerFor implements "init; Lc: if(!c) goto Lk; B; Lit: it; goto Lc; Lk:".
func (l *funcLowerer) lowerFor(n *ast.For) ([]ast.Stmt, error) {
	lc := l.eng.labels.New("for_test")
	lit := l.eng.labels.New("for_iter")
	lk := l.eng.labels.New("for_break")
	n.CondLabel, n.IterLabel, n.BreakLabel = lc, lit, lk

	var out []ast.Stmt
	for _, s := range n.Init {
		lowered, err := l.lowerStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, lowered...)
	}
	out = append(out, &ast.Label{Name: lc})
	cond, err := l.lowerExpr(n.Cond)
	if err != nil {
		return nil, err
	}
	out = append(out, cond.Init...)
	out = append(out, &ast.If{Cond: negate(cond.Expr), Then: &ast.Goto{Label: lk}, Else: &ast.Empty{}})
	body, err := l.lowerStmt(n.Body)
	if err != nil {
		return nil, err
	}
	out = append(out, body...)
	out = append(out, &ast.Label{Name: lit})
	for _, s := range n.Iter {
		lowered, err := l.lowerStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, lowered...)
	}
	out = append(out, &ast.Goto{Label: lc}, &ast.Label{Name: lk})
	return out, nil
}

// lowerSwitch lowers a switch into a chain of "Lnext_i: if(v != ki) goto
// Lnext_i+1; Lmatch_i: body" tests, a default binding its label to the next
// unclaimed test slot with no comparison (spec.md §4.5.5).
func (l *funcLowerer) lowerSwitch(n *ast.Switch) ([]ast.Stmt, error) {
	lk := l.eng.labels.New("switch_break")
	n.BreakLabel = lk

	val, err := l.lowerExpr(n.Value)
	if err != nil {
		return nil, err
	}
	var out []ast.Stmt
	out = append(out, val.Init...)
	operand := l.hoistIfComplex(&out, val.Expr)

	body, ok := n.Body.(*ast.Block)
	if !ok {
		return nil, fmt.Errorf("switch body must be a block")
	}

	var caseLabels []string
	for _, s := range body.Stmts {
		switch s.(type) {
		case *ast.Case, *ast.Default:
			caseLabels = append(caseLabels, l.eng.labels.New("case"))
		}
	}
	nextTest := make([]string, len(caseLabels)+1)
	for i := range caseLabels {
		nextTest[i] = l.eng.labels.New("case_test")
	}
	nextTest[len(caseLabels)] = lk

	idx := 0
	for _, s := range body.Stmts {
		switch c := s.(type) {
		case *ast.Case:
			out = append(out, &ast.Label{Name: nextTest[idx]})
			cv, err := l.lowerExpr(c.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, cv.Init...)
			cond := &ast.Operator{Op: "!=", Left: operand, Right: cv.Expr}
			out = append(out, &ast.If{Cond: cond, Then: &ast.Goto{Label: nextTest[idx+1]}, Else: &ast.Empty{}})
			out = append(out, &ast.Label{Name: caseLabels[idx]})
			idx++
		case *ast.Default:
			out = append(out, &ast.Label{Name: nextTest[idx]})
			out = append(out, &ast.Label{Name: caseLabels[idx]})
			idx++
		default:
			lowered, err := l.lowerStmt(s)
			if err != nil {
				return nil, err
			}
			out = append(out, lowered...)
		}
	}
	out = append(out, &ast.Label{Name: lk})
	return out, nil
}

func (l *funcLowerer) lowerBreak(n *ast.Break) ([]ast.Stmt, error) {
	target := ast.EnclosingLoopOrSwitch(n)
	if target == nil {
		return nil, fmt.Errorf("break outside any loop or switch")
	}
	label, err := breakLabelOf(target)
	if err != nil {
		return nil, err
	}
	return []ast.Stmt{&ast.Goto{Label: label}}, nil
}

func breakLabelOf(s ast.Stmt) (string, error) {
	switch n := s.(type) {
	case *ast.While:
		return n.BreakLabel, nil
	case *ast.DoWhile:
		return n.BreakLabel, nil
	case *ast.For:
		return n.BreakLabel, nil
	case *ast.Switch:
		return n.BreakLabel, nil
	}
	return "", fmt.Errorf("internal: unexpected break target %T", s)
}

func (l *funcLowerer) lowerContinue(n *ast.Continue) ([]ast.Stmt, error) {
	target := ast.EnclosingLoop(n)
	if target == nil {
		return nil, fmt.Errorf("continue outside any loop")
	}
	switch t := target.(type) {
	case *ast.While:
		return []ast.Stmt{&ast.Goto{Label: t.LoopLabel}}, nil
	case *ast.DoWhile:
		return []ast.Stmt{&ast.Goto{Label: t.CondLabel}}, nil
	case *ast.For:
		return []ast.Stmt{&ast.Goto{Label: t.IterLabel}}, nil
	}
	return nil, fmt.Errorf("internal: unexpected continue target %T", target)
}

// emitPush is "__sp -= 1; ram[__sp] = v;" followed by the overflow check
// (spec.md §4.5.4).
func (l *funcLowerer) emitPush(value ast.Expr) []ast.Stmt {
	b := l.eng.bundle
	out := []ast.Stmt{
		&ast.Assign{Name: "__sp", Op: "-=", Value: intExpr(1)},
		&ast.Assign{Name: "ram", Index: varExpr("__sp"), Op: "=", Value: value},
	}
	if b.SafeStack {
		out = append(out, errCheck("__sp", "<", b.StackStart, "__err_so"))
	}
	return out
}

// emitPop is the underflow check followed by "v = ram[__sp]; __sp += 1;".
func (l *funcLowerer) emitPop(dest string) []ast.Stmt {
	b := l.eng.bundle
	var out []ast.Stmt
	if b.SafeStack {
		out = append(out, errCheck("__sp", ">", b.StackEnd, "__err_su"))
	}
	out = append(out,
		&ast.Assign{Name: dest, Op: "=", Value: &ast.Variable{Name: "ram", Index: varExpr("__sp")}},
		&ast.Assign{Name: "__sp", Op: "+=", Value: intExpr(1)},
	)
	return out
}
