package lower

import (
	"fmt"
	"sort"

	"github.com/sdscp/sdscc/internal/ast"
	"github.com/sdscp/sdscc/internal/collections"
	"github.com/sdscp/sdscc/internal/passes"
	"github.com/sdscp/sdscc/internal/pragma"
)

// Program is the fully lowered output: the flat synthetic main-function
// body plus every global declaration it references, ready for a renderer
// to print (spec.md §4.5's final emission-order bullet list).
type Program struct {
	Globals  []string
	Body     []ast.Stmt
	Warnings []string
}

// Lowerer carries every piece of state the lowering engine owns for the
// lifetime of one compilation: the tmp/arg/label pools, the function
// registry, and the user-global rename table.
type Lowerer struct {
	bundle       pragma.Bundle
	tmp          *Pool
	arg          *Pool
	labels       *LabelPool
	fns          *FnRegistry
	globalRename map[string]string
	globalOrder  []string
	warnings     []string
	needHalt     bool
	trampolines  []trampolineUse
}

// Lower runs the lowering engine over a top-level statement list (global
// var decls and function decls, after AddBraces) and a pragma bundle,
// producing the single flat program spec.md §4.5 describes.
func Lower(topLevel []ast.Stmt, bundle pragma.Bundle) (*Program, error) {
	eng := &Lowerer{
		bundle:       bundle,
		tmp:          NewPool("__t"),
		arg:          NewPool("__a"),
		labels:       NewLabelPool(),
		fns:          NewFnRegistry(),
		globalRename: map[string]string{},
	}

	fns := map[string]*ast.FunctionDecl{}
	var fnOrder []string
	for _, s := range topLevel {
		switch n := s.(type) {
		case *ast.VarDecl:
			eng.registerGlobal(n.Name)
		case *ast.FunctionDecl:
			if _, dup := fns[n.Name]; dup {
				return nil, fmt.Errorf("duplicate function %q", n.Name)
			}
			fns[n.Name] = n
			fnOrder = append(fnOrder, n.Name)
		}
	}
	if _, ok := fns["main"]; !ok {
		return nil, fmt.Errorf("no main function defined")
	}

	cg := buildCallGraph(fns, nil)
	roots := []string{"main"}
	if _, ok := fns["init"]; ok {
		roots = append(roots, "init")
	}
	reachable := reachableFrom(roots, fns)

	for _, name := range fnOrder {
		if name == "init" || name == "main" {
			continue
		}
		if !reachable[name] {
			if bundle.RemoveDeadCode {
				continue
			}
			eng.warnings = append(eng.warnings, fmt.Sprintf("function %q is never called", name))
		}

		decl := fns[name]
		inline := bundle.InlineOneUseFunctions && cg.callSites[name] <= 1

		hasInner := false
		for _, callee := range collectCalls(decl.Body) {
			if isBuiltin(callee) {
				continue
			}
			calleeInline := bundle.InlineOneUseFunctions && cg.callSites[callee] <= 1
			if !calleeInline {
				hasInner = true
				break
			}
		}

		eng.fns.Register(&FnInfo{
			Name:          name,
			Params:        decl.Params,
			Decl:          decl,
			Inline:        inline,
			Reachable:     reachable[name],
			CallerCount:   cg.callSites[name],
			HasInnerCalls: hasInner,
		})
	}
	for _, naked := range []string{"init", "main"} {
		decl, ok := fns[naked]
		if !ok {
			continue
		}
		eng.fns.Register(&FnInfo{Name: naked, Params: decl.Params, Decl: decl, Naked: true, Reachable: true})
	}

	var out []ast.Stmt
	if bundle.Fullspeed {
		out = append(out, &ast.Assign{Name: "sys", Index: intExpr(63), Op: "=", Value: intExpr(128)})
	}
	out = append(out, &ast.Label{Name: "__reset"})

	if initFi, ok := eng.fns.Lookup("init"); ok {
		fl := newFuncLowerer(eng, initFi)
		body, err := fl.lowerBlock(initFi.Decl.Body)
		if err != nil {
			return nil, err
		}
		out = append(out, body...)
	}
	out = append(out, &ast.Label{Name: "__init_end"})
	out = append(out, &ast.Label{Name: "__main_loop"})

	mainFi, _ := eng.fns.Lookup("main")
	mfl := newFuncLowerer(eng, mainFi)
	mainBody, err := mfl.lowerBlock(mainFi.Decl.Body)
	if err != nil {
		return nil, err
	}
	out = append(out, mainBody...)
	out = append(out, &ast.Label{Name: "__main_loop_end"})
	out = append(out, &ast.Goto{Label: "__main_loop"})

	// Every callee's body must be lowered before any callee's return-dispatch
	// block is printed: NewReturnSite only runs while lowering a caller's
	// body, so a callee defined earlier in source order than its caller
	// would otherwise have its dispatch block emitted against an
	// incomplete CallSites list, sending every return to __err_bad_addr.
	// Two passes: lower every reachable, non-inline callee's body first
	// (populating CallSites for all of them, in any order), then emit each
	// one's full on-disk shape — entry, save, body, end, restore, dispatch —
	// now that every call site anywhere in the program has registered
	// itself.
	var calleeNames []string
	calleeBodies := map[string]calleeLowering{}
	for _, name := range eng.fns.Names() {
		if name == "init" || name == "main" {
			continue
		}
		fi, _ := eng.fns.Lookup(name)
		if fi.Inline || !fi.Reachable {
			continue
		}
		calleeNames = append(calleeNames, name)
		cl, err := eng.lowerCalleeBody(fi)
		if err != nil {
			return nil, err
		}
		calleeBodies[name] = cl
	}
	for _, name := range calleeNames {
		fi, _ := eng.fns.Lookup(name)
		out = append(out, eng.assembleCallee(fi, calleeBodies[name])...)
	}

	out = append(out, eng.assembleTrampolines()...)

	if eng.bundle.SafeStack {
		out = append(out, eng.errorHandlerLabels()...)
	}
	if eng.needHalt {
		out = append(out, &ast.Label{Name: "__halt"})
		if eng.bundle.BuiltinLogging {
			out = append(out, &ast.Call{Name: "echo", Args: []ast.Expr{&ast.Literal{Kind: ast.StringLiteral, Text: `"[HALT]"`}}})
		}
	}

	if bundle.RemoveDeadCode {
		out, err = passes.RemoveDeadCode(out)
		if err != nil {
			return nil, err
		}
	}

	globals := []string{"__rval", "__sp", "__addr"}
	globals = append(globals, eng.globalOrder...)
	globals = append(globals, eng.tmp.EverUsedNames()...)
	globals = append(globals, eng.arg.EverUsedNames()...)

	return &Program{Globals: globals, Body: out, Warnings: eng.warnings}, nil
}

// traceEcho builds the per-function/per-call-site echo statement emitted
// when the show_trace pragma is enabled (spec.md §6). Disabled by default;
// purely a source-navigation aid, never load-bearing for correctness.
func traceEcho(msg string) ast.Stmt {
	return &ast.Call{Name: "echo", Args: []ast.Expr{&ast.Literal{Kind: ast.StringLiteral, Text: fmt.Sprintf("%q", msg)}}}
}

func (eng *Lowerer) registerGlobal(name string) {
	renamed := name
	if !eng.bundle.KeepNames {
		renamed = fmt.Sprintf("u%d", len(eng.globalOrder)+1)
	}
	eng.globalRename[name] = renamed
	eng.globalOrder = append(eng.globalOrder, renamed)
}

// calleeLowering is one callee's entry-through-restore statements, lowered
// before any callee's return-dispatch block is emitted (see the two-pass
// comment in Lower): it is everything lowerCallee used to produce except
// the trailing returnDispatch call, which must wait until every callee's
// body has been lowered and every call site has registered its return
// index via NewReturnSite.
type calleeLowering struct {
	stmts []ast.Stmt
}

// lowerCalleeBody lowers one non-inlined, non-naked function's entry label,
// optional param copy, tmp save (direct or via a shared trampoline), body,
// end label, and tmp restore (spec.md §4.5.3 steps 1-5). The return-dispatch
// block (step 6) is added afterwards by assembleCallee.
func (eng *Lowerer) lowerCalleeBody(fi *FnInfo) (calleeLowering, error) {
	fl := newFuncLowerer(eng, fi)

	var out []ast.Stmt
	out = append(out, &ast.Label{Name: fi.EntryLabel()})
	if eng.bundle.ShowTrace {
		out = append(out, traceEcho(fmt.Sprintf("[ENTER] %s", fi.Name)))
	}

	if fi.HasInnerCalls {
		for i, p := range fi.Params {
			tmp := eng.tmp.Alloc()
			fl.changedTmps.Add(tmp)
			fl.localTmp[p] = tmp
			out = append(out, &ast.Assign{Name: tmp, Op: "=", Value: varExpr(eng.arg.Mark(i))})
		}
	} else {
		for i, p := range fi.Params {
			fl.localTmp[p] = eng.arg.Mark(i)
		}
	}

	body, err := fl.lowerBlock(fi.Decl.Body)
	if err != nil {
		return calleeLowering{}, err
	}

	saved := fl.changedTmps.SortedValues(collections.NaturalCompare)
	useTrampoline := eng.bundle.PushPopTrampolines && len(saved) >= eng.bundle.PushPopTrampolineLimit

	if useTrampoline {
		out = append(out, eng.emitTrampolineEntry(fi, saved)...)
	} else {
		for _, tmp := range saved {
			out = append(out, fl.emitPush(varExpr(tmp))...)
		}
	}

	out = append(out, body...)
	out = append(out, &ast.Label{Name: fi.EndLabel()})
	if eng.bundle.ShowTrace {
		out = append(out, traceEcho(fmt.Sprintf("[LEAVE] %s", fi.Name)))
	}

	if useTrampoline {
		out = append(out, eng.emitTrampolineExit(fi, saved)...)
	} else {
		for i := len(saved) - 1; i >= 0; i-- {
			out = append(out, fl.emitPop(saved[i])...)
		}
	}

	return calleeLowering{stmts: out}, nil
}

// assembleCallee appends fi's return-dispatch block to its already-lowered
// body, once every callee's body (and therefore every NewReturnSite call
// anywhere in the program) has run.
func (eng *Lowerer) assembleCallee(fi *FnInfo, cl calleeLowering) []ast.Stmt {
	out := append([]ast.Stmt(nil), cl.stmts...)
	return append(out, eng.returnDispatch(fi)...)
}

// returnDispatch pops the saved return address and jumps to the matching
// resume label, or — when the callee has exactly one call site — jumps
// there unconditionally without a pop, mirroring the push elision in
// emitCallConvention (spec.md §4.5.3 step 6).
func (eng *Lowerer) returnDispatch(fi *FnInfo) []ast.Stmt {
	if fi.CallerCount == 1 && len(fi.CallSites) == 1 {
		return []ast.Stmt{&ast.Goto{Label: ReturnLabel(fi.CallSites[0])}}
	}
	fl := newFuncLowerer(eng, fi)
	var out []ast.Stmt
	out = append(out, fl.emitPop("__addr")...)
	sites := append([]int(nil), fi.CallSites...)
	sort.Ints(sites)
	for _, k := range sites {
		out = append(out, &ast.If{
			Cond: &ast.Operator{Op: "==", Left: varExpr("__addr"), Right: intExpr(k)},
			Then: &ast.Goto{Label: ReturnLabel(k)},
			Else: &ast.Empty{},
		})
	}
	out = append(out, &ast.Goto{Label: "__err_bad_addr"})
	return out
}

// errorHandlerLabels emits the three safe_stack error traps: an optional
// log line followed by a jump back to __reset (spec.md §4.5.4).
func (eng *Lowerer) errorHandlerLabels() []ast.Stmt {
	mk := func(label, msg string) []ast.Stmt {
		var out []ast.Stmt
		out = append(out, &ast.Label{Name: label})
		if eng.bundle.BuiltinErrorLogging {
			out = append(out, &ast.Call{Name: "echo", Args: []ast.Expr{&ast.Literal{Kind: ast.StringLiteral, Text: fmt.Sprintf("%q", msg)}}})
		}
		out = append(out, &ast.Goto{Label: "__reset"})
		return out
	}
	var out []ast.Stmt
	out = append(out, mk("__err_so", "[ERROR] stack overflow")...)
	out = append(out, mk("__err_su", "[ERROR] stack underflow")...)
	out = append(out, mk("__err_bad_addr", "[ERROR] bad return address")...)
	return out
}

// trampolineUse records one callee's request to save/restore its changed
// tmps through the shared push/pop trampoline rather than inline.
type trampolineUse struct {
	fi   *FnInfo
	tmps []string
}

// assembleTrampolines emits the shared push/pop trampoline blocks, one pair
// per distinct saved-tmp count, dispatching on __addr (which callers set to
// the callee's index before jumping in) to that callee's specific
// save/restore sequence and then back to its resume point. The pop side
// uses the reverse-pop variant decided in DESIGN.md's open questions: it
// advances __sp by the full count first, then reads the tmps in push order
// from the addresses just below that point (the first-pushed tmp at
// __sp - 1), leaving the pointer where a plain sequence of pops would have
// (spec.md §4.5.3 step 3).
func (eng *Lowerer) assembleTrampolines() []ast.Stmt {
	if len(eng.trampolines) == 0 {
		return nil
	}
	byCount := map[int][]trampolineUse{}
	for _, u := range eng.trampolines {
		byCount[len(u.tmps)] = append(byCount[len(u.tmps)], u)
	}
	var counts []int
	for k := range byCount {
		counts = append(counts, k)
	}
	sort.Ints(counts)

	var out []ast.Stmt
	for _, k := range counts {
		uses := byCount[k]

		out = append(out, &ast.Label{Name: fmt.Sprintf("__push_tmps_%d", k)})
		for _, u := range uses {
			fl := newFuncLowerer(eng, u.fi)
			var body []ast.Stmt
			for _, tmp := range u.tmps {
				body = append(body, fl.emitPush(varExpr(tmp))...)
			}
			body = append(body, &ast.Goto{Label: fmt.Sprintf("%s_push_tmps_end", u.fi.EntryLabel())})
			out = append(out, &ast.If{
				Cond: &ast.Operator{Op: "==", Left: varExpr("__addr"), Right: intExpr(u.fi.Index)},
				Then: &ast.Block{Stmts: body},
				Else: &ast.Empty{},
			})
		}
		out = append(out, &ast.Goto{Label: "__err_bad_addr"})

		out = append(out, &ast.Label{Name: fmt.Sprintf("__pop_tmps_%d", k)})
		for _, u := range uses {
			n := len(u.tmps)
			var body []ast.Stmt
			body = append(body, &ast.Assign{Name: "__sp", Op: "+=", Value: intExpr(n)})
			for i, tmp := range u.tmps {
				addr := ast.Expr(varExpr("__sp"))
				if off := -1 - i; off != 0 {
					addr = &ast.Operator{Op: "+", Left: varExpr("__sp"), Right: intExpr(off)}
				}
				body = append(body, &ast.Assign{Name: tmp, Op: "=", Value: &ast.Variable{Name: "ram", Index: addr}})
			}
			body = append(body, &ast.Goto{Label: fmt.Sprintf("%s_pop_tmps_end", u.fi.EntryLabel())})
			out = append(out, &ast.If{
				Cond: &ast.Operator{Op: "==", Left: varExpr("__addr"), Right: intExpr(u.fi.Index)},
				Then: &ast.Block{Stmts: body},
				Else: &ast.Empty{},
			})
		}
		out = append(out, &ast.Goto{Label: "__err_bad_addr"})
	}
	return out
}

// emitTrampolineEntry routes a callee into the shared push trampoline
// instead of emitting its save sequence directly.
func (eng *Lowerer) emitTrampolineEntry(fi *FnInfo, saved []string) []ast.Stmt {
	eng.trampolines = append(eng.trampolines, trampolineUse{fi: fi, tmps: saved})
	resume := fmt.Sprintf("%s_push_tmps_end", fi.EntryLabel())
	return []ast.Stmt{
		&ast.Assign{Name: "__addr", Op: "=", Value: intExpr(fi.Index)},
		&ast.Goto{Label: fmt.Sprintf("__push_tmps_%d", len(saved))},
		&ast.Label{Name: resume},
	}
}

func (eng *Lowerer) emitTrampolineExit(fi *FnInfo, saved []string) []ast.Stmt {
	resume := fmt.Sprintf("%s_pop_tmps_end", fi.EntryLabel())
	return []ast.Stmt{
		&ast.Assign{Name: "__addr", Op: "=", Value: intExpr(fi.Index)},
		&ast.Goto{Label: fmt.Sprintf("__pop_tmps_%d", len(saved))},
		&ast.Label{Name: resume},
	}
}
