package passes

import (
	"fmt"

	"github.com/sdscp/sdscc/internal/ast"
)

// RemoveDeadCode runs the two interleaved sub-passes of spec.md §4.6 to a
// fixpoint: culling statements between an unconditional goto and the next
// reachable label, then pruning labels nothing jumps to. Returns an error
// if a goto targets a label that does not exist anywhere in stmts.
func RemoveDeadCode(stmts []ast.Stmt) ([]ast.Stmt, error) {
	for {
		next, changedA := cullUnreachable(stmts)
		used := collectGotoTargets(next)
		defined := collectLabels(next)
		for target := range used {
			if !defined[target] {
				return nil, fmt.Errorf("goto targets undefined label %q", target)
			}
		}
		pruned, changedB := pruneUnusedLabels(next, used)
		stmts = pruned
		if !changedA && !changedB {
			return stmts, nil
		}
	}
}

// cullUnreachable drops every statement between a goto and the next
// reachable label (dropping the goto too if that label is its own target),
// recursing into every structured statement body. A Comment whose text
// contains "FUNC" survives as a navigation banner.
func cullUnreachable(stmts []ast.Stmt) ([]ast.Stmt, bool) {
	changed := false
	var out []ast.Stmt
	unreachable := false
	var pendingGoto *ast.Goto

	flushPendingGoto := func() {
		if pendingGoto != nil {
			out = append(out, pendingGoto)
			pendingGoto = nil
		}
	}

	for _, s := range stmts {
		s = recurseIntoBody(s, &changed)

		if unreachable {
			if lbl, ok := s.(*ast.Label); ok {
				unreachable = false
				if pendingGoto != nil && pendingGoto.Label == lbl.Name {
					pendingGoto = nil // goto immediately followed by its own target: drop both
					changed = true
				} else {
					flushPendingGoto()
				}
				out = append(out, s)
				continue
			}
			if c, ok := s.(*ast.Comment); ok && containsFunc(c.Text) {
				out = append(out, s) // banner survives the cull
				continue
			}
			changed = true
			continue // drop: unreachable
		}

		out = append(out, s)
		if g, ok := s.(*ast.Goto); ok {
			unreachable = true
			pendingGoto = g
			out = out[:len(out)-1] // hold back; re-added by flushPendingGoto/label logic above
		}
	}
	flushPendingGoto()
	return out, changed
}

func containsFunc(text string) bool {
	for i := 0; i+4 <= len(text); i++ {
		if text[i:i+4] == "FUNC" {
			return true
		}
	}
	return false
}

// recurseIntoBody walks into a structured statement's nested bodies,
// running cullUnreachable on each, per spec.md §4.6 "walks into every
// structured statement".
func recurseIntoBody(s ast.Stmt, changed *bool) ast.Stmt {
	switch n := s.(type) {
	case *ast.Block:
		next, c := cullUnreachable(n.Stmts)
		n.Stmts = next
		*changed = *changed || c
	case *ast.If:
		n.Then = recurseIntoBody(n.Then, changed)
		n.Else = recurseIntoBody(n.Else, changed)
	case *ast.While:
		n.Body = recurseIntoBody(n.Body, changed)
	case *ast.DoWhile:
		n.Body = recurseIntoBody(n.Body, changed)
	case *ast.For:
		n.Body = recurseIntoBody(n.Body, changed)
		initNext, c1 := cullUnreachable(n.Init)
		n.Init = initNext
		iterNext, c2 := cullUnreachable(n.Iter)
		n.Iter = iterNext
		*changed = *changed || c1 || c2
	case *ast.Switch:
		n.Body = recurseIntoBody(n.Body, changed)
	case *ast.FunctionDecl:
		next, c := cullUnreachable(n.Body.Stmts)
		n.Body.Stmts = next
		*changed = *changed || c
	}
	return s
}

func collectGotoTargets(stmts []ast.Stmt) map[string]bool {
	used := map[string]bool{}
	var walk func(ast.Stmt)
	walk = func(s ast.Stmt) {
		switch n := s.(type) {
		case *ast.Goto:
			used[n.Label] = true
		case *ast.Block:
			for _, c := range n.Stmts {
				walk(c)
			}
		case *ast.If:
			walk(n.Then)
			walk(n.Else)
		case *ast.While:
			walk(n.Body)
		case *ast.DoWhile:
			walk(n.Body)
		case *ast.For:
			for _, c := range n.Init {
				walk(c)
			}
			for _, c := range n.Iter {
				walk(c)
			}
			walk(n.Body)
		case *ast.Switch:
			walk(n.Body)
		case *ast.FunctionDecl:
			for _, c := range n.Body.Stmts {
				walk(c)
			}
		}
	}
	for _, s := range stmts {
		walk(s)
	}
	return used
}

func collectLabels(stmts []ast.Stmt) map[string]bool {
	defined := map[string]bool{}
	var walk func(ast.Stmt)
	walk = func(s ast.Stmt) {
		switch n := s.(type) {
		case *ast.Label:
			defined[n.Name] = true
		case *ast.Block:
			for _, c := range n.Stmts {
				walk(c)
			}
		case *ast.If:
			walk(n.Then)
			walk(n.Else)
		case *ast.While:
			walk(n.Body)
		case *ast.DoWhile:
			walk(n.Body)
		case *ast.For:
			for _, c := range n.Init {
				walk(c)
			}
			for _, c := range n.Iter {
				walk(c)
			}
			walk(n.Body)
		case *ast.Switch:
			walk(n.Body)
		case *ast.FunctionDecl:
			for _, c := range n.Body.Stmts {
				walk(c)
			}
		}
	}
	for _, s := range stmts {
		walk(s)
	}
	return defined
}

// pruneUnusedLabels removes Label statements nothing jumps to, recursing
// into every structured statement the same way cullUnreachable does.
func pruneUnusedLabels(stmts []ast.Stmt, used map[string]bool) ([]ast.Stmt, bool) {
	changed := false
	var out []ast.Stmt
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.Label:
			if !used[n.Name] {
				changed = true
				continue
			}
		case *ast.Block:
			next, c := pruneUnusedLabels(n.Stmts, used)
			n.Stmts = next
			changed = changed || c
		case *ast.If:
			n.Then = pruneSingle(n.Then, used, &changed)
			n.Else = pruneSingle(n.Else, used, &changed)
		case *ast.While:
			n.Body = pruneSingle(n.Body, used, &changed)
		case *ast.DoWhile:
			n.Body = pruneSingle(n.Body, used, &changed)
		case *ast.For:
			n.Body = pruneSingle(n.Body, used, &changed)
			initNext, c1 := pruneUnusedLabels(n.Init, used)
			n.Init = initNext
			iterNext, c2 := pruneUnusedLabels(n.Iter, used)
			n.Iter = iterNext
			changed = changed || c1 || c2
		case *ast.Switch:
			n.Body = pruneSingle(n.Body, used, &changed)
		case *ast.FunctionDecl:
			next, c := pruneUnusedLabels(n.Body.Stmts, used)
			n.Body.Stmts = next
			changed = changed || c
		}
		out = append(out, s)
	}
	return out, changed
}

func pruneSingle(s ast.Stmt, used map[string]bool, changed *bool) ast.Stmt {
	if b, ok := s.(*ast.Block); ok {
		next, c := pruneUnusedLabels(b.Stmts, used)
		b.Stmts = next
		*changed = *changed || c
		return b
	}
	return s
}
