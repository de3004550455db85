package lower

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sdscp/sdscc/internal/parser"
	"github.com/sdscp/sdscc/internal/passes"
	"github.com/sdscp/sdscc/internal/pragma"
	"github.com/sdscp/sdscc/internal/render"
)

func lowerSource(t *testing.T, src string, tweak func(*pragma.Bundle)) string {
	t.Helper()
	stmts, err := parser.ParseProgram(src, "t.sds")
	require.NoError(t, err)
	stmts = passes.AddBraces(stmts)

	bundle := pragma.Default()
	if tweak != nil {
		tweak(&bundle)
	}

	prog, err := Lower(stmts, bundle)
	require.NoError(t, err)

	out, err := render.Asm(prog, bundle)
	require.NoError(t, err)
	return out
}

// TestLowerMinimalMain covers spec.md §8 scenario 1: main() { echo("hi"); }
// lowers to exactly one echo('hi'); call preceded by __reset: and
// __main_loop: labels.
func TestLowerMinimalMain(t *testing.T) {
	out := lowerSource(t, `main() { echo("hi"); }`, func(b *pragma.Bundle) {
		b.RemoveDeadCode = false
	})

	resetIdx := strings.Index(out, "label __reset:")
	mainLoopIdx := strings.Index(out, "label __main_loop:")
	callIdx := strings.Index(out, "echo('hi');")
	require.GreaterOrEqual(t, resetIdx, 0, "missing __reset label:\n%s", out)
	require.GreaterOrEqual(t, mainLoopIdx, 0, "missing __main_loop label:\n%s", out)
	require.GreaterOrEqual(t, callIdx, 0, "missing echo('hi') call:\n%s", out)
	require.Less(t, resetIdx, mainLoopIdx)
	require.Less(t, mainLoopIdx, callIdx)

	require.Equal(t, 1, strings.Count(out, "echo('hi');"))
}

// TestLowerCallConventionPushesArgAndReturns covers spec.md §8 scenario 2:
// a single-call-site user function receives its argument through an __a0
// slot and a push/goto handoff, and its body reads __rval back out.
func TestLowerCallConventionPushesArgAndReturns(t *testing.T) {
	src := `sq(n) { return n * n; }
main() { var r; r = sq(3); echo(r); }`
	out := lowerSource(t, src, func(b *pragma.Bundle) {
		b.RemoveDeadCode = false
		b.InlineOneUseFunctions = false
	})

	require.Contains(t, out, "__a0")
	require.Contains(t, out, "goto __fn1;")
	require.Contains(t, out, "label __fn1:")
	require.Contains(t, out, "__rval")
}

// TestLowerForLoopLabels covers spec.md §8 scenario 3: a for loop lowers to
// a condition-test label, a continuation label and a break label, each
// namespaced to the loop.
func TestLowerForLoopLabels(t *testing.T) {
	src := `main() {
	var i;
	for (i = 0; i < 3; i = i + 1) {
		echo(i);
	}
}`
	out := lowerSource(t, src, func(b *pragma.Bundle) {
		b.RemoveDeadCode = false
	})

	require.Contains(t, out, "__for_test_")
	require.Contains(t, out, "__for_iter_")
	require.Contains(t, out, "__for_break_")
}

// TestLowerSwitchSharesBreakLabel covers spec.md §8 scenario 4: every case
// arm of one switch shares a single break label.
func TestLowerSwitchSharesBreakLabel(t *testing.T) {
	src := `main() {
	var x;
	x = 1;
	switch (x) {
	case 1:
		echo("one");
		break;
	case 2:
		echo("two");
		break;
	}
}`
	out := lowerSource(t, src, func(b *pragma.Bundle) {
		b.RemoveDeadCode = false
	})

	require.Contains(t, out, "__switch_break_")
	require.Equal(t, 1, strings.Count(out, "label __switch_break_0:"))
}

// TestLowerConstantFoldingCollapsesMacroExpandedExpression covers spec.md
// §8 scenario 5: an expression macro-expanded before lowering and built
// entirely from literals is folded to its single constant value.
func TestLowerConstantFoldingCollapsesMacroExpandedExpression(t *testing.T) {
	src := `main() { echo((2 + 3) * (2 + 3)); }`
	out := lowerSource(t, src, func(b *pragma.Bundle) {
		b.RemoveDeadCode = false
		b.SimplifyExpressions = true
	})
	require.Contains(t, out, "echo(25);")
}

// TestLowerDefaultPragmasReachUserFunction guards against a reachability
// regression: under the default bundle (remove_dead_code=true), a user
// function called only from main must still be registered and reachable,
// not dropped as dead code because main's own callees were never walked.
// Two call sites keep the default inline_one_use_functions pragma from
// splicing sq away, so its entry label and call-site goto stay observable.
func TestLowerDefaultPragmasReachUserFunction(t *testing.T) {
	src := `sq(n) { return n * n; }
main() { var r; r = sq(3); r = sq(4); echo(r); }`
	out := lowerSource(t, src, nil)

	require.Contains(t, out, "label __fn1:")
	require.Contains(t, out, "goto __fn1;")
}

// TestLowerForwardReferencedCalleeGetsFullDispatch guards against a
// return-dispatch ordering regression: a callee defined before a caller
// that invokes it from more than one call site must still end up with
// every one of its call sites routed in its return-dispatch block, not
// just whichever were registered before its dispatch block was printed.
func TestLowerForwardReferencedCalleeGetsFullDispatch(t *testing.T) {
	src := `helper(x) { return x + 1; }
worker() { echo(helper(1)); echo(helper(2)); }
main() { worker(); worker(); }`
	out := lowerSource(t, src, func(b *pragma.Bundle) {
		b.RemoveDeadCode = false
		b.InlineOneUseFunctions = false
	})

	// helper has 2 call sites (inside worker's body, lowered once) and
	// worker has 2 call sites (inside main, called twice): 4 dispatch
	// routes total. Before the fix, helper's dispatch block (emitted before
	// worker's body had been lowered) had zero routes.
	require.Equal(t, 4, strings.Count(out, "goto __rp"),
		"every call site's return-dispatch route should be present:\n%s", out)
	require.Equal(t, 4, strings.Count(out, "__addr =="),
		"every callee's dispatch block should test __addr against each of its return sites:\n%s", out)
}

// TestLowerLoopSurvivesFoldingDueToSideEffects covers spec.md §8 scenario
// 6: even with constant folding enabled, a loop whose body has a visible
// side effect (the echo call) is never collapsed away, and its counter
// still needs a tmp slot.
func TestLowerLoopSurvivesFoldingDueToSideEffects(t *testing.T) {
	src := `main() {
	var i;
	var s;
	s = 0;
	for (i = 0; i < 3; i = i + 1) {
		s = s + i;
		echo(s);
	}
}`
	out := lowerSource(t, src, func(b *pragma.Bundle) {
		b.RemoveDeadCode = false
		b.SimplifyExpressions = true
	})

	require.Contains(t, out, "__for_test_")
	require.Contains(t, out, "echo(")
	require.NotContains(t, out, "for (")
}
