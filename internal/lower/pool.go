// Package lower implements the lowering engine (spec.md §4.5): the pass
// group that turns an AddBraces'd AST into a single flat program made of
// labels, gotos, global variable declarations, assignments and built-in
// calls — the "M_Grande" core of the compiler.
package lower

import (
	"fmt"
	"sort"

	"github.com/sdscp/sdscc/internal/collections"
)

// Pool is the generic "named-slot generator with an opaque bookkeeping set"
// design note (spec.md §9) shared by the tmp, arg and label namespaces: a
// monotonically increasing counter with a free list for reuse, and an
// everUsed set that remembers every slot ever handed out so the final
// program can declare exactly the globals it references.
type Pool struct {
	prefix   string
	free     []int
	high     int
	everUsed collections.Set[int]
}

// NewPool creates an empty pool whose slots render as "<prefix><N>".
func NewPool(prefix string) *Pool {
	return &Pool{prefix: prefix, everUsed: collections.Set[int]{}}
}

func (p *Pool) name(n int) string { return fmt.Sprintf("%s%d", p.prefix, n) }

// Alloc reserves a fresh slot, preferring a released one over a brand new
// high-water slot so scopes that come and go do not grow the namespace
// without bound.
func (p *Pool) Alloc() string {
	var n int
	if len(p.free) > 0 {
		n = p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
	} else {
		n = p.high
		p.high++
	}
	p.everUsed.Add(n)
	return p.name(n)
}

// Release returns a slot to the free list for reuse within the same
// function's remaining lowering.
func (p *Pool) Release(name string) {
	var n int
	if _, err := fmt.Sscanf(name, p.prefix+"%d", &n); err != nil {
		return
	}
	p.free = append(p.free, n)
}

// Mark reserves idx explicitly, for slots bound by convention (the arg pool
// slots a0..aN-1 bound to a callee's declared parameters).
func (p *Pool) Mark(idx int) string {
	p.everUsed.Add(idx)
	if idx >= p.high {
		p.high = idx + 1
	}
	return p.name(idx)
}

// Rewind snapshots the pool's high-water mark. Pair with Restore around a
// single call site's argument lowering so a nested call's argument
// expressions do not clobber the outer call's argument slots (spec.md §5).
func (p *Pool) Rewind() int { return p.high }

// Restore rewinds the high-water mark back to mark, releasing every slot
// allocated since the paired Rewind.
func (p *Pool) Restore(mark int) {
	for n := mark; n < p.high; n++ {
		p.free = append(p.free, n)
	}
	p.high = mark
}

// EverUsedNames returns every name this pool ever handed out, in ascending
// numeric order (so __t2 precedes __t10 the way collections.NaturalCompare
// would order their string forms).
func (p *Pool) EverUsedNames() []string {
	ns := p.everUsed.Values()
	sort.Ints(ns)
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = p.name(n)
	}
	return out
}

// LabelPool hands out unique synthetic label names for compiler-generated
// control flow (loop test/continue/break labels, switch case labels, inline
// splice end labels). Unlike Pool it never reuses a name: labels are never
// released mid-function the way tmps are.
type LabelPool struct {
	counters map[string]int
}

// NewLabelPool creates an empty label pool.
func NewLabelPool() *LabelPool {
	return &LabelPool{counters: map[string]int{}}
}

// New returns a fresh label of the form "__<tag>_<n>", e.g. "__for_test_3".
func (lp *LabelPool) New(tag string) string {
	n := lp.counters[tag]
	lp.counters[tag] = n + 1
	return fmt.Sprintf("__%s_%d", tag, n)
}
