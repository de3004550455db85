package lower

import (
	"fmt"

	"github.com/sdscp/sdscc/internal/ast"
)

// FnInfo is the per-function bookkeeping the calling convention and callee
// shape emission need (spec.md §4.5.1-§4.5.3).
type FnInfo struct {
	Name          string
	Index         int // assigned sequentially to non-naked, non-inline callees
	Params        []string
	Decl          *ast.FunctionDecl
	Inline        bool
	Naked         bool // true only for init/main
	Reachable     bool
	CallerCount   int   // total call-site count across the program, pre-lowering
	HasInnerCalls bool  // true if the body calls a non-inlined, non-builtin function
	CallSites     []int // return indices k recorded against this callee by NewReturnSite
}

// EntryLabel is the label a call site jumps to, per spec.md §4.5.1 step 6.
// main's naked entry is the "__main_loop" label rather than "__main", since
// the reset sequence falls into it directly without ever goto-ing there.
func (fi *FnInfo) EntryLabel() string {
	if fi.Naked {
		if fi.Name == "main" {
			return "__main_loop"
		}
		return "__" + fi.Name
	}
	return fmt.Sprintf("__fn%d", fi.Index)
}

// EndLabel is where the callee's body falls through into save/restore and
// the return-dispatch block, per spec.md §4.5.3 step 5. main's is
// "__main_loop_end" to match the emission order spec.md §4.5.1 step 6 lists.
func (fi *FnInfo) EndLabel() string {
	if fi.Naked {
		if fi.Name == "main" {
			return "__main_loop_end"
		}
		return fmt.Sprintf("__%s_end", fi.Name)
	}
	return fmt.Sprintf("__fn%d_end", fi.Index)
}

// LabelNamespace is the prefix every user label/goto inside this function is
// rewritten under, per spec.md §4.5.5 "namespaced to __fn<name>L_<label>".
func (fi *FnInfo) LabelNamespace() string {
	if fi.Naked {
		return fmt.Sprintf("__fn%sL_", fi.Name)
	}
	return fmt.Sprintf("__fn%dL_", fi.Index)
}

// ReturnLabel is the resume point a call site lands on after its callee
// returns, per spec.md §4.5.2 step 4.
func ReturnLabel(k int) string { return fmt.Sprintf("__rp%d", k) }

// FnRegistry assigns sequential indices to non-inline, non-naked callees and
// tracks, for every function, the call-site return indices that must appear
// in its return-dispatch block.
type FnRegistry struct {
	byName  map[string]*FnInfo
	order   []string
	nextIdx int
	nextRP  int
}

// NewFnRegistry creates an empty registry.
func NewFnRegistry() *FnRegistry {
	return &FnRegistry{byName: map[string]*FnInfo{}, nextIdx: 1}
}

// Register assigns fi an index (unless naked or inline) and adds it to the
// registry, preserving registration order for deterministic emission.
func (r *FnRegistry) Register(fi *FnInfo) {
	if !fi.Naked && !fi.Inline {
		fi.Index = r.nextIdx
		r.nextIdx++
	}
	r.byName[fi.Name] = fi
	r.order = append(r.order, fi.Name)
}

// Lookup returns the registered info for name, if any.
func (r *FnRegistry) Lookup(name string) (*FnInfo, bool) {
	fi, ok := r.byName[name]
	return fi, ok
}

// Names returns every registered function name in registration order.
func (r *FnRegistry) Names() []string { return r.order }

// NewReturnSite allocates a fresh return index k for a call whose callee is
// named callee, recording it against that callee's dispatch table, per
// spec.md §4.5.2 step 2.
func (r *FnRegistry) NewReturnSite(callee string) int {
	k := r.nextRP
	r.nextRP++
	if fi, ok := r.byName[callee]; ok {
		fi.CallSites = append(fi.CallSites, k)
	}
	return k
}
