package lower

import "github.com/sdscp/sdscc/internal/collections"

// builtinNames is the fixed list of target-provided functions spec.md
// §4.5.6 calls out by example ("echo, wait, sprintf, atoi, http_get, …").
// A name outside this set and outside the user's own FnRegistry is an
// undefined-function semantic error (spec.md §7.3).
var builtinNames = collections.ToSet([]string{
	"echo", "wait", "sprintf", "atoi", "http_get", "http_post",
	"strlen", "strcmp", "substr", "rand", "abs", "min", "max",
	"sys_get", "sys_set", "i2c_read", "i2c_write", "gpio_read", "gpio_write",
	"debug", "assert",
})

func isBuiltin(name string) bool { return builtinNames.Contains(name) }

// IsBuiltin reports whether name is one of the target's built-in functions,
// exported for the Simple renderer's validation pass (spec.md §4.7), which
// needs the same builtin/user-function distinction as expression lowering's
// lowerCallExpr without running lowering itself.
func IsBuiltin(name string) bool { return isBuiltin(name) }
