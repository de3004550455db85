// Package pragma defines the lowering engine's configuration bundle: the
// defaulted, typed set of knobs spec.md §6 documents, populated from
// repeated "-p name value" flags and, optionally, an on-disk sdscc.toml
// file read before flags are applied.
package pragma

import "fmt"

// Renderer selects which of the three output renderers runs.
type Renderer string

const (
	RendererSimple Renderer = "simple"
	RendererAsm    Renderer = "asm"
	RendererDebug  Renderer = "debug"
)

// Bundle is the full set of compiler-behavior pragmas, defaulted per
// spec.md §6.
type Bundle struct {
	SafeStack bool `toml:"safe_stack"`
	StackStart int `toml:"stack_start"`
	StackEnd   int `toml:"stack_end"`

	KeepNames bool `toml:"keep_names"`
	Fullspeed bool `toml:"fullspeed"`
	ShowTrace bool `toml:"show_trace"`

	BuiltinLogging      bool `toml:"builtin_logging"`
	BuiltinErrorLogging bool `toml:"builtin_error_logging"`

	InlineOneUseFunctions bool `toml:"inline_one_use_functions"`
	RemoveDeadCode        bool `toml:"remove_dead_code"`
	SimplifyIfs           bool `toml:"simplify_ifs"`
	SimplifyExpressions   bool `toml:"simplify_expressions"`

	PushPopTrampolines      bool `toml:"push_pop_trampolines"`
	PushPopTrampolineLimit  int  `toml:"push_pop_trampoline_limit"`

	Comments bool   `toml:"comments"`
	Indent   string `toml:"indent"`

	Name    string `toml:"name"`
	Author  string `toml:"author"`
	Version string `toml:"version"`

	Renderer Renderer `toml:"renderer"`
}

// Default returns the bundle with every pragma at the value spec.md §6
// documents.
func Default() Bundle {
	b := Bundle{
		SafeStack:  true,
		StackStart: 300,
		StackEnd:   511,

		KeepNames: false,
		Fullspeed: true,
		ShowTrace: false,

		BuiltinLogging:      true,
		BuiltinErrorLogging: true,

		InlineOneUseFunctions: true,
		RemoveDeadCode:        true,
		SimplifyIfs:           true,
		SimplifyExpressions:   true,

		PushPopTrampolines: false,

		Comments: true,
		Indent:   "\t",

		Renderer: RendererSimple,
	}
	b.PushPopTrampolineLimit = b.defaultTrampolineLimit()
	return b
}

// defaultTrampolineLimit implements spec.md §6's "2 if safe_stack else ≥3"
// default, evaluated against the bundle's current SafeStack value.
func (b Bundle) defaultTrampolineLimit() int {
	if b.SafeStack {
		return 2
	}
	return 3
}

// Set applies one "-p name value" pair to the bundle in place, using the
// same name/value parsing style as the teacher's macro flag handling in
// language/internal/cc/macros.go.
func (b *Bundle) Set(name, value string) error {
	switch name {
	case "safe_stack":
		return setBool(&b.SafeStack, value)
	case "stack_start":
		return setInt(&b.StackStart, value)
	case "stack_end":
		return setInt(&b.StackEnd, value)
	case "keep_names":
		return setBool(&b.KeepNames, value)
	case "fullspeed":
		return setBool(&b.Fullspeed, value)
	case "show_trace":
		return setBool(&b.ShowTrace, value)
	case "builtin_logging":
		return setBool(&b.BuiltinLogging, value)
	case "builtin_error_logging":
		return setBool(&b.BuiltinErrorLogging, value)
	case "inline_one_use_functions":
		return setBool(&b.InlineOneUseFunctions, value)
	case "remove_dead_code":
		return setBool(&b.RemoveDeadCode, value)
	case "simplify_ifs":
		return setBool(&b.SimplifyIfs, value)
	case "simplify_expressions":
		return setBool(&b.SimplifyExpressions, value)
	case "push_pop_trampolines":
		return setBool(&b.PushPopTrampolines, value)
	case "push_pop_trampoline_limit":
		return setInt(&b.PushPopTrampolineLimit, value)
	case "comments":
		return setBool(&b.Comments, value)
	case "indent":
		b.Indent = value
	case "name":
		b.Name = value
	case "author":
		b.Author = value
	case "version":
		b.Version = value
	case "renderer":
		b.Renderer = Renderer(value)
	default:
		return fmt.Errorf("unknown pragma %q", name)
	}
	return nil
}

func setBool(dst *bool, value string) error {
	switch value {
	case "true", "1", "yes", "on", "":
		*dst = true
	case "false", "0", "no", "off":
		*dst = false
	default:
		return fmt.Errorf("invalid boolean pragma value %q", value)
	}
	return nil
}

func setInt(dst *int, value string) error {
	var n int
	if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
		return fmt.Errorf("invalid integer pragma value %q: %w", value, err)
	}
	*dst = n
	return nil
}
