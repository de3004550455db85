// Package render's Asm renderer drives no passes of its own: the lowering
// engine (internal/lower) already produced the single flat main-function
// body and the complete global list: this file only prints them, plus the
// banner, in the target dialect (spec.md §4.7 "Asm target renderer").
package render

import (
	"strings"

	"github.com/sdscp/sdscc/internal/lower"
	"github.com/sdscp/sdscc/internal/pragma"
)

// Asm renders a lowered Program as the restricted target dialect: global
// declarations for every slot the lowering engine ever allocated, followed
// by one argument-less "main" function containing its flattened body.
func Asm(prog *lower.Program, bundle pragma.Bundle) (string, error) {
	p := NewPrinter(bundle)
	p.Raw(Banner(bundle, "asm"))

	for _, name := range prog.Globals {
		p.Line("var %s;", name)
	}
	p.Blank()

	p.Line("main() {")
	p.Indent()
	for _, s := range prog.Body {
		if err := restrictedStmt(p, bundle, s); err != nil {
			return "", err
		}
	}
	p.Dedent()
	p.Line("}")

	return strings.TrimRight(p.String(), "\n") + "\n", nil
}
